package discord

import (
	"errors"
	"fmt"
	"net/http"
)

// JSON error codes, see https://discord.com/developers/docs/topics/opcodes-and-status-codes
const (
	CodeUnknownChannel = 10003
	CodeUnknownMessage = 10008
)

// Error is a non-2xx reply of the REST API.
type Error struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("discord: %d %s (code %d)", e.Status, e.Message, e.Code)
	}
	return fmt.Sprintf("discord: status %d", e.Status)
}

// IsNotFound reports whether err means the addressed channel or message is gone.
func IsNotFound(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Status == http.StatusNotFound || e.Code == CodeUnknownChannel || e.Code == CodeUnknownMessage
}
