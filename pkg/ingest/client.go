package ingest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"pixelmirror/pkg/mirror"
)

var ErrRejected = errors.New("canvas rejected")

// NewClient talks to the ingest API at baseURL, from the producer's side.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetHostURL(baseURL).
			SetTimeout(timeout),
	}
}

type Client struct {
	http *resty.Client
}

// Push hands one raw canvas buffer to the mirror.
func (c *Client) Push(ctx context.Context, buf []byte) (*UpdateResponse, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(buf).
		SetResult(&UpdateResponse{}).
		SetError(&ErrorResponse{}).
		Put("/canvas")
	if err := check(resp, err); err != nil {
		return nil, err
	}

	return resp.Result().(*UpdateResponse), nil
}

func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&StatusResponse{}).
		SetError(&ErrorResponse{}).
		Get("/mirror")
	if err := check(resp, err); err != nil {
		return nil, err
	}

	return resp.Result().(*StatusResponse), nil
}

// Clear forgets the current mirror.
func (c *Client) Clear(ctx context.Context) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetError(&ErrorResponse{}).
		Delete("/mirror")
	return check(resp, err)
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}

	msg := resp.Status()
	if e, ok := resp.Error().(*ErrorResponse); ok && e.Error != "" {
		msg = e.Error
	}

	switch resp.StatusCode() {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrRejected, msg)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", mirror.ErrStaleMirror, msg)
	case http.StatusBadGateway:
		return fmt.Errorf("%w: %s", mirror.ErrPublish, msg)
	default:
		return fmt.Errorf("ingest %s: %s", resp.Status(), msg)
	}
}
