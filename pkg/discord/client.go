package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL   = "https://discord.com/api/v10"
	DefaultUserAgent = "DiscordBot (https://github.com/JMcB17/pydis-pixels, 2.2.0)"
)

type Option func(c *Client)

func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.cli.SetHostURL(url)
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.cli.SetTimeout(d)
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.cli.SetHeader("User-Agent", ua)
	}
}

// New returns a REST client authenticated as the bot behind token.
func New(token string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		cli: resty.New().
			SetHostURL(DefaultBaseURL).
			SetTimeout(15*time.Second).
			SetHeader("Authorization", "Bot "+token).
			SetHeader("User-Agent", DefaultUserAgent),
		log: logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type Client struct {
	cli *resty.Client
	log *zap.Logger
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.cli.R().SetContext(ctx).SetError(&Error{})
}

func (c *Client) check(op string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s failed: %w", op, err)
	}

	if resp.IsError() {
		apiErr, _ := resp.Error().(*Error)
		if apiErr == nil {
			apiErr = &Error{}
		}
		apiErr.Status = resp.StatusCode()
		return fmt.Errorf("%s failed: %w", op, apiErr)
	}

	return nil
}

func (c *Client) CreateMessage(ctx context.Context, channelID Snowflake, msg *MessageSend) (*Message, error) {
	var m Message
	resp, err := c.request(ctx).
		SetPathParam("channel", channelID.String()).
		SetBody(msg).
		SetResult(&m).
		Post("/channels/{channel}/messages")
	if err := c.check("create message", resp, err); err != nil {
		return nil, err
	}

	return &m, nil
}

func (c *Client) GetMessage(ctx context.Context, channelID, messageID Snowflake) (*Message, error) {
	var m Message
	resp, err := c.request(ctx).
		SetPathParams(map[string]string{
			"channel": channelID.String(),
			"message": messageID.String(),
		}).
		SetResult(&m).
		Get("/channels/{channel}/messages/{message}")
	if err := c.check("get message", resp, err); err != nil {
		return nil, err
	}

	return &m, nil
}

// EditMessage patches a message. With files the request is sent as
// multipart/form-data, the JSON payload in the payload_json part and the
// uploads as files[n], all in a single request.
func (c *Client) EditMessage(ctx context.Context, channelID, messageID Snowflake, edit *MessageEdit, files ...*File) (*Message, error) {
	var m Message
	req := c.request(ctx).
		SetPathParams(map[string]string{
			"channel": channelID.String(),
			"message": messageID.String(),
		}).
		SetResult(&m)

	if len(files) == 0 {
		req.SetBody(edit)
	} else {
		contentType, body, err := multipartBody(edit, files)
		if err != nil {
			return nil, fmt.Errorf("build multipart failed: %w", err)
		}
		req.SetHeader("Content-Type", contentType).SetBody(body)

		c.log.With(
			zap.Stringer("channel", channelID),
			zap.Stringer("message", messageID),
			zap.Int("files", len(files)),
			zap.Int("bytes", len(body)),
		).Debug("edit-message")
	}

	resp, err := req.Patch("/channels/{channel}/messages/{message}")
	if err := c.check("edit message", resp, err); err != nil {
		return nil, err
	}

	return &m, nil
}

func (c *Client) GatewayURL(ctx context.Context) (string, error) {
	var ret struct {
		URL string `json:"url"`
	}
	resp, err := c.request(ctx).SetResult(&ret).Get("/gateway/bot")
	if err := c.check("get gateway", resp, err); err != nil {
		return "", err
	}

	return ret.URL, nil
}

func (c *Client) Application(ctx context.Context) (*Application, error) {
	var app Application
	resp, err := c.request(ctx).SetResult(&app).Get("/oauth2/applications/@me")
	if err := c.check("get application", resp, err); err != nil {
		return nil, err
	}

	return &app, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func multipartBody(payload interface{}, files []*File) (string, []byte, error) {
	js, err := json.Marshal(payload)
	if err != nil {
		return "", nil, err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="payload_json"`)
	h.Set("Content-Type", "application/json")
	part, err := w.CreatePart(h)
	if err != nil {
		return "", nil, err
	}
	if _, err := part.Write(js); err != nil {
		return "", nil, err
	}

	for i, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files[%d]"; filename="%s"`, i, quoteEscaper.Replace(f.Name)))
		h.Set("Content-Type", lo.Ternary(f.ContentType != "", f.ContentType, "application/octet-stream"))
		part, err := w.CreatePart(h)
		if err != nil {
			return "", nil, err
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return "", nil, err
		}
	}

	if err := w.Close(); err != nil {
		return "", nil, err
	}

	return w.FormDataContentType(), buf.Bytes(), nil
}
