// Package client calls the inveniam RPC boundary over HTTP.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fillip1984/inveniam/domain/kanban"
)

// DefaultTimeout bounds every call that has no context deadline.
const DefaultTimeout = 10 * time.Second

// Error is a non-2xx response from the server.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("rpc error: status %d", e.Status)
	}
	return fmt.Sprintf("rpc error: status %d: %s", e.Status, e.Message)
}

// Unwrap maps the status onto the kanban error taxonomy.
func (e *Error) Unwrap() error {
	switch e.Status {
	case fiber.StatusNotFound:
		return kanban.ErrNotFound
	case fiber.StatusBadRequest:
		return kanban.ErrValidation
	}
	return nil
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer access token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// Client is a thin RPC client. Calls may run concurrently once Login has returned.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
}

// New creates a client for the server at baseURL, e.g. http://localhost:3000.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type rpcEnvelope struct {
	Result struct {
		Data json.RawMessage `json:"data"`
	} `json:"result"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Mutate POSTs input to procedure and decodes the result into out (which may be nil).
func (c *Client) Mutate(ctx context.Context, procedure string, input, out any) error {
	body, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to encode %s input: %w", procedure, err)
	}
	a := fiber.Post(c.rpcURL(procedure))
	a.ContentType(fiber.MIMEApplicationJSON)
	a.Body(body)
	return c.do(ctx, a, procedure, out)
}

// Query GETs procedure with input in the ?input= parameter.
func (c *Client) Query(ctx context.Context, procedure string, input, out any) error {
	raw, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to encode %s input: %w", procedure, err)
	}
	a := fiber.Get(c.rpcURL(procedure))
	a.QueryString("input=" + url.QueryEscape(string(raw)))
	return c.do(ctx, a, procedure, out)
}

func (c *Client) rpcURL(procedure string) string {
	return c.baseURL + "/api/rpc/" + procedure
}

func (c *Client) do(ctx context.Context, a *fiber.Agent, procedure string, out any) error {
	if err := ctx.Err(); err != nil {
		fiber.ReleaseAgent(a)
		return err
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}
	a.Timeout(timeout)
	if c.token != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}

	status, body, errs := a.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("failed to call %s: %w", procedure, errors.Join(errs...))
	}

	if status < 200 || status > 299 {
		var eb errorBody
		_ = json.Unmarshal(body, &eb)
		return &Error{Status: status, Code: eb.Error, Message: eb.Message}
	}
	if out == nil {
		return nil
	}

	var env rpcEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", procedure, err)
	}
	if len(env.Result.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result.Data, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", procedure, err)
	}
	return nil
}
