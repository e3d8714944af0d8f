package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/fillip1984/inveniam/domain/kanban"
	"github.com/fillip1984/inveniam/drag"
)

var _ drag.Persister = (*Client)(nil)

// ReportSummary is the output of tasks.sendReportEmail.
type ReportSummary struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Tokens is the response of the login endpoint.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Login exchanges credentials for a token pair and uses the access token for
// later calls.
func (c *Client) Login(ctx context.Context, email, password string) (Tokens, error) {
	var tokens Tokens
	if err := ctx.Err(); err != nil {
		return tokens, err
	}
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return tokens, err
	}

	a := fiber.Post(c.baseURL + "/api/v1/auth/login")
	a.ContentType(fiber.MIMEApplicationJSON)
	a.Body(body)
	a.Timeout(c.timeout)

	status, resp, errs := a.Bytes()
	if len(errs) > 0 {
		return tokens, fmt.Errorf("failed to login: %w", errors.Join(errs...))
	}
	if status != fiber.StatusOK {
		var eb errorBody
		_ = json.Unmarshal(resp, &eb)
		return tokens, &Error{Status: status, Code: eb.Error, Message: eb.Message}
	}
	if err := json.Unmarshal(resp, &tokens); err != nil {
		return tokens, fmt.Errorf("failed to decode login response: %w", err)
	}
	c.token = tokens.AccessToken
	return tokens, nil
}

// ReadBoard fetches the full board tree.
func (c *Client) ReadBoard(ctx context.Context, boardID string) (kanban.Board, error) {
	var board kanban.Board
	err := c.Query(ctx, "boards.readOne", map[string]string{"id": boardID}, &board)
	return board, err
}

// Snapshot reads a board into a drag snapshot.
func (c *Client) Snapshot(ctx context.Context, boardID string) (drag.Snapshot, error) {
	board, err := c.ReadBoard(ctx, boardID)
	if err != nil {
		return drag.Snapshot{}, err
	}
	return drag.Snapshot{BoardID: board.ID, Buckets: board.Buckets}.Normalize(), nil
}

// UpdateTaskPositions persists one task position batch.
func (c *Client) UpdateTaskPositions(ctx context.Context, tasks []kanban.TaskPositionUpdate) error {
	return c.Mutate(ctx, "tasks.updatePositions", map[string]any{"tasks": tasks}, nil)
}

// UpdateBucketPositions persists one bucket position batch.
func (c *Client) UpdateBucketPositions(ctx context.Context, buckets []kanban.BucketPositionUpdate) error {
	return c.Mutate(ctx, "boards.updateBucketPositions", map[string]any{"buckets": buckets}, nil)
}

// SendReportEmail triggers the status digest. token is the configured
// trigger token and may be empty.
func (c *Client) SendReportEmail(ctx context.Context, token string) (ReportSummary, error) {
	var summary ReportSummary
	err := c.Query(ctx, "tasks.sendReportEmail", map[string]string{"token": token}, &summary)
	return summary, err
}

// TriggerReport sends the GET a timer issues to a status report endpoint,
// e.g. http://localhost:3000/api/rpc/tasks.sendReportEmail.
func TriggerReport(ctx context.Context, endpoint, token string) (ReportSummary, error) {
	var summary ReportSummary
	raw, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return summary, err
	}
	a := fiber.Get(endpoint)
	a.QueryString("input=" + url.QueryEscape(string(raw)))
	err = New("").do(ctx, a, "tasks.sendReportEmail", &summary)
	return summary, err
}
