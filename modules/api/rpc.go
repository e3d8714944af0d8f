package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/gofiber/fiber/v2"

	"github.com/fillip1984/inveniam/modules/auth"
)

// ServiceCaller invokes a request-reply service of a module with raw JSON.
type ServiceCaller interface {
	Call(ctx context.Context, module, service string, req json.RawMessage) (json.RawMessage, error)
}

// containerCaller dispatches to the service containers of dependency modules.
type containerCaller map[string]mono.ServiceContainer

func (cc containerCaller) Call(ctx context.Context, module, service string, req json.RawMessage) (json.RawMessage, error) {
	container, ok := cc[module]
	if !ok || container == nil {
		return nil, fmt.Errorf("module %s not available", module)
	}
	var resp json.RawMessage
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, err
	}
	return resp, nil
}

// callerField is the input key the dispatcher overwrites with the
// authenticated user; clients cannot choose it.
const callerField = "caller_user_id"

// RPCHandlers serves /api/rpc/<namespace>.<procedure>.
type RPCHandlers struct {
	caller      ServiceCaller
	authAdapter auth.AuthPort
}

// NewRPCHandlers creates RPC handlers.
func NewRPCHandlers(caller ServiceCaller, authAdapter auth.AuthPort) *RPCHandlers {
	return &RPCHandlers{caller: caller, authAdapter: authAdapter}
}

// Resolve looks up the procedure and authenticates it when required. It runs
// before the rate limiter so that limits apply per user.
func (h *RPCHandlers) Resolve(c *fiber.Ctx) error {
	p, ok := lookupProcedure(c.Params("procedure"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: fmt.Sprintf("procedure %s not found", c.Params("procedure")),
		})
	}
	c.Locals("procedure", p)
	if p.Public {
		return c.Next()
	}
	return AuthMiddleware(h.authAdapter)(c)
}

// Dispatch decodes the input, injects the caller and invokes the procedure.
func (h *RPCHandlers) Dispatch(c *fiber.Ctx) error {
	p, ok := c.Locals("procedure").(procedure)
	if !ok {
		return fiber.ErrNotFound
	}

	input, err := readInput(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
	}

	stripCaller(input)
	if !p.Public {
		userID := callerID(c)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "User not authenticated",
			})
		}
		raw, _ := json.Marshal(userID)
		input[callerField] = raw
	}

	req, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to encode input: %w", err)
	}

	out, err := h.caller.Call(c.UserContext(), p.Module, p.Service, req)
	if err != nil {
		return err
	}
	if len(out) == 0 {
		out = json.RawMessage("null")
	}
	return c.JSON(RPCResult{Result: RPCData{Data: out}})
}

// stripCaller removes every key that encoding/json would decode into the
// caller field. Struct field matching folds case, including Unicode folds
// such as U+017F for "s".
func stripCaller(input map[string]json.RawMessage) {
	for k := range input {
		if strings.EqualFold(k, callerField) {
			delete(input, k)
		}
	}
}

// readInput accepts a JSON object from the POST body or the GET ?input=
// parameter. An absent input is an empty object.
func readInput(c *fiber.Ctx) (map[string]json.RawMessage, error) {
	var raw []byte
	if c.Method() == fiber.MethodGet {
		raw = []byte(c.Query("input"))
	} else {
		raw = c.Body()
	}

	input := map[string]json.RawMessage{}
	if len(raw) == 0 || string(raw) == "null" {
		return input, nil
	}
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, fmt.Errorf("input must be a JSON object: %w", err)
	}
	if input == nil {
		input = map[string]json.RawMessage{}
	}
	return input, nil
}
