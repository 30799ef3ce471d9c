// Package callable serves functions over the callable-function HTTP
// protocol: a JSON POST of {"data": ...} answered by {"result": ...} or
// {"error": {"status": ..., "message": ...}}.
package callable

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Func is a callable function body. Returning an *Error sends that
// error to the caller; any other error is reported as INTERNAL.
type Func func(ctx context.Context, data json.RawMessage) (any, error)

type requestEnvelope struct {
	Data json.RawMessage `json:"data"`
}

type resultEnvelope struct {
	Result any `json:"result"`
}

type errorEnvelope struct {
	Error *Error `json:"error"`
}

var errBadRequest = NewError(InvalidArgument, "Bad Request")

// Handler adapts fn to a fiber handler speaking the callable protocol.
func Handler(fn Func) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost {
			return WriteError(c, errBadRequest)
		}
		ct := strings.ToLower(string(c.Request().Header.ContentType()))
		if !strings.HasPrefix(ct, fiber.MIMEApplicationJSON) {
			return WriteError(c, errBadRequest)
		}

		var req requestEnvelope
		if err := json.Unmarshal(c.Body(), &req); err != nil || req.Data == nil {
			return WriteError(c, errBadRequest)
		}

		result, err := fn(c.UserContext(), req.Data)
		if err != nil {
			return WriteError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(resultEnvelope{Result: result})
	}
}

// WriteError sends err using the callable error envelope.
func WriteError(c *fiber.Ctx, err error) error {
	var ce *Error
	if !errors.As(err, &ce) {
		ce = NewError(Internal, "INTERNAL")
	}
	return c.Status(ce.Code.HTTPStatus()).JSON(errorEnvelope{Error: ce})
}
