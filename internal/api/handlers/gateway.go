package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/calebhsu/swarmdesk/internal/gateway"
)

// GatewayHandler exposes the tool gateway operations for inspection and
// manual invocation
type GatewayHandler struct {
	client *gateway.Client
}

// NewGatewayHandler creates a new gateway handler
func NewGatewayHandler(client *gateway.Client) *GatewayHandler {
	return &GatewayHandler{client: client}
}

type gatewayRequest struct {
	Operation string         `json:"operation"`
	Name      string         `json:"name,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Invoke dispatches a gateway operation: list_tools, describe_tool, or
// invoke_tool
func (h *GatewayHandler) Invoke(c *fiber.Ctx) error {
	var req gatewayRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	switch req.Operation {
	case "list_tools":
		tools, err := h.client.ListTools(c.Context())
		if err != nil {
			return gatewayError(c, err)
		}
		return c.JSON(fiber.Map{"tools": tools})

	case "describe_tool":
		if req.Name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "name is required",
			})
		}
		tool, err := h.client.DescribeTool(c.Context(), req.Name)
		if err != nil {
			return gatewayError(c, err)
		}
		return c.JSON(fiber.Map{"tool": tool})

	case "invoke_tool":
		if req.Name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "name is required",
			})
		}
		record, err := h.client.InvokeTool(c.Context(), req.Name, req.Arguments)
		if err != nil {
			return gatewayError(c, err)
		}
		return c.JSON(fiber.Map{"action": record})

	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unknown operation: " + req.Operation,
		})
	}
}

// gatewayError maps gateway error classes to HTTP statuses
func gatewayError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, gateway.ErrInvalidArgument):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, gateway.ErrToolNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, gateway.ErrUnconfigured):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "tool gateway is not configured"})
	default:
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
}
