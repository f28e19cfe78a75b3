package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/calebhsu/swarmdesk/internal/swarm"
	"github.com/calebhsu/swarmdesk/internal/ticket"
)

// SwarmHandler handles swarm run requests
type SwarmHandler struct {
	orchestrator *swarm.Orchestrator
}

// NewSwarmHandler creates a new swarm handler
func NewSwarmHandler(orchestrator *swarm.Orchestrator) *SwarmHandler {
	return &SwarmHandler{orchestrator: orchestrator}
}

// RunSwarm drives a ticket through the pipeline and returns the aggregate
// result. A failed run is still a 200: the result carries the error
// descriptor and whatever stages completed.
func (h *SwarmHandler) RunSwarm(c *fiber.Ctx) error {
	var t ticket.Ticket
	if err := c.BodyParser(&t); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	result, err := h.orchestrator.Run(c.Context(), t)
	if err != nil {
		if errors.Is(err, ticket.ErrInvalidTicket) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(result)
}

// StartRun launches a run in the background and returns its id. Progress is
// observed through the run websocket stream or by polling GetRun.
func (h *SwarmHandler) StartRun(c *fiber.Ctx) error {
	var t ticket.Ticket
	if err := c.BodyParser(&t); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	run, err := h.orchestrator.Start(t)
	if err != nil {
		if errors.Is(err, ticket.ErrInvalidTicket) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	snapshot := run.Snapshot()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"run_id":    snapshot.ID,
		"ticket_id": snapshot.TicketID,
		"state":     snapshot.State,
	})
}

// GetRun returns a run's lifecycle state and, once terminal, its result
func (h *SwarmHandler) GetRun(c *fiber.Ctx) error {
	run, err := h.orchestrator.GetRun(c.Params("id"))
	if err != nil {
		if errors.Is(err, swarm.ErrRunNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "run not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"run":    run.Snapshot(),
		"result": run.Result(),
	})
}
