package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/calebhsu/swarmdesk/internal/knowledge"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 10
)

// KnowledgeHandler handles knowledge base requests
type KnowledgeHandler struct {
	store *knowledge.Store
}

// NewKnowledgeHandler creates a new knowledge handler
func NewKnowledgeHandler(store *knowledge.Store) *KnowledgeHandler {
	return &KnowledgeHandler{store: store}
}

// AddDocument upserts a document into the knowledge base
func (h *KnowledgeHandler) AddDocument(c *fiber.Ctx) error {
	var doc knowledge.Document
	if err := c.BodyParser(&doc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := h.store.Add(c.Context(), doc); err != nil {
		if errors.Is(err, knowledge.ErrInvalidDocument) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"doc_id": doc.ID,
	})
}

// Search runs a retrieval query against the knowledge base
func (h *KnowledgeHandler) Search(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "query parameter q is required",
		})
	}

	limit := c.QueryInt("limit", defaultSearchLimit)
	if limit < 1 {
		limit = 1
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	snippets, err := h.store.Retrieve(c.Context(), query, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"query":    query,
		"snippets": snippets,
	})
}
