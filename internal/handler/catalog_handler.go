package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/arturoeanton/go-movie-recommender-ollama/internal/middleware"
	"github.com/arturoeanton/go-movie-recommender-ollama/internal/port"
	"github.com/arturoeanton/go-movie-recommender-ollama/internal/service"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// CatalogHandler handles content catalog endpoints.
type CatalogHandler struct {
	catalog *service.CatalogService
	tracker *JobTracker
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(catalog *service.CatalogService, tracker *JobTracker) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, tracker: tracker}
}

// Register sets up catalog routes.
func (h *CatalogHandler) Register(router fiber.Router) {
	catalog := router.Group("/catalog")
	catalog.Post("/", h.Add)
	catalog.Get("/search", h.Search)
	catalog.Get("/search/external", h.SearchExternal)
	catalog.Get("/:id", h.Get)
}

// Add registers a content item from its external id and starts the embedding
// job in the background. Returns 202 with the job id.
func (h *CatalogHandler) Add(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var body struct {
		ExternalID string `json:"external_id"`
	}
	if err := c.Bind().JSON(&body); err != nil || body.ExternalID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "external_id is required"})
	}

	item, err := h.catalog.Register(c.Context(), body.ExternalID)
	if err != nil {
		if errors.Is(err, port.ErrContentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown external id"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	jobID := uuid.New().String()
	h.tracker.CreateJob(jobID, item.ID)

	// Embed in the background — no HTTP connection held.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		h.tracker.UpdateJob(jobID, "embed", "running", "")
		if err := h.catalog.EmbedContent(ctx, item); err != nil {
			h.tracker.UpdateJob(jobID, "embed", "error", err.Error())
			return
		}
		h.tracker.UpdateJob(jobID, "store", "complete", "")
	}()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"content": item,
		"job_id":  jobID,
		"message": "embedding started",
	})
}

// Get returns a catalog item.
func (h *CatalogHandler) Get(c fiber.Ctx) error {
	item, err := h.catalog.Get(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, port.ErrContentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "content not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(item)
}

// Search searches catalog titles.
func (h *CatalogHandler) Search(c fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "q is required"})
	}
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	items, err := h.catalog.Search(c.Context(), query, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"results": items, "count": len(items)})
}

// SearchExternal searches the metadata provider for titles not yet in the
// catalog.
func (h *CatalogHandler) SearchExternal(c fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "q is required"})
	}
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	items, err := h.catalog.SearchExternal(c.Context(), query, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"results": items, "count": len(items)})
}
