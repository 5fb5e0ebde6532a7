package handler

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/arturoeanton/go-movie-recommender-ollama/internal/adapter/store"
	"github.com/arturoeanton/go-movie-recommender-ollama/internal/domain"
	"github.com/arturoeanton/go-movie-recommender-ollama/internal/middleware"
	"github.com/arturoeanton/go-movie-recommender-ollama/internal/service"
	"github.com/gofiber/fiber/v3"
)

// InteractionHandler handles watch-status, rating, and dismissal endpoints.
type InteractionHandler struct {
	store *store.PostgresStore
	taste *service.TasteService
}

// NewInteractionHandler creates a new interaction handler.
func NewInteractionHandler(s *store.PostgresStore, taste *service.TasteService) *InteractionHandler {
	return &InteractionHandler{store: s, taste: taste}
}

// Register sets up library routes.
func (h *InteractionHandler) Register(router fiber.Router) {
	library := router.Group("/library")
	library.Get("/", h.History)
	library.Put("/:contentId", h.Upsert)
	library.Delete("/:contentId/rating", h.ClearRating)
	library.Post("/:contentId/dismiss", h.Dismiss)
}

// Upsert sets the user's watch status and optional rating for a content item.
// One row per (user, content) pair; repeated calls update in place. Every
// change triggers a background taste-vector recompute.
func (h *InteractionHandler) Upsert(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var body struct {
		Status string   `json:"status"`
		Rating *float64 `json:"rating"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	switch body.Status {
	case domain.InteractionStatusWatched, domain.InteractionStatusToWatch, domain.InteractionStatusFavourite:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid status"})
	}
	if body.Rating != nil && !domain.ValidRating(*body.Rating) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "rating must be 0-10 in half-point steps"})
	}

	interaction := &domain.Interaction{
		UserID:    uc.UserID,
		ContentID: c.Params("contentId"),
		Status:    body.Status,
		Rating:    body.Rating,
	}
	if body.Status == domain.InteractionStatusWatched {
		now := time.Now()
		interaction.WatchedAt = &now
	}

	result, err := h.store.UpsertInteraction(c.Context(), interaction)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	h.recomputeTaste(uc.UserID)
	return c.JSON(result)
}

// ClearRating removes the rating from an interaction, keeping its status.
func (h *InteractionHandler) ClearRating(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	if err := h.store.ClearRating(c.Context(), uc.UserID, c.Params("contentId")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	h.recomputeTaste(uc.UserID)
	return c.JSON(fiber.Map{"ok": true})
}

// Dismiss permanently excludes a content item from the user's future
// recommendation candidates. Idempotent.
func (h *InteractionHandler) Dismiss(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	if err := h.store.Dismiss(c.Context(), uc.UserID, c.Params("contentId")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// History returns the user's watch history, most recent first.
func (h *InteractionHandler) History(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	items, err := h.store.ListWatchedItems(c.Context(), uc.UserID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"items": items, "count": len(items)})
}

// recomputeTaste refreshes the user's taste vector in the background. The
// retrieval path tolerates a stale vector, so this is fire-and-forget.
func (h *InteractionHandler) recomputeTaste(userID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := h.taste.ComputeTasteVector(ctx, userID); err != nil {
			slog.Error("taste recompute failed", "user_id", userID, "error", err)
		}
	}()
}
