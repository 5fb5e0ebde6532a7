package handler

import (
	"github.com/arturoeanton/go-movie-recommender-ollama/internal/adapter/store"
	"github.com/arturoeanton/go-movie-recommender-ollama/internal/middleware"
	"github.com/gofiber/fiber/v3"
)

// StatsHandler handles watch-history stats endpoints.
type StatsHandler struct {
	store *store.PostgresStore
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(s *store.PostgresStore) *StatsHandler {
	return &StatsHandler{store: s}
}

// Register sets up stats routes.
func (h *StatsHandler) Register(router fiber.Router) {
	router.Get("/stats", h.Get)
}

// Get returns the current user's watch-history stats.
func (h *StatsHandler) Get(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	stats, err := h.store.GetUserStats(c.Context(), uc.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(stats)
}
