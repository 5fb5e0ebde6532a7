package handler

import (
	"errors"
	"strconv"

	"github.com/arturoeanton/go-movie-recommender-ollama/internal/domain"
	"github.com/arturoeanton/go-movie-recommender-ollama/internal/middleware"
	"github.com/arturoeanton/go-movie-recommender-ollama/internal/port"
	"github.com/arturoeanton/go-movie-recommender-ollama/internal/service"
	"github.com/gofiber/fiber/v3"
)

// RecommendHandler handles recommendation endpoints.
type RecommendHandler struct {
	engine          *port.SourceEngine
	recommendations *service.RecommendationService
	catalog         *service.CatalogService
}

// NewRecommendHandler creates a new recommendation handler.
func NewRecommendHandler(engine *port.SourceEngine, recommendations *service.RecommendationService, catalog *service.CatalogService) *RecommendHandler {
	return &RecommendHandler{engine: engine, recommendations: recommendations, catalog: catalog}
}

// Register sets up recommendation routes.
func (h *RecommendHandler) Register(router fiber.Router) {
	recs := router.Group("/recommendations")
	recs.Get("/", h.List)
	recs.Get("/sources", h.ListSources)
	recs.Post("/mood", h.Mood)
	recs.Get("/:contentId/explanation", h.Explanation)
}

// List returns recommendations from the requested source (default "profile").
// A user without a taste vector gets an empty list, not an error.
func (h *RecommendHandler) List(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	explain := c.Query("explain") == "true"
	source := c.Query("source", "profile")

	candidates, err := h.engine.Run(c.Context(), source, port.RecommendationRequest{
		UserID:  uc.UserID,
		Limit:   limit,
		Explain: explain,
	})
	if err != nil {
		return h.mapError(c, err)
	}
	if candidates == nil {
		candidates = []domain.RecommendationCandidate{}
	}

	return c.JSON(fiber.Map{
		"recommendations": candidates,
		"count":           len(candidates),
		"source":          source,
	})
}

// Mood returns candidates for a free-text mood request.
func (h *RecommendHandler) Mood(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var body struct {
		Mood    string `json:"mood"`
		Limit   int    `json:"limit"`
		Explain bool   `json:"explain"`
	}
	if err := c.Bind().JSON(&body); err != nil || body.Mood == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "mood is required"})
	}

	candidates, err := h.engine.Run(c.Context(), "mood", port.RecommendationRequest{
		UserID:  uc.UserID,
		Limit:   body.Limit,
		Mood:    body.Mood,
		Explain: body.Explain,
	})
	if err != nil {
		return h.mapError(c, err)
	}
	if candidates == nil {
		candidates = []domain.RecommendationCandidate{}
	}

	return c.JSON(fiber.Map{
		"recommendations": candidates,
		"count":           len(candidates),
		"mood":            body.Mood,
	})
}

// Explanation generates a justification for recommending one content item.
func (h *RecommendHandler) Explanation(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	item, err := h.catalog.Get(c.Context(), c.Params("contentId"))
	if err != nil {
		return h.mapError(c, err)
	}

	candidate := &domain.RecommendationCandidate{ContentItem: *item}
	explanation := h.recommendations.Explain(c.Context(), uc.UserID, candidate)

	return c.JSON(fiber.Map{
		"content_id":  item.ID,
		"explanation": explanation,
	})
}

// ListSources returns the available recommendation sources.
func (h *RecommendHandler) ListSources(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"sources": h.engine.AvailableSources()})
}

func (h *RecommendHandler) mapError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, port.ErrUserNotFound), errors.Is(err, port.ErrContentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, port.ErrSourceNotFound):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
