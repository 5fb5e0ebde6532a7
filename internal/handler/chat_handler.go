package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/arturoeanton/go-movie-recommender-ollama/internal/adapter/store"
	"github.com/arturoeanton/go-movie-recommender-ollama/internal/middleware"
	"github.com/arturoeanton/go-movie-recommender-ollama/internal/port"
	"github.com/gofiber/fiber/v3"
)

// ChatHandler handles the viewing-assistant chat, grounded in the user's
// watch history and stats.
type ChatHandler struct {
	ai    port.AIProvider
	store *store.PostgresStore
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(ai port.AIProvider, pgStore *store.PostgresStore) *ChatHandler {
	return &ChatHandler{ai: ai, store: pgStore}
}

// Register sets up chat routes.
func (h *ChatHandler) Register(router fiber.Router) {
	chat := router.Group("/chat")
	chat.Post("/", h.Chat)
}

// Chat handles an assistant message about the user's library and taste.
func (h *ChatHandler) Chat(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var body struct {
		Message string `json:"message"`
		History []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"history"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	stats, err := h.store.GetUserStats(c.Context(), uc.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	// Ground the assistant in the viewer's library
	var chatContext []string
	chatContext = append(chatContext, fmt.Sprintf(
		"Viewer: %s\nWatched: %d titles (avg rating %.1f)\nWatchlist: %d, Favourites: %d",
		uc.Name, stats.Watched, stats.AverageRating, stats.ToWatch, stats.Favourites,
	))
	for _, w := range stats.RecentTitles {
		line := fmt.Sprintf("Recently watched: %s", w.Title)
		if w.Rating != nil {
			line += fmt.Sprintf(" — rated %.1f/10", *w.Rating)
		}
		chatContext = append(chatContext, line)
	}

	systemPrompt := `You are ReelSense AI, a friendly film and TV assistant.
You know the viewer's watch history, ratings, and watchlist from the context provided.
Answer questions about their taste, suggest what to watch next, and discuss titles.
Be concise, speak directly to the viewer, and avoid spoilers.`

	// Append recent conversation turns as context
	for _, turn := range body.History {
		if len(turn.Content) > 500 {
			continue
		}
		chatContext = append(chatContext, fmt.Sprintf("[%s]: %s", turn.Role, turn.Content))
	}

	chatCtx, cancel := context.WithTimeout(c.Context(), 2*time.Minute)
	defer cancel()

	response, err := h.ai.Chat(chatCtx, systemPrompt, body.Message, chatContext)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "AI failed: " + err.Error()})
	}

	return c.JSON(fiber.Map{
		"response": response,
	})
}
