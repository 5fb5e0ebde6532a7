package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/arturoeanton/go-movie-recommender-ollama/internal/domain"
	"github.com/arturoeanton/go-movie-recommender-ollama/internal/service"
)

// Server implements the Model Context Protocol (MCP) server.
// It exposes tools for external AI agents to interact with ReelSense AI.
type Server struct {
	recommendations *service.RecommendationService
	moods           *service.MoodService
	catalog         *service.CatalogService
	port            string
}

// NewServer creates a new MCP server.
func NewServer(recommendations *service.RecommendationService, moods *service.MoodService, catalog *service.CatalogService, port string) *Server {
	return &Server{
		recommendations: recommendations,
		moods:           moods,
		catalog:         catalog,
		port:            port,
	}
}

// Tool represents an MCP tool definition.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Start begins the MCP server on the configured port.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", s.handleRPC)
	mux.HandleFunc("/mcp/sse", s.handleSSE)

	slog.Info("MCP server starting", "port", s.port)
	return http.ListenAndServe(":"+s.port, mux)
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, nil, -32700, "parse error")
		return
	}

	var result interface{}
	var err error

	switch req.Method {
	case "tools/list":
		result = s.listTools()
	case "tools/call":
		result, err = s.callTool(r.Context(), req.Params)
	case "initialize":
		result = map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"serverInfo": map[string]string{
				"name":    "reelsense-ai",
				"version": "1.0.0",
			},
			"capabilities": map[string]interface{}{
				"tools": map[string]bool{"listChanged": false},
			},
		}
	default:
		writeError(w, req.ID, -32601, "method not found")
		return
	}

	if err != nil {
		writeError(w, req.ID, -32603, err.Error())
		return
	}

	writeResult(w, req.ID, result)
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Send initial endpoint message
	fmt.Fprintf(w, "event: endpoint\ndata: /mcp\n\n")
	w.(http.Flusher).Flush()

	// Keep connection alive
	<-r.Context().Done()
}

func (s *Server) listTools() map[string]interface{} {
	tools := []Tool{
		{
			Name:        "recommend",
			Description: "Get personalized recommendations from a user's taste profile",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"user_id": {"type": "string", "description": "User ID"},
					"limit": {"type": "integer", "description": "Maximum number of candidates"}
				},
				"required": ["user_id"]
			}`),
		},
		{
			Name:        "mood_search",
			Description: "Find titles matching a described mood",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"user_id": {"type": "string", "description": "User ID"},
					"mood": {"type": "string", "description": "Free-text mood, e.g. 'something cozy and slow'"},
					"limit": {"type": "integer", "description": "Maximum number of candidates"}
				},
				"required": ["user_id", "mood"]
			}`),
		},
		{
			Name:        "explain",
			Description: "Explain why a content item suits a user's taste",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"user_id": {"type": "string", "description": "User ID"},
					"content_id": {"type": "string", "description": "Content item ID"}
				},
				"required": ["user_id", "content_id"]
			}`),
		},
	}
	return map[string]interface{}{"tools": tools}
}

func (s *Server) callTool(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	switch req.Name {
	case "recommend":
		var args struct {
			UserID string `json:"user_id"`
			Limit  int    `json:"limit"`
		}
		json.Unmarshal(req.Arguments, &args)

		candidates, err := s.recommendations.RetrieveCandidates(ctx, args.UserID, args.Limit)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": formatCandidates(candidates)},
			},
			"candidates": candidates,
		}, nil

	case "mood_search":
		var args struct {
			UserID string `json:"user_id"`
			Mood   string `json:"mood"`
			Limit  int    `json:"limit"`
		}
		json.Unmarshal(req.Arguments, &args)

		candidates, err := s.moods.MoodToCandidates(ctx, args.UserID, args.Mood, args.Limit)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": formatCandidates(candidates)},
			},
			"candidates": candidates,
		}, nil

	case "explain":
		var args struct {
			UserID    string `json:"user_id"`
			ContentID string `json:"content_id"`
		}
		json.Unmarshal(req.Arguments, &args)

		item, err := s.catalog.Get(ctx, args.ContentID)
		if err != nil {
			return nil, err
		}
		explanation := s.recommendations.Explain(ctx, args.UserID, &domain.RecommendationCandidate{ContentItem: *item})
		return map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": explanation},
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", req.Name)
	}
}

func formatCandidates(candidates []domain.RecommendationCandidate) string {
	if len(candidates) == 0 {
		return "No candidates found."
	}
	out := ""
	for i, c := range candidates {
		out += fmt.Sprintf("%d. %s", i+1, c.Title)
		if y := c.Year(); y > 0 {
			out += fmt.Sprintf(" (%d)", y)
		}
		out += fmt.Sprintf(" [%s, similarity %.2f]\n", c.Type, c.Similarity)
	}
	return out
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, id interface{}, code int, message string) {
	resp := JSONRPCResponse{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: message}}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
