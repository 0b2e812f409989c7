package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/swaggo/swag"

	"github.com/custodia-labs/trendcore/internal/core/domain"
	"github.com/custodia-labs/trendcore/internal/core/ports/driving"

	// registers the OpenAPI document served at /swagger/doc.json
	_ "github.com/custodia-labs/trendcore/docs"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// ReadyResponse lists failing backends when the service is not ready
// @Description Readiness status
type ReadyResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks,omitempty"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// readyTimeout bounds each readiness ping
const readyTimeout = 2 * time.Second

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Pings every configured backend (database, redis)
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	failed := make(map[string]string)
	for name, p := range s.checks {
		if p == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		err := p.Ping(ctx)
		cancel()
		if err != nil {
			s.logger.Warn("readiness check failed", "backend", name, "error", err)
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{Status: "not ready", Checks: failed})
		return
	}
	writeJSON(w, http.StatusOK, ReadyResponse{Status: "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

func (s *Server) handleSwaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		writeError(w, http.StatusNotFound, "api documentation not available")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, doc)
}

// Auth endpoints

// handleToken godoc
// @Summary      Issue operator token
// @Description  Exchange the operator key for a JWT bearer token
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request  body      domain.TokenRequest  true  "Operator key"
// @Success      200      {object}  domain.TokenResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Failure      401      {object}  ErrorResponse  "Invalid operator key"
// @Failure      404      {object}  ErrorResponse  "Authentication disabled"
// @Failure      500      {object}  ErrorResponse  "Internal server error"
// @Router       /auth/token [post]
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if s.authService == nil || !s.authService.Enabled() {
		writeError(w, http.StatusNotFound, "authentication disabled")
		return
	}

	var req domain.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.authService.Authenticate(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "invalid operator key")
			return
		}
		s.logger.Error("token issue failed", "error", err)
		writeError(w, http.StatusInternalServerError, "authentication failed")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Tool endpoints

// handleLatestNews godoc
// @Summary      Latest news
// @Description  Today's titles per platform at their first rank, sorted by rank
// @Tags         Tools
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.LatestNewsRequest  false  "Arguments"
// @Success      200      {object}  domain.Envelope{data=domain.LatestNewsResult}
// @Failure      400      {object}  domain.Envelope
// @Failure      404      {object}  domain.Envelope
// @Router       /tools/get_latest_news [post]
func (s *Server) handleLatestNews(w http.ResponseWriter, r *http.Request) {
	var req driving.LatestNewsRequest
	if !decodeArgs(w, r, &req) {
		return
	}
	res, skipped, err := s.newsService.LatestNews(r.Context(), req)
	s.writeEnvelope(w, "get_latest_news", res, skipped, err)
}

// handleNewsByDate godoc
// @Summary      News by date
// @Description  Titles of one past day with first and average rank
// @Tags         Tools
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.NewsByDateRequest  false  "Arguments"
// @Success      200      {object}  domain.Envelope{data=domain.NewsByDateResult}
// @Failure      400      {object}  domain.Envelope
// @Failure      404      {object}  domain.Envelope
// @Router       /tools/get_news_by_date [post]
func (s *Server) handleNewsByDate(w http.ResponseWriter, r *http.Request) {
	var req driving.NewsByDateRequest
	if !decodeArgs(w, r, &req) {
		return
	}
	res, skipped, err := s.newsService.NewsByDate(r.Context(), req)
	s.writeEnvelope(w, "get_news_by_date", res, skipped, err)
}

// handleSearchNews godoc
// @Summary      Search news
// @Description  Case-insensitive keyword search over a date range
// @Tags         Tools
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.SearchRequest  true  "Arguments"
// @Success      200      {object}  domain.Envelope{data=domain.SearchResult}
// @Failure      400      {object}  domain.Envelope
// @Failure      404      {object}  domain.Envelope
// @Router       /tools/search_news [post]
func (s *Server) handleSearchNews(w http.ResponseWriter, r *http.Request) {
	var req driving.SearchRequest
	if !decodeArgs(w, r, &req) {
		return
	}
	res, skipped, err := s.newsService.Search(r.Context(), req)
	s.writeEnvelope(w, "search_news", res, skipped, err)
}

// handleTrendingTopics godoc
// @Summary      Trending topics
// @Description  Frequency of the configured keyword groups
// @Tags         Tools
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.TrendingTopicsRequest  false  "Arguments"
// @Success      200      {object}  domain.Envelope{data=domain.TrendingTopicsResult}
// @Failure      400      {object}  domain.Envelope
// @Failure      404      {object}  domain.Envelope
// @Router       /tools/get_trending_topics [post]
func (s *Server) handleTrendingTopics(w http.ResponseWriter, r *http.Request) {
	var req driving.TrendingTopicsRequest
	if !decodeArgs(w, r, &req) {
		return
	}
	res, skipped, err := s.newsService.TrendingTopics(r.Context(), req)
	s.writeEnvelope(w, "get_trending_topics", res, skipped, err)
}

// handleNewTitles godoc
// @Summary      New titles
// @Description  Titles that first appeared in the latest snapshot of a day
// @Tags         Tools
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.NewTitlesRequest  false  "Arguments"
// @Success      200      {object}  domain.Envelope{data=domain.NewTitlesResult}
// @Failure      400      {object}  domain.Envelope
// @Failure      404      {object}  domain.Envelope
// @Router       /tools/get_new_titles [post]
func (s *Server) handleNewTitles(w http.ResponseWriter, r *http.Request) {
	var req driving.NewTitlesRequest
	if !decodeArgs(w, r, &req) {
		return
	}
	res, skipped, err := s.newsService.NewTitles(r.Context(), req)
	s.writeEnvelope(w, "get_new_titles", res, skipped, err)
}

// handleSystemStatus godoc
// @Summary      System status
// @Description  Archive range, storage size, cache statistics and version
// @Tags         Tools
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Envelope{data=domain.SystemStatus}
// @Failure      500  {object}  domain.Envelope
// @Router       /tools/get_system_status [post]
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	res, err := s.newsService.Status(r.Context())
	s.writeEnvelope(w, "get_system_status", res, nil, err)
}

// handleResolveDate godoc
// @Summary      Resolve date
// @Description  Resolve a natural-language date expression to a calendar date
// @Tags         Tools
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.ResolveDateRequest  true  "Arguments"
// @Success      200      {object}  domain.Envelope{data=domain.ResolvedDate}
// @Failure      400      {object}  domain.Envelope
// @Router       /tools/resolve_date [post]
func (s *Server) handleResolveDate(w http.ResponseWriter, r *http.Request) {
	var req driving.ResolveDateRequest
	if !decodeArgs(w, r, &req) {
		return
	}
	res, err := s.newsService.ResolveDate(r.Context(), req)
	s.writeEnvelope(w, "resolve_date", res, nil, err)
}

func (s *Server) handleUnknownTool(w http.ResponseWriter, r *http.Request) {
	tool := r.PathValue("tool")
	err := domain.NewQueryError(domain.ErrInvalidParameter,
		fmt.Sprintf("unknown tool %q", tool),
		"available tools: "+strings.Join(ToolNames, ", "))
	writeJSON(w, http.StatusNotFound, domain.NewEnvelope(nil, err))
}

// ToolNames lists the tools served under /api/v1/tools
var ToolNames = []string{
	"get_latest_news",
	"get_news_by_date",
	"search_news",
	"get_trending_topics",
	"get_new_titles",
	"get_system_status",
	"resolve_date",
}

// Helper functions

// decodeArgs reads optional JSON tool arguments. An empty body is accepted.
func decodeArgs(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	qe := domain.NewQueryError(domain.ErrInvalidParameter, "invalid request body: "+err.Error(),
		"send a JSON object with the tool arguments")
	writeJSON(w, http.StatusBadRequest, domain.NewEnvelope(nil, qe))
	return false
}

// writeEnvelope wraps a tool result. Skipped snapshots are reported on
// both success and failure.
func (s *Server) writeEnvelope(w http.ResponseWriter, tool string, data any, skipped []domain.Diagnostic, err error) {
	env := domain.NewEnvelope(data, err)
	env.Skipped = skipped

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("tool failed", "tool", tool, "error", err)
	}
	writeJSON(w, status, env)
}

// statusFor maps an error code to an HTTP status
func statusFor(err error) int {
	switch domain.ErrorCode(err) {
	case "":
		return http.StatusOK
	case domain.CodeInvalidDate, domain.CodeInvalidParameter:
		return http.StatusBadRequest
	case domain.CodeDataNotFound:
		return http.StatusNotFound
	case domain.CodeUnauthorized:
		return http.StatusUnauthorized
	case domain.CodeParseError:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
