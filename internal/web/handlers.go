package web

import (
	"encoding/json"
	"mime"
	"net/http"
	"time"

	"github.com/FocuswithJustin/VerseDeck/core/canon"
	"github.com/FocuswithJustin/VerseDeck/core/errors"
	"github.com/FocuswithJustin/VerseDeck/core/pptx"
	"github.com/FocuswithJustin/VerseDeck/internal/logging"
	"github.com/FocuswithJustin/VerseDeck/internal/server"
	"github.com/FocuswithJustin/VerseDeck/internal/service"
	"github.com/FocuswithJustin/VerseDeck/internal/validation"
)

const pptxContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// ParseResult is the data of GET /api/parse.
type ParseResult struct {
	References []string `json:"references"`
}

// TextResult is the data of GET /api/text.
type TextResult struct {
	Reference string       `json:"reference"`
	Text      string       `json:"text"`
	Slides    []pptx.Slide `json:"slides"`
}

// HealthInfo is the health check response.
type HealthInfo struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

type indexData struct {
	Books   []string
	Version string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
		return
	}
	if !requireGet(w, r) {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := indexData{Books: canon.FullNames(), Version: s.opts.Version}
	if err := s.page.Execute(w, data); err != nil {
		logging.ErrorContext(r.Context(), "render index", "error", err)
	}
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	message := r.URL.Query().Get("message")
	if err := validation.ValidateText(message); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}

	respond(w, http.StatusOK, ParseResult{References: s.svc.ParseReferences(r.Context(), message)})
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	reference, strip := referenceParams(r)
	p, err := s.svc.Passage(r.Context(), reference, strip)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respond(w, http.StatusOK, TextResult{
		Reference: p.Reference.String(),
		Text:      service.PassageText(p),
		Slides:    p.Slides,
	})
}

func (s *Server) handleDeck(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	reference, strip := referenceParams(r)
	res, f, err := s.svc.OpenDeck(r.Context(), reference, strip)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		respondServiceError(w, r, errors.NewIO("stat", res.Path, err))
		return
	}

	w.Header().Set("Content-Type", pptxContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.Name}))
	if res.Digest != "" {
		w.Header().Set("X-Content-Digest", "blake3:"+res.Digest)
	}
	http.ServeContent(w, r, res.Name, info.ModTime(), f)
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	books := canon.All()
	response := APIResponse{
		Success: true,
		Data:    books,
		Meta: &APIMeta{
			Total:     len(books),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, HealthInfo{
		Status:  "healthy",
		Version: s.opts.Version,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
	})
}

// referenceParams reads the reference and strip query parameters.
func referenceParams(r *http.Request) (string, bool) {
	q := r.URL.Query()
	return server.SanitizeUserInput(q.Get("reference")), q.Get("strip") == "true"
}

func requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
		return false
	}
	return true
}

// respondServiceError maps err to a status by its sentinel. Internal
// failures are logged and reported without detail.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errors.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, errors.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, errors.ErrUnsupported):
		respondError(w, http.StatusUnprocessableEntity, "UNSUPPORTED", err.Error())
	default:
		logging.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
