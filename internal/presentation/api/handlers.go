package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mshogin/fastslow/internal/application/services"
	"github.com/mshogin/fastslow/internal/domain/models"
	"github.com/mshogin/fastslow/internal/infrastructure/logging"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Handler handles HTTP requests for the solve API.
type Handler struct {
	svc    *services.SolveService
	logger *logging.StructuredLogger
}

// NewHandler creates a new Handler instance.
func NewHandler(svc *services.SolveService, logger *logging.StructuredLogger) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{
		svc:    svc,
		logger: logger,
	}
}

// Solve handles POST /v1/solve. The response streams switcher states as
// Server-Sent Events when the client accepts text/event-stream or passes
// stream=true.
func (h *Handler) Solve(w http.ResponseWriter, r *http.Request) {
	var req models.SolveRequest
	if !h.decode(w, r, &req) {
		return
	}

	if wantsStream(r) {
		h.streamResponse(w, r, req)
		return
	}

	resp, err := h.svc.Solve(r.Context(), req)
	if err != nil {
		h.sendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	h.sendJSON(w, http.StatusOK, resp)
}

func wantsStream(r *http.Request) bool {
	return r.URL.Query().Get("stream") == "true" ||
		strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

// streamResponse handles streaming SSE responses.
func (h *Handler) streamResponse(w http.ResponseWriter, r *http.Request, req models.SolveRequest) {
	// Get flusher
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.sendErrorResponse(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	eventChan, err := h.svc.SolveStream(r.Context(), req)
	if err != nil {
		h.sendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	for event := range eventChan {
		frame, err := event.ToSSE()
		if err != nil {
			h.logger.Error("failed to encode stream event", err, map[string]interface{}{"event": event.Type})
			continue
		}
		if _, err := w.Write([]byte(frame)); err != nil {
			return
		}
		flusher.Flush()
	}
}

// Analyze handles POST /v1/analyze.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req models.SolveRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.svc.Analyze(r.Context(), req)
	if err != nil {
		h.sendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	h.sendJSON(w, http.StatusOK, resp)
}

// MonitorStep handles POST /v1/monitor/step.
func (h *Handler) MonitorStep(w http.ResponseWriter, r *http.Request) {
	var step models.StepInfo
	if !h.decode(w, r, &step) {
		return
	}

	fb, err := h.svc.MonitorStep(step)
	if err != nil {
		h.sendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	h.sendJSON(w, http.StatusOK, fb)
}

// Stats handles GET /v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.svc.Stats()
	if !ok {
		h.sendErrorResponse(w, http.StatusNotFound, "stats collection disabled")
		return
	}
	h.sendJSON(w, http.StatusOK, map[string]interface{}{
		"summary":              summary,
		"escalation_rate":      summary.EscalationRate(),
		"avg_tokens_per_solve": summary.AvgTokensPerSolve(),
	})
}

// Health handles GET /health endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// decode reads a JSON body, answering 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.sendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (h *Handler) sendJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", err)
	}
}

// sendErrorResponse sends an error response.
func (h *Handler) sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	h.sendJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
