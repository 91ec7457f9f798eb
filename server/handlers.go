package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/poiesic/verbatim/ai"
	"github.com/poiesic/verbatim/answer"
	"github.com/poiesic/verbatim/core"
	"github.com/poiesic/verbatim/render"
)

// AskRequest is the payload of /api/ask and /api/quick.
type AskRequest struct {
	Question string `json:"question"`
}

// CitationResponse identifies one cited passage.
type CitationResponse struct {
	SourceID  string `json:"source_id"`
	TimeRange string `json:"time_range,omitempty"`
	Speaker   string `json:"speaker,omitempty"`
}

// StageResponse is one entry of the timing breakdown.
type StageResponse struct {
	Stage string `json:"stage"`
	Ms    int64  `json:"ms"`
}

// AskResponse is the non-streaming answer payload.
type AskResponse struct {
	Answer    string             `json:"answer"`
	HTML      string             `json:"html,omitempty"`
	Citations []CitationResponse `json:"citations"`
	Tier      string             `json:"tier"`
	Degraded  bool               `json:"degraded,omitempty"`
	Cached    bool               `json:"cached,omitempty"`
	Timing    []StageResponse    `json:"timing,omitempty"`
}

// BatchRequest is the payload of /api/batch.
type BatchRequest struct {
	Questions []string `json:"questions"`
}

// BatchResponse holds one answer per question, in request order.
type BatchResponse struct {
	Answers []string `json:"answers"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// streamChunk is the SSE data payload for one piece of a streamed answer.
type streamChunk struct {
	Chunk string `json:"chunk"`
}

type answerFunc func(ctx context.Context, question string, stream ai.StreamFunc, monitor answer.Monitor) (core.AnswerResult, error)

type handlers struct {
	svc      Service
	html     *render.HTMLRenderer
	maxBatch int
}

func newHandlers(deps *Deps) *handlers {
	maxBatch := deps.MaxBatch
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatch
	}
	return &handlers{
		svc:      deps.Service,
		html:     render.NewHTMLRenderer(),
		maxBatch: maxBatch,
	}
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) ask(w http.ResponseWriter, r *http.Request) {
	h.serveAnswer(w, r, h.svc.AnswerWithMonitor)
}

func (h *handlers) quick(w http.ResponseWriter, r *http.Request) {
	h.serveAnswer(w, r, h.svc.QuickAnswerWithMonitor)
}

func (h *handlers) serveAnswer(w http.ResponseWriter, r *http.Request, fn answerFunc) {
	ctx := r.Context()
	logger := LoggerFromContext(ctx)

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "err", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "Question is required")
		return
	}

	q := r.URL.Query()
	var monitor *answer.TimingMonitor
	if isTrue(q.Get("trace")) {
		monitor = answer.NewTimingMonitor(logger)
	}

	if isTrue(q.Get("stream")) {
		h.streamAnswer(w, r, req.Question, fn, monitor)
		return
	}

	res, err := fn(ctx, req.Question, nil, monitorOrNil(monitor))
	if err != nil {
		logger.ErrorContext(ctx, "answer failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to answer question")
		return
	}

	resp := toResponse(res, monitor)
	if q.Get("format") == "html" {
		html, err := h.html.Render(res.Body)
		if err != nil {
			logger.ErrorContext(ctx, "failed to render html", "err", err)
			writeError(w, http.StatusInternalServerError, "Failed to render answer")
			return
		}
		resp.HTML = html
	}
	writeJSON(w, http.StatusOK, resp)
}

// streamAnswer delivers the answer as Server-Sent Events. Each chunk is a
// JSON object so embedded newlines survive framing. The stream ends with
// "data: [DONE]".
func (h *handlers) streamAnswer(w http.ResponseWriter, r *http.Request, question string, fn answerFunc, monitor *answer.TimingMonitor) {
	ctx := r.Context()
	logger := LoggerFromContext(ctx)

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.ErrorContext(ctx, "streaming not supported by response writer")
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(chunk string) error {
		data, err := json.Marshal(streamChunk{Chunk: chunk})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	res, err := fn(ctx, question, send, monitorOrNil(monitor))
	if err != nil {
		logger.ErrorContext(ctx, "streamed answer failed", "err", err)
		data, _ := json.Marshal(ErrorResponse{Error: "Failed to answer question"})
		_, _ = fmt.Fprintf(w, "event: error\ndata: %s\n\n", data)
		flusher.Flush()
		return
	}

	meta := toResponse(res, monitor)
	meta.Answer = ""
	if data, err := json.Marshal(meta); err == nil {
		_, _ = fmt.Fprintf(w, "event: meta\ndata: %s\n\n", data)
	}
	_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func (h *handlers) batch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := LoggerFromContext(ctx)

	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "err", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Questions) == 0 {
		writeError(w, http.StatusBadRequest, "At least one question is required")
		return
	}
	if len(req.Questions) > h.maxBatch {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("At most %d questions per batch", h.maxBatch))
		return
	}

	answers := h.svc.AnswerAll(ctx, req.Questions)
	writeJSON(w, http.StatusOK, BatchResponse{Answers: answers})
}

func (h *handlers) cacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.CacheStats())
}

func toResponse(res core.AnswerResult, monitor *answer.TimingMonitor) AskResponse {
	resp := AskResponse{
		Answer:    res.Body,
		Citations: make([]CitationResponse, len(res.Citations)),
		Tier:      res.Tier.String(),
		Degraded:  res.Degraded,
		Cached:    res.Cached,
	}
	for i, c := range res.Citations {
		resp.Citations[i] = CitationResponse{
			SourceID:  c.SourceID,
			TimeRange: c.TimeRange,
			Speaker:   c.Speaker,
		}
	}
	if monitor != nil {
		for _, s := range monitor.Stages() {
			resp.Timing = append(resp.Timing, StageResponse{Stage: s.Name, Ms: s.Duration.Milliseconds()})
		}
	}
	return resp
}

// monitorOrNil keeps a nil *TimingMonitor from becoming a non-nil interface.
func monitorOrNil(m *answer.TimingMonitor) answer.Monitor {
	if m == nil {
		return nil
	}
	return m
}

func isTrue(v string) bool {
	v = strings.ToLower(v)
	return v == "true" || v == "1"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
