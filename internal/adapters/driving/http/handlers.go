package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/custodia-labs/devrag-core/internal/core/domain"
)

// tenantHeader carries the tenant identity assigned by the gateway
const tenantHeader = "X-Tenant-ID"

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// IngestRequest asks for a source to be ingested into the tenant's
// partition for its kind
type IngestRequest struct {
	// Kind is one of web, github, pdf
	Kind string `json:"kind"`

	// Handle identifies the source: a URL for web and github, the
	// extracted document text for pdf
	Handle string `json:"handle"`

	// Async enqueues the ingestion for a background worker instead of
	// running it in-request
	Async bool `json:"async,omitempty"`
}

// IngestResponse reports a completed synchronous ingestion
type IngestResponse struct {
	Partition     string `json:"partition"`
	ChunksWritten int    `json:"chunks_written"`
	ChunksFailed  int    `json:"chunks_failed"`
	TookMS        int64  `json:"took_ms"`
}

// TaskResponse reports an accepted asynchronous ingestion
type TaskResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// ChatRequest carries a user query
type ChatRequest struct {
	Query string `json:"query"`
}

// ChatResponse carries the generated answer
type ChatResponse struct {
	Response string `json:"response"`
}

// RetrieveRequest asks for raw retrieval results without generation
type RetrieveRequest struct {
	Query string `json:"query"`
}

// RetrieveResponse lists per-partition retrieval results
type RetrieveResponse struct {
	Results []PartitionResults `json:"results"`
}

// PartitionResults holds one partition's matches
type PartitionResults struct {
	Partition string   `json:"partition"`
	Contents  []string `json:"contents"`
}

// MemoryResponse shows the tenant's current conversation window
type MemoryResponse struct {
	Summary string       `json:"summary,omitempty"`
	Turns   []MemoryTurn `json:"turns"`
}

// MemoryTurn is one buffered exchange
type MemoryTurn struct {
	Query    string `json:"query"`
	Response string `json:"response"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.index != nil {
		if err := s.index.HealthCheck(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "search index unavailable")
			return
		}
	}
	if s.memory != nil {
		if err := s.memory.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "memory backend unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	tenantID := r.Header.Get(tenantHeader)
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, "missing "+tenantHeader+" header")
		return
	}

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	kind := domain.SourceKind(req.Kind)

	if req.Async {
		task, err := s.ingestionService.EnqueueIngest(r.Context(), tenantID, kind, req.Handle)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, TaskResponse{
			TaskID: task.ID,
			Status: string(task.Status),
		})
		return
	}

	result, err := s.ingestionService.Ingest(r.Context(), tenantID, kind, req.Handle)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, IngestResponse{
		Partition:     result.Partition,
		ChunksWritten: result.ChunksWritten,
		ChunksFailed:  result.ChunksFailed,
		TookMS:        result.Took.Milliseconds(),
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	tenantID := r.Header.Get(tenantHeader)
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, "missing "+tenantHeader+" header")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	response, err := s.chatService.Answer(r.Context(), tenantID, req.Query)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ChatResponse{Response: response})
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	tenantID := r.Header.Get(tenantHeader)
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, "missing "+tenantHeader+" header")
		return
	}

	var req RetrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.retrievalService.Retrieve(r.Context(), tenantID, req.Query)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := RetrieveResponse{Results: make([]PartitionResults, 0, len(result.Results))}
	for _, pr := range result.Results {
		resp.Results = append(resp.Results, PartitionResults{
			Partition: pr.Partition,
			Contents:  pr.Contents,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request) {
	tenantID := r.Header.Get(tenantHeader)
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, "missing "+tenantHeader+" header")
		return
	}

	window, err := s.memoryService.ReadMemory(r.Context(), tenantID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := MemoryResponse{Turns: make([]MemoryTurn, 0, len(window.Turns))}
	if window.LatestSummary != nil {
		resp.Summary = window.LatestSummary.Text
	}
	for _, t := range window.Turns {
		resp.Turns = append(resp.Turns, MemoryTurn{Query: t.Query, Response: t.Response})
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeServiceError maps domain errors to HTTP status codes
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrTenantRequired),
		errors.Is(err, domain.ErrUnknownSourceKind),
		errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrFetch), errors.Is(err, domain.ErrParse):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrGeneration):
		writeError(w, http.StatusBadGateway, "generation failed")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
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
