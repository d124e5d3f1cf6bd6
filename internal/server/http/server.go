package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/raksha-git/icecp-module-storage/internal/graph"
	"github.com/raksha-git/icecp-module-storage/internal/metrics"
	"github.com/raksha-git/icecp-module-storage/internal/runtime"
	"github.com/raksha-git/icecp-module-storage/internal/services/storesvc"
	"github.com/raksha-git/icecp-module-storage/internal/session"
	pebblestore "github.com/raksha-git/icecp-module-storage/internal/storage/pebble"
	"github.com/raksha-git/icecp-module-storage/internal/store"
)

type Server struct {
	rt  *runtime.Runtime
	svc *storesvc.Service
	srv *http.Server
	lis net.Listener
}

// New wires the service routes onto a mux. Metrics may be nil; the /metrics
// endpoint is registered only when provided.
func New(rt *runtime.Runtime, m *metrics.Metrics) *Server {
	mux := http.NewServeMux()
	s := &Server{rt: rt, svc: storesvc.New(rt, m), srv: &http.Server{Handler: cors(mux)}}
	mux.HandleFunc("/v1/healthz", s.handleHealth)
	mux.HandleFunc("/v1/messages", s.handlePersist)
	mux.HandleFunc("/v1/messages/get", s.handleGetMessage)
	mux.HandleFunc("/v1/messages/ingest", s.handleIngest)
	mux.HandleFunc("/v1/messages/search", s.handleSearch)
	mux.HandleFunc("/v1/tags", s.handleTags)
	mux.HandleFunc("/v1/sessions/open", s.handleSessionOpen)
	mux.HandleFunc("/v1/sessions/close", s.handleSessionClose)
	mux.HandleFunc("/v1/sessions/get", s.handleSessionGet)
	mux.HandleFunc("/v1/sessions/messages", s.handleSessionMessages)
	mux.HandleFunc("/v1/channels/chain", s.handleChain)
	if m != nil {
		mux.Handle("/metrics", m.Handler())
	}
	return s
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

// writeServiceError maps the error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, graph.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, pebblestore.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrSessionClosed):
		status = http.StatusConflict
	case errors.Is(err, graph.ErrSchemaNotInitialized), errors.Is(err, graph.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// messageView is the JSON shape of a stored message; content travels base64.
type messageView struct {
	ID          uint64   `json:"id"`
	TimestampMs int64    `json:"timestampMs"`
	Content     []byte   `json:"content"`
	Tags        []string `json:"tags,omitempty"`
}

func toView(m store.Message) messageView {
	return messageView{ID: m.ID, TimestampMs: m.Timestamp, Content: m.Content, Tags: m.Tags}
}

func toViews(ms []store.Message) []messageView {
	out := make([]messageView, 0, len(ms))
	for _, m := range ms {
		out = append(out, toView(m))
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.rt.CheckHealth(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "not_serving"})
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

type persistReq struct {
	Content     []byte   `json:"content"`
	TimestampMs int64    `json:"timestampMs,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

func (s *Server) handlePersist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req persistReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	msg, err := s.svc.Persist(r.Context(), req.Content, req.TimestampMs, req.Tags)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toView(msg))
}

func (s *Server) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	mid, err := strconv.ParseUint(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	msg, err := s.svc.GetMessage(mid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, toView(msg))
}

type ingestReq struct {
	Channel string   `json:"channel"`
	Content []byte   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req ingestReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	res, err := s.svc.Ingest(r.Context(), req.Channel, req.Content, req.Tags)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"message":   toView(res.Message),
		"sessionId": res.SessionID,
		"position":  res.Position,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req storesvc.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	msgs, err := s.svc.Search(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]any{"messages": toViews(msgs)})
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	tags, err := s.svc.Tags()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	writeJSON(w, map[string]any{"tags": tags})
}

type sessionOpenReq struct {
	Channel         string `json:"channel"`
	BufferPeriodSec int64  `json:"bufferPeriodSec,omitempty"`
}

func (s *Server) handleSessionOpen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req sessionOpenReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	rec, err := s.svc.OpenSession(r.Context(), req.Channel, req.BufferPeriodSec)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(rec)
}

type sessionCloseReq struct {
	SessionID string `json:"sessionId"`
}

func (s *Server) handleSessionClose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req sessionCloseReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := s.svc.CloseSession(r.Context(), req.SessionID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rec, err := s.svc.GetSession(r.URL.Query().Get("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, rec)
}

func (s *Server) handleSessionMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	msgs, err := s.svc.SessionMessages(r.URL.Query().Get("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]any{"messages": toViews(msgs)})
}

func (s *Server) handleChain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	channel := r.URL.Query().Get("channel")
	if channel == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	chain, err := s.svc.Chain(channel)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if chain == nil {
		chain = []session.Record{}
	}
	writeJSON(w, map[string]any{"sessions": chain})
}
