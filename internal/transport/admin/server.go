package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"revpipe/internal/bootstrap/logging"
	"revpipe/internal/errs"
	"revpipe/internal/usecase/control"
)

const shutdownTimeout = 10 * time.Second

// Server exposes the operator surface over HTTP: work submission, crawler
// steering, queue inspection, health and metrics.
type Server struct {
	addr    string
	control *control.Service
}

func NewServer(addr string, ctrl *control.Service) *Server {
	return &Server{
		addr:    addr,
		control: ctrl,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info(ctx, "admin server listening", slog.String("addr", s.addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errs.Wrap(err, "shutdown admin server")
		}
		return <-errCh
	case err := <-errCh:
		if err != nil {
			return errs.Wrap(err, "admin server")
		}
		return nil
	}
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/products", s.handleSubmitProducts)
		r.Post("/crawler", s.handleCrawlerCommand)
		r.Get("/queues/{name}", s.handleQueueStatus)
		r.Post("/queues/{name}/purge", s.handlePurgeQueue)
	})

	return r
}

type submitProductsRequest struct {
	Lines []string `json:"lines"`
}

func (s *Server) handleSubmitProducts(w http.ResponseWriter, r *http.Request) {
	var req submitProductsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errs.Wrap(err, "decode request"))
		return
	}
	if len(req.Lines) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("lines is required"))
		return
	}

	submitted, err := s.control.SubmitProductLines(r.Context(), req.Lines)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"submitted": submitted})
}

type crawlerCommandRequest struct {
	Command string `json:"command"`
	URL     string `json:"url,omitempty"`
}

func (s *Server) handleCrawlerCommand(w http.ResponseWriter, r *http.Request) {
	var req crawlerCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errs.Wrap(err, "decode request"))
		return
	}

	var err error
	switch req.Command {
	case "set":
		err = s.control.SetCrawlTarget(r.Context(), req.URL)
	case "cancel":
		err = s.control.CancelCrawl(r.Context())
	default:
		writeError(w, http.StatusBadRequest, errors.New("command must be set or cancel"))
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"command": req.Command})
}

func (s *Server) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.control.QueueStatus(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handlePurgeQueue(w http.ResponseWriter, r *http.Request) {
	purged, err := s.control.PurgeQueue(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, control.ErrPurgeNotAllowed) {
			status = http.StatusForbidden
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"purged": purged})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
