package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/glassbox/internal/monitoring"
	"github.com/sells-group/glassbox/internal/pipeline"
	"github.com/sells-group/glassbox/internal/rejection"
	"github.com/sells-group/glassbox/internal/scorer"
)

var (
	servePort  int
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the latest run over a read-only HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		env, err := initPipeline("serve")
		if err != nil {
			return err
		}
		if serveWatch && env.Sample {
			return eris.New("serve: --watch needs a feed file")
		}
		if _, err := env.Run(ctx); err != nil {
			return err
		}

		if serveWatch {
			go func() {
				if err := watchFeed(ctx, env, nil); err != nil {
					zap.L().Error("feed watcher stopped", zap.Error(err))
				}
			}()
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           buildRouter(env.Session, cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// buildRouter exposes the session's latest result. Every route is GET.
func buildRouter(session *pipeline.Session, origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	h := &handlers{session: session}
	r.Get("/leads", h.withResult(h.listLeads))
	r.Route("/leads/{id}", func(lr chi.Router) {
		lr.Get("/", h.withResult(h.getLead))
		lr.Get("/explain", h.withResult(h.explainLead))
		lr.Get("/evidence", h.withResult(h.leadEvidence))
	})
	r.Get("/rejections", h.withResult(h.listRejections))
	r.Get("/stats", h.withResult(h.stats))

	return r
}

type handlers struct {
	session *pipeline.Session
}

type resultHandler func(w http.ResponseWriter, r *http.Request, res *pipeline.Result)

// withResult answers 503 until the first run has been stored.
func (h *handlers) withResult(next resultHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := h.session.Latest()
		if !ok {
			writeError(w, http.StatusServiceUnavailable, "no run available yet")
			return
		}
		next(w, r, res)
	}
}

func (h *handlers) listLeads(w http.ResponseWriter, r *http.Request, res *pipeline.Result) {
	leads := res.Leads
	if tier := r.URL.Query().Get("min_tier"); tier != "" {
		leads = filterLeads(leads, scorer.Tier(strings.ToUpper(tier)))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_at": res.RunAt,
		"count":  len(leads),
		"leads":  leads,
	})
}

func (h *handlers) lead(w http.ResponseWriter, r *http.Request, res *pipeline.Result) (pipeline.LeadRecord, bool) {
	id := chi.URLParam(r, "id")
	lead, ok := res.Lead(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("lead %q not found", id))
	}
	return lead, ok
}

func (h *handlers) getLead(w http.ResponseWriter, r *http.Request, res *pipeline.Result) {
	if lead, ok := h.lead(w, r, res); ok {
		writeJSON(w, http.StatusOK, lead)
	}
}

func (h *handlers) explainLead(w http.ResponseWriter, r *http.Request, res *pipeline.Result) {
	lead, ok := h.lead(w, r, res)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"lead_id":     lead.ID,
		"score":       lead.Score(),
		"tier":        lead.Ranked.Tier(),
		"summary":     scorer.ExplainShort(lead.Ranked),
		"explanation": scorer.Explain(lead.Ranked),
		"breakdown":   lead.Ranked.Breakdown,
	})
}

func (h *handlers) leadEvidence(w http.ResponseWriter, r *http.Request, res *pipeline.Result) {
	lead, ok := h.lead(w, r, res)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"lead_id":  lead.ID,
		"evidence": lead.Evidence,
	})
}

func (h *handlers) listRejections(w http.ResponseWriter, r *http.Request, res *pipeline.Result) {
	rule := rejection.Rule(r.URL.Query().Get("rule"))
	if rule != "" && !rule.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown rule %q", rule))
		return
	}
	rejs := filterRejections(res.Rejections, rule)
	if rejs == nil {
		rejs = []rejection.Rejection{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":      len(rejs),
		"rejections": rejs,
	})
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request, res *pipeline.Result) {
	writeJSON(w, http.StatusOK, monitoring.Collect(res))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "re-run whenever the feed file changes")
	rootCmd.AddCommand(serveCmd)
}
