package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/salesintel/tracker/internal/adapters/config"
	"github.com/salesintel/tracker/internal/adapters/database"
	"github.com/salesintel/tracker/internal/financials"
	"github.com/salesintel/tracker/internal/outreach"
	"github.com/salesintel/tracker/internal/pipeline"
	"github.com/salesintel/tracker/internal/watchlist"
	"github.com/salesintel/tracker/pkg/logger"
	"github.com/salesintel/tracker/pkg/models"
)

// Server is the HTTP surface over the pipeline and the worklist. Thin
// plumbing only; all behavior lives in the packages it delegates to.
type Server struct {
	server     *http.Server
	db         *database.DB
	watchlist  *watchlist.Repository
	outreach   *outreach.Repository
	aggregator *outreach.Aggregator
	financials *financials.Repository
	runner     *pipeline.Runner
	refresher  *financials.Refresher
	cfg        *config.Config
	startTime  time.Time
}

// NewServer wires all routes.
func NewServer(
	cfg *config.Config,
	db *database.DB,
	watchlistRepo *watchlist.Repository,
	outreachRepo *outreach.Repository,
	aggregator *outreach.Aggregator,
	financialsRepo *financials.Repository,
	runner *pipeline.Runner,
	refresher *financials.Refresher,
) *Server {
	mux := http.NewServeMux()

	s := &Server{
		server: &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Minute, // pipeline runs are synchronous
			IdleTimeout:  120 * time.Second,
		},
		db:         db,
		watchlist:  watchlistRepo,
		outreach:   outreachRepo,
		aggregator: aggregator,
		financials: financialsRepo,
		runner:     runner,
		refresher:  refresher,
		cfg:        cfg,
		startTime:  time.Now(),
	}

	mux.HandleFunc("GET /api/companies", s.handleListCompanies)
	mux.HandleFunc("POST /api/companies", s.handleCreateCompany)
	mux.HandleFunc("DELETE /api/companies/{id}", s.handleDeleteCompany)
	mux.HandleFunc("DELETE /api/companies/{id}/territories/{territory}", s.handleRemoveFromTerritory)

	mux.HandleFunc("GET /api/summaries", s.handleSummaries)
	mux.HandleFunc("GET /api/signals", s.handleSignals)
	mux.HandleFunc("GET /api/signals/hot", s.handleHotSignals)
	mux.HandleFunc("GET /api/companies/{id}/financials", s.handleFinancials)
	mux.HandleFunc("GET /api/hidden", s.handleHidden)

	mux.HandleFunc("GET /api/companies/{id}/actions", s.handleListActions)
	mux.HandleFunc("POST /api/companies/{id}/actions", s.handleAddAction)
	mux.HandleFunc("DELETE /api/companies/{id}/actions/{kind}", s.handleDeleteActions)

	mux.HandleFunc("POST /api/pipeline/run", s.handleRunPipeline)
	mux.HandleFunc("POST /api/financials/refresh", s.handleRefreshFinancials)

	mux.HandleFunc("GET /api/config", s.handleConfig)
	mux.HandleFunc("GET /health", s.handleHealth)

	return s
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start() error {
	logger.Info("api server starting", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	logger.Info("stopping api server...")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	companies, err := s.watchlist.GetCompanies(r.Context(), activeOnly)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, companies)
}

type createCompanyRequest struct {
	Name      string   `json:"name"`
	Ticker    *string  `json:"ticker,omitempty"`
	Aliases   []string `json:"aliases,omitempty"`
	Territory string   `json:"territory,omitempty"`
}

func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var req createCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	company, err := s.watchlist.AddCompany(r.Context(), req.Name, req.Ticker, req.Aliases, req.Territory)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, company)
}

func (s *Server) handleDeleteCompany(w http.ResponseWriter, r *http.Request) {
	if err := s.watchlist.DeleteCompany(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveFromTerritory(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.watchlist.RemoveFromTerritory(r.Context(), r.PathValue("id"), r.PathValue("territory"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"company_deleted": deleted})
}

func (s *Server) handleSummaries(w http.ResponseWriter, r *http.Request) {
	includeHidden := r.URL.Query().Get("include_hidden") == "true"
	summaries, err := s.aggregator.Summaries(r.Context(), includeHidden)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	if companyID := r.URL.Query().Get("company_id"); companyID != "" {
		signals, err := s.outreach.GetSignalsForCompany(r.Context(), companyID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, signals)
		return
	}

	signals, err := s.outreach.GetQualifyingSignals(r.Context(),
		s.cfg.Urgency.SummaryWindow, s.cfg.Urgency.MinRelevance)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, signals)
}

func (s *Server) handleHotSignals(w http.ResponseWriter, r *http.Request) {
	signals, err := s.outreach.GetQualifyingSignals(r.Context(),
		s.cfg.Urgency.SummaryWindow, s.cfg.Urgency.MinRelevance)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	hot := make([]models.SignalView, 0)
	for _, sig := range signals {
		if sig.PainScore >= s.cfg.Urgency.HotMinPain {
			hot = append(hot, sig)
		}
	}
	writeJSON(w, http.StatusOK, hot)
}

func (s *Server) handleFinancials(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.financials.GetSnapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if snapshot == nil {
		writeError(w, http.StatusNotFound, errNoSnapshot)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleHidden(w http.ResponseWriter, r *http.Request) {
	hidden, err := s.outreach.GetHiddenCompanyIDs(r.Context(),
		s.cfg.Urgency.HiddenContactedDays, s.cfg.Urgency.HiddenSnoozedDays)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	ids := make([]string, 0, len(hidden))
	for id := range hidden {
		ids = append(ids, id)
	}
	writeJSON(w, http.StatusOK, map[string][]string{"company_ids": ids})
}

type addActionRequest struct {
	Kind      string  `json:"kind"`
	Note      *string `json:"note,omitempty"`
	Territory *string `json:"territory,omitempty"`
}

func (s *Server) handleAddAction(w http.ResponseWriter, r *http.Request) {
	var req addActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !models.ValidActionKind(req.Kind) {
		writeError(w, http.StatusBadRequest, errBadActionKind)
		return
	}

	action, err := s.outreach.AddAction(r.Context(), r.PathValue("id"),
		models.ActionKind(req.Kind), req.Note, req.Territory)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, action)
}

func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	actions, err := s.outreach.GetActions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, actions)
}

func (s *Server) handleDeleteActions(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	if !models.ValidActionKind(kind) {
		writeError(w, http.StatusBadRequest, errBadActionKind)
		return
	}

	n, err := s.outreach.DeleteActionsByKind(r.Context(), r.PathValue("id"), models.ActionKind(kind))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (s *Server) handleRunPipeline(w http.ResponseWriter, r *http.Request) {
	stats, err := s.runner.Run(r.Context())
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRefreshFinancials(w http.ResponseWriter, r *http.Request) {
	stats, err := s.refresher.Refresh(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"signal_categories": models.Categories(),
		"urgency": map[string]interface{}{
			"hot_min_pain":        s.cfg.Urgency.HotMinPain,
			"hot_max_age_hours":   s.cfg.Urgency.HotMaxAgeHours,
			"warm_min_pain":       s.cfg.Urgency.WarmMinPain,
			"warm_max_age_hours":  s.cfg.Urgency.WarmMaxAgeHours,
			"earnings_boost_days": s.cfg.Urgency.EarningsBoostDays,
			"min_relevance":       s.cfg.Urgency.MinRelevance,
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startTime).Round(time.Second).String(),
	}

	if err := s.db.Health(); err != nil {
		status["status"] = "degraded"
		status["database"] = "unhealthy: " + err.Error()
	}

	writeJSON(w, http.StatusOK, status)
}
