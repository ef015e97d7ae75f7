package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"procurerisk/internal/server/ruleRouter"
	"procurerisk/types"
	"procurerisk/util"
)

const maxBatchBytes = 10 << 20

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Key-ID", "X-Signature", "X-Timestamp"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Group for routes requiring auth
	r.Group(func(protected chi.Router) {
		protected.Use(AuthMiddleware(s.authKeys))
		protected.Post("/score", s.ScoreHandler)
		protected.Get("/configuration/rules", s.RulesHandler)

		if s.denylist != nil {
			protected.Mount("/configuration/rules/denylist", ruleRouter.DenyListRouter(s.denylist))
		}
	})

	return r
}

type ScoreRequest struct {
	Records []map[string]interface{} `json:"records"`
}

func (s *Server) ScoreHandler(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBytes))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Batch too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if len(req.Records) == 0 {
		http.Error(w, "No records to score", http.StatusBadRequest)
		return
	}

	report, err := s.engine.Run(r.Context(), req.Records)
	if err != nil {
		s.logger.Error("batch scoring failed", slog.String("error", err.Error()))
		http.Error(w, "Scoring unavailable", http.StatusServiceUnavailable)
		return
	}

	s.logger.Info("batch scored",
		slog.String("batch_id", report.BatchID),
		slog.Int("scored", len(report.Scored)),
		slog.Int("failed", len(report.Failures)),
		slog.Int("high", report.Tiers[types.TierHigh]),
	)

	if s.alerts != nil && s.services.Nats.Enabled {
		sent, err := util.PublishMessage(s.alerts, s.services.Nats.Subject, report.BatchID, report.Scored, s.services.Nats.MinTier)
		if err != nil {
			s.logger.Error("alert publish failed", slog.String("batch_id", report.BatchID), slog.String("error", err.Error()))
		} else if sent > 0 {
			s.logger.Info("alerts published", slog.String("batch_id", report.BatchID), slog.Int("count", sent))
		}
	}

	writeJSON(w, http.StatusOK, report)
}

type RulesResponse struct {
	Rules []types.Contribution `json:"rules"`
	Tiers types.TierBoundaries `json:"tiers"`
}

func (s *Server) RulesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RulesResponse{
		Rules: s.engine.Rules(),
		Tiers: s.engine.Tiers(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
