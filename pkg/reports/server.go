package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"missionsec/pkg/loader"
	"missionsec/pkg/riskposture"
)

// ParseFilterQuery reads a dashboard filter from query parameters. mission,
// report_type and risk_level may repeat; from and to are YYYY-MM-DD.
func ParseFilterQuery(q url.Values) (riskposture.Filter, error) {
	f := riskposture.Filter{
		Missions:    nonEmpty(q["mission"]),
		ReportTypes: nonEmpty(q["report_type"]),
		RiskLevels:  nonEmpty(q["risk_level"]),
	}
	var err error
	if f.From, err = parseDay(q.Get("from")); err != nil {
		return f, fmt.Errorf("from: %w", err)
	}
	if f.To, err = parseDay(q.Get("to")); err != nil {
		return f, fmt.Errorf("to: %w", err)
	}
	return f, nil
}

func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, s)
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Handler serves the dashboard for one report file.
type Handler struct {
	cache *loader.Cache
	path  string
	title string
	log   logrus.FieldLogger
	mux   *http.ServeMux
}

// NewHandler returns a dashboard handler that loads path through cache.
func NewHandler(cache *loader.Cache, path, title string, log logrus.FieldLogger) *Handler {
	h := &Handler{
		cache: cache,
		path:  path,
		title: title,
		log:   log,
		mux:   http.NewServeMux(),
	}
	h.mux.HandleFunc("/", h.dashboard)
	h.mux.HandleFunc("/api/summary", h.summary)
	h.mux.HandleFunc("/reload", h.reload)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) view(w http.ResponseWriter, r *http.Request) (DashboardView, bool) {
	filter, err := ParseFilterQuery(r.URL.Query())
	if err != nil {
		http.Error(w, "invalid filter: "+err.Error(), http.StatusBadRequest)
		return DashboardView{}, false
	}
	res, err := h.cache.Load(h.path)
	if err != nil {
		h.log.WithError(err).Error("failed to load report data")
		http.Error(w, loadErrorMessage(err), http.StatusInternalServerError)
		return DashboardView{}, false
	}
	return BuildDashboardView(h.title, res, filter), true
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	view, ok := h.view(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := RenderHTML(w, view); err != nil {
		h.log.WithError(err).Error("failed to render dashboard")
	}
}

type summaryResponse struct {
	TotalReports  int      `json:"total_reports"`
	OpenIncidents int      `json:"open_incidents"`
	HighRisk      int      `json:"high_risk"`
	AvgFixHours   *float64 `json:"avg_fix_hours"`
	DataAsOf      string   `json:"data_as_of"`
	Warnings      []string `json:"warnings"`
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	view, ok := h.view(w, r)
	if !ok {
		return
	}
	resp := summaryResponse{
		TotalReports:  view.KPIs.TotalReports,
		OpenIncidents: view.KPIs.OpenIncidents,
		HighRisk:      view.KPIs.HighRisk,
		DataAsOf:      view.DataAsOf,
		Warnings:      view.Warnings,
	}
	if view.KPIs.AvgFixTime.Valid {
		v := view.KPIs.AvgFixTime.Value
		resp.AvgFixHours = &v
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.WithError(err).Error("failed to encode summary")
	}
}

func (h *Handler) reload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.cache.Invalidate(h.path)
	h.log.WithField("path", h.path).Info("report data invalidated")
	w.WriteHeader(http.StatusNoContent)
}

func loadErrorMessage(err error) string {
	switch {
	case errors.Is(err, loader.ErrNotFound):
		return "Error: the data file was not found."
	case errors.Is(err, loader.ErrInvalidDate):
		return "Critical error: the data file contains an invalid date."
	default:
		return "Critical error: " + err.Error()
	}
}

// ServeDashboard serves handler on addr until ctx is cancelled.
func ServeDashboard(ctx context.Context, addr string, handler http.Handler) error {
	if _, err := dashboardTemplate(); err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
