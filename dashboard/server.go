// Package dashboard serves the interactive book catalog dashboard over HTTP.
package dashboard

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aluiziolira/go-books-dashboard/config"
	"github.com/aluiziolira/go-books-dashboard/models"
	"github.com/aluiziolira/go-books-dashboard/pipeline"
	"github.com/aluiziolira/go-books-dashboard/report"
	"github.com/aluiziolira/go-books-dashboard/view"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed templates/*.html
var templateFS embed.FS

var chartTitles = map[string]string{
	report.ChartRatings: "Ratings Distribution by Category",
	report.ChartPages:   "Page Count Distribution",
	report.ChartScatter: "Published Year vs Ratings",
	report.ChartAuthors: "Top Authors",
	report.ChartMissing: "Missing Data Heatmap",
}

var summaryHeader = []string{"count", "unique", "top", "freq", "mean", "std", "min", "25%", "50%", "75%", "max"}

// Server routes dashboard requests to per-session datasets.
type Server struct {
	router    *chi.Mux
	sessions  *SessionStore
	templates *template.Template
	gatherer  prometheus.Gatherer
	options   report.Options

	builds *prometheus.CounterVec
}

// NewServer wires the router. Metrics are registered on registry and served
// from /metrics; a nil registry disables both.
func NewServer(cfg *config.Config, build Builder, registry *prometheus.Registry) (*Server, error) {
	if build == nil {
		return nil, errors.New("dashboard: nil builder")
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"join": strings.Join,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	sessions, err := NewSessionStore(cfg.SessionCacheSize, build)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:    chi.NewRouter(),
		sessions:  sessions,
		templates: tmpl,
		options: report.Options{
			HistogramBins: cfg.HistogramBins,
			TopAuthors:    cfg.TopAuthors,
		},
		builds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_dataset_builds_total",
				Help: "Dataset builds by outcome.",
			},
			[]string{"outcome"},
		),
	}
	sessions.onBuild = s.observeBuild

	if registry != nil {
		sessionsGauge := prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "dashboard_sessions",
				Help: "Live dashboard sessions.",
			},
			func() float64 { return float64(sessions.Len()) },
		)
		registry.MustRegister(s.builds, sessionsGauge)
		s.gatherer = registry
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleIndex)
	s.router.Get("/charts/{name}", s.handleChart)
	s.router.Get("/export.csv", s.handleExport("csv", "text/csv; charset=utf-8"))
	s.router.Get("/export.jsonl", s.handleExport("jsonl", "application/x-ndjson"))
	s.router.Post("/refresh", s.handleRefresh)
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

func (s *Server) observeBuild(err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.builds.WithLabelValues(outcome).Inc()
}

// current resolves the session and applies the request's filter.
func (s *Server) current(w http.ResponseWriter, r *http.Request) (*models.Dataset, *models.BuildResult, view.Params, view.Result, error) {
	sess := s.sessions.Resolve(w, r)
	ds, build, err := sess.Dataset(r.Context())
	if err != nil {
		return nil, nil, view.Params{}, view.Result{}, err
	}
	params := view.ParseParams(r.URL.Query(), ds)
	res := view.Filter(ds, params)
	slog.Debug("view filtered",
		slog.String("session", sess.ID),
		slog.String("params", res.Applied.String()),
		slog.Int("rows", len(res.Rows)),
	)
	return ds, build, params, res, nil
}

type categoryOption struct {
	Name     string
	Selected bool
}

type cell struct {
	Text string
	Null bool
}

type summaryRow struct {
	Column string
	Cells  []string
}

type chartRef struct {
	Name  string
	Title string
	URL   string
}

type pageData struct {
	Categories []categoryOption
	HasYears   bool
	MinBound   int
	MaxBound   int
	Params     view.Params
	Warning    string

	Columns  []string
	Rows     [][]cell
	RowCount int

	SummaryHeader []string
	Summary       []summaryRow
	Charts        []chartRef

	CSVURL   string
	JSONLURL string
	Build    *models.BuildResult
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ds, build, params, res, err := s.current(w, r)
	if err != nil {
		s.fail(w, r, "build dataset", err)
		return
	}

	minBound, maxBound, hasYears := view.Bounds(ds)
	data := pageData{
		HasYears:      hasYears,
		MinBound:      minBound,
		MaxBound:      maxBound,
		Params:        params,
		Warning:       res.Warning,
		Columns:       models.Columns,
		RowCount:      len(res.Rows),
		SummaryHeader: summaryHeader,
		Build:         build,
	}
	for _, c := range ds.Categories() {
		data.Categories = append(data.Categories, categoryOption{Name: c, Selected: res.Applied.Selected(c)})
	}
	for i := range res.Rows {
		data.Rows = append(data.Rows, tableRow(&res.Rows[i]))
	}
	for _, sum := range report.Describe(res.Rows) {
		data.Summary = append(data.Summary, summarize(sum))
	}

	query := res.Applied.Encode()
	for _, name := range report.ChartNames {
		data.Charts = append(data.Charts, chartRef{
			Name:  name,
			Title: chartTitles[name],
			URL:   "/charts/" + name + "?" + query,
		})
	}
	data.CSVURL = "/export.csv?" + query
	data.JSONLURL = "/export.jsonl?" + query

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		s.fail(w, r, "render index", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := chartTitles[name]; !ok {
		http.NotFound(w, r)
		return
	}

	_, _, _, res, err := s.current(w, r)
	if err != nil {
		s.fail(w, r, "build dataset", err)
		return
	}

	chart, err := report.BuildChart(name, res.Rows, s.options)
	if err != nil {
		s.fail(w, r, "build chart", err)
		return
	}
	var buf bytes.Buffer
	if err := chart.Render(&buf); err != nil {
		s.fail(w, r, "render chart", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleExport(format, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _, _, res, err := s.current(w, r)
		if err != nil {
			s.fail(w, r, "build dataset", err)
			return
		}

		var buf bytes.Buffer
		writer, err := pipeline.NewWriter(format, &buf)
		if err != nil {
			s.fail(w, r, "create writer", err)
			return
		}
		if err := writer.Write(res.Rows); err != nil {
			s.fail(w, r, "write export", err)
			return
		}
		if err := writer.Close(); err != nil {
			s.fail(w, r, "close export", err)
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "books."+format))
		_, _ = buf.WriteTo(w)
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Resolve(w, r)
	sess.Invalidate()
	slog.Info("dataset invalidated", slog.String("session", sess.ID))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	slog.Error(op+" failed",
		slog.String("path", r.URL.Path),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Any("error", err),
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func tableRow(book *models.BookRecord) []cell {
	text := pipeline.Record(book)
	out := make([]cell, len(models.Columns))
	for i, col := range models.Columns {
		out[i] = cell{Text: text[i], Null: book.IsNull(col)}
	}
	return out
}

func summarize(s report.ColumnSummary) summaryRow {
	count := strconv.Itoa(s.Count)
	if s.Numeric {
		return summaryRow{Column: s.Column, Cells: []string{
			count, "", "", "",
			formatStat(s.Mean), formatStat(s.Std), formatStat(s.Min),
			formatStat(s.Q25), formatStat(s.Q50), formatStat(s.Q75), formatStat(s.Max),
		}}
	}
	unique, freq := "", ""
	if s.Count > 0 {
		unique, freq = strconv.Itoa(s.Unique), strconv.Itoa(s.Freq)
	}
	return summaryRow{Column: s.Column, Cells: []string{
		count, unique, s.Top, freq, "", "", "", "", "", "", "",
	}}
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
