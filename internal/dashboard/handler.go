package dashboard

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Option configures the dashboard handler.
type Option func(*handler)

// WithTitle sets the page heading.
func WithTitle(title string) Option {
	return func(h *handler) {
		if title != "" {
			h.renderer.Title = title
		}
	}
}

// WithLocation sets the time zone used for the Date Time column.
func WithLocation(loc *time.Location) Option {
	return func(h *handler) {
		if loc != nil {
			h.renderer.Location = loc
		}
	}
}

// WithCORSOrigins sets the origins allowed on /api routes.
func WithCORSOrigins(origins []string) Option {
	return func(h *handler) {
		if len(origins) > 0 {
			h.corsOrigins = origins
		}
	}
}

// WithClock overrides the time source for days-remaining calculations.
func WithClock(now func() time.Time) Option {
	return func(h *handler) {
		h.now = now
	}
}

type handler struct {
	holder      *Holder
	renderer    Renderer
	corsOrigins []string
	now         func() time.Time
}

// NewHandler returns the dashboard router serving from holder.
func NewHandler(holder *Holder, opts ...Option) http.Handler {
	h := &handler{
		holder:      holder,
		renderer:    Renderer{Title: "RTO Vehicle Police Portal", Location: time.Local},
		corsOrigins: []string{"*"},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", h.index)
	r.Get("/health", h.health)
	r.Get("/export.xlsx", h.exportXLSX)

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: h.corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.Get("/violations", h.violations)
		r.Get("/violations.geojson", h.geojson)
	})

	return r
}

func (h *handler) index(w http.ResponseWriter, r *http.Request) {
	overlay := OverlayFromQuery(r.URL.Query())

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, h.holder.Snapshot(), h.now(), overlay); err != nil {
		zap.L().Error("dashboard: render failed", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type violationsResponse struct {
	Status   string     `json:"status"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
	Error    string     `json:"error,omitempty"`
	Records  []Row      `json:"records"`
}

func (h *handler) violations(w http.ResponseWriter, _ *http.Request) {
	state := h.holder.Snapshot()
	resp := violationsResponse{
		Status:  state.Phase.String(),
		Records: []Row{},
	}
	if !state.LoadedAt.IsZero() {
		at := state.LoadedAt.UTC()
		resp.LoadedAt = &at
	}
	if state.Err != nil {
		resp.Error = state.Err.Error()
	}
	if state.Phase == PhaseReady {
		resp.Records = NewRows(state.Records, h.now(), h.renderer.Location)
	}
	writeJSON(w, phaseStatus(state.Phase), resp)
}

func (h *handler) geojson(w http.ResponseWriter, _ *http.Request) {
	state := h.holder.Snapshot()
	if state.Phase != PhaseReady {
		writeJSON(w, phaseStatus(state.Phase), map[string]string{"status": state.Phase.String()})
		return
	}

	var buf bytes.Buffer
	if err := WriteGeoJSON(&buf, state.Records, h.now()); err != nil {
		zap.L().Error("dashboard: geojson export failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "geojson export failed"})
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = buf.WriteTo(w)
}

func (h *handler) exportXLSX(w http.ResponseWriter, _ *http.Request) {
	state := h.holder.Snapshot()
	if state.Phase != PhaseReady {
		http.Error(w, "violations are "+state.Phase.String(), http.StatusConflict)
		return
	}

	var buf bytes.Buffer
	rows := NewRows(state.Records, h.now(), h.renderer.Location)
	if err := WriteXLSX(&buf, rows); err != nil {
		zap.L().Error("dashboard: xlsx export failed", zap.Error(err))
		http.Error(w, "xlsx export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="violations.xlsx"`)
	_, _ = buf.WriteTo(w)
}

func phaseStatus(p Phase) int {
	switch p {
	case PhaseReady:
		return http.StatusOK
	case PhaseFailed:
		return http.StatusBadGateway
	default:
		return http.StatusServiceUnavailable
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("dashboard: encode response", zap.Error(err))
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			zap.L().Info("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
