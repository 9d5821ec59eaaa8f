package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/partnerdex/internal/domain"
	"github.com/kailas-cloud/partnerdex/internal/domain/entity"
	"github.com/kailas-cloud/partnerdex/internal/domain/entity/category"
	"github.com/kailas-cloud/partnerdex/internal/domain/geo"
	"github.com/kailas-cloud/partnerdex/internal/domain/search/query"
	logpkg "github.com/kailas-cloud/partnerdex/internal/logger"
	directoryuc "github.com/kailas-cloud/partnerdex/internal/usecase/directory"
	healthuc "github.com/kailas-cloud/partnerdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/partnerdex/internal/usecase/search"
	"github.com/kailas-cloud/partnerdex/internal/version"
)

// maxBodyBytes bounds request bodies of admin writes.
const maxBodyBytes = 4 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers of the directory API.
type Server struct {
	directory     *directoryuc.Service
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	directory *directoryuc.Service,
	search *searchuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		directory: directory,
		search:    search,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeEntityNotFound),
		sentinelHandler(domain.ErrInvalidEntity, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, ErrorCodeBadRequest),
	}
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r chirouter.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chirouter.Router) {
		r.Get("/categories", s.ListCategories)
		r.Get("/source", s.GetSource)
		r.Post("/refresh", s.RefreshDirectory)

		r.Get("/entities", s.SearchEntities)
		r.Post("/entities/import", s.ImportEntities)
		r.Route("/entities/{id}", func(r chirouter.Router) {
			r.Use(entityLogger)
			r.Get("/", s.GetEntity)
			r.Put("/", s.UpsertEntity)
			r.Delete("/", s.DeleteEntity)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed")
	})
}

func entityID(r *http.Request) string { return chirouter.URLParam(r, "id") }

// entityLogger tags the request logger with the addressed entity.
func entityLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logpkg.With(r.Context(), zap.String("entity_id", entityID(r)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SearchEntities handles GET /api/v1/entities.
func (s *Server) SearchEntities(w http.ResponseWriter, r *http.Request) {
	var (
		term, selector, kind *string
		lat, lon             *float64
		limit                *int
	)
	params := r.URL.Query()
	for _, b := range []struct {
		name string
		dest any
	}{
		{"q", &term}, {"category", &selector}, {"kind", &kind},
		{"lat", &lat}, {"lon", &lon}, {"limit", &limit},
	} {
		if err := bindQuery(params, b.name, b.dest); err != nil {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
			return
		}
	}

	if (lat == nil) != (lon == nil) {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "lat and lon must be given together")
		return
	}
	var origin *geo.Point
	if lat != nil {
		origin = &geo.Point{Lat: *lat, Lon: *lon}
	}

	q, err := query.New(deref(term), deref(selector), entity.Kind(deref(kind)), origin, derefInt(limit))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if q.SelectorCoerced() {
		logpkg.FromContext(r.Context()).Debug("unknown category widened to all",
			zap.String("category", deref(selector)))
	}

	res := s.search.Search(r.Context(), &q)

	writeJSON(w, http.StatusOK, SearchResponse{
		Items:           entitiesToResponse(res.Items),
		Total:           res.Total,
		Source:          string(res.Source),
		Generation:      res.Generation,
		SelectorCoerced: q.SelectorCoerced(),
	})
}

// GetEntity handles GET /api/v1/entities/{id}.
func (s *Server) GetEntity(w http.ResponseWriter, r *http.Request) {
	e, err := s.directory.Lookup(entityID(r))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entityToResponse(e))
}

// UpsertEntity handles PUT /api/v1/entities/{id}.
func (s *Server) UpsertEntity(w http.ResponseWriter, r *http.Request) {
	var req UpsertEntityRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	e, err := req.toEntity(entityID(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	created, err := s.directory.Upsert(r.Context(), e)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, entityToResponse(e))
}

// ImportEntities handles POST /api/v1/entities/import.
func (s *Server) ImportEntities(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(req.Entities) == 0 || len(req.Entities) > directoryuc.MaxImportSize {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed,
			fmt.Sprintf("entities count must be between 1 and %d", directoryuc.MaxImportSize))
		return
	}

	entities := make([]entity.Entity, 0, len(req.Entities))
	for i, item := range req.Entities {
		e, err := item.toEntity(item.ID)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed,
				fmt.Sprintf("entities[%d]: %v", i, err))
			return
		}
		entities = append(entities, e)
	}

	if err := s.directory.Import(r.Context(), entities); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ImportResponse{
		Imported: len(entities),
		Source:   snapshotToSource(s.directory.Current()),
	})
}

// DeleteEntity handles DELETE /api/v1/entities/{id}.
func (s *Server) DeleteEntity(w http.ResponseWriter, r *http.Request) {
	if err := s.directory.Delete(r.Context(), entityID(r)); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCategories handles GET /api/v1/categories.
func (s *Server) ListCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, categoriesToResponse(category.All()))
}

// GetSource handles GET /api/v1/source.
func (s *Server) GetSource(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, snapshotToSource(s.directory.Current()))
}

// RefreshDirectory handles POST /api/v1/refresh.
func (s *Server) RefreshDirectory(w http.ResponseWriter, r *http.Request) {
	snap := s.directory.Refresh(r.Context())
	s.logger.Info("Manual refresh",
		zap.String("source", string(snap.Source())),
		zap.Uint64("generation", snap.Generation()),
	)
	writeJSON(w, http.StatusOK, snapshotToSource(snap))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	// A degraded directory still serves; only an empty one is unavailable.
	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Version: version.Version,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func bindQuery(params url.Values, name string, dest any) error {
	if err := runtime.BindQueryParameter("form", true, false, name, params, dest); err != nil {
		return fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	return nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-safe message without exposing internals.
// Validation errors carry their own detail; everything else maps to its sentinel.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidQuery) || errors.Is(err, domain.ErrInvalidEntity) {
		return err.Error()
	}
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrNotFound.Error()
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
