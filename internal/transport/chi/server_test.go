package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kailas-cloud/partnerdex/internal/domain/entity/category"
)

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}

func names(items []EntityResponse) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

// --- Search ---

func TestSearchEntities(t *testing.T) {
	env := newTestEnv(t, newMemPrimary(directoryFixture(t)...), nil)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"term matches case-insensitively", "?q=canna&category=all", []string{"CannaBanque"}},
		{"category only", "?category=legal", []string{"CBD Juridique"}},
		{"term and category disagree", "?q=cbd&category=bank", []string{}},
		{"padded mixed-case term", "?q=%20CANNA%20%20", []string{"CannaBanque"}},
		{"no filters", "", []string{"CannaBanque", "CBD Juridique"}},
		{"unknown category is wildcard", "?category=astrology", []string{"CannaBanque", "CBD Juridique"}},
		{"limit", "?limit=1", []string{"CannaBanque"}},
		{"kind filter", "?kind=store", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, env.handler, http.MethodGet, "/api/v1/entities"+tt.query, "")
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
			}
			resp := decode[SearchResponse](t, rr)
			got := names(resp.Items)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if resp.Source != "primary" {
				t.Errorf("source = %q", resp.Source)
			}
		})
	}
}

func TestSearchEntities_TotalBeforeLimit(t *testing.T) {
	env := newTestEnv(t, newMemPrimary(directoryFixture(t)...), nil)

	resp := decode[SearchResponse](t, doRequest(t, env.handler, http.MethodGet, "/api/v1/entities?limit=1", ""))
	if resp.Total != 2 || len(resp.Items) != 1 {
		t.Errorf("total=%d items=%d", resp.Total, len(resp.Items))
	}
}

func TestSearchEntities_SelectorCoercedFlag(t *testing.T) {
	env := newTestEnv(t, newMemPrimary(directoryFixture(t)...), nil)

	resp := decode[SearchResponse](t, doRequest(t, env.handler, http.MethodGet, "/api/v1/entities?category=nope", ""))
	if !resp.SelectorCoerced {
		t.Error("expected selector_coerced=true")
	}
}

func TestSearchEntities_Distance(t *testing.T) {
	env := newTestEnv(t, newMemPrimary(directoryFixture(t)...), nil)

	rr := doRequest(t, env.handler, http.MethodGet, "/api/v1/entities?lat=48.8566&lon=2.3522", "")
	resp := decode[SearchResponse](t, rr)

	if resp.Items[0].Distance == nil || *resp.Items[0].Distance != 0 {
		t.Errorf("expected zero distance for co-located partner, got %v", resp.Items[0].Distance)
	}
	if resp.Items[1].Distance != nil {
		t.Error("partner without coordinates must not get a distance")
	}
}

func TestSearchEntities_BadParams(t *testing.T) {
	env := newTestEnv(t, newMemPrimary(directoryFixture(t)...), nil)

	for _, q := range []string{
		"?limit=abc",
		"?limit=-1",
		"?lat=1",
		"?lat=95&lon=0",
		"?kind=kiosk",
		"?q=" + strings.Repeat("a", 300),
	} {
		t.Run(q[:min(len(q), 20)], func(t *testing.T) {
			rr := doRequest(t, env.handler, http.MethodGet, "/api/v1/entities"+q, "")
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
			if resp := decode[ErrorResponse](t, rr); resp.Code != ErrorCodeBadRequest {
				t.Errorf("code = %q", resp.Code)
			}
		})
	}
}

func TestSearchEntities_FallbackWhenPrimaryFails(t *testing.T) {
	primary := newMemPrimary()
	primary.fetchErr = errors.New("connection refused")
	fallback := staticFallback(directoryFixture(t))
	env := newTestEnv(t, primary, fallback)

	resp := decode[SearchResponse](t, doRequest(t, env.handler, http.MethodGet, "/api/v1/entities", ""))
	if resp.Source != "fallback" || resp.Total != 2 {
		t.Errorf("source=%q total=%d", resp.Source, resp.Total)
	}
}

// --- Entities ---

func TestGetEntity(t *testing.T) {
	env := newTestEnv(t, newMemPrimary(directoryFixture(t)...), nil)

	rr := doRequest(t, env.handler, http.MethodGet, "/api/v1/entities/cannabanque", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[EntityResponse](t, rr)
	if resp.Name != "CannaBanque" || resp.CategoryLabel != category.Bank.Label() {
		t.Errorf("got %+v", resp)
	}
	if resp.Coordinates == nil {
		t.Error("expected coordinates")
	}
}

func TestGetEntity_NotFound(t *testing.T) {
	env := newTestEnv(t, newMemPrimary(), nil)

	rr := doRequest(t, env.handler, http.MethodGet, "/api/v1/entities/missing", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	if resp := decode[ErrorResponse](t, rr); resp.Code != ErrorCodeEntityNotFound {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestUpsertEntity_CreateThenUpdate(t *testing.T) {
	env := newTestEnv(t, newMemPrimary(), nil)
	body := `{"name":"Boutique Zen","kind":"store","category":"retail","coordinates":{"lat":45.76,"lon":4.83}}`

	rr := doRequest(t, env.handler, http.MethodPut, "/api/v1/entities/zen", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, env.handler, http.MethodPut, "/api/v1/entities/zen", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status = %d", rr.Code)
	}

	resp := decode[SearchResponse](t, doRequest(t, env.handler, http.MethodGet, "/api/v1/entities?kind=store", ""))
	if len(resp.Items) != 1 || resp.Items[0].ID != "zen" {
		t.Errorf("written entity not searchable: %+v", resp.Items)
	}
}

func TestUpsertEntity_Invalid(t *testing.T) {
	env := newTestEnv(t, newMemPrimary(), nil)

	for name, body := range map[string]string{
		"missing name":  `{"category":"bank"}`,
		"bad coords":    `{"name":"X","coordinates":{"lat":99,"lon":0}}`,
		"unknown field": `{"name":"X","phone":"123"}`,
		"not json":      `{`,
	} {
		t.Run(name, func(t *testing.T) {
			rr := doRequest(t, env.handler, http.MethodPut, "/api/v1/entities/x", body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rr.Code)
			}
		})
	}
}

func TestUpsertEntity_StoreError(t *testing.T) {
	primary := newMemPrimary()
	primary.writeErr = errors.New("OOM command not allowed")
	env := newTestEnv(t, primary, nil)

	rr := doRequest(t, env.handler, http.MethodPut, "/api/v1/entities/x", `{"name":"X"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[ErrorResponse](t, rr)
	if resp.Message != "internal error" {
		t.Errorf("internal details leaked: %q", resp.Message)
	}
}

func TestDeleteEntity(t *testing.T) {
	env := newTestEnv(t, newMemPrimary(directoryFixture(t)...), nil)

	rr := doRequest(t, env.handler, http.MethodDelete, "/api/v1/entities/cannabanque", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rr.Code)
	}

	rr = doRequest(t, env.handler, http.MethodDelete, "/api/v1/entities/cannabanque", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", rr.Code)
	}
}

func TestImportEntities(t *testing.T) {
	env := newTestEnv(t, newMemPrimary(), nil)
	body := `{"entities":[{"id":"a","name":"A","category":"bank"},{"id":"b","name":"B"}]}`

	rr := doRequest(t, env.handler, http.MethodPost, "/api/v1/entities/import", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	resp := decode[ImportResponse](t, rr)
	if resp.Imported != 2 || resp.Source.Count != 2 {
		t.Errorf("got %+v", resp)
	}
}

func TestImportEntities_Invalid(t *testing.T) {
	env := newTestEnv(t, newMemPrimary(), nil)

	for name, body := range map[string]string{
		"empty":   `{"entities":[]}`,
		"bad row": `{"entities":[{"id":"a","name":"A"},{"id":"bad id","name":"B"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			rr := doRequest(t, env.handler, http.MethodPost, "/api/v1/entities/import", body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rr.Code)
			}
		})
	}
}

// --- Catalog & diagnostics ---

func TestListCategories(t *testing.T) {
	env := newTestEnv(t, newMemPrimary(), nil)

	resp := decode[[]CategoryResponse](t, doRequest(t, env.handler, http.MethodGet, "/api/v1/categories", ""))
	if len(resp) != len(category.All()) {
		t.Fatalf("expected %d categories, got %d", len(category.All()), len(resp))
	}
	if resp[0].Value != string(category.All()[0]) || resp[0].Label == "" {
		t.Errorf("first = %+v", resp[0])
	}
}

func TestGetSource(t *testing.T) {
	primary := newMemPrimary()
	primary.fetchErr = errors.New("timeout")
	env := newTestEnv(t, primary, staticFallback(directoryFixture(t)))

	resp := decode[SourceResponse](t, doRequest(t, env.handler, http.MethodGet, "/api/v1/source", ""))
	if resp.Source != "fallback" || resp.Count != 2 || resp.FetchError == "" || resp.FetchedAt == nil {
		t.Errorf("got %+v", resp)
	}
}

func TestRefreshDirectory(t *testing.T) {
	primary := newMemPrimary()
	env := newTestEnv(t, primary, nil)
	before := env.directory.Current().Generation()

	primary.put(testEntity(t, "late", "Late Arrival", category.Marketing))

	rr := doRequest(t, env.handler, http.MethodPost, "/api/v1/refresh", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[SourceResponse](t, rr)
	if resp.Generation != before+1 || resp.Count != 1 {
		t.Errorf("got %+v", resp)
	}
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, newMemPrimary(directoryFixture(t)...), nil)

	rr := doRequest(t, env.handler, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[HealthResponse](t, rr)
	if resp.Status != "ok" || resp.Checks["directory"] != "ok" || resp.Checks["database"] != "ok" {
		t.Errorf("got %+v", resp)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, newMemPrimary(), nil)

	rr := doRequest(t, env.handler, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "partnerdex_http_requests_in_flight") {
		t.Error("expected HTTP metrics in exposition")
	}
}

// --- Router ---

func TestRouter_AuthAndRequestID(t *testing.T) {
	env := newTestEnv(t, newMemPrimary(), nil, "secret")

	rr := doRequest(t, env.handler, http.MethodGet, "/api/v1/categories", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}

	rr = doRequest(t, env.handler, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("health must bypass auth, got %d", rr.Code)
	}
}

func TestRouter_NotFound(t *testing.T) {
	env := newTestEnv(t, newMemPrimary(), nil)

	rr := doRequest(t, env.handler, http.MethodGet, "/api/v2/nothing", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
}

func TestJSONRecoverer(t *testing.T) {
	h := JSONRecoverer(testLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := doRequest(t, h, http.MethodGet, "/", "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if resp := decode[ErrorResponse](t, rr); resp.Code != ErrorCodeInternalError {
		t.Errorf("code = %q", resp.Code)
	}
}
