package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/kintrace/internal/domain"
	"github.com/vanshika/kintrace/internal/metrics"
	"github.com/vanshika/kintrace/internal/service"
)

type mapSource map[string]domain.FamilySnapshot

func (m mapSource) LoadFamily(_ context.Context, familyID string) (domain.FamilySnapshot, error) {
	snap, ok := m[familyID]
	if !ok {
		return domain.FamilySnapshot{}, domain.ErrFamilyNotFound
	}
	return snap, nil
}

type stubHealth struct{ err error }

func (s stubHealth) Probe(context.Context) error { return s.err }

func edge(src, dst string, kind domain.RelationKind) domain.RelationshipEdge {
	return domain.RelationshipEdge{SourceID: src, TargetID: dst, Kind: kind}
}

func testFamilies() mapSource {
	return mapSource{
		"FAM-1": {
			FamilyID: "FAM-1",
			Individuals: []domain.Individual{
				{ID: "A"}, {ID: "B"}, {ID: "C"}, {ID: "D"}, {ID: "H"},
			},
			Edges: []domain.RelationshipEdge{
				edge("A", "B", domain.RelationSpouse),
				edge("A", "C", domain.RelationParent), edge("B", "C", domain.RelationParent),
				edge("A", "D", domain.RelationParent), edge("B", "D", domain.RelationParent),
			},
		},
		"FAM-CYCLE": {
			FamilyID:    "FAM-CYCLE",
			Individuals: []domain.Individual{{ID: "X"}, {ID: "Y"}},
			Edges: []domain.RelationshipEdge{
				edge("X", "Y", domain.RelationParent), edge("Y", "X", domain.RelationParent),
			},
		},
	}
}

func newTestRouter(t *testing.T, deps RouterDependencies) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if deps.API == nil {
		svc := service.NewFamilyService(testFamilies(), service.Options{MaxBatchPairs: 3})
		deps.API = NewAPIHandlers(logger, svc)
	}
	return NewRouter(logger, deps)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, r))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHandleLayout(t *testing.T) {
	rec := do(t, newTestRouter(t, RouterDependencies{}), http.MethodGet, "/families/FAM-1/layout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	resp := decode[layoutResponse](t, rec)
	assert.Equal(t, 2, resp.Generations)
	require.Len(t, resp.Rows, 2)
	assert.Equal(t, []layoutNode{
		{Kind: "individual", ID: "A", Level: 0},
		{Kind: "individual", ID: "B", Level: 0},
		{Kind: "individual", ID: "H", Level: 0},
		{Kind: "union", ID: resp.Unions[0].ID, Level: 0},
	}, resp.Rows[0])
	require.Len(t, resp.Unions, 1)
	assert.Equal(t, []string{"C", "D"}, resp.Unions[0].Children)
}

func TestHandleLayout_CycleIsUnprocessable(t *testing.T) {
	rec := do(t, newTestRouter(t, RouterDependencies{}), http.MethodGet, "/families/FAM-CYCLE/layout", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "cyclic ancestry")
}

func TestHandleKinship(t *testing.T) {
	router := newTestRouter(t, RouterDependencies{})

	rec := do(t, router, http.MethodGet, "/families/FAM-1/kinship?a=C&b=D", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[kinshipResponse](t, rec)
	assert.Equal(t, "siblings", resp.Relation)
	assert.Equal(t, "A", resp.Ancestor)

	rec = do(t, router, http.MethodGet, "/families/FAM-1/kinship?a=C", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/families/FAM-1/kinship?a=C&b=NOPE", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `unknown individual`)

	rec = do(t, router, http.MethodGet, "/families/FAM-404/kinship?a=C&b=D", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleKinshipBatch(t *testing.T) {
	router := newTestRouter(t, RouterDependencies{})

	rec := do(t, router, http.MethodPost, "/families/FAM-1/kinship", `{"pairs":[{"a":"A","b":"C"},{"a":"C","b":"NOPE"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[kinshipBatchResponse](t, rec)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, 1, resp.Failed)
	require.NotNil(t, resp.Results[0].Kinship)
	assert.Equal(t, "ancestor", resp.Results[0].Kinship.Relation)
	assert.Nil(t, resp.Results[1].Kinship)
	assert.Contains(t, resp.Results[1].Error, "NOPE")
}

func TestHandleKinshipBatch_Validation(t *testing.T) {
	router := newTestRouter(t, RouterDependencies{})

	cases := map[string]string{
		"empty pairs":   `{"pairs":[]}`,
		"missing b":     `{"pairs":[{"a":"A"}]}`,
		"unknown field": `{"pairs":[{"a":"A","b":"B"}],"extra":true}`,
		"too many":      `{"pairs":[{"a":"A","b":"B"},{"a":"A","b":"C"},{"a":"A","b":"D"},{"a":"B","b":"C"}]}`,
		"not json":      `pairs`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/families/FAM-1/kinship", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestHandlePath(t *testing.T) {
	router := newTestRouter(t, RouterDependencies{})

	rec := do(t, router, http.MethodGet, "/families/FAM-1/path?from=C&to=D", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[pathResponse](t, rec)
	assert.True(t, resp.Found)
	assert.Equal(t, 2, resp.Distance)
	assert.Equal(t, []string{"C", "A", "D"}, resp.IDs)
	assert.Equal(t, []stepResponse{{From: "C", To: "A", Kind: "parent"}, {From: "A", To: "D", Kind: "child"}}, resp.Steps)

	rec = do(t, router, http.MethodGet, "/families/FAM-1/path?from=C&to=H", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[pathResponse](t, rec)
	assert.False(t, resp.Found)
	assert.Empty(t, resp.IDs)
}

func TestHandleComponentsAndSummary(t *testing.T) {
	router := newTestRouter(t, RouterDependencies{})

	rec := do(t, router, http.MethodGet, "/families/FAM-1/components", "")
	require.Equal(t, http.StatusOK, rec.Code)
	comps := decode[componentsResponse](t, rec)
	assert.Equal(t, 2, comps.Count)
	assert.Equal(t, 4, comps.Components[0].Size)

	rec = do(t, router, http.MethodGet, "/families/FAM-CYCLE/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	sum := decode[service.Summary](t, rec)
	assert.Equal(t, 2, sum.Individuals)
	assert.Contains(t, sum.LayoutError, "cyclic ancestry")
}

func TestHandleRefresh(t *testing.T) {
	router := newTestRouter(t, RouterDependencies{})

	rec := do(t, router, http.MethodPost, "/families/FAM-1/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"familyId":"FAM-1","dropped":false}`, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/families/FAM-1/refresh", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

func TestHandleFamilies_Routing(t *testing.T) {
	router := newTestRouter(t, RouterDependencies{})

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/families/", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/families/FAM-1/horoscope", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, router, http.MethodDelete, "/families/FAM-1/layout", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, router, http.MethodPut, "/families/FAM-1/kinship", "").Code)
}

func TestHealthz(t *testing.T) {
	rec := do(t, newTestRouter(t, RouterDependencies{Health: stubHealth{}}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, newTestRouter(t, RouterDependencies{Health: stubHealth{err: errors.New("graph down")}}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestMetricsEndpoint(t *testing.T) {
	rec := metrics.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewFamilyService(testFamilies(), service.Options{Metrics: rec})
	router := NewRouter(logger, RouterDependencies{API: NewAPIHandlers(logger, svc), Metrics: rec.Handler()})

	require.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/families/FAM-1/layout", "").Code)

	res := do(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `kintrace_operations_total{operation="layout",outcome="ok"} 1`)

	assert.Equal(t, http.StatusNotFound, do(t, newTestRouter(t, RouterDependencies{}), http.MethodGet, "/metrics", "").Code)
}

func TestCORS(t *testing.T) {
	router := newTestRouter(t, RouterDependencies{AllowedOrigins: []string{"https://tree.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/families/FAM-1/layout", nil)
	req.Header.Set("Origin", "https://tree.example")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://tree.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/families/FAM-1/layout", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(context.DeadlineExceeded))
	assert.Equal(t, http.StatusBadRequest, statusFor(service.ErrTooManyPairs))
}
