package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/weather-report/internal/adapter/http"
	"github.com/couchcryptid/weather-report/internal/domain"
	"github.com/couchcryptid/weather-report/internal/report"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockGenerator struct {
	err   error
	calls int
}

func (m *mockGenerator) RunWith(_ context.Context, renderer report.Renderer, w io.Writer) (domain.Report, error) {
	m.calls++
	if m.err != nil {
		return domain.Report{}, m.err
	}
	rep := domain.Report{
		RunID:   "run-1",
		Title:   "Weather",
		Overall: &domain.OverallStats{Count: 1, Mean: 20, Min: 20, Max: 20},
		Yearly:  &domain.AggregationResult{Dimension: "year", Groups: []domain.GroupStats{{Key: 2023, Label: "2023", Count: 1}}},
		Monthly: &domain.AggregationResult{Dimension: "month", Groups: []domain.GroupStats{{Key: 6, Label: "Jun", Count: 1}}},
	}
	return rep, renderer.Render(w, &rep)
}

func newTestServer(readyErr error, gen *mockGenerator) *httpadapter.Server {
	return httpadapter.NewServer(":0", gen, &mockReadiness{err: readyErr}, slog.New(slog.DiscardHandler))
}

func get(srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(newTestServer(nil, &mockGenerator{}), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(newTestServer(nil, &mockGenerator{}), "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(newTestServer(fmt.Errorf("not ready yet"), &mockGenerator{}), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(newTestServer(nil, &mockGenerator{}), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestReportMarkdown(t *testing.T) {
	gen := &mockGenerator{}
	rec := get(newTestServer(nil, gen), "/report")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "run-1", rec.Header().Get("X-Report-Run-Id"))
	assert.Contains(t, rec.Body.String(), "# Weather")
	assert.Contains(t, rec.Body.String(), "| Jun |")
	assert.Equal(t, 1, gen.calls)
}

func TestReportJSON(t *testing.T) {
	rec := get(newTestServer(nil, &mockGenerator{}), "/report.json")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body domain.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "run-1", body.RunID)
}

func TestReportErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"malformed row", fmt.Errorf("load x: %w", &domain.MalformedRowError{Line: 3, Column: "temperature", Value: "hot", Reason: "not a finite number"}), http.StatusUnprocessableEntity},
		{"duplicate date", &domain.DuplicateDateError{FirstLine: 2, Line: 4}, http.StatusUnprocessableEntity},
		{"empty dataset", fmt.Errorf("aggregate: %w", &domain.EmptyDatasetError{Operation: "overall stats"}), http.StatusUnprocessableEntity},
		{"missing section", &domain.MissingSectionDataError{Section: "monthly"}, http.StatusUnprocessableEntity},
		{"io failure", fmt.Errorf("open dataset: %w", io.ErrUnexpectedEOF), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(newTestServer(nil, &mockGenerator{err: tt.err}), "/report")

			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.err.Error(), body["error"])
		})
	}
}

func TestReportMethodNotAllowed(t *testing.T) {
	srv := newTestServer(nil, &mockGenerator{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/report", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
