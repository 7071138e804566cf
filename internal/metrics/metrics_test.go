package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/datasweeper/internal/core"
)

func scrape(t *testing.T, r *Recorder) string {
	t.Helper()
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	return rec.Body.String()
}

func TestRecorder_PipelineEvents(t *testing.T) {
	r := New()

	r.FileParsed(core.FormatCSV, 10)
	r.FileParsed(core.FormatCSV, 20)
	r.FileParsed(core.FormatXLSX, 5)
	r.FileFailed("parse", &core.UnsupportedFormatError{Ext: ".txt"})
	r.DuplicatesRemoved(3)
	r.CellsFilled(4)
	r.Converted(core.FormatXLSX, 2048)

	body := scrape(t, r)
	for _, want := range []string{
		`datasweeper_files_parsed_total{format="csv"} 2`,
		`datasweeper_files_parsed_total{format="xlsx"} 1`,
		`datasweeper_files_failed_total{code="FILE006",stage="parse"} 1`,
		"datasweeper_duplicate_rows_removed_total 3",
		"datasweeper_cells_filled_total 4",
		`datasweeper_conversions_total{format="xlsx"} 1`,
		"datasweeper_parsed_rows_count 3",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.ObserveRequest(http.MethodPost, "/api/files", http.StatusOK, 20*time.Millisecond)
	r.FileFailed("select", errors.New("boom"))

	body := scrape(t, r)
	for _, want := range []string{
		`datasweeper_http_requests_total{method="POST",route="/api/files",status="200"} 1`,
		`datasweeper_files_failed_total{code="ERR000",stage="select"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
