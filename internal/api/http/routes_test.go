package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/station-health/internal/collector"
	"github.com/i474232898/station-health/internal/health"
	"github.com/i474232898/station-health/internal/store"
)

func newTestApp(t *testing.T, records ...health.Record) *fiber.App {
	t.Helper()

	memStore := store.NewMemoryStore(0)
	for _, rec := range records {
		if err := memStore.AddRecord(context.Background(), rec); err != nil {
			t.Fatalf("seed store: %v", err)
		}
	}
	units := health.NewUnitTable()
	health.RegisterUnits(units)

	svc := collector.NewService(nil, memStore, nil, 0, nil)
	app := fiber.New()
	RegisterRoutes(app, svc, units)
	return app
}

func do(t *testing.T, app *fiber.App, target string) (*http.Response, []byte) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, body
}

func TestLatestRecordNotFound(t *testing.T) {
	app := newTestApp(t)

	resp, _ := do(t, app, "/api/v1/records/latest")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestLatestRecord(t *testing.T) {
	older := health.NewRecord(time.Unix(1000, 0))
	newer := health.NewRecord(time.Unix(1300, 0))
	newer.RSSI = health.Float(-55)
	app := newTestApp(t, older, newer)

	resp, body := do(t, app, "/api/v1/records/latest")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var got map[string]any
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got["dateTime"] != float64(1300) {
		t.Fatalf("expected dateTime 1300, got %v", got["dateTime"])
	}
	if got["rssi"] != float64(-55) {
		t.Fatalf("expected rssi -55, got %v", got["rssi"])
	}
	if _, ok := got["supercapVolt"]; ok {
		t.Fatalf("absent fields must be omitted, got %v", got["supercapVolt"])
	}
}

// TestRecordsRangeValidation verifies that the records endpoint requires a
// well-formed, ordered from/to pair.
func TestRecordsRangeValidation(t *testing.T) {
	app := newTestApp(t)

	for _, target := range []string{
		"/api/v1/records",
		"/api/v1/records?from=1000",
		"/api/v1/records?from=yesterday&to=2000",
		"/api/v1/records?from=2000&to=1000",
	} {
		resp, _ := do(t, app, target)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected status %d, got %d", target, http.StatusBadRequest, resp.StatusCode)
		}
	}
}

func TestRecordsRange(t *testing.T) {
	app := newTestApp(t,
		health.NewRecord(time.Unix(1000, 0)),
		health.NewRecord(time.Unix(1300, 0)),
		health.NewRecord(time.Unix(1600, 0)),
	)

	resp, body := do(t, app, "/api/v1/records?from=1000&to=1970-01-01T00:21:40Z")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, resp.StatusCode, body)
	}

	var got struct {
		Records []health.Record `json:"records"`
	}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(got.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got.Records))
	}
	if got.Records[1].DateTime != 1300 {
		t.Fatalf("expected last record at 1300, got %d", got.Records[1].DateTime)
	}

	resp, _ = do(t, app, "/api/v1/records?from=5000&to=6000")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestSchemaListsColumnsWithUnits(t *testing.T) {
	app := newTestApp(t)

	resp, body := do(t, app, "/api/v1/schema")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var got struct {
		Columns []columnInfo `json:"columns"`
	}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(got.Columns) != len(health.Schema) {
		t.Fatalf("expected %d columns, got %d", len(health.Schema), len(got.Columns))
	}
	if got.Columns[0].Name != "dateTime" || got.Columns[0].Type != "INTEGER" {
		t.Fatalf("unexpected first column %+v", got.Columns[0])
	}
	for _, col := range got.Columns {
		if col.Name == "rssi" && (col.Unit == nil || col.Unit.Name != "decibels") {
			t.Fatalf("expected rssi in decibels, got %+v", col.Unit)
		}
	}
}
