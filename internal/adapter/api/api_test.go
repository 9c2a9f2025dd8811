package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/leporo/sqlf"
	"github.com/sbpr-app/sbpr_backend/internal/adapter/relay"
	"github.com/sbpr-app/sbpr_backend/internal/adapter/storage"
	"github.com/sbpr-app/sbpr_backend/internal/app/messagebus"
	measurementservice "github.com/sbpr-app/sbpr_backend/internal/app/measurement"
	settingsservice "github.com/sbpr-app/sbpr_backend/internal/app/settings"
	transferservice "github.com/sbpr-app/sbpr_backend/internal/app/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	sqlf.SetDialect(sqlf.NoDialect)

	db, err := storage.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewServer(
		Logger(logger),
		DBContext(storage.DB{DB: db}),
		MessageBus(messagebus.New(logger)),
		MeasurementService(measurementservice.New(logger)),
		SettingsService(settingsservice.New(logger)),
		TransferService(transferservice.New(logger)),
		RelayClient(relay.NewClient("http://127.0.0.1:1", time.Second)),
	)
}

func do(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestCreateRecordEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, http.MethodPost, "/records",
		`{"systolic": 142, "diastolic": 94, "pulse": 70}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, 142, got.Systolic)
	assert.Equal(t, 94, got.Diastolic)
	assert.Equal(t, "Grade I Hypertension", got.Classification)
	assert.Equal(t, "bp-grade1", got.ClassificationTag)
}

func TestCreateRecordEndpointRejectsInvalidInput(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, http.MethodPost, "/records", `{"diastolic": 94}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "systolic pressure is required")

	list := do(s, http.MethodGet, "/records", "")
	require.Equal(t, http.StatusOK, list.Code)
	var resp ListRecordsResponse
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &resp))
	assert.Empty(t, resp.Records)
}

func TestRecordLifecycleEndpoints(t *testing.T) {
	s := newTestServer(t)

	created := do(s, http.MethodPost, "/records",
		`{"systolic": 125, "diastolic": 82, "measured_at": "2026-03-01T08:00:00Z"}`)
	require.Equal(t, http.StatusCreated, created.Code)
	var r Record
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &r))

	got := do(s, http.MethodGet, "/records/"+r.ID, "")
	require.Equal(t, http.StatusOK, got.Code)

	updated := do(s, http.MethodPut, "/records/"+r.ID,
		`{"systolic": 152, "diastolic": 96}`)
	require.Equal(t, http.StatusOK, updated.Code)
	var u Record
	require.NoError(t, json.Unmarshal(updated.Body.Bytes(), &u))
	assert.Equal(t, r.ID, u.ID)
	assert.Equal(t, "Grade II Hypertension", u.Classification)

	deleted := do(s, http.MethodDelete, "/records/"+r.ID, "")
	require.Equal(t, http.StatusNoContent, deleted.Code)

	missing := do(s, http.MethodGet, "/records/"+r.ID, "")
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestListRecordsEndpointRange(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{
		`{"systolic": 120, "diastolic": 80, "measured_at": "2026-03-01T08:00:00Z"}`,
		`{"systolic": 130, "diastolic": 85, "measured_at": "2026-03-02T08:00:00Z"}`,
		`{"systolic": 140, "diastolic": 90, "measured_at": "2026-03-10T08:00:00Z"}`,
	} {
		rec := do(s, http.MethodPost, "/records", body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := do(s, http.MethodGet, "/records?from=2026-03-01&to=2026-03-02&order=asc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ListRecordsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Records, 2)
	assert.Equal(t, 120, resp.Records[0].Systolic)
	assert.Equal(t, 130, resp.Records[1].Systolic)

	// default listing is newest first
	all := do(s, http.MethodGet, "/records", "")
	require.Equal(t, http.StatusOK, all.Code)
	require.NoError(t, json.Unmarshal(all.Body.Bytes(), &resp))
	require.Len(t, resp.Records, 3)
	assert.Equal(t, 140, resp.Records[0].Systolic)

	bad := do(s, http.MethodGet, "/records?from=01-03-2026", "")
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestRecordStatsEndpoint(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{
		`{"systolic": 120, "diastolic": 80}`,
		`{"systolic": 130, "diastolic": 85}`,
	} {
		rec := do(s, http.MethodPost, "/records", body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := do(s, http.MethodGet, "/records/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RecordStatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	require.NotNil(t, resp.Averages)
	assert.Equal(t, 125.0, resp.Averages.Systolic)
	assert.Equal(t, 82.5, resp.Averages.Diastolic)
	require.NotNil(t, resp.Extremes)
	assert.Equal(t, 130, resp.Extremes.MaxSystolic)
	assert.Equal(t, 80, resp.Extremes.MinDiastolic)
}

func TestSettingsEndpoints(t *testing.T) {
	s := newTestServer(t)

	put := do(s, http.MethodPut, "/settings",
		`{"ai_model": "gpt-4o", "api_key": "sk-test-123", "chart": {"day_start_hour": 7, "night_start_hour": 21}}`)
	require.Equal(t, http.StatusNoContent, put.Code)

	get := do(s, http.MethodGet, "/settings", "")
	require.Equal(t, http.StatusOK, get.Code)

	var resp GetSettingsResponse
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &resp))
	assert.Equal(t, "gpt-4o", resp.AIModel)
	assert.Equal(t, 7, resp.Chart.DayStartHour)
	assert.Equal(t, 21, resp.Chart.NightStartHour)
	assert.True(t, resp.APIKeySet)
	assert.NotContains(t, get.Body.String(), "sk-test-123")

	bad := do(s, http.MethodPut, "/settings", `{"ai_model": "gpt-99-ultra"}`)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestExportWorkbookEndpoint(t *testing.T) {
	s := newTestServer(t)

	created := do(s, http.MethodPost, "/records", `{"systolic": 152, "diastolic": 96}`)
	require.Equal(t, http.StatusCreated, created.Code)

	rec := do(s, http.MethodGet, "/export.xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "attachment")

	wb, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer func() {
		require.NoError(t, wb.Close())
	}()

	systolic, err := wb.GetCellValue("Records", "B2")
	require.NoError(t, err)
	assert.Equal(t, "152", systolic)
	classification, err := wb.GetCellValue("Records", "H2")
	require.NoError(t, err)
	assert.Equal(t, "Grade II Hypertension", classification)
}

func TestExportImportEndpoints(t *testing.T) {
	s := newTestServer(t)

	created := do(s, http.MethodPost, "/records", `{"systolic": 125, "diastolic": 82}`)
	require.Equal(t, http.StatusCreated, created.Code)

	export := do(s, http.MethodGet, "/export", "")
	require.Equal(t, http.StatusOK, export.Code)
	assert.Contains(t, export.Header().Get(echo.HeaderContentDisposition), "attachment")

	var doc transferservice.Document
	require.NoError(t, json.Unmarshal(export.Body.Bytes(), &doc))
	assert.Equal(t, 1, doc.RecordCount)

	// a re-import of our own export is all duplicates
	imported := do(s, http.MethodPost, "/import", export.Body.String())
	require.Equal(t, http.StatusOK, imported.Code)
	var report ImportResponse
	require.NoError(t, json.Unmarshal(imported.Body.Bytes(), &report))
	assert.Equal(t, ImportResponse{Total: 1, SkippedDuplicate: 1}, report)

	bad := do(s, http.MethodPost, "/import", `{"appName": "sbpr"}`)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}
