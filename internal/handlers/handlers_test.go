package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"visionserver/internal/broadcast"
	"visionserver/internal/config"
	"visionserver/internal/device"
	"visionserver/internal/logger"
	"visionserver/internal/model"
	"visionserver/internal/orchestrator"
	"visionserver/internal/postprocess"
	"visionserver/internal/queue"
	"visionserver/internal/repository"
	"visionserver/internal/settings"
)

type stubCamera struct{ connected bool }

func (c *stubCamera) Connect() error  { c.connected = true; return nil }
func (c *stubCamera) Connected() bool { return c.connected }
func (c *stubCamera) Close() error    { return nil }

func (c *stubCamera) Capture(ctx context.Context) (*model.Frame, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 16, 16))); err != nil {
		return nil, err
	}
	return &model.Frame{
		Device:    "cam-1",
		Filename:  "frame_001.png",
		Data:      buf.Bytes(),
		Timestamp: time.Now(),
	}, nil
}

type stubModel struct{}

func (m *stubModel) Load() error  { return nil }
func (m *stubModel) Loaded() bool { return true }

func (m *stubModel) Infer(ctx context.Context, frame *model.Frame) (*model.InferenceOutcome, error) {
	return &model.InferenceOutcome{Confidence: 0.75}, nil
}

type stubResultRepo struct{ results []model.Result }

func (r *stubResultRepo) Insert(res *model.Result) (int64, error) {
	res.ID = int64(len(r.results) + 1)
	r.results = append(r.results, *res)
	return res.ID, nil
}

func (r *stubResultRepo) GetByID(id int64) (*model.Result, error) { return nil, nil }

func (r *stubResultRepo) GetRecent(limit int) ([]model.Result, error) {
	if limit > len(r.results) {
		limit = len(r.results)
	}
	out := make([]model.Result, 0, limit)
	for i := len(r.results) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.results[i])
	}
	return out, nil
}

func (r *stubResultRepo) CountByVerdict(verdict model.Verdict) (int, error) { return 0, nil }

type stubSettingsRepo struct{ values map[string]string }

func (r *stubSettingsRepo) Get(key string) (string, error) {
	value, ok := r.values[key]
	if !ok {
		return "", repository.ErrSettingNotFound
	}
	return value, nil
}

func (r *stubSettingsRepo) Set(key, value, description string) error {
	r.values[key] = value
	return nil
}

func (r *stubSettingsRepo) All() (map[string]string, error) {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	logs, err := logger.New(t.TempDir(), 100)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return logs
}

func testStore(t *testing.T) *settings.Store {
	t.Helper()
	return settings.NewStore(&stubSettingsRepo{values: map[string]string{
		settings.KeyConfidenceThreshold: "0.5",
	}})
}

// testOrchestrator wires a full pipeline around stub backends. Workers are
// not started; triggered requests stay queued, which is all the REST
// acknowledgment path needs.
func testOrchestrator(t *testing.T) *orchestrator.Orchestrator {
	t.Helper()

	logs := testLogger(t)
	hub := broadcast.NewHub(logs)
	go hub.Run()
	t.Cleanup(hub.Stop)

	registry := device.NewRegistry()
	registry.Register("cam-1", &stubCamera{connected: true})

	processor, err := postprocess.NewProcessor(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create processor: %v", err)
	}

	cfg := &config.Config{
		PrimaryDevice:    "cam-1",
		QueueCapacity:    4,
		PipelineWorkers:  1,
		CaptureTimeout:   1,
		InferenceTimeout: 1,
	}
	return orchestrator.New(registry, queue.New(cfg.QueueCapacity), hub, processor,
		&stubModel{}, &stubResultRepo{}, testStore(t), logs, cfg)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
	return body
}

func TestCaptureHandler_AcceptsAndAcknowledges(t *testing.T) {
	handler := CaptureHandler(testOrchestrator(t), testLogger(t))

	req := httptest.NewRequest(http.MethodPost, "/api/capture", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("Status = %d, expected 202", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Error("Response not marked successful")
	}
	if id, _ := body["correlation_id"].(string); id == "" {
		t.Error("Acknowledgment missing correlation_id")
	}
	// The final verdict never rides on the HTTP response.
	for _, key := range []string{"result", "confidence"} {
		if _, ok := body[key]; ok {
			t.Errorf("Acknowledgment unexpectedly carries %q", key)
		}
	}
}

func TestCaptureHandler_BusyDevice(t *testing.T) {
	orch := testOrchestrator(t)
	handler := CaptureHandler(orch, testLogger(t))

	first := httptest.NewRecorder()
	handler(first, httptest.NewRequest(http.MethodPost, "/api/capture", nil))
	if first.Code != http.StatusAccepted {
		t.Fatalf("First capture status = %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler(second, httptest.NewRequest(http.MethodPost, "/api/capture", nil))
	if second.Code != http.StatusConflict {
		t.Fatalf("Second capture status = %d, expected 409", second.Code)
	}
	if body := decodeBody(t, second); body["success"] != false {
		t.Error("Conflict response not marked failed")
	}
}

func TestCaptureHandler_InvalidThreshold(t *testing.T) {
	handler := CaptureHandler(testOrchestrator(t), testLogger(t))

	payload := strings.NewReader(`{"confidence_threshold": 1.5}`)
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/capture", payload))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Status = %d, expected 400", rec.Code)
	}
}

func TestCaptureHandler_MalformedBody(t *testing.T) {
	handler := CaptureHandler(testOrchestrator(t), testLogger(t))

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/capture", strings.NewReader("{not json")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Status = %d, expected 400", rec.Code)
	}
}

func TestUpdateSettingsHandler_RejectsOutOfRange(t *testing.T) {
	store := testStore(t)
	handler := UpdateSettingsHandler(store, testLogger(t))

	for _, raw := range []string{`{"confidence_threshold": 1.5}`, `{"confidence_threshold": -0.2}`} {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodPost, "/api/settings", strings.NewReader(raw)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Status for %s = %d, expected 400", raw, rec.Code)
		}
	}

	// Stored value untouched by rejected updates.
	value, err := store.Get(settings.KeyConfidenceThreshold)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != "0.5" {
		t.Errorf("Threshold = %s after rejected updates, expected 0.5", value)
	}
}

func TestUpdateSettingsHandler_PersistsValid(t *testing.T) {
	store := testStore(t)
	handler := UpdateSettingsHandler(store, testLogger(t))

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/settings",
		strings.NewReader(`{"confidence_threshold": 0.7}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, expected 200", rec.Code)
	}
	value, err := store.Get(settings.KeyConfidenceThreshold)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != "0.7" {
		t.Errorf("Threshold = %s, expected 0.7", value)
	}
}

func TestGetSettingsHandler_NumbersAsNumbers(t *testing.T) {
	handler := GetSettingsHandler(testStore(t), testLogger(t))

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	all, ok := body["settings"].(map[string]any)
	if !ok {
		t.Fatalf("Missing settings object: %v", body)
	}
	if got, ok := all[settings.KeyConfidenceThreshold].(float64); !ok || got != 0.5 {
		t.Errorf("confidence_threshold = %v, expected numeric 0.5", all[settings.KeyConfidenceThreshold])
	}
}

func TestGetResultsHandler_EmptyIsArray(t *testing.T) {
	handler := GetResultsHandler(&stubResultRepo{}, testLogger(t))

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/results", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"results":[]`) {
		t.Errorf("Empty results not encoded as array: %s", rec.Body.String())
	}
}

func TestGetResultsHandler_LimitAndOrder(t *testing.T) {
	repo := &stubResultRepo{}
	for i := 0; i < 5; i++ {
		repo.Insert(&model.Result{Device: "cam-1", Verdict: model.VerdictPass})
	}
	handler := GetResultsHandler(repo, testLogger(t))

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/results?limit=2", nil))

	body := decodeBody(t, rec)
	results, ok := body["results"].([]any)
	if !ok || len(results) != 2 {
		t.Fatalf("Expected 2 results, got %v", body["results"])
	}
}

func TestImageHandler_ServesAndValidates(t *testing.T) {
	imagesDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(imagesDir, "frame_001.png"), []byte("png-bytes"), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	cfg := &config.Config{ImageDirectory: imagesDir, ProcessedDir: t.TempDir()}
	handler := ImageHandler(cfg)

	serve := func(kind, name string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/images/"+kind+"/"+name, nil)
		req = mux.SetURLVars(req, map[string]string{"kind": kind, "name": name})
		rec := httptest.NewRecorder()
		handler(rec, req)
		return rec
	}

	if rec := serve("original", "frame_001.png"); rec.Code != http.StatusOK {
		t.Errorf("Serving existing image: status %d", rec.Code)
	}
	if rec := serve("thumbnails", "frame_001.png"); rec.Code != http.StatusNotFound {
		t.Errorf("Unknown kind: status %d, expected 404", rec.Code)
	}
	if rec := serve("original", "../secret.txt"); rec.Code != http.StatusBadRequest {
		t.Errorf("Traversal name: status %d, expected 400", rec.Code)
	}
}

func TestStatusAndHealthHandlers(t *testing.T) {
	orch := testOrchestrator(t)
	orch.RefreshStatus()

	rec := httptest.NewRecorder()
	StatusHandler(orch)(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	body := decodeBody(t, rec)
	if body["status"] != "online" {
		t.Errorf("status = %v", body["status"])
	}
	if body["camera_connected"] != true || body["model_loaded"] != true {
		t.Errorf("Backend flags = %v / %v", body["camera_connected"], body["model_loaded"])
	}

	rec = httptest.NewRecorder()
	HealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Health status = %d", rec.Code)
	}
}

func TestGetLogsHandler(t *testing.T) {
	logs := testLogger(t)
	logs.Info("test", "hello")

	rec := httptest.NewRecorder()
	GetLogsHandler(logs)(rec, httptest.NewRequest(http.MethodGet, "/api/logs", nil))

	body := decodeBody(t, rec)
	entries, ok := body["logs"].([]any)
	if !ok || len(entries) != 1 {
		t.Fatalf("Expected 1 log entry, got %v", body["logs"])
	}
}
