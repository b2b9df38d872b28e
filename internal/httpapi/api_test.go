package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ironsheep/photo-sharpness-mcp/internal/ledger"
	"github.com/ironsheep/photo-sharpness-mcp/internal/scorecache"
	"github.com/ironsheep/photo-sharpness-mcp/internal/sharpness"
)

func newTestRouter(t *testing.T, opts Options) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return NewRouter(New(opts))
}

func encodePNG(t *testing.T, width, height int, pixel func(x, y int) color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, pixel(x, y))
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return buf.Bytes()
}

func flat(x, y int) color.Color { return color.RGBA{128, 128, 128, 255} }

func checker(x, y int) color.Color {
	if (x+y)%2 == 0 {
		return color.White
	}
	return color.Black
}

func buildMultipartBody(t *testing.T, contentType string, payload []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="photo"; filename="upload.png"`)
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("failed to create part: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("failed to write payload: %v", err)
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field %s: %v", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func postPhoto(t *testing.T, router *gin.Engine, contentType string, payload []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, formType := buildMultipartBody(t, contentType, payload, fields)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sharpness", body)
	req.Header.Set("Content-Type", formType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decodeScore(t *testing.T, resp *httptest.ResponseRecorder) ScoreResponse {
	t.Helper()
	var out ScoreResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", resp.Body.String(), err)
	}
	return out
}

func openTestLedger(t *testing.T) *ledger.Store {
	t.Helper()
	store, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("ledger.Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["status"] != "ok" || body["cache"] != "memory" || body["ledger"] != false {
		t.Errorf("unexpected health body: %v", body)
	}
	if resp.Header().Get(requestIDHeader) == "" {
		t.Error("response should carry a request ID header")
	}
}

func TestScoreUpload_SharpAndBlurry(t *testing.T) {
	router := newTestRouter(t, Options{})

	tests := []struct {
		name       string
		pixel      func(x, y int) color.Color
		wantBlurry bool
		wantScore  float64
	}{
		{"flat", flat, true, 0},
		{"checker", checker, false, 1040400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postPhoto(t, router, "image/png", encodePNG(t, 40, 30, tt.pixel), nil)
			if resp.Code != http.StatusOK {
				t.Fatalf("expected status %d, got %d: %s", http.StatusOK, resp.Code, resp.Body.String())
			}
			out := decodeScore(t, resp)
			if out.Blurry != tt.wantBlurry {
				t.Errorf("Blurry = %v, want %v", out.Blurry, tt.wantBlurry)
			}
			if math.Abs(out.Score-tt.wantScore) > 1e-3 {
				t.Errorf("Score = %v, want %v", out.Score, tt.wantScore)
			}
			if out.Width != 40 || out.Height != 30 {
				t.Errorf("dimensions = %dx%d, want 40x30", out.Width, out.Height)
			}
			if out.Threshold != sharpness.DefaultBlurThreshold {
				t.Errorf("Threshold = %v, want default", out.Threshold)
			}
			if out.Filename != "upload.png" || out.RequestID == "" {
				t.Errorf("unexpected metadata: %+v", out)
			}
		})
	}
}

func TestScoreUpload_CachedOnSecondUpload(t *testing.T) {
	cache := scorecache.NewMemoryCache()
	router := newTestRouter(t, Options{Cache: cache, CacheTTL: time.Hour})
	payload := encodePNG(t, 20, 20, checker)

	first := decodeScore(t, postPhoto(t, router, "image/png", payload, nil))
	second := decodeScore(t, postPhoto(t, router, "image/png", payload, nil))

	if first.Cached {
		t.Error("first upload should not be cached")
	}
	if !second.Cached {
		t.Error("second upload should be served from cache")
	}
	if first.Score != second.Score || second.Width != 20 || second.Height != 20 {
		t.Errorf("cached result differs: %+v vs %+v", first.Assessment, second.Assessment)
	}
	if cache.Len() != 1 {
		t.Errorf("cache Len = %d, want 1", cache.Len())
	}
}

func TestScoreUpload_CachedScoreUsesRequestThreshold(t *testing.T) {
	router := newTestRouter(t, Options{})
	payload := encodePNG(t, 20, 20, checker)

	postPhoto(t, router, "image/png", payload, nil)
	out := decodeScore(t, postPhoto(t, router, "image/png", payload, map[string]string{"threshold": "5000000"}))

	if !out.Cached {
		t.Fatal("expected a cache hit")
	}
	if out.Threshold != 5000000 || !out.Blurry {
		t.Errorf("threshold not applied to cached score: %+v", out.Assessment)
	}
}

func TestScoreUpload_DegenerateFromCache(t *testing.T) {
	router := newTestRouter(t, Options{})
	payload := encodePNG(t, 2, 2, checker)

	postPhoto(t, router, "image/png", payload, nil)
	out := decodeScore(t, postPhoto(t, router, "image/png", payload, nil))

	if !out.Cached || !out.Degenerate || !out.Blurry || out.Score != 0 {
		t.Errorf("unexpected degenerate result: %+v", out)
	}
}

func TestScoreUpload_Rejections(t *testing.T) {
	router := newTestRouter(t, Options{MaxUploadBytes: 1024})
	valid := encodePNG(t, 10, 10, flat)

	tests := []struct {
		name        string
		contentType string
		payload     []byte
		fields      map[string]string
		want        int
	}{
		{"too large", "image/png", bytes.Repeat([]byte("a"), 4096), nil, http.StatusRequestEntityTooLarge},
		{"not an image", "text/plain", []byte("hello"), nil, http.StatusUnsupportedMediaType},
		{"declared image but text", "image/png", []byte("hello world"), nil, http.StatusUnsupportedMediaType},
		{"corrupt png", "image/png", valid[:20], nil, http.StatusBadRequest},
		{"bad threshold", "image/png", valid, map[string]string{"threshold": "sharp"}, http.StatusBadRequest},
		{"negative threshold", "image/png", valid, map[string]string{"threshold": "-1"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postPhoto(t, router, tt.contentType, tt.payload, tt.fields)
			if resp.Code != tt.want {
				t.Fatalf("expected status %d, got %d: %s", tt.want, resp.Code, resp.Body.String())
			}
		})
	}
}

func TestScoreUpload_MissingFile(t *testing.T) {
	router := newTestRouter(t, Options{})

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	writer.WriteField("threshold", "50")
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sharpness", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.Code)
	}
}

func TestAssessments_Disabled(t *testing.T) {
	router := newTestRouter(t, Options{})

	for _, path := range []string{"/api/v1/assessments", "/api/v1/assessments/summary"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected status %d, got %d", path, http.StatusServiceUnavailable, resp.Code)
		}
	}
}

func TestAssessments_RecordedUploads(t *testing.T) {
	store := openTestLedger(t)
	router := newTestRouter(t, Options{Store: store})

	postPhoto(t, router, "image/png", encodePNG(t, 20, 20, flat), nil)
	postPhoto(t, router, "image/png", encodePNG(t, 20, 20, checker), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/assessments?limit=10", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.Code)
	}
	var list struct {
		Assessments []ledger.Record `json:"assessments"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(list.Assessments) != 2 {
		t.Fatalf("got %d records, want 2", len(list.Assessments))
	}
	for _, rec := range list.Assessments {
		if rec.Source != ledger.SourceHTTP || rec.Name != "upload.png" {
			t.Errorf("unexpected record: %+v", rec)
		}
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/assessments/summary", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	var sum ledger.Summary
	if err := json.Unmarshal(resp.Body.Bytes(), &sum); err != nil {
		t.Fatalf("failed to decode summary: %v", err)
	}
	if sum.Total != 2 || sum.Blurry != 1 || sum.Sharp != 1 {
		t.Errorf("unexpected summary: %+v", sum)
	}
}

func TestAssessments_BadLimit(t *testing.T) {
	router := newTestRouter(t, Options{Store: openTestLedger(t)})

	for _, limit := range []string{"0", "-3", "many"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/assessments?limit="+limit, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: expected status %d, got %d", limit, http.StatusBadRequest, resp.Code)
		}
	}
}

func TestRequestIDPropagated(t *testing.T) {
	router := newTestRouter(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if got := resp.Header().Get(requestIDHeader); got != "abc-123" {
		t.Errorf("request ID = %q, want abc-123", got)
	}
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) (scorecache.Entry, error) {
	return scorecache.Entry{}, context.DeadlineExceeded
}

func (failingCache) Set(context.Context, string, scorecache.Entry, time.Duration) error {
	return context.DeadlineExceeded
}

func TestScoreUpload_CacheFailureStillScores(t *testing.T) {
	router := newTestRouter(t, Options{Cache: failingCache{}})

	resp := postPhoto(t, router, "image/png", encodePNG(t, 20, 20, checker), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.Code)
	}
	if out := decodeScore(t, resp); out.Cached || out.Blurry {
		t.Errorf("unexpected result: %+v", out)
	}
}
