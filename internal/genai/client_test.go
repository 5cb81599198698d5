package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"promoforge/internal/domain"
)

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func newTestClient(t *testing.T, apiKey, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(Options{APIKey: apiKey, BaseURL: baseURL})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	return client
}

func TestGenerateImageRemote(t *testing.T) {
	payload := testPNG(t, 8, 6)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Fatalf("key query param = %q", got)
		}
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var req geminiGenerateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		parts := req.Contents[0].Parts
		if len(parts) != 2 || parts[0].InlineData == nil {
			t.Fatalf("expected inline source + text parts, got %+v", parts)
		}
		if !strings.Contains(parts[1].Text, "sunset banner") {
			t.Fatalf("prompt missing from request: %q", parts[1].Text)
		}
		resp := geminiGenerateContentResponse{Candidates: []geminiCandidate{{
			Content: geminiContent{Parts: []geminiPart{{
				InlineData: &geminiInlineData{
					MimeType: "image/png",
					Data:     base64.StdEncoding.EncodeToString(payload),
				},
			}}},
		}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer ts.Close()

	client := newTestClient(t, "test-key", ts.URL)
	asset, err := client.GenerateImage(context.Background(), ImageRequest{
		Prompt:     "sunset banner",
		RequestID:  "req-1",
		Width:      512,
		Height:     512,
		SourceData: testPNG(t, 4, 4),
		SourceMIME: "image/png",
	})
	if err != nil {
		t.Fatalf("GenerateImage error: %v", err)
	}
	if !bytes.Equal(asset.Data, payload) {
		t.Fatalf("payload mismatch")
	}
	if asset.Width != 8 || asset.Height != 6 {
		t.Fatalf("dimensions = %dx%d, want 8x6", asset.Width, asset.Height)
	}
	if asset.MIME != "image/png" {
		t.Fatalf("mime = %q", asset.MIME)
	}
}

func TestGenerateImageTextOnlyResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := geminiGenerateContentResponse{Candidates: []geminiCandidate{{
			Content: geminiContent{Parts: []geminiPart{{Text: "I cannot draw that."}}},
		}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer ts.Close()

	client := newTestClient(t, "test-key", ts.URL)
	if _, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "x"}); err == nil {
		t.Fatalf("expected error for text-only response")
	}
}

func TestGenerateImageErrorEnvelope(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": 400, "message": "prompt blocked"}})
	}))
	defer ts.Close()

	client := newTestClient(t, "test-key", ts.URL)
	_, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "x"})
	if err == nil || !strings.Contains(err.Error(), "prompt blocked") {
		t.Fatalf("err = %v, want error envelope message", err)
	}
}

func TestSyntheticImageDeterministic(t *testing.T) {
	client := newTestClient(t, "", "")
	req := ImageRequest{Prompt: "banner", RequestID: "req-1", Width: 96, Height: 64}

	first, err := client.GenerateImage(context.Background(), req)
	if err != nil {
		t.Fatalf("GenerateImage error: %v", err)
	}
	second, err := client.GenerateImage(context.Background(), req)
	if err != nil {
		t.Fatalf("second GenerateImage error: %v", err)
	}
	if !bytes.Equal(first.Data, second.Data) {
		t.Fatalf("synthetic assets differ between invocations")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(first.Data))
	if err != nil {
		t.Fatalf("decode synthetic asset: %v", err)
	}
	if cfg.Width != 96 || cfg.Height != 64 {
		t.Fatalf("synthetic asset is %dx%d, want 96x64", cfg.Width, cfg.Height)
	}
}

func TestSyntheticVideoOperationLifecycle(t *testing.T) {
	client := newTestClient(t, "", "")

	handle, err := client.SubmitVideo(context.Background(), VideoRequest{Prompt: "promo", RequestID: "req-1"})
	if err != nil {
		t.Fatalf("SubmitVideo error: %v", err)
	}
	if handle.Done {
		t.Fatalf("synthetic operation should start pending")
	}

	refreshed, err := client.PollOperation(context.Background(), handle)
	if err != nil {
		t.Fatalf("PollOperation error: %v", err)
	}
	if !refreshed.Done || refreshed.ResourceURI == "" {
		t.Fatalf("refreshed handle = %+v, want done with locator", refreshed)
	}

	data, mime, err := client.FetchResource(context.Background(), refreshed.ResourceURI)
	if err != nil {
		t.Fatalf("FetchResource error: %v", err)
	}
	if len(data) == 0 || mime != "video/mp4" {
		t.Fatalf("fetched %d bytes with mime %q", len(data), mime)
	}
}

func TestPollOperationRemote(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/operations/op-42" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"name": "operations/op-42",
			"done": true,
			"response": {"generateVideoResponse": {"generatedSamples": [{"video": {"uri": "files/video-42"}}]}}
		}`))
	}))
	defer ts.Close()

	client := newTestClient(t, "test-key", ts.URL)
	handle, err := client.PollOperation(context.Background(), domain.OperationHandle{Name: "operations/op-42"})
	if err != nil {
		t.Fatalf("PollOperation error: %v", err)
	}
	if !handle.Done || handle.ResourceURI != "files/video-42" {
		t.Fatalf("handle = %+v", handle)
	}
}

func TestPollOperationRemoteFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name": "operations/op-9", "done": true, "error": {"code": 13, "message": "render failed"}}`))
	}))
	defer ts.Close()

	client := newTestClient(t, "test-key", ts.URL)
	handle, err := client.PollOperation(context.Background(), domain.OperationHandle{Name: "operations/op-9"})
	if err != nil {
		t.Fatalf("PollOperation error: %v", err)
	}
	if !handle.Done || handle.FailureMessage != "render failed" {
		t.Fatalf("handle = %+v, want done with failure message", handle)
	}
}

func TestSubmitVideoRemote(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":predictLongRunning") {
			t.Fatalf("path = %s", r.URL.Path)
		}
		var req geminiPredictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Instances) != 1 || req.Instances[0].Image == nil {
			t.Fatalf("expected one instance with source image, got %+v", req.Instances)
		}
		_, _ = w.Write([]byte(`{"name": "operations/op-7"}`))
	}))
	defer ts.Close()

	client := newTestClient(t, "test-key", ts.URL)
	handle, err := client.SubmitVideo(context.Background(), VideoRequest{
		Prompt:     "promo clip",
		SourceData: testPNG(t, 4, 4),
		SourceMIME: "image/png",
	})
	if err != nil {
		t.Fatalf("SubmitVideo error: %v", err)
	}
	if handle.Name != "operations/op-7" || handle.Done {
		t.Fatalf("handle = %+v", handle)
	}
}

func TestFetchResourceTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer ts.Close()

	client := newTestClient(t, "test-key", ts.URL)
	if _, _, err := client.FetchResource(context.Background(), ts.URL+"/files/missing"); !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
}
