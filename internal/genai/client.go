// Package genai is a lightweight facade over the Gemini generative API. It
// exposes the three capabilities the coordination core consumes: synchronous
// image generation, long-running video operations (submit + poll), and
// fetching a finished resource by locator. When no API key is configured the
// client produces deterministic synthetic assets so the whole pipeline stays
// exercisable in local and CI environments.
package genai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/rs/zerolog"

	"promoforge/internal/domain"
	"promoforge/internal/infra"
)

const syntheticOperationPrefix = "operations/synthetic-"

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	VideoModel string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client talks to the Gemini API. It is safe for concurrent use; all state is
// immutable after construction.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	videoModel string
	httpClient *http.Client
	logger     *infra.Logger
}

// ImageRequest carries one generation call for one output size.
type ImageRequest struct {
	Prompt     string
	Locale     string
	RequestID  string
	Width      int
	Height     int
	SourceData []byte
	SourceMIME string
}

// ImageAsset is the normalized result of an image generation call.
type ImageAsset struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// VideoRequest carries one long-running video generation submission.
type VideoRequest struct {
	Prompt          string
	Locale          string
	RequestID       string
	SourceData      []byte
	SourceMIME      string
	AspectRatio     string
	DurationSeconds int
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
	FileData   *geminiFileData   `json:"fileData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiFileData struct {
	MimeType string `json:"mimeType,omitempty"`
	FileURI  string `json:"fileUri,omitempty"`
}

type geminiGenerateContentRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiPredictRequest struct {
	Instances  []geminiVideoInstance `json:"instances"`
	Parameters *geminiVideoParams    `json:"parameters,omitempty"`
}

type geminiVideoInstance struct {
	Prompt string            `json:"prompt"`
	Image  *geminiVideoImage `json:"image,omitempty"`
}

type geminiVideoImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded,omitempty"`
	MimeType           string `json:"mimeType,omitempty"`
}

type geminiVideoParams struct {
	AspectRatio     string `json:"aspectRatio,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
}

type geminiOperation struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Error    *struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error,omitempty"`
	Response *struct {
		GenerateVideoResponse *struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri,omitempty"`
				} `json:"video"`
			} `json:"generatedSamples,omitempty"`
		} `json:"generateVideoResponse,omitempty"`
	} `json:"response,omitempty"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Gemini client with sane defaults. Callers may provide
// a nil HTTP client; a reusable one with sensible timeouts will be created.
func NewClient(opts Options) (*Client, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash-image"
	}
	videoModel := opts.VideoModel
	if videoModel == "" {
		videoModel = "veo-3.0-generate-001"
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		videoModel: videoModel,
		httpClient: client,
		logger:     logger,
	}, nil
}

// Model returns the configured image model identifier.
func (c *Client) Model() string {
	return c.model
}

// HasCredentials reports whether real API calls will be made.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// GenerateImage produces one image at (approximately) the requested size. The
// caller is expected to letterbox the result to the exact target dimensions.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (*ImageAsset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if c.apiKey == "" {
		return c.syntheticImage(req), nil
	}

	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: buildImageParts(req),
		}},
	}

	var response geminiGenerateContentResponse
	if err := c.invoke(ctx, http.MethodPost, fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.model)), payload, &response); err != nil {
		return nil, err
	}

	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("decode inline data: %w", err)
			}
			mime := part.InlineData.MimeType
			if mime == "" {
				mime = "image/png"
			}
			w, h := decodeImageDimensions(data)
			if w == 0 || h == 0 {
				w, h = req.Width, req.Height
			}
			c.logger.Debug().
				Str("request_id", req.RequestID).
				Str("model", c.model).
				Int("width", w).
				Int("height", h).
				Msg("genai: generated remote image asset")
			return &ImageAsset{Data: data, MIME: mime, Width: w, Height: h}, nil
		}
	}

	// Text-only candidates mean the model answered instead of drawing.
	return nil, fmt.Errorf("no image content returned")
}

// SubmitVideo starts a long-running video generation operation and returns
// its handle. The handle must be polled until done.
func (c *Client) SubmitVideo(ctx context.Context, req VideoRequest) (domain.OperationHandle, error) {
	if err := ctx.Err(); err != nil {
		return domain.OperationHandle{}, err
	}

	if c.apiKey == "" {
		seed := deterministicSeed(req.RequestID, req.Prompt, req.Locale, c.videoModel)
		c.logger.Debug().
			Str("request_id", req.RequestID).
			Msg("genai: submitted synthetic video operation")
		return domain.OperationHandle{Name: syntheticOperationPrefix + seed}, nil
	}

	instance := geminiVideoInstance{Prompt: buildVideoPrompt(req)}
	if len(req.SourceData) > 0 {
		instance.Image = &geminiVideoImage{
			BytesBase64Encoded: base64.StdEncoding.EncodeToString(req.SourceData),
			MimeType:           req.SourceMIME,
		}
	}
	payload := geminiPredictRequest{
		Instances:  []geminiVideoInstance{instance},
		Parameters: &geminiVideoParams{AspectRatio: req.AspectRatio, DurationSeconds: req.DurationSeconds},
	}

	var op geminiOperation
	if err := c.invoke(ctx, http.MethodPost, fmt.Sprintf("/models/%s:predictLongRunning", url.PathEscape(c.videoModel)), payload, &op); err != nil {
		return domain.OperationHandle{}, err
	}
	if op.Name == "" {
		return domain.OperationHandle{}, fmt.Errorf("operation name missing from response")
	}
	return operationHandle(op), nil
}

// PollOperation re-queries the status of a long-running operation and returns
// a refreshed handle.
func (c *Client) PollOperation(ctx context.Context, handle domain.OperationHandle) (domain.OperationHandle, error) {
	if err := ctx.Err(); err != nil {
		return domain.OperationHandle{}, err
	}

	if seed, ok := strings.CutPrefix(handle.Name, syntheticOperationPrefix); ok {
		return domain.OperationHandle{
			Name:        handle.Name,
			Done:        true,
			ResourceURI: "synthetic://videos/" + seed + ".mp4",
		}, nil
	}

	var op geminiOperation
	if err := c.invoke(ctx, http.MethodGet, "/"+strings.TrimLeft(handle.Name, "/"), nil, &op); err != nil {
		return domain.OperationHandle{}, err
	}
	if op.Name == "" {
		op.Name = handle.Name
	}
	return operationHandle(op), nil
}

// FetchResource downloads the bytes behind a resource locator. Failures are
// reported as transport errors.
func (c *Client) FetchResource(ctx context.Context, uri string) ([]byte, string, error) {
	if seed, ok := strings.CutPrefix(uri, "synthetic://"); ok {
		return renderSyntheticVideo(seed), "video/mp4", nil
	}

	target := uri
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(uri, "/")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: create request: %v", domain.ErrTransport, err)
	}
	if c.apiKey != "" {
		q := req.URL.Query()
		q.Set("key", c.apiKey)
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("%w: status %d: %s", domain.ErrTransport, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: read body: %v", domain.ErrTransport, err)
	}
	return blob, resp.Header.Get("Content-Type"), nil
}

func operationHandle(op geminiOperation) domain.OperationHandle {
	handle := domain.OperationHandle{Name: op.Name, Done: op.Done}
	if op.Error != nil {
		handle.FailureMessage = op.Error.Message
		if handle.FailureMessage == "" {
			handle.FailureMessage = fmt.Sprintf("operation error code %d", op.Error.Code)
		}
	}
	if op.Response != nil && op.Response.GenerateVideoResponse != nil {
		for _, sample := range op.Response.GenerateVideoResponse.GeneratedSamples {
			if sample.Video.URI != "" {
				handle.ResourceURI = sample.Video.URI
				break
			}
		}
	}
	return handle
}

func (c *Client) invoke(ctx context.Context, method, path string, payload any, out any) error {
	endpoint := c.baseURL + path
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	q := req.URL.Query()
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	req.URL.RawQuery = q.Encode()
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr geminiErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("gemini status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		data, _ := io.ReadAll(resp.Body)
		if len(data) > 0 {
			return fmt.Errorf("gemini status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return fmt.Errorf("gemini status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gemini response: %w", err)
	}
	return nil
}

func buildImageParts(req ImageRequest) []geminiPart {
	parts := make([]geminiPart, 0, 2)
	if len(req.SourceData) > 0 {
		mime := req.SourceMIME
		if mime == "" {
			mime = "image/png"
		}
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: mime,
			Data:     base64.StdEncoding.EncodeToString(req.SourceData),
		}})
	}
	parts = append(parts, geminiPart{Text: req.Prompt})
	return parts
}

func buildVideoPrompt(req VideoRequest) string {
	var b strings.Builder
	prompt := strings.TrimSpace(req.Prompt)
	if prompt != "" {
		b.WriteString(prompt)
	}
	if locale := strings.TrimSpace(req.Locale); locale != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Locale: ")
		b.WriteString(locale)
	}
	if b.Len() == 0 {
		b.WriteString("Create a short promotional video")
	}
	return b.String()
}

// syntheticImage renders a deterministic placeholder at the requested size.
// The border ring stays a single uniform color so the downstream letterbox
// fill picks a seamless background.
func (c *Client) syntheticImage(req ImageRequest) *ImageAsset {
	width, height := req.Width, req.Height
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 1024
	}
	seed := deterministicSeed(req.RequestID, req.Prompt, req.Locale, width, height)
	data := renderSyntheticImage(width, height, seed)

	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", c.model).
		Int("width", width).
		Int("height", height).
		Msg("genai: generated synthetic image asset")

	return &ImageAsset{Data: data, MIME: "image/png", Width: width, Height: height}
}

func renderSyntheticImage(width, height int, seed string) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	base := colorFromSeed(seed, 0)
	accent := colorFromSeed(seed, 1)
	draw.Draw(img, img.Bounds(), &image.Uniform{base}, image.Point{}, draw.Src)

	inset := maxInt(8, minInt(width, height)/8)
	subject := image.Rect(inset, inset, width-inset, height-inset)
	if !subject.Empty() {
		draw.Draw(img, subject, &image.Uniform{accent}, image.Point{}, draw.Over)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

func renderSyntheticVideo(seed string) []byte {
	lines := []string{
		"Synthetic video placeholder",
		fmt.Sprintf("Locator: %s", seed),
		"",
		"This placeholder represents where rendered video bytes would be",
		"downloaded once a real API key is configured.",
	}
	return []byte(strings.Join(lines, "\n"))
}

func colorFromSeed(seed string, shift int) color.RGBA {
	if seed == "" {
		seed = "000000"
	}
	doubled := seed + seed
	start := (shift * 6) % len(seed)
	segment := doubled[start : start+6]
	r := mustParseHexByte(segment[0:2])
	g := mustParseHexByte(segment[2:4])
	b := mustParseHexByte(segment[4:6])
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func mustParseHexByte(s string) uint8 {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0
	}
	return uint8(v)
}

func decodeImageDimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

func deterministicSeed(parts ...any) string {
	hasher := sha256.New()
	for _, part := range parts {
		hasher.Write([]byte(fmt.Sprintf("%v", part)))
		hasher.Write([]byte{'|'})
	}
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
