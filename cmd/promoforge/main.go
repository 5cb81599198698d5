package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"image"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "golang.org/x/image/webp"

	"promoforge/internal/domain"
	"promoforge/internal/genai"
	"promoforge/internal/infra"
	"promoforge/internal/longop"
	"promoforge/internal/orchestrator"
	imageprovider "promoforge/internal/providers/image"
	videoprovider "promoforge/internal/providers/video"
	"promoforge/internal/storage"
	"promoforge/pkg/zip"
)

func main() {
	_ = godotenv.Load()

	var (
		sourcePath = flag.String("source", "", "path to the source image (required)")
		prompt     = flag.String("prompt", "", "descriptive text for the generation")
		purpose    = flag.String("purpose", "", "what the asset promotes, e.g. \"summer sale\"")
		mode       = flag.String("mode", "image", "generation mode: image or video")
		specsArg   = flag.String("specs", "", "comma-separated target sizes, WxH or WxH@genWxgenH (image mode)")
		aspect     = flag.String("aspect", "16:9", "video aspect ratio (video mode)")
		localeArg  = flag.String("locale", "", "locale tag for on-image text")
		bundle     = flag.Bool("zip", false, "bundle image exports into one archive")
	)
	flag.Parse()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *sourcePath == "" {
		logger.Fatal().Msg("promoforge: -source is required")
	}
	source, err := loadSourceImage(*sourcePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("promoforge: failed to load source image")
	}

	locale := *localeArg
	if locale == "" {
		locale = cfg.Locale
	}

	client, err := genai.NewClient(genai.Options{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		Model:      cfg.GeminiModel,
		VideoModel: cfg.GeminiVideoModel,
		HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("promoforge: failed to configure gemini client")
	}
	if !client.HasCredentials() {
		logger.Warn().Str("model", client.Model()).Msg("promoforge: gemini api key missing, using synthetic asset generation")
	}

	store, err := storage.NewFileStore(cfg.OutputDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("promoforge: failed to configure output directory")
	}

	requestID := uuid.NewString()

	switch *mode {
	case "image":
		runImageBatch(ctx, logger, cfg, client, store, source, imageBatchArgs{
			specsArg:  *specsArg,
			prompt:    *prompt,
			purpose:   *purpose,
			locale:    locale,
			requestID: requestID,
			bundle:    *bundle,
		})
	case "video":
		runVideo(ctx, logger, cfg, client, store, source, videoArgs{
			prompt:    *prompt,
			locale:    locale,
			aspect:    *aspect,
			requestID: requestID,
		})
	default:
		logger.Fatal().Str("mode", *mode).Msg("promoforge: unsupported mode")
	}
}

type imageBatchArgs struct {
	specsArg  string
	prompt    string
	purpose   string
	locale    string
	requestID string
	bundle    bool
}

func runImageBatch(ctx context.Context, logger infra.Logger, cfg *infra.Config, client *genai.Client, store *storage.FileStore, source domain.SourceImage, args imageBatchArgs) {
	specs, err := parseSpecs(args.specsArg)
	if err != nil {
		logger.Fatal().Err(err).Msg("promoforge: invalid -specs")
	}

	orch := orchestrator.New(imageprovider.NewGeminiGenerator(client), &logger)
	results, err := orch.Run(ctx, source, specs, orchestrator.Params{
		Prompt:      args.prompt,
		Purpose:     args.purpose,
		Locale:      args.locale,
		RequestID:   args.requestID,
		MaxInFlight: cfg.BatchMaxInFlight,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("promoforge: batch rejected")
	}

	var entries []zip.Entry
	for i := range results {
		task := &results[i]
		if task.State != domain.TaskSucceeded {
			logger.Warn().
				Err(task.Err).
				Str("spec", task.Spec.Key()).
				Msg("promoforge: variant failed")
			continue
		}
		data, err := orchestrator.Export(*task)
		if err != nil {
			logger.Warn().
				Err(err).
				Str("spec", task.Spec.Key()).
				Msg("promoforge: export failed")
			continue
		}
		key := fmt.Sprintf("%s/%s.png", args.requestID, task.Spec.Key())
		saved, err := store.Write(ctx, key, data)
		if err != nil {
			logger.Warn().Err(err).Str("spec", task.Spec.Key()).Msg("promoforge: write failed")
			continue
		}
		logger.Info().
			Str("spec", task.Spec.Key()).
			Str("path", filepath.Join(store.BasePath(), saved)).
			Msg("promoforge: variant exported")
		if args.bundle {
			entries = append(entries, zip.Entry{Name: fmt.Sprintf("%s.png", task.Spec.Key()), Data: data})
		}
	}

	if args.bundle && len(entries) > 0 {
		archive := zip.Archive(entries)
		key := fmt.Sprintf("%s/bundle.zip", args.requestID)
		if saved, err := store.Write(ctx, key, archive); err != nil {
			logger.Warn().Err(err).Msg("promoforge: bundle write failed")
		} else {
			logger.Info().Str("path", filepath.Join(store.BasePath(), saved)).Msg("promoforge: bundle written")
		}
	}

	logger.Info().
		Int("requested", len(results)).
		Int("succeeded", results.Succeeded()).
		Msg("promoforge: batch finished")
}

type videoArgs struct {
	prompt    string
	locale    string
	aspect    string
	requestID string
}

func runVideo(ctx context.Context, logger infra.Logger, cfg *infra.Config, client *genai.Client, store *storage.FileStore, source domain.SourceImage, args videoArgs) {
	capability := videoprovider.NewGeminiCapability(client)
	poller := longop.New(capability, longop.Options{
		Interval:    cfg.PollInterval,
		MaxAttempts: cfg.PollMaxAttempts,
		Logger:      &logger,
	})

	locator, err := poller.Run(ctx, videoprovider.Request{
		Prompt:          args.prompt,
		Locale:          args.locale,
		RequestID:       args.requestID,
		AspectRatio:     args.aspect,
		DurationSeconds: cfg.VideoDurationSecs,
		Source:          source,
	}, func(ev domain.ProgressEvent) {
		logger.Info().
			Int("attempt", ev.Attempt).
			Msg("promoforge: " + ev.Message)
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("promoforge: video generation failed")
	}

	data, mime, err := capability.Fetch(ctx, locator)
	if err != nil {
		logger.Fatal().Err(err).Msg("promoforge: video download failed")
	}
	key := fmt.Sprintf("%s/video%s", args.requestID, storage.ExtensionForMIME(mime))
	saved, err := store.Write(ctx, key, data)
	if err != nil {
		logger.Fatal().Err(err).Msg("promoforge: video write failed")
	}
	logger.Info().
		Str("path", filepath.Join(store.BasePath(), saved)).
		Msg("promoforge: video exported")
}

func parseSpecs(raw string) ([]domain.OutputSpec, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("at least one WxH spec is required")
	}
	parts := strings.Split(raw, ",")
	specs := make([]domain.OutputSpec, 0, len(parts))
	for _, part := range parts {
		spec, err := domain.ParseOutputSpec(part)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func loadSourceImage(path string) (domain.SourceImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.SourceImage{}, err
	}
	source := domain.SourceImage{
		Data:     data,
		MIME:     http.DetectContentType(data),
		Filename: filepath.Base(path),
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		source.Width = cfg.Width
		source.Height = cfg.Height
	}
	return source, nil
}
