package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"soraprobe/internal/confirm"
	"soraprobe/internal/domain"
	"soraprobe/internal/infra"
	"soraprobe/internal/providers/sora"
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}
	var (
		keyFlag string
		yes     bool
	)
	flag.StringVar(&keyFlag, "key", "", "API key (fallbacks to the first argument, then OPENAI_API_KEY)")
	flag.BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	flag.Parse()

	logger := infra.NewLogger(cfg.AppEnv, true).With().Str("cmd", "endpointcheck").Logger()

	key := strings.TrimSpace(keyFlag)
	if key == "" {
		key = strings.TrimSpace(flag.Arg(0))
	}
	if key == "" {
		key = cfg.APIKey
	}
	if key == "" {
		logger.Error().Err(domain.ErrMissingAPIKey).Msg("no api key provided")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := sora.NewClient(sora.Options{
		APIKey:          key,
		BaseURL:         cfg.BaseURL,
		GenerationsPath: cfg.GenerationsPath,
		Organization:    cfg.Organization,
		Logger:          &logger,
		LightTimeout:    cfg.LightTimeout,
		SubmitTimeout:   cfg.SubmitTimeout,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to build api client")
		return 1
	}

	listModels(ctx, client, logger)

	fmt.Println()
	fmt.Println("WARNING: the next step creates a real video generation job and may be billed.")
	if !yes && !confirm.Ask(os.Stdin, os.Stdout, "Do you want to proceed?") {
		logger.Info().Msg("test cancelled by user")
		return 0
	}
	return submit(ctx, client, logger)
}

func listModels(ctx context.Context, client *sora.Client, logger infra.Logger) {
	models, _, err := client.ListModels(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("error checking models")
		return
	}
	logger.Info().Int("total", len(models.Data)).Msg("models available")

	soraModels := models.Matching("sora")
	if len(soraModels) > 0 {
		for _, id := range soraModels {
			logger.Info().Str("model", id).Msg("found sora model")
		}
		return
	}
	logger.Warn().Msg("no sora models found, searching for video models")
	video := models.Matching("video")
	if len(video) == 0 {
		logger.Warn().Msg("no video-related models found")
		return
	}
	for _, id := range video {
		logger.Info().Str("model", id).Msg("found video model")
	}
}

func submit(ctx context.Context, client *sora.Client, logger infra.Logger) int {
	req := domain.GenerationRequest{
		Model:      domain.ModelSora2,
		Prompt:     "A red ball rolling on a white table",
		Duration:   domain.Int(5),
		Resolution: "1280x720",
	}
	if err := domain.Validate(req); err != nil {
		logger.Error().Err(err).Msg("payload rejected locally")
		return 1
	}
	logger.Info().Str("endpoint", strings.TrimSuffix(client.GenerationURL(""), "/")).Msg("testing sora 2 endpoint")

	job, resp, err := client.CreateGeneration(ctx, req)
	if resp != nil && resp.StatusCode != 0 {
		logger.Info().Int("status", resp.StatusCode).Interface("headers", resp.Header).Msg("response received")
		logger.Debug().Str("body", string(resp.Body)).Msg("response body")
	}
	if err != nil {
		var statusErr *sora.StatusError
		if errors.As(err, &statusErr) {
			logger.Error().Int("status", statusErr.StatusCode).Msg(statusErr.Outcome.Describe())
		} else {
			logger.Error().Err(err).Msg(sora.OutcomeTransportError.Describe())
		}
		return 1
	}

	logger.Info().Msg(sora.OutcomeSuccess.Describe())
	logger.Warn().Msg("this created a real job and may be charged")
	if id := job.ID(); id != "" {
		logger.Info().Str("job_id", id).Str("status_url", client.GenerationURL(id)).Msg("job created, check its status at the url")
	}
	return 0
}
