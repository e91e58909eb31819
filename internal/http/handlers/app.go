package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"soraprobe/internal/domain"
	"soraprobe/internal/infra"
	"soraprobe/internal/providers/sora"
)

// VideoAPI is what the proxy needs from the upstream client.
type VideoAPI interface {
	HasCredentials() bool
	Submit(ctx context.Context, body json.RawMessage) (domain.JobStatus, *sora.Response, error)
	GetGeneration(ctx context.Context, id string) (domain.JobStatus, *sora.Response, error)
	OpenContent(ctx context.Context, id string) (*http.Response, error)
}

type App struct {
	Videos VideoAPI
	Logger *infra.Logger
	// MaxBodyBytes caps inbound JSON bodies; zero means 1 MiB.
	MaxBodyBytes int64
}

func NewApp(videos VideoAPI, logger *infra.Logger) *App {
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	return &App{Videos: videos, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"error": msg})
}

// relay writes an upstream JSON body through unchanged.
func (a *App) relay(w http.ResponseWriter, resp *sora.Response) {
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/json"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}

func (a *App) maxBody() int64 {
	if a.MaxBodyBytes > 0 {
		return a.MaxBodyBytes
	}
	return 1 << 20
}
