package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	"soraprobe/internal/domain"
	"soraprobe/internal/middleware"
	"soraprobe/internal/providers/sora"
)

var jobIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// VideosGenerate validates a typed copy of the body and forwards the
// original bytes, so fields the validator does not know pass through.
func (a *App) VideosGenerate(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, a.maxBody()))
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	var req domain.GenerationRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := domain.Validate(req); err != nil {
		a.error(w, http.StatusBadRequest, err.Error())
		return
	}
	a.Logger.Info().
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Str("model", req.Model).
		Int("prompt_length", domain.PromptLength(req.Prompt)).
		Msg("creating video")

	_, resp, err := a.Videos.Submit(r.Context(), raw)
	a.respond(w, r, resp, err)
}

func (a *App) VideoStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := a.jobID(w, r)
	if !ok {
		return
	}
	status, resp, err := a.Videos.GetGeneration(r.Context(), id)
	if err == nil {
		a.Logger.Debug().Str("job_id", id).Str("status", status.State()).Msg("status relayed")
	}
	a.respond(w, r, resp, err)
}

func (a *App) VideoDownload(w http.ResponseWriter, r *http.Request) {
	id, ok := a.jobID(w, r)
	if !ok {
		return
	}
	upstream, err := a.Videos.OpenContent(r.Context(), id)
	if err != nil {
		a.respond(w, r, nil, err)
		return
	}
	defer upstream.Body.Close()

	ct := upstream.Header.Get("Content-Type")
	if ct == "" {
		ct = "video/mp4"
	}
	w.Header().Set("Content-Type", ct)
	if cl := upstream.Header.Get("Content-Length"); cl != "" {
		w.Header().Set("Content-Length", cl)
	}
	if upstream.StatusCode >= 200 && upstream.StatusCode < 300 {
		w.Header().Set("Content-Disposition", `attachment; filename="sora-video-`+id+`.mp4"`)
	}
	w.WriteHeader(upstream.StatusCode)
	n, err := io.Copy(w, upstream.Body)
	if err != nil {
		a.Logger.Warn().Err(err).Str("job_id", id).Int64("bytes", n).Msg("download interrupted")
		return
	}
	a.Logger.Info().Str("job_id", id).Int("status", upstream.StatusCode).Int64("bytes", n).Msg("download relayed")
}

func (a *App) jobID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if !jobIDPattern.MatchString(id) {
		a.error(w, http.StatusBadRequest, "invalid job id")
		return "", false
	}
	return id, true
}

// respond relays the upstream answer. Calls that never produced a status
// map to 503 when no key is configured and 502 otherwise.
func (a *App) respond(w http.ResponseWriter, r *http.Request, resp *sora.Response, err error) {
	if resp != nil && resp.StatusCode != 0 {
		a.relay(w, resp)
		return
	}
	if err == nil {
		a.error(w, http.StatusBadGateway, "empty upstream response")
		return
	}
	log := a.Logger.Error().Err(err).Str("request_id", middleware.RequestIDFromContext(r.Context()))
	switch {
	case errors.Is(err, domain.ErrMissingAPIKey):
		log.Msg("proxy called without api key")
		a.error(w, http.StatusServiceUnavailable, "api key not configured")
	default:
		log.Msg("upstream request failed")
		a.error(w, http.StatusBadGateway, "upstream request failed")
	}
}
