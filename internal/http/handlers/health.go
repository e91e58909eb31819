package handlers

import (
	"net/http"
)

type healthResponse struct {
	Status           string `json:"status"`
	APIKeyConfigured bool   `json:"apiKeyConfigured"`
	Server           string `json:"server"`
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, healthResponse{
		Status:           "ok",
		APIKeyConfigured: a.Videos != nil && a.Videos.HasCredentials(),
		Server:           "Sora 2 Proxy",
	})
}
