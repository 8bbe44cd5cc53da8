package handlers

import (
	"net/http"

	"qrbatch/internal/middleware"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": localize(middleware.LocaleFromContext(r.Context()), msgHealthy),
	})
}
