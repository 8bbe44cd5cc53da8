package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"qrbatch/internal/archive"
	"qrbatch/internal/batch"
	"qrbatch/internal/domain"
	"qrbatch/internal/middleware"
)

const defaultMaxBodyBytes = 1 << 20

// App holds the dependencies shared by the HTTP handlers.
type App struct {
	Processor    *batch.Processor
	Archiver     *archive.Archiver
	Logger       zerolog.Logger
	DevMode      bool
	MaxBodyBytes int64
}

func NewApp(processor *batch.Processor, archiver *archive.Archiver, logger zerolog.Logger, devMode bool) *App {
	return &App{
		Processor:    processor,
		Archiver:     archiver,
		Logger:       logger,
		DevMode:      devMode,
		MaxBodyBytes: defaultMaxBodyBytes,
	}
}

// envelope is the shape of every JSON error and the base of every success.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// error writes a localized failure envelope. err is only echoed in
// development.
func (a *App) error(w http.ResponseWriter, r *http.Request, code int, key messageKey, err error) {
	body := envelope{Success: false, Message: localize(middleware.LocaleFromContext(r.Context()), key)}
	if err != nil && a.DevMode {
		body.Error = err.Error()
	}
	a.json(w, code, body)
}

func (a *App) logger(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &a.Logger
}

// statusFor maps domain sentinels to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAmbiguousAsset):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	limit := a.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w: %v", domain.ErrInvalidRequest, err)
	}
	return nil
}

func (a *App) NotFound(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusNotFound, envelope{Success: false, Message: http.StatusText(http.StatusNotFound)})
}

func (a *App) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusMethodNotAllowed, envelope{Success: false, Message: http.StatusText(http.StatusMethodNotAllowed)})
}
