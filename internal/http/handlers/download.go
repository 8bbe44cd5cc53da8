package handlers

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"qrbatch/internal/domain"
	"qrbatch/internal/middleware"
)

type listResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Files   []domain.OutputFile `json:"files"`
}

type batchDownloadRequest struct {
	FileNames []string `json:"fileNames"`
}

// ListOutputs returns every composite in the output directory, newest first.
func (a *App) ListOutputs(w http.ResponseWriter, r *http.Request) {
	files, err := a.Archiver.List(r.Context())
	if err != nil {
		a.logger(r).Error().Err(err).Msg("download: list failed")
		a.error(w, r, http.StatusInternalServerError, msgListFailed, err)
		return
	}
	a.json(w, http.StatusOK, listResponse{
		Success: true,
		Message: localize(middleware.LocaleFromContext(r.Context()), msgListed, len(files)),
		Files:   files,
	})
}

// DownloadFile streams one output as an attachment.
func (a *App) DownloadFile(w http.ResponseWriter, r *http.Request) {
	name, err := filenameParam(r)
	if err != nil {
		a.error(w, r, http.StatusNotFound, msgFileNotFound, err)
		return
	}
	f, info, err := a.Archiver.Open(name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, r, http.StatusNotFound, msgFileNotFound, err)
			return
		}
		a.logger(r).Error().Err(err).Str("file", name).Msg("download: open failed")
		a.error(w, r, http.StatusInternalServerError, msgDownloadFailed, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", contentTypeFor(name))
	w.Header().Set("Content-Disposition", attachment(name))
	http.ServeContent(w, r, name, info.ModTime, f)
}

// DownloadBatch streams the selected outputs as a single zip.
func (a *App) DownloadBatch(w http.ResponseWriter, r *http.Request) {
	var req batchDownloadRequest
	if err := a.decode(w, r, &req); err != nil {
		a.error(w, r, http.StatusBadRequest, msgNoFilesSelected, err)
		return
	}
	ar, err := a.Archiver.Prepare(req.FileNames)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest):
			a.error(w, r, http.StatusBadRequest, msgNoFilesSelected, err)
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, r, http.StatusNotFound, msgNoFilesExist, err)
		default:
			a.logger(r).Error().Err(err).Msg("download: prepare archive failed")
			a.error(w, r, http.StatusInternalServerError, msgBatchDownloadFail, err)
		}
		return
	}

	// HTTP_WRITE_TIMEOUT_SECONDS bounds whole responses; a large archive
	// streams for as long as the client keeps reading.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		a.logger(r).Warn().Err(err).Msg("download: write deadline kept")
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", attachment(ar.Name()))
	w.WriteHeader(http.StatusOK)
	n, err := ar.Stream(r.Context(), w)
	if err != nil {
		// Headers are already on the wire; the client sees a truncated zip.
		a.logger(r).Error().Err(err).Int("entries", n).Str("archive", ar.Name()).Msg("download: zip stream aborted")
		return
	}
	a.logger(r).Info().Int("entries", n).Str("archive", ar.Name()).Msg("download: zip sent")
}

// filenameParam returns the decoded {filename} segment. chi matches on
// RawPath when the client used a non-default escaping and on the already
// decoded Path otherwise, so only the first case needs unescaping.
func filenameParam(r *http.Request) (string, error) {
	name := chi.URLParam(r, "filename")
	if r.URL.RawPath == "" {
		return name, nil
	}
	return url.PathUnescape(name)
}

func contentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	}
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// attachment builds a Content-Disposition value with an ASCII fallback and an
// RFC 5987 UTF-8 filename.
func attachment(name string) string {
	fallback := strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, name)
	encoded := strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, fallback, encoded)
}
