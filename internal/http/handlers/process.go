package handlers

import (
	"errors"
	"net/http"

	"qrbatch/internal/batch"
	"qrbatch/internal/domain"
	"qrbatch/internal/domain/jsoncfg"
	"qrbatch/internal/middleware"
)

type processRequest struct {
	BackgroundID string             `json:"backgroundId"`
	QRCodeIDs    []string           `json:"qrCodeIds"`
	TextConfig   jsoncfg.TextConfig `json:"textConfig"`
}

type processResponse struct {
	Success        bool                     `json:"success"`
	Message        string                   `json:"message"`
	BatchID        string                   `json:"batchId"`
	Results        []domain.CompositeResult `json:"results"`
	ProcessedCount int                      `json:"processedCount"`
	RequestedCount int                      `json:"requestedCount"`
	Skipped        []domain.SkippedItem     `json:"skipped"`
}

// Process runs one batch synchronously and returns its manifest.
func (a *App) Process(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := a.decode(w, r, &req); err != nil {
		a.error(w, r, http.StatusBadRequest, msgInvalidBody, err)
		return
	}

	manifest, err := a.Processor.Run(r.Context(), batch.Request{
		BackgroundID: req.BackgroundID,
		QRCodeIDs:    req.QRCodeIDs,
		Style:        req.TextConfig,
	})
	if err != nil {
		status := statusFor(err)
		key := msgProcessFailed
		switch {
		case errors.Is(err, domain.ErrInvalidRequest):
			key = msgMissingParams
		case errors.Is(err, domain.ErrNotFound):
			key = msgBackgroundNotFound
		case errors.Is(err, domain.ErrAmbiguousAsset):
			key = msgAmbiguousAsset
		default:
			a.logger(r).Error().Err(err).Msg("process: batch failed")
		}
		a.error(w, r, status, key, err)
		return
	}

	a.json(w, http.StatusOK, processResponse{
		Success:        true,
		Message:        localize(middleware.LocaleFromContext(r.Context()), msgProcessed, manifest.ProcessedCount),
		BatchID:        manifest.BatchID,
		Results:        manifest.Results,
		ProcessedCount: manifest.ProcessedCount,
		RequestedCount: manifest.Requested,
		Skipped:        manifest.Skipped,
	})
}
