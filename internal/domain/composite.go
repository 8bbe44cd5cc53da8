package domain

import (
	"time"

	"qrbatch/internal/domain/jsoncfg"
)

// CompositeJob is the unit of work for one output image.
type CompositeJob struct {
	BatchID    string
	Index      int
	Background Asset
	QRCode     Asset
	Identifier string
	Label      Label
	Style      jsoncfg.TextConfig
}

// CompositeResult describes one successfully written output image.
type CompositeResult struct {
	ID             string `json:"id"`
	SourceAssetID  string `json:"sourceAssetId"`
	OriginalName   string `json:"originalQrName"`
	EnglishName    string `json:"englishName"`
	OutputFilename string `json:"filename"`
	OutputPath     string `json:"-"`
	DownloadRef    string `json:"downloadUrl"`
	ByteSize       int64  `json:"byteSize"`
}

// SkipStage tells where in the pipeline an item was dropped.
type SkipStage string

const (
	SkipStageResolve  SkipStage = "resolve"
	SkipStageCompose  SkipStage = "compose"
	SkipStageCanceled SkipStage = "canceled"
)

// SkippedItem records why a requested QR code produced no output.
type SkippedItem struct {
	Index   int       `json:"index"`
	AssetID string    `json:"assetId"`
	Stage   SkipStage `json:"stage"`
	Reason  string    `json:"reason"`
}

// BatchManifest lists the outputs of one batch in request order.
type BatchManifest struct {
	BatchID        string            `json:"batchId"`
	Requested      int               `json:"requestedCount"`
	Results        []CompositeResult `json:"results"`
	Skipped        []SkippedItem     `json:"skipped"`
	ProcessedCount int               `json:"processedCount"`
}

// Partial reports whether at least one requested item was skipped.
func (m BatchManifest) Partial() bool {
	return len(m.Skipped) > 0
}

// OutputFile is a persisted composite on the output store.
type OutputFile struct {
	Filename    string    `json:"filename"`
	DownloadRef string    `json:"downloadUrl"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
}
