package domain

// Label is the bilingual text printed under a QR code.
type Label struct {
	Chinese string `json:"chinese"`
	English string `json:"english"`
}
