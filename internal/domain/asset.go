package domain

import (
	"path/filepath"
	"regexp"
	"strings"
)

// AssetRole enumerates the roles an uploaded image can play in a batch.
type AssetRole string

const (
	AssetRoleBackground AssetRole = "background"
	AssetRoleQRCode     AssetRole = "qr-code"
)

// Asset id prefixes assigned by the upload subsystem.
const (
	BackgroundIDPrefix = "bg_"
	QRCodeIDPrefix     = "qr_"
)

// IDPrefix returns the id prefix used for assets of the role.
func (r AssetRole) IDPrefix() string {
	switch r {
	case AssetRoleBackground:
		return BackgroundIDPrefix
	case AssetRoleQRCode:
		return QRCodeIDPrefix
	default:
		return ""
	}
}

// Asset is a stored image referenced by id. Width and Height stay zero until
// the image has been probed.
type Asset struct {
	ID       string
	Role     AssetRole
	Filename string
	Path     string
	Width    int
	Height   int
}

var timestampPrefix = regexp.MustCompile(`^\d+_`)

// RawIdentifier strips the upload timestamp prefix and the extension from a
// stored filename, leaving the display name typed by the user.
func RawIdentifier(filename string) string {
	name := filepath.Base(filename)
	name = timestampPrefix.ReplaceAllString(name, "")
	if ext := filepath.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

// StripIDPrefix removes the role prefix from an asset id.
func StripIDPrefix(id string, role AssetRole) string {
	return strings.TrimPrefix(strings.TrimSpace(id), role.IDPrefix())
}
