package textlayer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// ErrNoFont is returned when neither the requested family nor the fallback
// can produce a face.
var ErrNoFont = errors.New("textlayer: no usable font")

type family struct {
	regular *opentype.Font
	bold    *opentype.Font
}

// FontLibrary holds parsed fonts keyed by family name. Parsed fonts are
// immutable, so faces can be created from several goroutines at once.
type FontLibrary struct {
	mu       sync.RWMutex
	families map[string]family
	fallback family
}

// NewFontLibrary returns a library whose fallback is the Go sans-serif pair.
func NewFontLibrary() (*FontLibrary, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("textlayer: parse fallback regular: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("textlayer: parse fallback bold: %w", err)
	}
	return &FontLibrary{
		families: make(map[string]family),
		fallback: family{regular: regular, bold: bold},
	}, nil
}

// Register parses font data for a family. bold may be nil.
func (l *FontLibrary) Register(name string, regular, bold []byte) error {
	key := familyKey(name)
	if key == "" {
		return errors.New("textlayer: family name is required")
	}
	reg, err := parseFont(regular)
	if err != nil {
		return fmt.Errorf("textlayer: parse %s: %w", name, err)
	}
	fam := family{regular: reg}
	if len(bold) > 0 {
		b, err := parseFont(bold)
		if err != nil {
			return fmt.Errorf("textlayer: parse %s bold: %w", name, err)
		}
		fam.bold = b
	}
	l.mu.Lock()
	l.families[key] = fam
	l.mu.Unlock()
	return nil
}

// LoadFile registers a family from font files on disk. boldPath may be empty.
func (l *FontLibrary) LoadFile(name, regularPath, boldPath string) error {
	regular, err := os.ReadFile(regularPath)
	if err != nil {
		return fmt.Errorf("textlayer: read font: %w", err)
	}
	var bold []byte
	if strings.TrimSpace(boldPath) != "" {
		if bold, err = os.ReadFile(boldPath); err != nil {
			return fmt.Errorf("textlayer: read bold font: %w", err)
		}
	}
	return l.Register(name, regular, bold)
}

// LoadDir registers every .ttf, .otf and .ttc file in dir under its base name
// and returns the number of families loaded. Unparseable files are skipped.
func (l *FontLibrary) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("textlayer: read font dir: %w", err)
	}
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".ttf" && ext != ".otf" && ext != ".ttc" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if err := l.LoadFile(name, filepath.Join(dir, entry.Name()), ""); err != nil {
			continue
		}
		loaded++
	}
	return loaded, nil
}

// Has reports whether a family is registered.
func (l *FontLibrary) Has(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.families[familyKey(name)]
	return ok
}

// Face returns a new face for the family. synthetic is true when bold was
// requested but only a regular font exists. Callers own the returned face.
func (l *FontLibrary) Face(name string, size float64, bold bool) (face font.Face, synthetic bool, err error) {
	l.mu.RLock()
	fam, ok := l.families[familyKey(name)]
	l.mu.RUnlock()
	if !ok || fam.regular == nil {
		fam = l.fallback
	}
	f := fam.regular
	if bold {
		if fam.bold != nil {
			f = fam.bold
		} else {
			synthetic = true
		}
	}
	if f == nil {
		return nil, false, ErrNoFont
	}
	face, err = opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, false, fmt.Errorf("textlayer: create face: %w", err)
	}
	return face, synthetic, nil
}

func parseFont(data []byte) (*opentype.Font, error) {
	if len(data) == 0 {
		return nil, errors.New("empty font data")
	}
	if f, err := opentype.Parse(data); err == nil {
		return f, nil
	}
	coll, err := opentype.ParseCollection(data)
	if err != nil {
		return nil, err
	}
	if coll.NumFonts() == 0 {
		return nil, errors.New("empty font collection")
	}
	return coll.Font(0)
}

func familyKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
