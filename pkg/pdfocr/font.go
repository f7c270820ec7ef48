package pdfocr

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gofont "github.com/go-text/typesetting/font"
)

// DefaultFontFile is the font looked up when no font path is configured
const DefaultFontFile = "NotoSansJP-Regular.ttf"

// defaultAscentRatio is used when the font carries no horizontal extents
const defaultAscentRatio = 0.718

// Font is a TrueType font embedded in the text layer
type Font struct {
	Name        string  // Family name registered with the PDF writer
	Data        []byte  // Raw font file
	AscentRatio float64 // Ascender height as a fraction of the font size

	face *gofont.Face
}

// LoadFont reads and parses a TrueType font file
func LoadFont(path string) (*Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ParseFont(name, data)
}

// ParseFont parses font data and records its metrics
func ParseFont(name string, data []byte) (*Font, error) {
	face, err := gofont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", name, err)
	}

	f := &Font{Name: name, Data: data, AscentRatio: defaultAscentRatio, face: face}
	if upem := float64(face.Upem()); upem > 0 {
		if ext, ok := face.FontHExtents(); ok && ext.Ascender > 0 {
			f.AscentRatio = float64(ext.Ascender) / upem
		}
	}
	return f, nil
}

// Missing counts the runes of text the font has no glyph for. Whitespace is
// never counted.
func (f *Font) Missing(text string) int {
	if f == nil || f.face == nil {
		return 0
	}
	n := 0
	for _, r := range text {
		if r == ' ' || r == '\t' || r == '\n' || r == '　' {
			continue
		}
		if _, ok := f.face.NominalGlyph(r); !ok {
			n++
		}
	}
	return n
}

// FindFont resolves the font path. An explicit path is used as is; otherwise
// DefaultFontFile is looked up in the working directory and next to the
// executable.
func FindFont(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("font not found: %w", err)
		}
		return path, nil
	}

	candidates := []string{DefaultFontFile}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), DefaultFontFile))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("font %s not found in working directory or next to the executable", DefaultFontFile)
}
