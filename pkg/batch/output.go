package batch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gardar/furiocr/pkg/furigana"
	"github.com/gardar/furiocr/pkg/ocr"
)

// Document is the reduced JSON written for text and furigana modes
type Document struct {
	SourceFile    string  `json:"source_file"`
	Lines         []Line  `json:"lines"`
	ContentChunks []Chunk `json:"content_chunks"`
}

// Line is one cleaned line; empty lines are kept so indexes match the OCR
type Line struct {
	Page int    `json:"page"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// Chunk holds the text of one page
type Chunk struct {
	PageNumber int    `json:"page_number"`
	Type       string `json:"type"`
	Content    string `json:"content"`
}

// NewDocument builds the reduced document from cleaned pages
func NewDocument(source string, pages [][]furigana.CleanLine) Document {
	doc := Document{
		SourceFile:    source,
		Lines:         []Line{},
		ContentChunks: []Chunk{},
	}
	for _, lines := range pages {
		var text []string
		page := 0
		for _, l := range lines {
			page = l.Page
			doc.Lines = append(doc.Lines, Line{Page: l.Page, Line: l.Index, Text: l.Text})
			if !l.Empty && l.Text != "" {
				text = append(text, l.Text)
			}
		}
		if len(text) > 0 {
			doc.ContentChunks = append(doc.ContentChunks, Chunk{
				PageNumber: page,
				Type:       "page_content",
				Content:    strings.Join(text, "\n"),
			})
		}
	}
	return doc
}

// Marshal encodes the document as indented JSON without HTML escaping
func (d Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeFile writes data to path through a temporary file in the same
// directory, so a failed write never leaves a truncated output behind.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: %v", ocr.ErrWriteFailure, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.part")
	if err != nil {
		return fmt.Errorf("%w: %v", ocr.ErrWriteFailure, err)
	}
	name := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("%w: %s: %v", ocr.ErrWriteFailure, path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("%w: %s: %v", ocr.ErrWriteFailure, path, err)
	}
	if err := os.Chmod(name, 0644); err != nil {
		os.Remove(name)
		return fmt.Errorf("%w: %s: %v", ocr.ErrWriteFailure, path, err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("%w: %s: %v", ocr.ErrWriteFailure, path, err)
	}
	return nil
}
