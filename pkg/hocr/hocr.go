// Package hocr implements parsing and generation of hOCR data, the
// HTML-based format Tesseract writes its OCR results in.
//
// The object model is flattened to what furigana detection needs:
// Document → Pages → Lines → Words. Lines found inside areas and paragraphs
// are collected in document order.
//
// Main Functions:
//
// - ParseHOCR: Parses hOCR data from HTML into the object model
// - GenerateHOCRDocument: Generates hOCR HTML from the object model
// - ToResult: Converts a document into the OCR result model
// - FromClean: Builds a document from furigana-free lines
package hocr
