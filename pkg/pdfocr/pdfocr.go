// Package pdfocr rebuilds scanned PDFs with a clean, invisible OCR text layer.
//
// The source PDF is reduced to its page images, which removes whatever text
// layer it carried. Each page is redrawn at its original size and, when OCR
// data is available, the furigana-free text of every line is placed over the
// image on an optional content layer. This text is:
// - Fully searchable
// - Selectable with mouse drag operations
// - Toggleable in compatible PDF readers
//
// Main Functions:
//
// - Rebuild: page images plus a text layer built from clean lines
// - Strip: page images only
// - ExtractPageImages: page sizes and the scanned image of each page
// - DetectTextLayers: report layers and fonts already present in a PDF
// - LoadFont: load the TrueType font used for the text layer
package pdfocr
