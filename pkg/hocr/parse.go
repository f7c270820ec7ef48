package hocr

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/htmlindex"
)

var charsetPattern = regexp.MustCompile(`(?i)charset\s*=\s*["']?([A-Za-z0-9_\-:.]+)`)

// ParseHOCR converts raw hOCR data into a structured HOCR object.
func ParseHOCR(data []byte) (HOCR, error) {
	var result HOCR
	result.Metadata = make(map[string]string)

	decoded, err := toUTF8(data)
	if err != nil {
		return result, err
	}

	doc, err := html.Parse(bytes.NewReader(decoded))
	if err != nil {
		return result, err
	}

	// Extract document metadata from the head section
	extractDocumentMeta(&result, doc)

	// Find and process all ocr_page elements
	var findPages func(*html.Node)
	findPages = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "ocr_page") {
			result.Pages = append(result.Pages, processPage(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findPages(c)
		}
	}
	findPages(doc)

	if len(result.Pages) == 0 {
		return result, fmt.Errorf("no ocr_page elements found in HOCR data")
	}
	return result, nil
}

// toUTF8 decodes the document using the charset declared in its meta tag.
// Tesseract writes UTF-8; older tools sometimes declared Shift_JIS or Latin-1.
func toUTF8(data []byte) ([]byte, error) {
	m := charsetPattern.FindSubmatch(data)
	if m == nil {
		return data, nil
	}
	name := strings.ToLower(string(m[1]))
	if name == "utf-8" || name == "utf8" {
		return data, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", name, err)
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return decoded, nil
}

// ParseTitle breaks down an hOCR title attribute into its components
// Example input: "bbox 100 200 300 400; x_wconf 95"
func ParseTitle(title string) map[string][]string {
	result := make(map[string][]string)
	for _, part := range strings.Split(title, ";") {
		items := strings.Fields(part)
		if len(items) > 0 {
			result[items[0]] = items[1:]
		}
	}
	return result
}

// ParseBoundingBoxFromTitle extracts a bounding box from a title string
// Returns nil if extraction fails
func ParseBoundingBoxFromTitle(title string) *BoundingBox {
	bbox, ok := ParseTitle(title)["bbox"]
	if !ok || len(bbox) < 4 {
		return nil
	}
	var v [4]float64
	for i := range v {
		f, err := strconv.ParseFloat(bbox[i], 64)
		if err != nil {
			return nil
		}
		v[i] = f
	}
	result := NewBoundingBox(v[0], v[1], v[2], v[3])
	return &result
}

// extractDocumentMeta extracts document-level metadata from the head section
func extractDocumentMeta(result *HOCR, doc *html.Node) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "html":
				if lang := getAttrVal(n, "lang"); lang != "" {
					result.Language = lang
				} else if lang := getAttrVal(n, "xml:lang"); lang != "" {
					result.Language = lang
				}
			case "title":
				if n.FirstChild != nil {
					result.Title = n.FirstChild.Data
				}
			case "meta":
				name, content := getAttrVal(n, "name"), getAttrVal(n, "content")
				if strings.HasPrefix(name, "ocr-") && content != "" {
					result.Metadata[name] = content
				}
			case "body":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
}

// processPage extracts page information and every line below it in document
// order. Words outside any line become a line of their own.
func processPage(n *html.Node) Page {
	page := Page{
		ID:   getAttrVal(n, "id"),
		Lang: getAttrVal(n, "lang"),
	}

	title := getAttrVal(n, "title")
	if bbox := ParseBoundingBoxFromTitle(title); bbox != nil {
		page.BBox = *bbox
	}
	props := ParseTitle(title)
	if image, ok := props["image"]; ok && len(image) > 0 {
		page.ImageName = strings.Trim(image[0], `"`)
	}
	if ppageno, ok := props["ppageno"]; ok && len(ppageno) > 0 {
		page.PageNumber, _ = strconv.Atoi(ppageno[0])
	}

	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.ElementNode {
			switch {
			case isLine(node):
				page.Lines = append(page.Lines, processLine(node))
				return
			case hasClass(node, "ocrx_word"):
				word := processWord(node)
				page.Lines = append(page.Lines, Line{ID: word.ID, Lang: word.Lang, BBox: word.BBox, Words: []Word{word}})
				return
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c)
	}
	return page
}

// processLine extracts line information and its words
func processLine(n *html.Node) Line {
	line := Line{
		ID:   getAttrVal(n, "id"),
		Lang: getAttrVal(n, "lang"),
	}

	title := getAttrVal(n, "title")
	if bbox := ParseBoundingBoxFromTitle(title); bbox != nil {
		line.BBox = *bbox
	}
	props := ParseTitle(title)
	if baseline, ok := props["baseline"]; ok && len(baseline) > 0 {
		line.Baseline = strings.Join(baseline, " ")
	}
	if angle, ok := props["textangle"]; ok && len(angle) > 0 {
		line.TextAngle, _ = strconv.ParseFloat(angle[0], 64)
	}

	var extractWords func(*html.Node)
	extractWords = func(node *html.Node) {
		if node.Type == html.ElementNode && hasClass(node, "ocrx_word") {
			line.Words = append(line.Words, processWord(node))
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			extractWords(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractWords(c)
	}
	return line
}

// processWord extracts a word's text and properties
func processWord(n *html.Node) Word {
	word := Word{
		ID:   getAttrVal(n, "id"),
		Lang: getAttrVal(n, "lang"),
		Text: extractTextContent(n),
	}

	title := getAttrVal(n, "title")
	if bbox := ParseBoundingBoxFromTitle(title); bbox != nil {
		word.BBox = *bbox
	}
	props := ParseTitle(title)
	if conf, ok := props["x_wconf"]; ok && len(conf) > 0 {
		word.Confidence, _ = strconv.ParseFloat(conf[0], 64)
	}
	if lang, ok := props["lang"]; ok && len(lang) > 0 && word.Lang == "" {
		word.Lang = lang[0]
	}
	return word
}

// extractTextContent gets all text from a node and its children
func extractTextContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}

	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		text.WriteString(extractTextContent(c))
	}
	return strings.TrimSpace(text.String())
}

func isLine(n *html.Node) bool {
	for _, class := range lineClasses {
		if hasClass(n, class) {
			return true
		}
	}
	return false
}

// hasClass reports whether class is one of the node's classes
func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(getAttrVal(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// Get the value of a specific attribute from a node
func getAttrVal(n *html.Node, attrName string) string {
	for _, attr := range n.Attr {
		if attr.Key == attrName {
			return attr.Val
		}
	}
	return ""
}
