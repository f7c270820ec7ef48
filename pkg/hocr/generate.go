package hocr

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// GenerateHOCRDocument creates an hOCR HTML document from the HOCR struct
func GenerateHOCRDocument(doc *HOCR) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("HOCR struct is nil")
	}

	root := element(atom.Html, "", "",
		html.Attribute{Key: "xmlns", Val: "http://www.w3.org/1999/xhtml"})
	if doc.Language != "" {
		root.Attr = append(root.Attr,
			html.Attribute{Key: "xml:lang", Val: doc.Language},
			html.Attribute{Key: "lang", Val: doc.Language})
	}

	head := element(atom.Head, "", "")
	title := element(atom.Title, "", "")
	title.AppendChild(&html.Node{Type: html.TextNode, Data: doc.Title})
	head.AppendChild(title)
	head.AppendChild(meta("http-equiv", "Content-Type", "text/html;charset=utf-8"))
	for _, name := range sortedKeys(doc.Metadata) {
		head.AppendChild(meta("name", name, doc.Metadata[name]))
	}
	root.AppendChild(head)

	body := element(atom.Body, "", "")
	for pi, page := range doc.Pages {
		body.AppendChild(pageNode(page, pi+1))
	}
	root.AppendChild(body)

	var buf bytes.Buffer
	buf.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	buf.WriteString("<!DOCTYPE html PUBLIC \"-//W3C//DTD XHTML 1.0 Transitional//EN\" \"http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd\">\n")
	if err := html.Render(&buf, root); err != nil {
		return "", fmt.Errorf("error rendering hOCR document: %w", err)
	}
	buf.WriteByte('\n')
	return buf.String(), nil
}

func pageNode(page Page, n int) *html.Node {
	id := page.ID
	if id == "" {
		id = fmt.Sprintf("page_%d", n)
	}
	props := []string{"bbox " + formatBBox(page.BBox), "ppageno " + strconv.Itoa(page.PageNumber)}
	if page.ImageName != "" {
		props = append([]string{fmt.Sprintf("image %q", page.ImageName)}, props...)
	}
	div := element(atom.Div, Page{}.Class(), id, html.Attribute{Key: "title", Val: strings.Join(props, "; ")})
	if page.Lang != "" {
		div.Attr = append(div.Attr, html.Attribute{Key: "lang", Val: page.Lang})
	}

	for li, line := range page.Lines {
		lineID := line.ID
		if lineID == "" {
			lineID = fmt.Sprintf("line_%d_%d", n, li+1)
		}
		lineProps := []string{"bbox " + formatBBox(line.BBox)}
		if line.Baseline != "" {
			lineProps = append(lineProps, "baseline "+line.Baseline)
		}
		if line.TextAngle != 0 {
			lineProps = append(lineProps, "textangle "+formatFloat(line.TextAngle))
		}
		span := element(atom.Span, Line{}.Class(), lineID, html.Attribute{Key: "title", Val: strings.Join(lineProps, "; ")})

		for wi, word := range line.Words {
			wordID := word.ID
			if wordID == "" {
				wordID = fmt.Sprintf("word_%d_%d_%d", n, li+1, wi+1)
			}
			title := fmt.Sprintf("bbox %s; x_wconf %s", formatBBox(word.BBox), formatFloat(word.Confidence))
			w := element(atom.Span, Word{}.Class(), wordID, html.Attribute{Key: "title", Val: title})
			if word.Lang != "" {
				w.Attr = append(w.Attr, html.Attribute{Key: "lang", Val: word.Lang})
			}
			w.AppendChild(&html.Node{Type: html.TextNode, Data: word.Text})
			span.AppendChild(w)
			if wi < len(line.Words)-1 {
				span.AppendChild(&html.Node{Type: html.TextNode, Data: " "})
			}
		}
		div.AppendChild(span)
	}
	return div
}

func element(a atom.Atom, class, id string, attrs ...html.Attribute) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	if class != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
	}
	if id != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "id", Val: id})
	}
	n.Attr = append(n.Attr, attrs...)
	return n
}

func meta(key, name, content string) *html.Node {
	return element(atom.Meta, "", "",
		html.Attribute{Key: key, Val: name},
		html.Attribute{Key: "content", Val: content})
}

// formatBBox writes integer pixel coordinates the way Tesseract does
func formatBBox(b BoundingBox) string {
	return strings.Join([]string{formatFloat(b.X1), formatFloat(b.Y1), formatFloat(b.X2), formatFloat(b.Y2)}, " ")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
