// Package document wraps goquery to expose the page signals the checks need.
package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HeadingElement is an h1-h6 element in document order.
type HeadingElement struct {
	Level int
	Text  string
}

// AlternateLink is a <link rel="alternate" hreflang> entry.
type AlternateLink struct {
	Lang string
	Href string
}

// Image is an <img> element.
type Image struct {
	Src    string
	Alt    string
	HasAlt bool
}

// Document is a parsed HTML page.
type Document struct {
	doc *goquery.Document
}

// Parser implements the crawler's page parser on top of goquery.
type Parser struct{}

// NewParser returns a goquery backed parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses body as HTML.
func (Parser) Parse(body []byte) (*Document, error) {
	return Parse(body)
}

// Parse parses body as HTML.
func Parse(body []byte) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{doc: doc}, nil
}

// MustParse parses a literal HTML string and panics on error. Intended for tests.
func MustParse(html string) *Document {
	doc, err := Parse([]byte(html))
	if err != nil {
		panic(err)
	}
	return doc
}

// HasTitle reports whether the page declares a <title> element.
func (d *Document) HasTitle() bool {
	return d.doc.Find("title").Length() > 0
}

// Title returns the trimmed text of the first <title> element.
func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// Meta returns the content of the first <meta name=...> matching name, case-insensitively.
func (d *Document) Meta(name string) (string, bool) {
	var (
		content string
		found   bool
	)
	d.doc.Find("meta[name]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.EqualFold(strings.TrimSpace(s.AttrOr("name", "")), name) {
			return true
		}
		content = strings.TrimSpace(s.AttrOr("content", ""))
		found = true
		return false
	})
	return content, found
}

// Description returns the meta description.
func (d *Document) Description() string {
	desc, _ := d.Meta("description")
	return desc
}

// HasViewport reports whether a viewport meta tag is present.
func (d *Document) HasViewport() bool {
	_, ok := d.Meta("viewport")
	return ok
}

// Headings returns every h1-h6 element in document order.
func (d *Document) Headings() []HeadingElement {
	var out []HeadingElement
	d.doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		name := goquery.NodeName(s)
		if len(name) != 2 {
			return
		}
		level := int(name[1] - '0')
		out = append(out, HeadingElement{Level: level, Text: collapse(s.Text())})
	})
	return out
}

// Links returns the raw href of every anchor.
func (d *Document) Links() []string {
	var out []string
	d.doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href := strings.TrimSpace(s.AttrOr("href", "")); href != "" {
			out = append(out, href)
		}
	})
	return out
}

// Alternates returns the hreflang alternate links.
func (d *Document) Alternates() []AlternateLink {
	var out []AlternateLink
	d.doc.Find(`link[rel~="alternate"][hreflang]`).Each(func(_ int, s *goquery.Selection) {
		out = append(out, AlternateLink{
			Lang: strings.TrimSpace(s.AttrOr("hreflang", "")),
			Href: strings.TrimSpace(s.AttrOr("href", "")),
		})
	})
	return out
}

// Canonical returns the canonical link href, if any.
func (d *Document) Canonical() string {
	return strings.TrimSpace(d.doc.Find(`link[rel~="canonical"]`).First().AttrOr("href", ""))
}

// Lang returns the lang attribute of the <html> element.
func (d *Document) Lang() string {
	return strings.TrimSpace(d.doc.Find("html").First().AttrOr("lang", ""))
}

// Images returns every <img> element.
func (d *Document) Images() []Image {
	var out []Image
	d.doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		alt, hasAlt := s.Attr("alt")
		out = append(out, Image{
			Src:    s.AttrOr("src", ""),
			Alt:    alt,
			HasAlt: hasAlt && strings.TrimSpace(alt) != "",
		})
	})
	return out
}

// Text returns the visible body text with whitespace collapsed. Script, style and
// template content is excluded.
func (d *Document) Text() string {
	body := d.doc.Find("body")
	if body.Length() == 0 {
		body = d.doc.Selection
	}
	clone := body.Clone()
	clone.Find("script, style, noscript, template").Remove()
	return collapse(clone.Text())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
