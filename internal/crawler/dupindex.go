package crawler

import (
	"sync"

	"go.uber.org/zap"

	"github.com/JakeFAU/siteaudit/internal/hash/sha256"
)

// DuplicateKind names the value a duplicate group was detected on.
type DuplicateKind string

// Duplicate kinds tracked by the index.
const (
	DuplicateTitle       DuplicateKind = "title"
	DuplicateDescription DuplicateKind = "description"
	DuplicateContent     DuplicateKind = "content"
)

// DefaultMaxContentPages bounds how many page bodies are kept for content comparison.
const DefaultMaxContentPages = 5000

// DuplicateGroup is a value shared by two or more URLs.
type DuplicateGroup struct {
	Kind  DuplicateKind `json:"kind"`
	Value string        `json:"value"`
	URLs  []string      `json:"urls"`
}

// Others returns the URLs of the group except url.
func (g DuplicateGroup) Others(url string) []string {
	return without(g.URLs, url)
}

// Hasher computes content digests.
type Hasher interface {
	HashText(text string) string
}

// DuplicateIndex is the cross-page registry of titles, descriptions, content digests and
// hreflang sets. Matching is exact string equality only.
type DuplicateIndex struct {
	mu              sync.Mutex
	titles          *valueIndex
	descriptions    *valueIndex
	contents        *valueIndex
	contentURLs     map[string]struct{}
	maxContentPages int
	capWarned       bool
	hreflang        map[string][]string
	hasher          Hasher
	logger          *zap.Logger
}

// NewDuplicateIndex builds an empty index. maxContentPages <= 0 selects DefaultMaxContentPages.
func NewDuplicateIndex(maxContentPages int, logger *zap.Logger) *DuplicateIndex {
	if maxContentPages <= 0 {
		maxContentPages = DefaultMaxContentPages
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DuplicateIndex{
		titles:          newValueIndex(),
		descriptions:    newValueIndex(),
		contents:        newValueIndex(),
		contentURLs:     make(map[string]struct{}),
		maxContentPages: maxContentPages,
		hreflang:        make(map[string][]string),
		hasher:          sha256.New(),
		logger:          logger,
	}
}

// RegisterTitle associates title with url and returns the other URLs sharing it.
func (d *DuplicateIndex) RegisterTitle(title, url string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.titles.register(title, url)
}

// RegisterDescription associates description with url and returns the other URLs sharing it.
func (d *DuplicateIndex) RegisterDescription(description, url string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.descriptions.register(description, url)
}

// RegisterContent records the digest of a page's normalized content and returns the other
// URLs with identical content. Pages beyond the configured ceiling are not recorded.
func (d *DuplicateIndex) RegisterContent(url, normalizedContent string) []string {
	if normalizedContent == "" {
		return nil
	}
	digest := d.hasher.HashText(normalizedContent)
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, known := d.contentURLs[url]; !known {
		if len(d.contentURLs) >= d.maxContentPages {
			if !d.capWarned {
				d.capWarned = true
				d.logger.Warn("content duplicate ceiling reached; later pages are not compared",
					zap.Int("max_content_pages", d.maxContentPages),
				)
			}
			return nil
		}
		d.contentURLs[url] = struct{}{}
	}
	return d.contents.register(digest, url)
}

// RegisterHreflang replaces the hreflang URL set declared by url.
func (d *DuplicateIndex) RegisterHreflang(url string, hreflangURLs []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hreflang[url] = uniqueStrings(hreflangURLs)
}

// Hreflang returns the hreflang URLs registered for url.
func (d *DuplicateIndex) Hreflang(url string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return cloneStrings(d.hreflang[url])
}

// Groups returns every value of kind shared by at least two URLs, in first-seen order.
func (d *DuplicateIndex) Groups(kind DuplicateKind) []DuplicateGroup {
	d.mu.Lock()
	defer d.mu.Unlock()
	idx := d.index(kind)
	if idx == nil {
		return nil
	}
	var out []DuplicateGroup
	for _, value := range idx.order {
		urls := idx.urls[value]
		if len(urls) < 2 {
			continue
		}
		out = append(out, DuplicateGroup{Kind: kind, Value: value, URLs: cloneStrings(urls)})
	}
	return out
}

func (d *DuplicateIndex) index(kind DuplicateKind) *valueIndex {
	switch kind {
	case DuplicateTitle:
		return d.titles
	case DuplicateDescription:
		return d.descriptions
	case DuplicateContent:
		return d.contents
	default:
		return nil
	}
}

type valueIndex struct {
	order []string
	urls  map[string][]string
}

func newValueIndex() *valueIndex {
	return &valueIndex{urls: make(map[string][]string)}
}

func (v *valueIndex) register(value, url string) []string {
	if value == "" || url == "" {
		return nil
	}
	urls, exists := v.urls[value]
	if !exists {
		v.order = append(v.order, value)
	}
	if !contains(urls, url) {
		urls = append(urls, url)
		v.urls[value] = urls
	}
	return without(urls, url)
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

func without(list []string, value string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if item != value {
			out = append(out, item)
		}
	}
	return out
}

func uniqueStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		if item == "" || contains(out, item) {
			continue
		}
		out = append(out, item)
	}
	return out
}
