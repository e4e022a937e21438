// Package document tracks editor-managed text documents. While a file is
// open in the editor its buffer here is authoritative over disk.
package document

import (
	"net/url"
	"path/filepath"
	"strings"
)

// Document is the in-memory state of one text document.
type Document struct {
	URI        string // normalized
	LanguageID string
	Version    int32
	Text       string
}

// Handle pairs a document with its ownership. A borrowed handle points
// into the managed set; an owned handle was materialized from disk for a
// single call and must never be cached, or stale disk snapshots would
// shadow future edits.
type Handle struct {
	doc       *Document
	temporary bool
}

// Borrow wraps a managed document.
func Borrow(doc *Document) Handle {
	return Handle{doc: doc}
}

// Own creates a call-scoped handle around content read from disk.
func Own(uri, languageID, text string) Handle {
	return Handle{
		doc:       &Document{URI: uri, LanguageID: languageID, Text: text},
		temporary: true,
	}
}

// Doc returns the underlying document, which may be nil for a zero Handle.
func (h Handle) Doc() *Document {
	return h.doc
}

// Temporary reports whether the handle owns a disk snapshot rather than
// borrowing from the managed set.
func (h Handle) Temporary() bool {
	return h.temporary
}

// NormalizeURI canonicalizes a document URI so that every map keyed by URI
// agrees on identity: percent-encoding decoded once, separators as forward
// slashes, scheme and host lowercased, dot segments collapsed.
func NormalizeURI(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path != "" {
		u.Path = lowerDrive(filepath.ToSlash(filepath.Clean(u.Path)))
	}
	u.RawPath = ""
	return u.String()
}

// lowerDrive lowercases a leading Windows drive-letter segment, so
// file:///C:/ws and file:///c:/ws key the same document. Paths without a
// drive letter pass through untouched.
func lowerDrive(p string) string {
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' && p[1] >= 'A' && p[1] <= 'Z' {
		return "/" + string(p[1]+'a'-'A') + p[2:]
	}
	return p
}

// URIToPath converts a file URI into a real filesystem path.
func URIToPath(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "file" {
		return "", false
	}
	return filepath.ToSlash(filepath.Clean(u.Path)), true
}

// PathToURI converts a real filesystem path into a file URI.
func PathToURI(path string) string {
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(filepath.Clean(path)),
	}
	return u.String()
}
