package document

import (
	"errors"
	"sync"
)

// Predefined errors returned by overlay operations.
var (
	ErrNotOpen     = errors.New("document: not open")
	ErrAlreadyOpen = errors.New("document: already open")
)

// Overlay is the managed-document set. Mutations arrive from the single
// editor event stream in order; reads may run concurrently from any
// analysis pass.
type Overlay struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewOverlay creates an empty Overlay.
func NewOverlay() *Overlay {
	return &Overlay{docs: make(map[string]*Document)}
}

// Get returns the managed document for a URI, if the file is open.
func (o *Overlay) Get(uri string) (*Document, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	doc, ok := o.docs[NormalizeURI(uri)]
	return doc, ok
}

// Open inserts a document reported open by the editor.
func (o *Overlay) Open(uri, languageID string, version int32, text string) error {
	key := NormalizeURI(uri)
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.docs[key]; exists {
		return ErrAlreadyOpen
	}
	o.docs[key] = &Document{
		URI:        key,
		LanguageID: languageID,
		Version:    version,
		Text:       text,
	}
	return nil
}

// Change replaces an open document's content. A change for a document
// that was never opened is a protocol violation and is rejected.
func (o *Overlay) Change(uri string, version int32, text string) error {
	key := NormalizeURI(uri)
	o.mu.Lock()
	defer o.mu.Unlock()
	old, exists := o.docs[key]
	if !exists {
		return ErrNotOpen
	}
	// Documents are replaced, not mutated, so borrowed handles held by a
	// concurrent reader stay internally consistent.
	o.docs[key] = &Document{
		URI:        key,
		LanguageID: old.LanguageID,
		Version:    version,
		Text:       text,
	}
	return nil
}

// Close removes a document from the managed set; disk becomes the source
// of truth again.
func (o *Overlay) Close(uri string) error {
	key := NormalizeURI(uri)
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.docs[key]; !exists {
		return ErrNotOpen
	}
	delete(o.docs, key)
	return nil
}
