package document_test

import (
	"errors"
	"testing"

	"github.com/Aloroid/luau-lsp/internal/document"
)

func TestOpenChangeClose(t *testing.T) {
	o := document.NewOverlay()
	uri := "file:///ws/src/Foo.luau"

	if err := o.Open(uri, "luau", 1, "return 1"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if doc, ok := o.Get(uri); !ok || doc.Text != "return 1" {
		t.Fatalf("Get after Open = %v, %v", doc, ok)
	}

	if err := o.Change(uri, 2, "return 2"); err != nil {
		t.Fatalf("Change failed: %v", err)
	}
	doc, _ := o.Get(uri)
	if doc.Text != "return 2" || doc.Version != 2 {
		t.Errorf("Change not applied: %+v", doc)
	}
	if doc.LanguageID != "luau" {
		t.Errorf("Change lost language id: %q", doc.LanguageID)
	}

	if err := o.Close(uri); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, ok := o.Get(uri); ok {
		t.Error("document survived Close")
	}
}

func TestProtocolViolations(t *testing.T) {
	o := document.NewOverlay()
	uri := "file:///ws/a.luau"

	if err := o.Change(uri, 1, "x"); !errors.Is(err, document.ErrNotOpen) {
		t.Errorf("Change before Open = %v, want ErrNotOpen", err)
	}
	if err := o.Close(uri); !errors.Is(err, document.ErrNotOpen) {
		t.Errorf("Close before Open = %v, want ErrNotOpen", err)
	}
	if err := o.Open(uri, "luau", 1, "x"); err != nil {
		t.Fatal(err)
	}
	if err := o.Open(uri, "luau", 1, "x"); !errors.Is(err, document.ErrAlreadyOpen) {
		t.Errorf("double Open = %v, want ErrAlreadyOpen", err)
	}
}

func TestURINormalization(t *testing.T) {
	o := document.NewOverlay()
	if err := o.Open("file:///ws/src/../src/Foo.luau", "luau", 1, "x"); err != nil {
		t.Fatal(err)
	}

	// Lookups through equivalent spellings of the same URI must hit.
	variants := []string{
		"file:///ws/src/Foo.luau",
		"FILE:///ws/src/Foo.luau",
		"file:///ws/src/%46oo.luau",
	}
	for _, uri := range variants {
		if _, ok := o.Get(uri); !ok {
			t.Errorf("Get(%q) missed", uri)
		}
	}
}

func TestURINormalizationDriveLetter(t *testing.T) {
	o := document.NewOverlay()
	if err := o.Open("file:///C:/ws/Foo.luau", "luau", 1, "x"); err != nil {
		t.Fatal(err)
	}

	// Both drive-letter spellings of one file must key one entry.
	if _, ok := o.Get("file:///c:/ws/Foo.luau"); !ok {
		t.Error("lowercase drive spelling missed the open document")
	}
	if err := o.Open("file:///c:/ws/Foo.luau", "luau", 1, "y"); !errors.Is(err, document.ErrAlreadyOpen) {
		t.Errorf("second spelling opened a second entry: %v", err)
	}
}

func TestPathURIRoundTrip(t *testing.T) {
	tests := []struct {
		path string
		uri  string
	}{
		{"/ws/src/Foo.luau", "file:///ws/src/Foo.luau"},
		{"/ws/with space/x.luau", "file:///ws/with%20space/x.luau"},
	}
	for _, tt := range tests {
		if got := document.PathToURI(tt.path); got != tt.uri {
			t.Errorf("PathToURI(%q) = %q, want %q", tt.path, got, tt.uri)
		}
		path, ok := document.URIToPath(tt.uri)
		if !ok || path != tt.path {
			t.Errorf("URIToPath(%q) = %q, %v", tt.uri, path, ok)
		}
	}

	if _, ok := document.URIToPath("untitled:Untitled-1"); ok {
		t.Error("URIToPath accepted a non-file scheme")
	}
}

func TestHandleOwnership(t *testing.T) {
	managed := &document.Document{URI: "file:///a", Text: "live"}
	borrowed := document.Borrow(managed)
	if borrowed.Temporary() || borrowed.Doc() != managed {
		t.Error("Borrow should reference the managed document")
	}

	owned := document.Own("file:///b", "luau", "from disk")
	if !owned.Temporary() || owned.Doc().Text != "from disk" {
		t.Error("Own should carry the disk snapshot")
	}
}
