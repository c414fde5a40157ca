package styleattr_test

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/kressler/docproof/internal/styleattr"
)

func TestParseAndGet(t *testing.T) {
	s := styleattr.Parse("color: red; background-color: rgb(1, 2, 3) !important")

	if got := s.Get("color"); got != "red" {
		t.Fatalf("color = %q, want red", got)
	}
	if got := s.Get("background-color"); got != "rgb(1, 2, 3)" {
		t.Fatalf("background-color = %q", got)
	}
	if s.Has("padding") {
		t.Fatal("padding should be unset")
	}
}

func TestParseMalformed(t *testing.T) {
	// Garbage never panics or errors; it degrades to an empty style.
	s := styleattr.Parse("<<<not css>>>")
	if s.Get("color") != "" {
		t.Fatal("expected empty style for garbage input")
	}
}

func TestSetReplacesInPlace(t *testing.T) {
	s := styleattr.Parse("width: 10px; height: 20px")
	s.Set("width", "100%")

	out := s.String()
	if out != "width: 100%; height: 20px" {
		t.Fatalf("serialized = %q", out)
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
}

func TestSetImportant(t *testing.T) {
	s := styleattr.Parse("")
	s.SetImportant("background-color", "transparent")

	if !strings.Contains(s.String(), "background-color: transparent !important") {
		t.Fatalf("serialized = %q", s.String())
	}

	// Re-setting without important drops the flag.
	s.Set("background-color", "red")
	if strings.Contains(s.String(), "!important") {
		t.Fatalf("serialized = %q", s.String())
	}
}

func TestIdempotentRoundTrip(t *testing.T) {
	s := styleattr.Parse("display: block; visibility: visible")
	once := s.String()
	again := styleattr.Parse(once).String()
	if once != again {
		t.Fatalf("round trip changed: %q -> %q", once, again)
	}
}

func TestSelectionHelpers(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<div style="color: blue"></div>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	div := doc.Find("div")

	styleattr.Set(div, "display", "block")
	styleattr.SetImportant(div, "color", "red")

	if got := styleattr.Get(div, "display"); got != "block" {
		t.Fatalf("display = %q", got)
	}
	if got := styleattr.Get(div, "color"); got != "red" {
		t.Fatalf("color = %q", got)
	}

	attr, _ := div.Attr("style")
	if !strings.Contains(attr, "color: red !important") {
		t.Fatalf("style attr = %q", attr)
	}
}
