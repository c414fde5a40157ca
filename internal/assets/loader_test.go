package assets_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kressler/docproof/internal/assets"
)

func servePNG(t *testing.T) *httptest.Server {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/img.png":
			w.Write(buf.Bytes())
		case "/not-an-image":
			w.Write([]byte("<html>nope</html>"))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestFetchCachesResult(t *testing.T) {
	srv := servePNG(t)
	defer srv.Close()

	l := assets.NewLoader(nil)
	src := srv.URL + "/img.png"

	if l.Complete(src) {
		t.Fatal("unfetched source reported complete")
	}
	if err := l.Fetch(context.Background(), src); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !l.Complete(src) {
		t.Fatal("fetched source not complete")
	}
	if _, ok := l.Image(src); !ok {
		t.Fatal("image bytes missing from cache")
	}
}

func TestFetchFailureStillSettles(t *testing.T) {
	srv := servePNG(t)
	defer srv.Close()

	l := assets.NewLoader(nil)
	src := srv.URL + "/gone.png"

	if err := l.Fetch(context.Background(), src); err == nil {
		t.Fatal("expected fetch error for 404")
	}
	// The failure is cached: the source now counts as complete.
	if !l.Complete(src) {
		t.Fatal("failed source must be complete")
	}
	if _, ok := l.Image(src); ok {
		t.Fatal("failed source must not expose bytes")
	}
}

func TestFetchRejectsNonImage(t *testing.T) {
	srv := servePNG(t)
	defer srv.Close()

	l := assets.NewLoader(nil)
	if err := l.Fetch(context.Background(), srv.URL+"/not-an-image"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestDataURIAndEmptyAreComplete(t *testing.T) {
	l := assets.NewLoader(nil)
	if !l.Complete("") {
		t.Fatal("empty src must be complete")
	}
	if !l.Complete("data:image/png;base64,xyz") {
		t.Fatal("data URI must be complete")
	}
	if err := l.Fetch(context.Background(), "data:image/png;base64,xyz"); err != nil {
		t.Fatalf("data URI fetch must be a no-op: %v", err)
	}
}
