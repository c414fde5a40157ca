package sanitize_test

import (
	"strings"
	"testing"

	"github.com/kressler/docproof/internal/sanitize"
)

func TestSanitizeStripsScript(t *testing.T) {
	s := sanitize.New(sanitize.DefaultPolicy())

	out := s.Sanitize(`<p>hello</p><script>alert(1)</script>`)
	if strings.Contains(out, "script") || strings.Contains(out, "alert") {
		t.Fatalf("script survived: %q", out)
	}
	if !strings.Contains(out, "<p>hello</p>") {
		t.Fatalf("allowed content lost: %q", out)
	}
}

func TestSanitizeStripsEventHandlers(t *testing.T) {
	s := sanitize.New(sanitize.DefaultPolicy())

	out := s.Sanitize(`<p onclick="steal()">hi</p>`)
	if strings.Contains(out, "onclick") {
		t.Fatalf("onclick survived: %q", out)
	}
	if !strings.Contains(out, "hi") {
		t.Fatalf("text lost: %q", out)
	}
}

func TestSanitizeStripsJavascriptURL(t *testing.T) {
	s := sanitize.New(sanitize.DefaultPolicy())

	out := s.Sanitize(`<a href="javascript:alert(1)">x</a>`)
	if strings.Contains(out, "javascript:") {
		t.Fatalf("javascript URL survived: %q", out)
	}
}

func TestSanitizeKeepsAllowedAttributes(t *testing.T) {
	s := sanitize.New(sanitize.DefaultPolicy())

	out := s.Sanitize(`<span style="color: red" class="note">x</span>`)
	if !strings.Contains(out, `style="color: red"`) {
		t.Fatalf("style attribute lost: %q", out)
	}
	if !strings.Contains(out, `class="note"`) {
		t.Fatalf("class attribute lost: %q", out)
	}
}

func TestSanitizeStripsDisallowedTag(t *testing.T) {
	s := sanitize.New(sanitize.Policy{
		AllowedTags:       []string{"p"},
		AllowedAttributes: nil,
	})

	out := s.Sanitize(`<p>keep</p><video src="x"></video>`)
	if strings.Contains(out, "video") {
		t.Fatalf("video survived: %q", out)
	}
	if !strings.Contains(out, "keep") {
		t.Fatalf("paragraph lost: %q", out)
	}
}

func TestPolicyCannotReenableScript(t *testing.T) {
	// Even a policy that names script/onclick gets them neutralized.
	s := sanitize.New(sanitize.Policy{
		AllowedTags:       []string{"p", "script"},
		AllowedAttributes: []string{"onclick"},
	})

	out := s.Sanitize(`<p onclick="x()">a</p><script>b()</script>`)
	if strings.Contains(out, "script") || strings.Contains(out, "onclick") {
		t.Fatalf("executable vector survived: %q", out)
	}
}

func TestSanitizeMalformedInput(t *testing.T) {
	s := sanitize.New(sanitize.DefaultPolicy())

	// Unbalanced and nonsense markup must not panic or error.
	out := s.Sanitize(`<p><b>un<closed <div`)
	if strings.Contains(out, "<div") {
		t.Fatalf("unexpected output: %q", out)
	}
}
