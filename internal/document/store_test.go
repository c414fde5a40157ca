package document_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/kressler/docproof/internal/document"
	"github.com/kressler/docproof/internal/interfaces"
)

func newStore(t *testing.T) *document.Store {
	t.Helper()
	s, err := document.Open(filepath.Join(t.TempDir(), "docs.db"), interfaces.NewTestLogger(false))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleDocument() *document.Document {
	return &document.Document{
		Title: "Consulting Proposal",
		Sections: []document.Section{
			{
				Title: "Overview",
				Blocks: []document.Block{
					{
						Kind:     document.BlockText,
						Geometry: document.Geometry{X: 0, Y: 0, W: 12, H: 10},
						HTML:     "<p>We propose a three month engagement.</p>",
					},
					{
						Kind:     document.BlockImage,
						Geometry: document.Geometry{X: 8, Y: 12, W: 4, H: 20},
						Src:      "https://cdn.example.com/logo.png",
						Fit:      "contain",
					},
				},
			},
		},
	}
}

func TestCreateAndGet(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	doc := sampleDocument()
	if err := s.Create(ctx, doc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if doc.ID == "" {
		t.Fatal("Create did not assign an ID")
	}
	if doc.Sections[0].Blocks[0].ID == "" {
		t.Fatal("Create did not assign block IDs")
	}

	got, err := s.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != doc.Title {
		t.Fatalf("title = %q, want %q", got.Title, doc.Title)
	}
	if len(got.Sections) != 1 || len(got.Sections[0].Blocks) != 2 {
		t.Fatalf("sections did not round-trip: %+v", got.Sections)
	}
	if got.Sections[0].Blocks[1].Fit != "contain" {
		t.Fatal("image fit lost in storage")
	}
}

func TestGetMissing(t *testing.T) {
	s := newStore(t)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, document.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	a := &document.Document{Title: "A"}
	b := &document.Document{Title: "B"}
	if err := s.Create(ctx, a); err != nil {
		t.Fatalf("Create A: %v", err)
	}
	if err := s.Create(ctx, b); err != nil {
		t.Fatalf("Create B: %v", err)
	}

	// Touch A so it becomes the most recently updated.
	a.Title = "A2"
	if err := s.Update(ctx, a); err != nil {
		t.Fatalf("Update A: %v", err)
	}

	docs, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
}

func TestUpdateRecordsRevision(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	doc := sampleDocument()
	if err := s.Create(ctx, doc); err != nil {
		t.Fatalf("Create: %v", err)
	}

	doc.Sections[0].Blocks[0].HTML = "<p>We propose a six month engagement.</p>"
	if err := s.Update(ctx, doc); err != nil {
		t.Fatalf("Update: %v", err)
	}

	revs, err := s.Revisions(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Revisions: %v", err)
	}
	if len(revs) != 1 {
		t.Fatalf("got %d revisions, want 1", len(revs))
	}
	if revs[0].Seq != 1 {
		t.Fatalf("seq = %d, want 1", revs[0].Seq)
	}
}

func TestUpdateWithoutChangeAddsNoRevision(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	doc := sampleDocument()
	if err := s.Create(ctx, doc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Update(ctx, doc); err != nil {
		t.Fatalf("Update: %v", err)
	}

	revs, err := s.Revisions(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Revisions: %v", err)
	}
	if len(revs) != 0 {
		t.Fatalf("got %d revisions, want 0", len(revs))
	}
}

func TestRevertRestoresPreviousContent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	doc := sampleDocument()
	if err := s.Create(ctx, doc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	original := doc.Sections[0].Blocks[0].HTML

	doc.Sections[0].Blocks[0].HTML = "<p>Revised terms.</p>"
	if err := s.Update(ctx, doc); err != nil {
		t.Fatalf("Update 1: %v", err)
	}
	doc.Sections[0].Blocks[0].HTML = "<p>Revised again.</p>"
	if err := s.Update(ctx, doc); err != nil {
		t.Fatalf("Update 2: %v", err)
	}

	// One step back restores the intermediate edit.
	reverted, err := s.Revert(ctx, doc.ID, 1)
	if err != nil {
		t.Fatalf("Revert: %v", err)
	}
	if got := reverted.Sections[0].Blocks[0].HTML; got != "<p>Revised terms.</p>" {
		t.Fatalf("after 1 step: %q", got)
	}

	// The remaining step restores the original.
	reverted, err = s.Revert(ctx, doc.ID, 1)
	if err != nil {
		t.Fatalf("Revert 2: %v", err)
	}
	if got := reverted.Sections[0].Blocks[0].HTML; got != original {
		t.Fatalf("after 2 steps: %q, want %q", got, original)
	}

	if _, err := s.Revert(ctx, doc.ID, 1); !errors.Is(err, document.ErrNoRevisions) {
		t.Fatalf("err = %v, want ErrNoRevisions", err)
	}
}

func TestRevertMultipleSteps(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	doc := sampleDocument()
	if err := s.Create(ctx, doc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	original := doc.Sections[0].Blocks[0].HTML

	for _, edit := range []string{"<p>v2</p>", "<p>v3</p>", "<p>v4</p>"} {
		doc.Sections[0].Blocks[0].HTML = edit
		if err := s.Update(ctx, doc); err != nil {
			t.Fatalf("Update %q: %v", edit, err)
		}
	}

	reverted, err := s.Revert(ctx, doc.ID, 3)
	if err != nil {
		t.Fatalf("Revert: %v", err)
	}
	if got := reverted.Sections[0].Blocks[0].HTML; got != original {
		t.Fatalf("got %q, want %q", got, original)
	}
}

func TestDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	doc := sampleDocument()
	if err := s.Create(ctx, doc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, doc.ID); !errors.Is(err, document.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, doc.ID); !errors.Is(err, document.ErrNotFound) {
		t.Fatalf("double delete err = %v, want ErrNotFound", err)
	}
}
