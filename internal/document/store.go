package document

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/kressler/docproof/internal/logging"

	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed schema.sql
var schemaFS embed.FS

var (
	ErrNotFound    = errors.New("document not found")
	ErrNoRevisions = errors.New("no revisions to revert")
)

// Store persists documents and their revision history in SQLite. Document
// sections are serialized as JSON into the content column; revisions hold
// diff-match-patch undo patches over that serialization.
type Store struct {
	db     *sql.DB
	logger logging.Logger
	dmp    *diffmatchpatch.DiffMatchPatch
}

// NewStore wraps an open database, runs migrations from schema.sql and
// applies the connection pragmas.
func NewStore(db *sql.DB, logger logging.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if logger == nil {
		logger = logging.NewStdoutLogger("DocumentStore")
	}

	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		logger.Warn("enabling WAL mode", logging.Field{Key: "error", Value: err.Error()})
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}

	return &Store{db: db, logger: logger, dmp: diffmatchpatch.New()}, nil
}

// Open opens (or creates) the store database at path.
func Open(path string, logger logging.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening document database: %w", err)
	}
	s, err := NewStore(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// DB exposes the underlying handle for advanced use (tests, etc.).
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

func marshalSections(sections []Section) (string, error) {
	if sections == nil {
		sections = []Section{}
	}
	b, err := json.Marshal(sections)
	if err != nil {
		return "", fmt.Errorf("marshal sections: %w", err)
	}
	return string(b), nil
}

func unmarshalSections(content string) ([]Section, error) {
	var sections []Section
	if err := json.Unmarshal([]byte(content), &sections); err != nil {
		return nil, fmt.Errorf("unmarshal sections: %w", err)
	}
	return sections, nil
}

// Create inserts a new document. Missing IDs are filled in.
func (s *Store) Create(ctx context.Context, doc *Document) error {
	if doc == nil {
		return fmt.Errorf("document is nil")
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	for i := range doc.Sections {
		if doc.Sections[i].ID == "" {
			doc.Sections[i].ID = uuid.New().String()
		}
		for j := range doc.Sections[i].Blocks {
			if doc.Sections[i].Blocks[j].ID == "" {
				doc.Sections[i].Blocks[j].ID = uuid.New().String()
			}
		}
	}

	content, err := marshalSections(doc.Sections)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, title, content, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		doc.ID, doc.Title, content, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// Get returns a document by ID.
func (s *Store) Get(ctx context.Context, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, content, created_at, updated_at
         FROM documents WHERE id = ? LIMIT 1`, id)

	var doc Document
	var content string
	if err := row.Scan(&doc.ID, &doc.Title, &content, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}

	sections, err := unmarshalSections(content)
	if err != nil {
		return nil, err
	}
	doc.Sections = sections
	return &doc, nil
}

// List returns all documents, newest first, without their sections.
func (s *Store) List(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at, updated_at
         FROM documents ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Update replaces a document's title and sections. The previous content is
// preserved as a revision patch so the change can be reverted.
func (s *Store) Update(ctx context.Context, doc *Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("document ID is required")
	}

	newContent, err := marshalSections(doc.Sections)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var oldContent string
	row := tx.QueryRowContext(ctx,
		`SELECT content FROM documents WHERE id = ? LIMIT 1`, doc.ID)
	if err := row.Scan(&oldContent); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}

	now := time.Now().Unix()

	if oldContent != newContent {
		// The undo patch rewinds the new content back to the old.
		patches := s.dmp.PatchMake(newContent, oldContent)
		patchText := s.dmp.PatchToText(patches)

		var maxSeq sql.NullInt64
		row := tx.QueryRowContext(ctx,
			`SELECT MAX(seq) FROM revisions WHERE document_id = ?`, doc.ID)
		if err := row.Scan(&maxSeq); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO revisions (id, document_id, seq, patch, created_at)
             VALUES (?, ?, ?, ?, ?)`,
			uuid.New().String(), doc.ID, maxSeq.Int64+1, patchText, now,
		)
		if err != nil {
			return fmt.Errorf("insert revision: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE documents SET title = ?, content = ?, updated_at = ? WHERE id = ?`,
		doc.Title, newContent, now, doc.ID,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	doc.UpdatedAt = now
	return tx.Commit()
}

// Delete removes a document and its revisions.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Revisions lists a document's revision metadata, newest first.
func (s *Store) Revisions(ctx context.Context, docID string) ([]Revision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, seq, created_at FROM revisions
         WHERE document_id = ? ORDER BY seq DESC`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Revision
	for rows.Next() {
		var rev Revision
		if err := rows.Scan(&rev.ID, &rev.Seq, &rev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	return out, rows.Err()
}

// Revert rewinds a document by steps revisions and returns the reverted
// document. The consumed revisions are removed from history.
func (s *Store) Revert(ctx context.Context, docID string, steps int) (*Document, error) {
	if steps <= 0 {
		steps = 1
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var doc Document
	var content string
	row := tx.QueryRowContext(ctx,
		`SELECT id, title, content, created_at FROM documents WHERE id = ? LIMIT 1`, docID)
	if err := row.Scan(&doc.ID, &doc.Title, &content, &doc.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT seq, patch FROM revisions
         WHERE document_id = ? ORDER BY seq DESC LIMIT ?`, docID, steps)
	if err != nil {
		return nil, err
	}

	type rev struct {
		seq   int
		patch string
	}
	var revs []rev
	for rows.Next() {
		var r rev
		if err := rows.Scan(&r.seq, &r.patch); err != nil {
			rows.Close()
			return nil, err
		}
		revs = append(revs, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(revs) == 0 {
		return nil, ErrNoRevisions
	}

	for _, r := range revs {
		patches, err := s.dmp.PatchFromText(r.patch)
		if err != nil {
			return nil, fmt.Errorf("parse revision patch seq=%d: %w", r.seq, err)
		}
		reverted, applied := s.dmp.PatchApply(patches, content)
		for i, ok := range applied {
			if !ok {
				return nil, fmt.Errorf("revision patch seq=%d hunk %d did not apply", r.seq, i)
			}
		}
		content = reverted

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM revisions WHERE document_id = ? AND seq = ?`, docID, r.seq); err != nil {
			return nil, err
		}
	}

	now := time.Now().Unix()
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET content = ?, updated_at = ? WHERE id = ?`,
		content, now, docID); err != nil {
		return nil, err
	}

	sections, err := unmarshalSections(content)
	if err != nil {
		return nil, err
	}
	doc.Sections = sections
	doc.UpdatedAt = now

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("reverted document",
		logging.Field{Key: "document_id", Value: docID},
		logging.Field{Key: "steps", Value: len(revs)})
	return &doc, nil
}
