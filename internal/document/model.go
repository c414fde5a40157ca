// Package document holds the proposal document model, its SQLite store
// with patch-based revision history, and the renderer that turns a
// document into the page HTML the export pipeline consumes.
package document

// BlockKind discriminates the block payload.
type BlockKind string

const (
	BlockText      BlockKind = "text"
	BlockImage     BlockKind = "image"
	BlockTable     BlockKind = "table"
	BlockShape     BlockKind = "shape"
	BlockSignature BlockKind = "signature"
)

// Grid geometry. Blocks snap to a 12-column grid; rows are fixed-height
// units so vertical placement survives round-trips through storage.
const (
	GridColumns = 12
	RowUnitPx   = 8
)

// Geometry places a block on the section grid. X and W are column units,
// Y and H are row units.
type Geometry struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Block is one editable region of a section. Which fields are meaningful
// depends on Kind: HTML for text, table and signature blocks, Src and Fit
// for image blocks, Points for shape blocks. Style carries per-block
// inline overrides the editor wrote.
type Block struct {
	ID       string    `json:"id"`
	Kind     BlockKind `json:"kind"`
	Geometry Geometry  `json:"geometry"`

	HTML   string `json:"html,omitempty"`
	Src    string `json:"src,omitempty"`
	Fit    string `json:"fit,omitempty"`
	Points string `json:"points,omitempty"`
	Style  string `json:"style,omitempty"`
}

// Section renders as one page.
type Section struct {
	ID     string  `json:"id"`
	Title  string  `json:"title,omitempty"`
	Blocks []Block `json:"blocks"`
}

// Document is a titled sequence of sections.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Sections  []Section `json:"sections"`
	CreatedAt int64     `json:"created_at"`
	UpdatedAt int64     `json:"updated_at"`
}

// Revision is one step of edit history. The patch itself stays in the
// store; callers only see the metadata.
type Revision struct {
	ID        string `json:"id"`
	Seq       int    `json:"seq"`
	CreatedAt int64  `json:"created_at"`
}
