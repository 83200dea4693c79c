package model

import "time"

// Chapter represents one stored topic file of the study guide.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
type Chapter struct {
	ID             string    `json:"id"`
	Number         int       `json:"number"`
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	Filename       string    `json:"filename"`
	StoragePath    string    `json:"storage_path"`
	Size           int64     `json:"size"`
	Checksum       string    `json:"checksum"`
	WordCount      int       `json:"word_count"`
	CodeBlockCount int       `json:"code_block_count"`
	QuestionCount  int       `json:"question_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Link kinds as extracted from chapter bodies.
const (
	LinkKindInternal = "internal" // relative reference to another chapter file
	LinkKindAnchor   = "anchor"   // same-document #fragment
	LinkKindExternal = "external" // absolute http(s) URL
)

// ChapterLink is one outgoing link extracted from a chapter body.
type ChapterLink struct {
	ChapterID string `json:"chapter_id"`
	Target    string `json:"target"`
	Kind      string `json:"kind"`
	Line      int    `json:"line"`
}

// TOCEntry is one row of the generated table of contents, ordered by chapter
// number. Prev/Next carry the neighboring slugs for reading-order navigation;
// they are empty at the corpus boundaries.
type TOCEntry struct {
	Number        int    `json:"number"`
	Slug          string `json:"slug"`
	Title         string `json:"title"`
	Filename      string `json:"filename"`
	QuestionCount int    `json:"question_count"`
	Prev          string `json:"prev,omitempty"`
	Next          string `json:"next,omitempty"`
}
