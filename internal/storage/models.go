package storage

import "time"

// PostRecord represents an indexed blog post in the database.
type PostRecord struct {
	ID        string // UUID
	RelPath   string // Relative path from the posts root
	Title     string // Extracted or front-matter title
	URL       string // Site-relative URL of the rendered post
	Date      string // Publication date, YYYY-MM-DD
	Content   string // Plain-text body used as the search corpus
	Hash      string // SHA256 hex string of file content
	UpdatedAt time.Time
}
