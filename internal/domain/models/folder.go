package models

import "time"

// Folder is a root-level container in the two-level repository
// hierarchy. Folders cannot nest.
//
// Position is a non-negative, not necessarily contiguous ordering key:
// new folders append at the current count and deletions leave gaps that
// are only compacted by the next full reorder.
type Folder struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Position  int       `json:"position" db:"position"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// File is a stored document inside a folder. Files cannot exist outside
// a folder. ThumbnailURL is set only when the upload was classified as
// an image by extension; it then equals FileURL.
type File struct {
	ID           string    `json:"id" db:"id"`
	FolderID     string    `json:"folder_id" db:"folder_id"`
	Name         string    `json:"name" db:"name"`
	Description  string    `json:"description" db:"description"`
	FileURL      string    `json:"file_url" db:"file_url"`
	ThumbnailURL *string   `json:"thumbnail_url" db:"thumbnail_url"`
	Position     int       `json:"position" db:"position"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// PositionUpdate is one row of a batched reorder write.
type PositionUpdate struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
}
