package config

const (
	// MaxFolderNameLength is the maximum length for folder names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and provide
	// reasonable UX (names should be short and descriptive).
	MaxFolderNameLength = 255

	// MaxFileNameLength is the maximum length for uploaded file names.
	// Same as folder names for consistency.
	MaxFileNameLength = 255

	// MaxFileDescriptionLength bounds the free-text description shown
	// under a file in the repository listing.
	MaxFileDescriptionLength = 2000

	// MaxContentLength bounds a site_content payload (the info page is
	// free-form HTML edited by admins).
	MaxContentLength = 100_000
)
