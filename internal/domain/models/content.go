package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Site content sections. The home section stores a JSON HomeContent
// payload; the info section stores raw HTML.
const (
	SectionHome = "home"
	SectionInfo = "info"
)

// SiteContent is one row of the free-form content table keyed by
// section.
type SiteContent struct {
	ID        string    `json:"id" db:"id"`
	Section   string    `json:"section" db:"section"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HomeContent is the structured payload stored in the home section.
type HomeContent struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

// Fallback copy shown when the home row is absent or unparseable.
const (
	DefaultHomeTitle       = "Hoşgeldiniz"
	DefaultHomeDescription = "Web sitemize hoş geldiniz. Sol üst köşedeki menüden istediğiniz bölüme geçiş yapabilirsiniz."
)

// DefaultHomeContent returns the fallback home page payload.
func DefaultHomeContent() HomeContent {
	return HomeContent{
		Title:       DefaultHomeTitle,
		Description: DefaultHomeDescription,
	}
}

// DecodeHomeContent parses a stored home payload, falling back to
// defaults field by field. Rows written by older revisions may hold a
// bare string instead of a JSON object; those fall back entirely.
func DecodeHomeContent(raw string) HomeContent {
	content := DefaultHomeContent()

	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return content
	}

	var parsed HomeContent
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return content
	}

	if parsed.Title != "" {
		content.Title = parsed.Title
	}
	if parsed.Description != "" {
		content.Description = parsed.Description
	}
	content.ImageURL = parsed.ImageURL
	return content
}

// Encode serializes the payload for storage in the home section row.
func (c HomeContent) Encode() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
