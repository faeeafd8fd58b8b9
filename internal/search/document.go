// Package search maintains a per-owner full-text index over document metadata
// using Bleve.
package search

import "github.com/docshelf/docshelf-server/internal/domain"

// Entry is the indexed projection of a document.
// Every entry carries its owner so queries can be scoped to one user.
type Entry struct {
	ID              string
	UserID          string
	FileName        string
	FileType        string
	ArtistName      string
	ArtistNickname  string
	CompositionName string
	Comment         string
	IsFavorite      bool
	Price           string
	CreatedAt       int64 // Unix millis
}

// EntryFromDocument builds an index entry from a stored document.
func EntryFromDocument(doc *domain.Document) *Entry {
	e := &Entry{
		ID:              doc.ID,
		UserID:          doc.UserID,
		FileName:        doc.FileName,
		FileType:        doc.FileType,
		ArtistName:      doc.ArtistName,
		ArtistNickname:  doc.ArtistNickname,
		CompositionName: doc.CompositionName,
		IsFavorite:      doc.IsFavorite,
		Price:           doc.Price,
		CreatedAt:       doc.CreatedAt.UnixMilli(),
	}
	if doc.Comment != nil {
		e.Comment = *doc.Comment
	}
	return e
}

// toMap converts the entry to the field names used by the index mapping.
func (e *Entry) toMap() map[string]any {
	m := map[string]any{
		"id":               e.ID,
		"user_id":          e.UserID,
		"file_name":        e.FileName,
		"file_type":        e.FileType,
		"artist_name":      e.ArtistName,
		"composition_name": e.CompositionName,
		"is_favorite":      e.IsFavorite,
		"price":            e.Price,
		"created_at":       e.CreatedAt,
	}
	if e.ArtistNickname != "" {
		m["artist_nickname"] = e.ArtistNickname
	}
	if e.Comment != "" {
		m["comment"] = e.Comment
	}
	return m
}
