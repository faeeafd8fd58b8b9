package domain

import "time"

// Document is an uploaded file and its metadata, owned by exactly one user.
type Document struct {
	ID              string
	UserID          string
	FileName        string
	FileURL         string
	FileType        string
	CreateTime      string
	Comment         *string
	IsFavorite      bool
	ArtistName      string
	ArtistNickname  string
	CompositionName string
	Price           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OwnedBy reports whether the document belongs to userID.
func (d *Document) OwnedBy(userID string) bool {
	return d != nil && d.UserID == userID
}

// PublicDocument is every document field except the owner reference.
type PublicDocument struct {
	ID              string  `json:"id"`
	FileName        string  `json:"fileName"`
	FileURL         string  `json:"fileURL"`
	FileType        string  `json:"fileType"`
	CreateTime      string  `json:"createTime"`
	Comment         *string `json:"comment,omitempty"`
	IsFavorite      bool    `json:"isFavorite"`
	ArtistName      string  `json:"artistName"`
	ArtistNickname  string  `json:"artistNickname"`
	CompositionName string  `json:"compositionName"`
	Price           string  `json:"price"`
}

// Public returns the client-facing projection of the document.
func (d *Document) Public() PublicDocument {
	return PublicDocument{
		ID:              d.ID,
		FileName:        d.FileName,
		FileURL:         d.FileURL,
		FileType:        d.FileType,
		CreateTime:      d.CreateTime,
		Comment:         d.Comment,
		IsFavorite:      d.IsFavorite,
		ArtistName:      d.ArtistName,
		ArtistNickname:  d.ArtistNickname,
		CompositionName: d.CompositionName,
		Price:           d.Price,
	}
}

// DocumentMetadata is the client-supplied description of an upload.
// CreateTime and Price are free-form text stored as sent.
type DocumentMetadata struct {
	FileType        string  `json:"fileType" validate:"required,max=100"`
	CreateTime      string  `json:"createTime" validate:"required,max=100"`
	ArtistName      string  `json:"artistName" validate:"required,max=200"`
	ArtistNickname  string  `json:"artistNickname" validate:"max=200"`
	CompositionName string  `json:"compositionName" validate:"required,max=200"`
	Price           string  `json:"price" validate:"required,max=50"`
	Comment         *string `json:"comment,omitempty" validate:"omitempty,max=2000"`
	IsFavorite      *bool   `json:"isFavorite,omitempty"`
}

// DocumentPatch carries the mutable document fields. Nil fields are left untouched.
type DocumentPatch struct {
	Comment    *string
	IsFavorite *bool
}

// Apply copies the supplied fields onto doc.
func (p DocumentPatch) Apply(doc *Document) {
	if p.Comment != nil {
		c := *p.Comment
		doc.Comment = &c
	}
	if p.IsFavorite != nil {
		doc.IsFavorite = *p.IsFavorite
	}
}
