package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docshelf/docshelf-server/internal/blob"
	"github.com/docshelf/docshelf-server/internal/domain"
	domainerrors "github.com/docshelf/docshelf-server/internal/errors"
	"github.com/docshelf/docshelf-server/internal/id"
	"github.com/docshelf/docshelf-server/internal/search"
	"github.com/docshelf/docshelf-server/internal/store"
)

// uploadPrefix is the key prefix for every stored document file.
const uploadPrefix = "uploads/"

// maxStoredNameLength bounds the sanitized name embedded in storage keys.
const maxStoredNameLength = 128

// DocumentService scopes every document operation to its owner. A document
// owned by someone else is reported exactly like a missing one.
type DocumentService struct {
	store  store.Store
	blobs  blob.Storage
	index  *search.Index
	logger *slog.Logger
}

// NewDocumentService creates a new document service.
func NewDocumentService(store store.Store, blobs blob.Storage, index *search.Index, logger *slog.Logger) *DocumentService {
	return &DocumentService{
		store:  store,
		blobs:  blobs,
		index:  index,
		logger: logger,
	}
}

// Upload is the file part of a document upload.
type Upload struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

// UpdateDocumentRequest changes the mutable document fields.
type UpdateDocumentRequest struct {
	Comment    *string `json:"comment,omitempty" validate:"omitempty,max=2000"`
	IsFavorite *bool   `json:"isFavorite,omitempty"`
}

// Patch converts the request into a domain patch.
func (r UpdateDocumentRequest) Patch() domain.DocumentPatch {
	return domain.DocumentPatch{Comment: r.Comment, IsFavorite: r.IsFavorite}
}

// Create stores the file, then the metadata row. The file is removed again
// if the row can't be written.
func (s *DocumentService) Create(ctx context.Context, ownerID string, meta domain.DocumentMetadata, upload Upload) (*domain.Document, error) {
	if err := validate.Validate(meta); err != nil {
		return nil, err
	}
	if upload.Body == nil {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{"file": "file is required"})
	}

	docID, err := id.Generate(id.PrefixDocument)
	if err != nil {
		return nil, fmt.Errorf("generate document ID: %w", err)
	}

	fileName := displayFileName(upload.FileName)
	key := uploadPrefix + uuid.NewString() + "_" + sanitizeFileName(fileName)

	if err := s.blobs.Put(ctx, key, upload.Body, upload.ContentType); err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:              docID,
		UserID:          ownerID,
		FileName:        fileName,
		FileURL:         key,
		FileType:        meta.FileType,
		CreateTime:      meta.CreateTime,
		Comment:         meta.Comment,
		ArtistName:      meta.ArtistName,
		ArtistNickname:  meta.ArtistNickname,
		CompositionName: meta.CompositionName,
		Price:           meta.Price,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if meta.IsFavorite != nil {
		doc.IsFavorite = *meta.IsFavorite
	}

	if err := s.store.CreateDocument(ctx, doc); err != nil {
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to remove orphaned upload", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("create document: %w", err)
	}

	s.indexDocument(doc)

	s.logger.Info("document uploaded", "document_id", doc.ID, "user_id", ownerID, "key", key)

	return doc, nil
}

// List returns the owner's documents in upload order.
func (s *DocumentService) List(ctx context.Context, ownerID string) ([]*domain.Document, error) {
	docs, err := s.store.ListDocumentsByUser(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if docs == nil {
		docs = []*domain.Document{}
	}
	return docs, nil
}

// Get returns one owned document.
func (s *DocumentService) Get(ctx context.Context, ownerID, docID string) (*domain.Document, error) {
	doc, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("document not found")
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	if !doc.OwnedBy(ownerID) {
		return nil, domainerrors.NotFound("document not found")
	}
	return doc, nil
}

// Open returns an owned document with its file. Callers close the object body.
func (s *DocumentService) Open(ctx context.Context, ownerID, docID string) (*domain.Document, *blob.Object, error) {
	doc, err := s.Get(ctx, ownerID, docID)
	if err != nil {
		return nil, nil, err
	}

	obj, err := s.blobs.Open(ctx, doc.FileURL)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			s.logger.Warn("document file missing", "document_id", doc.ID, "key", doc.FileURL)
			return nil, nil, domainerrors.Wrap(err, domainerrors.KindNotFound, "document file not found")
		}
		return nil, nil, fmt.Errorf("open document file: %w", err)
	}
	return doc, obj, nil
}

// Update applies the supplied fields to an owned document.
func (s *DocumentService) Update(ctx context.Context, ownerID, docID string, req UpdateDocumentRequest) (*domain.Document, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	doc, err := s.Get(ctx, ownerID, docID)
	if err != nil {
		return nil, err
	}

	req.Patch().Apply(doc)
	doc.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateDocument(ctx, doc); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("document not found")
		}
		return nil, fmt.Errorf("update document: %w", err)
	}

	s.indexDocument(doc)

	return doc, nil
}

// Delete removes an owned document. The file is removed best-effort; the
// row must go.
func (s *DocumentService) Delete(ctx context.Context, ownerID, docID string) error {
	doc, err := s.Get(ctx, ownerID, docID)
	if err != nil {
		return err
	}
	return s.deleteDocument(ctx, doc)
}

// DeleteAll deletes the owner's documents one by one. The first failure
// stops the loop; documents already deleted stay deleted.
func (s *DocumentService) DeleteAll(ctx context.Context, ownerID string) error {
	docs, err := s.List(ctx, ownerID)
	if err != nil {
		return err
	}

	for _, doc := range docs {
		if err := s.deleteDocument(ctx, doc); err != nil {
			return err
		}
	}

	s.logger.Info("deleted all documents", "user_id", ownerID, "count", len(docs))
	return nil
}

// SearchRequest holds the options of a document search.
// A zero Limit uses the index default.
type SearchRequest struct {
	Query         string
	Limit         int
	Offset        int
	FavoritesOnly bool
}

// Search returns the owner's documents matching the query, best match first.
func (s *DocumentService) Search(ctx context.Context, ownerID string, req SearchRequest) ([]*domain.Document, error) {
	query := strings.TrimSpace(req.Query)
	if err := validate.Var("q", query, "required,max=200"); err != nil {
		return nil, err
	}
	if req.Limit < 0 || req.Limit > search.MaxLimit {
		return nil, domainerrors.ValidationWithDetails("validation failed",
			map[string]string{"limit": fmt.Sprintf("limit must be between 0 and %d", search.MaxLimit)})
	}
	if req.Offset < 0 {
		return nil, domainerrors.ValidationWithDetails("validation failed",
			map[string]string{"offset": "offset must not be negative"})
	}

	res, err := s.index.Search(ctx, search.Params{
		UserID:        ownerID,
		Query:         query,
		Limit:         req.Limit,
		Offset:        req.Offset,
		FavoritesOnly: req.FavoritesOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}

	docs := make([]*domain.Document, 0, len(res.Hits))
	for _, hit := range res.Hits {
		doc, err := s.store.GetDocument(ctx, hit.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				s.logger.Debug("skipping stale search entry", "document_id", hit.ID)
				continue
			}
			return nil, fmt.Errorf("load search hit: %w", err)
		}
		if !doc.OwnedBy(ownerID) {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Reindex rebuilds the search index from the store. Documents written while
// it runs stay searchable.
func (s *DocumentService) Reindex(ctx context.Context) error {
	err := s.index.RebuildFrom(func() ([]*search.Entry, error) {
		users, err := s.store.ListUsers(ctx)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}

		var entries []*search.Entry
		for _, u := range users {
			docs, err := s.store.ListDocumentsByUser(ctx, u.ID)
			if err != nil {
				return nil, fmt.Errorf("list documents for %s: %w", u.ID, err)
			}
			for _, d := range docs {
				entries = append(entries, search.EntryFromDocument(d))
			}
		}
		return entries, nil
	})
	if err != nil {
		return fmt.Errorf("rebuild search index: %w", err)
	}
	return nil
}

// purgeFiles removes every stored file and index entry of a user ahead of
// account deletion. Only the listing can fail.
func (s *DocumentService) purgeFiles(ctx context.Context, ownerID string) error {
	docs, err := s.List(ctx, ownerID)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		s.removeFile(ctx, doc)
		ids = append(ids, doc.ID)
	}
	if err := s.index.RemoveAll(ids); err != nil {
		s.logger.Warn("failed to remove search entries", "user_id", ownerID, "error", err)
	}
	return nil
}

func (s *DocumentService) deleteDocument(ctx context.Context, doc *domain.Document) error {
	s.removeFile(ctx, doc)

	if err := s.store.DeleteDocument(ctx, doc.UserID, doc.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("document not found")
		}
		return fmt.Errorf("delete document: %w", err)
	}

	if err := s.index.Remove(doc.ID); err != nil {
		s.logger.Warn("failed to remove search entry", "document_id", doc.ID, "error", err)
	}
	return nil
}

func (s *DocumentService) removeFile(ctx context.Context, doc *domain.Document) {
	if err := s.blobs.Delete(ctx, doc.FileURL); err != nil {
		s.logger.Warn("failed to remove document file",
			"document_id", doc.ID,
			"key", doc.FileURL,
			"error", err,
		)
	}
}

func (s *DocumentService) indexDocument(doc *domain.Document) {
	if err := s.index.Put(search.EntryFromDocument(doc)); err != nil {
		s.logger.Warn("failed to index document", "document_id", doc.ID, "error", err)
	}
}

// displayFileName reduces a client-supplied name to its last path element.
func displayFileName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	name = path.Base(name)
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return name
}

// sanitizeFileName keeps ASCII letters, digits, dot, dash and underscore,
// replacing everything else with an underscore. Leading and trailing dots
// are dropped. Long names keep their tail so the extension survives.
func sanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "file"
	}
	if len(out) > maxStoredNameLength {
		out = out[len(out)-maxStoredNameLength:]
	}
	return out
}
