package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/docshelf/docshelf-server/internal/domain"
	"github.com/docshelf/docshelf-server/internal/service"
)

func (s *Server) registerDocumentRoutes() {
	guarded := huma.Middlewares{s.humaGuard(s.bearer)}

	huma.Register(s.api, huma.Operation{
		OperationID: "listDocuments",
		Method:      http.MethodGet,
		Path:        "/api/v1/documents",
		Summary:     "List documents",
		Description: "Returns the caller's documents in upload order",
		Tags:        []string{"Documents"},
		Security:    bearerSecurity,
		Middlewares: guarded,
	}, s.handleListDocuments)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchDocuments",
		Method:      http.MethodGet,
		Path:        "/api/v1/documents/search",
		Summary:     "Search documents",
		Description: "Full-text search over the caller's documents, best match first",
		Tags:        []string{"Documents"},
		Security:    bearerSecurity,
		Middlewares: guarded,
	}, s.handleSearchDocuments)

	huma.Register(s.api, huma.Operation{
		OperationID: "getDocument",
		Method:      http.MethodGet,
		Path:        "/api/v1/documents/{id}",
		Summary:     "Get document",
		Description: "Returns one of the caller's documents",
		Tags:        []string{"Documents"},
		Security:    bearerSecurity,
		Middlewares: guarded,
	}, s.handleGetDocument)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateDocument",
		Method:      http.MethodPut,
		Path:        "/api/v1/documents/{id}",
		Summary:     "Update document",
		Description: "Changes the comment or favorite flag of one of the caller's documents",
		Tags:        []string{"Documents"},
		Security:    bearerSecurity,
		Middlewares: guarded,
	}, s.handleUpdateDocument)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteDocument",
		Method:        http.MethodDelete,
		Path:          "/api/v1/documents/{id}",
		Summary:       "Delete document",
		Description:   "Deletes one of the caller's documents and its file",
		Tags:          []string{"Documents"},
		DefaultStatus: http.StatusNoContent,
		Security:      bearerSecurity,
		Middlewares:   guarded,
	}, s.handleDeleteDocument)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteAllDocuments",
		Method:        http.MethodDelete,
		Path:          "/api/v1/documents",
		Summary:       "Delete all documents",
		Description:   "Deletes every document the caller owns",
		Tags:          []string{"Documents"},
		DefaultStatus: http.StatusNoContent,
		Security:      bearerSecurity,
		Middlewares:   guarded,
	}, s.handleDeleteAllDocuments)
}

// DocumentIDInput identifies a document by path.
type DocumentIDInput struct {
	ID string `path:"id" doc:"Document ID"`
}

// SearchDocumentsInput contains search query parameters.
type SearchDocumentsInput struct {
	Query     string `query:"q" doc:"Search text"`
	Limit     int    `query:"limit" doc:"Maximum results; 0 uses the default of 20"`
	Offset    int    `query:"offset" doc:"Number of results to skip"`
	Favorites bool   `query:"favorites" doc:"Only return favorite documents"`
}

// UpdateDocumentRequest is the request body for a document update.
type UpdateDocumentRequest struct {
	Comment    *string `json:"comment,omitempty" doc:"Free-form comment"`
	IsFavorite *bool   `json:"isFavorite,omitempty" doc:"Favorite flag"`
}

// UpdateDocumentInput wraps a document update for Huma.
type UpdateDocumentInput struct {
	ID   string `path:"id" doc:"Document ID"`
	Body UpdateDocumentRequest
}

// DocumentOutput wraps a document for Huma.
type DocumentOutput struct {
	Body domain.PublicDocument
}

// DocumentListOutput wraps a document list for Huma.
type DocumentListOutput struct {
	Body []domain.PublicDocument
}

func (s *Server) handleListDocuments(ctx context.Context, _ *struct{}) (*DocumentListOutput, error) {
	identity, err := IdentityFrom(ctx)
	if err != nil {
		return nil, err
	}

	docs, err := s.services.Documents.List(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	return &DocumentListOutput{Body: publicDocuments(docs)}, nil
}

func (s *Server) handleSearchDocuments(ctx context.Context, input *SearchDocumentsInput) (*DocumentListOutput, error) {
	identity, err := IdentityFrom(ctx)
	if err != nil {
		return nil, err
	}

	docs, err := s.services.Documents.Search(ctx, identity.UserID, service.SearchRequest{
		Query:         input.Query,
		Limit:         input.Limit,
		Offset:        input.Offset,
		FavoritesOnly: input.Favorites,
	})
	if err != nil {
		return nil, err
	}
	return &DocumentListOutput{Body: publicDocuments(docs)}, nil
}

func (s *Server) handleGetDocument(ctx context.Context, input *DocumentIDInput) (*DocumentOutput, error) {
	identity, err := IdentityFrom(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := s.services.Documents.Get(ctx, identity.UserID, input.ID)
	if err != nil {
		return nil, err
	}
	return &DocumentOutput{Body: doc.Public()}, nil
}

func (s *Server) handleUpdateDocument(ctx context.Context, input *UpdateDocumentInput) (*DocumentOutput, error) {
	identity, err := IdentityFrom(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := s.services.Documents.Update(ctx, identity.UserID, input.ID, service.UpdateDocumentRequest{
		Comment:    input.Body.Comment,
		IsFavorite: input.Body.IsFavorite,
	})
	if err != nil {
		return nil, err
	}
	return &DocumentOutput{Body: doc.Public()}, nil
}

func (s *Server) handleDeleteDocument(ctx context.Context, input *DocumentIDInput) (*struct{}, error) {
	identity, err := IdentityFrom(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Documents.Delete(ctx, identity.UserID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleDeleteAllDocuments(ctx context.Context, _ *struct{}) (*struct{}, error) {
	identity, err := IdentityFrom(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Documents.DeleteAll(ctx, identity.UserID); err != nil {
		return nil, err
	}
	return nil, nil
}

// publicDocuments projects docs for the wire, never returning a nil slice.
func publicDocuments(docs []*domain.Document) []domain.PublicDocument {
	out := make([]domain.PublicDocument, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Public())
	}
	return out
}
