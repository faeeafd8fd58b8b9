package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/docshelf/docshelf-server/internal/domain"
	domainerrors "github.com/docshelf/docshelf-server/internal/errors"
	"github.com/docshelf/docshelf-server/internal/http/response"
	"github.com/docshelf/docshelf-server/internal/service"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to temp files.
const multipartMemory = 8 << 20

// registerFileRoutes adds the routes that move raw bytes. They bypass huma
// and write responses directly. They share the huma routes' tree, so they
// are added with With rather than a mounted sub-router.
func (s *Server) registerFileRoutes() {
	guarded := s.router.With(s.requireGuards(s.bearer))
	guarded.Post("/api/v1/documents", s.handleUploadDocument)
	guarded.Get("/api/v1/documents/{id}/download", s.handleDownloadDocument)
}

// handleUploadDocument stores a multipart upload: the file in part "file"
// and the JSON metadata in part "data".
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := IdentityFrom(ctx)
	if err != nil {
		response.Error(w, err, s.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, domainerrors.Wrapf(err, domainerrors.KindValidation, "upload exceeds %d bytes", tooLarge.Limit), s.logger)
			return
		}
		response.Error(w, domainerrors.Validation("request must be multipart/form-data"), s.logger)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			s.logger.Warn("failed to remove multipart temp files", "error", err)
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		response.Error(w, domainerrors.ValidationWithDetails("validation failed",
			map[string]string{"file": "file is required"}), s.logger)
		return
	}
	defer file.Close()

	data := r.FormValue("data")
	if data == "" {
		response.Error(w, domainerrors.ValidationWithDetails("validation failed",
			map[string]string{"data": "metadata is required"}), s.logger)
		return
	}

	var meta domain.DocumentMetadata
	if err := json.Unmarshal([]byte(data), &meta); err != nil {
		response.Error(w, domainerrors.ValidationWithDetails("validation failed",
			map[string]string{"data": "metadata must be valid JSON: " + err.Error()}), s.logger)
		return
	}

	doc, err := s.services.Documents.Create(ctx, identity.UserID, meta, service.Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		response.Error(w, err, s.logger)
		return
	}

	response.Success(w, doc.Public(), s.logger)
}

// handleDownloadDocument streams the stored file of an owned document.
func (s *Server) handleDownloadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := IdentityFrom(ctx)
	if err != nil {
		response.Error(w, err, s.logger)
		return
	}

	doc, obj, err := s.services.Documents.Open(ctx, identity.UserID, chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, err, s.logger)
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(doc.FileName))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName}))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, obj.Body); err != nil {
		s.logger.Warn("download interrupted", "document_id", doc.ID, "error", fmt.Errorf("copy file: %w", err))
	}
}
