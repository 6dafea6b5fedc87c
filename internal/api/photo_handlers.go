package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/smakiapp/smaki-server/internal/api/dto"
	"github.com/smakiapp/smaki-server/internal/http/response"
	"github.com/smakiapp/smaki-server/internal/media/images"
)

func (s *Server) registerPhotoRoutes() {
	// Multipart uploads bypass huma.
	s.router.With(s.requireStaff).Put("/api/v1/flavors/{id}/photo", s.handleUploadFlavorPhoto)
	s.router.Get(dto.MediaPrefix+"*", s.handleServeMedia)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteFlavorPhoto",
		Method:      http.MethodDelete,
		Path:        "/api/v1/flavors/{id}/photo",
		Summary:     "Remove flavor photo",
		Description: "Detaches and deletes the flavor's photo",
		Tags:        []string{"Flavors"},
		Security:    staffSecurity,
	}, s.handleDeleteFlavorPhoto)
}

// handleUploadFlavorPhoto stores the "file" field of a multipart form as the
// flavor's photo. The image is resized and re-encoded as JPEG when possible.
func (s *Server) handleUploadFlavorPhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := RequireStaff(ctx)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid flavor ID", s.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 10MB", s.logger)
			return
		}
		response.BadRequest(w, "Failed to parse form data", s.logger)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "No file uploaded. Use 'file' field in multipart form", s.logger)
		return
	}
	defer file.Close()

	if header.Size > MaxUploadSize {
		response.Error(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 10MB", s.logger)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to read uploaded photo", "flavor_id", id, "error", err)
		response.InternalError(w, "Failed to read uploaded file", s.logger)
		return
	}

	f, err := s.services.Catalog.SetFlavorPhoto(ctx, actor, id, data, header.Filename)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, dto.Flavor(f), s.logger)
}

// handleServeMedia serves a stored photo by key.
func (s *Server) handleServeMedia(w http.ResponseWriter, r *http.Request) {
	if s.storage.Photos == nil {
		response.NotFound(w, "Photo not found", s.logger)
		return
	}

	key := strings.TrimPrefix(r.URL.Path, dto.MediaPrefix)
	data, err := s.storage.Photos.Get(key)
	if err != nil {
		if !errors.Is(err, images.ErrInvalidKey) && s.storage.Photos.Exists(key) {
			s.logger.ErrorContext(r.Context(), "failed to read photo", "key", key, "error", err)
			response.InternalError(w, "Failed to retrieve photo", s.logger)
			return
		}
		response.NotFound(w, "Photo not found", s.logger)
		return
	}

	contentType, err := images.ContentType(data)
	if err != nil {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", CacheImmutable)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleDeleteFlavorPhoto(ctx context.Context, input *FlavorIDInput) (*FlavorOutput, error) {
	actor, err := RequireStaff(ctx)
	if err != nil {
		return nil, err
	}

	f, err := s.services.Catalog.RemoveFlavorPhoto(ctx, actor, input.ID)
	if err != nil {
		return nil, err
	}
	return &FlavorOutput{Body: dto.Flavor(f)}, nil
}
