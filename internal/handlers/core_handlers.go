package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"newsroom/internal/api"
	"newsroom/internal/engine/actors"
	"newsroom/internal/media"
	"newsroom/internal/utils"
)

// HandleHealth handles health check requests
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postCount, err := ask[int](s, s.Engine.GetPostActor(), &actors.GetCountsMsg{})
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, api.HealthResponse{
			Status:     "healthy",
			PostCount:  postCount,
			ServerTime: time.Now(),
			Metrics:    s.Metrics.Snapshot(),
		})
	}
}

// HandleMedia streams a stored upload.
func (s *Server) HandleMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, err := s.Media.OpenMedia(r.Context(), r.PathValue("id"))
		if err != nil {
			respondError(w, err)
			return
		}
		defer file.Close()

		w.Header().Set("Content-Type", file.ContentType)
		if file.Size > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
		}
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		if _, err := io.Copy(w, file); err != nil {
			slog.Warn("media stream interrupted", "id", r.PathValue("id"), "error", err)
		}
	}
}

// parseMultipart bounds the body and parses the form.
func parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, media.MaxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return utils.NewAppError(utils.ErrPayloadTooLarge, "Image exceeds 5 MiB", err)
		}
		return utils.NewAppError(utils.ErrInvalidInput, "Invalid multipart form", err)
	}
	return nil
}

// formImage uploads the "image" file of a parsed multipart form and returns its URL.
func (s *Server) formImage(r *http.Request, required bool) (string, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) && !required {
		return "", nil
	}
	if err != nil {
		return "", utils.NewAppError(utils.ErrInvalidInput, "An image file is required", err)
	}
	defer file.Close()
	return s.Uploader.Upload(r.Context(), header.Filename, file)
}

// uploadImage parses a multipart request and uploads its image.
func (s *Server) uploadImage(w http.ResponseWriter, r *http.Request, required bool) (string, error) {
	if !isMultipart(r) {
		return "", utils.NewAppError(utils.ErrUnsupportedType, "Expected multipart/form-data", nil)
	}
	if err := parseMultipart(w, r); err != nil {
		return "", err
	}
	return s.formImage(r, required)
}
