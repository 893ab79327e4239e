package httpserver

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxUploadBytes = 5 << 20

var allowedImageExts = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".webp": {},
}

// UploadRoutes returns a sub-router mounted at /api/uploads for profile
// images:
// - POST /          -> stores a multipart "file" and returns its URL
// - GET /{filename} -> serves a stored file
// Set the returned url as profileImage with PATCH /api/auth/me.
func UploadRoutes(uploadDir string) chi.Router {
	r := chi.NewRouter()

	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<10)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("failed to parse multipart form"))
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("missing file"))
			return
		}
		defer file.Close()

		ext := strings.ToLower(filepath.Ext(header.Filename))
		if _, ok := allowedImageExts[ext]; !ok {
			writeJSON(w, http.StatusBadRequest, errorBody("file must be a png, jpeg, gif or webp image"))
			return
		}

		filename := uuid.NewString() + ext
		destPath := filepath.Join(uploadDir, filename)

		out, err := os.Create(destPath)
		if err != nil {
			loggerFrom(r).Error("create upload", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorBody("could not create file"))
			return
		}
		defer out.Close()

		if _, err := io.Copy(out, file); err != nil {
			loggerFrom(r).Error("save upload", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorBody("could not save file"))
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"filename": filename,
			"url":      "/api/uploads/" + filename,
		})
	})

	r.Get("/{filename}", func(w http.ResponseWriter, r *http.Request) {
		filename := chi.URLParam(r, "filename")
		if filename == "" {
			writeJSON(w, http.StatusBadRequest, errorBody("missing filename"))
			return
		}
		// Prevent path traversal by cleaning the path and not allowing separators.
		if filepath.Base(filename) != filename {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid filename"))
			return
		}
		http.ServeFile(w, r, filepath.Join(uploadDir, filename))
	})

	return r
}
