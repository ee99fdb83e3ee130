// ABOUTME: File upload endpoint with size and type limits, plus auth-gated serving
// ABOUTME: Stored names are UUID-prefixed to avoid collisions and guessable URLs

package gateway

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// allowedUploadTypes is the accepted set of upload MIME types.
var allowedUploadTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"image/jpeg": true,
	"image/png":  true,
	"text/plain": true,
}

// registerUploadRoutes wires the upload endpoint and the protected file
// serving route.
func (g *Gateway) registerUploadRoutes(mux *http.ServeMux) {
	mux.Handle("POST /api/upload", g.auth.RequireAuth(http.HandlerFunc(g.handleUpload)))
	mux.Handle("GET /uploads/{name}", g.auth.RequireAuth(http.HandlerFunc(g.handleServeUpload)))
}

func (g *Gateway) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := g.config.Uploads.MaxBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			g.sendJSONError(w, http.StatusRequestEntityTooLarge, "File exceeds the upload size limit")
			return
		}
		g.sendJSONError(w, http.StatusBadRequest, "No file uploaded")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedUploadTypes[contentType] {
		g.sendJSONError(w, http.StatusBadRequest,
			"Invalid file type. Only PDF, DOC, DOCX, JPG, PNG, and TXT files are allowed.")
		return
	}

	if err := os.MkdirAll(g.config.Uploads.Dir, 0755); err != nil {
		g.logger.Error("creating upload dir failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	// Base strips any path segments a hostile client sends in the filename.
	originalName := filepath.Base(header.Filename)
	storedName := uuid.New().String() + "-" + originalName
	dstPath := filepath.Join(g.config.Uploads.Dir, storedName)

	dst, err := os.Create(dstPath)
	if err != nil {
		g.logger.Error("creating upload file failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}
	defer dst.Close()

	size, err := io.Copy(dst, file)
	if err != nil {
		g.logger.Error("writing upload failed", "error", err)
		os.Remove(dstPath)
		g.sendJSONError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	g.logger.Info("file uploaded",
		"filename", originalName,
		"stored_as", storedName,
		"size", size)

	writeJSON(w, http.StatusCreated, map[string]any{
		"fileUrl":  "/uploads/" + storedName,
		"filename": originalName,
		"size":     size,
	})
}

func (g *Gateway) handleServeUpload(w http.ResponseWriter, r *http.Request) {
	// Base defeats traversal through the path segment.
	name := filepath.Base(r.PathValue("name"))
	path := filepath.Join(g.config.Uploads.Dir, name)

	if _, err := os.Stat(path); err != nil {
		g.sendJSONError(w, http.StatusNotFound, "File not found")
		return
	}
	http.ServeFile(w, r, path)
}
