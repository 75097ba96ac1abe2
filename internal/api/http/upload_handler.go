package http

import (
	"io"
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"

	"reviewhub-backend/internal/storage"
)

// UploadHandler serves captured evidence files to admins.
type UploadHandler struct {
	uploads storage.UploadStore
}

func NewUploadHandler(uploads storage.UploadStore) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

func (h *UploadHandler) GetUpload(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ref := vars["category"] + "/" + vars["name"]

	file, err := h.uploads.Open(ref)
	if err != nil {
		respondError(w, http.StatusNotFound, "file not found")
		return
	}
	defer file.Close()

	// Determine content type from file extension
	contentType := "application/octet-stream"
	switch filepath.Ext(ref) {
	case ".jpg", ".jpeg":
		contentType = "image/jpeg"
	case ".png":
		contentType = "image/png"
	case ".gif":
		contentType = "image/gif"
	case ".webp":
		contentType = "image/webp"
	case ".pdf":
		contentType = "application/pdf"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	io.Copy(w, file)
}
