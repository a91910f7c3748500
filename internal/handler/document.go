// internal/handler/document.go
package handler

import (
	"net/http"

	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/service"
)

// maxUploadSize bounds a single document upload.
const maxUploadSize = 10 << 20

type DocumentHandler struct {
	documents *service.DocumentService
}

func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// Upload accepts a multipart form with a "file" part and optional "name"
// and "type" fields.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}

	doc, err := h.documents.Upload(r.Context(), user.ID, service.UploadDocumentInput{
		Name: name,
		Type: model.DocumentType(r.FormValue("type")),
	}, file)
	if err != nil {
		respondWithServiceError(w, r, "Document upload error", err)
		return
	}
	respondWithData(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	docs, err := h.documents.List(r.Context(), user.ID)
	if err != nil {
		respondWithServiceError(w, r, "Document listing error", err)
		return
	}
	if docs == nil {
		docs = []*model.Document{}
	}
	respondWithJSON(w, http.StatusOK, ListResponse{BaseResponse: BaseResponse{Ok: true}, Data: docs, Total: int64(len(docs))})
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.documents.Delete(r.Context(), user.ID, id); err != nil {
		respondWithServiceError(w, r, "Document deletion error", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
