package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kislikjeka/wizmoney/internal/ledger"
)

// TemplateHandler handles template requests
type TemplateHandler struct {
	books BookOpener
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(books BookOpener) *TemplateHandler {
	return &TemplateHandler{books: books}
}

// TemplatesResponse lists templates
type TemplatesResponse struct {
	Templates []ledger.Template `json:"templates"`
}

// GetTemplates handles GET /templates
func (h *TemplateHandler) GetTemplates(w http.ResponseWriter, r *http.Request) {
	book, ok := openBook(w, r, h.books)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, TemplatesResponse{Templates: book.Templates()})
}

// GetTemplate handles GET /templates/{id}
func (h *TemplateHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	book, ok := openBook(w, r, h.books)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	for _, tpl := range book.Templates() {
		if tpl.ID == id {
			respondWithJSON(w, http.StatusOK, tpl)
			return
		}
	}
	respondWithAppError(w, ledger.ErrTemplateNotFound)
}

// DeleteTemplate handles DELETE /templates/{id}
func (h *TemplateHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	book, ok := openBook(w, r, h.books)
	if !ok {
		return
	}

	res, err := book.DeleteTemplate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, TemplatesResponse{Templates: res.Templates})
}
