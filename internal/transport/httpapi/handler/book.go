package handler

import (
	"net/http"

	"github.com/kislikjeka/wizmoney/internal/ledger"
	"github.com/kislikjeka/wizmoney/pkg/logger"
)

// BookHandler serves the whole book of the caller
type BookHandler struct {
	books  BookOpener
	logger *logger.Logger
}

// NewBookHandler creates a new book handler
func NewBookHandler(books BookOpener, log *logger.Logger) *BookHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &BookHandler{books: books, logger: log.WithComponent("http")}
}

// GetBook handles GET /book
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	book, ok := openBook(w, r, h.books)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, book.Snapshot())
}

// ReplaceBook handles PUT /book. Omitted fields keep their current value.
// The new state is persisted before responding; a persistence failure is
// logged and the in-memory state is still returned.
func (h *BookHandler) ReplaceBook(w http.ResponseWriter, r *http.Request) {
	book, ok := openBook(w, r, h.books)
	if !ok {
		return
	}

	var patch ledger.StatePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		respondWithAppError(w, err)
		return
	}

	snap := book.ReplaceState(patch)
	if err := book.Flush(r.Context()); err != nil {
		h.logger.WithContext(r.Context()).WithError(err).Warn("failed to persist replaced book")
	}
	respondWithJSON(w, http.StatusOK, snap)
}

// ResetBook handles DELETE /book
func (h *BookHandler) ResetBook(w http.ResponseWriter, r *http.Request) {
	book, ok := openBook(w, r, h.books)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, book.Reset(r.Context()))
}
