package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/kislikjeka/wizmoney/internal/ledger"
	"github.com/kislikjeka/wizmoney/internal/module/report"
	apperr "github.com/kislikjeka/wizmoney/internal/shared/errors"
	"github.com/kislikjeka/wizmoney/internal/transport/httpapi/middleware"
)

// maxBodyBytes caps request bodies; imports of a few thousand rows fit
const maxBodyBytes = 8 << 20

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// BookOpener returns the book of an authenticated user
type BookOpener interface {
	Open(ctx context.Context, owner string) (*ledger.Book, error)
}

// respondWithJSON writes payload as JSON with the given status
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithError writes {"error": message}
func respondWithError(w http.ResponseWriter, code int, message string) {
	response, _ := json.Marshal(ErrorResponse{Error: message})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithAppError maps err to an AppError and writes it
func respondWithAppError(w http.ResponseWriter, err error) {
	appErr := toAppError(err)
	response, _ := json.Marshal(ErrorResponse{Error: appErr.Message, Code: appErr.Code})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())
	_, _ = w.Write(response)
}

// toAppError classifies domain errors for the client
func toAppError(err error) *apperr.AppError {
	if appErr := apperr.GetAppError(err); appErr != nil {
		return appErr
	}

	switch {
	case errors.Is(err, ledger.ErrTransactionNotFound):
		return apperr.NotFound("transaction")
	case errors.Is(err, ledger.ErrAccountNotFound):
		return apperr.NotFound("account")
	case errors.Is(err, ledger.ErrTemplateNotFound):
		return apperr.NotFound("template")
	case errors.Is(err, ledger.ErrInvalidTransactionType),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrMissingAccount),
		errors.Is(err, ledger.ErrSameAccountTransfer),
		errors.Is(err, ledger.ErrMissingCategory),
		errors.Is(err, ledger.ErrInvalidDate),
		errors.Is(err, ledger.ErrInvalidTime),
		errors.Is(err, ledger.ErrMissingAccountName),
		errors.Is(err, ledger.ErrInvalidRate),
		errors.Is(err, ledger.ErrInvalidCurrency),
		errors.Is(err, report.ErrInvalidRange),
		errors.Is(err, report.ErrInvalidDate):
		return apperr.Wrap(err, apperr.ErrCodeValidation, err.Error())
	default:
		return apperr.Internal("internal server error", err)
	}
}

// decodeJSON reads a size-limited JSON body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	return nil
}

// readBody reads a size-limited body
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, apperr.BadRequest("invalid request body")
	}
	return data, nil
}

// openBook resolves the caller's book, writing the error response on failure
func openBook(w http.ResponseWriter, r *http.Request, books BookOpener) (*ledger.Book, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondWithAppError(w, apperr.Unauthorized("unauthorized"))
		return nil, false
	}

	book, err := books.Open(r.Context(), userID)
	if err != nil {
		respondWithAppError(w, apperr.Unavailable("book is not available", err))
		return nil, false
	}
	return book, true
}
