package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kislikjeka/wizmoney/internal/ledger"
)

// AccountHandler handles account requests
type AccountHandler struct {
	books BookOpener
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(books BookOpener) *AccountHandler {
	return &AccountHandler{books: books}
}

// AccountsResponse lists accounts
type AccountsResponse struct {
	Accounts []ledger.Account `json:"accounts"`
}

// AccountResponse carries the touched account and the full list
type AccountResponse struct {
	Account  *ledger.Account  `json:"account,omitempty"`
	Accounts []ledger.Account `json:"accounts"`
}

// GetAccounts handles GET /accounts
func (h *AccountHandler) GetAccounts(w http.ResponseWriter, r *http.Request) {
	book, ok := openBook(w, r, h.books)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, AccountsResponse{Accounts: book.Accounts()})
}

// CreateAccount handles POST /accounts. The balance of the draft is the
// opening balance.
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	book, ok := openBook(w, r, h.books)
	if !ok {
		return
	}

	var draft ledger.Account
	if err := decodeJSON(w, r, &draft); err != nil {
		respondWithAppError(w, err)
		return
	}

	res, err := book.AddAccount(r.Context(), draft)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, AccountResponse{Account: res.Account, Accounts: res.Accounts})
}

// UpdateAccount handles PATCH /accounts/{id}
func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	book, ok := openBook(w, r, h.books)
	if !ok {
		return
	}

	var patch ledger.AccountPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		respondWithAppError(w, err)
		return
	}

	res, err := book.UpdateAccount(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, AccountResponse{Account: res.Account, Accounts: res.Accounts})
}

// DeleteAccount handles DELETE /accounts/{id}. Transactions that reference
// the account are kept.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	book, ok := openBook(w, r, h.books)
	if !ok {
		return
	}

	res, err := book.DeleteAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, AccountResponse{Accounts: res.Accounts})
}

// GetAccountTransactions handles GET /accounts/{id}/transactions
func (h *AccountHandler) GetAccountTransactions(w http.ResponseWriter, r *http.Request) {
	book, ok := openBook(w, r, h.books)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := book.Account(id); err != nil {
		respondWithAppError(w, err)
		return
	}

	f := filterFromQuery(r)
	f.AccountID = id
	respondWithJSON(w, http.StatusOK, TransactionsResponse{Transactions: book.Transactions(f)})
}
