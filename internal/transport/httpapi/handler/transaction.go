package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kislikjeka/wizmoney/internal/ledger"
	"github.com/kislikjeka/wizmoney/internal/module/export"
	apperr "github.com/kislikjeka/wizmoney/internal/shared/errors"
	"github.com/kislikjeka/wizmoney/pkg/logger"
)

// TransactionHandler handles transaction requests
type TransactionHandler struct {
	books  BookOpener
	now    func() time.Time
	logger *logger.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(books BookOpener, log *logger.Logger) *TransactionHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &TransactionHandler{books: books, now: time.Now, logger: log.WithComponent("http")}
}

// TransactionsResponse lists transactions
type TransactionsResponse struct {
	Transactions []ledger.Transaction `json:"transactions"`
}

// MutationResponse carries the touched record and every slice the
// mutation changed. Untouched slices are null.
type MutationResponse struct {
	Transaction  *ledger.Transaction  `json:"transaction,omitempty"`
	Template     *ledger.Template     `json:"template,omitempty"`
	Transactions []ledger.Transaction `json:"transactions"`
	Accounts     []ledger.Account     `json:"accounts"`
	Templates    []ledger.Template    `json:"templates"`
}

func mutationResponse(res ledger.Result) MutationResponse {
	return MutationResponse{
		Transaction:  res.Transaction,
		Template:     res.Template,
		Transactions: res.Transactions,
		Accounts:     res.Accounts,
		Templates:    res.Templates,
	}
}

// createOptions are read from the same body as the transaction
type createOptions struct {
	SaveAsTemplate bool   `json:"saveAsTemplate"`
	TemplateName   string `json:"templateName"`
}

// ImportRequest is the body of POST /transactions/import
type ImportRequest struct {
	Transactions []ledger.Transaction `json:"transactions"`
}

// ImportResponse reports the import and the resulting balances
type ImportResponse struct {
	ledger.ImportReport
	Accounts []ledger.Account `json:"accounts"`
}

// TagsResponse lists the tag universe
type TagsResponse struct {
	Tags []string `json:"tags"`
}

// filterFromQuery reads type, tag and q
func filterFromQuery(r *http.Request) ledger.Filter {
	q := r.URL.Query()
	return ledger.Filter{
		Type:  ledger.TransactionType(q.Get("type")),
		Tag:   q.Get("tag"),
		Query: q.Get("q"),
	}
}

// GetTransactions handles GET /transactions?type=&tag=&q=&account=
func (h *TransactionHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	book, ok := openBook(w, r, h.books)
	if !ok {
		return
	}

	f := filterFromQuery(r)
	f.AccountID = r.URL.Query().Get("account")
	respondWithJSON(w, http.StatusOK, TransactionsResponse{Transactions: book.Transactions(f)})
}

// GetTransaction handles GET /transactions/{id}
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	book, ok := openBook(w, r, h.books)
	if !ok {
		return
	}

	tx, err := book.Transaction(chi.URLParam(r, "id"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, tx)
}

// CreateTransaction handles POST /transactions. The body is a transaction
// plus optional saveAsTemplate and templateName fields.
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	book, ok := openBook(w, r, h.books)
	if !ok {
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	var draft ledger.Transaction
	var opts createOptions
	if json.Unmarshal(body, &draft) != nil || json.Unmarshal(body, &opts) != nil {
		respondWithAppError(w, apperr.BadRequest("invalid request body"))
		return
	}

	res, err := book.AddTransaction(r.Context(), draft, ledger.AddOptions{
		SaveAsTemplate: opts.SaveAsTemplate,
		TemplateName:   opts.TemplateName,
	})
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, mutationResponse(res))
}

// UpdateTransaction handles PUT /transactions/{id}
func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	book, ok := openBook(w, r, h.books)
	if !ok {
		return
	}

	var tx ledger.Transaction
	if err := decodeJSON(w, r, &tx); err != nil {
		respondWithAppError(w, err)
		return
	}
	tx.ID = chi.URLParam(r, "id")

	res, err := book.UpdateTransaction(r.Context(), tx)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, mutationResponse(res))
}

// DeleteTransaction handles DELETE /transactions/{id}
func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	book, ok := openBook(w, r, h.books)
	if !ok {
		return
	}

	res, err := book.DeleteTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, mutationResponse(res))
}

// ImportTransactions handles POST /transactions/import. Invalid rows are
// skipped and reported; valid rows are applied in order.
func (h *TransactionHandler) ImportTransactions(w http.ResponseWriter, r *http.Request) {
	book, ok := openBook(w, r, h.books)
	if !ok {
		return
	}

	var req ImportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithAppError(w, err)
		return
	}

	report := book.Import(r.Context(), req.Transactions)
	h.logger.WithContext(r.Context()).Info("transactions imported",
		"applied", report.Applied,
		"skipped", report.Skipped)

	respondWithJSON(w, http.StatusOK, ImportResponse{ImportReport: report, Accounts: book.Accounts()})
}

// ExportTransactions handles GET /transactions/export?type=&tag=&q=&bom=
func (h *TransactionHandler) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	book, ok := openBook(w, r, h.books)
	if !ok {
		return
	}

	opts := export.DefaultOptions()
	opts.Filter = filterFromQuery(r)
	if raw := r.URL.Query().Get("bom"); raw != "" {
		bom, err := strconv.ParseBool(raw)
		if err != nil {
			respondWithAppError(w, apperr.Validation("bom must be a boolean"))
			return
		}
		opts.BOM = bom
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(h.now())))
	w.WriteHeader(http.StatusOK)
	if err := export.WriteCSV(w, book.Snapshot(), opts); err != nil {
		h.logger.WithContext(r.Context()).WithError(err).Error("failed to write export")
	}
}

// GetTags handles GET /tags
func (h *TransactionHandler) GetTags(w http.ResponseWriter, r *http.Request) {
	book, ok := openBook(w, r, h.books)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, TagsResponse{Tags: book.Tags()})
}
