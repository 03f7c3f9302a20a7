package handler

import (
	"net/http"
	"strings"

	"github.com/kislikjeka/wizmoney/internal/ledger"
	"github.com/kislikjeka/wizmoney/internal/module/report"
)

// ReportHandler serves aggregated views of the book
type ReportHandler struct {
	books   BookOpener
	reports *report.Service
}

// NewReportHandler creates a new report handler
func NewReportHandler(books BookOpener, reports *report.Service) *ReportHandler {
	if reports == nil {
		reports = report.NewService()
	}
	return &ReportHandler{books: books, reports: reports}
}

// CategoriesResponse lists the default categories with their colors
type CategoriesResponse struct {
	Categories []report.Category `json:"categories"`
}

// GetDashboard handles GET /reports/dashboard?range=&start=&end=
func (h *ReportHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	book, ok := openBook(w, r, h.books)
	if !ok {
		return
	}

	q := r.URL.Query()
	rng, err := report.ParseRange(q.Get("range"), q.Get("start"), q.Get("end"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	dashboard, err := h.reports.Dashboard(book.Snapshot(), rng)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, dashboard)
}

// GetCategories handles GET /categories?type=
func (h *ReportHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	registry := h.reports.Categories()

	raw := strings.TrimSpace(r.URL.Query().Get("type"))
	if raw == "" {
		respondWithJSON(w, http.StatusOK, CategoriesResponse{Categories: registry.All()})
		return
	}

	txType := ledger.TransactionType(strings.ToLower(raw))
	if !txType.IsValid() {
		respondWithAppError(w, ledger.ErrInvalidTransactionType)
		return
	}
	respondWithJSON(w, http.StatusOK, CategoriesResponse{Categories: registry.ForType(txType)})
}
