package handler

import (
	"net/http"

	"github.com/kislikjeka/wizmoney/internal/ledger"
	"github.com/kislikjeka/wizmoney/internal/platform/currency"
	"github.com/kislikjeka/wizmoney/pkg/money"
)

// SettingsHandler handles display currency and exchange rate requests
type SettingsHandler struct {
	books BookOpener
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(books BookOpener) *SettingsHandler {
	return &SettingsHandler{books: books}
}

// CurrencyOption is one selectable currency
type CurrencyOption struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// SettingsResponse is the currency settings plus the selectable currencies
type SettingsResponse struct {
	DisplayCurrency string           `json:"displayCurrency"`
	Base            string           `json:"base"`
	Rates           currency.Rates   `json:"rates"`
	Currencies      []CurrencyOption `json:"currencies"`
}

func (h *SettingsHandler) respond(w http.ResponseWriter, book *ledger.Book) {
	settings := book.Settings()

	codes := settings.Rates.Codes()
	options := make([]CurrencyOption, 0, len(codes))
	for _, code := range codes {
		options = append(options, CurrencyOption{Code: code, Label: money.Label(code)})
	}

	respondWithJSON(w, http.StatusOK, SettingsResponse{
		DisplayCurrency: settings.Display(),
		Base:            settings.Rates.Base(),
		Rates:           settings.Rates,
		Currencies:      options,
	})
}

// GetSettings handles GET /settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	book, ok := openBook(w, r, h.books)
	if !ok {
		return
	}
	h.respond(w, book)
}

// UpdateSettings handles PUT /settings. Rates are merged into the table;
// the change is all or nothing.
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	book, ok := openBook(w, r, h.books)
	if !ok {
		return
	}

	var patch ledger.SettingsPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		respondWithAppError(w, err)
		return
	}

	if _, err := book.UpdateSettings(r.Context(), patch); err != nil {
		respondWithAppError(w, err)
		return
	}
	h.respond(w, book)
}

// ResetRates handles POST /settings/rates/reset
func (h *SettingsHandler) ResetRates(w http.ResponseWriter, r *http.Request) {
	book, ok := openBook(w, r, h.books)
	if !ok {
		return
	}
	book.ResetRates(r.Context())
	h.respond(w, book)
}
