package report

import (
	"strings"

	"github.com/kislikjeka/wizmoney/internal/ledger"
)

// OtherCategory collects expenses without a category
const OtherCategory = "other"

// DefaultColor is used for categories outside the registry
const DefaultColor = "#CCCCCC"

// Category is a known category with its display color
type Category struct {
	Name  string                 `json:"name"`
	Type  ledger.TransactionType `json:"type"`
	Color string                 `json:"color"`
}

// CategoryRegistry is the fixed set of built-in categories. Transactions may
// use any category name; the registry only supplies suggestions and colors.
type CategoryRegistry struct {
	categories []Category
	colors     map[string]string
}

// NewCategoryRegistry builds a registry. Later entries win on color clashes.
func NewCategoryRegistry(categories []Category) *CategoryRegistry {
	r := &CategoryRegistry{
		categories: append([]Category(nil), categories...),
		colors:     make(map[string]string, len(categories)),
	}
	for _, c := range categories {
		if c.Color != "" {
			r.colors[strings.ToLower(c.Name)] = c.Color
		}
	}
	return r
}

// DefaultCategories returns the built-in category registry
func DefaultCategories() *CategoryRegistry {
	return NewCategoryRegistry([]Category{
		{Name: "food", Type: ledger.TxTypeExpense, Color: "#F87171"},
		{Name: "transport", Type: ledger.TxTypeExpense, Color: "#60A5FA"},
		{Name: "shopping", Type: ledger.TxTypeExpense, Color: "#F472B6"},
		{Name: "housing", Type: ledger.TxTypeExpense, Color: "#34D399"},
		{Name: "entertainment", Type: ledger.TxTypeExpense, Color: "#A78BFA"},
		{Name: "medical", Type: ledger.TxTypeExpense, Color: "#EF4444"},
		{Name: "education", Type: ledger.TxTypeExpense, Color: "#FBBF24"},
		{Name: OtherCategory, Type: ledger.TxTypeExpense, Color: "#9CA3AF"},
		{Name: "salary", Type: ledger.TxTypeIncome, Color: "#10B981"},
		{Name: "bonus", Type: ledger.TxTypeIncome, Color: "#3B82F6"},
		{Name: "investment", Type: ledger.TxTypeIncome, Color: "#8B5CF6"},
		{Name: "part-time", Type: ledger.TxTypeIncome},
		{Name: OtherCategory, Type: ledger.TxTypeIncome},
		{Name: ledger.TransferCategory, Type: ledger.TxTypeTransfer, Color: "#64748B"},
	})
}

// Color returns the display color of a category
func (r *CategoryRegistry) Color(name string) string {
	if c, ok := r.colors[strings.ToLower(name)]; ok {
		return c
	}
	return DefaultColor
}

// ForType lists the categories suggested for a transaction type
func (r *CategoryRegistry) ForType(t ledger.TransactionType) []Category {
	var out []Category
	for _, c := range r.categories {
		if c.Type == t {
			c.Color = r.Color(c.Name)
			out = append(out, c)
		}
	}
	return out
}

// All lists every registered category
func (r *CategoryRegistry) All() []Category {
	out := make([]Category, len(r.categories))
	for i, c := range r.categories {
		c.Color = r.Color(c.Name)
		out[i] = c
	}
	return out
}
