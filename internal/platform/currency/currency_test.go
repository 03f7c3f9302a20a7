package currency_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/wizmoney/internal/platform/currency"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestConvert(t *testing.T) {
	rates := currency.DefaultRates()

	tests := []struct {
		name   string
		amount string
		from   string
		to     string
		want   string
	}{
		{name: "identity", amount: "123.45", from: "USD", to: "USD", want: "123.45"},
		{name: "identity ignores case", amount: "7", from: "usd", to: "USD", want: "7"},
		{name: "to base", amount: "100", from: "USD", to: "TWD", want: "3250"},
		{name: "from base", amount: "3250", from: "TWD", to: "USD", want: "100"},
		{name: "missing rate counts as one", amount: "10", from: "EUR", to: "TWD", want: "10"},
		{name: "empty code counts as base", amount: "10", from: "", to: "TWD", want: "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := currency.Convert(d(tt.amount), tt.from, tt.to, rates)
			assert.True(t, got.Equal(d(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestConvert_RoundTrip(t *testing.T) {
	rates, err := currency.NewRates("TWD", map[string]decimal.Decimal{
		"USD": d("32.5"),
		"JPY": d("0.21"),
		"EUR": d("35.17"),
	})
	require.NoError(t, err)

	amounts := []string{"1", "0.01", "1234.56", "99999.99"}
	pairs := [][2]string{{"USD", "JPY"}, {"EUR", "USD"}, {"TWD", "EUR"}, {"JPY", "TWD"}}

	for _, a := range amounts {
		for _, p := range pairs {
			there := currency.Convert(d(a), p[0], p[1], rates)
			back := currency.Convert(there, p[1], p[0], rates)
			assert.True(t, back.Sub(d(a)).Abs().LessThan(d("0.000001")),
				"%s %s->%s->%s = %s", a, p[0], p[1], p[0], back)
		}
	}
}

func TestRates_With(t *testing.T) {
	base := currency.DefaultRates()

	updated, err := base.With("jpy", d("0.21"))
	require.NoError(t, err)
	assert.True(t, updated.Has("JPY"))
	assert.False(t, base.Has("JPY"), "original table must not change")

	_, err = base.With("TWD", d("2"))
	assert.ErrorIs(t, err, currency.ErrBaseRate)

	_, err = base.With("EUR", d("0"))
	assert.ErrorIs(t, err, currency.ErrInvalidRate)

	_, err = base.With("EURO", d("1"))
	assert.ErrorIs(t, err, currency.ErrInvalidCurrency)

	removed := updated.Without("JPY")
	assert.False(t, removed.Has("JPY"))
	assert.True(t, updated.Has("JPY"))
}

func TestRates_Codes(t *testing.T) {
	rates, err := currency.NewRates("TWD", map[string]decimal.Decimal{"USD": d("32.5"), "EUR": d("35"), "TWD": d("9")})
	require.NoError(t, err)

	assert.Equal(t, []string{"TWD", "EUR", "USD"}, rates.Codes())
	assert.True(t, rates.Rate("TWD").Equal(d("1")))
}

func TestRates_JSON(t *testing.T) {
	rates := currency.DefaultRates()
	data, err := json.Marshal(rates)
	require.NoError(t, err)

	var decoded currency.Rates
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "TWD", decoded.Base())
	assert.True(t, decoded.Rate("USD").Equal(d("32.5")))

	err = json.Unmarshal([]byte(`{"base":"TWD","rates":{"USD":"-1"}}`), &decoded)
	assert.ErrorIs(t, err, currency.ErrInvalidRate)
}

func TestSettings(t *testing.T) {
	s := currency.DefaultSettings()
	assert.Equal(t, "TWD", s.Display())
	assert.True(t, s.ToDisplay(d("2"), "USD").Equal(d("65")))

	usd, err := currency.NewSettings("usd", s.Rates)
	require.NoError(t, err)
	assert.Equal(t, "USD", usd.Display())
	assert.True(t, usd.ToDisplay(d("65"), "TWD").Equal(d("2")))

	_, err = currency.NewSettings("dollars", s.Rates)
	assert.ErrorIs(t, err, currency.ErrInvalidCurrency)
}
