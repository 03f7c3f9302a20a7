package currency

import "github.com/shopspring/decimal"

// Convert converts amount from one currency to another by pivoting through the
// base: amount * rate[from] / rate[to]. Equal codes return amount untouched,
// missing rates count as 1.
func Convert(amount decimal.Decimal, from, to string, rates Rates) decimal.Decimal {
	from, to = NormalizeCode(from), NormalizeCode(to)
	if from == to {
		return amount
	}
	return amount.Mul(rates.Rate(from)).Div(rates.Rate(to))
}
