package enum

// Currency is an ISO 4217 currency code.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyKES Currency = "KES"
)

func (c Currency) String() string {
	return string(c)
}

// IsZero reports whether no currency has been set.
func (c Currency) IsZero() bool {
	return c == ""
}
