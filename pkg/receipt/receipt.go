package receipt

import "strings"

// Width is the fixed character width of a receipt line, matching 58mm
// thermal paper.
const Width = 32

// TextLine renders a two-column line: left text, padding, right text,
// always exactly Width characters. When the two sides cannot fit on one
// line the result is an empty string; lines are never wrapped or
// truncated.
func TextLine(left, right string) string {
	if len(left)+len(right) > Width {
		return ""
	}
	return left + strings.Repeat(" ", Width-len(left)-len(right)) + right
}

// Center pads text so it sits centered within Width. Text wider than the
// line is returned unchanged.
func Center(text string) string {
	if len(text) >= Width {
		return text
	}
	return strings.Repeat(" ", (Width-len(text))/2) + text
}

// Separator is the horizontal rule used between receipt sections.
func Separator() string {
	return strings.Repeat("_", Width)
}

// Receipt holds the pre-formatted fields printed on a card payment
// receipt. Callers supply the masked PAN only; the full card number is
// never available to this package.
type Receipt struct {
	CompanyName string
	Operation   string // e.g. "SALE" or "REFUND"
	Merchant    string
	Scheme      string
	MaskedPAN   string
	Status      string
	Date        string
	OrderRef    string
	Total       string // e.g. "10.00 USD"
}

// Render produces the receipt as fixed-width UTF-8 text.
func (r Receipt) Render() string {
	var b strings.Builder

	line := func(s string) {
		b.WriteString(s)
		b.WriteString("\n")
	}

	line(Center(r.CompanyName))
	line(" ")
	line(Separator())
	line(" ")
	line(Center(strings.ToUpper(r.Operation)))
	line(" ")
	line(TextLine("Merchant", r.Merchant))
	line(TextLine(strings.ToUpper(r.Scheme), r.MaskedPAN))
	line(" ")
	line(Center(strings.ToUpper(r.Status)))
	line(TextLine("Date", r.Date))
	line(TextLine("Order #", r.OrderRef))
	line(" ")
	line(TextLine("Total", r.Total))
	line(" ")
	line("I agree to pay the above total")
	line("amount according to card issuer")
	line("agreement.")
	line(" ")
	line(" ")
	line(" ")
	line(Separator())
	line(Center("Customer Signature"))
	line(" ")
	line(Center("Thank You"))
	line(" ")

	return b.String()
}
