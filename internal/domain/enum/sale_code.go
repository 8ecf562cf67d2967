package enum

// SaleCode categorizes an invoice item for the processor.
type SaleCode string

const (
	SaleCodeSale   SaleCode = "S"
	SaleCodeReturn SaleCode = "R"
)

func (c SaleCode) String() string {
	return string(c)
}
