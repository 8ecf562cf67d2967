package entity

import (
	"github.com/shopspring/decimal"

	"github.com/sangkips/paypoint/internal/domain/enum"
)

// InvoiceItem is a single line on an invoice. All monetary fields are
// caller-supplied fixed-point decimals. Gross, net, tax and discount are
// entered per item because each region calculates them differently.
type InvoiceItem struct {
	ProductCode   string             `json:"product_code"`
	Description   string             `json:"description"`
	SaleCode      enum.SaleCode      `json:"sale_code"`
	UnitPrice     decimal.Decimal    `json:"unit_price"`
	Quantity      int                `json:"quantity"`
	UnitOfMeasure enum.UnitOfMeasure `json:"unit_of_measure"`
	Gross         decimal.Decimal    `json:"gross"`
	Net           decimal.Decimal    `json:"net"`
	Tax           decimal.Decimal    `json:"tax"`
	Discount      decimal.Decimal    `json:"discount"`
}

// Invoice is an itemized bill attached to a transaction. It is immutable
// once built; totals are only valid after the builder's CalculateTotals step.
type Invoice struct {
	Reference              string          `json:"reference"`
	CompanyName            string          `json:"company_name"`
	PurchaseOrderReference string          `json:"purchase_order_reference,omitempty"`
	Items                  []InvoiceItem   `json:"items"`
	NetTotal               decimal.Decimal `json:"net_total"`
	TaxTotal               decimal.Decimal `json:"tax_total"`
	DiscountTotal          decimal.Decimal `json:"discount_total"`
	TipTotal               decimal.Decimal `json:"tip_total"`
	GrossTotal             decimal.Decimal `json:"gross_total"`
}
