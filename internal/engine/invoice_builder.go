package engine

import (
	"github.com/shopspring/decimal"

	"github.com/sangkips/paypoint/internal/domain/entity"
	"github.com/sangkips/paypoint/internal/domain/enum"
	"github.com/sangkips/paypoint/pkg/apperror"
	"github.com/sangkips/paypoint/pkg/utils"
)

// InvoiceBuilder accumulates line items and computes invoice totals.
// Builder methods latch the first error and Build reports it, so calls can
// be chained without per-step checks. Items become immutable once totals
// are calculated.
type InvoiceBuilder struct {
	engine *Engine

	reference              string
	companyName            string
	purchaseOrderReference string
	items                  []entity.InvoiceItem
	tip                    decimal.Decimal

	netTotal      decimal.Decimal
	taxTotal      decimal.Decimal
	discountTotal decimal.Decimal
	grossTotal    decimal.Decimal

	totalsCalculated bool
	err              error
}

func newInvoiceBuilder(e *Engine, reference string) *InvoiceBuilder {
	if reference == "" {
		reference = utils.GenerateInvoiceReference()
	}
	return &InvoiceBuilder{engine: e, reference: reference}
}

// CompanyName sets the company name that appears on the invoice. Required.
func (b *InvoiceBuilder) CompanyName(name string) *InvoiceBuilder {
	b.companyName = name
	return b
}

// PurchaseOrderReference sets an optional purchase order code.
func (b *InvoiceBuilder) PurchaseOrderReference(reference string) *InvoiceBuilder {
	b.purchaseOrderReference = reference
	return b
}

// AddItem appends a simple single-quantity item priced at the given amount.
func (b *InvoiceBuilder) AddItem(productCode, description string, price decimal.Decimal) *InvoiceBuilder {
	return b.AddItemWith(func(item *InvoiceItemBuilder) *InvoiceItemBuilder {
		return item.
			ProductCode(productCode).
			ProductDescription(description).
			UnitPrice(price).
			GrossTotal(price).
			NetTotal(price)
	})
}

// AddItemWith appends an item configured through an item builder.
func (b *InvoiceBuilder) AddItemWith(configure func(*InvoiceItemBuilder) *InvoiceItemBuilder) *InvoiceBuilder {
	if b.err != nil {
		return b
	}
	if b.totalsCalculated {
		b.fail(apperror.NewValidationError("invoice items cannot change after totals are calculated"))
		return b
	}

	item := configure(newInvoiceItemBuilder()).build()
	if item.ProductCode == "" {
		b.fail(apperror.NewValidationError("invoice item product code is required"))
		return b
	}
	if item.Description == "" {
		b.fail(apperror.NewValidationError("invoice item description is required"))
		return b
	}

	b.items = append(b.items, item)
	return b
}

// Tip adds a tip amount included in the gross total calculation.
func (b *InvoiceBuilder) Tip(amount decimal.Decimal) *InvoiceBuilder {
	b.tip = amount
	return b
}

// NetTotal overrides the computed net total. Survives CalculateTotalsWith
// when net recomputation is suppressed.
func (b *InvoiceBuilder) NetTotal(amount decimal.Decimal) *InvoiceBuilder {
	b.netTotal = amount
	return b
}

// TaxTotal overrides the computed tax total.
func (b *InvoiceBuilder) TaxTotal(amount decimal.Decimal) *InvoiceBuilder {
	b.taxTotal = amount
	return b
}

// DiscountTotal overrides the computed discount total.
func (b *InvoiceBuilder) DiscountTotal(amount decimal.Decimal) *InvoiceBuilder {
	b.discountTotal = amount
	return b
}

// TotalsOptions selects which totals CalculateTotalsWith recomputes.
// A false field keeps the caller-supplied override.
type TotalsOptions struct {
	Net      bool
	Discount bool
	Tax      bool
	Gross    bool
}

// CalculateTotals computes all four totals from the item amounts:
// net, discount and tax are sums over the items, and gross is
// net + tax - discount + tip. Items are frozen afterwards.
func (b *InvoiceBuilder) CalculateTotals() *InvoiceBuilder {
	return b.CalculateTotalsWith(TotalsOptions{Net: true, Discount: true, Tax: true, Gross: true})
}

// CalculateTotalsWith computes only the selected totals, keeping overrides
// for the rest.
func (b *InvoiceBuilder) CalculateTotalsWith(opts TotalsOptions) *InvoiceBuilder {
	if b.err != nil {
		return b
	}

	if opts.Net {
		net := decimal.Zero
		for _, item := range b.items {
			net = net.Add(item.Net)
		}
		b.netTotal = net
	}
	if opts.Discount {
		discount := decimal.Zero
		for _, item := range b.items {
			discount = discount.Add(item.Discount)
		}
		b.discountTotal = discount
	}
	if opts.Tax {
		tax := decimal.Zero
		for _, item := range b.items {
			tax = tax.Add(item.Tax)
		}
		b.taxTotal = tax
	}
	if opts.Gross {
		b.grossTotal = b.netTotal.Add(b.taxTotal).Sub(b.discountTotal).Add(b.tip)
	}

	b.totalsCalculated = true
	return b
}

// Build validates the accumulated state and produces the immutable invoice.
// The reference is registered as in-flight; it is released when the
// transaction carrying the invoice reaches a terminal state.
func (b *InvoiceBuilder) Build() (*entity.Invoice, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.items) == 0 {
		return nil, apperror.NewValidationError("invoice requires at least one item")
	}
	if b.companyName == "" {
		return nil, apperror.NewValidationError("invoice company name is required")
	}
	if !b.totalsCalculated {
		return nil, apperror.NewValidationError("invoice totals have not been calculated")
	}
	if err := b.engine.registerInvoiceRef(b.reference); err != nil {
		return nil, err
	}

	items := make([]entity.InvoiceItem, len(b.items))
	copy(items, b.items)

	return &entity.Invoice{
		Reference:              b.reference,
		CompanyName:            b.companyName,
		PurchaseOrderReference: b.purchaseOrderReference,
		Items:                  items,
		NetTotal:               b.netTotal,
		TaxTotal:               b.taxTotal,
		DiscountTotal:          b.discountTotal,
		TipTotal:               b.tip,
		GrossTotal:             b.grossTotal,
	}, nil
}

func (b *InvoiceBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// InvoiceItemBuilder configures one invoice line item. Gross, net, tax and
// discount are entered explicitly because each region calculates them
// differently; nothing here is derived from floating point.
type InvoiceItemBuilder struct {
	item entity.InvoiceItem
}

func newInvoiceItemBuilder() *InvoiceItemBuilder {
	return &InvoiceItemBuilder{
		item: entity.InvoiceItem{
			SaleCode:      enum.SaleCodeSale,
			Quantity:      1,
			UnitOfMeasure: enum.UnitOfMeasureEach,
		},
	}
}

// ProductCode sets the product or service code or SKU. Required.
func (b *InvoiceItemBuilder) ProductCode(code string) *InvoiceItemBuilder {
	b.item.ProductCode = code
	return b
}

// ProductDescription describes the product or service. Required.
func (b *InvoiceItemBuilder) ProductDescription(description string) *InvoiceItemBuilder {
	b.item.Description = description
	return b
}

// SaleCode sets the sale code. Defaults to SaleCodeSale.
func (b *InvoiceItemBuilder) SaleCode(code enum.SaleCode) *InvoiceItemBuilder {
	b.item.SaleCode = code
	return b
}

// UnitPrice sets the unit price in the currency of the transaction. Required.
func (b *InvoiceItemBuilder) UnitPrice(price decimal.Decimal) *InvoiceItemBuilder {
	b.item.UnitPrice = price
	return b
}

// Quantity sets the quantity sold. Defaults to 1.
func (b *InvoiceItemBuilder) Quantity(quantity int) *InvoiceItemBuilder {
	b.item.Quantity = quantity
	return b
}

// UnitOfMeasure sets the unit for the quantity. Defaults to Each.
func (b *InvoiceItemBuilder) UnitOfMeasure(unit enum.UnitOfMeasure) *InvoiceItemBuilder {
	b.item.UnitOfMeasure = unit
	return b
}

// GrossTotal sets the item's gross amount.
func (b *InvoiceItemBuilder) GrossTotal(amount decimal.Decimal) *InvoiceItemBuilder {
	b.item.Gross = amount
	return b
}

// NetTotal sets the item's net amount.
func (b *InvoiceItemBuilder) NetTotal(amount decimal.Decimal) *InvoiceItemBuilder {
	b.item.Net = amount
	return b
}

// TaxTotal sets the item's tax amount.
func (b *InvoiceItemBuilder) TaxTotal(amount decimal.Decimal) *InvoiceItemBuilder {
	b.item.Tax = amount
	return b
}

// DiscountTotal sets the item's discount amount.
func (b *InvoiceItemBuilder) DiscountTotal(amount decimal.Decimal) *InvoiceItemBuilder {
	b.item.Discount = amount
	return b
}

func (b *InvoiceItemBuilder) build() entity.InvoiceItem {
	return b.item
}
