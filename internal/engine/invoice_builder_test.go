package engine_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/paypoint/internal/domain/enum"
	"github.com/sangkips/paypoint/internal/engine"
	"github.com/sangkips/paypoint/pkg/apperror"
)

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestInvoiceTotalsCalculation(t *testing.T) {
	rig := buildRig(t, nil)

	invoice, err := rig.eng.BuildInvoice("").
		CompanyName("Acme Coffee").
		AddItemWith(func(b *engine.InvoiceItemBuilder) *engine.InvoiceItemBuilder {
			return b.
				ProductCode("SKU1").
				ProductDescription("Flat White").
				UnitPrice(decimalFromString(t, "4.50")).
				Quantity(2).
				NetTotal(decimalFromString(t, "9.00")).
				TaxTotal(decimalFromString(t, "0.90")).
				GrossTotal(decimalFromString(t, "9.90"))
		}).
		AddItemWith(func(b *engine.InvoiceItemBuilder) *engine.InvoiceItemBuilder {
			return b.
				ProductCode("SKU2").
				ProductDescription("Croissant").
				UnitPrice(decimalFromString(t, "3.00")).
				NetTotal(decimalFromString(t, "3.00")).
				DiscountTotal(decimalFromString(t, "0.50")).
				GrossTotal(decimalFromString(t, "2.50"))
		}).
		Tip(decimalFromString(t, "1.00")).
		CalculateTotals().
		Build()
	require.NoError(t, err)

	assert.True(t, invoice.NetTotal.Equal(decimalFromString(t, "12.00")), "net %s", invoice.NetTotal)
	assert.True(t, invoice.TaxTotal.Equal(decimalFromString(t, "0.90")), "tax %s", invoice.TaxTotal)
	assert.True(t, invoice.DiscountTotal.Equal(decimalFromString(t, "0.50")), "discount %s", invoice.DiscountTotal)
	assert.True(t, invoice.TipTotal.Equal(decimalFromString(t, "1.00")), "tip %s", invoice.TipTotal)

	// gross = net + tax - discount + tip
	assert.True(t, invoice.GrossTotal.Equal(decimalFromString(t, "13.40")), "gross %s", invoice.GrossTotal)
	assert.Len(t, invoice.Items, 2)
}

func TestInvoiceItemDefaults(t *testing.T) {
	rig := buildRig(t, nil)

	invoice, err := rig.eng.BuildInvoice("").
		CompanyName("Acme Coffee").
		AddItem("SKU1", "Flat White", decimalFromString(t, "4.50")).
		CalculateTotals().
		Build()
	require.NoError(t, err)

	require.Len(t, invoice.Items, 1)
	item := invoice.Items[0]
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, enum.SaleCodeSale, item.SaleCode)
	assert.Equal(t, enum.UnitOfMeasureEach, item.UnitOfMeasure)
	assert.True(t, item.Net.Equal(decimalFromString(t, "4.50")))
	assert.True(t, item.Gross.Equal(decimalFromString(t, "4.50")))
}

func TestCalculateTotalsWithKeepsOverrides(t *testing.T) {
	rig := buildRig(t, nil)

	invoice, err := rig.eng.BuildInvoice("").
		CompanyName("Acme Coffee").
		AddItem("SKU1", "Flat White", decimalFromString(t, "10.00")).
		NetTotal(decimalFromString(t, "9.00")).
		TaxTotal(decimalFromString(t, "1.80")).
		CalculateTotalsWith(engine.TotalsOptions{Gross: true}).
		Build()
	require.NoError(t, err)

	// Net and tax were supplied, only gross is derived.
	assert.True(t, invoice.NetTotal.Equal(decimalFromString(t, "9.00")))
	assert.True(t, invoice.TaxTotal.Equal(decimalFromString(t, "1.80")))
	assert.True(t, invoice.GrossTotal.Equal(decimalFromString(t, "10.80")))
}

func TestInvoiceBuilderValidation(t *testing.T) {
	rig := buildRig(t, nil)
	price := decimalFromString(t, "4.50")

	tests := []struct {
		name  string
		build func() error
	}{
		{
			name: "missing product code",
			build: func() error {
				_, err := rig.eng.BuildInvoice("").
					CompanyName("Acme Coffee").
					AddItem("", "Flat White", price).
					CalculateTotals().
					Build()
				return err
			},
		},
		{
			name: "missing description",
			build: func() error {
				_, err := rig.eng.BuildInvoice("").
					CompanyName("Acme Coffee").
					AddItem("SKU1", "", price).
					CalculateTotals().
					Build()
				return err
			},
		},
		{
			name: "no items",
			build: func() error {
				_, err := rig.eng.BuildInvoice("").
					CompanyName("Acme Coffee").
					CalculateTotals().
					Build()
				return err
			},
		},
		{
			name: "missing company name",
			build: func() error {
				_, err := rig.eng.BuildInvoice("").
					AddItem("SKU1", "Flat White", price).
					CalculateTotals().
					Build()
				return err
			},
		},
		{
			name: "totals never calculated",
			build: func() error {
				_, err := rig.eng.BuildInvoice("").
					CompanyName("Acme Coffee").
					AddItem("SKU1", "Flat White", price).
					Build()
				return err
			},
		},
		{
			name: "item added after totals",
			build: func() error {
				_, err := rig.eng.BuildInvoice("").
					CompanyName("Acme Coffee").
					AddItem("SKU1", "Flat White", price).
					CalculateTotals().
					AddItem("SKU2", "Croissant", price).
					Build()
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build()
			require.Error(t, err)
			assert.True(t, apperror.IsKind(err, apperror.KindValidation), "got %v", err)
		})
	}
}

func TestInvoiceReferenceGenerated(t *testing.T) {
	rig := buildRig(t, nil)

	invoice, err := rig.eng.BuildInvoice("").
		CompanyName("Acme Coffee").
		AddItem("SKU1", "Flat White", decimalFromString(t, "4.50")).
		CalculateTotals().
		Build()
	require.NoError(t, err)

	assert.NotEmpty(t, invoice.Reference)
	assert.Contains(t, invoice.Reference, "INV-")
}
