package request

// PaymentItemRequest is one invoice line in a payment request. Quantity
// defaults to 1 when omitted.
type PaymentItemRequest struct {
	ProductCode string `json:"product_code" binding:"required"`
	Description string `json:"description" binding:"required"`
	UnitPrice   string `json:"unit_price" binding:"required"`
	Quantity    int    `json:"quantity"`
	Tax         string `json:"tax"`
	Discount    string `json:"discount"`
}

// StartPaymentRequest represents a request to start a card payment.
// Amounts are decimal strings in major currency units ("10.00"), never
// floats.
type StartPaymentRequest struct {
	Amount        string               `json:"amount" binding:"required"`
	Currency      string               `json:"currency" binding:"required"`
	Operation     string               `json:"operation"`
	CompanyName   string               `json:"company_name" binding:"required"`
	PurchaseOrder string               `json:"purchase_order"`
	Reference     string               `json:"reference"`
	Service       string               `json:"service"`
	Tip           string               `json:"tip"`
	Metadata      map[string]string    `json:"metadata"`
	Items         []PaymentItemRequest `json:"items"`
}
