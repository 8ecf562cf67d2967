package enum

// Operation is the kind of payment operation a transaction performs.
type Operation string

const (
	// OperationSale performs auth and capture in one step.
	OperationSale Operation = "sale"
	// OperationRefund returns funds to the customer.
	OperationRefund Operation = "refund"
	// OperationAuthOnly authorizes without capturing.
	OperationAuthOnly Operation = "authOnly"
)

func (o Operation) String() string {
	return string(o)
}

// Valid reports whether the operation is one of the supported kinds.
func (o Operation) Valid() bool {
	switch o {
	case OperationSale, OperationRefund, OperationAuthOnly:
		return true
	}
	return false
}
