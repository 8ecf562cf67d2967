package enum

// UnitOfMeasure qualifies the quantity of an invoice item.
type UnitOfMeasure string

const (
	UnitOfMeasureEach     UnitOfMeasure = "Each"
	UnitOfMeasureHour     UnitOfMeasure = "Hour"
	UnitOfMeasureKilogram UnitOfMeasure = "Kilogram"
	UnitOfMeasureLitre    UnitOfMeasure = "Litre"
)

func (u UnitOfMeasure) String() string {
	return string(u)
}
