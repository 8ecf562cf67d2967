package enum

// SecureFormat is the format used for handling encrypted transaction data.
// Do not override the default unless the processor requires it.
type SecureFormat string

const (
	SecureFormatPinpad SecureFormat = "pinpad"
	SecureFormatIDTech SecureFormat = "idtech"
)

func (f SecureFormat) String() string {
	return string(f)
}
