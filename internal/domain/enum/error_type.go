package enum

// ErrorType classifies a transaction error reported locally or by the
// remote payment service. The remote vocabulary may evolve independently
// of this client, so unrecognized values degrade to ErrorTypeUnknown
// instead of failing response handling.
type ErrorType string

const (
	// ErrorTypeProcess is an error reported by the server or processor
	// while processing the transaction.
	ErrorTypeProcess ErrorType = "process"
	// ErrorTypeException is an unexpected server-side exception.
	ErrorTypeException ErrorType = "exception"
	// ErrorTypeValidation is a server-side rejection of the request data.
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypePreprocessException is a local fault raised before the
	// transaction was dispatched to the server. The transaction was not
	// uploaded and is safe to retry.
	ErrorTypePreprocessException ErrorType = "preprocessException"
	// ErrorTypeUnknown is the forward-compatibility catch-all.
	ErrorTypeUnknown ErrorType = "unknown"
)

func (t ErrorType) String() string {
	return string(t)
}

// IsLocal reports whether the error originated before gateway dispatch.
func (t ErrorType) IsLocal() bool {
	return t == ErrorTypePreprocessException
}

// ParseErrorType maps a raw error type value to a known classification.
// Values this client does not recognize come back as ErrorTypeUnknown.
func ParseErrorType(raw string) ErrorType {
	switch ErrorType(raw) {
	case ErrorTypeProcess, ErrorTypeException, ErrorTypeValidation, ErrorTypePreprocessException:
		return ErrorType(raw)
	}
	return ErrorTypeUnknown
}
