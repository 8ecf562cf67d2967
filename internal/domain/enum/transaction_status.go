package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// TransactionStatus represents the state of a transaction in the runner
type TransactionStatus int

const (
	TransactionStatusCreated      TransactionStatus = 0
	TransactionStatusSubmitted    TransactionStatus = 1
	TransactionStatusAwaitingCard TransactionStatus = 2
	TransactionStatusAuthorizing  TransactionStatus = 3
	TransactionStatusCompleted    TransactionStatus = 4
	TransactionStatusDeclined     TransactionStatus = 5
	TransactionStatusFailed       TransactionStatus = 6
	TransactionStatusStopped      TransactionStatus = 7
)

func (s TransactionStatus) String() string {
	return [...]string{
		"Created",
		"Submitted",
		"AwaitingCard",
		"Authorizing",
		"Completed",
		"Declined",
		"Failed",
		"Stopped",
	}[s]
}

// IsTerminal reports whether the status ends the transaction lifecycle.
// Exactly one TransactionResult is delivered per terminal status.
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case TransactionStatusCompleted, TransactionStatusDeclined, TransactionStatusFailed, TransactionStatusStopped:
		return true
	}
	return false
}

func (s TransactionStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *TransactionStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		// Try unmarshaling as int
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = TransactionStatus(i)
		return nil
	}
	switch str {
	case "Created":
		*s = TransactionStatusCreated
	case "Submitted":
		*s = TransactionStatusSubmitted
	case "AwaitingCard":
		*s = TransactionStatusAwaitingCard
	case "Authorizing":
		*s = TransactionStatusAuthorizing
	case "Completed":
		*s = TransactionStatusCompleted
	case "Declined":
		*s = TransactionStatusDeclined
	case "Failed":
		*s = TransactionStatusFailed
	case "Stopped":
		*s = TransactionStatusStopped
	}
	return nil
}

func (s TransactionStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *TransactionStatus) Scan(value interface{}) error {
	if value == nil {
		*s = TransactionStatusCreated
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = TransactionStatus(v)
	case int:
		*s = TransactionStatus(v)
	}
	return nil
}
