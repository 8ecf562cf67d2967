package enum

// ConnectionState is the connection status of a payment peripheral.
type ConnectionState int

const (
	ConnectionStateDisconnected ConnectionState = 0
	ConnectionStateConnecting   ConnectionState = 1
	ConnectionStateConnected    ConnectionState = 2
)

func (s ConnectionState) String() string {
	return [...]string{"Disconnected", "Connecting", "Connected"}[s]
}
