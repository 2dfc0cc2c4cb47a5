package session

// ActionID identifies one queued account action.
type ActionID int

// Account actions executed by the worker's queue-processing pass.
const (
	// ActionDummy is the no-op polling placeholder.
	ActionDummy ActionID = iota
	// ActionCodeExchange exchanges a pending authorization code + verifier
	// for a token pair.
	ActionCodeExchange
	// ActionTestWithRefresh validates the current access token against the
	// identity provider, refreshing it first when stale.
	ActionTestWithRefresh
	// ActionRefresh performs a refresh-grant exchange.
	ActionRefresh
	// ActionConnectPrinterModels fetches the cloud printer-models document.
	ActionConnectPrinterModels
	// ActionConnectStatus fetches the cloud status document.
	ActionConnectStatus
	// ActionPrinterDataFromUUID fetches printer detail by UUID.
	ActionPrinterDataFromUUID
	// ActionAvatar downloads the account avatar by URL.
	ActionAvatar
)

// String names the action for logs and failure events.
func (id ActionID) String() string {
	switch id {
	case ActionDummy:
		return "dummy"
	case ActionCodeExchange:
		return "code-exchange"
	case ActionTestWithRefresh:
		return "test-with-refresh"
	case ActionRefresh:
		return "refresh"
	case ActionConnectPrinterModels:
		return "connect-printer-models"
	case ActionConnectStatus:
		return "connect-status"
	case ActionPrinterDataFromUUID:
		return "printer-data-by-uuid"
	case ActionAvatar:
		return "avatar-by-url"
	default:
		return "unknown"
	}
}

// Action is one queued operation with an optional string payload (URL or
// UUID).
type Action struct {
	ID      ActionID
	Payload string
}
