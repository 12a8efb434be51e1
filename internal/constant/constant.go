// Package constant defines the wire-protocol constants shared by the injected form
// collector script and the host-side form bridge.
package constant

const (
	// BridgeName is the identifier under which the host exposes the form bridge
	// to the page (window.FormInterceptorInterface).
	BridgeName = "FormInterceptorInterface"

	// BridgeMethod is the bridge method the injected script invokes with the
	// serialized form payload.
	BridgeMethod = "processFormData"
)

// Reserved payload keys.
const (
	StateKey = "state"
	CodeKey  = "code"
	ErrorKey = "error"
)

// CancelledValue is the provider error value reported when the user cancels.
const CancelledValue = "user_cancelled_authorize"

// Separators of the serialized form payload. Values are not escaped, so a value
// containing FormDataSeparator is split.
const (
	FormDataSeparator = "|"
	KeyValueSeparator = "="
)
