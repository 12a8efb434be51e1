package wsrelay

// Message represents the JSON payload exchanged with webview shells.
type Message struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Messages sent by the webview shell.
const (
	// MessageTypeResourceLoad reports a resource the webview is about to load.
	MessageTypeResourceLoad = "resource_load"
	// MessageTypeBridgeCall carries a page script call to a host bridge.
	MessageTypeBridgeCall = "bridge_call"
	// MessageTypeClosed reports that the user dismissed the webview.
	MessageTypeClosed = "closed"
	// MessageTypePing represents ping messages from shells.
	MessageTypePing = "ping"
)

// Messages sent by the host.
const (
	// MessageTypeBind asks the shell to expose a bridge to page scripts.
	MessageTypeBind = "bind"
	// MessageTypeUnbind removes a previously bound bridge.
	MessageTypeUnbind = "unbind"
	// MessageTypeLoadURL navigates the webview.
	MessageTypeLoadURL = "load_url"
	// MessageTypeStopLoading halts the current navigation.
	MessageTypeStopLoading = "stop_loading"
	// MessageTypeEvaluateScript runs a script in the current page.
	MessageTypeEvaluateScript = "evaluate_script"
	// MessageTypeError reports a failed bridge call back to the shell.
	MessageTypeError = "error"
	// MessageTypePong represents pong responses back to shells.
	MessageTypePong = "pong"
)

func payloadString(msg Message, key string) string {
	if msg.Payload == nil {
		return ""
	}
	value, _ := msg.Payload[key].(string)
	return value
}
