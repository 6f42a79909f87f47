package chimux

// Event types emitted by the router.
const (
	EventTypeRouterCreated    = "com.modkit.chimux.router.created"
	EventTypeCorsConfigured   = "com.modkit.chimux.cors.configured"
	EventTypeRequestReceived  = "com.modkit.chimux.request.received"
	EventTypeRequestProcessed = "com.modkit.chimux.request.processed"
	EventTypeRequestFailed    = "com.modkit.chimux.request.failed"
)

// EventSource is the CloudEvents source of router events.
const EventSource = "modkit/chimux"
