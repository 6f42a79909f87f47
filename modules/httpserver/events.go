package httpserver

// Server lifecycle events, in CloudEvents reverse domain notation.
const (
	EventTypeServerStarted = "com.modkit.httpserver.server.started"
	EventTypeServerStopped = "com.modkit.httpserver.server.stopped"
	EventTypeServerFailed  = "com.modkit.httpserver.server.failed"
)

// EventSource is the CloudEvents source of server events.
const EventSource = "modkit/httpserver"
