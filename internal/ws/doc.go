// Package ws implements the WebSocket hub for plantpulse.
//
// Hub manages a set of connected clients and broadcasts the current fleet
// snapshot to all of them on a configurable interval (default 5s in
// production).
//
// New(store, alerts, interval) creates a Hub.
// Hub.Run(ctx) starts the broadcast ticker — blocks until ctx is cancelled,
// then closes all active connections.
// Hub.ServeHTTP upgrades an HTTP connection to WebSocket, sends the current
// snapshot immediately on connect, then streams updates on each tick.
// Hub.Dispatch makes the hub a notify.Dispatcher: incident and alert
// notifications are pushed to all clients the moment they happen.
//
// Message format sent to clients:
//
//	{
//	  "event": "snapshot" | "notification",
//	  "data":  { /* snapshot: same schema as GET /api/v1/snapshot;
//	               notification: a notify.Notification */ }
//	}
//
// The upgrader accepts all origins. Apply CORS restrictions at the reverse
// proxy level. WebSocket endpoint is mounted at /ws/stream by the server.
package ws
