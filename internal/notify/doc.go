// Package notify delivers fleet alerts to outbound channels: Teams and
// Slack webhooks, plain HTTP endpoints, and the structured log. Delivery
// is best effort with per-channel status reporting; a failing channel
// never fails the caller.
package notify
