package notify

import (
	"context"

	"github.com/plantpulse/plantpulse/internal/model"
)

// Notification is one outbound message about fleet state.
type Notification struct {
	Severity   model.Tier        `json:"severity"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	Recipients []string          `json:"recipients,omitempty"`
	Context    map[string]string `json:"context,omitempty"`
}

// Delivery is the outcome on one channel. Failures are reported here,
// never as an error from Dispatch: notification trouble must not break
// the caller.
type Delivery struct {
	Channel string `json:"channel"`
	OK      bool   `json:"ok"`
	Detail  string `json:"detail,omitempty"`
}

// Dispatcher fans a notification out to its configured channels and
// reports per-channel delivery status.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) []Delivery
}
