// Package alerts holds the single-slot moderation alert shown to a chat.
//
// A chat is either Idle or Showing one alert. A new alert replaces the shown
// one immediately; nothing is queued. Only an explicit acknowledgment clears
// the slot; outside dismissal is allowed for warnings only, unless configured
// otherwise. The coordinator never touches the session.
package alerts

import (
	"sync"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/enums"
	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
)

type Options struct {
	AllowSuspensionDismiss bool
}

type Showing struct {
	Seq   uint64
	Alert model.ModerationAlert
}

type Coordinator struct {
	opts Options

	mu      sync.Mutex
	current *Showing
	lastSeq uint64
}

func NewCoordinator(opts Options) *Coordinator {
	return &Coordinator{opts: opts}
}

// Show moves the coordinator to Showing(alert) and returns the sequence number
// that identifies this particular display.
func (c *Coordinator) Show(alert model.ModerationAlert) Showing {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastSeq++
	showing := Showing{Seq: c.lastSeq, Alert: alert}
	c.current = &showing
	return showing
}

// AcknowledgeSeq clears the slot only when seq is the alert currently shown.
func (c *Coordinator) AcknowledgeSeq(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil || c.current.Seq != seq {
		return false
	}
	c.current = nil
	return true
}

// Dismiss closes whatever alert is shown, as an interaction outside the alert
// would. Suspensions stay unless configured otherwise.
func (c *Coordinator) Dismiss() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil || !c.dismissible(c.current.Alert) {
		return false
	}
	c.current = nil
	return true
}

func (c *Coordinator) DismissSeq(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil || c.current.Seq != seq || !c.dismissible(c.current.Alert) {
		return false
	}
	c.current = nil
	return true
}

// Dismissible reports whether an alert of this kind may be closed without acknowledgment.
func (c *Coordinator) Dismissible(kind enums.AlertKind) bool {
	return kind != enums.AlertKindSuspension || c.opts.AllowSuspensionDismiss
}

func (c *Coordinator) dismissible(alert model.ModerationAlert) bool {
	return c.Dismissible(alert.Kind)
}

func (c *Coordinator) State() (enums.AlertState, *model.ModerationAlert, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return enums.AlertStateIdle, nil, 0
	}
	alert := c.current.Alert
	return enums.AlertStateShowing, &alert, c.current.Seq
}
