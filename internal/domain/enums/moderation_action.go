package enums

import "strings"

type ModerationAction string

const (
	ModerationActionNone      ModerationAction = "none"
	ModerationActionWarned    ModerationAction = "warned"
	ModerationActionBlocked   ModerationAction = "blocked"
	ModerationActionSuspended ModerationAction = "suspended"
)

// ParseModerationAction accepts the spellings used by both backend contracts.
// "block" stops the content without touching the account.
func ParseModerationAction(raw string) ModerationAction {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "warning", "warn", "warned":
		return ModerationActionWarned
	case "block", "blocked":
		return ModerationActionBlocked
	case "suspension", "suspend", "suspended":
		return ModerationActionSuspended
	default:
		return ModerationActionNone
	}
}

func (a ModerationAction) AlertKind() AlertKind {
	if a == ModerationActionSuspended {
		return AlertKindSuspension
	}
	return AlertKindWarning
}

// StopsContent reports whether the content must not be published.
func (a ModerationAction) StopsContent() bool {
	return a == ModerationActionBlocked || a == ModerationActionSuspended
}
