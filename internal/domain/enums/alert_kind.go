package enums

type AlertKind string

const (
	AlertKindWarning    AlertKind = "warning"
	AlertKindSuspension AlertKind = "suspension"
)

type AlertState string

const (
	AlertStateIdle    AlertState = "idle"
	AlertStateShowing AlertState = "showing"
)
