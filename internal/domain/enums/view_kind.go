package enums

type ViewKind string

const (
	ViewKindNone    ViewKind = ""
	ViewKindFeed    ViewKind = "feed"
	ViewKindCreate  ViewKind = "create"
	ViewKindProfile ViewKind = "profile"
	ViewKindAdmin   ViewKind = "admin"
)
