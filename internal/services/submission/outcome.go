package submission

import "github.com/ivankudzin/tgapp/feedbot/internal/domain/model"

type OutcomeKind string

const (
	OutcomeAccepted            OutcomeKind = "accepted"
	OutcomeAcceptedWithWarning OutcomeKind = "accepted_with_warning"
	OutcomeRejected            OutcomeKind = "rejected"
	OutcomeFailed              OutcomeKind = "failed"
)

// Outcome is what a single submission ends as. Post and Comment are set only when
// the item was published; Alert only when the backend flagged the content.
type Outcome struct {
	Kind    OutcomeKind
	Post    *model.Post
	Comment *model.Comment
	Alert   *model.ModerationAlert
	Reason  string
}

// Published reports whether the feed should gain the submitted item.
func (o Outcome) Published() bool {
	return o.Kind == OutcomeAccepted || o.Kind == OutcomeAcceptedWithWarning
}
