package telegram

type State string

const (
	StateIdle               State = "IDLE"
	StateWaitingPostText    State = "WAITING_POST_TEXT"
	StateWaitingCommentText State = "WAITING_COMMENT_TEXT"
	StateWaitingLexicon     State = "WAITING_LEXICON"
)
