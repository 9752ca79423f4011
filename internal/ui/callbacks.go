package ui

import "strconv"

const (
	CallbackPrefixPost  = "post"
	CallbackPrefixAlert = "alr"
	CallbackPrefixFeed  = "feed"

	ActionLike    = "like"
	ActionUnlike  = "unlike"
	ActionComment = "comment"
	ActionDelete  = "delete"
	ActionRetry   = "retry"
	ActionAck     = "ack"
	ActionClose   = "close"
	ActionPage    = "page"
)

func postCallback(action string, postID int64) string {
	return CallbackPrefixPost + ":" + action + ":" + strconv.FormatInt(postID, 10)
}

func alertCallback(action string, seq uint64) string {
	return CallbackPrefixAlert + ":" + action + ":" + strconv.FormatUint(seq, 10)
}

func pageCallback(page int) string {
	return CallbackPrefixFeed + ":" + ActionPage + ":" + strconv.Itoa(page)
}

// RetryCallback is attached to failure messages that kept a draft.
func RetryCallback() string {
	return CallbackPrefixPost + ":" + ActionRetry
}
