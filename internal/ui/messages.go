package ui

import (
	"fmt"
	"strings"
	"time"
)

const (
	MsgLoginUsage       = "Usage: /login <username> <password>"
	MsgRegisterUsage    = "Usage: /register <username> <email> <password>"
	MsgNeedLogin        = "Please log in first: /login <username> <password>"
	MsgLoggedOut        = "You have been logged out."
	MsgInvalidLogin     = "Invalid credentials"
	MsgAccountSuspended = "Account is suspended"
	MsgSessionSuspended = "Your account is suspended. You have been logged out."
	MsgNoAccess         = "Admin rights required."
	MsgEnterPost        = "Send the text of your post, or a photo with a caption."
	MsgEnterComment     = "Send your comment."
	MsgEmptyPost        = "Post content cannot be empty."
	MsgEmptyComment     = "Comment cannot be empty."
	MsgPhotosDisabled   = "Photo posts are not available right now."
	MsgPhotoTooLarge    = "The photo is too large."
	MsgNoDraft          = "Nothing to retry."
	MsgCancelled        = "Cancelled."
	MsgPostDeleted      = "Post deleted."
	MsgCommentAdded     = "Comment added."
	MsgFeedEmpty        = "No posts yet. Be the first: /post <text>"
	MsgTryAgain         = "Something went wrong. Please try again."
	MsgUnknownCommand   = "Unknown command. Send /start to see what I can do."
	MsgLexiconUsage     = "Usage: /lexicon stats | reload [path] | append <text> | replace <text>"
	MsgWarnUsage        = "Usage: /warn <user_id> [reason]"
	MsgSuspendUsage     = "Usage: /suspend <user_id> [reason]"
	MsgUnsuspendUsage   = "Usage: /unsuspend <user_id>"
	MsgEditProfileUsage = "Usage: /editprofile username|email <value>"
	MsgProfileUpdated   = "Profile updated."
	MsgUserNotFound     = "User not found."
	MsgPostUnavailable  = "This post is no longer loaded. Open the feed again."
	MsgAlertNeedsAck    = "Please read the notice and tap I Understand."
	MsgTemporaryFailure = "The server is having trouble right now."
	MsgEnterLexicon     = "Send the lexicon terms, one per line."
	MsgPostRejected     = "Your post was not published."
	MsgCommentRejected  = "Your comment was not published."
)

func StartMessage(username string, isAdmin bool) string {
	if strings.TrimSpace(username) == "" {
		return strings.Join([]string{
			"Welcome to the community feed.",
			"/login <username> <password>",
			"/register <username> <email> <password>",
		}, "\n")
	}

	lines := []string{
		fmt.Sprintf("Logged in as @%s", username),
		"/feed [page] - latest posts",
		"/post <text> - publish a post",
		"/profile [user_id] - profile",
		"/logout",
	}
	if isAdmin {
		lines = append(lines,
			"",
			"Admin:",
			"/admin /users /stats /violations [page] [category]",
			"/warn /suspend /unsuspend <user_id>",
			"/lexicon stats|reload|append|replace",
			"/history",
		)
	}
	return strings.Join(lines, "\n")
}

// FailureMessage is shown when a submission did not reach a moderation decision.
func FailureMessage(reason string, draftKept bool) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = MsgTryAgain
	}
	if draftKept {
		return reason + "\nYour text was kept, tap Retry to send it again."
	}
	return reason
}

// SlowDownMessage is shown when a per-user action limit is hit.
func SlowDownMessage(wait time.Duration) string {
	seconds := int(wait.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return fmt.Sprintf("Too many actions. Try again in %ds.", seconds)
}

func PublishedMessage() string {
	return "Post published."
}
