package model

import "github.com/ivankudzin/tgapp/feedbot/internal/domain/enums"

type ModerationAlert struct {
	Kind            enums.AlertKind `json:"kind"`
	Category        string          `json:"category"`
	ConfidenceScore float64         `json:"confidence_score"`
	Message         string          `json:"message"`
}

func NewModerationAlert(kind enums.AlertKind, category string, score float64, message string) ModerationAlert {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return ModerationAlert{
		Kind:            kind,
		Category:        category,
		ConfidenceScore: score,
		Message:         message,
	}
}

// SubmissionResult is the normalized backend answer to one submission call.
type SubmissionResult struct {
	IsFlagged   bool
	ActionTaken enums.ModerationAction
	Category    string
	Score       *float64
	Message     string
	CreatedPost *Post
}

type CommentResult struct {
	Comment *Comment
	Alert   *ModerationAlert
}
