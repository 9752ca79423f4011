package model

import (
	"encoding/json"
	"time"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/enums"
)

type Statistics struct {
	TotalUsers           int            `json:"total_users"`
	SuspendedUsers       int            `json:"suspended_users"`
	ActiveUsers          int            `json:"active_users"`
	TotalViolations      int            `json:"total_violations"`
	TotalPosts           int            `json:"total_posts"`
	HateSpeechPosts      int            `json:"hate_speech_posts"`
	CleanPosts           int            `json:"clean_posts"`
	HateSpeechPercentage float64        `json:"hate_speech_percentage"`
	ViolationsByCategory map[string]int `json:"-"`
	RecentViolations     []Violation    `json:"-"`
}

type LexiconStats struct {
	Path         string `json:"path"`
	Mode         string `json:"mode,omitempty"`
	WordsCount   int    `json:"words_count"`
	PhrasesCount int    `json:"phrases_count"`
}

type ModerationActionResult struct {
	User      User
	Message   string
	Suspended bool
}

type Dashboard struct {
	Users      []User
	Statistics Statistics
	Violations ViolationsPage
}

type Audit struct {
	ID          string            `json:"id"`
	ActorTGID   int64             `json:"actor_tg_id"`
	ActorUserID int64             `json:"actor_user_id"`
	Action      enums.AuditAction `json:"action"`
	Payload     json.RawMessage   `json:"payload"`
	CreatedAt   time.Time         `json:"created_at"`
}
