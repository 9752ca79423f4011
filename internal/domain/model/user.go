package model

import "time"

type User struct {
	ID              int64      `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	WarningCount    int        `json:"warning_count"`
	IsSuspended     bool       `json:"is_suspended"`
	IsAdmin         bool       `json:"is_admin"`
	ViolationsCount int        `json:"violations_count"`
	SuspendedAt     *time.Time `json:"suspended_at,omitempty"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
}

type Violation struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"user_id"`
	Username        string     `json:"username"`
	Content         string     `json:"content"`
	Category        string     `json:"category"`
	ConfidenceScore float64    `json:"confidence_score"`
	Language        string     `json:"language"`
	ActionTaken     string     `json:"action_taken"`
	Timestamp       *time.Time `json:"timestamp,omitempty"`
}

type ViolationsPage struct {
	Violations []Violation
	Total      int
	Page       int
	Pages      int
}

type UserProfile struct {
	User       User
	Violations []Violation
	Posts      []Post
}

type ProfileUpdate struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}
