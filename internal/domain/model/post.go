package model

import (
	"time"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/enums"
)

type Post struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	Username        string          `json:"username"`
	Content         string          `json:"content"`
	ImageURL        string          `json:"image_url,omitempty"`
	LikesCount      int             `json:"likes_count"`
	Liked           bool            `json:"liked"`
	Comments        []Comment       `json:"comments,omitempty"`
	IsHateSpeech    bool            `json:"is_hate_speech"`
	ConfidenceScore float64         `json:"confidence_score"`
	State           enums.ItemState `json:"-"`
	CreatedAt       time.Time       `json:"created_at"`
}

type Comment struct {
	ID        int64           `json:"id"`
	PostID    int64           `json:"post_id"`
	UserID    int64           `json:"user_id"`
	Username  string          `json:"username"`
	Content   string          `json:"content"`
	State     enums.ItemState `json:"-"`
	CreatedAt time.Time       `json:"created_at"`
}

type FeedPage struct {
	Posts []Post
	Total int
	Page  int
	Pages int
}

// Draft is what the user typed into a submission form.
type Draft struct {
	Content  string `json:"content"`
	ImageURL string `json:"image_url,omitempty"`
}
