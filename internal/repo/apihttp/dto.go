package apihttp

import (
	"strings"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/enums"
	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
)

type userDTO struct {
	ID              int64    `json:"id"`
	Username        string   `json:"username"`
	Email           string   `json:"email"`
	WarningCount    int      `json:"warning_count"`
	IsSuspended     bool     `json:"is_suspended"`
	IsAdmin         bool     `json:"is_admin"`
	ViolationsCount int      `json:"violations_count"`
	SuspendedAt     *apiTime `json:"suspended_at"`
	CreatedAt       *apiTime `json:"created_at"`
}

func (d userDTO) toModel() model.User {
	return model.User{
		ID:              d.ID,
		Username:        d.Username,
		Email:           d.Email,
		WarningCount:    d.WarningCount,
		IsSuspended:     d.IsSuspended,
		IsAdmin:         d.IsAdmin,
		ViolationsCount: d.ViolationsCount,
		SuspendedAt:     d.SuspendedAt.ptr(),
		CreatedAt:       d.CreatedAt.ptr(),
	}
}

type commentDTO struct {
	ID        int64    `json:"id"`
	PostID    int64    `json:"post_id"`
	UserID    int64    `json:"user_id"`
	Username  string   `json:"username"`
	Content   string   `json:"content"`
	CreatedAt *apiTime `json:"created_at"`
}

func (d commentDTO) toModel() model.Comment {
	return model.Comment{
		ID:        d.ID,
		PostID:    d.PostID,
		UserID:    d.UserID,
		Username:  d.Username,
		Content:   d.Content,
		State:     enums.ItemStateConfirmed,
		CreatedAt: d.CreatedAt.value(),
	}
}

type postDTO struct {
	ID              int64        `json:"id"`
	UserID          int64        `json:"user_id"`
	Username        string       `json:"username"`
	Content         string       `json:"content"`
	ImageURL        string       `json:"image_url"`
	LikesCount      int          `json:"likes_count"`
	Liked           bool         `json:"liked"`
	Comments        []commentDTO `json:"comments"`
	IsHateSpeech    bool         `json:"is_hate_speech"`
	ConfidenceScore float64      `json:"confidence_score"`
	CreatedAt       *apiTime     `json:"created_at"`
}

func (d postDTO) toModel() model.Post {
	comments := make([]model.Comment, 0, len(d.Comments))
	for _, comment := range d.Comments {
		mapped := comment.toModel()
		if mapped.PostID == 0 {
			mapped.PostID = d.ID
		}
		comments = append(comments, mapped)
	}
	return model.Post{
		ID:              d.ID,
		UserID:          d.UserID,
		Username:        d.Username,
		Content:         d.Content,
		ImageURL:        d.ImageURL,
		LikesCount:      d.LikesCount,
		Liked:           d.Liked,
		Comments:        comments,
		IsHateSpeech:    d.IsHateSpeech,
		ConfidenceScore: d.ConfidenceScore,
		State:           enums.ItemStateConfirmed,
		CreatedAt:       d.CreatedAt.value(),
	}
}

func postsToModel(items []postDTO) []model.Post {
	posts := make([]model.Post, 0, len(items))
	for _, item := range items {
		posts = append(posts, item.toModel())
	}
	return posts
}

type violationDTO struct {
	ID              int64    `json:"id"`
	UserID          int64    `json:"user_id"`
	Username        string   `json:"username"`
	Content         string   `json:"content"`
	Category        string   `json:"category"`
	ConfidenceScore float64  `json:"confidence_score"`
	Language        string   `json:"language"`
	ActionTaken     string   `json:"action_taken"`
	Timestamp       *apiTime `json:"timestamp"`
}

func (d violationDTO) toModel() model.Violation {
	return model.Violation{
		ID:              d.ID,
		UserID:          d.UserID,
		Username:        d.Username,
		Content:         d.Content,
		Category:        d.Category,
		ConfidenceScore: d.ConfidenceScore,
		Language:        d.Language,
		ActionTaken:     d.ActionTaken,
		Timestamp:       d.Timestamp.ptr(),
	}
}

func violationsToModel(items []violationDTO) []model.Violation {
	violations := make([]model.Violation, 0, len(items))
	for _, item := range items {
		violations = append(violations, item.toModel())
	}
	return violations
}

type analysisDTO struct {
	IsHateSpeech bool     `json:"is_hate_speech"`
	Confidence   *float64 `json:"confidence"`
	Category     string   `json:"category"`
	Language     string   `json:"language"`
}

// moderationEnvelope covers every response shape that can carry a moderation decision:
// the inline creation reply, the blocked 400 reply and the /analyze reply.
type moderationEnvelope struct {
	Success      *bool        `json:"success"`
	Post         *postDTO     `json:"post"`
	HateDetected *bool        `json:"hate_detected"`
	Action       string       `json:"action"`
	ActionTaken  string       `json:"action_taken"`
	Category     string       `json:"category"`
	HateScore    *float64     `json:"hate_score"`
	Analysis     *analysisDTO `json:"analysis"`
	Result       *analysisDTO `json:"result"`
	UserStatus   *userDTO     `json:"user_status"`
	Error        string       `json:"error"`
	Message      string       `json:"message"`
}

func (e moderationEnvelope) analysis() *analysisDTO {
	if e.Analysis != nil {
		return e.Analysis
	}
	return e.Result
}

// hasModeration reports whether the body says anything about content analysis at all.
func (e moderationEnvelope) hasModeration() bool {
	return e.HateDetected != nil || e.analysis() != nil || strings.TrimSpace(e.Action) != "" || strings.TrimSpace(e.ActionTaken) != ""
}

func (e moderationEnvelope) toResult() model.SubmissionResult {
	analysis := e.analysis()

	flagged := false
	switch {
	case e.HateDetected != nil:
		flagged = *e.HateDetected
	case analysis != nil:
		flagged = analysis.IsHateSpeech
	}

	rawAction := e.Action
	if strings.TrimSpace(rawAction) == "" {
		rawAction = e.ActionTaken
	}
	action := enums.ParseModerationAction(rawAction)
	if flagged && e.UserStatus != nil && e.UserStatus.IsSuspended {
		action = enums.ModerationActionSuspended
	}

	category := strings.TrimSpace(e.Category)
	if category == "" && analysis != nil {
		category = strings.TrimSpace(analysis.Category)
	}

	score := e.HateScore
	if score == nil && analysis != nil {
		score = analysis.Confidence
	}

	message := strings.TrimSpace(e.Message)
	if message == "" {
		message = strings.TrimSpace(e.Error)
	}

	result := model.SubmissionResult{
		IsFlagged:   flagged,
		ActionTaken: action,
		Category:    category,
		Score:       score,
		Message:     message,
	}
	if e.Post != nil && e.Post.ID > 0 {
		post := e.Post.toModel()
		result.CreatedPost = &post
	}
	return result
}

type moderationAlertDTO struct {
	Type     string   `json:"type"`
	Message  string   `json:"message"`
	Category string   `json:"category"`
	Score    *float64 `json:"confidence_score"`
}

func (d *moderationAlertDTO) toModel() *model.ModerationAlert {
	if d == nil {
		return nil
	}
	kind := enums.ParseModerationAction(d.Type).AlertKind()
	if kind == "" {
		kind = enums.AlertKindWarning
	}
	score := 0.0
	if d.Score != nil {
		score = *d.Score
	}
	alert := model.NewModerationAlert(kind, d.Category, score, d.Message)
	return &alert
}

type statisticsDTO struct {
	Statistics           model.Statistics `json:"statistics"`
	ViolationsByCategory categoryCounts   `json:"violations_by_category"`
	RecentViolations     []violationDTO   `json:"recent_violations"`
}

type categoryCount struct {
	Category string `json:"_id"`
	Name     string `json:"category"`
	Count    int    `json:"count"`
}

// categoryCounts decodes either {"hate": 3} or [{"_id": "hate", "count": 3}].
type categoryCounts map[string]int

func (c *categoryCounts) UnmarshalJSON(data []byte) error {
	result := map[string]int{}
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "" || trimmed == "null":
	case strings.HasPrefix(trimmed, "["):
		var items []categoryCount
		if err := jsonUnmarshal(data, &items); err != nil {
			return err
		}
		for _, item := range items {
			name := item.Category
			if name == "" {
				name = item.Name
			}
			if name == "" {
				name = "unknown"
			}
			result[name] += item.Count
		}
	default:
		if err := jsonUnmarshal(data, &result); err != nil {
			return err
		}
	}
	*c = result
	return nil
}
