package apihttp

import (
	"context"
	"net/http"
	"strings"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
)

type AdminRepo struct {
	client *Client
}

func NewAdminRepo(client *Client) *AdminRepo {
	return &AdminRepo{client: client}
}

type ModerationRequest struct {
	Reason  string `json:"reason,omitempty"`
	Content string `json:"content,omitempty"`
}

type LexiconUpdateRequest struct {
	Content string `json:"content"`
	Mode    string `json:"mode"`
	Path    string `json:"path,omitempty"`
}

func (r *AdminRepo) Statistics(ctx context.Context) (model.Statistics, error) {
	var response statisticsDTO
	if err := r.client.DoJSON(ctx, http.MethodGet, "/statistics", nil, &response); err != nil {
		return model.Statistics{}, err
	}
	stats := response.Statistics
	stats.ViolationsByCategory = map[string]int(response.ViolationsByCategory)
	stats.RecentViolations = violationsToModel(response.RecentViolations)
	return stats, nil
}

func (r *AdminRepo) Violations(ctx context.Context, page, perPage int, category string) (model.ViolationsPage, error) {
	if page <= 0 {
		page = 1
	}
	path := "/violations?page=" + intToString(page)
	if perPage > 0 {
		path += "&per_page=" + intToString(perPage)
	}
	if trimmed := strings.TrimSpace(category); trimmed != "" {
		path += "&category=" + urlQueryEscape(trimmed)
	}

	response := struct {
		Violations []violationDTO `json:"violations"`
		Total      int            `json:"total"`
		Page       int            `json:"page"`
		Pages      int            `json:"pages"`
	}{}
	if err := r.client.DoJSON(ctx, http.MethodGet, path, nil, &response); err != nil {
		return model.ViolationsPage{}, err
	}
	if response.Page == 0 {
		response.Page = page
	}
	return model.ViolationsPage{
		Violations: violationsToModel(response.Violations),
		Total:      response.Total,
		Page:       response.Page,
		Pages:      response.Pages,
	}, nil
}

func (r *AdminRepo) Warn(ctx context.Context, userID int64, req ModerationRequest) (model.ModerationActionResult, error) {
	return r.moderate(ctx, userID, "warn", req)
}

func (r *AdminRepo) Suspend(ctx context.Context, userID int64, req ModerationRequest) (model.ModerationActionResult, error) {
	result, err := r.moderate(ctx, userID, "suspend", req)
	if err == nil {
		result.Suspended = true
	}
	return result, err
}

func (r *AdminRepo) Unsuspend(ctx context.Context, userID int64) (model.ModerationActionResult, error) {
	return r.moderate(ctx, userID, "unsuspend", nil)
}

func (r *AdminRepo) moderate(ctx context.Context, userID int64, action string, body interface{}) (model.ModerationActionResult, error) {
	response := struct {
		User      userDTO `json:"user"`
		Message   string  `json:"message"`
		Suspended bool    `json:"suspended"`
	}{}
	path := "/users/" + int64ToString(userID) + "/" + action
	if err := r.client.DoJSON(ctx, http.MethodPost, path, body, &response); err != nil {
		return model.ModerationActionResult{}, err
	}
	user := response.User.toModel()
	return model.ModerationActionResult{
		User:      user,
		Message:   response.Message,
		Suspended: response.Suspended || user.IsSuspended,
	}, nil
}

func (r *AdminRepo) LexiconStats(ctx context.Context) (model.LexiconStats, error) {
	var response model.LexiconStats
	if err := r.client.DoJSON(ctx, http.MethodGet, "/admin/lexicon/stats", nil, &response); err != nil {
		return model.LexiconStats{}, err
	}
	return response, nil
}

func (r *AdminRepo) ReloadLexicon(ctx context.Context, path string) (model.LexiconStats, error) {
	var body interface{}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		body = map[string]string{"path": trimmed}
	}
	var response model.LexiconStats
	if err := r.client.DoJSON(ctx, http.MethodPost, "/admin/lexicon/reload", body, &response); err != nil {
		return model.LexiconStats{}, err
	}
	return response, nil
}

func (r *AdminRepo) UpdateLexicon(ctx context.Context, req LexiconUpdateRequest) (model.LexiconStats, error) {
	var response model.LexiconStats
	if err := r.client.DoJSON(ctx, http.MethodPost, "/admin/lexicon/update", req, &response); err != nil {
		return model.LexiconStats{}, err
	}
	return response, nil
}
