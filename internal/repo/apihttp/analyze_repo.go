package apihttp

import (
	"context"
	"net/http"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
)

// AnalyzeRepo calls the standalone classifier used by the precheck contract.
type AnalyzeRepo struct {
	client *Client
}

func NewAnalyzeRepo(client *Client) *AnalyzeRepo {
	return &AnalyzeRepo{client: client}
}

func (r *AnalyzeRepo) Analyze(ctx context.Context, text string, user model.User) (model.SubmissionResult, error) {
	var envelope moderationEnvelope
	err := r.client.DoJSON(ctx, http.MethodPost, "/analyze", map[string]interface{}{
		"text":     text,
		"user_id":  user.ID,
		"username": user.Username,
	}, &envelope)
	if err != nil {
		return model.SubmissionResult{}, err
	}
	return envelope.toResult(), nil
}
