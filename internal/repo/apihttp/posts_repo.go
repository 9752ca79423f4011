package apihttp

import (
	"context"
	"net/http"
	"strings"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
)

type PostsRepo struct {
	client *Client
}

func NewPostsRepo(client *Client) *PostsRepo {
	return &PostsRepo{client: client}
}

type CreatePostRequest struct {
	Content  string `json:"content"`
	UserID   int64  `json:"user_id"`
	ImageURL string `json:"image_url,omitempty"`
}

func (r *PostsRepo) List(ctx context.Context, page int) (model.FeedPage, error) {
	if page <= 0 {
		page = 1
	}
	response := struct {
		Posts []postDTO `json:"posts"`
		Total int       `json:"total"`
		Page  int       `json:"page"`
		Pages int       `json:"pages"`
	}{}
	if err := r.client.DoJSON(ctx, http.MethodGet, "/posts?page="+intToString(page), nil, &response); err != nil {
		return model.FeedPage{}, err
	}
	if response.Page == 0 {
		response.Page = page
	}
	return model.FeedPage{
		Posts: postsToModel(response.Posts),
		Total: response.Total,
		Page:  response.Page,
		Pages: response.Pages,
	}, nil
}

// Create sends exactly one creation request. A blocked post comes back as a 4xx carrying
// the moderation decision; that is returned as a result, not as an error.
func (r *PostsRepo) Create(ctx context.Context, req CreatePostRequest) (model.SubmissionResult, error) {
	var envelope moderationEnvelope
	err := r.client.DoJSON(ctx, http.MethodPost, "/posts", req, &envelope)
	if err != nil {
		var blocked moderationEnvelope
		if StatusCode(err) >= 400 && StatusCode(err) < 500 && DecodeErrorBody(err, &blocked) && blocked.hasModeration() {
			return blocked.toResult(), nil
		}
		return model.SubmissionResult{}, err
	}
	return envelope.toResult(), nil
}

func (r *PostsRepo) Delete(ctx context.Context, postID int64, userID int64) error {
	return r.client.DoJSON(ctx, http.MethodDelete, "/posts/"+int64ToString(postID), map[string]int64{
		"user_id": userID,
	}, nil)
}

func (r *PostsRepo) Like(ctx context.Context, postID int64, userID int64) (int, error) {
	return r.toggleLike(ctx, "/posts/"+int64ToString(postID)+"/like", userID)
}

func (r *PostsRepo) Unlike(ctx context.Context, postID int64, userID int64) (int, error) {
	return r.toggleLike(ctx, "/posts/"+int64ToString(postID)+"/unlike", userID)
}

func (r *PostsRepo) toggleLike(ctx context.Context, path string, userID int64) (int, error) {
	response := struct {
		LikesCount int `json:"likes_count"`
	}{}
	if err := r.client.DoJSON(ctx, http.MethodPost, path, map[string]int64{"user_id": userID}, &response); err != nil {
		return 0, err
	}
	return response.LikesCount, nil
}

func (r *PostsRepo) AddComment(ctx context.Context, postID int64, userID int64, content string) (model.CommentResult, error) {
	response := struct {
		Comment         *commentDTO         `json:"comment"`
		ModerationAlert *moderationAlertDTO `json:"moderation_alert"`
	}{}
	err := r.client.DoJSON(ctx, http.MethodPost, "/posts/"+int64ToString(postID)+"/comments", map[string]interface{}{
		"content": strings.TrimSpace(content),
		"user_id": userID,
	}, &response)
	if err != nil {
		if StatusCode(err) >= 400 && StatusCode(err) < 500 && DecodeErrorBody(err, &response) && response.ModerationAlert != nil {
			return model.CommentResult{Alert: response.ModerationAlert.toModel()}, nil
		}
		return model.CommentResult{}, err
	}

	result := model.CommentResult{Alert: response.ModerationAlert.toModel()}
	if response.Comment != nil {
		comment := response.Comment.toModel()
		if comment.PostID == 0 {
			comment.PostID = postID
		}
		result.Comment = &comment
	}
	return result, nil
}

func (r *PostsRepo) ListByUser(ctx context.Context, userID int64) ([]model.Post, error) {
	response := struct {
		Posts []postDTO `json:"posts"`
	}{}
	if err := r.client.DoJSON(ctx, http.MethodGet, "/users/"+int64ToString(userID)+"/posts", nil, &response); err != nil {
		return nil, err
	}
	return postsToModel(response.Posts), nil
}
