package apihttp

import (
	"context"
	"net/http"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
)

type UsersRepo struct {
	client *Client
}

func NewUsersRepo(client *Client) *UsersRepo {
	return &UsersRepo{client: client}
}

func (r *UsersRepo) Get(ctx context.Context, userID int64) (model.User, []model.Violation, error) {
	response := struct {
		User       userDTO        `json:"user"`
		Violations []violationDTO `json:"violations"`
	}{}
	if err := r.client.DoJSON(ctx, http.MethodGet, "/users/"+int64ToString(userID), nil, &response); err != nil {
		return model.User{}, nil, err
	}
	return response.User.toModel(), violationsToModel(response.Violations), nil
}

func (r *UsersRepo) Update(ctx context.Context, userID int64, update model.ProfileUpdate) (model.User, error) {
	response := struct {
		User userDTO `json:"user"`
	}{}
	if err := r.client.DoJSON(ctx, http.MethodPut, "/users/"+int64ToString(userID), update, &response); err != nil {
		return model.User{}, err
	}
	return response.User.toModel(), nil
}

func (r *UsersRepo) List(ctx context.Context) ([]model.User, error) {
	response := struct {
		Users []userDTO `json:"users"`
	}{}
	if err := r.client.DoJSON(ctx, http.MethodGet, "/users", nil, &response); err != nil {
		return nil, err
	}
	users := make([]model.User, 0, len(response.Users))
	for _, user := range response.Users {
		users = append(users, user.toModel())
	}
	return users, nil
}
