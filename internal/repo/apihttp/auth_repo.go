package apihttp

import (
	"context"
	"net/http"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
)

type AuthRepo struct {
	client *Client
}

func NewAuthRepo(client *Client) *AuthRepo {
	return &AuthRepo{client: client}
}

func (r *AuthRepo) Login(ctx context.Context, username, password string) (model.User, error) {
	response := struct {
		User userDTO `json:"user"`
	}{}
	err := r.client.DoJSON(ctx, http.MethodPost, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &response)
	if err != nil {
		return model.User{}, err
	}
	return response.User.toModel(), nil
}

func (r *AuthRepo) Register(ctx context.Context, username, email, password string) (model.User, error) {
	response := struct {
		User userDTO `json:"user"`
	}{}
	err := r.client.DoJSON(ctx, http.MethodPost, "/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &response)
	if err != nil {
		return model.User{}, err
	}
	return response.User.toModel(), nil
}

func (r *AuthRepo) Logout(ctx context.Context) error {
	return r.client.DoJSON(ctx, http.MethodPost, "/auth/logout", nil, nil)
}
