package profiles

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
	"github.com/ivankudzin/tgapp/feedbot/internal/repo/apihttp"
	sessionsvc "github.com/ivankudzin/tgapp/feedbot/internal/services/session"
)

func newService(t *testing.T, router http.Handler) *Service {
	t.Helper()
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	client, err := apihttp.NewClient(server.URL+"/api", "", time.Second)
	require.NoError(t, err)
	return NewService(apihttp.NewUsersRepo(client), apihttp.NewPostsRepo(client))
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestLoadFetchesUserAndPosts(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/api/users/{id}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"user": map[string]interface{}{"id": 4, "username": "dana", "warning_count": 1},
			"violations": []map[string]interface{}{
				{"id": 1, "content": "bad", "category": "insult", "confidence_score": 0.8},
			},
		})
	})
	router.Get("/api/users/{id}/posts", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"posts": []map[string]interface{}{
				{"id": 11, "user_id": 4, "content": "second"},
				{"id": 10, "user_id": 4, "content": "first"},
			},
		})
	})
	svc := newService(t, router)

	profile, err := svc.Load(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "dana", profile.User.Username)
	require.Len(t, profile.Violations, 1)
	assert.Equal(t, "insult", profile.Violations[0].Category)
	require.Equal(t, 2, profile.Posts.Len())
	assert.Equal(t, int64(11), profile.Posts.Posts()[0].ID)
}

func TestLoadNotFound(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/api/users/{id}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
	})
	router.Get("/api/users/{id}/posts", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"posts": []interface{}{}})
	})
	svc := newService(t, router)

	_, err := svc.Load(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Load(context.Background(), 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdate(t *testing.T) {
	var got map[string]interface{}
	router := chi.NewRouter()
	router.Put("/api/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "4", chi.URLParam(r, "id"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"user": map[string]interface{}{"id": 4, "username": "dana2", "email": "d@example.com"},
		})
	})
	svc := newService(t, router)
	sess := model.Session{ChatID: 1, User: model.User{ID: 4, Username: "dana"}}

	name := " dana2 "
	updated, err := svc.Update(context.Background(), sess, model.ProfileUpdate{Username: &name})
	require.NoError(t, err)
	assert.Equal(t, "dana2", updated.User.Username)
	assert.Equal(t, "dana2", got["username"])
	_, hasEmail := got["email"]
	assert.False(t, hasEmail)

	bad := "nope"
	_, err = svc.Update(context.Background(), sess, model.ProfileUpdate{Email: &bad})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Update(context.Background(), sess, model.ProfileUpdate{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Update(context.Background(), model.Session{}, model.ProfileUpdate{Username: &name})
	assert.ErrorIs(t, err, sessionsvc.ErrNoSession)
}
