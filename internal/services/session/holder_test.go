package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
	"github.com/ivankudzin/tgapp/feedbot/internal/repo/apihttp"
)

type fakeAuth struct {
	user        model.User
	err         error
	logoutErr   error
	logoutCalls int
}

func (f *fakeAuth) Login(_ context.Context, _, _ string) (model.User, error) {
	return f.user, f.err
}

func (f *fakeAuth) Register(_ context.Context, username, email, _ string) (model.User, error) {
	if f.err != nil {
		return model.User{}, f.err
	}
	user := f.user
	user.Username = username
	user.Email = email
	return user, nil
}

func (f *fakeAuth) Logout(_ context.Context) error {
	f.logoutCalls++
	return f.logoutErr
}

func newHolder(t *testing.T, auth *fakeAuth) (*Holder, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	return NewHolder(auth, store, time.Hour, zaptest.NewLogger(t)), store
}

func TestLoginStoresSession(t *testing.T) {
	holder, _ := newHolder(t, &fakeAuth{user: model.User{ID: 3, Username: "alice"}})

	sess, err := holder.Login(context.Background(), 10, 100, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(3), sess.User.ID)
	assert.Equal(t, int64(100), sess.TelegramID)
	assert.False(t, sess.StartedAt.IsZero())

	current, err := holder.Current(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, current.User.ID)
}

func TestLoginErrors(t *testing.T) {
	testCases := []struct {
		name string
		auth *fakeAuth
		user string
		want error
	}{
		{name: "empty input", auth: &fakeAuth{}, user: "", want: ErrValidation},
		{name: "wrong credentials", auth: &fakeAuth{err: &apihttp.RequestError{StatusCode: 401, Message: "Invalid credentials"}}, user: "a", want: ErrInvalidCredentials},
		{name: "suspended account", auth: &fakeAuth{err: &apihttp.RequestError{StatusCode: 403, Message: "Account is suspended"}}, user: "a", want: ErrSuspended},
		{name: "suspended flag", auth: &fakeAuth{user: model.User{ID: 1, IsSuspended: true}}, user: "a", want: ErrSuspended},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			holder, _ := newHolder(t, tc.auth)
			_, err := holder.Login(context.Background(), 1, 1, tc.user, "pw")
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, IsUserFacing(err))

			_, err = holder.Current(context.Background(), 1)
			assert.ErrorIs(t, err, ErrNoSession)
		})
	}
}

func TestRegister(t *testing.T) {
	holder, _ := newHolder(t, &fakeAuth{user: model.User{ID: 8}})

	_, err := holder.Register(context.Background(), 1, 1, "bob", "not-an-email", "pw")
	assert.ErrorIs(t, err, ErrValidation)

	sess, err := holder.Register(context.Background(), 1, 1, "bob", "bob@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", sess.User.Email)

	holder, _ = newHolder(t, &fakeAuth{err: &apihttp.RequestError{StatusCode: 400, Message: "Username already exists"}})
	_, err = holder.Register(context.Background(), 1, 1, "bob", "bob@example.com", "pw")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "Username already exists")
}

func TestLogoutIsBestEffort(t *testing.T) {
	auth := &fakeAuth{user: model.User{ID: 3}, logoutErr: errors.New("down")}
	holder, _ := newHolder(t, auth)
	_, err := holder.Login(context.Background(), 10, 100, "alice", "secret")
	require.NoError(t, err)

	require.NoError(t, holder.Logout(context.Background(), 10))
	assert.Equal(t, 1, auth.logoutCalls)
	_, err = holder.Current(context.Background(), 10)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestObserveEndsSessionOnSuspension(t *testing.T) {
	holder, _ := newHolder(t, &fakeAuth{user: model.User{ID: 3}})
	_, err := holder.Login(context.Background(), 10, 100, "alice", "secret")
	require.NoError(t, err)

	assert.NoError(t, holder.Observe(context.Background(), 10, nil))
	assert.NoError(t, holder.Observe(context.Background(), 10, &apihttp.RequestError{StatusCode: 500}))
	assert.NoError(t, holder.Observe(context.Background(), 10, &apihttp.RequestError{StatusCode: 403, Message: "Unauthorized"}))
	_, err = holder.Current(context.Background(), 10)
	require.NoError(t, err, "unrelated errors keep the session")

	wrapped := &wrappedErr{err: &apihttp.RequestError{StatusCode: 403, Message: "Your account is suspended"}}
	assert.ErrorIs(t, holder.Observe(context.Background(), 10, wrapped), ErrSuspended)
	_, err = holder.Current(context.Background(), 10)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestMemoryStoreExpires(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(context.Background(), model.Session{ChatID: 1, User: model.User{ID: 1}}, time.Minute))
	_, err := store.Get(context.Background(), 1)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoSession)

	assert.ErrorIs(t, store.Save(context.Background(), model.Session{}, time.Minute), ErrValidation)
}

type wrappedErr struct{ err error }

func (w *wrappedErr) Error() string { return "submit: " + w.err.Error() }
func (w *wrappedErr) Unwrap() error { return w.err }
