package submission

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ivankudzin/tgapp/feedbot/internal/config"
	"github.com/ivankudzin/tgapp/feedbot/internal/domain/enums"
	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
	"github.com/ivankudzin/tgapp/feedbot/internal/repo/apihttp"
)

type fakePosts struct {
	createCalls  int
	commentCalls int
	lastRequest  apihttp.CreatePostRequest
	keys         []string

	result        model.SubmissionResult
	err           error
	commentResult model.CommentResult
}

func (f *fakePosts) Create(ctx context.Context, req apihttp.CreatePostRequest) (model.SubmissionResult, error) {
	f.createCalls++
	f.lastRequest = req
	f.keys = append(f.keys, apihttp.IdempotencyKeyFromContext(ctx))
	return f.result, f.err
}

func (f *fakePosts) AddComment(_ context.Context, _ int64, _ int64, _ string) (model.CommentResult, error) {
	f.commentCalls++
	return f.commentResult, f.err
}

type fakeAnalyzer struct {
	calls  int
	result model.SubmissionResult
	err    error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ string, _ model.User) (model.SubmissionResult, error) {
	f.calls++
	return f.result, f.err
}

func testSession() model.Session {
	return model.Session{ChatID: 10, TelegramID: 100, User: model.User{ID: 7, Username: "alice"}}
}

func score(v float64) *float64 { return &v }

func TestSubmitValidation(t *testing.T) {
	posts := &fakePosts{}
	flow := NewFlow(posts, nil, Options{}, zaptest.NewLogger(t))

	_, err := flow.Submit(context.Background(), testSession(), model.Draft{Content: "   "})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.ErrorIs(t, err, ErrEmptyContent)

	_, err = flow.Submit(context.Background(), model.Session{}, model.Draft{Content: "hi"})
	assert.ErrorIs(t, err, ErrNoSession)

	assert.Zero(t, posts.createCalls, "validation happens before any network call")
}

func TestSubmitImageOnlyIsAllowed(t *testing.T) {
	posts := &fakePosts{result: model.SubmissionResult{CreatedPost: &model.Post{ID: 1}}}
	flow := NewFlow(posts, nil, Options{}, zaptest.NewLogger(t))

	outcome, err := flow.Submit(context.Background(), testSession(), model.Draft{ImageURL: "https://img/1.jpg"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAccepted, outcome.Kind)
	assert.Equal(t, "https://img/1.jpg", posts.lastRequest.ImageURL)
}

func TestSubmitClassification(t *testing.T) {
	post := &model.Post{ID: 5, Content: "hello"}

	testCases := []struct {
		name      string
		result    model.SubmissionResult
		wantKind  OutcomeKind
		wantPost  bool
		wantAlert enums.AlertKind
	}{
		{
			name:     "clean",
			result:   model.SubmissionResult{CreatedPost: post},
			wantKind: OutcomeAccepted,
			wantPost: true,
		},
		{
			name: "suspended drops echoed post",
			result: model.SubmissionResult{
				IsFlagged: true, ActionTaken: enums.ModerationActionSuspended,
				Category: "hate", Score: score(0.97), CreatedPost: post,
			},
			wantKind:  OutcomeRejected,
			wantAlert: enums.AlertKindSuspension,
		},
		{
			name: "warned with post",
			result: model.SubmissionResult{
				IsFlagged: true, ActionTaken: enums.ModerationActionWarned,
				Category: "insult", Score: score(0.7), CreatedPost: post,
			},
			wantKind:  OutcomeAcceptedWithWarning,
			wantPost:  true,
			wantAlert: enums.AlertKindWarning,
		},
		{
			name: "warned but blocked",
			result: model.SubmissionResult{
				IsFlagged: true, ActionTaken: enums.ModerationActionWarned, Category: "insult",
			},
			wantKind:  OutcomeRejected,
			wantAlert: enums.AlertKindWarning,
		},
		{
			name: "flagged without action counts as warned",
			result: model.SubmissionResult{
				IsFlagged: true, ActionTaken: enums.ModerationActionNone, CreatedPost: post,
			},
			wantKind:  OutcomeAcceptedWithWarning,
			wantPost:  true,
			wantAlert: enums.AlertKindWarning,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			posts := &fakePosts{result: tc.result}
			flow := NewFlow(posts, nil, Options{}, zaptest.NewLogger(t))

			outcome, err := flow.Submit(context.Background(), testSession(), model.Draft{Content: "hello"})
			require.NoError(t, err)
			assert.Equal(t, 1, posts.createCalls)
			assert.Equal(t, tc.wantKind, outcome.Kind)
			assert.Equal(t, tc.wantPost, outcome.Post != nil)
			assert.Equal(t, tc.wantKind == OutcomeAccepted || tc.wantKind == OutcomeAcceptedWithWarning, outcome.Published())

			if tc.wantAlert == "" {
				assert.Nil(t, outcome.Alert)
				return
			}
			require.NotNil(t, outcome.Alert)
			assert.Equal(t, tc.wantAlert, outcome.Alert.Kind)
			assert.Equal(t, tc.result.Category, outcome.Alert.Category)
		})
	}
}

func TestSubmitTransportFailure(t *testing.T) {
	testCases := []struct {
		name          string
		err           error
		wantReason    string
		wantSuspended bool
	}{
		{
			name:       "server message",
			err:        &apihttp.RequestError{Op: "POST /posts", StatusCode: 500, Transient: true, Message: "database down"},
			wantReason: "database down",
		},
		{
			name:       "network",
			err:        &apihttp.RequestError{Op: "POST /posts", Transient: true, Err: errors.New("dial tcp: refused")},
			wantReason: "Failed to create post",
		},
		{
			name:          "suspended",
			err:           &apihttp.RequestError{Op: "POST /posts", StatusCode: 403, Message: "Your account is suspended"},
			wantReason:    "Your account is suspended",
			wantSuspended: true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			posts := &fakePosts{err: tc.err}
			flow := NewFlow(posts, nil, Options{}, zaptest.NewLogger(t))

			outcome, err := flow.Submit(context.Background(), testSession(), model.Draft{Content: "hello"})
			var transportErr *TransportError
			require.ErrorAs(t, err, &transportErr)
			assert.Equal(t, OutcomeFailed, outcome.Kind)
			assert.Nil(t, outcome.Alert)
			assert.Equal(t, tc.wantReason, outcome.Reason)
			assert.Equal(t, tc.wantSuspended, transportErr.Suspended)
			assert.Equal(t, tc.wantSuspended, IsSuspended(err))
			assert.Equal(t, 1, posts.createCalls, "no retries")
		})
	}
}

func TestSubmitUsesFreshIdempotencyKey(t *testing.T) {
	posts := &fakePosts{result: model.SubmissionResult{CreatedPost: &model.Post{ID: 1}}}
	flow := NewFlow(posts, nil, Options{}, zaptest.NewLogger(t))

	for i := 0; i < 2; i++ {
		_, err := flow.Submit(context.Background(), testSession(), model.Draft{Content: "same"})
		require.NoError(t, err)
	}

	require.Len(t, posts.keys, 2)
	assert.NotEmpty(t, posts.keys[0])
	assert.NotEqual(t, posts.keys[0], posts.keys[1])
}

func TestSubmitPrecheckContract(t *testing.T) {
	t.Run("suspension stops before creation", func(t *testing.T) {
		posts := &fakePosts{}
		analyzer := &fakeAnalyzer{result: model.SubmissionResult{
			IsFlagged: true, ActionTaken: enums.ModerationActionSuspended, Category: "hate",
		}}
		flow := NewFlow(posts, analyzer, Options{Contract: config.ContractPrecheck}, zaptest.NewLogger(t))

		outcome, err := flow.Submit(context.Background(), testSession(), model.Draft{Content: "slur"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeRejected, outcome.Kind)
		assert.Equal(t, enums.AlertKindSuspension, outcome.Alert.Kind)
		assert.Zero(t, posts.createCalls)
	})

	t.Run("warning carries over to created post", func(t *testing.T) {
		posts := &fakePosts{result: model.SubmissionResult{CreatedPost: &model.Post{ID: 3}}}
		analyzer := &fakeAnalyzer{result: model.SubmissionResult{
			IsFlagged: true, ActionTaken: enums.ModerationActionWarned, Category: "insult", Score: score(0.6),
		}}
		flow := NewFlow(posts, analyzer, Options{Contract: config.ContractPrecheck}, zaptest.NewLogger(t))

		outcome, err := flow.Submit(context.Background(), testSession(), model.Draft{Content: "meh"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeAcceptedWithWarning, outcome.Kind)
		assert.Equal(t, "insult", outcome.Alert.Category)
		assert.InDelta(t, 0.6, outcome.Alert.ConfidenceScore, 1e-9)
		assert.Equal(t, 1, posts.createCalls)
	})

	t.Run("image only skips analysis", func(t *testing.T) {
		posts := &fakePosts{result: model.SubmissionResult{CreatedPost: &model.Post{ID: 3}}}
		analyzer := &fakeAnalyzer{}
		flow := NewFlow(posts, analyzer, Options{Contract: config.ContractPrecheck}, zaptest.NewLogger(t))

		_, err := flow.Submit(context.Background(), testSession(), model.Draft{ImageURL: "https://img"})
		require.NoError(t, err)
		assert.Zero(t, analyzer.calls)
	})

	t.Run("missing analyzer falls back to inline", func(t *testing.T) {
		flow := NewFlow(&fakePosts{}, nil, Options{Contract: config.ContractPrecheck}, zaptest.NewLogger(t))
		assert.Equal(t, config.ContractInline, flow.Contract())
	})
}

func TestSubmitComment(t *testing.T) {
	comment := &model.Comment{ID: 9, PostID: 1, Content: "ok"}
	warning := model.NewModerationAlert(enums.AlertKindWarning, "insult", 0.5, "")
	suspension := model.NewModerationAlert(enums.AlertKindSuspension, "hate", 0.9, "")

	testCases := []struct {
		name        string
		result      model.CommentResult
		wantKind    OutcomeKind
		wantComment bool
	}{
		{name: "clean", result: model.CommentResult{Comment: comment}, wantKind: OutcomeAccepted, wantComment: true},
		{name: "warning", result: model.CommentResult{Comment: comment, Alert: &warning}, wantKind: OutcomeAcceptedWithWarning, wantComment: true},
		{name: "suspension", result: model.CommentResult{Comment: comment, Alert: &suspension}, wantKind: OutcomeRejected},
		{name: "blocked warning", result: model.CommentResult{Alert: &warning}, wantKind: OutcomeRejected},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			posts := &fakePosts{commentResult: tc.result}
			flow := NewFlow(posts, nil, Options{}, zaptest.NewLogger(t))

			outcome, err := flow.SubmitComment(context.Background(), testSession(), 1, "ok")
			require.NoError(t, err)
			assert.Equal(t, tc.wantKind, outcome.Kind)
			assert.Equal(t, tc.wantComment, outcome.Comment != nil)
		})
	}

	flow := NewFlow(&fakePosts{}, nil, Options{}, zaptest.NewLogger(t))
	_, err := flow.SubmitComment(context.Background(), testSession(), 1, " ")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestSubmitAgainstBlockedResponse(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/api/posts", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("Idempotency-Key"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "Your post contains hate speech",
			"analysis": map[string]interface{}{
				"is_hate_speech": true,
				"confidence":     0.93,
				"category":       "racism",
				"language":       "en",
			},
			"user_status": map[string]interface{}{"is_suspended": true, "warning_count": 3},
		})
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	client, err := apihttp.NewClient(server.URL+"/api", "", time.Second)
	require.NoError(t, err)
	flow := NewFlow(apihttp.NewPostsRepo(client), nil, Options{}, zaptest.NewLogger(t))

	outcome, err := flow.Submit(context.Background(), testSession(), model.Draft{Content: "slur"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, outcome.Kind)
	assert.Nil(t, outcome.Post)
	require.NotNil(t, outcome.Alert)
	assert.Equal(t, enums.AlertKindSuspension, outcome.Alert.Kind)
	assert.Equal(t, "racism", outcome.Alert.Category)
	assert.InDelta(t, 0.93, outcome.Alert.ConfidenceScore, 1e-9)
}

func TestSubmitPrecheckBlockIsNotSuspension(t *testing.T) {
	var creates int
	router := chi.NewRouter()
	router.Post("/api/analyze", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"result": map[string]interface{}{
				"is_hate_speech": true,
				"confidence":     0.95,
				"category":       "racism",
				"language":       "en",
			},
			"action_taken": "block",
			"user_status":  map[string]interface{}{"is_suspended": false, "warning_count": 1},
		})
	})
	router.Post("/api/posts", func(w http.ResponseWriter, _ *http.Request) {
		creates++
		w.WriteHeader(http.StatusCreated)
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	client, err := apihttp.NewClient(server.URL+"/api", "", time.Second)
	require.NoError(t, err)
	flow := NewFlow(apihttp.NewPostsRepo(client), apihttp.NewAnalyzeRepo(client), Options{Contract: config.ContractPrecheck}, zaptest.NewLogger(t))

	outcome, err := flow.Submit(context.Background(), testSession(), model.Draft{Content: "slur"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, outcome.Kind)
	assert.Nil(t, outcome.Post)
	require.NotNil(t, outcome.Alert)
	assert.Equal(t, enums.AlertKindWarning, outcome.Alert.Kind)
	assert.Equal(t, "racism", outcome.Alert.Category)
	assert.Zero(t, creates)
}
