package ui

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/enums"
	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
)

func TestRenderAlert(t *testing.T) {
	testCases := []struct {
		name        string
		alert       model.ModerationAlert
		dismissible bool
		wantTitle   string
		wantButtons int
	}{
		{
			name:        "suspension",
			alert:       model.NewModerationAlert(enums.AlertKindSuspension, "racism", 0.934, ""),
			wantTitle:   "Account Suspended",
			wantButtons: 1,
		},
		{
			name:        "warning",
			alert:       model.NewModerationAlert(enums.AlertKindWarning, "insult", 0.5, "Be nice"),
			dismissible: true,
			wantTitle:   "Content Warning",
			wantButtons: 2,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			text, keyboard := RenderAlert(tc.alert, 7, tc.dismissible)
			if !strings.HasPrefix(text, tc.wantTitle) {
				t.Fatalf("expected title %q; got:\n%s", tc.wantTitle, text)
			}
			if !strings.Contains(text, "Category: "+tc.alert.Category) {
				t.Fatalf("expected category in text:\n%s", text)
			}
			if len(keyboard) != 1 || len(keyboard[0]) != tc.wantButtons {
				t.Fatalf("unexpected keyboard %+v", keyboard)
			}
			if keyboard[0][0].Text != "I Understand" || keyboard[0][0].Data != "alr:ack:7" {
				t.Fatalf("unexpected ack button %+v", keyboard[0][0])
			}
		})
	}

	text, _ := RenderAlert(model.NewModerationAlert(enums.AlertKindSuspension, "racism", 0.934, ""), 1, false)
	if !strings.Contains(text, "Confidence: 93.4%") {
		t.Fatalf("expected confidence percentage:\n%s", text)
	}
}

func TestRenderPost(t *testing.T) {
	post := model.Post{
		ID:         12,
		UserID:     3,
		Username:   "alice",
		Content:    "hello",
		LikesCount: 2,
		Liked:      true,
		Comments: []model.Comment{
			{Username: "a", Content: "1"}, {Username: "b", Content: "2"},
			{Username: "c", Content: "3"}, {Username: "d", Content: "4"},
		},
		State:     enums.ItemStatePending,
		CreatedAt: time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
	}

	text, keyboard := RenderPost(post, 3)
	required := []string{"@alice · 2024-05-01 10:30", "hello", "❤ 2 · 💬 4 · syncing", "@d: 4"}
	for _, token := range required {
		if !strings.Contains(text, token) {
			t.Fatalf("expected %q in:\n%s", token, text)
		}
	}
	if strings.Contains(text, "@a: 1") {
		t.Fatalf("only the last comments are shown:\n%s", text)
	}
	if len(keyboard[0]) != 3 || keyboard[0][0].Data != "post:unlike:12" || keyboard[0][2].Data != "post:delete:12" {
		t.Fatalf("unexpected keyboard %+v", keyboard)
	}

	_, keyboard = RenderPost(post, 99)
	if len(keyboard[0]) != 2 {
		t.Fatalf("foreign posts have no delete button: %+v", keyboard)
	}
}

func TestFeedNavigation(t *testing.T) {
	nav := FeedNavigation(2, 3)
	if len(nav[0]) != 2 || nav[0][0].Data != "feed:page:1" || nav[0][1].Data != "feed:page:3" {
		t.Fatalf("unexpected navigation %+v", nav)
	}
	if len(FeedNavigation(1, 1)[0]) != 0 {
		t.Fatal("single page has no navigation")
	}
}

func TestRenderStatisticsSortsCategories(t *testing.T) {
	text := RenderStatistics(model.Statistics{
		TotalUsers:           3,
		ViolationsByCategory: map[string]int{"insult": 1, "racism": 4, "threat": 1},
	})
	racism := strings.Index(text, "racism: 4")
	insult := strings.Index(text, "insult: 1")
	threat := strings.Index(text, "threat: 1")
	if racism < 0 || insult < 0 || threat < 0 || !(racism < insult && insult < threat) {
		t.Fatalf("unexpected category order:\n%s", text)
	}
}

func TestRenderHistory(t *testing.T) {
	text := RenderHistory([]model.Audit{{
		Action:    enums.AuditActionUserSuspended,
		ActorTGID: 5,
		Payload:   json.RawMessage(`{"target_user_id":9}`),
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC),
	}})
	if !strings.Contains(text, "2024-01-02 03:04 · USER_SUSPENDED · tg 5 · {\"target_user_id\":9}") {
		t.Fatalf("unexpected history:\n%s", text)
	}
	if RenderHistory(nil) != "History: empty" {
		t.Fatal("expected empty history placeholder")
	}
}

func TestMainMenu(t *testing.T) {
	if len(MainMenu(false, false)) != 0 {
		t.Fatal("anonymous users get no menu")
	}
	if len(MainMenu(true, false)) != 2 || len(MainMenu(true, true)) != 3 {
		t.Fatal("unexpected menu sizes")
	}
}

func TestFailureMessage(t *testing.T) {
	if got := FailureMessage("", false); got != MsgTryAgain {
		t.Fatalf("unexpected %q", got)
	}
	if got := FailureMessage("Failed to create post", true); !strings.Contains(got, "Retry") {
		t.Fatalf("expected retry hint, got %q", got)
	}
}

func TestSlowDownMessage(t *testing.T) {
	if got := SlowDownMessage(9500 * time.Millisecond); got != "Too many actions. Try again in 10s." {
		t.Fatalf("unexpected %q", got)
	}
	if got := SlowDownMessage(0); got != "Too many actions. Try again in 1s." {
		t.Fatalf("unexpected %q", got)
	}
}
