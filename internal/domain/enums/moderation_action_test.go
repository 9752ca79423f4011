package enums

import "testing"

func TestParseModerationAction(t *testing.T) {
	testCases := []struct {
		raw  string
		want ModerationAction
	}{
		{raw: "", want: ModerationActionNone},
		{raw: "none", want: ModerationActionNone},
		{raw: "warning", want: ModerationActionWarned},
		{raw: " Warned ", want: ModerationActionWarned},
		{raw: "suspension", want: ModerationActionSuspended},
		{raw: "suspended", want: ModerationActionSuspended},
		{raw: "block", want: ModerationActionBlocked},
		{raw: "Blocked", want: ModerationActionBlocked},
		{raw: "unexpected", want: ModerationActionNone},
	}

	for _, tc := range testCases {
		if got := ParseModerationAction(tc.raw); got != tc.want {
			t.Fatalf("parse %q: got %q want %q", tc.raw, got, tc.want)
		}
	}
}

func TestModerationActionAlertKind(t *testing.T) {
	if ModerationActionSuspended.AlertKind() != AlertKindSuspension {
		t.Fatal("expected suspension alert for suspended action")
	}
	if ModerationActionWarned.AlertKind() != AlertKindWarning {
		t.Fatal("expected warning alert for warned action")
	}
	if ModerationActionBlocked.AlertKind() != AlertKindWarning {
		t.Fatal("a blocked post is not an account suspension")
	}
}

func TestModerationActionStopsContent(t *testing.T) {
	if !ModerationActionBlocked.StopsContent() || !ModerationActionSuspended.StopsContent() {
		t.Fatal("blocked and suspended actions must stop the content")
	}
	if ModerationActionWarned.StopsContent() || ModerationActionNone.StopsContent() {
		t.Fatal("warned content is still published")
	}
}
