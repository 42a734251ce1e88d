package model

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"
)

func TestIDDecodesStringsAndNumbers(t *testing.T) {
	var payload struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":"abc","b":42,"c":null}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.A != "abc" {
		t.Errorf("expected abc, got %q", payload.A)
	}
	if payload.B != "42" {
		t.Errorf("expected 42, got %q", payload.B)
	}
	if payload.C != "" {
		t.Errorf("expected empty id for null, got %q", payload.C)
	}
}

func TestTaskIsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		task Task
		want bool
	}{
		{"no due date", Task{Status: TaskStatusPending}, false},
		{"past due pending", Task{Status: TaskStatusPending, DueDate: &past}, true},
		{"past due completed", Task{Status: TaskStatusCompleted, DueDate: &past}, false},
		{"future due", Task{Status: TaskStatusActive, DueDate: &future}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.IsOverdue(now); got != tt.want {
				t.Errorf("IsOverdue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTaskInputValidate(t *testing.T) {
	if errs := (TaskInput{Title: "Write report"}).Validate(); len(errs) != 0 {
		t.Errorf("expected valid input, got %v", errs)
	}

	errs := (TaskInput{Title: "  ", Priority: "critical"}).Validate()
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
	if errs[0] != "Title is required" {
		t.Errorf("unexpected first error %q", errs[0])
	}
}

func TestMatchesIsCaseInsensitive(t *testing.T) {
	m := Message{Title: "Weekly digest", Content: "body", Summary: "Quarterly NUMBERS"}
	if !m.Matches("numbers") {
		t.Error("expected summary match")
	}
	if m.Matches("invoice") {
		t.Error("unexpected match")
	}
	if !(Task{Title: "x"}).Matches("") {
		t.Error("empty query should match")
	}
}

func TestValidateActionConfig(t *testing.T) {
	tests := []struct {
		name       string
		actionType ActionType
		config     map[string]any
		want       []string
	}{
		{
			name:       "valid email action",
			actionType: ActionSendEmail,
			config:     map[string]any{"to": "a@b.com", "subject": "hi", "body": "text"},
		},
		{
			name:       "missing and malformed fields",
			actionType: ActionSendEmail,
			config:     map[string]any{"to": "not-an-email"},
			want: []string{
				"To Email must be a valid email",
				"Subject is required",
				"Email Body is required",
			},
		},
		{
			name:       "select outside options",
			actionType: ActionSendNotification,
			config:     map[string]any{"message": "m", "urgency": "extreme"},
			want:       []string{"Urgency must be one of: low, normal, high, urgent"},
		},
		{
			name:       "numeric field accepts json numbers",
			actionType: ActionTriggerTask,
			config:     map[string]any{"taskId": float64(12)},
		},
		{
			name:       "unknown type",
			actionType: "teleport",
			want:       []string{"Unknown action type"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateActionConfig(tt.actionType, tt.config)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("error %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestUserNameFallbacks(t *testing.T) {
	u := User{Username: "jdoe", FirstName: "John", LastName: "Doe"}
	if u.Name() != "John Doe" {
		t.Errorf("expected John Doe, got %q", u.Name())
	}
	if u.Initials() != "JD" {
		t.Errorf("expected JD, got %q", u.Initials())
	}
	if (User{Email: "x@y.z"}).Name() != "x@y.z" {
		t.Error("expected email fallback")
	}
}

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OAuth.PollInterval() != time.Second {
		t.Errorf("expected 1s poll interval, got %v", cfg.OAuth.PollInterval())
	}
	if cfg.OAuth.Timeout() != 5*time.Minute {
		t.Errorf("expected 5m timeout, got %v", cfg.OAuth.Timeout())
	}
	if cfg.Auth.Transport != AuthTransportGraphQL {
		t.Errorf("expected graphql transport, got %q", cfg.Auth.Transport)
	}
	if cfg.Notifications.DefaultDuration() != 5*time.Second {
		t.Errorf("expected 5s notification duration, got %v", cfg.Notifications.DefaultDuration())
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("TASKPILOT_API_GRAPHQL_URL", "https://api.example.com/graphql/")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.GraphQLURL != "https://api.example.com/graphql/" {
		t.Errorf("expected env override, got %q", cfg.API.GraphQLURL)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultAppConfig()
	cfg.API.GraphQLURL = "https://tp.example.com/graphql/"
	cfg.Storage.Tokens = TokenStoreKeyring

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.API.GraphQLURL != cfg.API.GraphQLURL {
		t.Errorf("graphql_url = %q, want %q", loaded.API.GraphQLURL, cfg.API.GraphQLURL)
	}
	if loaded.Storage.Tokens != TokenStoreKeyring {
		t.Errorf("storage.tokens = %q, want keyring", loaded.Storage.Tokens)
	}
}

func TestJSONMapAcceptsEncodedStrings(t *testing.T) {
	var exec ActionExecution
	data := `{"id":"1","configData":"{\"to\":\"a@b.com\"}","resultData":{"sent":true}}`
	if err := json.Unmarshal([]byte(data), &exec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if exec.ConfigData["to"] != "a@b.com" {
		t.Errorf("expected decoded config, got %v", exec.ConfigData)
	}
	if exec.ResultData["sent"] != true {
		t.Errorf("expected result object, got %v", exec.ResultData)
	}
}
