package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ActionType identifies what an automation action does.
type ActionType string

const (
	ActionSendNotification ActionType = "send_notification"
	ActionSaveMessage      ActionType = "save_message"
	ActionSendEmail        ActionType = "send_email"
	ActionTriggerTask      ActionType = "trigger_task"
	ActionUploadContent    ActionType = "upload_content"
	ActionForwardMessage   ActionType = "forward_message"
	ActionCreateTask       ActionType = "create_task"
	ActionSummarizeText    ActionType = "summarize_text"
)

// Action is an automation step the backend can execute.
type Action struct {
	ID             ID             `json:"id"`
	Name           string         `json:"name"`
	ActionType     ActionType     `json:"actionType"`
	Description    string         `json:"description,omitempty"`
	IsActive       bool           `json:"isActive"`
	RequiresConfig bool           `json:"requiresConfig"`
	ConfigSchema   JSONMap        `json:"configSchema,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// ExecutionStatus is the state of one action run.
type ExecutionStatus string

const (
	ExecutionPending   ExecutionStatus = "pending"
	ExecutionRunning   ExecutionStatus = "running"
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionFailed    ExecutionStatus = "failed"
)

// ActionExecution records one run of an action.
type ActionExecution struct {
	ID             ID              `json:"id"`
	Action         *Action         `json:"action,omitempty"`
	Status         ExecutionStatus `json:"status"`
	ConfigData     JSONMap         `json:"configData,omitempty"`
	ResultData     JSONMap         `json:"resultData,omitempty"`
	ErrorMessage   string          `json:"errorMessage,omitempty"`
	StartedAt      time.Time       `json:"startedAt"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`
	ExecutedBy     *Ref            `json:"executedBy,omitempty"`
	TriggeringTask *TaskRef        `json:"triggeringTask,omitempty"`
}

// ExecuteActionInput is the payload for running an action.
type ExecuteActionInput struct {
	ActionID   ID             `json:"actionId"`
	ConfigData map[string]any `json:"configData,omitempty"`
	TaskID     ID             `json:"taskId,omitempty"`
}

// FieldKind is the input kind of an action config field.
type FieldKind string

const (
	FieldString   FieldKind = "string"
	FieldTextarea FieldKind = "textarea"
	FieldEmail    FieldKind = "email"
	FieldNumber   FieldKind = "number"
	FieldSelect   FieldKind = "select"
)

// ConfigField describes one entry of an action's configuration schema.
type ConfigField struct {
	Name     string
	Label    string
	Kind     FieldKind
	Required bool
	Options  []string
}

// ActionTypeInfo is the static description of an action type.
type ActionTypeInfo struct {
	Type        ActionType
	Name        string
	Description string
	Fields      []ConfigField
}

// ActionTypes is the catalog of known action types and their config schemas.
var ActionTypes = map[ActionType]ActionTypeInfo{
	ActionSendNotification: {
		Type: ActionSendNotification, Name: "Send Notification",
		Description: "Send a notification to the user",
		Fields: []ConfigField{
			{Name: "message", Label: "Message", Kind: FieldString, Required: true},
			{Name: "urgency", Label: "Urgency", Kind: FieldSelect, Required: true,
				Options: []string{"low", "normal", "high", "urgent"}},
		},
	},
	ActionSaveMessage: {
		Type: ActionSaveMessage, Name: "Save Message",
		Description: "Save the message for later review",
		Fields: []ConfigField{
			{Name: "category", Label: "Category", Kind: FieldString},
		},
	},
	ActionSendEmail: {
		Type: ActionSendEmail, Name: "Send Email",
		Description: "Send an email with specified content",
		Fields: []ConfigField{
			{Name: "to", Label: "To Email", Kind: FieldEmail, Required: true},
			{Name: "subject", Label: "Subject", Kind: FieldString, Required: true},
			{Name: "body", Label: "Email Body", Kind: FieldTextarea, Required: true},
		},
	},
	ActionTriggerTask: {
		Type: ActionTriggerTask, Name: "Trigger Task",
		Description: "Trigger another task to execute",
		Fields: []ConfigField{
			{Name: "taskId", Label: "Task ID", Kind: FieldNumber, Required: true},
		},
	},
	ActionUploadContent: {
		Type: ActionUploadContent, Name: "Upload Content",
		Description: "Upload content to a specified location",
		Fields: []ConfigField{
			{Name: "destination", Label: "Destination", Kind: FieldString, Required: true},
			{Name: "content", Label: "Content", Kind: FieldTextarea, Required: true},
		},
	},
	ActionForwardMessage: {
		Type: ActionForwardMessage, Name: "Forward Message",
		Description: "Forward message to another service",
		Fields: []ConfigField{
			{Name: "destination", Label: "Destination Service", Kind: FieldString, Required: true},
			{Name: "recipient", Label: "Recipient", Kind: FieldString, Required: true},
		},
	},
	ActionCreateTask: {
		Type: ActionCreateTask, Name: "Create Task",
		Description: "Create a new task based on content",
		Fields: []ConfigField{
			{Name: "title", Label: "Task Title", Kind: FieldString, Required: true},
			{Name: "priority", Label: "Priority", Kind: FieldSelect,
				Options: []string{"low", "medium", "high", "urgent"}},
		},
	},
	ActionSummarizeText: {
		Type: ActionSummarizeText, Name: "Summarize Text",
		Description: "Generate AI summary of text content",
		Fields: []ConfigField{
			{Name: "maxLength", Label: "Max Summary Length", Kind: FieldNumber},
		},
	},
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateActionConfig checks config against the schema of actionType and
// returns one message per problem, in schema field order.
func ValidateActionConfig(actionType ActionType, config map[string]any) []string {
	info, ok := ActionTypes[actionType]
	if !ok {
		return []string{"Unknown action type"}
	}

	var errs []string
	for _, f := range info.Fields {
		label := f.Label
		if label == "" {
			label = f.Name
		}

		raw, present := config[f.Name]
		value := ""
		if present && raw != nil {
			value = strings.TrimSpace(fmt.Sprint(raw))
		}
		if value == "" {
			if f.Required {
				errs = append(errs, label+" is required")
			}
			continue
		}

		switch f.Kind {
		case FieldEmail:
			if !emailPattern.MatchString(value) {
				errs = append(errs, label+" must be a valid email")
			}
		case FieldNumber:
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				errs = append(errs, label+" must be a number")
			}
		case FieldSelect:
			if !contains(f.Options, value) {
				errs = append(errs, fmt.Sprintf(
					"%s must be one of: %s", label, strings.Join(f.Options, ", "),
				))
			}
		}
	}
	return errs
}

func contains(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}
