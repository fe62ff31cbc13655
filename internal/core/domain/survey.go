package domain

import (
	"strings"
	"time"
)

// QuestionKind is the rendering/validation tag of a question.
type QuestionKind string

const (
	KindYesNo      QuestionKind = "yes_no"
	KindDropdown   QuestionKind = "dropdown"
	KindFreeText   QuestionKind = "free_text"
	KindMultiple   QuestionKind = "multiple_choice"
	KindAttachment QuestionKind = "attachment"
)

// Selectable reports whether answering the question means picking an option.
func (k QuestionKind) Selectable() bool {
	switch k {
	case KindYesNo, KindDropdown, KindMultiple:
		return true
	}
	return false
}

// QuestionStatus values.
const (
	QuestionActive   = "active"
	QuestionInactive = "inactive"
)

// QuestionType is an entry of the question-type catalog.
type QuestionType struct {
	ID    string       `json:"id" bson:"_id"`
	Kind  QuestionKind `json:"kind" bson:"kind"`
	Label string       `json:"label" bson:"label"`
}

// Dependency makes a question visible only when another question's answer
// selects a given option.
type Dependency struct {
	DependsOn       string `json:"depends_on" bson:"depends_on"`
	TriggerOptionID string `json:"trigger_option_id" bson:"trigger_option_id"`
}

// Question is one prompt of the survey catalog. Number is the 1-based step
// the question belongs to.
type Question struct {
	ID               string       `json:"id" bson:"_id"`
	Number           int          `json:"number" bson:"number"`
	Prompt           string       `json:"prompt" bson:"prompt"`
	TypeID           string       `json:"type_id" bson:"type_id"`
	Kind             QuestionKind `json:"kind,omitempty" bson:"-"`
	AllowsAttachment bool         `json:"allows_attachment" bson:"allows_attachment"`
	Status           string       `json:"status" bson:"status"`
	Order            int          `json:"order" bson:"order"`
	Dependency       *Dependency  `json:"dependency,omitempty" bson:"dependency,omitempty"`
}

// Active reports whether the question is shown to citizens.
func (q Question) Active() bool {
	return q.Status == "" || q.Status == QuestionActive
}

// AnswerOption belongs to exactly one question.
type AnswerOption struct {
	ID                 string `json:"id" bson:"_id"`
	QuestionID         string `json:"question_id" bson:"question_id"`
	Order              int    `json:"order" bson:"order"`
	Label              string `json:"label" bson:"label"`
	RequiresAttachment bool   `json:"requires_attachment" bson:"requires_attachment"`
}

// Attachment references an uploaded file by its storage key.
type Attachment struct {
	Name        string `json:"name" bson:"name"`
	ContentType string `json:"content_type" bson:"content_type"`
	Size        int64  `json:"size" bson:"size"`
	Key         string `json:"key" bson:"key"`
}

// Empty reports whether the attachment carries no file.
func (a *Attachment) Empty() bool {
	return a == nil || a.Size <= 0 || strings.TrimSpace(a.Name) == ""
}

// Answer is the citizen's response to one question.
type Answer struct {
	QuestionID string      `json:"question_id" bson:"question_id"`
	OptionID   string      `json:"option_id,omitempty" bson:"option_id,omitempty"`
	Text       string      `json:"text,omitempty" bson:"text,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty" bson:"attachment,omitempty"`
}

// Equal compares answers by value.
func (a Answer) Equal(b Answer) bool {
	if a.QuestionID != b.QuestionID || a.OptionID != b.OptionID || a.Text != b.Text {
		return false
	}
	if a.Attachment == nil || b.Attachment == nil {
		return a.Attachment == nil && b.Attachment == nil
	}
	return *a.Attachment == *b.Attachment
}

// FormStatus values stored on form sessions.
const (
	FormInProgress = "in_progress"
	FormCompleted  = "completed"
)

// FormSession aggregates one citizen's answers for one survey period.
type FormSession struct {
	ID          string     `json:"id" bson:"_id,omitempty"`
	UserID      string     `json:"user_id" bson:"user_id"`
	PeriodID    string     `json:"period_id" bson:"period_id"`
	Status      string     `json:"status" bson:"status"`
	Completed   bool       `json:"completed" bson:"completed"`
	Answers     []Answer   `json:"answers" bson:"answers"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

// SurveyPeriod is a time-boxed survey campaign. At most one is active.
type SurveyPeriod struct {
	ID       string    `json:"id" bson:"_id"`
	Name     string    `json:"name" bson:"name"`
	Active   bool      `json:"active" bson:"active"`
	StartsAt time.Time `json:"starts_at" bson:"starts_at"`
	EndsAt   time.Time `json:"ends_at" bson:"ends_at"`
}

// FormEventType values recorded in the form audit trail.
const (
	FormEventCreated   = "created"
	FormEventPatched   = "patched"
	FormEventUploaded  = "attachments_uploaded"
	FormEventCompleted = "completed"
)

// FormEvent is an audit record of a change to a form session.
type FormEvent struct {
	UserID     string    `json:"user_id" bson:"user_id"`
	PeriodID   string    `json:"period_id" bson:"period_id"`
	Type       string    `json:"type" bson:"type"`
	Answers    int       `json:"answers" bson:"answers"`
	ActorID    string    `json:"actor_id" bson:"actor_id"`
	OccurredAt time.Time `json:"occurred_at" bson:"occurred_at"`
}

// PeriodSummary aggregates form sessions of one period for dashboards.
type PeriodSummary struct {
	PeriodID   string `json:"period_id" bson:"_id"`
	Total      int64  `json:"total" bson:"total"`
	Completed  int64  `json:"completed" bson:"completed"`
	InProgress int64  `json:"in_progress" bson:"in_progress"`
}
