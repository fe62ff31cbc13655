// Package wizard holds the citizen survey wizard: the per-step validation
// rules and the in-memory form state they gate.
package wizard

import (
	"sort"
	"strings"

	"github.com/sgirs-cali/portal/internal/core/domain"
)

// Step is the catalog of one wizard page: its questions in display order,
// their options, and the conditional-visibility map.
type Step struct {
	Number       int                              `json:"number"`
	Questions    []domain.Question                `json:"questions"`
	Options      map[string][]domain.AnswerOption `json:"options"`
	Dependencies map[string]domain.Dependency     `json:"dependencies,omitempty"`
}

// NewStep builds a Step from raw catalog rows. Inactive questions are
// dropped, questions and options are sorted by display order, and options
// that do not belong to a kept question are ignored.
func NewStep(number int, questions []domain.Question, options []domain.AnswerOption) Step {
	st := Step{
		Number:  number,
		Options: make(map[string][]domain.AnswerOption),
	}
	for _, q := range questions {
		if !q.Active() {
			continue
		}
		st.Questions = append(st.Questions, q)
		if q.Dependency != nil && q.Dependency.DependsOn != "" {
			if st.Dependencies == nil {
				st.Dependencies = make(map[string]domain.Dependency)
			}
			st.Dependencies[q.ID] = *q.Dependency
		}
	}
	sort.SliceStable(st.Questions, func(i, j int) bool {
		return st.Questions[i].Order < st.Questions[j].Order
	})

	for _, o := range options {
		if st.Question(o.QuestionID) == nil {
			continue
		}
		st.Options[o.QuestionID] = append(st.Options[o.QuestionID], o)
	}
	for id := range st.Options {
		opts := st.Options[id]
		sort.SliceStable(opts, func(i, j int) bool { return opts[i].Order < opts[j].Order })
	}
	return st
}

// Question returns the step's question with the given id, or nil.
func (s Step) Question(id string) *domain.Question {
	for i := range s.Questions {
		if s.Questions[i].ID == id {
			return &s.Questions[i]
		}
	}
	return nil
}

// Option returns the option of question qid with the given id, or nil.
func (s Step) Option(qid, optionID string) *domain.AnswerOption {
	for i, o := range s.Options[qid] {
		if o.ID == optionID {
			return &s.Options[qid][i]
		}
	}
	return nil
}

// IssueCode identifies why a question blocks its step.
type IssueCode string

const (
	IssueMissingAnswer     IssueCode = "missing_answer"
	IssueMissingAttachment IssueCode = "missing_attachment"
	IssueUnknownOption     IssueCode = "unknown_option"
)

// Issue is one blocking problem on a step.
type Issue struct {
	QuestionID string    `json:"question_id"`
	Code       IssueCode `json:"code"`
}

// Visible reports whether question qid is shown given the current answers.
// A question without a dependency is always visible. A dependent question is
// visible when the question it depends on is visible and its answer selects
// the trigger option. Dependencies pointing outside the step only look at
// the answer.
func (s Step) Visible(qid string, answers map[string]domain.Answer) bool {
	return s.visible(qid, answers, make(map[string]bool))
}

func (s Step) visible(qid string, answers map[string]domain.Answer, seen map[string]bool) bool {
	dep, ok := s.Dependencies[qid]
	if !ok {
		return true
	}
	if seen[qid] {
		// cycle in the catalog: hide rather than loop
		return false
	}
	seen[qid] = true

	if s.Question(dep.DependsOn) != nil && !s.visible(dep.DependsOn, answers, seen) {
		return false
	}
	a, ok := answers[dep.DependsOn]
	return ok && a.OptionID == dep.TriggerOptionID
}

// VisibleQuestions returns the questions currently shown, in display order.
func (s Step) VisibleQuestions(answers map[string]domain.Answer) []domain.Question {
	out := make([]domain.Question, 0, len(s.Questions))
	for _, q := range s.Questions {
		if s.Visible(q.ID, answers) {
			out = append(out, q)
		}
	}
	return out
}

// Validate lists every problem that keeps the step from being complete.
// It is pure and cheap; callers re-run it after each answer mutation.
func (s Step) Validate(answers map[string]domain.Answer) []Issue {
	var issues []Issue
	for _, q := range s.VisibleQuestions(answers) {
		a, ok := answers[q.ID]
		if !ok || !answered(q, a) {
			issues = append(issues, Issue{QuestionID: q.ID, Code: IssueMissingAnswer})
			continue
		}
		if a.OptionID == "" {
			continue
		}
		opt := s.Option(q.ID, a.OptionID)
		if opt == nil {
			issues = append(issues, Issue{QuestionID: q.ID, Code: IssueUnknownOption})
			continue
		}
		if opt.RequiresAttachment && a.Attachment.Empty() {
			issues = append(issues, Issue{QuestionID: q.ID, Code: IssueMissingAttachment})
		}
	}
	return issues
}

// Complete reports whether the step may be left forward.
func (s Step) Complete(answers map[string]domain.Answer) bool {
	return len(s.Validate(answers)) == 0
}

func answered(q domain.Question, a domain.Answer) bool {
	switch {
	case q.Kind.Selectable():
		return a.OptionID != ""
	case q.Kind == domain.KindFreeText:
		return strings.TrimSpace(a.Text) != ""
	case q.Kind == domain.KindAttachment:
		return !a.Attachment.Empty()
	default:
		return a.OptionID != "" || strings.TrimSpace(a.Text) != "" || !a.Attachment.Empty()
	}
}
