package wizard

import (
	"sort"

	"github.com/sgirs-cali/portal/internal/core/domain"
)

// Upload is an attachment picked by the citizen that has not reached the
// backend yet.
type Upload struct {
	QuestionID string            `json:"question_id"`
	Attachment domain.Attachment `json:"attachment"`
	Data       []byte            `json:"data"`
}

// Store is the form state of one citizen's wizard session: answers by
// question, pending uploads, loaded step catalogs and the active step.
// It never validates on write; Advance consults the step rules.
//
// A Store is not safe for concurrent use.
type Store struct {
	periodID  string
	exists    bool
	completed bool
	current   int
	total     int
	steps     map[int]Step
	answers   map[string]domain.Answer
	uploads   map[string]Upload
}

// NewStore returns an empty store for the period positioned on step 1.
func NewStore(periodID string, totalSteps int) *Store {
	s := &Store{periodID: periodID, total: totalSteps}
	s.Reset()
	return s
}

func (s *Store) PeriodID() string { return s.periodID }
func (s *Store) CurrentStep() int { return s.current }
func (s *Store) TotalSteps() int { return s.total }

// Exists reports whether the backend already holds a form session.
func (s *Store) Exists() bool { return s.exists }

// MarkExists records that the backend holds a form session.
func (s *Store) MarkExists() { s.exists = true }

// Completed reports whether the session is completed and thus read-only.
func (s *Store) Completed() bool { return s.completed }

// MarkCompleted flips the session to completed. There is no way back.
func (s *Store) MarkCompleted() {
	s.exists = true
	s.completed = true
	s.uploads = make(map[string]Upload)
}

// SetTotalSteps updates the number of steps in the catalog.
func (s *Store) SetTotalSteps(n int) {
	s.total = n
	if s.total > 0 && s.current > s.total {
		s.current = s.total
	}
}

// LoadStep caches the catalog of one step.
func (s *Store) LoadStep(st Step) {
	s.steps[st.Number] = st
}

// Step returns the cached catalog of step n.
func (s *Store) Step(n int) (Step, bool) {
	st, ok := s.steps[n]
	return st, ok
}

// MissingSteps lists step numbers whose catalog has not been loaded yet.
func (s *Store) MissingSteps() []int {
	var out []int
	for n := 1; n <= s.total; n++ {
		if _, ok := s.steps[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}

// Answer returns the stored answer for question qid.
func (s *Store) Answer(qid string) (domain.Answer, bool) {
	a, ok := s.answers[qid]
	return a, ok
}

// AnswerMap returns a copy of the answers keyed by question id.
func (s *Store) AnswerMap() map[string]domain.Answer {
	out := make(map[string]domain.Answer, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Answers returns all answers ordered by question id.
func (s *Store) Answers() []domain.Answer {
	out := make([]domain.Answer, 0, len(s.answers))
	for _, a := range s.answers {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out
}

// SetAnswer creates or overwrites the answer for question qid. Setting the
// same value twice leaves the store unchanged.
func (s *Store) SetAnswer(qid string, a domain.Answer) error {
	if s.completed {
		return domain.ErrFormCompleted
	}
	a.QuestionID = qid
	s.answers[qid] = a
	return nil
}

// Prefill loads answers already held by the backend. It bypasses the
// read-only rule since it is how completed sessions are shown.
func (s *Store) Prefill(answers []domain.Answer) {
	for _, a := range answers {
		if a.QuestionID == "" {
			continue
		}
		s.answers[a.QuestionID] = a
	}
}

// Attach sets the attachment of question qid and queues its bytes for the
// next save. An existing answer keeps its option and text.
func (s *Store) Attach(qid string, att domain.Attachment, data []byte) error {
	if s.completed {
		return domain.ErrFormCompleted
	}
	a := s.answers[qid]
	a.QuestionID = qid
	a.Attachment = &att
	s.answers[qid] = a
	s.uploads[qid] = Upload{QuestionID: qid, Attachment: att, Data: data}
	return nil
}

// PendingUploads returns the attachments not yet sent, ordered by question.
func (s *Store) PendingUploads() []Upload {
	out := make([]Upload, 0, len(s.uploads))
	for _, u := range s.uploads {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out
}

// ClearUploads drops the pending uploads that were sent. An upload replaced
// after being sent (different key) stays queued.
func (s *Store) ClearUploads(sent []Upload) {
	for _, u := range sent {
		if cur, ok := s.uploads[u.QuestionID]; ok && cur.Attachment.Key == u.Attachment.Key {
			delete(s.uploads, u.QuestionID)
		}
	}
}

// Issues lists what blocks the current step. A step whose catalog is not
// loaded reports nothing; CanAdvance treats it as not advanceable.
func (s *Store) Issues() []Issue {
	st, ok := s.steps[s.current]
	if !ok {
		return nil
	}
	return st.Validate(s.answers)
}

// StepComplete reports whether step n is loaded and complete.
func (s *Store) StepComplete(n int) bool {
	st, ok := s.steps[n]
	return ok && st.Complete(s.answers)
}

// CanAdvance reports whether Advance would move forward.
func (s *Store) CanAdvance() bool {
	if s.total > 0 && s.current >= s.total {
		return false
	}
	return s.StepComplete(s.current)
}

// CanRetreat reports whether Retreat would move back.
func (s *Store) CanRetreat() bool {
	return s.current > 1
}

// Advance moves to the next step when the current one is complete. It is a
// no-op otherwise. Answers of the step being left are kept.
func (s *Store) Advance() bool {
	if !s.CanAdvance() {
		return false
	}
	s.current++
	return true
}

// Retreat moves to the previous step without validation.
func (s *Store) Retreat() bool {
	if !s.CanRetreat() {
		return false
	}
	s.current--
	return true
}

// FirstIncomplete returns the first step that is not loaded or not complete,
// or 0 when every step is complete.
func (s *Store) FirstIncomplete() int {
	for n := 1; n <= s.total; n++ {
		if !s.StepComplete(n) {
			return n
		}
	}
	return 0
}

// Reset clears answers, uploads and flags and returns to step 1. Loaded
// catalogs are kept.
func (s *Store) Reset() {
	s.exists = false
	s.completed = false
	s.current = 1
	s.answers = make(map[string]domain.Answer)
	s.uploads = make(map[string]Upload)
	if s.steps == nil {
		s.steps = make(map[int]Step)
	}
}

// Snapshot is the serialisable form of a Store.
type Snapshot struct {
	PeriodID  string                   `json:"period_id"`
	Exists    bool                     `json:"exists"`
	Completed bool                     `json:"completed"`
	Current   int                      `json:"current"`
	Total     int                      `json:"total"`
	Steps     map[int]Step             `json:"steps"`
	Answers   map[string]domain.Answer `json:"answers"`
	Uploads   map[string]Upload        `json:"uploads"`
}

// Snapshot captures the store's state.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		PeriodID:  s.periodID,
		Exists:    s.exists,
		Completed: s.completed,
		Current:   s.current,
		Total:     s.total,
		Steps:     make(map[int]Step, len(s.steps)),
		Answers:   s.AnswerMap(),
		Uploads:   make(map[string]Upload, len(s.uploads)),
	}
	for k, v := range s.steps {
		snap.Steps[k] = v
	}
	for k, v := range s.uploads {
		snap.Uploads[k] = v
	}
	return snap
}

// Restore rebuilds a Store from a snapshot. The store owns copies of the
// snapshot's maps.
func Restore(snap Snapshot) *Store {
	s := &Store{
		periodID:  snap.PeriodID,
		exists:    snap.Exists,
		completed: snap.Completed,
		current:   snap.Current,
		total:     snap.Total,
		steps:     make(map[int]Step, len(snap.Steps)),
		answers:   make(map[string]domain.Answer, len(snap.Answers)),
		uploads:   make(map[string]Upload, len(snap.Uploads)),
	}
	if s.current < 1 {
		s.current = 1
	}
	for k, v := range snap.Steps {
		s.steps[k] = v
	}
	for k, v := range snap.Answers {
		s.answers[k] = v
	}
	for k, v := range snap.Uploads {
		s.uploads[k] = v
	}
	return s
}
