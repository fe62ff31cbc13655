package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sgirs-cali/portal/internal/api/metrics"
	"github.com/sgirs-cali/portal/internal/core/domain"
	"github.com/sgirs-cali/portal/internal/core/ports"
	"github.com/sgirs-cali/portal/internal/core/wizard"
)

// AnswerInput is what the citizen submits for one question.
type AnswerInput struct {
	OptionID string
	Text     string
}

// QuestionView is a visible question with its options and current answer.
type QuestionView struct {
	domain.Question
	Options []domain.AnswerOption `json:"options,omitempty"`
	Answer  *domain.Answer        `json:"answer,omitempty"`
}

// WizardView is the state rendered by the wizard page.
type WizardView struct {
	PeriodID       string         `json:"period_id"`
	Step           int            `json:"step"`
	TotalSteps     int            `json:"total_steps"`
	Questions      []QuestionView `json:"questions"`
	Issues         []wizard.Issue `json:"issues,omitempty"`
	CanAdvance     bool           `json:"can_advance"`
	CanRetreat     bool           `json:"can_retreat"`
	CanComplete    bool           `json:"can_complete"`
	Saved          bool           `json:"saved"`
	Completed      bool           `json:"completed"`
	PendingUploads int            `json:"pending_uploads"`
}

// WizardService drives the citizen survey wizard: it keeps the form state
// between requests, loads step catalogs on demand and reconciles answers
// with the REST API.
type WizardService struct {
	backend ports.SurveyBackend
	drafts  ports.DraftStore
	lock    ports.SaveLock
	policy  AttachmentPolicy
	logger  zerolog.Logger
}

func NewWizardService(backend ports.SurveyBackend, drafts ports.DraftStore, lock ports.SaveLock, policy AttachmentPolicy, logger zerolog.Logger) *WizardService {
	return &WizardService{
		backend: backend,
		drafts:  drafts,
		lock:    lock,
		policy:  policy,
		logger:  logger,
	}
}

// Enter opens or resumes the wizard for the current period. Unsaved edits of
// a draft for the same period survive; otherwise the form starts over,
// prefilled with what the backend already holds.
func (s *WizardService) Enter(ctx context.Context, p domain.Principal) (*WizardView, error) {
	ctx = ports.ContextWithToken(ctx, p.Token)

	periods, err := s.backend.Periods(ctx)
	if err != nil {
		return nil, fmt.Errorf("enter wizard: periods: %w", err)
	}
	period, err := SelectPeriod(periods)
	if err != nil {
		return nil, err
	}

	sessions, err := s.backend.VerifyForm(ctx, period.ID)
	if err != nil {
		return nil, fmt.Errorf("enter wizard: verify: %w", err)
	}
	var existing *domain.FormSession
	if len(sessions) > 0 {
		existing = &sessions[0]
	}
	completed := existing != nil && existing.Completed
	if !period.Active && !completed {
		return nil, domain.ErrPeriodInactive
	}

	total, err := s.backend.StepCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("enter wizard: step count: %w", err)
	}

	release, err := s.acquire(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	defer release()

	snap, found, err := s.drafts.Load(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("enter wizard: load draft: %w", err)
	}

	var st *wizard.Store
	if found && snap.PeriodID == period.ID && !snap.Completed && !completed {
		st = wizard.Restore(snap)
		st.SetTotalSteps(total)
		s.logger.Debug().Str("user_id", p.UserID).Int("step", st.CurrentStep()).Msg("wizard draft resumed")
	} else {
		st = wizard.NewStore(period.ID, total)
		if existing != nil {
			st.Prefill(existing.Answers)
		}
	}
	if existing != nil {
		st.MarkExists()
		if completed {
			st.MarkCompleted()
		}
	}

	if err := s.ensureStep(ctx, st, st.CurrentStep()); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, p.UserID, st); err != nil {
		return nil, err
	}
	return s.view(st), nil
}

// View returns the current wizard state.
func (s *WizardService) View(ctx context.Context, p domain.Principal) (*WizardView, error) {
	ctx = ports.ContextWithToken(ctx, p.Token)
	st, err := s.load(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if _, ok := st.Step(st.CurrentStep()); ok {
		return s.view(st), nil
	}

	release, err := s.acquire(ctx, p.UserID)
	if errors.Is(err, domain.ErrSaveInFlight) {
		// the holder owns the draft; show the step without caching it
		if err := s.ensureStep(ctx, st, st.CurrentStep()); err != nil {
			return nil, err
		}
		return s.view(st), nil
	}
	if err != nil {
		return nil, err
	}
	defer release()

	if st, err = s.load(ctx, p.UserID); err != nil {
		return nil, err
	}
	if err := s.ensureStep(ctx, st, st.CurrentStep()); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, p.UserID, st); err != nil {
		return nil, err
	}
	return s.view(st), nil
}

// SetAnswer records the answer to a question of the current step. A
// previously attached file stays with the answer.
func (s *WizardService) SetAnswer(ctx context.Context, p domain.Principal, questionID string, in AnswerInput) (*WizardView, error) {
	release, err := s.acquire(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	defer release()

	st, err := s.load(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	step, _ := st.Step(st.CurrentStep())
	q := step.Question(questionID)
	if q == nil {
		return nil, domain.ErrQuestionNotFound
	}

	a := domain.Answer{QuestionID: questionID}
	switch {
	case q.Kind.Selectable():
		if step.Option(questionID, in.OptionID) == nil {
			return nil, domain.ErrOptionNotFound
		}
		a.OptionID = in.OptionID
	case q.Kind == domain.KindFreeText:
		a.Text = in.Text
	default:
		if in.OptionID != "" && step.Option(questionID, in.OptionID) == nil {
			return nil, domain.ErrOptionNotFound
		}
		a.OptionID, a.Text = in.OptionID, in.Text
	}
	if prev, ok := st.Answer(questionID); ok {
		a.Attachment = prev.Attachment
	}

	if err := st.SetAnswer(questionID, a); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, p.UserID, st); err != nil {
		return nil, err
	}
	return s.view(st), nil
}

// Attach validates a file for a question of the current step and queues it
// for upload on the next save.
func (s *WizardService) Attach(ctx context.Context, p domain.Principal, questionID, name string, data []byte) (*WizardView, error) {
	release, err := s.acquire(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	defer release()

	st, err := s.load(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if st.Completed() {
		return nil, domain.ErrFormCompleted
	}
	step, _ := st.Step(st.CurrentStep())
	q := step.Question(questionID)
	if q == nil {
		return nil, domain.ErrQuestionNotFound
	}
	if !acceptsAttachment(step, *q) {
		return nil, domain.ErrAttachmentNotAllowed
	}

	att, err := s.policy.Inspect(name, data)
	if err != nil {
		return nil, err
	}
	att.Key = NewAttachmentKey(st.PeriodID(), p.UserID, questionID, att.Name)

	if err := st.Attach(questionID, att, data); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, p.UserID, st); err != nil {
		return nil, err
	}
	return s.view(st), nil
}

// Advance moves to the next step when the current one is complete. An
// incomplete step is not an error: the view comes back unchanged with
// moved=false.
func (s *WizardService) Advance(ctx context.Context, p domain.Principal) (*WizardView, bool, error) {
	ctx = ports.ContextWithToken(ctx, p.Token)
	release, err := s.acquire(ctx, p.UserID)
	if err != nil {
		return nil, false, err
	}
	defer release()

	st, err := s.load(ctx, p.UserID)
	if err != nil {
		return nil, false, err
	}
	if !st.Advance() {
		metrics.WizardAdvanceTotal.WithLabelValues("blocked").Inc()
		return s.view(st), false, nil
	}
	if err := s.ensureStep(ctx, st, st.CurrentStep()); err != nil {
		return nil, false, err
	}
	if err := s.persist(ctx, p.UserID, st); err != nil {
		return nil, false, err
	}
	metrics.WizardAdvanceTotal.WithLabelValues("advanced").Inc()
	return s.view(st), true, nil
}

// Retreat moves to the previous step. No validation applies.
func (s *WizardService) Retreat(ctx context.Context, p domain.Principal) (*WizardView, error) {
	ctx = ports.ContextWithToken(ctx, p.Token)
	release, err := s.acquire(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	defer release()

	st, err := s.load(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if st.Retreat() {
		if err := s.ensureStep(ctx, st, st.CurrentStep()); err != nil {
			return nil, err
		}
		if err := s.persist(ctx, p.UserID, st); err != nil {
			return nil, err
		}
	}
	return s.view(st), nil
}

// Save commits the answers: create on the first save, full-replace patch
// afterwards. Pending attachments are uploaded alongside. Both calls must
// succeed; on failure the answers stay in the draft for a manual retry.
// The draft stays locked for the whole save, so edits sent meanwhile are
// refused with ErrSaveInFlight instead of being overwritten.
func (s *WizardService) Save(ctx context.Context, p domain.Principal) (*WizardView, error) {
	ctx = ports.ContextWithToken(ctx, p.Token)
	release, err := s.acquire(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	defer release()

	st, err := s.load(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if st.Completed() {
		return nil, domain.ErrFormCompleted
	}

	answers := st.Answers()
	uploads := st.PendingUploads()
	operation := "patch"
	if !st.Exists() {
		operation = "create"
	}

	var (
		g        errgroup.Group
		exists   bool
		uploaded bool
	)
	g.Go(func() error {
		if operation == "create" {
			err := s.backend.CreateForm(ctx, p.UserID, st.PeriodID(), answers)
			exists = err == nil || errors.Is(err, domain.ErrFormExists)
			return err
		}
		return s.backend.PatchForm(ctx, p.UserID, st.PeriodID(), answers)
	})
	if len(uploads) > 0 {
		g.Go(func() error {
			err := s.backend.UploadAttachments(ctx, st.PeriodID(), toAttachmentUploads(uploads))
			uploaded = err == nil
			return err
		})
	}
	saveErr := g.Wait()

	if exists {
		st.MarkExists()
	}
	if uploaded {
		st.ClearUploads(uploads)
	}

	if saveErr != nil {
		metrics.WizardSavesTotal.WithLabelValues(operation, "error").Inc()
		s.logger.Warn().Err(saveErr).Str("user_id", p.UserID).Str("operation", operation).Msg("wizard save failed")
		if exists || uploaded {
			if err := s.persist(ctx, p.UserID, st); err != nil {
				s.logger.Error().Err(err).Str("user_id", p.UserID).Msg("failed to record partial save")
			}
		}
		return nil, fmt.Errorf("save form: %w", saveErr)
	}

	st.MarkExists()
	if err := s.persist(ctx, p.UserID, st); err != nil {
		return nil, err
	}
	metrics.WizardSavesTotal.WithLabelValues(operation, "ok").Inc()
	s.logger.Info().Str("user_id", p.UserID).Str("period_id", st.PeriodID()).Str("operation", operation).
		Int("answers", len(answers)).Int("uploads", len(uploads)).Msg("wizard saved")

	v := s.view(st)
	v.Saved = true
	return v, nil
}

// Complete closes the form once every step is complete. It is one-way: the
// draft becomes read-only.
func (s *WizardService) Complete(ctx context.Context, p domain.Principal) (*WizardView, error) {
	ctx = ports.ContextWithToken(ctx, p.Token)
	release, err := s.acquire(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	defer release()

	st, err := s.load(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if st.Completed() {
		return nil, domain.ErrFormCompleted
	}
	for _, n := range st.MissingSteps() {
		if err := s.ensureStep(ctx, st, n); err != nil {
			return nil, err
		}
	}
	if n := st.FirstIncomplete(); n != 0 {
		return nil, fmt.Errorf("%w: step %d", domain.ErrFormIncomplete, n)
	}

	if uploads := st.PendingUploads(); len(uploads) > 0 {
		if err := s.backend.UploadAttachments(ctx, st.PeriodID(), toAttachmentUploads(uploads)); err != nil {
			return nil, fmt.Errorf("complete form: upload: %w", err)
		}
		st.ClearUploads(uploads)
	}
	if err := s.backend.CompleteForm(ctx, p.UserID, st.PeriodID(), st.Answers()); err != nil {
		if err := s.persist(ctx, p.UserID, st); err != nil {
			s.logger.Error().Err(err).Str("user_id", p.UserID).Msg("failed to record uploads")
		}
		return nil, fmt.Errorf("complete form: %w", err)
	}

	st.MarkCompleted()
	if err := s.persist(ctx, p.UserID, st); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", p.UserID).Str("period_id", st.PeriodID()).Msg("wizard completed")
	return s.view(st), nil
}

func (s *WizardService) acquire(ctx context.Context, userID string) (func(), error) {
	token, ok, err := s.lock.Acquire(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("save lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrSaveInFlight
	}
	return func() {
		// release even if the request context is already gone
		relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := s.lock.Release(relCtx, userID, token); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to release save lock")
		}
	}, nil
}

func (s *WizardService) load(ctx context.Context, userID string) (*wizard.Store, error) {
	snap, found, err := s.drafts.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	if !found {
		return nil, domain.ErrWizardNotStarted
	}
	return wizard.Restore(snap), nil
}

func (s *WizardService) persist(ctx context.Context, userID string, st *wizard.Store) error {
	if err := s.drafts.Save(ctx, userID, st.Snapshot()); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// ensureStep loads the catalog of step n unless it is cached.
func (s *WizardService) ensureStep(ctx context.Context, st *wizard.Store, n int) error {
	if _, ok := st.Step(n); ok {
		return nil
	}
	step, err := s.loadStep(ctx, n)
	if err != nil {
		return err
	}
	st.LoadStep(step)
	return nil
}

// loadStep fetches questions, types and options of step n and joins them.
func (s *WizardService) loadStep(ctx context.Context, n int) (wizard.Step, error) {
	qs, err := s.backend.QuestionsByNumber(ctx, n)
	if err != nil {
		return wizard.Step{}, fmt.Errorf("load step %d: questions: %w", n, err)
	}
	types, err := s.backend.QuestionTypes(ctx)
	if err != nil {
		return wizard.Step{}, fmt.Errorf("load step %d: types: %w", n, err)
	}
	opts, err := s.backend.AnswerOptions(ctx)
	if err != nil {
		return wizard.Step{}, fmt.Errorf("load step %d: options: %w", n, err)
	}
	return wizard.NewStep(n, ResolveKinds(qs, types), opts), nil
}

func (s *WizardService) view(st *wizard.Store) *WizardView {
	v := &WizardView{
		PeriodID:       st.PeriodID(),
		Step:           st.CurrentStep(),
		TotalSteps:     st.TotalSteps(),
		Issues:         st.Issues(),
		CanAdvance:     !st.Completed() && st.CanAdvance(),
		CanRetreat:     st.CanRetreat(),
		Saved:          st.Exists(),
		Completed:      st.Completed(),
		PendingUploads: len(st.PendingUploads()),
	}
	if st.Completed() {
		// read-only resume: browsing is allowed, editing is not
		v.CanAdvance = st.CurrentStep() < st.TotalSteps()
	}
	v.CanComplete = !st.Completed() && st.CurrentStep() == st.TotalSteps() &&
		len(st.MissingSteps()) == 0 && st.FirstIncomplete() == 0

	step, ok := st.Step(st.CurrentStep())
	if !ok {
		return v
	}
	answers := st.AnswerMap()
	for _, q := range step.VisibleQuestions(answers) {
		qv := QuestionView{Question: q, Options: step.Options[q.ID]}
		if a, ok := answers[q.ID]; ok {
			qv.Answer = &a
		}
		v.Questions = append(v.Questions, qv)
	}
	return v
}

func acceptsAttachment(step wizard.Step, q domain.Question) bool {
	if q.AllowsAttachment || q.Kind == domain.KindAttachment {
		return true
	}
	for _, o := range step.Options[q.ID] {
		if o.RequiresAttachment {
			return true
		}
	}
	return false
}

func toAttachmentUploads(uploads []wizard.Upload) []ports.AttachmentUpload {
	out := make([]ports.AttachmentUpload, len(uploads))
	for i, u := range uploads {
		out[i] = ports.AttachmentUpload{
			QuestionID: u.QuestionID,
			Name:       u.Attachment.Name,
			Key:        u.Attachment.Key,
			Data:       u.Data,
		}
	}
	return out
}
