package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sgirs-cali/portal/internal/api/metrics"
	"github.com/sgirs-cali/portal/internal/core/domain"
	"github.com/sgirs-cali/portal/internal/core/ports"
)

// FormService is the authoritative store of form sessions: one per
// (citizen, period), answers replaced wholesale, completion one-way.
type FormService struct {
	forms       ports.FormRepository
	periods     ports.PeriodRepository
	catalog     ports.CatalogService
	attachments ports.AttachmentStore
	events      ports.FormEventRepository
	audit       ports.AuditSink
	policy      AttachmentPolicy
	logger      zerolog.Logger
}

// FormServiceDeps groups FormService collaborators.
type FormServiceDeps struct {
	Forms       ports.FormRepository
	Periods     ports.PeriodRepository
	Catalog     ports.CatalogService
	Attachments ports.AttachmentStore
	Events      ports.FormEventRepository
	Audit       ports.AuditSink
	Policy      AttachmentPolicy
}

func NewFormService(deps FormServiceDeps, logger zerolog.Logger) *FormService {
	return &FormService{
		forms:       deps.Forms,
		periods:     deps.Periods,
		catalog:     deps.Catalog,
		attachments: deps.Attachments,
		events:      deps.Events,
		audit:       deps.Audit,
		policy:      deps.Policy,
		logger:      logger,
	}
}

// Verify returns the sessions of user for period: none or exactly one.
func (s *FormService) Verify(ctx context.Context, userID, periodID string) ([]domain.FormSession, error) {
	f, err := s.forms.Find(ctx, userID, periodID)
	if errors.Is(err, domain.ErrFormNotFound) {
		return []domain.FormSession{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("verify form: %w", err)
	}
	return []domain.FormSession{*f}, nil
}

// Create opens the session of user for an active period.
func (s *FormService) Create(ctx context.Context, actor domain.Principal, userID, periodID string, answers []domain.Answer) (*domain.FormSession, error) {
	if err := authorize(actor, userID); err != nil {
		return nil, err
	}
	if err := s.requireActivePeriod(ctx, periodID); err != nil {
		return nil, err
	}
	if err := checkAnswers(answers); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	f := &domain.FormSession{
		UserID:    userID,
		PeriodID:  periodID,
		Status:    domain.FormInProgress,
		Answers:   answers,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.forms.Create(ctx, f); err != nil {
		if errors.Is(err, domain.ErrFormExists) {
			metrics.FormConflictsTotal.WithLabelValues("create").Inc()
		}
		return nil, fmt.Errorf("create form: %w", err)
	}

	s.record(actor, userID, periodID, domain.FormEventCreated, len(answers))
	s.logger.Info().Str("user_id", userID).Str("period_id", periodID).Int("answers", len(answers)).Msg("form session created")
	return f, nil
}

// Patch replaces every answer of an open session of an active period.
func (s *FormService) Patch(ctx context.Context, actor domain.Principal, userID, periodID string, answers []domain.Answer) error {
	if err := authorize(actor, userID); err != nil {
		return err
	}
	if err := s.requireActivePeriod(ctx, periodID); err != nil {
		return err
	}
	if err := checkAnswers(answers); err != nil {
		return err
	}
	if err := s.forms.ReplaceAnswers(ctx, userID, periodID, answers, time.Now().UTC()); err != nil {
		return fmt.Errorf("patch form: %w", err)
	}

	s.record(actor, userID, periodID, domain.FormEventPatched, len(answers))
	return nil
}

// UploadAttachments validates and stores files under the caller's prefix.
// The period must be active and the owning session, if it exists yet, still
// open: uploads may race the create of the same first save.
func (s *FormService) UploadAttachments(ctx context.Context, actor domain.Principal, periodID string, files []ports.AttachmentUpload) ([]domain.Attachment, error) {
	if len(files) == 0 {
		return nil, domain.ErrAttachmentInvalid
	}
	if err := s.requireActivePeriod(ctx, periodID); err != nil {
		return nil, err
	}

	prefix := AttachmentPrefix(periodID, actor.UserID)
	owners := make(map[string]bool)
	for _, f := range files {
		if actor.Role != domain.RoleAdministrator && !strings.HasPrefix(f.Key, prefix+f.QuestionID+"/") {
			return nil, fmt.Errorf("upload %s: %w", f.Key, domain.ErrForbidden)
		}
		if owner, ok := attachmentOwner(periodID, f.Key); ok {
			owners[owner] = true
		}
	}
	for owner := range owners {
		if err := s.requireOpenSession(ctx, owner, periodID); err != nil {
			return nil, err
		}
	}

	out := make([]domain.Attachment, 0, len(files))
	for _, f := range files {
		att, err := s.policy.Inspect(f.Name, f.Data)
		if err != nil {
			metrics.AttachmentsTotal.WithLabelValues("rejected").Inc()
			return nil, err
		}
		att.Key = f.Key
		if err := s.attachments.Put(ctx, f.Key, att.ContentType, f.Data); err != nil {
			metrics.AttachmentsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("store attachment %s: %w", f.Key, err)
		}
		metrics.AttachmentsTotal.WithLabelValues("stored").Inc()
		out = append(out, att)
	}

	s.record(actor, actor.UserID, periodID, domain.FormEventUploaded, len(out))
	return out, nil
}

// Complete re-validates every step against the catalog and closes the
// session for good.
func (s *FormService) Complete(ctx context.Context, actor domain.Principal, userID, periodID string, answers []domain.Answer) (*domain.FormSession, error) {
	if err := authorize(actor, userID); err != nil {
		return nil, err
	}
	if err := s.requireActivePeriod(ctx, periodID); err != nil {
		return nil, err
	}
	if err := checkAnswers(answers); err != nil {
		return nil, err
	}
	if err := s.validateAll(ctx, answers); err != nil {
		return nil, err
	}

	f, err := s.forms.Complete(ctx, userID, periodID, answers, time.Now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrFormCompleted) {
			metrics.FormConflictsTotal.WithLabelValues("complete").Inc()
		}
		return nil, fmt.Errorf("complete form: %w", err)
	}

	metrics.FormsCompletedTotal.Inc()
	s.record(actor, userID, periodID, domain.FormEventCompleted, len(answers))
	s.logger.Info().Str("user_id", userID).Str("period_id", periodID).Msg("form session completed")
	return f, nil
}

func (s *FormService) Events(ctx context.Context, userID, periodID string) ([]domain.FormEvent, error) {
	return s.events.List(ctx, userID, periodID)
}

func (s *FormService) Summaries(ctx context.Context) ([]domain.PeriodSummary, error) {
	return s.forms.Summaries(ctx)
}

func (s *FormService) validateAll(ctx context.Context, answers []domain.Answer) error {
	total, err := s.catalog.StepCount(ctx)
	if err != nil {
		return fmt.Errorf("step count: %w", err)
	}
	byQuestion := make(map[string]domain.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}
	for n := 1; n <= total; n++ {
		st, err := s.catalog.Step(ctx, n)
		if err != nil {
			return fmt.Errorf("load step %d: %w", n, err)
		}
		if issues := st.Validate(byQuestion); len(issues) > 0 {
			return fmt.Errorf("%w: step %d, question %s (%s)", domain.ErrFormIncomplete, n, issues[0].QuestionID, issues[0].Code)
		}
	}
	return nil
}

func (s *FormService) requireActivePeriod(ctx context.Context, periodID string) error {
	p, err := s.periods.FindByID(ctx, periodID)
	if err != nil {
		return err
	}
	if !p.Active {
		return domain.ErrPeriodInactive
	}
	return nil
}

// requireOpenSession fails when the user's session of the period is
// completed. A session not created yet counts as open.
func (s *FormService) requireOpenSession(ctx context.Context, userID, periodID string) error {
	f, err := s.forms.Find(ctx, userID, periodID)
	if errors.Is(err, domain.ErrFormNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find form: %w", err)
	}
	if f.Completed {
		return domain.ErrFormCompleted
	}
	return nil
}

func (s *FormService) record(actor domain.Principal, userID, periodID, kind string, answers int) {
	if s.audit == nil {
		return
	}
	s.audit.Enqueue(domain.FormEvent{
		UserID:     userID,
		PeriodID:   periodID,
		Type:       kind,
		Answers:    answers,
		ActorID:    actor.UserID,
		OccurredAt: time.Now().UTC(),
	})
}

// authorize lets citizens act on their own sessions only.
func authorize(actor domain.Principal, userID string) error {
	if actor.Role == domain.RoleAdministrator {
		return nil
	}
	if actor.UserID == "" || actor.UserID != userID {
		return domain.ErrForbidden
	}
	return nil
}

func checkAnswers(answers []domain.Answer) error {
	seen := make(map[string]struct{}, len(answers))
	for _, a := range answers {
		if a.QuestionID == "" {
			return fmt.Errorf("%w: answer without question", domain.ErrInvalidAnswers)
		}
		if _, dup := seen[a.QuestionID]; dup {
			return fmt.Errorf("%w: duplicate answer for %s", domain.ErrInvalidAnswers, a.QuestionID)
		}
		seen[a.QuestionID] = struct{}{}
	}
	return nil
}
