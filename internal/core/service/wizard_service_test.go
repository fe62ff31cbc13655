package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgirs-cali/portal/internal/core/domain"
	"github.com/sgirs-cali/portal/internal/core/ports"
	"github.com/sgirs-cali/portal/internal/core/wizard"
)

const testPeriod = "2026-1"

type fakeBackend struct {
	mu sync.Mutex

	periods  []domain.SurveyPeriod
	sessions []domain.FormSession

	createErr   error
	patchErr    error
	uploadErr   error
	completeErr error

	creates   int
	patches   int
	completes int
	uploads   []ports.AttachmentUpload
	saved     []domain.Answer
	tokens    map[string]bool

	// runs while a create or patch is in flight
	onSave func()
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		periods: []domain.SurveyPeriod{{ID: testPeriod, Name: "Primer semestre 2026", Active: true}},
		tokens:  make(map[string]bool),
	}
}

func (b *fakeBackend) seen(ctx context.Context) {
	b.mu.Lock()
	b.tokens[ports.TokenFromContext(ctx)] = true
	b.mu.Unlock()
}

func (b *fakeBackend) Periods(ctx context.Context) ([]domain.SurveyPeriod, error) {
	b.seen(ctx)
	return b.periods, nil
}

func (b *fakeBackend) VerifyForm(ctx context.Context, _ string) ([]domain.FormSession, error) {
	b.seen(ctx)
	return b.sessions, nil
}

func (b *fakeBackend) QuestionsByNumber(_ context.Context, n int) ([]domain.Question, error) {
	switch n {
	case 1:
		return []domain.Question{
			{ID: "q-separation", Number: 1, Prompt: "¿Separa los residuos en la fuente?", TypeID: "t-yesno", AllowsAttachment: true, Order: 1},
			{ID: "q-separation-detail", Number: 1, Prompt: "Describa el proceso", TypeID: "t-text", Order: 2,
				Dependency: &domain.Dependency{DependsOn: "q-separation", TriggerOptionID: "opt-si"}},
		}, nil
	case 2:
		return []domain.Question{
			{ID: "q-compost", Number: 2, Prompt: "¿Realiza compostaje?", TypeID: "t-yesno", Order: 1},
		}, nil
	}
	return nil, nil
}

func (b *fakeBackend) StepCount(context.Context) (int, error) { return 2, nil }

func (b *fakeBackend) QuestionTypes(context.Context) ([]domain.QuestionType, error) {
	return []domain.QuestionType{
		{ID: "t-yesno", Kind: domain.KindYesNo, Label: "Sí/No"},
		{ID: "t-text", Kind: domain.KindFreeText, Label: "Texto"},
	}, nil
}

func (b *fakeBackend) AnswerOptions(context.Context) ([]domain.AnswerOption, error) {
	return []domain.AnswerOption{
		{ID: "opt-si", QuestionID: "q-separation", Order: 1, Label: "Sí", RequiresAttachment: true},
		{ID: "opt-no", QuestionID: "q-separation", Order: 2, Label: "No"},
		{ID: "opt-compost-si", QuestionID: "q-compost", Order: 1, Label: "Sí"},
		{ID: "opt-compost-no", QuestionID: "q-compost", Order: 2, Label: "No"},
	}, nil
}

func (b *fakeBackend) CreateForm(ctx context.Context, _, _ string, answers []domain.Answer) error {
	b.seen(ctx)
	if b.onSave != nil {
		b.onSave()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.creates++
	if b.createErr != nil {
		return b.createErr
	}
	b.saved = answers
	return nil
}

func (b *fakeBackend) PatchForm(ctx context.Context, _, _ string, answers []domain.Answer) error {
	b.seen(ctx)
	if b.onSave != nil {
		b.onSave()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.patches++
	if b.patchErr != nil {
		return b.patchErr
	}
	b.saved = answers
	return nil
}

func (b *fakeBackend) UploadAttachments(_ context.Context, _ string, files []ports.AttachmentUpload) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.uploadErr != nil {
		return b.uploadErr
	}
	b.uploads = append(b.uploads, files...)
	return nil
}

func (b *fakeBackend) CompleteForm(_ context.Context, _, _ string, answers []domain.Answer) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.completeErr != nil {
		return b.completeErr
	}
	b.completes++
	b.saved = answers
	return nil
}

// memDrafts stores snapshots as JSON, like the Redis draft store.
type memDrafts struct {
	mu    sync.Mutex
	snaps map[string][]byte
}

func (d *memDrafts) Load(_ context.Context, userID string) (wizard.Snapshot, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, ok := d.snaps[userID]
	if !ok {
		return wizard.Snapshot{}, false, nil
	}
	var snap wizard.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return wizard.Snapshot{}, false, err
	}
	return snap, true, nil
}

func (d *memDrafts) Save(_ context.Context, userID string, snap wizard.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.snaps[userID] = raw
	d.mu.Unlock()
	return nil
}

type memLock struct {
	mu   sync.Mutex
	seq  int
	held map[string]string
}

func (l *memLock) Acquire(_ context.Context, userID string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[userID]; ok {
		return "", false, nil
	}
	l.seq++
	token := fmt.Sprintf("lock-%d", l.seq)
	l.held[userID] = token
	return token, true, nil
}

func (l *memLock) Release(_ context.Context, userID, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[userID] == token {
		delete(l.held, userID)
	}
	return nil
}

type wizardHarness struct {
	svc     *WizardService
	backend *fakeBackend
	drafts  *memDrafts
	lock    *memLock
	citizen domain.Principal
}

func newWizardHarness(t *testing.T) *wizardHarness {
	t.Helper()
	h := &wizardHarness{
		backend: newFakeBackend(),
		drafts:  &memDrafts{snaps: make(map[string][]byte)},
		lock:    &memLock{held: make(map[string]string)},
		citizen: domain.Principal{UserID: "u-1", Username: "vecina", Role: domain.RoleCitizen, Token: "tok-u-1"},
	}
	h.svc = NewWizardService(h.backend, h.drafts, h.lock, AttachmentPolicy{}, zerolog.Nop())
	return h
}

func questionIDs(v *WizardView) []string {
	ids := make([]string, len(v.Questions))
	for i, q := range v.Questions {
		ids[i] = q.ID
	}
	return ids
}

func TestWizard_EnterStartsFreshOnStepOne(t *testing.T) {
	h := newWizardHarness(t)

	v, err := h.svc.Enter(context.Background(), h.citizen)
	require.NoError(t, err)

	assert.Equal(t, testPeriod, v.PeriodID)
	assert.Equal(t, 1, v.Step)
	assert.Equal(t, 2, v.TotalSteps)
	assert.Equal(t, []string{"q-separation"}, questionIDs(v), "dependent question stays hidden")
	assert.False(t, v.CanAdvance)
	assert.False(t, v.CanRetreat)
	assert.False(t, v.Saved)
	assert.True(t, h.backend.tokens["tok-u-1"], "backend calls carry the citizen token")
}

func TestWizard_ViewBeforeEnter(t *testing.T) {
	h := newWizardHarness(t)
	_, err := h.svc.View(context.Background(), h.citizen)
	assert.ErrorIs(t, err, domain.ErrWizardNotStarted)
}

func TestWizard_InactivePeriodRefused(t *testing.T) {
	h := newWizardHarness(t)
	h.backend.periods[0].Active = false

	_, err := h.svc.Enter(context.Background(), h.citizen)
	assert.ErrorIs(t, err, domain.ErrPeriodInactive)
}

func TestWizard_AnswerNoAdvancesToStepTwo(t *testing.T) {
	h := newWizardHarness(t)
	ctx := context.Background()
	_, err := h.svc.Enter(ctx, h.citizen)
	require.NoError(t, err)

	v, err := h.svc.SetAnswer(ctx, h.citizen, "q-separation", AnswerInput{OptionID: "opt-no"})
	require.NoError(t, err)
	assert.True(t, v.CanAdvance)

	v, moved, err := h.svc.Advance(ctx, h.citizen)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, 2, v.Step)
	assert.Equal(t, []string{"q-compost"}, questionIDs(v))
}

func TestWizard_AnswerSiNeedsPDF(t *testing.T) {
	h := newWizardHarness(t)
	ctx := context.Background()
	_, err := h.svc.Enter(ctx, h.citizen)
	require.NoError(t, err)

	v, err := h.svc.SetAnswer(ctx, h.citizen, "q-separation", AnswerInput{OptionID: "opt-si"})
	require.NoError(t, err)
	assert.Equal(t, []string{"q-separation", "q-separation-detail"}, questionIDs(v))
	_, err = h.svc.SetAnswer(ctx, h.citizen, "q-separation-detail", AnswerInput{Text: "Canecas por color"})
	require.NoError(t, err)

	v, moved, err := h.svc.Advance(ctx, h.citizen)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, 1, v.Step)
	assert.Contains(t, v.Issues, wizard.Issue{QuestionID: "q-separation", Code: wizard.IssueMissingAttachment})

	v, err = h.svc.Attach(ctx, h.citizen, "q-separation", "plan.pdf", samplePDF)
	require.NoError(t, err)
	assert.Equal(t, 1, v.PendingUploads)
	assert.True(t, v.CanAdvance)

	v, moved, err = h.svc.Advance(ctx, h.citizen)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, 2, v.Step)
}

func TestWizard_AttachRejectsNonDocument(t *testing.T) {
	h := newWizardHarness(t)
	ctx := context.Background()
	_, err := h.svc.Enter(ctx, h.citizen)
	require.NoError(t, err)

	_, err = h.svc.Attach(ctx, h.citizen, "q-separation", "plan.pdf", []byte("solo texto plano"))
	assert.ErrorIs(t, err, domain.ErrAttachmentInvalid)

	_, err = h.svc.Attach(ctx, h.citizen, "q-separation-detail", "plan.pdf", samplePDF)
	assert.ErrorIs(t, err, domain.ErrAttachmentNotAllowed)
}

func TestWizard_SetAnswerRejectsForeignOption(t *testing.T) {
	h := newWizardHarness(t)
	ctx := context.Background()
	_, err := h.svc.Enter(ctx, h.citizen)
	require.NoError(t, err)

	_, err = h.svc.SetAnswer(ctx, h.citizen, "q-separation", AnswerInput{OptionID: "opt-compost-si"})
	assert.ErrorIs(t, err, domain.ErrOptionNotFound)
	_, err = h.svc.SetAnswer(ctx, h.citizen, "q-compost", AnswerInput{OptionID: "opt-compost-si"})
	assert.ErrorIs(t, err, domain.ErrQuestionNotFound, "questions of other steps are not editable")
}

func TestWizard_RetreatKeepsAnswers(t *testing.T) {
	h := newWizardHarness(t)
	ctx := context.Background()
	_, err := h.svc.Enter(ctx, h.citizen)
	require.NoError(t, err)
	_, err = h.svc.SetAnswer(ctx, h.citizen, "q-separation", AnswerInput{OptionID: "opt-no"})
	require.NoError(t, err)
	_, _, err = h.svc.Advance(ctx, h.citizen)
	require.NoError(t, err)

	v, err := h.svc.Retreat(ctx, h.citizen)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Step)
	require.NotNil(t, v.Questions[0].Answer)
	assert.Equal(t, "opt-no", v.Questions[0].Answer.OptionID)
}

func TestWizard_FirstSaveCreatesThenPatches(t *testing.T) {
	h := newWizardHarness(t)
	ctx := context.Background()
	_, err := h.svc.Enter(ctx, h.citizen)
	require.NoError(t, err)
	_, err = h.svc.SetAnswer(ctx, h.citizen, "q-separation", AnswerInput{OptionID: "opt-no"})
	require.NoError(t, err)

	v, err := h.svc.Save(ctx, h.citizen)
	require.NoError(t, err)
	assert.True(t, v.Saved)
	assert.Equal(t, 1, h.backend.creates)
	assert.Equal(t, 0, h.backend.patches)

	_, err = h.svc.Save(ctx, h.citizen)
	require.NoError(t, err)
	assert.Equal(t, 1, h.backend.creates, "create happens exactly once")
	assert.Equal(t, 1, h.backend.patches)
	assert.Empty(t, h.lock.held, "lock is released after each save")
}

func TestWizard_ExistingSessionIsPrefilledAndPatched(t *testing.T) {
	h := newWizardHarness(t)
	ctx := context.Background()
	h.backend.sessions = []domain.FormSession{{
		UserID:   "u-1",
		PeriodID: testPeriod,
		Status:   domain.FormInProgress,
		Answers:  []domain.Answer{{QuestionID: "q-separation", OptionID: "opt-no"}},
	}}

	v, err := h.svc.Enter(ctx, h.citizen)
	require.NoError(t, err)
	assert.True(t, v.Saved)
	require.NotNil(t, v.Questions[0].Answer)
	assert.Equal(t, "opt-no", v.Questions[0].Answer.OptionID)
	assert.True(t, v.CanAdvance)

	_, err = h.svc.Save(ctx, h.citizen)
	require.NoError(t, err)
	assert.Equal(t, 0, h.backend.creates)
	assert.Equal(t, 1, h.backend.patches)
}

func TestWizard_SaveUploadsPendingFilesOnce(t *testing.T) {
	h := newWizardHarness(t)
	ctx := context.Background()
	_, err := h.svc.Enter(ctx, h.citizen)
	require.NoError(t, err)
	_, err = h.svc.SetAnswer(ctx, h.citizen, "q-separation", AnswerInput{OptionID: "opt-si"})
	require.NoError(t, err)
	_, err = h.svc.Attach(ctx, h.citizen, "q-separation", "plan.pdf", samplePDF)
	require.NoError(t, err)

	v, err := h.svc.Save(ctx, h.citizen)
	require.NoError(t, err)
	assert.Zero(t, v.PendingUploads)
	require.Len(t, h.backend.uploads, 1)
	up := h.backend.uploads[0]
	assert.Equal(t, "q-separation", up.QuestionID)
	assert.True(t, strings.HasPrefix(up.Key, AttachmentPrefix(testPeriod, "u-1")+"q-separation/"))

	require.Len(t, h.backend.saved, 1)
	require.NotNil(t, h.backend.saved[0].Attachment)
	assert.Equal(t, up.Key, h.backend.saved[0].Attachment.Key, "answer references the uploaded key")

	_, err = h.svc.Save(ctx, h.citizen)
	require.NoError(t, err)
	assert.Len(t, h.backend.uploads, 1, "uploaded files are not sent again")
}

func TestWizard_FailedSaveKeepsStateForRetry(t *testing.T) {
	h := newWizardHarness(t)
	ctx := context.Background()
	_, err := h.svc.Enter(ctx, h.citizen)
	require.NoError(t, err)
	_, err = h.svc.SetAnswer(ctx, h.citizen, "q-separation", AnswerInput{OptionID: "opt-no"})
	require.NoError(t, err)

	h.backend.createErr = domain.ErrBackendUnavailable
	_, err = h.svc.Save(ctx, h.citizen)
	require.ErrorIs(t, err, domain.ErrBackendUnavailable)

	v, err := h.svc.View(ctx, h.citizen)
	require.NoError(t, err)
	assert.False(t, v.Saved)
	require.NotNil(t, v.Questions[0].Answer)
	assert.Equal(t, "opt-no", v.Questions[0].Answer.OptionID)

	h.backend.createErr = nil
	_, err = h.svc.Save(ctx, h.citizen)
	require.NoError(t, err)
	assert.Equal(t, 2, h.backend.creates, "retry still creates")
	assert.Equal(t, 0, h.backend.patches)
}

func TestWizard_FailedUploadStillRecordsCreate(t *testing.T) {
	h := newWizardHarness(t)
	ctx := context.Background()
	_, err := h.svc.Enter(ctx, h.citizen)
	require.NoError(t, err)
	_, err = h.svc.SetAnswer(ctx, h.citizen, "q-separation", AnswerInput{OptionID: "opt-si"})
	require.NoError(t, err)
	_, err = h.svc.Attach(ctx, h.citizen, "q-separation", "plan.pdf", samplePDF)
	require.NoError(t, err)

	h.backend.uploadErr = domain.ErrBackendUnavailable
	_, err = h.svc.Save(ctx, h.citizen)
	require.Error(t, err)

	v, err := h.svc.View(ctx, h.citizen)
	require.NoError(t, err)
	assert.Equal(t, 1, v.PendingUploads, "file stays queued")

	h.backend.uploadErr = nil
	_, err = h.svc.Save(ctx, h.citizen)
	require.NoError(t, err)
	assert.Equal(t, 1, h.backend.creates)
	assert.Equal(t, 1, h.backend.patches, "session created by the failed save is patched")
	assert.Len(t, h.backend.uploads, 1)
}

func TestWizard_CreateConflictSwitchesToPatch(t *testing.T) {
	h := newWizardHarness(t)
	ctx := context.Background()
	_, err := h.svc.Enter(ctx, h.citizen)
	require.NoError(t, err)

	h.backend.createErr = domain.ErrFormExists
	_, err = h.svc.Save(ctx, h.citizen)
	require.ErrorIs(t, err, domain.ErrFormExists)

	h.backend.createErr = nil
	_, err = h.svc.Save(ctx, h.citizen)
	require.NoError(t, err)
	assert.Equal(t, 1, h.backend.creates)
	assert.Equal(t, 1, h.backend.patches)
}

func TestWizard_ConcurrentSaveRefused(t *testing.T) {
	h := newWizardHarness(t)
	ctx := context.Background()
	_, err := h.svc.Enter(ctx, h.citizen)
	require.NoError(t, err)

	h.lock.held["u-1"] = "other-request"
	_, err = h.svc.Save(ctx, h.citizen)
	assert.ErrorIs(t, err, domain.ErrSaveInFlight)
	assert.Zero(t, h.backend.creates)
	assert.Equal(t, "other-request", h.lock.held["u-1"], "the holder keeps its lock")
}

func TestWizard_EditDuringSaveIsRefusedNotLost(t *testing.T) {
	h := newWizardHarness(t)
	ctx := context.Background()
	_, err := h.svc.Enter(ctx, h.citizen)
	require.NoError(t, err)
	_, err = h.svc.SetAnswer(ctx, h.citizen, "q-separation", AnswerInput{OptionID: "opt-si"})
	require.NoError(t, err)

	var editErrs []error
	h.backend.onSave = func() {
		_, err := h.svc.SetAnswer(ctx, h.citizen, "q-separation", AnswerInput{OptionID: "opt-no"})
		editErrs = append(editErrs, err)
		_, _, err = h.svc.Advance(ctx, h.citizen)
		editErrs = append(editErrs, err)
		_, err = h.svc.Retreat(ctx, h.citizen)
		editErrs = append(editErrs, err)
		_, err = h.svc.Attach(ctx, h.citizen, "q-separation", "plan.pdf", samplePDF)
		editErrs = append(editErrs, err)
	}
	_, err = h.svc.Save(ctx, h.citizen)
	require.NoError(t, err)
	require.Len(t, editErrs, 4)
	for _, err := range editErrs {
		assert.ErrorIs(t, err, domain.ErrSaveInFlight)
	}

	v, err := h.svc.View(ctx, h.citizen)
	require.NoError(t, err)
	require.NotNil(t, v.Questions[0].Answer)
	assert.Equal(t, "opt-si", v.Questions[0].Answer.OptionID, "draft holds what was saved")
	assert.Zero(t, v.PendingUploads)

	h.backend.onSave = nil
	_, err = h.svc.SetAnswer(ctx, h.citizen, "q-separation", AnswerInput{OptionID: "opt-no"})
	require.NoError(t, err, "edits go through once the save is done")
	_, err = h.svc.Save(ctx, h.citizen)
	require.NoError(t, err)
	require.Len(t, h.backend.saved, 1)
	assert.Equal(t, "opt-no", h.backend.saved[0].OptionID)
	assert.Empty(t, h.lock.held)
}

func TestWizard_ViewDuringSaveLoadsStepWithoutCaching(t *testing.T) {
	h := newWizardHarness(t)
	ctx := context.Background()
	_, err := h.svc.Enter(ctx, h.citizen)
	require.NoError(t, err)
	_, err = h.svc.SetAnswer(ctx, h.citizen, "q-separation", AnswerInput{OptionID: "opt-no"})
	require.NoError(t, err)

	// drop the cached catalog of the current step
	snap, _, err := h.drafts.Load(ctx, "u-1")
	require.NoError(t, err)
	delete(snap.Steps, 1)
	require.NoError(t, h.drafts.Save(ctx, "u-1", snap))

	var (
		during  *WizardView
		viewErr error
	)
	h.backend.onSave = func() {
		during, viewErr = h.svc.View(ctx, h.citizen)
	}
	_, err = h.svc.Save(ctx, h.citizen)
	require.NoError(t, err)
	require.NoError(t, viewErr, "reading is never blocked by a save")
	assert.Equal(t, []string{"q-separation"}, questionIDs(during))

	snap, _, err = h.drafts.Load(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, snap.Exists, "the save's result is kept")
	_, cached := snap.Steps[1]
	assert.False(t, cached, "view under a held lock does not write the draft")

	h.backend.onSave = nil
	_, err = h.svc.View(ctx, h.citizen)
	require.NoError(t, err)
	snap, _, err = h.drafts.Load(ctx, "u-1")
	require.NoError(t, err)
	_, cached = snap.Steps[1]
	assert.True(t, cached)
}

func TestWizard_CompleteWalkthrough(t *testing.T) {
	h := newWizardHarness(t)
	ctx := context.Background()
	_, err := h.svc.Enter(ctx, h.citizen)
	require.NoError(t, err)
	_, err = h.svc.SetAnswer(ctx, h.citizen, "q-separation", AnswerInput{OptionID: "opt-no"})
	require.NoError(t, err)

	_, err = h.svc.Complete(ctx, h.citizen)
	require.ErrorIs(t, err, domain.ErrFormIncomplete)

	_, _, err = h.svc.Advance(ctx, h.citizen)
	require.NoError(t, err)
	v, err := h.svc.SetAnswer(ctx, h.citizen, "q-compost", AnswerInput{OptionID: "opt-compost-si"})
	require.NoError(t, err)
	assert.True(t, v.CanComplete)
	assert.False(t, v.CanAdvance, "last step")

	v, err = h.svc.Complete(ctx, h.citizen)
	require.NoError(t, err)
	assert.True(t, v.Completed)
	assert.Equal(t, 1, h.backend.completes)
	assert.Len(t, h.backend.saved, 2)

	_, err = h.svc.SetAnswer(ctx, h.citizen, "q-compost", AnswerInput{OptionID: "opt-compost-no"})
	assert.ErrorIs(t, err, domain.ErrFormCompleted)
	_, err = h.svc.Complete(ctx, h.citizen)
	assert.ErrorIs(t, err, domain.ErrFormCompleted)
}

func TestWizard_CompletedSessionResumesReadOnly(t *testing.T) {
	h := newWizardHarness(t)
	ctx := context.Background()
	h.backend.periods[0].Active = false
	h.backend.sessions = []domain.FormSession{{
		UserID:    "u-1",
		PeriodID:  testPeriod,
		Status:    domain.FormCompleted,
		Completed: true,
		Answers:   []domain.Answer{{QuestionID: "q-separation", OptionID: "opt-no"}, {QuestionID: "q-compost", OptionID: "opt-compost-no"}},
	}}

	v, err := h.svc.Enter(ctx, h.citizen)
	require.NoError(t, err, "completed forms stay viewable after the period closes")
	assert.True(t, v.Completed)
	assert.True(t, v.CanAdvance, "browsing is allowed")

	_, err = h.svc.SetAnswer(ctx, h.citizen, "q-separation", AnswerInput{OptionID: "opt-si"})
	assert.ErrorIs(t, err, domain.ErrFormCompleted)
	_, err = h.svc.Save(ctx, h.citizen)
	assert.True(t, errors.Is(err, domain.ErrFormCompleted))
	assert.Zero(t, h.backend.patches)
}

func TestWizard_ReenterResumesDraft(t *testing.T) {
	h := newWizardHarness(t)
	ctx := context.Background()
	_, err := h.svc.Enter(ctx, h.citizen)
	require.NoError(t, err)
	_, err = h.svc.SetAnswer(ctx, h.citizen, "q-separation", AnswerInput{OptionID: "opt-no"})
	require.NoError(t, err)
	_, _, err = h.svc.Advance(ctx, h.citizen)
	require.NoError(t, err)

	v, err := h.svc.Enter(ctx, h.citizen)
	require.NoError(t, err)
	assert.Equal(t, 2, v.Step, "unsaved progress survives re-entry")
}
