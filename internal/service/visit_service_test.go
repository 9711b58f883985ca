package service

import (
	"context"
	"encoding/json"
	"testing"

	"health_track_backend/internal/model"
	"health_track_backend/internal/util"
	"health_track_backend/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const recordID = "3f1c7f3e-8d7e-4b8e-9a51-0c7d1d2f9b10"

func newVisitFixture() (*VisitService, *mockVisitStore, *mockGate) {
	visits, gate := new(mockVisitStore), new(mockGate)
	svc := NewVisitService(visits, gate)
	svc.Now = clock
	return svc, visits, gate
}

func visitRecord(step model.VisitStep) *model.VisitRecord {
	rec := &model.VisitRecord{UserID: patient.UserID, ProgramID: 1, CurrentStep: step}
	rec.ID = recordID
	return rec
}

func TestVisitCreate_RequiresDoctorVisitUnlock(t *testing.T) {
	svc, visits, gate := newVisitFixture()
	ctx := context.Background()
	gate.On("RequireFeature", ctx, patient, uint(1), workflow.FeatureDoctorVisit).Return(nil, util.ErrFeatureLocked)

	_, err := svc.Create(ctx, patient, 1)
	assert.ErrorIs(t, err, util.ErrFeatureLocked)
	visits.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestVisitCreate_StartsAtPersonalInfo(t *testing.T) {
	svc, visits, gate := newVisitFixture()
	ctx := context.Background()
	gate.On("RequireFeature", ctx, patient, uint(1), workflow.FeatureDoctorVisit).Return(&model.Enrollment{}, nil)
	visits.On("Create", ctx, mock.MatchedBy(func(r *model.VisitRecord) bool {
		return r.UserID == patient.UserID && r.CurrentStep == model.StepPersonalInfo
	})).Return(nil)

	view, err := svc.Create(ctx, patient, 1)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusAvailable, view.Steps[0].Status)
	assert.Equal(t, workflow.StatusLocked, view.Steps[1].Status)
}

func TestSubmitStep_SavesThenRereads(t *testing.T) {
	svc, visits, _ := newVisitFixture()
	ctx := context.Background()

	saved := visitRecord(model.StepSymptoms)
	saved.FullName = "Jane Doe"
	visits.On("FindByID", ctx, recordID).Return(visitRecord(model.StepPersonalInfo), nil).Once()
	visits.On("SaveStep", ctx, mock.MatchedBy(func(w *workflow.StepWrite) bool {
		return w.RecordID == recordID &&
			w.NextStep == model.StepSymptoms &&
			w.ParentColumns["full_name"] == "Jane Doe" &&
			w.Symptoms == nil
	})).Return(nil).Once()
	visits.On("FindByID", ctx, recordID).Return(saved, nil).Once()

	raw := json.RawMessage(`{"fullName":"Jane Doe","dateOfBirth":"1980-05-01","visitDate":"2025-04-10"}`)
	view, err := svc.SubmitStep(ctx, patient, recordID, "personal_info", raw)
	require.NoError(t, err)
	assert.Equal(t, model.StepSymptoms, view.Record.CurrentStep)
	assert.Equal(t, workflow.StatusCompleted, view.Steps[0].Status)
	assert.Equal(t, workflow.StatusAvailable, view.Steps[1].Status)
	visits.AssertExpectations(t)
}

func TestSubmitStep_ValidationFailsBeforeWrite(t *testing.T) {
	svc, visits, _ := newVisitFixture()
	ctx := context.Background()
	visits.On("FindByID", ctx, recordID).Return(visitRecord(model.StepPersonalInfo), nil)

	_, err := svc.SubmitStep(ctx, patient, recordID, "personal_info", json.RawMessage(`{"fullName":"Jane Doe"}`))
	var ve *util.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "dateOfBirth")
	assert.Contains(t, ve.Fields, "visitDate")
	visits.AssertNotCalled(t, "SaveStep", mock.Anything, mock.Anything)
}

func TestSubmitStep_PersistenceFailureDoesNotAdvance(t *testing.T) {
	svc, visits, _ := newVisitFixture()
	ctx := context.Background()
	visits.On("FindByID", ctx, recordID).Return(visitRecord(model.StepQualityOfLife), nil).Once()
	visits.On("SaveStep", ctx, mock.Anything).Return(assert.AnError)

	raw := json.RawMessage(`{"physicalHealth":5,"emotionalWellbeing":6,"socialLife":4,"energyLevel":3,"overall":5}`)
	view, err := svc.SubmitStep(ctx, patient, recordID, "quality_of_life", raw)
	assert.Nil(t, view)
	var pe *util.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, assert.AnError)
	visits.AssertNumberOfCalls(t, "FindByID", 1)
}

func TestSubmitStep_FutureStepNotReachable(t *testing.T) {
	svc, visits, _ := newVisitFixture()
	ctx := context.Background()
	visits.On("FindByID", ctx, recordID).Return(visitRecord(model.StepPersonalInfo), nil)

	raw := json.RawMessage(`{"physicalHealth":5,"emotionalWellbeing":6,"socialLife":4,"energyLevel":3,"overall":5}`)
	_, err := svc.SubmitStep(ctx, patient, recordID, "quality_of_life", raw)
	assert.ErrorIs(t, err, util.ErrStepNotReachable)
}

func TestSubmitStep_OtherUsersRecord(t *testing.T) {
	svc, visits, _ := newVisitFixture()
	ctx := context.Background()
	rec := visitRecord(model.StepPersonalInfo)
	rec.UserID = 99
	visits.On("FindByID", ctx, recordID).Return(rec, nil)

	_, err := svc.SubmitStep(ctx, patient, recordID, "personal_info", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
}

func TestSubmitStep_UnknownStep(t *testing.T) {
	svc, _, _ := newVisitFixture()
	_, err := svc.SubmitStep(context.Background(), patient, recordID, "completed", json.RawMessage(`{}`))
	var ve *util.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"step"}, ve.Fields)
}

func TestDecodeAnswers(t *testing.T) {
	a, err := DecodeAnswers(model.StepSymptoms, json.RawMessage(`{"symptoms":[{"symptomType":"fatigue","present":true,"frequency":"daily","intensity":4}]}`))
	require.NoError(t, err)
	sa, ok := a.(workflow.SymptomsAnswers)
	require.True(t, ok)
	assert.Len(t, sa.Symptoms, 1)

	_, err = DecodeAnswers(model.StepDailyLiving, json.RawMessage(`{"unknown":1}`))
	var ve *util.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"answers"}, ve.Fields)
}

func TestVisitDelete_OwnerOnly(t *testing.T) {
	svc, visits, _ := newVisitFixture()
	ctx := context.Background()
	rec := visitRecord(model.StepSymptoms)
	rec.UserID = 99
	visits.On("FindByID", ctx, recordID).Return(rec, nil)

	admin := Session{UserID: 1, Role: model.Admin}
	assert.ErrorIs(t, svc.Delete(ctx, admin, recordID), util.ErrPermissionDenied)
	visits.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

// upsertVisits 按 (record_id, symptom_type) 覆盖子表行
type upsertVisits struct {
	rec *model.VisitRecord
}

func (u *upsertVisits) Create(context.Context, *model.VisitRecord) error { return nil }

func (u *upsertVisits) FindByID(_ context.Context, id string) (*model.VisitRecord, error) {
	if u.rec.ID != id {
		return nil, util.ErrNotFound
	}
	cp := *u.rec
	cp.Symptoms = append([]model.Symptom(nil), u.rec.Symptoms...)
	return &cp, nil
}

func (u *upsertVisits) ListByUser(context.Context, uint, uint) ([]model.VisitRecord, error) {
	return nil, nil
}

func (u *upsertVisits) SaveStep(_ context.Context, w *workflow.StepWrite) error {
	for _, row := range w.Symptoms {
		replaced := false
		for i := range u.rec.Symptoms {
			if u.rec.Symptoms[i].SymptomType == row.SymptomType {
				u.rec.Symptoms[i] = row
				replaced = true
			}
		}
		if !replaced {
			u.rec.Symptoms = append(u.rec.Symptoms, row)
		}
	}
	u.rec.CurrentStep = w.NextStep
	return nil
}

func (u *upsertVisits) Delete(context.Context, string) error { return nil }

func TestSubmitStep_ResubmitSymptomsIsIdempotent(t *testing.T) {
	store := &upsertVisits{rec: visitRecord(model.StepSymptoms)}
	svc := NewVisitService(store, new(mockGate))
	svc.Now = clock
	ctx := context.Background()

	raw := json.RawMessage(`{"symptoms":[
		{"symptomType":"fatigue","present":true,"frequency":"daily","intensity":4,"treatments":["rest"," "]},
		{"symptomType":"brain_fog","present":false}
	]}`)

	first, err := svc.SubmitStep(ctx, patient, recordID, "symptoms", raw)
	require.NoError(t, err)
	second, err := svc.SubmitStep(ctx, patient, recordID, "symptoms", raw)
	require.NoError(t, err)

	assert.Len(t, second.Record.Symptoms, len(model.SymptomTypes))
	assert.Equal(t, first.Record.Symptoms, second.Record.Symptoms)
	assert.Equal(t, model.StepDailyLiving, second.Record.CurrentStep)
}
