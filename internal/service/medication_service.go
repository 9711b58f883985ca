package service

import (
	"context"
	"health_track_backend/internal/model"
	"health_track_backend/internal/util"
	"health_track_backend/internal/workflow"
	"health_track_backend/pkg/logger"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type MedicationService struct {
	Medications MedicationStore
	Gate        FeatureGate
	Now         func() time.Time
}

func NewMedicationService(medications MedicationStore, gate FeatureGate) *MedicationService {
	return &MedicationService{Medications: medications, Gate: gate, Now: time.Now}
}

type MedicationInput struct {
	Name       string `json:"name"`
	Dosage     string `json:"dosage"`
	Frequency  string `json:"frequency"`
	Timing     string `json:"timing"`
	Indication string `json:"indication"`
	StartDate  string `json:"startDate"`
	Notes      string `json:"notes"`
}

// MedicationUpdate 为 nil 的字段不修改
type MedicationUpdate struct {
	Dosage     *string `json:"dosage"`
	Frequency  *string `json:"frequency"`
	Timing     *string `json:"timing"`
	Indication *string `json:"indication"`
	Notes      *string `json:"notes"`
	Reason     string  `json:"reason"`
}

type StopInput struct {
	StopDate string `json:"stopDate"`
	Reason   string `json:"reason"`
}

func (s *MedicationService) gate(ctx context.Context, sess Session) error {
	_, err := s.Gate.RequireFeatureAnyProgram(ctx, sess, workflow.FeatureMedicationLog)
	return err
}

func (s *MedicationService) owned(ctx context.Context, sess Session, id uint) (*model.Medication, error) {
	if err := s.gate(ctx, sess); err != nil {
		return nil, err
	}
	med, err := s.Medications.FindByID(ctx, id)
	if err != nil {
		return nil, util.Persistence("find medication", err)
	}
	if !sess.Owns(med.UserID) {
		return nil, util.ErrPermissionDenied
	}
	return med, nil
}

// Add 新增药物并记录 start 事件
func (s *MedicationService) Add(ctx context.Context, sess Session, in MedicationInput) (*model.Medication, error) {
	if err := s.gate(ctx, sess); err != nil {
		return nil, err
	}

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"name", in.Name}, {"dosage", in.Dosage}, {"frequency", in.Frequency},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	start := s.Now()
	if in.StartDate != "" {
		d, err := util.ParseDate(in.StartDate)
		if err != nil {
			missing = append(missing, "startDate")
		} else {
			start = *d
		}
	}
	if len(missing) > 0 {
		return nil, util.NewValidationError(missing...)
	}

	med := &model.Medication{
		UserID:     sess.UserID,
		Name:       strings.TrimSpace(in.Name),
		Dosage:     strings.TrimSpace(in.Dosage),
		Frequency:  strings.TrimSpace(in.Frequency),
		Timing:     strings.TrimSpace(in.Timing),
		Indication: strings.TrimSpace(in.Indication),
		StartDate:  datatypes.Date(start),
		StillUsing: true,
		Notes:      strings.TrimSpace(in.Notes),
	}
	event := encodeHistoryEvent(sess.UserID, 0, MedicationStarted{At: start, Dosage: med.Dosage, Frequency: med.Frequency})
	if err := s.Medications.CreateWithEvent(ctx, med, event); err != nil {
		return nil, util.Persistence("create medication", err)
	}
	logger.Log.Info("medication added", zap.Uint("userID", sess.UserID), zap.Uint("medicationID", med.ID))
	return med, nil
}

// Update 剂量或频次变化时追加 dosage_change 事件
func (s *MedicationService) Update(ctx context.Context, sess Session, id uint, in MedicationUpdate) (*model.Medication, error) {
	med, err := s.owned(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if !med.StillUsing {
		return nil, util.ErrMedicationStopped
	}

	columns := map[string]interface{}{}
	updated := *med
	set := func(col string, v *string, dst *string) bool {
		if v == nil {
			return false
		}
		val := strings.TrimSpace(*v)
		if val == *dst {
			return false
		}
		columns[col] = val
		*dst = val
		return true
	}
	if in.Dosage != nil && strings.TrimSpace(*in.Dosage) == "" {
		return nil, util.NewValidationError("dosage")
	}
	if in.Frequency != nil && strings.TrimSpace(*in.Frequency) == "" {
		return nil, util.NewValidationError("frequency")
	}
	dosageChanged := set("dosage", in.Dosage, &updated.Dosage)
	frequencyChanged := set("frequency", in.Frequency, &updated.Frequency)
	set("timing", in.Timing, &updated.Timing)
	set("indication", in.Indication, &updated.Indication)
	set("notes", in.Notes, &updated.Notes)
	if len(columns) == 0 {
		return med, nil
	}
	now := s.Now()
	columns["updated_at"] = now
	updated.UpdatedAt = now

	var event *model.MedicationHistoryEvent
	if dosageChanged || frequencyChanged {
		change := DosageChanged{At: now, From: med.Dosage, To: updated.Dosage, Reason: strings.TrimSpace(in.Reason)}
		if frequencyChanged {
			change.Frequency = updated.Frequency
		}
		event = encodeHistoryEvent(sess.UserID, id, change)
	}
	if err := s.Medications.UpdateWithEvent(ctx, id, columns, event); err != nil {
		return nil, util.Persistence("update medication", err)
	}
	return &updated, nil
}

// Stop 设置停药日期，重复停药返回 ErrMedicationStopped
func (s *MedicationService) Stop(ctx context.Context, sess Session, id uint, in StopInput) (*model.Medication, error) {
	med, err := s.owned(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if !med.StillUsing {
		return nil, util.ErrMedicationStopped
	}

	now := s.Now()
	stop := now
	if in.StopDate != "" {
		d, err := util.ParseDate(in.StopDate)
		if err != nil {
			return nil, util.NewValidationError("stopDate")
		}
		stop = *d
	}
	if util.DateOnly(stop).Before(util.DateOnly(time.Time(med.StartDate))) {
		return nil, util.NewValidationError("stopDate")
	}

	stopDate := datatypes.Date(stop)
	columns := map[string]interface{}{
		"stop_date":   stopDate,
		"still_using": false,
		"updated_at":  now,
	}
	event := encodeHistoryEvent(sess.UserID, id, MedicationStopped{At: stop, Reason: strings.TrimSpace(in.Reason)})
	if err := s.Medications.UpdateWithEvent(ctx, id, columns, event); err != nil {
		return nil, util.Persistence("stop medication", err)
	}

	med.StopDate = &stopDate
	med.StillUsing = false
	med.UpdatedAt = now
	logger.Log.Info("medication stopped", zap.Uint("medicationID", id))
	return med, nil
}

func (s *MedicationService) AddNote(ctx context.Context, sess Session, id uint, notes string) (*HistoryItem, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, util.NewValidationError("notes")
	}
	if _, err := s.owned(ctx, sess, id); err != nil {
		return nil, err
	}
	note := MedicationNote{At: s.Now(), Notes: strings.TrimSpace(notes)}
	row := encodeHistoryEvent(sess.UserID, id, note)
	if err := s.Medications.AppendEvent(ctx, row); err != nil {
		return nil, util.Persistence("append medication note", err)
	}
	return &HistoryItem{
		ID:           row.ID,
		MedicationID: id,
		EventType:    note.Kind(),
		EventDate:    note.Date(),
		Description:  note.Describe(),
		Detail:       note,
	}, nil
}

func (s *MedicationService) Delete(ctx context.Context, sess Session, id uint) error {
	if _, err := s.owned(ctx, sess, id); err != nil {
		return err
	}
	if err := s.Medications.Delete(ctx, id); err != nil {
		return util.Persistence("delete medication", err)
	}
	logger.Log.Info("medication deleted", zap.Uint("medicationID", id))
	return nil
}

func (s *MedicationService) List(ctx context.Context, sess Session, activeOnly bool) ([]model.Medication, error) {
	if err := s.gate(ctx, sess); err != nil {
		return nil, err
	}
	meds, err := s.Medications.ListByUser(ctx, sess.UserID, activeOnly)
	if err != nil {
		return nil, util.Persistence("list medications", err)
	}
	return meds, nil
}

// History 按 event_date 升序
func (s *MedicationService) History(ctx context.Context, sess Session, id uint) ([]HistoryItem, error) {
	if _, err := s.owned(ctx, sess, id); err != nil {
		return nil, err
	}
	rows, err := s.Medications.ListHistory(ctx, id)
	if err != nil {
		return nil, util.Persistence("list medication history", err)
	}
	return decodeHistory(rows)
}
