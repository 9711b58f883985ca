package service

import (
	"context"
	"io"
	"io/fs"
	"path/filepath"
	"testing"

	"health_track_backend/internal/config"
	"health_track_backend/internal/model"
	"health_track_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRecords 内存版病历存储
type memRecords struct {
	rows      map[uint]*model.MedicalRecord
	createErr error
}

func (m *memRecords) Create(_ context.Context, rec *model.MedicalRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	rec.ID = uint(len(m.rows) + 1)
	m.rows[rec.ID] = rec
	return nil
}

func (m *memRecords) FindByID(_ context.Context, id uint) (*model.MedicalRecord, error) {
	rec, ok := m.rows[id]
	if !ok {
		return nil, util.ErrNotFound
	}
	return rec, nil
}

func (m *memRecords) ListByUser(_ context.Context, userID uint, _ string, _, _ int) ([]model.MedicalRecord, int64, error) {
	var out []model.MedicalRecord
	for _, rec := range m.rows {
		if rec.UserID == userID {
			out = append(out, *rec)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memRecords) Delete(_ context.Context, id uint) error {
	delete(m.rows, id)
	return nil
}

func newRecordFixture(t *testing.T) (*MedicalRecordService, *memRecords, *LocalStorageProvider) {
	records := &memRecords{rows: map[uint]*model.MedicalRecord{}}
	storage := &LocalStorageProvider{Config: &config.StorageConfig{LocalPath: t.TempDir()}}
	cfg := &config.Config{Upload: config.UploadConfig{MaxRecordSizeMB: 1}}
	return NewMedicalRecordService(records, storage, cfg), records, storage
}

func TestMedicalRecordRoundTrip(t *testing.T) {
	svc, records, storage := newRecordFixture(t)
	ctx := context.Background()
	pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")

	rec, err := svc.Upload(ctx, patient, MedicalRecordInput{Category: "lab_result", RecordDate: "2025-03-02"}, fileHeader(t, "bloods.pdf", pdf))
	require.NoError(t, err)
	assert.Equal(t, util.MimePDF, rec.ContentType)
	assert.Equal(t, "bloods.pdf", rec.FileName)
	require.NotNil(t, rec.RecordDate)
	assert.Equal(t, "2025-03-02", util.FormatDate(rec.RecordDate))

	_, body, err := svc.Download(ctx, patient, rec.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	body.Close()
	require.NoError(t, err)
	assert.Equal(t, pdf, data)

	require.NoError(t, svc.Delete(ctx, patient, rec.ID))
	assert.Empty(t, records.rows)
	_, err = storage.Open(ctx, rec.ObjectKey)
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestMedicalRecordUploadValidation(t *testing.T) {
	svc, _, _ := newRecordFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    MedicalRecordInput
		file  string
		body  []byte
		field string
	}{
		{"unknown category", MedicalRecordInput{Category: "diary"}, "a.pdf", []byte("%PDF-1.4"), "category"},
		{"bad date", MedicalRecordInput{RecordDate: "02/03/2025"}, "a.pdf", []byte("%PDF-1.4"), "recordDate"},
		{"not a document", MedicalRecordInput{}, "a.pdf", []byte("plain text pretending"), "file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(ctx, patient, tt.in, fileHeader(t, tt.file, tt.body))
			var ve *util.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, []string{tt.field}, ve.Fields)
		})
	}
}

func TestMedicalRecordCleanupOnMetadataFailure(t *testing.T) {
	svc, records, storage := newRecordFixture(t)
	records.createErr = assert.AnError

	_, err := svc.Upload(context.Background(), patient, MedicalRecordInput{}, fileHeader(t, "scan.pdf", []byte("%PDF-1.4")))
	var pe *util.PersistenceError
	require.ErrorAs(t, err, &pe)

	var files []string
	require.NoError(t, filepath.WalkDir(storage.Config.LocalPath, func(p string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			files = append(files, p)
		}
		return err
	}))
	assert.Empty(t, files)
}

func TestMedicalRecordOtherUser(t *testing.T) {
	svc, records, _ := newRecordFixture(t)
	records.rows[1] = &model.MedicalRecord{UserID: 99, ObjectKey: "records/99/x.pdf"}

	_, _, err := svc.Download(context.Background(), patient, 1)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
	assert.ErrorIs(t, svc.Delete(context.Background(), patient, 1), util.ErrPermissionDenied)
}
