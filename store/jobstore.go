package store

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/hkanojia/sheetsink/models"
	"github.com/hkanojia/sheetsink/utils"
)

// JobStore is the single owner of UploadJob lifecycle. Every transition
// is one standalone transaction guarded by a status predicate, so a
// terminal job can never have its timestamps overwritten by a late or
// duplicate writer.
type JobStore struct {
	db *gorm.DB
}

func NewJobStore(db *gorm.DB) *JobStore {
	return &JobStore{db: db}
}

// CreateJob writes a new ledger row in the queued state.
func (s *JobStore) CreateJob(jobID, filename, savedPath string, chunkSize int) (*models.UploadJob, error) {
	job := &models.UploadJob{
		JobID:        jobID,
		Filename:     filename,
		SavedPath:    savedPath,
		Status:       models.JobStatusQueued,
		ChunkSize:    chunkSize,
		InsertedRows: 0,
		CreatedAt:    time.Now(),
	}
	if err := s.db.Create(job).Error; err != nil {
		return nil, fmt.Errorf("create upload job: %w", err)
	}
	return job, nil
}

// Job returns the ledger record for one job id.
func (s *JobStore) Job(jobID string) (*models.UploadJob, error) {
	var job models.UploadJob
	if err := s.db.Where("job_id = ?", jobID).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// SetRunning moves a job into the running state, stamping started_at and
// clearing any stale error from an earlier attempt. Terminal jobs are
// left untouched.
func (s *JobStore) SetRunning(jobID string) error {
	res := s.db.Model(&models.UploadJob{}).
		Where("job_id = ? AND status IN ?", jobID, []string{models.JobStatusQueued, models.JobStatusRunning}).
		Updates(map[string]interface{}{
			"status":     models.JobStatusRunning,
			"started_at": time.Now(),
			"error":      nil,
		})
	if res.Error != nil {
		return fmt.Errorf("mark job %s running: %w", jobID, res.Error)
	}
	logRefusedTransition(res, jobID, models.JobStatusRunning)
	return nil
}

// SetCompleted finalizes a running job with its total committed row count.
func (s *JobStore) SetCompleted(jobID string, insertedRows int) error {
	res := s.db.Model(&models.UploadJob{}).
		Where("job_id = ? AND status = ?", jobID, models.JobStatusRunning).
		Updates(map[string]interface{}{
			"status":        models.JobStatusCompleted,
			"inserted_rows": insertedRows,
			"completed_at":  time.Now(),
			"error":         nil,
		})
	if res.Error != nil {
		return fmt.Errorf("mark job %s completed: %w", jobID, res.Error)
	}
	logRefusedTransition(res, jobID, models.JobStatusCompleted)
	return nil
}

// SetFailed finalizes a queued or running job with a failure description.
// inserted_rows keeps whatever value the last committed chunk advanced it
// to; partial progress is not rolled back.
func (s *JobStore) SetFailed(jobID, reason string) error {
	res := s.db.Model(&models.UploadJob{}).
		Where("job_id = ? AND status IN ?", jobID, []string{models.JobStatusQueued, models.JobStatusRunning}).
		Updates(map[string]interface{}{
			"status":       models.JobStatusFailed,
			"error":        reason,
			"completed_at": time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("mark job %s failed: %w", jobID, res.Error)
	}
	logRefusedTransition(res, jobID, models.JobStatusFailed)
	return nil
}

// transitionRefused reports a guarded update that matched no row: the
// job is terminal (or missing), so the write was silently withheld.
func transitionRefused(res *gorm.DB) bool {
	return res.Error == nil && res.RowsAffected == 0
}

func logRefusedTransition(res *gorm.DB, jobID, to string) {
	if transitionRefused(res) {
		utils.Sugar.Warnf("job %s: transition to %s refused, job is terminal or missing", jobID, to)
	}
}

// AddInsertedRows advances the committed row counter after a chunk flush.
func (s *JobStore) AddInsertedRows(jobID string, n int) error {
	err := s.db.Model(&models.UploadJob{}).
		Where("job_id = ?", jobID).
		UpdateColumn("inserted_rows", gorm.Expr("inserted_rows + ?", n)).Error
	if err != nil {
		return fmt.Errorf("advance inserted_rows for job %s: %w", jobID, err)
	}
	return nil
}

// MarkFileDeleted stamps file_deleted_at exactly once; a second call is a no-op.
func (s *JobStore) MarkFileDeleted(jobID string) error {
	err := s.db.Model(&models.UploadJob{}).
		Where("job_id = ? AND file_deleted_at IS NULL", jobID).
		UpdateColumn("file_deleted_at", time.Now()).Error
	if err != nil {
		return fmt.Errorf("mark file deleted for job %s: %w", jobID, err)
	}
	return nil
}

// JobsByStatus lists jobs currently in any of the given states.
func (s *JobStore) JobsByStatus(statuses ...string) ([]models.UploadJob, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	var jobs []models.UploadJob
	if err := s.db.Where("status IN ?", statuses).Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("query jobs by status: %w", err)
	}
	return jobs, nil
}

// JobsForCleanup lists terminal jobs whose completion is older than the
// cutoff and whose saved file has not been reclaimed yet.
func (s *JobStore) JobsForCleanup(completedBefore time.Time) ([]models.UploadJob, error) {
	var jobs []models.UploadJob
	err := s.db.
		Where("completed_at IS NOT NULL AND completed_at <= ?", completedBefore).
		Where("file_deleted_at IS NULL AND saved_path <> ''").
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("query jobs for cleanup: %w", err)
	}
	return jobs, nil
}

// InsertPeople bulk-inserts one chunk of normalized rows as a single write.
func (s *JobStore) InsertPeople(records []models.Person) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.db.Create(&records).Error; err != nil {
		return fmt.Errorf("bulk insert %d people: %w", len(records), err)
	}
	return nil
}

// CountPeople returns the total number of ingested rows.
func (s *JobStore) CountPeople() (int64, error) {
	var n int64
	if err := s.db.Model(&models.Person{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count people: %w", err)
	}
	return n, nil
}
