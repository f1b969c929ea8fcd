package models

import "time"

// Upload job statuses. Transitions are one-directional:
// queued -> running -> completed|failed. A running job found at startup
// is corrected to failed by the recovery pass; nothing else ever leaves
// a terminal state.
const (
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// UploadJob is the durable ledger record for one ingestion attempt.
// InsertedRows counts rows committed to storage chunk by chunk; on a
// mid-stream failure it keeps the last committed value and is never
// rolled back. FileDeletedAt is stamped exactly once by the retention
// sweeper; nil means the saved file is presumed still on disk.
type UploadJob struct {
	JobID         string     `gorm:"size:64;primaryKey" json:"job_id"`
	Filename      string     `gorm:"size:255;not null" json:"filename"`
	SavedPath     string     `gorm:"size:512;not null" json:"saved_path"`
	Status        string     `gorm:"size:32;not null;default:queued;index" json:"status"`
	ChunkSize     int        `gorm:"not null" json:"chunk_size"`
	InsertedRows  int        `gorm:"not null;default:0" json:"inserted_rows"`
	Error         *string    `gorm:"type:text" json:"error"`
	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
	StartedAt     *time.Time `json:"started_at"`
	CompletedAt   *time.Time `gorm:"index" json:"completed_at"`
	FileDeletedAt *time.Time `json:"file_deleted_at"`
}

func (UploadJob) TableName() string {
	return "upload_jobs"
}

// Terminal reports whether the job reached an end state.
func (j *UploadJob) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
