package ingest

import (
	"os"
	"time"

	"github.com/hkanojia/sheetsink/models"
	"github.com/hkanojia/sheetsink/utils"
)

// SweepStore is the ledger surface the retention sweeper reads and
// mutates.
type SweepStore interface {
	JobsForCleanup(completedBefore time.Time) ([]models.UploadJob, error)
	MarkFileDeleted(jobID string) error
}

// Sweeper reclaims saved upload files once their job outcome has been
// terminal for longer than the retention window. It is invoked lazily at
// the start of ledger-touching requests rather than on a timer, so
// expired files sit on disk until the next such request arrives.
type Sweeper struct {
	store     SweepStore
	retention time.Duration
	enabled   bool
	now       func() time.Time
}

func NewSweeper(store SweepStore, retention time.Duration, enabled bool) *Sweeper {
	return &Sweeper{
		store:     store,
		retention: retention,
		enabled:   enabled,
		now:       time.Now,
	}
}

// Sweep deletes every eligible file and stamps file_deleted_at on its
// job, returning how many files were actually removed. One job's
// filesystem trouble never blocks cleanup of the rest; the deletion flag
// is recorded even when the file was already gone or could not be
// removed, so the job is not revisited.
func (s *Sweeper) Sweep() int {
	if !s.enabled {
		return 0
	}

	cutoff := s.now().Add(-s.retention)
	jobs, err := s.store.JobsForCleanup(cutoff)
	if err != nil {
		utils.Sugar.Warnf("retention sweep query failed: %v", err)
		return 0
	}

	deleted := 0
	for _, job := range jobs {
		if fi, err := os.Stat(job.SavedPath); err == nil && fi.Mode().IsRegular() {
			if err := os.Remove(job.SavedPath); err != nil {
				utils.Sugar.Warnf("retention sweep: remove %s for job %s: %v", job.SavedPath, job.JobID, err)
			} else {
				deleted++
			}
		}
		if err := s.store.MarkFileDeleted(job.JobID); err != nil {
			utils.Sugar.Warnf("retention sweep: flag job %s: %v", job.JobID, err)
		}
	}
	return deleted
}
