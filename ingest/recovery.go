package ingest

import (
	"os"

	"github.com/hkanojia/sheetsink/models"
	"github.com/hkanojia/sheetsink/utils"
)

// Failure descriptions written by the recovery pass.
const (
	interruptedError = "job interrupted because the server restarted"
	missingFileError = "queued job file not found after server restart"
)

// RecoveryStore is the ledger surface the startup recovery pass needs.
type RecoveryStore interface {
	JobsByStatus(statuses ...string) ([]models.UploadJob, error)
	SetFailed(jobID, reason string) error
}

// TaskRunner spawns one background task per re-dispatched job.
type TaskRunner interface {
	Go(name string, fn func()) bool
}

// RecoverJobs reconciles ledger state left behind by a prior process
// lifetime. It must finish before the server accepts new uploads.
//
// Jobs found running belonged to a process that died mid-ingestion; all
// of them are failed first so none can race a re-dispatched queued job
// for the same file. Queued jobs whose saved file still exists are
// handed back to the engine from row one (chunks a dead process may have
// flushed are not deduplicated); those whose file is gone are failed
// outright.
func RecoverJobs(st RecoveryStore, eng *Engine, tasks TaskRunner) error {
	interrupted, err := st.JobsByStatus(models.JobStatusRunning)
	if err != nil {
		return err
	}
	for _, job := range interrupted {
		if err := st.SetFailed(job.JobID, interruptedError); err != nil {
			return err
		}
		utils.Sugar.Warnf("recovery: job %s was running at shutdown, marked failed", job.JobID)
	}

	queued, err := st.JobsByStatus(models.JobStatusQueued)
	if err != nil {
		return err
	}
	for _, job := range queued {
		if _, err := os.Stat(job.SavedPath); err != nil {
			if err := st.SetFailed(job.JobID, missingFileError); err != nil {
				return err
			}
			utils.Sugar.Warnf("recovery: job %s file %s is gone, marked failed", job.JobID, job.SavedPath)
			continue
		}

		job := job
		tasks.Go("recover-"+job.JobID, func() { eng.Process(job) })
		utils.Sugar.Infof("recovery: job %s re-dispatched", job.JobID)
	}
	return nil
}
