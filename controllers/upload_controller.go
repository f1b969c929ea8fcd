package controllers

import (
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hkanojia/sheetsink/config"
	"github.com/hkanojia/sheetsink/models"
	"github.com/hkanojia/sheetsink/utils"
)

// jobLedger is the ledger surface the HTTP layer reads and mutates.
type jobLedger interface {
	CreateJob(jobID, filename, savedPath string, chunkSize int) (*models.UploadJob, error)
	Job(jobID string) (*models.UploadJob, error)
	CountPeople() (int64, error)
}

// jobProcessor ingests one job in the background.
type jobProcessor interface {
	Process(job models.UploadJob)
}

// fileSweeper reclaims expired upload files; run at the start of
// ledger-touching requests.
type fileSweeper interface {
	Sweep() int
}

// taskRunner spawns background ingestion work.
type taskRunner interface {
	Go(name string, fn func()) bool
}

// UploadController handles spreadsheet upload, job status and cleanup.
type UploadController struct {
	ledger  jobLedger
	proc    jobProcessor
	sweeper fileSweeper
	tasks   taskRunner
	cfg     config.AppConfig
}

func NewUploadController(ledger jobLedger, proc jobProcessor, sweeper fileSweeper, tasks taskRunner, cfg config.AppConfig) *UploadController {
	return &UploadController{ledger: ledger, proc: proc, sweeper: sweeper, tasks: tasks, cfg: cfg}
}

// Upload accepts a multipart spreadsheet, persists it under the upload
// dir, creates the queued job and hands ingestion to a background task.
func (u *UploadController) Upload(ctx *gin.Context) {
	u.sweeper.Sweep()

	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "no file uploaded")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		utils.Error(ctx, http.StatusBadRequest, 40002, "uploaded file name is missing")
		return
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".xlsx" && ext != ".csv" {
		utils.Error(ctx, http.StatusBadRequest, 40003, "only .xlsx and .csv files are supported")
		return
	}

	maxSize := int64(u.cfg.MaxUploadMB) << 20
	if header.Size > maxSize {
		utils.Error(ctx, http.StatusBadRequest, 40004, "file size exceeds limit")
		return
	}

	savedPath, err := u.saveUpload(file, ext, maxSize)
	if err != nil {
		utils.Sugar.Errorf("save upload %s: %v", header.Filename, err)
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to save file")
		return
	}

	jobID := hexID()
	job, err := u.ledger.CreateJob(jobID, header.Filename, savedPath, u.cfg.ChunkSize)
	if err != nil {
		_ = os.Remove(savedPath)
		utils.Sugar.Errorf("create job for %s: %v", header.Filename, err)
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create job")
		return
	}

	// Fire and forget; if the group is already draining the job stays
	// queued and the next boot's recovery pass picks it up.
	queued := *job
	u.tasks.Go("ingest-"+jobID, func() { u.proc.Process(queued) })

	utils.Success(ctx, gin.H{
		"message":    "file saved and processing job created",
		"job_id":     job.JobID,
		"status":     job.Status,
		"saved_path": job.SavedPath,
		"chunk_size": job.ChunkSize,
	})
}

// JobStatus returns the full ledger snapshot for one job.
func (u *UploadController) JobStatus(ctx *gin.Context) {
	u.sweeper.Sweep()

	job, err := u.ledger.Job(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "job not found")
			return
		}
		utils.Sugar.Errorf("load job %s: %v", ctx.Param("id"), err)
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to load job")
		return
	}
	utils.Success(ctx, job)
}

// Cleanup runs the retention sweep on demand.
func (u *UploadController) Cleanup(ctx *gin.Context) {
	deleted := u.sweeper.Sweep()
	utils.Success(ctx, gin.H{
		"message":         "cleanup completed",
		"deleted_files":   deleted,
		"retention_hours": u.cfg.RetentionHours,
	})
}

// CountPeople reports the total ingested row count, cached briefly in
// Redis since it is a table scan on MySQL.
func (u *UploadController) CountPeople(ctx *gin.Context) {
	const cacheKey = "sheetsink:people_count"
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
		return
	}

	n, err := u.ledger.CountPeople()
	if err != nil {
		utils.Sugar.Errorf("count people: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to count rows")
		return
	}

	payload := utils.JSONResponse{Code: 0, Message: "success", Data: gin.H{"count": n}}
	utils.CacheSetJSON(cacheKey, payload, 10*time.Second)
	ctx.JSON(http.StatusOK, payload)
}

// saveUpload streams the multipart file to a uniquely named file under
// the configured upload dir, enforcing the size limit while copying.
func (u *UploadController) saveUpload(src io.Reader, ext string, maxSize int64) (string, error) {
	if err := os.MkdirAll(u.cfg.UploadDir, 0o755); err != nil {
		return "", err
	}

	name := time.Now().UTC().Format("20060102_150405") + "_" + hexID() + ext
	dstPath := filepath.Join(u.cfg.UploadDir, name)

	out, err := os.Create(dstPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	lr := &io.LimitedReader{R: src, N: maxSize + 1}
	written, err := io.Copy(out, lr)
	if err != nil {
		_ = os.Remove(dstPath)
		return "", err
	}
	if written > maxSize {
		_ = os.Remove(dstPath)
		return "", errors.New("file size exceeds limit")
	}
	return dstPath, nil
}

func hexID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
