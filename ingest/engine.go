package ingest

import (
	"errors"
	"io"

	"github.com/hkanojia/sheetsink/models"
	"github.com/hkanojia/sheetsink/utils"
)

// Ledger is the subset of job lifecycle operations the engine drives.
// Implementations commit every mutation as its own transaction.
type Ledger interface {
	SetRunning(jobID string) error
	SetCompleted(jobID string, insertedRows int) error
	SetFailed(jobID, reason string) error
	AddInsertedRows(jobID string, n int) error
}

// Engine drives one saved file through resolve -> normalize -> chunked
// bulk writes while keeping the job ledger in sync.
type Engine struct {
	ledger   Ledger
	writer   RecordWriter
	required []string
	openRows func(path string) (RowSource, error)
}

func NewEngine(ledger Ledger, writer RecordWriter, requiredColumns []string) *Engine {
	return &Engine{
		ledger:   ledger,
		writer:   writer,
		required: requiredColumns,
		openRows: OpenRows,
	}
}

// Process ingests one job end-to-end and records the outcome in the
// ledger. Errors never propagate past here: any failure mid-stream
// aborts the remaining rows and lands the job in the failed state, with
// rows from already-flushed chunks left committed. Ingestion is
// chunk-atomic, not job-atomic.
func (e *Engine) Process(job models.UploadJob) {
	if err := e.ledger.SetRunning(job.JobID); err != nil {
		utils.Sugar.Errorf("job %s: cannot mark running: %v", job.JobID, err)
		return
	}

	total, err := e.ingest(job)
	if err != nil {
		if ferr := e.ledger.SetFailed(job.JobID, err.Error()); ferr != nil {
			utils.Sugar.Errorf("job %s: cannot mark failed: %v", job.JobID, ferr)
		}
		utils.Sugar.Warnf("job %s: ingestion failed after %d rows: %v", job.JobID, total, err)
		return
	}

	if err := e.ledger.SetCompleted(job.JobID, total); err != nil {
		utils.Sugar.Errorf("job %s: cannot mark completed: %v", job.JobID, err)
		return
	}
	utils.Sugar.Infof("job %s: ingested %d rows from %s", job.JobID, total, job.Filename)
}

// ingest streams the file and returns the number of rows committed,
// which on error reflects only fully flushed chunks.
func (e *Engine) ingest(job models.UploadJob) (int, error) {
	src, err := e.openRows(job.SavedPath)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	header, err := src.Next()
	if errors.Is(err, io.EOF) {
		return 0, ErrEmptyFile
	}
	if err != nil {
		return 0, err
	}

	cols, err := ResolveColumns(header, e.required)
	if err != nil {
		return 0, err
	}

	batch := NewBatchWriter(e.writer, job.ChunkSize)
	total := 0
	commit := func(n int) error {
		if n == 0 {
			return nil
		}
		if err := e.ledger.AddInsertedRows(job.JobID, n); err != nil {
			return err
		}
		total += n
		return nil
	}

	for {
		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return total, err
		}

		rec := NormalizeRow(row, cols)
		if IsBlank(rec) {
			continue
		}

		n, err := batch.Add(rec)
		if err != nil {
			return total, err
		}
		if err := commit(n); err != nil {
			return total, err
		}
	}

	n, err := batch.Flush()
	if err != nil {
		return total, err
	}
	if err := commit(n); err != nil {
		return total, err
	}
	return total, nil
}
