package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hkanojia/sheetsink/models"
)

// fakeLedger mimics the job store's transition guards in memory.
type fakeLedger struct {
	mu       sync.Mutex
	status   map[string]string
	inserted map[string]int
	errMsg   map[string]string
}

func newFakeLedger(queued ...string) *fakeLedger {
	l := &fakeLedger{
		status:   map[string]string{},
		inserted: map[string]int{},
		errMsg:   map[string]string{},
	}
	for _, id := range queued {
		l.status[id] = models.JobStatusQueued
	}
	return l
}

func (l *fakeLedger) SetRunning(jobID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.status[jobID] {
	case models.JobStatusQueued, models.JobStatusRunning:
		l.status[jobID] = models.JobStatusRunning
		delete(l.errMsg, jobID)
	}
	return nil
}

func (l *fakeLedger) SetCompleted(jobID string, insertedRows int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.status[jobID] == models.JobStatusRunning {
		l.status[jobID] = models.JobStatusCompleted
		l.inserted[jobID] = insertedRows
		delete(l.errMsg, jobID)
	}
	return nil
}

func (l *fakeLedger) SetFailed(jobID, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.status[jobID] {
	case models.JobStatusQueued, models.JobStatusRunning:
		l.status[jobID] = models.JobStatusFailed
		l.errMsg[jobID] = reason
	}
	return nil
}

func (l *fakeLedger) AddInsertedRows(jobID string, n int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inserted[jobID] += n
	return nil
}

// fakeWriter records flushed batches and can fail a chosen flush.
type fakeWriter struct {
	batches [][]models.Person
	failOn  int // 1-based flush index that fails, 0 = never
}

func (w *fakeWriter) InsertPeople(records []models.Person) error {
	if w.failOn > 0 && len(w.batches)+1 == w.failOn {
		return errors.New("bulk insert failed")
	}
	cp := make([]models.Person, len(records))
	copy(cp, records)
	w.batches = append(w.batches, cp)
	return nil
}

type sliceSource struct {
	rows [][]string
	i    int
}

func (s *sliceSource) Next() ([]string, error) {
	if s.i >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.i]
	s.i++
	return row, nil
}

func (s *sliceSource) Close() error { return nil }

func newTestEngine(ledger Ledger, writer RecordWriter, rows [][]string) *Engine {
	e := NewEngine(ledger, writer, []string{"name", "email", "age"})
	e.openRows = func(string) (RowSource, error) {
		return &sliceSource{rows: rows}, nil
	}
	return e
}

func dataRows(n int) [][]string {
	rows := [][]string{{"name", "email", "age"}}
	for i := 1; i <= n; i++ {
		rows = append(rows, []string{
			fmt.Sprintf("person %d", i),
			fmt.Sprintf("p%d@example.com", i),
			fmt.Sprintf("%d", 20+i%50),
		})
	}
	return rows
}

func TestEngineChunking(t *testing.T) {
	ledger := newFakeLedger("j1")
	writer := &fakeWriter{}
	eng := newTestEngine(ledger, writer, dataRows(1205))

	eng.Process(models.UploadJob{JobID: "j1", SavedPath: "mem", ChunkSize: 500})

	require.Len(t, writer.batches, 3)
	assert.Len(t, writer.batches[0], 500)
	assert.Len(t, writer.batches[1], 500)
	assert.Len(t, writer.batches[2], 205)
	assert.Equal(t, models.JobStatusCompleted, ledger.status["j1"])
	assert.Equal(t, 1205, ledger.inserted["j1"])
}

func TestEngineExactMultipleChunking(t *testing.T) {
	ledger := newFakeLedger("j1")
	writer := &fakeWriter{}
	eng := newTestEngine(ledger, writer, dataRows(1000))

	eng.Process(models.UploadJob{JobID: "j1", SavedPath: "mem", ChunkSize: 500})

	require.Len(t, writer.batches, 2)
	assert.Len(t, writer.batches[0], 500)
	assert.Len(t, writer.batches[1], 500)
	assert.Equal(t, 1000, ledger.inserted["j1"])
}

func TestEngineSkipsBlankRows(t *testing.T) {
	rows := [][]string{
		{"name", "email", "age"},
		{"Ada", "ada@example.com", "36"},
		{"", "", ""},
		{" ", "", "0"},
		{"", "", "not a number"},
		{"Bob", "", ""},
	}
	ledger := newFakeLedger("j1")
	writer := &fakeWriter{}
	eng := newTestEngine(ledger, writer, rows)

	eng.Process(models.UploadJob{JobID: "j1", SavedPath: "mem", ChunkSize: 10})

	require.Len(t, writer.batches, 1)
	assert.Len(t, writer.batches[0], 2)
	assert.Equal(t, 2, ledger.inserted["j1"])
	assert.Equal(t, models.JobStatusCompleted, ledger.status["j1"])
}

func TestEngineSchemaFailure(t *testing.T) {
	rows := [][]string{
		{"name"},
		{"Ada"},
	}
	ledger := newFakeLedger("j1")
	writer := &fakeWriter{}
	eng := newTestEngine(ledger, writer, rows)

	eng.Process(models.UploadJob{JobID: "j1", SavedPath: "mem", ChunkSize: 10})

	assert.Empty(t, writer.batches)
	assert.Equal(t, models.JobStatusFailed, ledger.status["j1"])
	assert.Contains(t, ledger.errMsg["j1"], "email")
	assert.Contains(t, ledger.errMsg["j1"], "age")
	assert.Zero(t, ledger.inserted["j1"])
}

func TestEngineEmptyFile(t *testing.T) {
	ledger := newFakeLedger("j1")
	writer := &fakeWriter{}
	eng := newTestEngine(ledger, writer, nil)

	eng.Process(models.UploadJob{JobID: "j1", SavedPath: "mem", ChunkSize: 10})

	assert.Equal(t, models.JobStatusFailed, ledger.status["j1"])
	assert.Equal(t, ErrEmptyFile.Error(), ledger.errMsg["j1"])
}

func TestEnginePartialFailureKeepsCommittedChunks(t *testing.T) {
	ledger := newFakeLedger("j1")
	writer := &fakeWriter{failOn: 2}
	eng := newTestEngine(ledger, writer, dataRows(30))

	eng.Process(models.UploadJob{JobID: "j1", SavedPath: "mem", ChunkSize: 10})

	// chunk 1 is committed and stays committed; chunks 2 and 3 never land
	require.Len(t, writer.batches, 1)
	assert.Equal(t, 10, ledger.inserted["j1"])
	assert.Equal(t, models.JobStatusFailed, ledger.status["j1"])
	assert.NotEmpty(t, ledger.errMsg["j1"])
}

func TestEngineOpenFailure(t *testing.T) {
	ledger := newFakeLedger("j1")
	eng := NewEngine(ledger, &fakeWriter{}, []string{"name", "email", "age"})
	eng.openRows = func(string) (RowSource, error) {
		return nil, errors.New("no such file")
	}

	eng.Process(models.UploadJob{JobID: "j1", SavedPath: "gone.xlsx", ChunkSize: 10})

	assert.Equal(t, models.JobStatusFailed, ledger.status["j1"])
	assert.Equal(t, "no such file", ledger.errMsg["j1"])
}

func TestEngineCSVEndToEnd(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("Name,Email,Age\n")
	for i := 1; i <= 7; i++ {
		fmt.Fprintf(&sb, "person %d,p%d@example.com,%d\n", i, i, 20+i)
	}
	sb.WriteString(",,\n") // blank row, must not be counted

	path := filepath.Join(t.TempDir(), "people.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))

	ledger := newFakeLedger("j1")
	writer := &fakeWriter{}
	eng := NewEngine(ledger, writer, []string{"name", "email", "age"})

	eng.Process(models.UploadJob{JobID: "j1", SavedPath: path, ChunkSize: 3})

	require.Len(t, writer.batches, 3)
	assert.Equal(t, 7, ledger.inserted["j1"])
	assert.Equal(t, models.JobStatusCompleted, ledger.status["j1"])
	assert.Equal(t, "person 1", writer.batches[0][0].Name)
}

func TestEngineUnsupportedExtension(t *testing.T) {
	ledger := newFakeLedger("j1")
	eng := NewEngine(ledger, &fakeWriter{}, []string{"name", "email", "age"})

	eng.Process(models.UploadJob{JobID: "j1", SavedPath: "data.pdf", ChunkSize: 10})

	assert.Equal(t, models.JobStatusFailed, ledger.status["j1"])
	assert.Contains(t, ledger.errMsg["j1"], "unsupported")
}
