package ingest

import "github.com/hkanojia/sheetsink/models"

// RecordWriter commits one chunk of normalized rows to storage as a
// single bulk write.
type RecordWriter interface {
	InsertPeople(records []models.Person) error
}

// BatchWriter accumulates normalized rows and flushes them in fixed-size
// bulk writes, bounding peak memory to one chunk regardless of file
// size.
type BatchWriter struct {
	writer RecordWriter
	size   int
	buf    []models.Person
}

func NewBatchWriter(w RecordWriter, size int) *BatchWriter {
	if size < 1 {
		size = 1
	}
	return &BatchWriter{writer: w, size: size, buf: make([]models.Person, 0, size)}
}

// Add buffers one row and flushes when the batch is full. It returns the
// number of rows committed by this call (zero unless a flush happened).
func (b *BatchWriter) Add(p models.Person) (int, error) {
	b.buf = append(b.buf, p)
	if len(b.buf) < b.size {
		return 0, nil
	}
	return b.flush()
}

// Flush commits any remaining partial batch.
func (b *BatchWriter) Flush() (int, error) {
	if len(b.buf) == 0 {
		return 0, nil
	}
	return b.flush()
}

func (b *BatchWriter) flush() (int, error) {
	n := len(b.buf)
	if err := b.writer.InsertPeople(b.buf); err != nil {
		return 0, err
	}
	// committed rows are out of our hands now; reuse the buffer
	b.buf = b.buf[:0]
	return n, nil
}
