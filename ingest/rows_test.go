package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/hkanojia/sheetsink/models"
)

func writeTestWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		row := row
		require.NoError(t, f.SetSheetRow("Sheet1", fmt.Sprintf("A%d", i+1), &row))
	}
	path := filepath.Join(t.TempDir(), "people.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestOpenRowsXLSX(t *testing.T) {
	path := writeTestWorkbook(t, [][]interface{}{
		{"name", "email", "age"},
		{"Ada", "ada@example.com", 36},
	})

	src, err := OpenRows(path)
	require.NoError(t, err)
	defer src.Close()

	header, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "email", "age"}, header)

	row, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, "Ada", row[0])

	_, err = src.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestOpenRowsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,email,age\nAda,ada@example.com,36\n"), 0o644))

	src, err := OpenRows(path)
	require.NoError(t, err)
	defer src.Close()

	header, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "email", "age"}, header)

	row, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada", "ada@example.com", "36"}, row)

	_, err = src.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestOpenRowsUnsupported(t *testing.T) {
	_, err := OpenRows("people.pdf")
	assert.Error(t, err)
}

func TestEngineXLSXEndToEnd(t *testing.T) {
	rows := [][]interface{}{{"Name", "Email", "Age"}}
	for i := 1; i <= 5; i++ {
		rows = append(rows, []interface{}{
			fmt.Sprintf("person %d", i),
			fmt.Sprintf("p%d@example.com", i),
			20 + i,
		})
	}
	path := writeTestWorkbook(t, rows)

	ledger := newFakeLedger("j1")
	writer := &fakeWriter{}
	eng := NewEngine(ledger, writer, []string{"name", "email", "age"})

	eng.Process(models.UploadJob{JobID: "j1", SavedPath: path, ChunkSize: 2})

	require.Len(t, writer.batches, 3)
	assert.Equal(t, 5, ledger.inserted["j1"])
	assert.Equal(t, models.JobStatusCompleted, ledger.status["j1"])
}
