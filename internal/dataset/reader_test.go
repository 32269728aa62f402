package dataset

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRead_UnsupportedExtension(t *testing.T) {
	// The file deliberately does not exist: the extension check must fire
	// before any file access.
	_, err := Read("observations.txt", slog.Default())

	var formatErr *UnsupportedFormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, ".txt", formatErr.Ext)
}

func TestRead_CSV(t *testing.T) {
	path := writeFile(t, "data.csv", []byte("Name,Year,1,2\nGauge A,2001,1.5,0\n"))

	tbl, err := Read(path, slog.Default())
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Year", "1", "2"}, tbl.Columns)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, []string{"Gauge A", "2001", "1.5", "0"}, tbl.Rows[0])
}

func TestRead_CSVLatin1Fallback(t *testing.T) {
	// "Orléans" with a Latin-1 encoded é (0xE9), invalid as UTF-8.
	raw := append([]byte("Name,Year\nOrl"), 0xE9)
	raw = append(raw, []byte("ans,2001\n")...)
	path := writeFile(t, "legacy.csv", raw)

	tbl, err := Read(path, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, "Orléans", tbl.Rows[0][0])
}

func TestRead_CSVShortRowsPadded(t *testing.T) {
	path := writeFile(t, "ragged.csv", []byte("Name,Year,1\nGauge A,2001\n"))

	tbl, err := Read(path, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, []string{"Gauge A", "2001", ""}, tbl.Rows[0])
}

func TestRead_EmptyCSV(t *testing.T) {
	path := writeFile(t, "empty.csv", []byte("Name,Year,1\n"))

	_, err := Read(path, slog.Default())
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestTable_ColumnIndex(t *testing.T) {
	tbl := &Table{Columns: []string{"Name", "Year"}}

	assert.Equal(t, 1, tbl.ColumnIndex("Year"))
	assert.Equal(t, -1, tbl.ColumnIndex("Month"))
	assert.True(t, tbl.HasColumn("Name"))
	assert.False(t, tbl.HasColumn("Time"))
}
