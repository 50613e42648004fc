package statespace

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImplementsExporter(t *testing.T) {
	implements := func(Exporter) {}
	implements(new(CSVExporter))
}

func TestCSVExporter(t *testing.T) {
	var buf bytes.Buffer
	e, err := NewCSVWriterExporter([]string{"alpha", "beta"}, &buf)
	require.NoError(t, err)
	date := time.Date(2020, 3, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, e.Write(date, Interval(0.1, 0.01, 0.95), Interval(1.2, 0.04, 0.95)))
	assert.Error(t, e.Write(date, Interval(0.1, 0.01, 0.95)))
	require.NoError(t, e.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "# Creation date"))
	assert.Equal(t, "date,alpha,alpha_lower,alpha_upper,beta,beta_lower,beta_upper", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "2020-03-02,0.100000,"))
	assert.True(t, strings.HasPrefix(lines[3], "# Closing date"))
}

func TestCSVExporterFile(t *testing.T) {
	dir := t.TempDir()
	e, err := NewCSVExporter([]string{"beta"}, dir, "out.csv")
	require.NoError(t, err)
	require.NoError(t, e.Write(time.Now(), Interval(1, 1, 0.9)))
	require.NoError(t, e.Close())
	data, err := os.ReadFile(filepath.Join(dir, "out.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "beta_upper")

	_, err = NewCSVExporter(nil, filepath.Join(dir, "missing"), "out.csv")
	assert.Error(t, err)
}
