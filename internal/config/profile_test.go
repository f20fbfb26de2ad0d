package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProfile = `
sheet_name: Orders
chunk_size: 500
prefetch: true
width:
  min: 8
  full_length_limit: 30
  percentile: 95
header:
  height: 30
  style:
    font:
      bold: true
      color: "#FFFFFF"
    fill:
      color: "#4F81BD"
number_format: "#,##0.000"
auto_filter: false
`

func TestParseProfile(t *testing.T) {
	t.Parallel()

	p, err := ParseProfile(sampleProfile)
	require.NoError(t, err)
	assert.Equal(t, "Orders", p.SheetName)
	assert.Equal(t, 500, p.ChunkSize)
	assert.True(t, p.Prefetch)
	assert.Equal(t, WidthProfile{Min: 8, FullLengthLimit: 30, Percentile: 95}, p.Width)
	assert.Equal(t, 30.0, p.Header.Height)
	require.NotNil(t, p.Header.Style)
	require.NotNil(t, p.Header.Style.Fill)
	assert.Equal(t, "#4F81BD", p.Header.Style.Fill.Color)
	require.NotNil(t, p.AutoFilter)
	assert.False(t, *p.AutoFilter)
	assert.Nil(t, p.Freeze)
	assert.Len(t, p.Options(), 6)
}

func TestParseProfileErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"unknown key":        "sheet: x\n",
		"negative chunk":     "chunk_size: -1\n",
		"percentile too big": "width:\n  percentile: 101\n",
		"not yaml":           "::::",
	}
	for name, in := range tests {
		_, err := ParseProfile(in)
		assert.Error(t, err, name)
	}
}

func TestLoadProfile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleProfile), 0o600))
	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "Orders", p.SheetName)

	_, err = LoadProfile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNilProfileOptions(t *testing.T) {
	t.Parallel()

	var p *Profile
	assert.Nil(t, p.Options())
}
