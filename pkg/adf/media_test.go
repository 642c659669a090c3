package adf

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDimension(t *testing.T) {
	tests := []struct {
		in   string
		want *int
	}{
		{"640", intPtr(640)},
		{"640px", intPtr(640)},
		{" 200px ", intPtr(200)},
		{"", nil},
		{"0", nil},
		{"-10", nil},
		{"wide", nil},
		{"12.5", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parseDimension(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func intPtr(v int) *int { return &v }

func TestScaleDimension(t *testing.T) {
	assert.Equal(t, 150, scaleDimension(200, 300, 400))
	assert.Equal(t, 75, scaleDimension(100, 3, 4))
	// Rounds to nearest instead of truncating.
	assert.Equal(t, 67, scaleDimension(100, 2, 3))
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))
}

func TestStandardProber_LocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "probe.png")
	writePNG(t, path, 32, 24)

	w, h, err := NewStandardProber().ProbeSize(path)
	require.NoError(t, err)
	assert.Equal(t, 32, w)
	assert.Equal(t, 24, h)
}

func TestStandardProber_MissingFile(t *testing.T) {
	_, _, err := NewStandardProber().ProbeSize(filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}

func TestLocateImage_PrefersImagesDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "img"), 0o755))
	writePNG(t, filepath.Join(dir, "img", "pic.png"), 4, 4)
	writePNG(t, filepath.Join(dir, "pic.png"), 8, 8)

	conv := newTestConverter(ConvertOptions{})
	conv.baseDir = dir
	conv.imagesDir = "img"

	found, attempted, ok := conv.locateImage("pic.png")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "img", "pic.png"), found)
	assert.Len(t, attempted, 1)
}

func TestLocateImage_FallsBackToBaseDir(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "pic.png"), 4, 4)

	conv := newTestConverter(ConvertOptions{})
	conv.baseDir = dir
	conv.imagesDir = "img"

	found, attempted, ok := conv.locateImage("pic.png")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "pic.png"), found)
	assert.Len(t, attempted, 2)
}

func TestLocateImage_RemoteURLPassesThrough(t *testing.T) {
	conv := newTestConverter(ConvertOptions{})
	found, _, ok := conv.locateImage("https://example.com/a.png")
	require.True(t, ok)
	assert.Equal(t, "https://example.com/a.png", found)
}

func TestLocateImage_MissingReportsCandidates(t *testing.T) {
	dir := t.TempDir()
	conv := newTestConverter(ConvertOptions{})
	conv.baseDir = dir
	conv.imagesDir = "img"

	_, attempted, ok := conv.locateImage("gone.png")
	assert.False(t, ok)
	assert.Equal(t, []string{
		filepath.Join(dir, "img", "gone.png"),
		filepath.Join(dir, "gone.png"),
	}, attempted)
}

func TestResolveDimensions_ProbedWhenNoAttrs(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "pic.png"), 40, 30)

	conv := NewConverter(ConvertOptions{})
	conv.baseDir = dir

	dims := conv.resolveDimensions("", "", "pic.png", false)
	require.NotNil(t, dims.width)
	require.NotNil(t, dims.height)
	assert.Equal(t, 40, *dims.width)
	assert.Equal(t, 30, *dims.height)
}

func TestResolveDimensions_HeightScalesFromWidth(t *testing.T) {
	conv := NewConverter(ConvertOptions{Prober: &fixedProber{w: 400, h: 300}})
	dims := conv.resolveDimensions("", "150px", "https://example.com/pic.png", false)
	require.NotNil(t, dims.width)
	assert.Equal(t, 200, *dims.width)
	assert.Equal(t, 150, *dims.height)
}

func TestResolveDimensions_ExplicitAttrsSkipProbe(t *testing.T) {
	// A panicking prober proves the probe is never attempted.
	conv := NewConverter(ConvertOptions{Prober: panicProber{}})
	dims := conv.resolveDimensions("10", "20", "pic.png", false)
	assert.Equal(t, 10, *dims.width)
	assert.Equal(t, 20, *dims.height)
}

type panicProber struct{}

func (panicProber) ProbeSize(string) (int, int, error) { panic("probe must not run") }
