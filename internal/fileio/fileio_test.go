package fileio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/HappyEinara/wingline/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []*record.Record {
	r1 := record.New()
	r1.Set("first_aired", record.String("1963"))
	r1.Set("name", record.String("Doctor Who"))

	r2 := record.New()
	r2.Set("first_aired", record.String("2001"))
	r2.Set("name", record.String("24"))

	return []*record.Record{r1, r2}
}

func writeAndRead(t *testing.T, path string, ft Filetype, items []*record.Record) []*record.Record {
	t.Helper()
	w, err := OpenWriter(path, ft)
	require.NoError(t, err)
	for _, r := range items {
		require.NoError(t, w.Write(r))
	}
	require.NoError(t, w.Close(true))

	r, err := Open(path, ft)
	require.NoError(t, err)
	defer r.Close()

	var out []*record.Record
	for {
		rec, ok, err := r.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		out = append(out, rec)
	}
	return out
}

func TestMsgpackRoundTripPreservesOrderAndTypes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.msgpack")

	r := record.New()
	r.Set("b", record.Int(2))
	r.Set("a", record.String("x"))
	r.Set("c", record.Float(1.5))

	got := writeAndRead(t, path, Filetype{Container: ContainerBare, Format: FormatMsgpack}, []*record.Record{r})
	require.Len(t, got, 1)
	assert.Equal(t, []string{"b", "a", "c"}, got[0].Keys())
	assert.True(t, r.Equal(got[0]))
}

func TestJSONLinesRoundTripS3(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jl")

	got := writeAndRead(t, path, Filetype{Container: ContainerBare, Format: FormatJSONLines}, sampleRecords())
	require.Len(t, got, 2)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := splitLines(string(data))
	assert.Len(t, lines, 2)
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i, c := range s {
		if c == '\n' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}

func TestCSVRoundTripRequiresStringValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	got := writeAndRead(t, path, Filetype{Container: ContainerBare, Format: FormatCSV}, sampleRecords())
	require.Len(t, got, 2)
	v, ok := got[0].Get("name")
	require.True(t, ok)
	assert.Equal(t, "Doctor Who", v.String())
}

func TestGzipContainerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jl.gz")

	got := writeAndRead(t, path, Filetype{Container: ContainerGzip, Format: FormatJSONLines}, sampleRecords())
	assert.Len(t, got, 2)
}

func TestWriterDiscardsTempFileOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jl")

	w, err := OpenWriter(path, Filetype{Container: ContainerBare, Format: FormatJSONLines})
	require.NoError(t, err)
	require.NoError(t, w.Write(sampleRecords()[0]))
	require.NoError(t, w.Close(false))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp file must not remain after a failed close")
}

func TestOpenWriterFailsIfFinalPathExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jl")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := OpenWriter(path, Filetype{Container: ContainerBare, Format: FormatJSONLines})
	assert.ErrorIs(t, err, ErrPathExists)
}

func TestDetectSuffixPopping(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dynamodb-tv-casts.jl.gz")
	w, err := OpenWriter(path, Filetype{Container: ContainerGzip, Format: FormatJSONLines})
	require.NoError(t, err)
	for _, r := range sampleRecords() {
		require.NoError(t, w.Write(r))
	}
	require.NoError(t, w.Close(true))

	ft, err := Detect(path)
	require.NoError(t, err)
	assert.Equal(t, ContainerGzip, ft.Container)
	assert.Equal(t, FormatJSONLines, ft.Format)
}

func TestDetectUnrecognizedFiletype(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nodata.bin")
	require.NoError(t, os.WriteFile(path, []byte("whatever"), 0o644))

	_, err := Detect(path)
	assert.ErrorIs(t, err, ErrUnrecognizedFiletype)
}

// A bare Msgpack stream with no suffix Detect could recognize must
// still resolve via the header-magic step.
func TestDetectFormatMagicMsgpack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nodata.bin")

	w, err := OpenWriter(path, Filetype{Container: ContainerBare, Format: FormatMsgpack})
	require.NoError(t, err)
	for _, r := range sampleRecords() {
		require.NoError(t, w.Write(r))
	}
	require.NoError(t, w.Close(true))

	ft, err := Detect(path)
	require.NoError(t, err)
	assert.Equal(t, ContainerBare, ft.Container)
	assert.Equal(t, FormatMsgpack, ft.Format)
}

// A bare JSONLines stream with no suffix Detect could recognize must
// still resolve via the header-magic step.
func TestDetectFormatMagicJSONLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nodata.bin")

	w, err := OpenWriter(path, Filetype{Container: ContainerBare, Format: FormatJSONLines})
	require.NoError(t, err)
	for _, r := range sampleRecords() {
		require.NoError(t, w.Write(r))
	}
	require.NoError(t, w.Close(true))

	ft, err := Detect(path)
	require.NoError(t, err)
	assert.Equal(t, ContainerBare, ft.Container)
	assert.Equal(t, FormatJSONLines, ft.Format)
}

func TestDetectFormatMagicDirect(t *testing.T) {
	f, ok := detectFormatMagic([]byte("name,first_aired\nDoctor Who,1963\n"))
	assert.True(t, ok)
	assert.Equal(t, FormatCSV, f)

	f, ok = detectFormatMagic([]byte{0x82, 0xa1, 'a', 0x01})
	assert.True(t, ok)
	assert.Equal(t, FormatMsgpack, f)

	_, ok = detectFormatMagic([]byte("whatever"))
	assert.False(t, ok)
}
