package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageAndCommit(t *testing.T) {
	fs := afero.NewMemMapFs()
	disk := NewDisk(fs)

	staged, err := disk.Stage("soa", ".PDF", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(staged, "soa/.staging/"))
	assert.True(t, strings.HasSuffix(staged, ".pdf"))

	final, err := disk.Commit(staged)
	require.NoError(t, err)
	assert.Equal(t, FinalPath(staged), final)
	assert.True(t, strings.HasPrefix(final, "soa/"))
	assert.False(t, disk.Exists(staged))
	assert.True(t, disk.Exists(final))

	data, err := afero.ReadFile(fs, final)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	_, err = disk.Commit(final)
	assert.ErrorIs(t, err, ErrInvalidPath)

	require.NoError(t, disk.Delete(final))
	require.NoError(t, disk.Delete(final), "deleting twice is fine")
	assert.False(t, disk.Exists(final))
}

func TestCleanRejectsEscapes(t *testing.T) {
	p, err := clean("../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, "etc/passwd", p)

	_, err = clean("/")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

type refs []string

func (r refs) Attachments(context.Context) ([]string, error) { return r, nil }

func TestSweep(t *testing.T) {
	fs := afero.NewMemMapFs()
	disk := NewDisk(fs)
	now := time.Now()
	old := now.Add(-2 * time.Hour)

	write := func(p string, mod time.Time) {
		require.NoError(t, afero.WriteFile(fs, p, []byte("x"), 0o644))
		require.NoError(t, fs.Chtimes(p, mod, mod))
	}
	write("soa/kept.pdf", old)
	write("soa/orphan.pdf", old)
	write("soa/fresh-orphan.pdf", now)
	write("soa/.staging/stale.pdf", old)
	write("soa/.staging/inflight.pdf", now)

	res, err := disk.Sweep(context.Background(), "soa", refs{"soa/kept.pdf"}, time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{StaleStaged: 1, Orphaned: 1}, res)

	assert.True(t, disk.Exists("soa/kept.pdf"))
	assert.True(t, disk.Exists("soa/fresh-orphan.pdf"))
	assert.True(t, disk.Exists("soa/.staging/inflight.pdf"))
	assert.False(t, disk.Exists("soa/orphan.pdf"))
	assert.False(t, disk.Exists("soa/.staging/stale.pdf"))
}

func TestSweep_MissingDir(t *testing.T) {
	disk := NewDisk(afero.NewMemMapFs())
	s := NewSweeper(disk, "soa", refs{}, time.Hour, 0, zerolog.Nop())
	res, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res)
}

func TestHandler(t *testing.T) {
	fs := afero.NewMemMapFs()
	disk := NewDisk(fs)
	require.NoError(t, afero.WriteFile(fs, "soa/a.pdf", []byte("%PDF-1.4"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "soa/.staging/b.pdf", []byte("%PDF-1.4"), 0o644))
	h := disk.Handler("/storage/")

	tests := map[string]int{
		"/storage/soa/a.pdf":          http.StatusOK,
		"/storage/soa/":               http.StatusNotFound,
		"/storage/soa/.staging/b.pdf": http.StatusNotFound,
		"/storage/soa/missing.pdf":    http.StatusNotFound,
	}
	for url, want := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
		assert.Equal(t, want, rec.Code, url)
	}
	assert.Equal(t, "/storage/soa/a.pdf", URL("soa/a.pdf"))
	assert.Empty(t, URL(""))
}
