package storage

import (
	"context"
	"os"
	"path"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// ReferenceLister reports the stored paths that rows still point at.
type ReferenceLister interface {
	Attachments(ctx context.Context) ([]string, error)
}

// SweepResult counts the files a sweep removed.
type SweepResult struct {
	StaleStaged int `json:"stale_staged"`
	Orphaned    int `json:"orphaned"`
}

// Sweep removes staged files and unreferenced files under dir that are older
// than grace. Younger files may belong to an upload that is still in flight.
func (d *Disk) Sweep(ctx context.Context, dir string, refs ReferenceLister, grace time.Duration, now time.Time) (SweepResult, error) {
	var res SweepResult
	dir, err := clean(dir)
	if err != nil {
		return res, err
	}
	referenced, err := refs.Attachments(ctx)
	if err != nil {
		return res, err
	}
	keep := make(map[string]bool, len(referenced))
	for _, p := range referenced {
		if c, err := clean(p); err == nil {
			keep[c] = true
		}
	}

	cutoff := now.Add(-grace)
	err = afero.Walk(d.fs, dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if info.IsDir() || info.ModTime().After(cutoff) {
			return nil
		}
		p, cerr := clean(p)
		if cerr != nil {
			return nil
		}
		staged := path.Base(path.Dir(p)) == stagingDir
		if !staged && keep[p] {
			return nil
		}
		if err := d.fs.Remove(p); err != nil && !os.IsNotExist(err) {
			return err
		}
		if staged {
			res.StaleStaged++
		} else {
			res.Orphaned++
		}
		return nil
	})
	return res, err
}

// Sweeper periodically reconciles a directory against its referencing rows.
type Sweeper struct {
	disk     *Disk
	dir      string
	refs     ReferenceLister
	grace    time.Duration
	interval time.Duration
	logger   zerolog.Logger
}

// NewSweeper builds a sweeper for dir.
func NewSweeper(disk *Disk, dir string, refs ReferenceLister, grace, interval time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{disk: disk, dir: dir, refs: refs, grace: grace, interval: interval, logger: logger}
}

// RunOnce performs a single sweep and logs the outcome.
func (s *Sweeper) RunOnce(ctx context.Context) (SweepResult, error) {
	res, err := s.disk.Sweep(ctx, s.dir, s.refs, s.grace, time.Now())
	if err != nil {
		s.logger.Error().Err(err).Str("dir", s.dir).Msg("storage sweep failed")
		return res, err
	}
	if res.StaleStaged > 0 || res.Orphaned > 0 {
		s.logger.Info().Str("dir", s.dir).
			Int("stale_staged", res.StaleStaged).
			Int("orphaned", res.Orphaned).
			Msg("storage sweep removed files")
	}
	return res, nil
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.RunOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}
