package writeback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/contre95/soulwrite/src/features/metrics"
	"github.com/contre95/soulwrite/src/features/readonly"
	"github.com/contre95/soulwrite/src/music"
)

// run is one drain session. Exactly one runs at a time.
func (s *Service) run(done chan struct{}) {
	metrics.Drains.Inc()
	s.resolver.Reset()
	s.state.Store(StateRunning)
	slog.Debug("Write-back drain started", "queued", s.queue.Len())

	processed, aborted := 0, false
	for {
		if s.stop.Load() {
			slog.Info("Write-back stopped on request", "remaining", s.queue.Len())
			break
		}
		if s.suspended.Load() {
			slog.Info("Write-back suspended, leaving tracks queued", "remaining", s.queue.Len())
			break
		}
		track, ok := s.queue.Pop()
		if !ok {
			break
		}
		if err := s.limiter.Wait(s.ctx); err != nil {
			s.queue.Add(track)
			break
		}
		processed++
		if s.processSafely(track) {
			s.abortAll(track)
			aborted = true
			break
		}
	}

	s.state.Store(StateDraining)
	switch {
	case aborted:
	case s.deferred.Len() > 0 && !s.stop.Load():
		s.scheduleRetry()
	case s.queue.Len() == 0:
		slog.Info("Write-back complete", "processed", processed)
	}
	s.resolver.Reset()
	s.state.Store(StateIdle)
	s.running.Store(false)
	close(done)

	// Tracks enqueued after the last Pop but before running was released
	// would otherwise wait for the next Enqueue.
	s.kick()
}

// processSafely processes one track and recovers from panics. It reports
// whether every pending write must be abandoned.
func (s *Service) processSafely(track *music.Track) (abort bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Write-back panicked, skipping track", "track", track.ID, "path", track.Path(), "panic", r)
			metrics.TracksProcessed.WithLabelValues(metrics.OutcomeAbandoned).Inc()
			abort = false
		}
	}()
	outcome, abort := s.process(s.ctx, track)
	if outcome != "" {
		metrics.TracksProcessed.WithLabelValues(outcome).Inc()
	}
	return abort
}

func (s *Service) process(ctx context.Context, track *music.Track) (string, bool) {
	logger := slog.With("track", track.ID, "path", track.Path())

	if track.Deleted() {
		track.ClearPending(music.ChangeAll)
		logger.Debug("Track was deleted, dropping it")
		return metrics.OutcomeDeleted, false
	}
	pending, gen := track.Snapshot()
	if !pending.Has(music.ChangeAll) {
		return "", false
	}
	if !s.library.Contains(ctx, track.ID) {
		track.ClearPending(music.ChangeAll)
		logger.Debug("Track left the library, dropping it")
		return metrics.OutcomeMissing, false
	}
	if !s.fs.Exists(track.Path()) {
		track.ClearPending(music.ChangeAll)
		logger.Info("File no longer exists, dropping pending changes", "error", music.ErrMissingSource)
		s.persist(ctx, track)
		return metrics.OutcomeMissing, false
	}

	readOnly, err := s.fs.IsReadOnly(track.Path())
	if err != nil {
		return s.fail(ctx, track, gen, err), false
	}
	if readOnly {
		decision, err := s.resolver.Resolve(ctx, track.Path())
		if errors.Is(err, readonly.ErrNoDecision) {
			s.deferred.Add(track)
			logger.Warn("Read-only file left undecided, retrying later", "error", err)
			s.persist(ctx, track)
			return metrics.OutcomeRetry, false
		}
		if err != nil {
			s.queue.Add(track)
			return "", false
		}
		switch decision {
		case readonly.Cancel:
			return metrics.OutcomeCancelled, true
		case readonly.Skip:
			track.ClearPendingAt(gen, music.ChangeAll)
			logger.Info("Skipping read-only file", "error", music.ErrReadOnly)
			s.persist(ctx, track)
			return metrics.OutcomeSkipped, false
		case readonly.Ignore:
			if err := s.fs.ClearReadOnly(track.Path()); err != nil {
				return s.fail(ctx, track, gen, err), false
			}
		}
	}

	if err := s.write(ctx, track, gen); err != nil {
		return s.fail(ctx, track, gen, err), false
	}
	track.Touch(s.now())
	s.persist(ctx, track)
	if err := s.library.MarkStale(ctx); err != nil {
		logger.Warn("Failed to bump library version", "error", err)
	}
	if track.HasPending(music.ChangeAll) {
		logger.Debug("Track was edited during the write, queueing it again")
		s.queue.Add(track)
	}
	logger.Debug("Track written")
	return metrics.OutcomeWritten, false
}

// write organizes the file then persists tags and artwork. Only retryable
// errors are returned; anything else is logged and its flags dropped. Flags
// are only cleared when the track was not edited after generation gen.
func (s *Service) write(ctx context.Context, track *music.Track, gen uint64) error {
	if _, err := s.organizer.Organize(ctx, track); err != nil {
		if music.IsRetryable(err) {
			return err
		}
		slog.Warn("Organize failed, writing tags in place", "track", track.ID, "error", err)
	}

	pending := track.Pending()
	if !pending.Has(music.ChangeWriteTags) && !pending.Has(music.ChangeEmbedImage) {
		return nil
	}
	opts := music.TagWriteOptions{
		Tags:    pending.Has(music.ChangeWriteTags),
		Artwork: pending.Has(music.ChangeEmbedImage),
	}
	if err := s.tags.WriteFileTags(ctx, track.Path(), track.Fields(), opts); err != nil {
		if music.IsRetryable(err) {
			return err
		}
		slog.Error("Tag write failed, giving up on it", "track", track.ID, "path", track.Path(), "error", err)
		track.ClearPendingAt(gen, music.ChangeTags)
		return nil
	}
	track.ClearPendingAt(gen, music.ChangeTags)
	return nil
}

// fail sends a track to the retry list, or drops its changes when the error
// is not worth retrying.
func (s *Service) fail(ctx context.Context, track *music.Track, gen uint64, err error) string {
	if music.IsRetryable(err) {
		s.deferred.Add(track)
		slog.Warn("Track is busy, retrying later", "track", track.ID, "path", track.Path(), "error", err)
		s.persist(ctx, track)
		return metrics.OutcomeRetry
	}
	track.ClearPendingAt(gen, music.ChangeAll)
	slog.Error("Write-back failed, dropping pending changes", "track", track.ID, "path", track.Path(), "error", err)
	s.persist(ctx, track)
	return metrics.OutcomeAbandoned
}

func (s *Service) persist(ctx context.Context, track *music.Track) {
	if err := s.library.UpdateTrack(ctx, track); err != nil && !errors.Is(err, music.ErrTrackNotFound) {
		slog.Warn("Failed to save track", "track", track.ID, "error", err)
	}
}

// abortAll drops every pending change in the library after the user declined
// to write read-only files.
func (s *Service) abortAll(current *music.Track) {
	s.cancelRetry()
	tracks := append(s.queue.Take(), s.deferred.Take()...)
	tracks = append(tracks, current)
	if pending, err := s.library.PendingTracks(s.ctx); err != nil {
		slog.Error("Failed to list pending tracks", "error", err)
	} else {
		tracks = append(tracks, pending...)
	}

	seen := make(map[string]bool, len(tracks))
	for _, t := range tracks {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		t.ClearPending(music.ChangeAll)
		s.persist(s.ctx, t)
	}
	slog.Warn("Pending writes cancelled", "tracks", len(seen), "error", fmt.Errorf("%w by user", music.ErrWritingHalted))
}
