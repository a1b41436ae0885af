package jobs

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/contre95/soulwrite/src/features/config"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestGo_RecordsCompletion(t *testing.T) {
	s := NewService(config.Jobs{})
	done := make(chan struct{})
	s.Go("writeback-drain", func() { close(done) })
	<-done

	jobs := s.GetJobs()
	if len(jobs) != 1 || jobs[0].Type != JobTypeTask {
		t.Fatalf("expected one task job, got %v", jobs)
	}
	waitFor(t, func() bool {
		job, _ := s.GetJob(jobs[0].ID)
		s.mu.RLock()
		defer s.mu.RUnlock()
		return job.Status == JobStatusCompleted
	})
}

func TestGo_RecoversPanics(t *testing.T) {
	s := NewService(config.Jobs{})
	s.Go("boom", func() { panic("boom") })

	waitFor(t, func() bool {
		s.mu.RLock()
		defer s.mu.RUnlock()
		for _, job := range s.jobs {
			return job.Status == JobStatusFailed && job.Error == "boom"
		}
		return false
	})
}

func TestAfterFunc_RunsAndCancels(t *testing.T) {
	s := NewService(config.Jobs{})

	var ran atomic.Bool
	s.AfterFunc("soon", time.Millisecond, func() { ran.Store(true) })
	waitFor(t, ran.Load)

	var late atomic.Bool
	stop := s.AfterFunc("later", time.Hour, func() { late.Store(true) })
	if !stop() {
		t.Fatal("expected a pending timer to be cancelled")
	}
	if stop() {
		t.Error("expected a second stop to report false")
	}
	for _, job := range s.GetJobs() {
		if job.Name == "later" && job.Status != JobStatusCancelled {
			t.Errorf("expected cancelled status, got %s", job.Status)
		}
	}
}

func TestSchedule_RejectsBadSpec(t *testing.T) {
	s := NewService(config.Jobs{})
	if _, err := s.Schedule("drain", "not a schedule", func() {}); err == nil {
		t.Fatal("expected an invalid cron expression to fail")
	}
	id, err := s.Schedule("drain", "@every 1h", func() {})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.CancelJob(id); err != nil {
		t.Fatalf("expected scheduled job to be cancellable, got %v", err)
	}
	if err := s.CancelJob("missing"); err != ErrJobNotFound {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestJobLogs(t *testing.T) {
	dir := t.TempDir()
	s := NewService(config.Jobs{Log: true, LogPath: dir})
	defer s.Stop()

	done := make(chan struct{})
	s.Go("writeback-drain", func() { close(done) })
	<-done
	job := s.GetJobs()[0]
	waitFor(t, func() bool {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return job.finished()
	})

	if filepath.Dir(job.LogPath) != dir || !strings.HasSuffix(job.LogPath, "-writeback-drain.log") {
		t.Fatalf("unexpected log path %s", job.LogPath)
	}
	content, err := os.ReadFile(job.LogPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "job="+job.ID) {
		t.Errorf("expected log lines tagged with the job id, got %s", content)
	}
}
