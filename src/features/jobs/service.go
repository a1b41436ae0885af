package jobs

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/contre95/soulwrite/src/features/config"
)

type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusScheduled JobStatus = "scheduled"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

type JobType string

const (
	JobTypeTask     JobType = "task"
	JobTypeTimer    JobType = "timer"
	JobTypeSchedule JobType = "schedule"
)

// maxFinishedJobs bounds how many finished jobs are kept for listing.
const maxFinishedJobs = 200

var ErrJobNotFound = errors.New("job not found")

type Job struct {
	ID        string       `json:"id"`
	Type      JobType      `json:"type"`
	Name      string       `json:"name"`
	Status    JobStatus    `json:"status"`
	Message   string       `json:"message,omitempty"`
	Error     string       `json:"error,omitempty"`
	Schedule  string       `json:"schedule,omitempty"`
	Runs      int          `json:"runs"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	LogPath   string       `json:"log_path,omitempty"`
	Logger    *slog.Logger `json:"-"`

	stop  func() bool
	entry cron.EntryID
}

func (j *Job) finished() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed || j.Status == JobStatusCancelled
}

// Service runs background work and keeps a record of it. It is the
// scheduling facility used by write-back and deletion draining.
type Service struct {
	jobs     map[string]*Job
	mu       sync.RWMutex
	config   config.Jobs
	cron     *cron.Cron
	logMu    sync.Mutex
	logFiles map[string]*os.File
}

func NewService(cfg config.Jobs) *Service {
	return &Service{
		jobs:     make(map[string]*Job),
		config:   cfg,
		logFiles: make(map[string]*os.File),
		cron:     cron.New(cron.WithLogger(cronLogger{}), cron.WithChain(cron.SkipIfStillRunning(cronLogger{}))),
	}
}

func (s *Service) newJob(jobType JobType, name string, status JobStatus) (*Job, error) {
	job := &Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Name:      name,
		Status:    status,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if s.config.Log {
		logDir := s.config.LogPath
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		logName := fmt.Sprintf("%s-%s.log", time.Now().Format("2006-01-02"), name)
		logPath := filepath.Join(logDir, logName)
		logFile, err := s.logFile(logPath)
		if err != nil {
			return nil, err
		}
		job.Logger = slog.New(slog.NewTextHandler(logFile, nil)).With("job", job.ID)
		job.LogPath = logPath
	} else {
		// If logging is disabled, use a discard logger to prevent nil pointer errors
		job.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return job, nil
}

// logFile returns the shared append handle for a daily job log.
func (s *Service) logFile(path string) (*os.File, error) {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	if f, ok := s.logFiles[path]; ok {
		return f, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	s.logFiles[path] = f
	return f, nil
}

// newJobOrDetached never fails: when the log file cannot be opened the job
// still runs with a discard logger.
func (s *Service) newJobOrDetached(jobType JobType, name string, status JobStatus) *Job {
	job, err := s.newJob(jobType, name, status)
	if err == nil {
		return job
	}
	slog.Warn("Job log unavailable", "job", name, "error", err)
	job = &Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Name:      name,
		Status:    status,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return job
}

// Go runs fn on a new goroutine.
func (s *Service) Go(name string, fn func()) {
	job := s.newJobOrDetached(JobTypeTask, name, JobStatusRunning)
	go s.execute(job, fn)
}

// AfterFunc runs fn once after d. The returned func cancels it and reports
// whether it was still pending.
func (s *Service) AfterFunc(name string, d time.Duration, fn func()) func() bool {
	job := s.newJobOrDetached(JobTypeTimer, name, JobStatusPending)
	s.updateJobStatus(job.ID, JobStatusPending, fmt.Sprintf("runs in %s", d))
	timer := time.AfterFunc(d, func() {
		s.updateJobStatus(job.ID, JobStatusRunning, "")
		s.execute(job, fn)
	})
	stop := func() bool {
		if !timer.Stop() {
			return false
		}
		s.updateJobStatus(job.ID, JobStatusCancelled, "Job cancelled")
		s.prune()
		return true
	}
	s.mu.Lock()
	job.stop = stop
	s.mu.Unlock()
	return stop
}

// Schedule runs fn on a cron expression until the service stops or the job is cancelled.
func (s *Service) Schedule(name, expr string, fn func()) (string, error) {
	job := s.newJobOrDetached(JobTypeSchedule, name, JobStatusScheduled)
	s.mu.Lock()
	job.Schedule = expr
	s.mu.Unlock()
	entry, err := s.cron.AddFunc(expr, func() { s.runScheduled(job, fn) })
	if err != nil {
		s.updateJobStatus(job.ID, JobStatusFailed, err.Error())
		return "", fmt.Errorf("invalid schedule %q for %s: %w", expr, name, err)
	}
	s.mu.Lock()
	job.entry = entry
	job.stop = func() bool {
		s.cron.Remove(entry)
		return true
	}
	s.mu.Unlock()
	slog.Info("Scheduled job", "name", name, "schedule", expr)
	return job.ID, nil
}

func (s *Service) runScheduled(job *Job, fn func()) {
	s.mu.Lock()
	job.Runs++
	job.UpdatedAt = time.Now()
	s.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			job.Logger.Error("Scheduled job panicked", "name", job.Name, "panic", r)
			s.mu.Lock()
			job.Error = fmt.Sprint(r)
			s.mu.Unlock()
		}
	}()
	job.Logger.Info("Running scheduled job", "name", job.Name)
	fn()
}

func (s *Service) execute(job *Job, fn func()) {
	job.Logger.Info("Starting job", "name", job.Name)
	defer func() {
		if r := recover(); r != nil {
			job.Logger.Error("Job panicked", "name", job.Name, "panic", r)
			slog.Error("Background job panicked", "name", job.Name, "panic", r)
			s.mu.Lock()
			job.Error = fmt.Sprint(r)
			s.mu.Unlock()
			s.updateJobStatus(job.ID, JobStatusFailed, "Job failed")
		} else {
			job.Logger.Info("Job finished successfully", "name", job.Name)
			s.updateJobStatus(job.ID, JobStatusCompleted, "Job completed successfully")
		}
		s.prune()
	}()
	fn()
}

// Start starts the cron scheduler.
func (s *Service) Start() {
	s.cron.Start()
}

// Stop stops the cron scheduler, waits for running scheduled jobs and
// closes the job logs.
func (s *Service) Stop() {
	<-s.cron.Stop().Done()
	s.logMu.Lock()
	defer s.logMu.Unlock()
	for path, f := range s.logFiles {
		if err := f.Close(); err != nil {
			slog.Warn("Failed to close job log", "path", path, "error", err)
		}
		delete(s.logFiles, path)
	}
}

func (s *Service) updateJobStatus(jobID string, status JobStatus, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, exists := s.jobs[jobID]; exists {
		job.Status = status
		if message != "" {
			job.Message = message
		}
		job.UpdatedAt = time.Now()
	}
}

func (s *Service) CancelJob(jobID string) error {
	s.mu.Lock()
	job, exists := s.jobs[jobID]
	if !exists {
		s.mu.Unlock()
		return ErrJobNotFound
	}
	stop := job.stop
	s.mu.Unlock()

	if stop == nil || !stop() {
		return fmt.Errorf("job %s cannot be cancelled", jobID)
	}
	s.updateJobStatus(jobID, JobStatusCancelled, "Job cancelled")
	return nil
}

func (s *Service) GetJob(jobID string) (*Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, exists := s.jobs[jobID]
	return job, exists
}

// GetJobs returns all jobs, newest first.
func (s *Service) GetJobs() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	jobs := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs
}

// prune drops the oldest finished jobs beyond maxFinishedJobs.
func (s *Service) prune() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var finished []*Job
	for _, job := range s.jobs {
		if job.finished() {
			finished = append(finished, job)
		}
	}
	if len(finished) <= maxFinishedJobs {
		return
	}
	sort.Slice(finished, func(i, j int) bool {
		return finished[i].UpdatedAt.Before(finished[j].UpdatedAt)
	})
	for _, job := range finished[:len(finished)-maxFinishedJobs] {
		delete(s.jobs, job.ID)
	}
}

func (s *Service) CleanupOldJobs(maxAge time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > maxAge && job.finished() {
			delete(s.jobs, id)
		}
	}
}

// cronLogger routes cron's own logging through slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
