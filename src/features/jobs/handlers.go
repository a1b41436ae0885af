package jobs

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	service *Service
}

// JobResponse is a wrapper for the Job struct to include API links
type JobResponse struct {
	*Job
	Links map[string]string `json:"_links"`
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func jobResponse(baseURL string, job *Job) *JobResponse {
	return &JobResponse{
		Job: job,
		Links: map[string]string{
			"self": fmt.Sprintf("%s/jobs/%s", baseURL, job.ID),
			"logs": fmt.Sprintf("%s/jobs/%s/logs", baseURL, job.ID),
		},
	}
}

func (h *Handler) HandleJobStatus(c *fiber.Ctx) error {
	job, exists := h.service.GetJob(c.Params("id"))
	if !exists {
		return c.Status(404).JSON(fiber.Map{"error": ErrJobNotFound.Error()})
	}
	return c.JSON(jobResponse(c.BaseURL(), job))
}

// HandleJobLogs returns the lines the job wrote to its daily log.
func (h *Handler) HandleJobLogs(c *fiber.Ctx) error {
	job, exists := h.service.GetJob(c.Params("id"))
	if !exists {
		return c.Status(404).SendString("Job not found")
	}
	if job.LogPath == "" {
		return c.SendString("No logs for this job.")
	}

	logContent, err := os.ReadFile(job.LogPath)
	if err != nil {
		return c.Status(500).SendString("Failed to read log file.")
	}
	var lines []string
	for _, line := range strings.Split(string(logContent), "\n") {
		if strings.Contains(line, "job="+job.ID) {
			lines = append(lines, line)
		}
	}
	c.Set("Content-Type", "text/plain")
	return c.SendString(strings.Join(lines, "\n"))
}

// HandleJobList lists jobs, optionally filtered with ?status=.
func (h *Handler) HandleJobList(c *fiber.Ctx) error {
	status := JobStatus(c.Query("status"))
	baseURL := c.BaseURL()
	responses := make([]*JobResponse, 0)
	for _, job := range h.service.GetJobs() {
		if status != "" && job.Status != status {
			continue
		}
		responses = append(responses, jobResponse(baseURL, job))
	}
	return c.JSON(responses)
}

func (h *Handler) HandleCancelJob(c *fiber.Ctx) error {
	jobID := c.Params("id")
	if err := h.service.CancelJob(jobID); err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})
	}
	job, _ := h.service.GetJob(jobID)
	return c.JSON(jobResponse(c.BaseURL(), job))
}

func (h *Handler) HandleCleanupJobs(c *fiber.Ctx) error {
	h.service.CleanupOldJobs(24 * time.Hour)
	return c.JSON(fiber.Map{"status": "cleanup completed"})
}
