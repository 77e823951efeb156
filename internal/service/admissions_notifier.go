package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-sis-api/internal/models"
	"github.com/noah-isme/campus-sis-api/pkg/admissions"
	"github.com/noah-isme/campus-sis-api/pkg/config"
	"github.com/noah-isme/campus-sis-api/pkg/jobs"
)

// JobTypeSemesterAssignment identifies admissions notification jobs.
const JobTypeSemesterAssignment = "admissions.semester_assignment"

type admissionsClient interface {
	NotifySemesterAssignment(ctx context.Context, externalID, semesterID string) error
}

type semesterAssignmentJob struct {
	StudentID  string
	ExternalID string
	SemesterID string
}

// AdmissionsNotifier delivers enrollment outcomes to the admissions system in the
// background. Transient failures are retried by the queue, rejections are dead-lettered
// at once, and either way the outcome ends in a log line, never in an error returned to
// the enrolling caller.
type AdmissionsNotifier struct {
	client  admissionsClient
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAdmissionsNotifier wires the notification queue around client.
func NewAdmissionsNotifier(client admissionsClient, cfg config.AdmissionsConfig, metrics *MetricsService, logger *zap.Logger) *AdmissionsNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &AdmissionsNotifier{client: client, metrics: metrics, logger: logger}
	n.queue = jobs.NewQueue("admissions", n.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
		DeadLetter: n.deadLetter,
	})
	return n
}

// Start launches the delivery workers.
func (n *AdmissionsNotifier) Start(ctx context.Context) {
	if n == nil {
		return
	}
	n.queue.Start(ctx)
}

// Stop waits for in-flight deliveries; undelivered jobs are dropped.
func (n *AdmissionsNotifier) Stop() {
	if n == nil {
		return
	}
	n.queue.Stop()
}

// NotifySemesterAssignment enqueues a notification for student. Students without an
// admissions id are skipped.
func (n *AdmissionsNotifier) NotifySemesterAssignment(ctx context.Context, student *models.Student, semesterID string) {
	if n == nil || student == nil {
		return
	}
	if student.ExternalID == nil || *student.ExternalID == "" {
		n.logger.Info("student has no admissions id; notification skipped", zap.String("student_id", student.ID))
		n.metrics.RecordNotification("skipped")
		return
	}
	job := jobs.Job{
		ID:   uuid.NewString(),
		Type: JobTypeSemesterAssignment,
		Payload: semesterAssignmentJob{
			StudentID:  student.ID,
			ExternalID: *student.ExternalID,
			SemesterID: semesterID,
		},
	}
	if err := n.queue.Enqueue(job); err != nil {
		n.logger.Warn("failed to enqueue admissions notification",
			zap.String("student_id", student.ID), zap.String("semester_id", semesterID), zap.Error(err))
		n.metrics.RecordNotification("dead_letter")
		return
	}
	n.metrics.RecordNotification("queued")
}

func (n *AdmissionsNotifier) deliver(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(semesterAssignmentJob)
	if !ok {
		return jobs.Permanent(fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID))
	}
	if err := n.client.NotifySemesterAssignment(ctx, payload.ExternalID, payload.SemesterID); err != nil {
		if !retryable(err) {
			return jobs.Permanent(err)
		}
		return err
	}
	n.metrics.RecordNotification("delivered")
	n.logger.Debug("admissions notified",
		zap.String("student_id", payload.StudentID), zap.String("semester_id", payload.SemesterID))
	return nil
}

// retryable treats 4xx answers other than 429 and a missing base URL as final.
func retryable(err error) bool {
	if errors.Is(err, admissions.ErrNotConfigured) {
		return false
	}
	var statusErr *admissions.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return true
}

func (n *AdmissionsNotifier) deadLetter(job jobs.Job, err error) {
	fields := []zap.Field{zap.String("job_id", job.ID), zap.Int("attempts", job.Attempt), zap.Error(err)}
	if payload, ok := job.Payload.(semesterAssignmentJob); ok {
		fields = append(fields, zap.String("student_id", payload.StudentID), zap.String("semester_id", payload.SemesterID))
	}
	n.logger.Error("admissions notification abandoned", fields...)
	n.metrics.RecordNotification("dead_letter")
}
