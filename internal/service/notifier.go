package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alphard-edu/exam-registration-api/internal/models"
	"github.com/alphard-edu/exam-registration-api/pkg/jobs"
	"github.com/alphard-edu/exam-registration-api/pkg/mail"
)

const notificationJobType = "submission_notification"

// MailNotifier delivers new-registration emails through a background queue
// so the HTTP response never waits on (or fails with) the mail provider.
type MailNotifier struct {
	queue  *jobs.Queue
	to     []string
	logger *zap.Logger
}

// NewMailNotifier wires a mailer behind a fire-once queue. Start must be
// called before submissions flow.
func NewMailNotifier(mailer mail.Mailer, to string, workers int, logger *zap.Logger) *MailNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}

	n := &MailNotifier{to: []string{to}, logger: logger}
	n.queue = jobs.NewQueue(notificationJobType, func(ctx context.Context, job jobs.Job) error {
		msg, ok := job.Payload.(mail.Message)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		return mailer.Send(ctx, msg)
	}, jobs.QueueConfig{
		Workers:    workers,
		MaxRetries: 0,
		Logger:     logger,
	})
	return n
}

// Start launches the delivery workers.
func (n *MailNotifier) Start(ctx context.Context) {
	n.queue.Start(ctx)
}

// Stop drains the workers.
func (n *MailNotifier) Stop() {
	n.queue.Stop()
}

// NotifySubmission enqueues one notification email. Any failure is logged
// and swallowed.
func (n *MailNotifier) NotifySubmission(s models.Submission) {
	msg := mail.Message{
		To:      n.to,
		Subject: "Cerere noua - Cambridge",
		HTML: fmt.Sprintf(`<p>A fost trimisa o cerere noua.</p>
<ul>
<li><strong>Nume:</strong> %s %s</li>
<li><strong>Data nastere:</strong> %s</li>
<li><strong>CNP:</strong> %s</li>
<li><strong>Telefon:</strong> %s</li>
<li><strong>Email:</strong> %s</li>
<li><strong>Examen:</strong> %s</li>
</ul>`,
			s.FirstName, s.LastName, s.BirthDate.Format("2006-01-02"), s.CNP, s.Phone, s.Email, s.Exam),
	}

	if err := n.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: notificationJobType, Payload: msg}); err != nil {
		n.logger.Warn("failed to enqueue notification", zap.Error(err))
	}
}
