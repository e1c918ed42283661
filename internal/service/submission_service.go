package service

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alphard-edu/exam-registration-api/internal/dto"
	"github.com/alphard-edu/exam-registration-api/internal/models"
	appErrors "github.com/alphard-edu/exam-registration-api/pkg/errors"
)

// Localized messages surfaced on the public form, kept verbatim from the
// registration UI.
const (
	MsgFieldsRequired = "Toate campurile sunt obligatorii."
	MsgInvalidCNP     = "CNP-ul trebuie sa aiba 13 cifre."
	MsgInvalidDate    = "Data nasterii este invalida."
	MsgSaveFailed     = "Eroare la salvare. Incearca din nou."
)

var cnpPattern = regexp.MustCompile(`^[0-9]{13}$`)

const (
	cacheKeyPrefix = "submissions"
	statsCacheKey  = "submissions:stats"
)

type submissionRepository interface {
	Create(ctx context.Context, s *models.Submission) error
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, error)
	SetDone(ctx context.Context, id int64, done bool) error
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) (*models.SubmissionStats, error)
}

// Notifier announces an accepted registration on a side channel. Failures
// are the notifier's problem; the intake result is already committed.
type Notifier interface {
	NotifySubmission(s models.Submission)
}

// ExportFormat selects the export renderer.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

type csvRenderer interface {
	Render(rows []models.Submission) ([]byte, error)
}

type pdfRenderer interface {
	Render(rows []models.Submission, title string) ([]byte, error)
}

// SubmissionService implements the intake and the admin operations over
// registrations.
type SubmissionService struct {
	repo     submissionRepository
	notifier Notifier
	cache    *CacheService
	metrics  *MetricsService
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
}

// NewSubmissionService constructs a SubmissionService.
func NewSubmissionService(repo submissionRepository, notifier Notifier, cache *CacheService, metrics *MetricsService, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{repo: repo, notifier: notifier, cache: cache, metrics: metrics, csv: csv, pdf: pdf, logger: logger}
}

// Submit validates and persists one registration. Validation failures leave
// no row behind; the notification is best-effort and cannot fail the call.
func (s *SubmissionService) Submit(ctx context.Context, form dto.SubmitForm) (*models.Submission, error) {
	firstName := strings.TrimSpace(form.FirstName)
	lastName := strings.TrimSpace(form.LastName)
	birthDate := strings.TrimSpace(form.BirthDate)
	cnp := strings.TrimSpace(form.CNP)
	phone := strings.TrimSpace(form.Phone)
	email := strings.TrimSpace(form.Email)
	exam := strings.TrimSpace(form.Exam)

	if firstName == "" || lastName == "" || birthDate == "" || cnp == "" || phone == "" || email == "" || exam == "" {
		s.metrics.CountSubmission("rejected")
		return nil, appErrors.Clone(appErrors.ErrValidation, MsgFieldsRequired)
	}

	if !cnpPattern.MatchString(cnp) {
		s.metrics.CountSubmission("rejected")
		return nil, appErrors.Clone(appErrors.ErrValidation, MsgInvalidCNP)
	}

	if !models.ValidExam(exam) {
		s.metrics.CountSubmission("rejected")
		return nil, appErrors.Clone(appErrors.ErrValidation, MsgFieldsRequired)
	}

	born, err := time.Parse("2006-01-02", birthDate)
	if err != nil {
		s.metrics.CountSubmission("rejected")
		return nil, appErrors.Clone(appErrors.ErrValidation, MsgInvalidDate)
	}

	submission := &models.Submission{
		FirstName: firstName,
		LastName:  lastName,
		BirthDate: born,
		CNP:       cnp,
		Phone:     phone,
		Email:     email,
		Exam:      exam,
	}

	start := time.Now()
	if err := s.repo.Create(ctx, submission); err != nil {
		s.metrics.CountSubmission("failed")
		s.logger.Error("failed to persist submission", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, MsgSaveFailed)
	}
	s.metrics.ObserveDBQuery("submission_create", time.Since(start))
	s.metrics.CountSubmission("accepted")

	s.invalidate(ctx)

	if s.notifier != nil {
		s.notifier.NotifySubmission(*submission)
	}

	return submission, nil
}

// List returns submissions matching the filter, newest first, consulting
// the cache when enabled.
func (s *SubmissionService) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, error) {
	key := listCacheKey(filter)

	var cached []models.Submission
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	start := time.Now()
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "query failed")
	}
	s.metrics.ObserveDBQuery("submission_list", time.Since(start))

	_ = s.cache.Set(ctx, key, rows, 0)
	return rows, nil
}

// SetDone sets the done flag to exactly the requested value. Unknown ids
// succeed silently, so the operation is idempotent.
func (s *SubmissionService) SetDone(ctx context.Context, id int64, done bool) error {
	if err := s.repo.SetDone(ctx, id, done); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update failed")
	}
	s.invalidate(ctx)
	return nil
}

// Delete permanently removes a submission. Deleting an unknown id succeeds.
func (s *SubmissionService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete failed")
	}
	s.invalidate(ctx)
	return nil
}

// Stats aggregates registration counters for the admin dashboard.
func (s *SubmissionService) Stats(ctx context.Context) (*models.SubmissionStats, error) {
	var cached models.SubmissionStats
	if hit, _ := s.cache.Get(ctx, statsCacheKey, &cached); hit {
		return &cached, nil
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "query failed")
	}

	_ = s.cache.Set(ctx, statsCacheKey, stats, 0)
	return stats, nil
}

// Export renders the filtered listing in the requested format and returns
// the document bytes with their content type.
func (s *SubmissionService) Export(ctx context.Context, filter models.SubmissionFilter, format ExportFormat) ([]byte, string, error) {
	rows, err := s.List(ctx, filter)
	if err != nil {
		return nil, "", err
	}

	switch format {
	case ExportCSV:
		data, err := s.csv.Render(rows)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "export failed")
		}
		return data, "text/csv", nil
	case ExportPDF:
		data, err := s.pdf.Render(rows, "Inscrieri examene Cambridge")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "export failed")
		}
		return data, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unknown export format")
	}
}

func (s *SubmissionService) invalidate(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, cacheKeyPrefix+":*")
}

// listCacheKey derives a cache key from the filter tuple. url.Values
// escaping keeps distinct tuples from colliding on a shared key.
func listCacheKey(filter models.SubmissionFilter) string {
	params := url.Values{
		"q":    {filter.Search},
		"exam": {filter.Exam},
		"from": {filter.DateFrom},
		"to":   {filter.DateTo},
	}
	return fmt.Sprintf("%s:list:%s", cacheKeyPrefix, params.Encode())
}
