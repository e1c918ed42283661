package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphard-edu/exam-registration-api/internal/dto"
	"github.com/alphard-edu/exam-registration-api/internal/models"
	appErrors "github.com/alphard-edu/exam-registration-api/pkg/errors"
	"github.com/alphard-edu/exam-registration-api/pkg/export"
)

type mockSubmissionRepo struct {
	created   []models.Submission
	rows      []models.Submission
	stats     *models.SubmissionStats
	createErr error
	listErr   error

	setDoneID    int64
	setDoneValue bool
	deletedID    int64
	lastFilter   models.SubmissionFilter
	listCalls    int
	statsCalls   int
}

func (m *mockSubmissionRepo) Create(_ context.Context, s *models.Submission) error {
	if m.createErr != nil {
		return m.createErr
	}
	s.ID = int64(len(m.created) + 1)
	s.CreatedAt = time.Now().UTC()
	m.created = append(m.created, *s)
	return nil
}

func (m *mockSubmissionRepo) List(_ context.Context, filter models.SubmissionFilter) ([]models.Submission, error) {
	m.lastFilter = filter
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.rows, nil
}

func (m *mockSubmissionRepo) SetDone(_ context.Context, id int64, done bool) error {
	m.setDoneID = id
	m.setDoneValue = done
	return nil
}

func (m *mockSubmissionRepo) Delete(_ context.Context, id int64) error {
	m.deletedID = id
	return nil
}

func (m *mockSubmissionRepo) Stats(_ context.Context) (*models.SubmissionStats, error) {
	m.statsCalls++
	return m.stats, nil
}

type mockNotifier struct {
	notified []models.Submission
}

func (m *mockNotifier) NotifySubmission(s models.Submission) {
	m.notified = append(m.notified, s)
}

func validForm() dto.SubmitForm {
	return dto.SubmitForm{
		FirstName: "Ana",
		LastName:  "Pop",
		BirthDate: "2010-03-15",
		CNP:       "6100315123456",
		Phone:     "0722123456",
		Email:     "ana.pop@example.com",
		Exam:      "IELTS",
	}
}

func newSubmissionService(repo *mockSubmissionRepo, notifier Notifier) *SubmissionService {
	return NewSubmissionService(repo, notifier, nil, nil, export.NewCSVExporter(), export.NewPDFExporter(), nil)
}

func TestSubmitSuccess(t *testing.T) {
	repo := &mockSubmissionRepo{}
	notifier := &mockNotifier{}
	svc := newSubmissionService(repo, notifier)

	submission, err := svc.Submit(context.Background(), validForm())
	require.NoError(t, err)
	assert.Equal(t, int64(1), submission.ID)
	assert.False(t, submission.Done)
	assert.Equal(t, "Ana", submission.FirstName)
	require.Len(t, notifier.notified, 1)
	assert.Equal(t, "ana.pop@example.com", notifier.notified[0].Email)
}

func TestSubmitTrimsWhitespace(t *testing.T) {
	repo := &mockSubmissionRepo{}
	svc := newSubmissionService(repo, nil)

	form := validForm()
	form.FirstName = "  Ana "
	form.Email = " ana.pop@example.com  "

	submission, err := svc.Submit(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, "Ana", submission.FirstName)
	assert.Equal(t, "ana.pop@example.com", submission.Email)
}

func TestSubmitMissingField(t *testing.T) {
	fields := []func(*dto.SubmitForm){
		func(f *dto.SubmitForm) { f.FirstName = "" },
		func(f *dto.SubmitForm) { f.LastName = "   " },
		func(f *dto.SubmitForm) { f.BirthDate = "" },
		func(f *dto.SubmitForm) { f.CNP = "" },
		func(f *dto.SubmitForm) { f.Phone = "" },
		func(f *dto.SubmitForm) { f.Email = "" },
		func(f *dto.SubmitForm) { f.Exam = "" },
	}

	for _, blank := range fields {
		repo := &mockSubmissionRepo{}
		svc := newSubmissionService(repo, nil)

		form := validForm()
		blank(&form)

		_, err := svc.Submit(context.Background(), form)
		require.Error(t, err)
		appErr := appErrors.FromError(err)
		assert.Equal(t, MsgFieldsRequired, appErr.Message)
		assert.Empty(t, repo.created, "rejected form must not be persisted")
	}
}

func TestSubmitInvalidCNP(t *testing.T) {
	for _, cnp := range []string{"123", "12345678901234", "610031512345a", "6100315 12345"} {
		repo := &mockSubmissionRepo{}
		svc := newSubmissionService(repo, nil)

		form := validForm()
		form.CNP = cnp

		_, err := svc.Submit(context.Background(), form)
		require.Error(t, err, "cnp %q must be rejected", cnp)
		appErr := appErrors.FromError(err)
		assert.Equal(t, MsgInvalidCNP, appErr.Message)
		assert.Empty(t, repo.created)
	}
}

func TestSubmitUnknownExam(t *testing.T) {
	repo := &mockSubmissionRepo{}
	svc := newSubmissionService(repo, nil)

	form := validForm()
	form.Exam = "Toefl"

	_, err := svc.Submit(context.Background(), form)
	require.Error(t, err)
	assert.Empty(t, repo.created)
}

func TestSubmitInvalidBirthDate(t *testing.T) {
	repo := &mockSubmissionRepo{}
	svc := newSubmissionService(repo, nil)

	form := validForm()
	form.BirthDate = "15-03-2010"

	_, err := svc.Submit(context.Background(), form)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, MsgInvalidDate, appErr.Message)
	assert.Empty(t, repo.created)
}

func TestSubmitRepositoryFailure(t *testing.T) {
	repo := &mockSubmissionRepo{createErr: errors.New("connection reset")}
	notifier := &mockNotifier{}
	svc := newSubmissionService(repo, notifier)

	_, err := svc.Submit(context.Background(), validForm())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, MsgSaveFailed, appErr.Message)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
	assert.Empty(t, notifier.notified, "failed intake must not notify")
}

func TestSubmitWithoutNotifier(t *testing.T) {
	repo := &mockSubmissionRepo{}
	svc := newSubmissionService(repo, nil)

	_, err := svc.Submit(context.Background(), validForm())
	require.NoError(t, err)
}

func TestListPassesFilter(t *testing.T) {
	repo := &mockSubmissionRepo{rows: []models.Submission{{ID: 1}, {ID: 2}}}
	svc := newSubmissionService(repo, nil)

	filter := models.SubmissionFilter{Search: "ana", Exam: "IELTS", DateFrom: "2024-01-01", DateTo: "2024-12-31"}
	rows, err := svc.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, filter, repo.lastFilter)
}

func TestSetDoneAndDelete(t *testing.T) {
	repo := &mockSubmissionRepo{}
	svc := newSubmissionService(repo, nil)

	require.NoError(t, svc.SetDone(context.Background(), 7, true))
	assert.Equal(t, int64(7), repo.setDoneID)
	assert.True(t, repo.setDoneValue)

	require.NoError(t, svc.SetDone(context.Background(), 7, false))
	assert.False(t, repo.setDoneValue)

	require.NoError(t, svc.Delete(context.Background(), 9))
	assert.Equal(t, int64(9), repo.deletedID)
}

func TestExportCSV(t *testing.T) {
	repo := &mockSubmissionRepo{rows: []models.Submission{{
		ID:        1,
		FirstName: "Ana",
		LastName:  "Pop",
		BirthDate: time.Date(2010, 3, 15, 0, 0, 0, 0, time.UTC),
		CNP:       "6100315123456",
		Phone:     "0722123456",
		Email:     "ana.pop@example.com",
		Exam:      "IELTS",
		CreatedAt: time.Now().UTC(),
	}}}
	svc := newSubmissionService(repo, nil)

	data, contentType, err := svc.Export(context.Background(), models.SubmissionFilter{}, ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.True(t, strings.Contains(string(data), "ana.pop@example.com"))
}

func TestExportPDF(t *testing.T) {
	repo := &mockSubmissionRepo{rows: []models.Submission{{ID: 1, FirstName: "Ana", Exam: "IELTS"}}}
	svc := newSubmissionService(repo, nil)

	data, contentType, err := svc.Export(context.Background(), models.SubmissionFilter{}, ExportPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestExportUnknownFormat(t *testing.T) {
	repo := &mockSubmissionRepo{}
	svc := newSubmissionService(repo, nil)

	_, _, err := svc.Export(context.Background(), models.SubmissionFilter{}, ExportFormat("xlsx"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestListCacheKeyDistinctTuples(t *testing.T) {
	a := listCacheKey(models.SubmissionFilter{Search: "x|exam=y"})
	b := listCacheKey(models.SubmissionFilter{Search: "x", Exam: "y|exam="})
	assert.NotEqual(t, a, b, "distinct filter tuples must not share a cache key")

	c := listCacheKey(models.SubmissionFilter{Search: "ana", Exam: "IELTS"})
	d := listCacheKey(models.SubmissionFilter{Search: "ana", Exam: "IELTS"})
	assert.Equal(t, c, d, "equal tuples must share a key")

	assert.NotEqual(t,
		listCacheKey(models.SubmissionFilter{Search: "IELTS"}),
		listCacheKey(models.SubmissionFilter{Exam: "IELTS"}),
		"the same value in a different field is a different tuple")
}

func newCachedSubmissionService(repo *mockSubmissionRepo) (*SubmissionService, *fakeCacheRepo) {
	cacheRepo := newFakeCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := NewSubmissionService(repo, nil, cache, nil, export.NewCSVExporter(), export.NewPDFExporter(), nil)
	return svc, cacheRepo
}

func TestListServedFromCache(t *testing.T) {
	repo := &mockSubmissionRepo{rows: []models.Submission{{ID: 1, Exam: "IELTS"}}}
	svc, _ := newCachedSubmissionService(repo)
	filter := models.SubmissionFilter{Exam: "IELTS"}

	first, err := svc.List(context.Background(), filter)
	require.NoError(t, err)
	second, err := svc.List(context.Background(), filter)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.listCalls, "second listing must come from cache")

	_, err = svc.List(context.Background(), models.SubmissionFilter{Exam: "A2 Key"})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls, "a different tuple is a different key")
}

func TestMutationsInvalidateListingCache(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(t *testing.T, svc *SubmissionService)
	}{
		{"submit", func(t *testing.T, svc *SubmissionService) {
			_, err := svc.Submit(context.Background(), validForm())
			require.NoError(t, err)
		}},
		{"set done", func(t *testing.T, svc *SubmissionService) {
			require.NoError(t, svc.SetDone(context.Background(), 1, true))
		}},
		{"delete", func(t *testing.T, svc *SubmissionService) {
			require.NoError(t, svc.Delete(context.Background(), 1))
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockSubmissionRepo{rows: []models.Submission{{ID: 1, Exam: "IELTS"}}}
			svc, _ := newCachedSubmissionService(repo)

			_, err := svc.List(context.Background(), models.SubmissionFilter{})
			require.NoError(t, err)
			require.Equal(t, 1, repo.listCalls)

			tc.mutate(t, svc)

			_, err = svc.List(context.Background(), models.SubmissionFilter{})
			require.NoError(t, err)
			assert.Equal(t, 2, repo.listCalls, "mutation must invalidate the cached listing")
		})
	}
}

func TestMutationsInvalidateStatsCache(t *testing.T) {
	repo := &mockSubmissionRepo{stats: &models.SubmissionStats{Total: 1, Pending: 1, ByExam: map[string]int{"IELTS": 1}}}
	svc, _ := newCachedSubmissionService(repo)

	_, err := svc.Stats(context.Background())
	require.NoError(t, err)
	_, err = svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, repo.statsCalls, "second read must come from cache")

	require.NoError(t, svc.SetDone(context.Background(), 1, true))

	_, err = svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.statsCalls, "mutation must invalidate the stats key")
}

func TestStats(t *testing.T) {
	repo := &mockSubmissionRepo{stats: &models.SubmissionStats{Total: 5, Done: 2, Pending: 3, ByExam: map[string]int{"IELTS": 5}}}
	svc := newSubmissionService(repo, nil)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 3, stats.Pending)
}
