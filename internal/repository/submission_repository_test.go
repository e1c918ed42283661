package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphard-edu/exam-registration-api/internal/models"
)

func newSubmissionMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func submissionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "first_name", "last_name", "birth_date", "cnp", "phone", "email", "exam", "done", "created_at"})
}

func TestSubmissionRepositoryListNoFilters(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	rows := submissionRows().
		AddRow(2, "Maria", "Ionescu", time.Now(), "2980101223344", "0722000001", "maria@example.com", "IELTS", false, time.Now()).
		AddRow(1, "Ion", "Popescu", time.Now(), "1980101223344", "0722000002", "ion@example.com", "B2 First", true, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, first_name, last_name, birth_date, cnp, phone, email, exam, done, created_at FROM submissions WHERE 1=1 ORDER BY created_at DESC")).
		WillReturnRows(rows)

	submissions, err := repo.List(context.Background(), models.SubmissionFilter{})
	require.NoError(t, err)
	assert.Len(t, submissions, 2)
	assert.Equal(t, int64(2), submissions[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryListAllFilters(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	expected := "SELECT id, first_name, last_name, birth_date, cnp, phone, email, exam, done, created_at FROM submissions WHERE 1=1" +
		" AND (first_name ILIKE $1 OR last_name ILIKE $1 OR email ILIKE $1 OR phone ILIKE $1 OR cnp ILIKE $1)" +
		" AND exam = $2 AND DATE(created_at) >= $3 AND DATE(created_at) <= $4 ORDER BY created_at DESC"
	mock.ExpectQuery(regexp.QuoteMeta(expected)).
		WithArgs("%ana%", "IELTS", "2024-01-01", "2024-01-31").
		WillReturnRows(submissionRows())

	submissions, err := repo.List(context.Background(), models.SubmissionFilter{
		Search:   "ana",
		Exam:     "IELTS",
		DateFrom: "2024-01-01",
		DateTo:   "2024-01-31",
	})
	require.NoError(t, err)
	assert.Empty(t, submissions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryListDateFromOnly(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	expected := "SELECT id, first_name, last_name, birth_date, cnp, phone, email, exam, done, created_at FROM submissions WHERE 1=1" +
		" AND DATE(created_at) >= $1 ORDER BY created_at DESC"
	mock.ExpectQuery(regexp.QuoteMeta(expected)).
		WithArgs("2024-06-01").
		WillReturnRows(submissionRows())

	_, err := repo.List(context.Background(), models.SubmissionFilter{DateFrom: "2024-06-01"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	created := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO submissions").
		WithArgs("Ion", "Popescu", sqlmock.AnyArg(), "1980101223344", "0722000002", "ion@example.com", "B2 First").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(7, created))

	s := &models.Submission{
		FirstName: "Ion",
		LastName:  "Popescu",
		BirthDate: time.Date(1998, 1, 1, 0, 0, 0, 0, time.UTC),
		CNP:       "1980101223344",
		Phone:     "0722000002",
		Email:     "ion@example.com",
		Exam:      "B2 First",
	}
	err := repo.Create(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, int64(7), s.ID)
	assert.Equal(t, created, s.CreatedAt)
	assert.False(t, s.Done)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositorySetDone(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE submissions SET done = $2 WHERE id = $1")).
		WithArgs(int64(5), true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetDone(context.Background(), 5, true))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositorySetDoneUnknownID(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE submissions SET done = $2 WHERE id = $1")).
		WithArgs(int64(999), false).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.SetDone(context.Background(), 999, false))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM submissions WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM submissions WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), 5))
	require.NoError(t, repo.Delete(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryStats(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"total", "done"}).AddRow(10, 4))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT exam, COUNT(*) AS count FROM submissions GROUP BY exam")).
		WillReturnRows(sqlmock.NewRows([]string{"exam", "count"}).AddRow("IELTS", 6).AddRow("A2 Key", 4))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Total)
	assert.Equal(t, 4, stats.Done)
	assert.Equal(t, 6, stats.Pending)
	assert.Equal(t, 6, stats.ByExam["IELTS"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
