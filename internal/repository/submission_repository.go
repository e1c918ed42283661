package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/alphard-edu/exam-registration-api/internal/models"
)

const submissionColumns = "id, first_name, last_name, birth_date, cnp, phone, email, exam, done, created_at"

// SubmissionRepository provides database access for exam registrations.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository creates a new instance of SubmissionRepository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create inserts a new submission. The server assigns id and created_at;
// both are written back onto the value.
func (r *SubmissionRepository) Create(ctx context.Context, s *models.Submission) error {
	const query = `INSERT INTO submissions (first_name, last_name, birth_date, cnp, phone, email, exam, done)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)
		RETURNING id, created_at`
	row := r.db.QueryRowxContext(ctx, query, s.FirstName, s.LastName, s.BirthDate, s.CNP, s.Phone, s.Email, s.Exam)
	if err := row.Scan(&s.ID, &s.CreatedAt); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	s.Done = false
	return nil
}

// List returns submissions matching the filter, newest first. The ordering
// is a contract with the admin UI.
func (r *SubmissionRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, error) {
	baseQuery := `FROM submissions WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d OR cnp ILIKE $%d)",
			idx, idx, idx, idx, idx))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Exam != "" {
		conditions = append(conditions, fmt.Sprintf("exam = $%d", len(args)+1))
		args = append(args, filter.Exam)
	}
	if filter.DateFrom != "" {
		conditions = append(conditions, fmt.Sprintf("DATE(created_at) >= $%d", len(args)+1))
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		conditions = append(conditions, fmt.Sprintf("DATE(created_at) <= $%d", len(args)+1))
		args = append(args, filter.DateTo)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC", submissionColumns, baseQuery)

	submissions := []models.Submission{}
	if err := r.db.SelectContext(ctx, &submissions, listQuery, args...); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, nil
}

// SetDone sets the done flag to exactly the requested value. Updating an
// unknown id affects zero rows and is not an error.
func (r *SubmissionRepository) SetDone(ctx context.Context, id int64, done bool) error {
	const query = `UPDATE submissions SET done = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, done); err != nil {
		return fmt.Errorf("update submission done: %w", err)
	}
	return nil
}

// Delete permanently removes a submission. Deleting an unknown id is a
// no-op.
func (r *SubmissionRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM submissions WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}
	return nil
}

// Stats aggregates total, done and per-exam counts.
func (r *SubmissionRepository) Stats(ctx context.Context) (*models.SubmissionStats, error) {
	const totalsQuery = `SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE done) AS done FROM submissions`
	var totals struct {
		Total int `db:"total"`
		Done  int `db:"done"`
	}
	if err := r.db.GetContext(ctx, &totals, totalsQuery); err != nil {
		return nil, fmt.Errorf("count submissions: %w", err)
	}

	const byExamQuery = `SELECT exam, COUNT(*) AS count FROM submissions GROUP BY exam`
	rows := []struct {
		Exam  string `db:"exam"`
		Count int    `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, byExamQuery); err != nil {
		return nil, fmt.Errorf("count submissions by exam: %w", err)
	}

	stats := &models.SubmissionStats{
		Total:   totals.Total,
		Done:    totals.Done,
		Pending: totals.Total - totals.Done,
		ByExam:  make(map[string]int, len(rows)),
	}
	for _, row := range rows {
		stats.ByExam[row.Exam] = row.Count
	}
	return stats, nil
}
