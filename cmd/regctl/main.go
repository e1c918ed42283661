// Command regctl is an operator tool for inspecting exam registrations from
// the terminal. It talks to the same database as the API and mirrors the
// admin listing filters.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/alphard-edu/exam-registration-api/internal/models"
	"github.com/alphard-edu/exam-registration-api/internal/repository"
	"github.com/alphard-edu/exam-registration-api/pkg/config"
	"github.com/alphard-edu/exam-registration-api/pkg/database"
)

func main() {
	var (
		search   = flag.String("q", "", "substring search across name, email, phone and CNP")
		exam     = flag.String("exam", "", "exact exam category")
		dateFrom = flag.String("from", "", "inclusive start date (YYYY-MM-DD)")
		dateTo   = flag.String("to", "", "inclusive end date (YYYY-MM-DD)")
		stats    = flag.Bool("stats", false, "print registration counters instead of rows")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	repo := repository.NewSubmissionRepository(db)

	if *stats {
		printStats(ctx, repo)
		return
	}

	filter := models.SubmissionFilter{
		Search:   *search,
		Exam:     *exam,
		DateFrom: *dateFrom,
		DateTo:   *dateTo,
	}

	rows, err := repo.List(ctx, filter)
	if err != nil {
		log.Fatalf("failed to list submissions: %v", err)
	}

	color.Cyan("Exam registrations (%d)", len(rows))
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Birth Date", "CNP", "Phone", "Email", "Exam", "Done", "Created At"})

	for _, s := range rows {
		done := "no"
		if s.Done {
			done = "yes"
		}
		table.Append([]string{
			fmt.Sprintf("%d", s.ID),
			s.FirstName + " " + s.LastName,
			s.BirthDate.Format("2006-01-02"),
			s.CNP,
			s.Phone,
			s.Email,
			s.Exam,
			done,
			s.CreatedAt.Format("2006-01-02 15:04"),
		})
	}

	table.Render()
}

func printStats(ctx context.Context, repo *repository.SubmissionRepository) {
	stats, err := repo.Stats(ctx)
	if err != nil {
		log.Fatalf("failed to load stats: %v", err)
	}

	color.Yellow("Registration counters")
	fmt.Printf("total: %d  done: %d  pending: %d\n\n", stats.Total, stats.Done, stats.Pending)

	exams := make([]string, 0, len(stats.ByExam))
	for exam := range stats.ByExam {
		exams = append(exams, exam)
	}
	sort.Strings(exams)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Exam", "Registrations"})
	for _, exam := range exams {
		table.Append([]string{exam, fmt.Sprintf("%d", stats.ByExam[exam])})
	}
	table.Render()
}
