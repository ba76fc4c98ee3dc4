package attendance

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound      = errors.New("attendance record not found")
	ErrAlreadyMarked = errors.New("attendance already marked for this student on this date")
)

type (
	Repository interface {
		// CreateRecord inserts a new record; a (student, date) unique constraint
		// violation is reported as ErrAlreadyMarked.
		CreateRecord(ctx context.Context, rec Record) (Record, error)
		// UpsertRecord atomically inserts or overwrites the record keyed by
		// (student, date) and reports whether a new row was created.
		UpsertRecord(ctx context.Context, rec Record) (Record, bool, error)
		GetRecordByID(ctx context.Context, id string) (Record, error)
		UpdateRecord(ctx context.Context, id string, status, remarks *string) (Record, error)
		DeleteRecord(ctx context.Context, id string) error
		// FilterRecords returns populated records, date descending unless
		// Filter.OrderByCreated is set.
		FilterRecords(ctx context.Context, filter Filter) ([]Record, error)
		// StudentSummaries groups records per student over [from, to); students
		// without any record in the window are not returned. Results are sorted
		// by student name ascending.
		StudentSummaries(ctx context.Context, filter Filter) ([]StudentSummary, error)
		// CountByStatus tallies records over [from, to), optionally restricted
		// to the given student ids.
		CountByStatus(ctx context.Context, filter Filter) (present, absent, total int, err error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// MarkOne records an attendance decision for one student on one day.
// It fails with ErrAlreadyMarked when a record already exists for that day;
// use MarkBulk to re-submit a roster with corrections.
func (svc *Service) MarkOne(ctx context.Context, nr NewRecord, recordedBy string) (Record, error) {
	day, err := parseDay(nr.Date)
	if err != nil {
		return Record{}, core.NewValidationError(
			nil, core.FieldError{Field: "date", Error: "invalid date"})
	}
	rec := Record{
		StudentID: nr.Student,
		TeacherID: recordedBy,
		Date:      day,
		Status:    nr.Status,
		Remarks:   nr.Remarks,
		CreatedAt: NowFunc().UTC(),
	}
	return svc.repo.CreateRecord(ctx, rec)
}

// MarkBulk upserts many (student, date) tuples in one call. Tuples are applied
// independently; failures are collected per tuple and do not abort the rest.
func (svc *Service) MarkBulk(ctx context.Context, entries []BulkEntry, recordedBy string) (BulkResult, error) {
	if len(entries) == 0 {
		return BulkResult{}, core.NewValidationError(
			errors.New("provide an array of attendance records"))
	}

	var res BulkResult
	now := NowFunc().UTC()
	for i, entry := range entries {
		if err := validateEntry(entry); err != nil {
			res.Errors = append(res.Errors, BulkError{Index: i, Student: entry.Student, Error: err.Error()})
			continue
		}
		day, err := parseDay(entry.Date)
		if err != nil {
			res.Errors = append(res.Errors, BulkError{Index: i, Student: entry.Student, Error: "invalid date"})
			continue
		}

		rec := Record{
			StudentID: entry.Student,
			TeacherID: recordedBy,
			Date:      day,
			Status:    entry.Status,
			Remarks:   entry.Remarks,
			CreatedAt: now,
		}
		_, inserted, err := svc.repo.UpsertRecord(ctx, rec)
		if err != nil {
			res.Errors = append(res.Errors, BulkError{Index: i, Student: entry.Student, Error: err.Error()})
			continue
		}
		if inserted {
			res.Inserted++
		} else {
			res.Modified++
		}
	}
	return res, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Record, error) {
	return svc.repo.GetRecordByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, ur UpdateRecord) (Record, error) {
	return svc.repo.UpdateRecord(ctx, id, ur.Status, ur.Remarks)
}

// Delete removes a record for good; restricted to admins at the API boundary.
func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteRecord(ctx, id)
}

// ByDate returns all records of one calendar day, newest first, along with a
// lookup map keyed by student id for O(1) merges with a roster.
func (svc *Service) ByDate(ctx context.Context, date time.Time, teacherID string) ([]Record, map[string]Record, error) {
	records, err := svc.repo.FilterRecords(ctx, Filter{
		From:           core.BeginningOfDay(date),
		To:             core.NextDay(date),
		TeacherID:      teacherID,
		OrderByCreated: true,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "filtering records")
	}

	recordMap := make(map[string]Record, len(records))
	for _, rec := range records {
		recordMap[rec.StudentID] = rec
	}
	return records, recordMap, nil
}

// ByStudent returns one student's records, date descending, within an optional
// [from, to] day window, plus the computed summary.
func (svc *Service) ByStudent(ctx context.Context, studentID string, from, to time.Time) ([]Record, Summary, error) {
	filter := Filter{StudentID: studentID}
	if !from.IsZero() {
		filter.From = core.BeginningOfDay(from)
	}
	if !to.IsZero() {
		filter.To = core.NextDay(to)
	}
	records, err := svc.repo.FilterRecords(ctx, filter)
	if err != nil {
		return nil, Summary{}, errors.Wrap(err, "filtering records")
	}

	var summary Summary
	summary.Total = len(records)
	for _, rec := range records {
		switch rec.Status {
		case StatusPresent:
			summary.Present++
		case StatusAbsent:
			summary.Absent++
		}
	}
	summary.PresentPercentage = core.Percentage(summary.Present, summary.Total)
	return records, summary, nil
}

// MonthlySummary rolls up every student with at least one record in the month,
// sorted by student name ascending.
func (svc *Service) MonthlySummary(ctx context.Context, month, year int, teacherID, class string) ([]StudentSummary, error) {
	if month < 1 || month > 12 || year < 1 {
		return nil, core.NewValidationError(errors.New("provide a valid month and year"))
	}
	from, to := core.MonthInterval(year, time.Month(month))

	summaries, err := svc.repo.StudentSummaries(ctx, Filter{
		From:      from,
		To:        to,
		TeacherID: teacherID,
		Class:     class,
	})
	if err != nil {
		return nil, errors.Wrap(err, "summarizing records")
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Student.Name < summaries[j].Student.Name
	})
	return summaries, nil
}

var csvHeader = "Date,Student ID,Student Name,Class,Section,Status,Remarks,Teacher"

// ExportCSV renders matching records as a comma-separated table, date
// descending. Commas inside remarks are replaced with semicolons to keep the
// column count stable; lossy but deterministic.
func (svc *Service) ExportCSV(ctx context.Context, filter Filter) (string, error) {
	records, err := svc.repo.FilterRecords(ctx, filter)
	if err != nil {
		return "", errors.Wrap(err, "filtering records")
	}

	var b strings.Builder
	b.WriteString(csvHeader)
	b.WriteByte('\n')
	for _, rec := range records {
		studentID, studentName, class, section := "N/A", "N/A", "N/A", ""
		if rec.Student != nil {
			studentID = rec.Student.StudentID
			studentName = rec.Student.Name
			class = rec.Student.Class
			section = rec.Student.Section
		}
		teacher := "N/A"
		if rec.Teacher != nil {
			teacher = rec.Teacher.Name
		}
		remarks := strings.ReplaceAll(rec.Remarks, ",", ";")

		fmt.Fprintf(&b, "%s,%s,%s,%s,%s,%s,%s,%s\n",
			rec.Date.Format(core.DateFormat), studentID, studentName, class, section,
			rec.Status, remarks, teacher)
	}
	return b.String(), nil
}

func parseDay(s string) (time.Time, error) {
	t, err := core.ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	return core.BeginningOfDay(t), nil
}

func validateEntry(entry BulkEntry) error {
	if entry.Student == "" || entry.Date == "" || entry.Status == "" {
		return errors.New("student, date and status are required")
	}
	if entry.Status != StatusPresent && entry.Status != StatusAbsent {
		return errors.New("status must be one of: present absent")
	}
	return nil
}
