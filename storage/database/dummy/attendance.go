package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

// populate resolves the student and teacher soft references, when they still do.
func (repo *attendanceRepository) populate(rec attendance.Record) attendance.Record {
	if std, ok := repo.db.students[rec.StudentID]; ok {
		rec.Student = &attendance.StudentInfo{
			ID:        std.ID,
			StudentID: std.StudentID,
			Name:      std.Name,
			Class:     std.Class,
			Section:   std.Section,
		}
	}
	if usr, ok := repo.db.users[rec.TeacherID]; ok {
		rec.Teacher = &attendance.TeacherInfo{
			ID:    usr.ID,
			Name:  usr.Name,
			Email: usr.Email,
		}
	}
	return rec
}

func (repo *attendanceRepository) matches(rec attendance.Record, filter attendance.Filter) bool {
	if !filter.From.IsZero() && rec.Date.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && !rec.Date.Before(filter.To) {
		return false
	}
	if filter.TeacherID != "" && rec.TeacherID != filter.TeacherID {
		return false
	}
	if filter.StudentID != "" && rec.StudentID != filter.StudentID {
		return false
	}
	if filter.StudentIDs != nil {
		var found bool
		for _, id := range filter.StudentIDs {
			if rec.StudentID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.Class != "" {
		std, ok := repo.db.students[rec.StudentID]
		if !ok || !strings.Contains(strings.ToLower(std.Class), strings.ToLower(filter.Class)) {
			return false
		}
	}
	return true
}

func (repo *attendanceRepository) CreateRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, existing := range repo.db.attendance {
		if existing.StudentID == rec.StudentID && existing.Date.Equal(rec.Date) {
			return attendance.Record{}, attendance.ErrAlreadyMarked
		}
	}

	rec.ID = uuid.New().String()
	repo.db.attendance[rec.ID] = &rec
	return rec, nil
}

func (repo *attendanceRepository) UpsertRecord(_ context.Context, rec attendance.Record) (attendance.Record, bool, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, existing := range repo.db.attendance {
		if existing.StudentID == rec.StudentID && existing.Date.Equal(rec.Date) {
			existing.Status = rec.Status
			existing.Remarks = rec.Remarks
			existing.TeacherID = rec.TeacherID
			return *existing, false, nil
		}
	}

	rec.ID = uuid.New().String()
	repo.db.attendance[rec.ID] = &rec
	return rec, true, nil
}

func (repo *attendanceRepository) GetRecordByID(_ context.Context, id string) (attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if rec, ok := repo.db.attendance[id]; ok {
		return repo.populate(*rec), nil
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) UpdateRecord(_ context.Context, id string, status, remarks *string) (attendance.Record, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	rec, ok := repo.db.attendance[id]
	if !ok {
		return attendance.Record{}, attendance.ErrNotFound
	}
	if status != nil {
		rec.Status = *status
	}
	if remarks != nil {
		rec.Remarks = *remarks
	}
	return repo.populate(*rec), nil
}

func (repo *attendanceRepository) DeleteRecord(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.attendance[id]; !ok {
		return attendance.ErrNotFound
	}
	delete(repo.db.attendance, id)
	return nil
}

func (repo *attendanceRepository) FilterRecords(_ context.Context, filter attendance.Filter) ([]attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var records []attendance.Record
	for _, rec := range repo.db.attendance {
		if repo.matches(*rec, filter) {
			records = append(records, repo.populate(*rec))
		}
	}

	if filter.OrderByCreated {
		sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.After(records[j].CreatedAt) })
	} else {
		sort.Slice(records, func(i, j int) bool {
			if !records[i].Date.Equal(records[j].Date) {
				return records[i].Date.After(records[j].Date)
			}
			return records[i].CreatedAt.After(records[j].CreatedAt)
		})
	}
	if filter.Limit > 0 && len(records) > filter.Limit {
		records = records[:filter.Limit]
	}
	return records, nil
}

func (repo *attendanceRepository) StudentSummaries(_ context.Context, filter attendance.Filter) ([]attendance.StudentSummary, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	byStudent := make(map[string]*attendance.StudentSummary)
	for _, rec := range repo.db.attendance {
		if !repo.matches(*rec, filter) {
			continue
		}
		// records whose student has been deleted since are dropped
		std, ok := repo.db.students[rec.StudentID]
		if !ok {
			continue
		}

		sum, ok := byStudent[rec.StudentID]
		if !ok {
			sum = &attendance.StudentSummary{
				Student: attendance.StudentInfo{
					ID:        std.ID,
					StudentID: std.StudentID,
					Name:      std.Name,
					Class:     std.Class,
					Section:   std.Section,
				},
			}
			byStudent[rec.StudentID] = sum
		}
		switch rec.Status {
		case attendance.StatusPresent:
			sum.Present++
		case attendance.StatusAbsent:
			sum.Absent++
		}
		sum.Total++
	}

	var summaries []attendance.StudentSummary
	for _, sum := range byStudent {
		sum.PresentPercentage = core.Percentage(sum.Present, sum.Total)
		summaries = append(summaries, *sum)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Student.Name < summaries[j].Student.Name })
	return summaries, nil
}

func (repo *attendanceRepository) CountByStatus(_ context.Context, filter attendance.Filter) (present, absent, total int, err error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, rec := range repo.db.attendance {
		if !repo.matches(*rec, filter) {
			continue
		}
		switch rec.Status {
		case attendance.StatusPresent:
			present++
		case attendance.StatusAbsent:
			absent++
		}
		total++
	}
	return present, absent, total, nil
}
