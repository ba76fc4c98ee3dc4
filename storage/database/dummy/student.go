package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/mahudhurio/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

// populate resolves the assigned teacher soft reference, when it still does.
func (repo *studentRepository) populate(std student.Student) student.Student {
	if std.AssignedTeacher != "" {
		if usr, ok := repo.db.users[std.AssignedTeacher]; ok {
			std.Teacher = &student.TeacherInfo{
				ID:      usr.ID,
				Name:    usr.Name,
				Email:   usr.Email,
				Subject: usr.Subject,
			}
		}
	}
	return std
}

func (repo *studentRepository) query() []student.Student {
	students := make([]student.Student, 0, len(repo.db.students))
	for _, std := range repo.db.students {
		students = append(students, repo.populate(*std))
	}
	sort.Slice(students, func(i, j int) bool { return students[i].CreatedAt.After(students[j].CreatedAt) })
	return students
}

func (repo *studentRepository) CheckUniqueness(_ context.Context, studentID, email string, excludedStudents ...student.Student) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, std := range repo.db.students {
		if isExcludedStudent(*std, excludedStudents) {
			continue
		}
		if std.StudentID == studentID || strings.EqualFold(std.Email, email) {
			return student.ErrExists
		}
	}
	return nil
}

func (repo *studentRepository) CreateStudent(_ context.Context, std student.Student) (student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	std.ID = uuid.New().String()
	repo.db.students[std.ID] = &std
	return repo.populate(std), nil
}

func (repo *studentRepository) GetStudentByID(_ context.Context, id string) (student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if std, ok := repo.db.students[id]; ok {
		return repo.populate(*std), nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) FilterStudents(_ context.Context, filter student.QueryFilter) ([]student.Student, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	students := repo.query()

	// students with search keyword matching any Name, Email or StudentID ?
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		var filtered []student.Student
		for _, std := range students {
			if strings.Contains(strings.ToLower(std.Name), search) ||
				strings.Contains(strings.ToLower(std.Email), search) ||
				strings.Contains(strings.ToLower(std.StudentID), search) {
				filtered = append(filtered, std)
			}
		}
		students = filtered
	}
	if filter.Class != "" {
		class := strings.ToLower(filter.Class)
		var filtered []student.Student
		for _, std := range students {
			if strings.Contains(strings.ToLower(std.Class), class) {
				filtered = append(filtered, std)
			}
		}
		students = filtered
	}

	total := len(students)
	start, end := pageBounds(total, filter.Page, filter.Limit)
	return students[start:end], total, nil
}

func (repo *studentRepository) StudentsByTeacher(_ context.Context, teacherID string) ([]student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var students []student.Student
	for _, std := range repo.db.students {
		if std.AssignedTeacher == teacherID {
			students = append(students, repo.populate(*std))
		}
	}
	sort.Slice(students, func(i, j int) bool {
		if students[i].Class != students[j].Class {
			return students[i].Class < students[j].Class
		}
		return students[i].RollNumber < students[j].RollNumber
	})
	return students, nil
}

func (repo *studentRepository) CountStudents(_ context.Context) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return len(repo.db.students), nil
}

func (repo *studentRepository) ClassDistribution(_ context.Context, teacherID string) ([]student.ClassCount, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	counts := make(map[string]int)
	for _, std := range repo.db.students {
		if teacherID != "" && std.AssignedTeacher != teacherID {
			continue
		}
		counts[std.Class]++
	}

	distribution := make([]student.ClassCount, 0, len(counts))
	for class, count := range counts {
		distribution = append(distribution, student.ClassCount{Class: class, Count: count})
	}
	sort.Slice(distribution, func(i, j int) bool { return distribution[i].Class < distribution[j].Class })
	return distribution, nil
}

func (repo *studentRepository) UpdateStudent(_ context.Context, std student.Student) (student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	// only save set fields
	origStd, ok := repo.db.students[std.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	if std.StudentID != "" {
		origStd.StudentID = std.StudentID
	}
	if std.Name != "" {
		origStd.Name = std.Name
	}
	if std.Email != "" {
		origStd.Email = std.Email
	}
	if std.Phone != "" {
		origStd.Phone = std.Phone
	}
	if std.Class != "" {
		origStd.Class = std.Class
	}
	if std.Section != "" {
		origStd.Section = std.Section
	}
	if std.RollNumber != "" {
		origStd.RollNumber = std.RollNumber
	}
	if std.AssignedTeacher != "" {
		origStd.AssignedTeacher = std.AssignedTeacher
	}
	if std.DateOfBirth != nil {
		origStd.DateOfBirth = std.DateOfBirth
	}
	if std.Address != "" {
		origStd.Address = std.Address
	}
	if std.ParentName != "" {
		origStd.ParentName = std.ParentName
	}
	if std.ParentPhone != "" {
		origStd.ParentPhone = std.ParentPhone
	}
	if !std.UpdatedAt.IsZero() {
		origStd.UpdatedAt = std.UpdatedAt
	}

	repo.db.students[std.ID] = origStd
	return repo.populate(*origStd), nil
}

func (repo *studentRepository) DeleteStudentsByID(_ context.Context, ids ...string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	for _, id := range ids {
		delete(repo.db.students, id)
	}
	return nil
}

func isExcludedStudent(std student.Student, excludedStudents []student.Student) bool {
	for _, excl := range excludedStudents {
		if excl.ID == std.ID {
			return true
		}
	}
	return false
}
