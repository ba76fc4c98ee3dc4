package student

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound = errors.New("student not found")
	ErrExists   = errors.New("a student with this email or student ID already exists")
)

type (
	Repository interface {
		// CheckUniqueness returns ErrExists when another student (excluded ones
		// aside) already owns the studentID or the email.
		CheckUniqueness(ctx context.Context, studentID, email string, excludedStudents ...Student) error
		CreateStudent(ctx context.Context, std Student) (Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		// FilterStudents applies an AND operation on available QueryFilter fields
		// and returns the matching page along with the unpaged total.
		FilterStudents(ctx context.Context, filter QueryFilter) ([]Student, int, error)
		// StudentsByTeacher returns a teacher's roster sorted by class then roll number.
		StudentsByTeacher(ctx context.Context, teacherID string) ([]Student, error)
		CountStudents(ctx context.Context) (int, error)
		// ClassDistribution groups students per class label, sorted by class;
		// a non-empty teacherID scopes the count to that teacher's roster.
		ClassDistribution(ctx context.Context, teacherID string) ([]ClassCount, error)
		UpdateStudent(ctx context.Context, std Student) (Student, error)
		DeleteStudentsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkUniqueness(ctx context.Context, studentID, email string, excl ...Student) error {
	if err := svc.repo.CheckUniqueness(ctx, studentID, email, excl...); err != nil {
		if errors.Cause(err) == ErrExists {
			return core.NewValidationError(err)
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	ns.Clean()
	if err := svc.checkUniqueness(ctx, ns.StudentID, ns.Email); err != nil {
		return Student{}, err
	}

	now := NowFunc().UTC()
	std := Student{
		StudentID:       ns.StudentID,
		Name:            ns.Name,
		Email:           ns.Email,
		Phone:           ns.Phone,
		Class:           ns.Class,
		Section:         ns.Section,
		RollNumber:      ns.RollNumber,
		AssignedTeacher: ns.AssignedTeacher,
		Address:         ns.Address,
		ParentName:      ns.ParentName,
		ParentPhone:     ns.ParentPhone,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if ns.DateOfBirth != "" {
		dob, err := time.Parse(core.DateFormat, ns.DateOfBirth)
		if err != nil {
			return Student{}, core.NewValidationError(
				nil, core.FieldError{Field: "date_of_birth", Error: "invalid date"})
		}
		std.DateOfBirth = &dob
	}
	return svc.repo.CreateStudent(ctx, std)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Student, int, error) {
	filter.Clean()
	return svc.repo.FilterStudents(ctx, filter)
}

func (svc *Service) ByTeacher(ctx context.Context, teacherID string) ([]Student, error) {
	return svc.repo.StudentsByTeacher(ctx, teacherID)
}

func (svc *Service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountStudents(ctx)
}

func (svc *Service) ClassDistribution(ctx context.Context, teacherID string) ([]ClassCount, error) {
	return svc.repo.ClassDistribution(ctx, teacherID)
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	us.Clean()
	std, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if (us.StudentID != "" && us.StudentID != std.StudentID) ||
		(us.Email != "" && us.Email != std.Email) {
		sid, email := us.StudentID, us.Email
		if sid == "" {
			sid = std.StudentID
		}
		if email == "" {
			email = std.Email
		}
		if err = svc.checkUniqueness(ctx, sid, email, std); err != nil {
			return Student{}, err
		}
	}

	upd := Student{
		ID:              id,
		StudentID:       us.StudentID,
		Name:            us.Name,
		Email:           us.Email,
		Phone:           us.Phone,
		Class:           us.Class,
		Section:         us.Section,
		RollNumber:      us.RollNumber,
		AssignedTeacher: us.AssignedTeacher,
		Address:         us.Address,
		ParentName:      us.ParentName,
		ParentPhone:     us.ParentPhone,
		UpdatedAt:       NowFunc().UTC(),
	}
	if us.DateOfBirth != "" {
		dob, err := time.Parse(core.DateFormat, us.DateOfBirth)
		if err != nil {
			return Student{}, core.NewValidationError(
				nil, core.FieldError{Field: "date_of_birth", Error: "invalid date"})
		}
		upd.DateOfBirth = &dob
	}
	return svc.repo.UpdateStudent(ctx, upd)
}

// Delete removes students for good. Historical attendance records referencing
// them are kept as-is, with a dangling student reference.
func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteStudentsByID(ctx, ids...)
}
