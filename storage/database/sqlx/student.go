package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core/student"
)

type studentRow struct {
	ID              string      `db:"id"`
	StudentID       string      `db:"student_id"`
	Name            string      `db:"name"`
	Email           string      `db:"email"`
	Phone           null.String `db:"phone"`
	Class           string      `db:"class"`
	Section         null.String `db:"section"`
	RollNumber      null.String `db:"roll_number"`
	AssignedTeacher null.String `db:"assigned_teacher"`
	DateOfBirth     null.Time   `db:"date_of_birth"`
	Address         null.String `db:"address"`
	ParentName      null.String `db:"parent_name"`
	ParentPhone     null.String `db:"parent_phone"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`

	// populated assigned teacher, when joined and resolvable
	TeacherName    null.String `db:"teacher_name"`
	TeacherEmail   null.String `db:"teacher_email"`
	TeacherSubject null.String `db:"teacher_subject"`
}

func (row studentRow) unpack() student.Student {
	std := student.Student{
		ID:              row.ID,
		StudentID:       row.StudentID,
		Name:            row.Name,
		Email:           row.Email,
		Phone:           row.Phone.String,
		Class:           row.Class,
		Section:         row.Section.String,
		RollNumber:      row.RollNumber.String,
		AssignedTeacher: row.AssignedTeacher.String,
		Address:         row.Address.String,
		ParentName:      row.ParentName.String,
		ParentPhone:     row.ParentPhone.String,
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
	if row.DateOfBirth.Valid {
		dob := row.DateOfBirth.Time
		std.DateOfBirth = &dob
	}
	if row.TeacherName.Valid {
		std.Teacher = &student.TeacherInfo{
			ID:      row.AssignedTeacher.String,
			Name:    row.TeacherName.String,
			Email:   row.TeacherEmail.String,
			Subject: row.TeacherSubject.String,
		}
	}
	return std
}

const studentColumns = `s.id, s.student_id, s.name, s.email, s.phone, s.class, s.section, s.roll_number,
	s.assigned_teacher, s.date_of_birth, s.address, s.parent_name, s.parent_phone, s.created_at, s.updated_at`

const studentSelect = `
	SELECT ` + studentColumns + `,
		u.name AS teacher_name, u.email AS teacher_email, u.subject AS teacher_subject
	FROM students s
	LEFT JOIN users u ON u.id = s.assigned_teacher`

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CheckUniqueness(ctx context.Context, studentID, email string, excludedStudents ...student.Student) error {
	query := `SELECT EXISTS (SELECT 1 FROM students WHERE (student_id = $1 OR LOWER(email) = LOWER($2))`
	args := []interface{}{studentID, email}
	if len(excludedStudents) > 0 {
		ids := make([]string, 0, len(excludedStudents))
		for _, s := range excludedStudents {
			ids = append(ids, s.ID)
		}
		query += ` AND id != ALL($3)`
		args = append(args, pq.Array(ids))
	}
	query += `)`

	var exists bool
	if err := repo.db.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return errors.Wrap(err, "checking student uniqueness")
	}
	if exists {
		return student.ErrExists
	}
	return nil
}

func (repo *studentRepository) CreateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	std.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO students (id, student_id, name, email, phone, class, section, roll_number,
			assigned_teacher, date_of_birth, address, parent_name, parent_phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, std.ID, std.StudentID, std.Name, std.Email,
		null.NewString(std.Phone, std.Phone != ""), std.Class,
		null.NewString(std.Section, std.Section != ""),
		null.NewString(std.RollNumber, std.RollNumber != ""),
		null.NewString(std.AssignedTeacher, std.AssignedTeacher != ""),
		null.TimeFromPtr(std.DateOfBirth),
		null.NewString(std.Address, std.Address != ""),
		null.NewString(std.ParentName, std.ParentName != ""),
		null.NewString(std.ParentPhone, std.ParentPhone != ""),
		std.CreatedAt.UTC(), std.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return student.Student{}, student.ErrExists
		}
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return std, nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	var row studentRow
	err := repo.db.GetContext(ctx, &row, studentSelect+` WHERE s.id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "getting student by id")
	}
	return row.unpack(), nil
}

func (repo *studentRepository) FilterStudents(ctx context.Context, filter student.QueryFilter) ([]student.Student, int, error) {
	var clauses []string
	var args []interface{}

	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		args = append(args, val)
		n := strconv.Itoa(len(args))
		clauses = append(clauses, `(s.name ILIKE $`+n+` OR s.email ILIKE $`+n+` OR s.student_id ILIKE $`+n+`)`)
	}
	if filter.Class != "" {
		args = append(args, "%"+filter.Class+"%")
		clauses = append(clauses, `s.class ILIKE $`+strconv.Itoa(len(args)))
	}
	where := ""
	if len(clauses) > 0 {
		where = ` WHERE ` + strings.Join(clauses, " AND ")
	}

	var total int
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students s`+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "counting students")
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := studentSelect + where +
		` ORDER BY s.created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, errors.Wrap(err, "filtering students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.unpack())
	}
	return students, total, nil
}

func (repo *studentRepository) StudentsByTeacher(ctx context.Context, teacherID string) ([]student.Student, error) {
	var rows []studentRow
	err := repo.db.SelectContext(ctx, &rows,
		studentSelect+` WHERE s.assigned_teacher = $1 ORDER BY s.class ASC, s.roll_number ASC`, teacherID)
	if err != nil {
		return nil, errors.Wrap(err, "getting students by teacher")
	}
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.unpack())
	}
	return students, nil
}

func (repo *studentRepository) CountStudents(ctx context.Context) (int, error) {
	var count int
	err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students`).Scan(&count)
	return count, errors.Wrap(err, "counting students")
}

func (repo *studentRepository) ClassDistribution(ctx context.Context, teacherID string) ([]student.ClassCount, error) {
	query := `SELECT class, COUNT(*) AS count FROM students`
	var args []interface{}
	if teacherID != "" {
		query += ` WHERE assigned_teacher = $1`
		args = append(args, teacherID)
	}
	query += ` GROUP BY class ORDER BY class ASC`

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "grouping classes")
	}
	defer rows.Close()

	var counts []student.ClassCount
	for rows.Next() {
		var cc student.ClassCount
		if err = rows.Scan(&cc.Class, &cc.Count); err != nil {
			return nil, errors.Wrap(err, "scanning class count")
		}
		counts = append(counts, cc)
	}
	return counts, errors.Wrap(rows.Err(), "grouping classes")
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	var sets []string
	var args []interface{}
	set := func(col string, val interface{}) {
		args = append(args, val)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}

	if std.StudentID != "" {
		set("student_id", std.StudentID)
	}
	if std.Name != "" {
		set("name", std.Name)
	}
	if std.Email != "" {
		set("email", std.Email)
	}
	if std.Phone != "" {
		set("phone", std.Phone)
	}
	if std.Class != "" {
		set("class", std.Class)
	}
	if std.Section != "" {
		set("section", std.Section)
	}
	if std.RollNumber != "" {
		set("roll_number", std.RollNumber)
	}
	if std.AssignedTeacher != "" {
		set("assigned_teacher", std.AssignedTeacher)
	}
	if std.DateOfBirth != nil {
		set("date_of_birth", *std.DateOfBirth)
	}
	if std.Address != "" {
		set("address", std.Address)
	}
	if std.ParentName != "" {
		set("parent_name", std.ParentName)
	}
	if std.ParentPhone != "" {
		set("parent_phone", std.ParentPhone)
	}
	if !std.UpdatedAt.IsZero() {
		set("updated_at", std.UpdatedAt.UTC())
	}
	if len(sets) == 0 {
		return repo.GetStudentByID(ctx, std.ID)
	}

	args = append(args, std.ID)
	query := `UPDATE students SET ` + strings.Join(sets, ", ") + ` WHERE id = $` + strconv.Itoa(len(args))

	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return student.Student{}, student.ErrExists
		}
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return repo.GetStudentByID(ctx, std.ID)
}

func (repo *studentRepository) DeleteStudentsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM students WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return errors.Wrap(err, "deleting students")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.ErrNotFound
	}
	return nil
}
