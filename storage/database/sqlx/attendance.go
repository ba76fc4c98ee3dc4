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

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

type attendanceRow struct {
	ID        string    `db:"id"`
	StudentID string    `db:"student_id"`
	TeacherID string    `db:"teacher_id"`
	Date      time.Time `db:"date"`
	Status    string    `db:"status"`
	Remarks   string    `db:"remarks"`
	CreatedAt time.Time `db:"created_at"`

	// populated soft references, when they still resolve
	StudentCode    null.String `db:"student_code"`
	StudentName    null.String `db:"student_name"`
	StudentClass   null.String `db:"student_class"`
	StudentSection null.String `db:"student_section"`
	TeacherName    null.String `db:"teacher_name"`
	TeacherEmail   null.String `db:"teacher_email"`
}

func (row attendanceRow) unpack() attendance.Record {
	rec := attendance.Record{
		ID:        row.ID,
		StudentID: row.StudentID,
		TeacherID: row.TeacherID,
		Date:      core.BeginningOfDay(row.Date),
		Status:    row.Status,
		Remarks:   row.Remarks,
		CreatedAt: row.CreatedAt.UTC(),
	}
	if row.StudentName.Valid {
		rec.Student = &attendance.StudentInfo{
			ID:        row.StudentID,
			StudentID: row.StudentCode.String,
			Name:      row.StudentName.String,
			Class:     row.StudentClass.String,
			Section:   row.StudentSection.String,
		}
	}
	if row.TeacherName.Valid {
		rec.Teacher = &attendance.TeacherInfo{
			ID:    row.TeacherID,
			Name:  row.TeacherName.String,
			Email: row.TeacherEmail.String,
		}
	}
	return rec
}

const attendanceSelect = `
	SELECT a.id, a.student_id, a.teacher_id, a.date, a.status, a.remarks, a.created_at,
		s.student_id AS student_code, s.name AS student_name, s.class AS student_class, s.section AS student_section,
		u.name AS teacher_name, u.email AS teacher_email
	FROM attendance a
	LEFT JOIN students s ON s.id = a.student_id
	LEFT JOIN users u ON u.id = a.teacher_id`

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	rec.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO attendance (id, student_id, teacher_id, date, status, remarks, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rec.ID, rec.StudentID, rec.TeacherID, rec.Date, rec.Status, rec.Remarks, rec.CreatedAt.UTC())
	if err != nil {
		// the unique (student_id, date) index is the duplicate detection;
		// a prior existence check would race with concurrent markings
		if isUniqueViolation(err, "attendance_student_date_key") {
			return attendance.Record{}, attendance.ErrAlreadyMarked
		}
		return attendance.Record{}, errors.Wrap(err, "inserting record")
	}
	return rec, nil
}

func (repo *attendanceRepository) UpsertRecord(ctx context.Context, rec attendance.Record) (attendance.Record, bool, error) {
	var id string
	var createdAt time.Time
	var inserted bool
	err := repo.db.QueryRowContext(ctx, `
		INSERT INTO attendance (id, student_id, teacher_id, date, status, remarks, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (student_id, date) DO UPDATE
		SET status = EXCLUDED.status, remarks = EXCLUDED.remarks, teacher_id = EXCLUDED.teacher_id
		RETURNING id, created_at, (xmax = 0) AS inserted
	`, uuid.New().String(), rec.StudentID, rec.TeacherID, rec.Date, rec.Status, rec.Remarks, rec.CreatedAt.UTC()).
		Scan(&id, &createdAt, &inserted)
	if err != nil {
		return attendance.Record{}, false, errors.Wrap(err, "upserting record")
	}
	rec.ID = id
	rec.CreatedAt = createdAt.UTC()
	return rec, inserted, nil
}

func (repo *attendanceRepository) GetRecordByID(ctx context.Context, id string) (attendance.Record, error) {
	var row attendanceRow
	err := repo.db.GetContext(ctx, &row, attendanceSelect+` WHERE a.id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return attendance.Record{}, attendance.ErrNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "getting record by id")
	}
	return row.unpack(), nil
}

func (repo *attendanceRepository) UpdateRecord(ctx context.Context, id string, status, remarks *string) (attendance.Record, error) {
	var sets []string
	var args []interface{}
	if status != nil {
		args = append(args, *status)
		sets = append(sets, "status = $"+strconv.Itoa(len(args)))
	}
	if remarks != nil {
		args = append(args, *remarks)
		sets = append(sets, "remarks = $"+strconv.Itoa(len(args)))
	}
	if len(sets) == 0 {
		return repo.GetRecordByID(ctx, id)
	}

	args = append(args, id)
	query := `UPDATE attendance SET ` + strings.Join(sets, ", ") + ` WHERE id = $` + strconv.Itoa(len(args))

	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "updating record")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return attendance.Record{}, attendance.ErrNotFound
	}
	return repo.GetRecordByID(ctx, id)
}

func (repo *attendanceRepository) DeleteRecord(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM attendance WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting record")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return attendance.ErrNotFound
	}
	return nil
}

// filterClauses translates the common Filter fields to WHERE clauses.
func filterClauses(filter attendance.Filter) ([]string, []interface{}) {
	var clauses []string
	var args []interface{}
	where := func(clause string, val interface{}) {
		args = append(args, val)
		clauses = append(clauses, strings.Replace(clause, "?", "$"+strconv.Itoa(len(args)), 1))
	}

	if !filter.From.IsZero() {
		where(`a.date >= ?`, filter.From)
	}
	if !filter.To.IsZero() {
		where(`a.date < ?`, filter.To)
	}
	if filter.TeacherID != "" {
		where(`a.teacher_id = ?`, filter.TeacherID)
	}
	if filter.StudentID != "" {
		where(`a.student_id = ?`, filter.StudentID)
	}
	if filter.StudentIDs != nil {
		where(`a.student_id = ANY(?)`, pq.Array(filter.StudentIDs))
	}
	if filter.Class != "" {
		where(`s.class ILIKE ?`, "%"+filter.Class+"%")
	}
	return clauses, args
}

func (repo *attendanceRepository) FilterRecords(ctx context.Context, filter attendance.Filter) ([]attendance.Record, error) {
	clauses, args := filterClauses(filter)

	query := attendanceSelect
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	if filter.OrderByCreated {
		query += ` ORDER BY a.created_at DESC`
	} else {
		query += ` ORDER BY a.date DESC, a.created_at DESC`
	}
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	var rows []attendanceRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering records")
	}
	records := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.unpack())
	}
	return records, nil
}

func (repo *attendanceRepository) StudentSummaries(ctx context.Context, filter attendance.Filter) ([]attendance.StudentSummary, error) {
	clauses, args := filterClauses(filter)

	// the join drops records whose student has been deleted since
	query := `
		SELECT s.id, s.student_id AS student_code, s.name, s.class, COALESCE(s.section, '') AS section,
			SUM(CASE WHEN a.status = 'present' THEN 1 ELSE 0 END) AS present,
			SUM(CASE WHEN a.status = 'absent' THEN 1 ELSE 0 END) AS absent,
			COUNT(*) AS total
		FROM attendance a
		JOIN students s ON s.id = a.student_id`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += `
		GROUP BY s.id, s.student_id, s.name, s.class, s.section
		ORDER BY s.name ASC`

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "summarizing records")
	}
	defer rows.Close()

	var summaries []attendance.StudentSummary
	for rows.Next() {
		var sum attendance.StudentSummary
		if err = rows.Scan(&sum.Student.ID, &sum.Student.StudentID, &sum.Student.Name,
			&sum.Student.Class, &sum.Student.Section, &sum.Present, &sum.Absent, &sum.Total); err != nil {
			return nil, errors.Wrap(err, "scanning summary")
		}
		sum.PresentPercentage = core.Percentage(sum.Present, sum.Total)
		summaries = append(summaries, sum)
	}
	return summaries, errors.Wrap(rows.Err(), "summarizing records")
}

func (repo *attendanceRepository) CountByStatus(ctx context.Context, filter attendance.Filter) (present, absent, total int, err error) {
	clauses, args := filterClauses(filter)

	query := `
		SELECT COALESCE(SUM(CASE WHEN a.status = 'present' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN a.status = 'absent' THEN 1 ELSE 0 END), 0),
			COUNT(*)
		FROM attendance a`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}

	if err = repo.db.QueryRowContext(ctx, query, args...).Scan(&present, &absent, &total); err != nil {
		return 0, 0, 0, errors.Wrap(err, "counting records")
	}
	return present, absent, total, nil
}
