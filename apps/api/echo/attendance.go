package echoapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/student"
)

type attendanceApi struct {
	svc      *attendance.Service
	stdSvc   *student.Service
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := attendanceApi{
		svc:      deps.AttendanceSvc,
		stdSvc:   deps.StudentSvc,
		validate: deps.Validate,
	}

	ag := g.Group("/attendance", jwt)
	ag.POST("", api.markOne, teacherOrAdminMiddleware())
	ag.POST("/bulk", api.markBulk, teacherOrAdminMiddleware())
	ag.GET("/date/:date", api.byDate)
	ag.GET("/student/:studentId", api.byStudent)
	ag.GET("/summary/monthly", api.monthlySummary)
	ag.GET("/export/csv", api.exportCSV)
	ag.PUT("/:id", api.update, teacherOrAdminMiddleware())
	ag.DELETE("/:id", api.destroy, adminMiddleware())
}

// Handlers

func (api *attendanceApi) markOne(ctx echo.Context) error {
	var data attendance.NewRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRecord")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	rec, err := api.svc.MarkOne(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return jsonOK(ctx, http.StatusCreated, echo.Map{"attendance": rec})
}

func (api *attendanceApi) markBulk(ctx echo.Context) error {
	var data BulkRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BulkRequest")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	res, err := api.svc.MarkBulk(ctx.Request().Context(), data.Records, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "marking bulk attendance")
	}

	body := echo.Map{
		"message":  "bulk attendance marked",
		"modified": res.Modified,
		"upserted": res.Inserted,
	}
	if res.Errors != nil {
		body["errors"] = res.Errors
	}
	return jsonOK(ctx, http.StatusCreated, body)
}

func (api *attendanceApi) byDate(ctx echo.Context) error {
	date, err := core.ParseDate(ctx.Param("date"))
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "date", Error: "invalid date"})
	}

	records, recordMap, err := api.svc.ByDate(ctx.Request().Context(), date, ctx.QueryParam("teacherId"))
	if err != nil {
		return errors.Wrap(err, "querying records by date")
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return jsonOK(ctx, http.StatusOK, echo.Map{
		"count":          len(records),
		"attendance":     records,
		"attendance_map": recordMap,
	})
}

func (api *attendanceApi) byStudent(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	std, err := api.stdSvc.GetByID(rctx, ctx.Param("studentId"))
	if err != nil {
		return errors.Wrap(err, "finding student by ID")
	}

	var from, to time.Time
	if s := ctx.QueryParam("startDate"); s != "" {
		if from, err = core.ParseDate(s); err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "startDate", Error: "invalid date"})
		}
	}
	if s := ctx.QueryParam("endDate"); s != "" {
		if to, err = core.ParseDate(s); err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "endDate", Error: "invalid date"})
		}
	}

	records, summary, err := api.svc.ByStudent(rctx, std.ID, from, to)
	if err != nil {
		return errors.Wrap(err, "querying records by student")
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return jsonOK(ctx, http.StatusOK, echo.Map{
		"student":    std,
		"attendance": records,
		"summary":    summary,
	})
}

func (api *attendanceApi) monthlySummary(ctx echo.Context) error {
	month, _ := strconv.Atoi(ctx.QueryParam("month"))
	year, _ := strconv.Atoi(ctx.QueryParam("year"))

	summaries, err := api.svc.MonthlySummary(
		ctx.Request().Context(), month, year, ctx.QueryParam("teacherId"), ctx.QueryParam("class"))
	if err != nil {
		return errors.Wrap(err, "summarizing month")
	}
	if summaries == nil {
		summaries = []attendance.StudentSummary{}
	}
	return jsonOK(ctx, http.StatusOK, echo.Map{"count": len(summaries), "summary": summaries})
}

func (api *attendanceApi) exportCSV(ctx echo.Context) error {
	filter := attendance.Filter{
		TeacherID: ctx.QueryParam("teacherId"),
		StudentID: ctx.QueryParam("studentId"),
		Class:     ctx.QueryParam("class"),
	}

	filename := "attendance"
	month, _ := strconv.Atoi(ctx.QueryParam("month"))
	year, _ := strconv.Atoi(ctx.QueryParam("year"))
	switch {
	case month >= 1 && month <= 12 && year >= 1:
		filter.From, filter.To = core.MonthInterval(year, time.Month(month))
		filename = fmt.Sprintf("attendance-%d-%02d", year, month)
	default:
		var err error
		if s := ctx.QueryParam("startDate"); s != "" {
			if filter.From, err = core.ParseDate(s); err != nil {
				return core.NewValidationError(nil, core.FieldError{Field: "startDate", Error: "invalid date"})
			}
			filter.From = core.BeginningOfDay(filter.From)
		}
		if s := ctx.QueryParam("endDate"); s != "" {
			if filter.To, err = core.ParseDate(s); err != nil {
				return core.NewValidationError(nil, core.FieldError{Field: "endDate", Error: "invalid date"})
			}
			filter.To = core.NextDay(filter.To)
		}
	}

	csv, err := api.svc.ExportCSV(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "exporting records")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%s.csv", filename))
	return ctx.Blob(http.StatusOK, "text/csv", []byte(csv))
}

func (api *attendanceApi) update(ctx echo.Context) error {
	var data attendance.UpdateRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateRecord")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rec, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating record")
	}
	return jsonOK(ctx, http.StatusOK, echo.Map{"attendance": rec})
}

func (api *attendanceApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting record")
	}
	return jsonOK(ctx, http.StatusOK, echo.Map{"message": "attendance deleted"})
}

// BulkRequest carries the day's roster tuples for an idempotent re-submit.
type BulkRequest struct {
	Records []attendance.BulkEntry `json:"records"`
}
