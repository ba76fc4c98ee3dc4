package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/student"
)

type studentApi struct {
	svc      *student.Service
	validate *validator.Validate
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := studentApi{
		svc:      deps.StudentSvc,
		validate: deps.Validate,
	}

	sg := g.Group("/students", jwt)
	sg.GET("", api.query, teacherOrAdminMiddleware())
	sg.POST("", api.create, adminMiddleware())
	sg.GET("/teacher/:teacherId", api.byTeacher, selfTeacherOrAdminMiddleware())

	dg := sg.Group("/:id", adminMiddleware())
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

// Handlers

func (api *studentApi) query(ctx echo.Context) error {
	filter := new(student.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()

	students, total, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return jsonOK(ctx, http.StatusOK, echo.Map{
		"count":    len(students),
		"total":    total,
		"pages":    (total + filter.Limit - 1) / filter.Limit,
		"students": students,
	})
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	std, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return jsonOK(ctx, http.StatusCreated, echo.Map{"student": std})
}

func (api *studentApi) byTeacher(ctx echo.Context) error {
	students, err := api.svc.ByTeacher(ctx.Request().Context(), ctx.Param("teacherId"))
	if err != nil {
		return errors.Wrap(err, "querying roster")
	}
	if students == nil {
		students = []student.Student{}
	}
	return jsonOK(ctx, http.StatusOK, echo.Map{"count": len(students), "students": students})
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	std, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding student by ID")
	}
	return jsonOK(ctx, http.StatusOK, echo.Map{"student": std})
}

func (api *studentApi) update(ctx echo.Context) error {
	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	std, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return jsonOK(ctx, http.StatusOK, echo.Map{"student": std})
}

// destroy removes the student; their attendance history is kept with a
// dangling reference.
func (api *studentApi) destroy(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	if _, err := api.svc.GetByID(rctx, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "finding student by ID")
	}
	if err := api.svc.Delete(rctx, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return jsonOK(ctx, http.StatusOK, echo.Map{"message": "student deleted"})
}
