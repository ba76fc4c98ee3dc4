package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/user"
)

// teacherApi is a role-scoped view over users; admins only.
type teacherApi struct {
	svc      *user.Service
	validate *validator.Validate
}

func registerTeacherAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := teacherApi{
		svc:      deps.UserSvc,
		validate: deps.Validate,
	}

	tg := g.Group("/teachers", jwt, adminMiddleware())
	tg.GET("", api.query)
	tg.POST("", api.create)

	dg := tg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

// Handlers

func (api *teacherApi) query(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Role = user.RoleTeacher
	filter.Clean()

	teachers, total, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	if teachers == nil {
		teachers = []user.User{}
	}
	return jsonOK(ctx, http.StatusOK, echo.Map{
		"count":    len(teachers),
		"total":    total,
		"pages":    (total + filter.Limit - 1) / filter.Limit,
		"teachers": teachers,
	})
}

func (api *teacherApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	// role is fixed by this endpoint, whatever the payload says
	data.Role = user.RoleTeacher
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	return jsonOK(ctx, http.StatusCreated, echo.Map{"teacher": usr})
}

func (api *teacherApi) getTeacher(ctx echo.Context) (user.User, error) {
	usr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return user.User{}, errors.Wrap(err, "finding teacher by ID")
	}
	if !usr.IsTeacher() {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (api *teacherApi) retrieve(ctx echo.Context) error {
	usr, err := api.getTeacher(ctx)
	if err != nil {
		return err
	}
	return jsonOK(ctx, http.StatusOK, echo.Map{"teacher": usr})
}

func (api *teacherApi) update(ctx echo.Context) error {
	if _, err := api.getTeacher(ctx); err != nil {
		return err
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return jsonOK(ctx, http.StatusOK, echo.Map{"teacher": usr})
}

// destroy removes the teacher; students keep their dangling assigned_teacher
// reference and attendance history is untouched.
func (api *teacherApi) destroy(ctx echo.Context) error {
	usr, err := api.getTeacher(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return jsonOK(ctx, http.StatusOK, echo.Map{"message": "teacher deleted"})
}
