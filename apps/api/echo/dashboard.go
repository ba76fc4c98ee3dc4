package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/dashboard"
)

type dashboardApi struct {
	svc *dashboard.Service
}

func registerDashboardAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := dashboardApi{svc: deps.DashboardSvc}

	dg := g.Group("/dashboard", jwt)
	dg.GET("/admin", api.admin, adminMiddleware())
	dg.GET("/teacher", api.teacher, teacherMiddleware())
}

// Handlers

func (api *dashboardApi) admin(ctx echo.Context) error {
	data, err := api.svc.AdminData(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "assembling admin dashboard")
	}
	return ctx.JSON(http.StatusOK, adminDashboardResponse{Success: true, AdminData: data})
}

func (api *dashboardApi) teacher(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	data, err := api.svc.TeacherData(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "assembling teacher dashboard")
	}
	return ctx.JSON(http.StatusOK, teacherDashboardResponse{Success: true, TeacherData: data})
}

type (
	adminDashboardResponse struct {
		Success bool `json:"success"`
		*dashboard.AdminData
	}

	teacherDashboardResponse struct {
		Success bool `json:"success"`
		*dashboard.TeacherData
	}
)
