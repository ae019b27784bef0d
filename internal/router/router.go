package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"GeoAttend/internal/handler"
	"GeoAttend/internal/middleware"
)

func Register(h *server.Hertz) {
	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.RequestIDMiddleware())
	h.Use(middleware.CORSMiddleware())
	h.Use(middleware.OpenTelemetryMiddleware())

	h.GET("/healthz", handler.Health)

	v1 := h.Group("/v1")

	// 登录
	public := v1.Group("", middleware.AuthRateLimitMiddleware())
	{
		public.POST("/login", handler.Login)
	}

	// 需要登录的路由
	authed := v1.Group("", middleware.AuthMiddleware())
	{
		authed.GET("/profile", handler.GetProfile)
		authed.POST("/attendance", middleware.SubmitRateLimitMiddleware(), handler.SubmitAttendance)
		authed.GET("/attendance/history", handler.GetAttendanceHistory)
		authed.GET("/schedules/today", handler.GetTodaySchedules)
	}

	// 管理员路由
	admin := v1.Group("/admin", middleware.AuthMiddleware(), middleware.AdminOnly())
	{
		admin.GET("/locations", handler.ListLocations)
		admin.POST("/locations", handler.CreateLocation)
		admin.PUT("/locations/:id", handler.UpdateLocation)

		admin.GET("/courses", handler.ListCourses)
		admin.POST("/courses", handler.CreateCourse)

		admin.GET("/classes", handler.ListClasses)
		admin.POST("/classes", handler.CreateClass)
		admin.POST("/classes/:id/members", handler.AddClassMembers)

		admin.GET("/schedules", handler.ListSchedules)
		admin.POST("/schedules", handler.CreateSchedule)

		admin.POST("/users", handler.CreateUser)

		admin.GET("/reports/attendance", handler.GetAttendanceReport)
		admin.GET("/reports/summary", handler.GetAttendanceSummary)
	}
}
