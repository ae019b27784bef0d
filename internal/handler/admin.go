package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"GeoAttend/internal/model/dto"
	"GeoAttend/internal/service"
	"GeoAttend/pkg/response"
)

// ========== 地点 ==========

// CreateLocation POST /v1/admin/locations
func CreateLocation(ctx context.Context, c *app.RequestContext) {
	var req dto.LocationRequest
	if !bindAndValidate(ctx, c, &req) {
		return
	}

	item, err := service.Location().Create(ctx, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Created(ctx, c, item)
}

// UpdateLocation PUT /v1/admin/locations/:id
func UpdateLocation(ctx context.Context, c *app.RequestContext) {
	id, ok := pathID(ctx, c, "id")
	if !ok {
		return
	}

	var req dto.LocationRequest
	if !bindAndValidate(ctx, c, &req) {
		return
	}

	item, err := service.Location().Update(ctx, id, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, item)
}

// ListLocations GET /v1/admin/locations
func ListLocations(ctx context.Context, c *app.RequestContext) {
	items, err := service.Location().List(ctx)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, items)
}

// ========== 课程 ==========

// CreateCourse POST /v1/admin/courses
func CreateCourse(ctx context.Context, c *app.RequestContext) {
	var req dto.CreateCourseRequest
	if !bindAndValidate(ctx, c, &req) {
		return
	}

	item, err := service.Course().Create(ctx, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Created(ctx, c, item)
}

// ListCourses GET /v1/admin/courses
func ListCourses(ctx context.Context, c *app.RequestContext) {
	items, err := service.Course().List(ctx)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, items)
}

// ========== 班级 ==========

// CreateClass POST /v1/admin/classes
func CreateClass(ctx context.Context, c *app.RequestContext) {
	var req dto.CreateClassRequest
	if !bindAndValidate(ctx, c, &req) {
		return
	}

	item, err := service.Class().Create(ctx, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Created(ctx, c, item)
}

// ListClasses GET /v1/admin/classes
func ListClasses(ctx context.Context, c *app.RequestContext) {
	items, err := service.Class().List(ctx)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, items)
}

// AddClassMembers POST /v1/admin/classes/:id/members
func AddClassMembers(ctx context.Context, c *app.RequestContext) {
	classID, ok := pathID(ctx, c, "id")
	if !ok {
		return
	}

	var req dto.AddClassMembersRequest
	if !bindAndValidate(ctx, c, &req) {
		return
	}

	result, err := service.Class().AddMembers(ctx, classID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, result)
}

// ========== 课程安排 ==========

// CreateSchedule POST /v1/admin/schedules
func CreateSchedule(ctx context.Context, c *app.RequestContext) {
	var req dto.CreateScheduleRequest
	if !bindAndValidate(ctx, c, &req) {
		return
	}

	item, err := service.Schedule().Create(ctx, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Created(ctx, c, item)
}

// ListSchedules GET /v1/admin/schedules?date=YYYY-MM-DD
func ListSchedules(ctx context.Context, c *app.RequestContext) {
	var q dto.ScheduleQuery
	if err := c.BindQuery(&q); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Schedule().List(ctx, q)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.SuccessWithMeta(ctx, c, result.Items, map[string]interface{}{
		"current_page": result.Meta.CurrentPage,
		"last_page":    result.Meta.LastPage,
		"per_page":     result.Meta.PerPage,
		"total":        result.Meta.Total,
	})
}

// ========== 用户 ==========

// CreateUser POST /v1/admin/users
func CreateUser(ctx context.Context, c *app.RequestContext) {
	var req dto.CreateUserRequest
	if !bindAndValidate(ctx, c, &req) {
		return
	}

	user, err := service.User().CreateUser(ctx, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Created(ctx, c, user)
}

// ========== 报表 ==========

// GetAttendanceReport GET /v1/admin/reports/attendance?start_date=&end_date=&schedule_id=
func GetAttendanceReport(ctx context.Context, c *app.RequestContext) {
	var q dto.ReportQuery
	if err := c.BindQuery(&q); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	items, err := service.Attendance().Report(ctx, q)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.SuccessWithMeta(ctx, c, items, map[string]interface{}{"total": len(items)})
}

// GetAttendanceSummary GET /v1/admin/reports/summary?schedule_id=
func GetAttendanceSummary(ctx context.Context, c *app.RequestContext) {
	summary, err := service.Attendance().Summary(ctx, c.Query("schedule_id"))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, summary)
}
