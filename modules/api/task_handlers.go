package api

import (
	"strings"

	domain "github.com/example/todo-app/domain/task"
	"github.com/example/todo-app/modules/task"
	"github.com/gofiber/fiber/v2"
)

// ListTasks handles GET /tasks with filter, sort and pagination query parameters.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	req := task.ListTasksRequest{
		UserID:   currentUserID(c),
		Filter:   domain.ParseFilter(c.Queries()),
		SortBy:   c.Query("sort_by"),
		SortDir:  c.Query("sort_dir"),
		Page:     c.QueryInt("page", 0),
		Size:     c.QueryInt("size", task.DefaultPageSize),
		TimeZone: h.timeZone(c),
	}

	resp, err := h.tasks.ListTasks(c.UserContext(), &req)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(resp)
}

// CreateTask handles POST /tasks.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	var req task.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req.UserID = currentUserID(c)

	resp, err := h.tasks.CreateTask(c.UserContext(), &req)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// GetTask handles GET /tasks/:id.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	resp, err := h.tasks.GetTask(c.UserContext(), currentUserID(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(resp)
}

// UpdateTask handles PUT /tasks/:id.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	var req task.UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req.UserID = currentUserID(c)
	req.TaskID = c.Params("id")

	resp, err := h.tasks.UpdateTask(c.UserContext(), &req)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(resp)
}

// UpdateTaskStatus handles PATCH /tasks/:id/status.
func (h *Handlers) UpdateTaskStatus(c *fiber.Ctx) error {
	var body StatusRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}

	req := task.UpdateStatusRequest{
		UserID: currentUserID(c),
		TaskID: c.Params("id"),
		Status: body.Status,
	}
	resp, err := h.tasks.UpdateTaskStatus(c.UserContext(), &req)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(resp)
}

// DeleteTask handles DELETE /tasks/:id.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	if err := h.tasks.DeleteTask(c.UserContext(), currentUserID(c), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// BulkTasks handles POST /tasks/bulk.
func (h *Handlers) BulkTasks(c *fiber.Ctx) error {
	var req task.BulkRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req.UserID = currentUserID(c)

	resp, err := h.tasks.BulkTasks(c.UserContext(), &req)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(resp)
}

// ExportTasks handles GET /tasks/export as a JSON attachment.
func (h *Handlers) ExportTasks(c *fiber.Ctx) error {
	req := task.ExportRequest{
		UserID: currentUserID(c),
		Format: strings.ToLower(c.Query("format", "json")),
	}

	doc, err := h.tasks.ExportTasks(c.UserContext(), &req)
	if err != nil {
		return handleServiceError(c, err)
	}
	c.Attachment("tasks-export.json")
	return c.JSON(doc)
}

// ImportTasks handles POST /tasks/import. The body is an export document.
func (h *Handlers) ImportTasks(c *fiber.Ctx) error {
	var doc task.ExportDocument
	if err := c.BodyParser(&doc); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if len(doc.Tasks) == 0 {
		return badRequest(c, "No tasks to import")
	}

	req := task.ImportRequest{UserID: currentUserID(c), Tasks: doc.Tasks}
	resp, err := h.tasks.ImportTasks(c.UserContext(), &req)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(resp)
}

// Statistics handles GET /dashboard/statistics.
func (h *Handlers) Statistics(c *fiber.Ctx) error {
	stats, err := h.tasks.GetStatistics(c.UserContext(), currentUserID(c), h.timeZone(c))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(stats)
}

// DashboardView returns the handler of one dashboard task list.
func (h *Handlers) DashboardView(view string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := task.DashboardRequest{
			UserID:   currentUserID(c),
			TimeZone: h.timeZone(c),
			View:     view,
		}
		resp, err := h.tasks.GetDashboardTasks(c.UserContext(), &req)
		if err != nil {
			return handleServiceError(c, err)
		}
		return c.JSON(resp)
	}
}

// Activity handles GET /dashboard/activity.
func (h *Handlers) Activity(c *fiber.Ctx) error {
	resp, err := h.tasks.GetActivity(c.UserContext(), currentUserID(c))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(resp)
}
