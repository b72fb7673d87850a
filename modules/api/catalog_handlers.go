package api

import (
	"github.com/example/todo-app/modules/task"
	"github.com/gofiber/fiber/v2"
)

// ListCategories handles GET /categories.
func (h *Handlers) ListCategories(c *fiber.Ctx) error {
	resp, err := h.tasks.ListCategories(c.UserContext(), currentUserID(c))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(resp)
}

// CreateCategory handles POST /categories.
func (h *Handlers) CreateCategory(c *fiber.Ctx) error {
	var req task.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req.UserID = currentUserID(c)
	req.CategoryID = ""

	resp, err := h.tasks.CreateCategory(c.UserContext(), &req)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// UpdateCategory handles PUT /categories/:id.
func (h *Handlers) UpdateCategory(c *fiber.Ctx) error {
	var req task.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req.UserID = currentUserID(c)
	req.CategoryID = c.Params("id")

	resp, err := h.tasks.UpdateCategory(c.UserContext(), &req)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(resp)
}

// DeleteCategory handles DELETE /categories/:id. Its tasks stay, uncategorized.
func (h *Handlers) DeleteCategory(c *fiber.Ctx) error {
	if err := h.tasks.DeleteCategory(c.UserContext(), currentUserID(c), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListTags handles GET /tags.
func (h *Handlers) ListTags(c *fiber.Ctx) error {
	resp, err := h.tasks.ListTags(c.UserContext(), currentUserID(c))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(resp)
}

// CreateTag handles POST /tags.
func (h *Handlers) CreateTag(c *fiber.Ctx) error {
	var req task.TagRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req.UserID = currentUserID(c)
	req.TagID = ""

	resp, err := h.tasks.CreateTag(c.UserContext(), &req)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// UpdateTag handles PUT /tags/:id.
func (h *Handlers) UpdateTag(c *fiber.Ctx) error {
	var req task.TagRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req.UserID = currentUserID(c)
	req.TagID = c.Params("id")

	resp, err := h.tasks.UpdateTag(c.UserContext(), &req)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(resp)
}

// DeleteTag handles DELETE /tags/:id.
func (h *Handlers) DeleteTag(c *fiber.Ctx) error {
	if err := h.tasks.DeleteTag(c.UserContext(), currentUserID(c), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
