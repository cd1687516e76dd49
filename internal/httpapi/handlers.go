package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"worktime/internal/apperr"
	"worktime/internal/service"
)

type signUpRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Mobile         int64  `json:"mobile"`
	Password       string `json:"password"`
	TelegramChatID *int64 `json:"telegramChatId"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type attendanceRequest struct {
	Action string `json:"action"`
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *handlers) signUp(c *fiber.Ctx) error {
	var req signUpRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.svc.Auth.SignUp(c.UserContext(), service.SignUpInput(req))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "Registration successful! Welcome aboard!", user)
}

func (h *handlers) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return apperr.Validation("Email and password are required.")
	}
	res, err := h.svc.Auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "You’ve successfully logged in! Welcome back!", res)
}

func (h *handlers) listUsers(c *fiber.Ctx) error {
	page, err := queryInt(c, "page")
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}
	list, err := h.svc.Auth.ListUsers(c.UserContext(), page, limit)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "User list fetched successfully", list)
}

var attendanceMessages = map[string]string{
	service.ActionDayIn:    "Day In recorded successfully!",
	service.ActionClockIn:  "Clock In recorded successfully!",
	service.ActionClockOut: "Clock Out recorded successfully!",
	service.ActionDayOut:   "Day Out recorded successfully!",
}

func (h *handlers) recordAttendance(c *fiber.Ctx) error {
	var req attendanceRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	rec, err := h.svc.Ledger.RecordAttendance(c.UserContext(), currentUser(c), req.Action)
	if err != nil {
		return err
	}
	status := fiber.StatusOK
	if req.Action == service.ActionDayIn {
		status = fiber.StatusCreated
	}
	return respond(c, status, attendanceMessages[req.Action], rec)
}

func (h *handlers) attendanceHistory(c *fiber.Ctx) error {
	page, err := queryInt(c, "page")
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}
	start, end, err := dateRange(c)
	if err != nil {
		return err
	}
	hist, err := h.svc.Ledger.History(c.UserContext(), currentUser(c), service.DayHistoryParams{
		Page:      page,
		Limit:     limit,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "User records retrieved successfully!", hist)
}

func (h *handlers) createTask(c *fiber.Ctx) error {
	var req createTaskRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	task, err := h.svc.Tasks.CreateTask(c.UserContext(), currentUser(c), service.TaskInput(req))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Task created successfully!.", task)
}

func (h *handlers) updateTask(c *fiber.Ctx) error {
	var req updateTaskRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	task, err := h.svc.Tasks.UpdateTask(c.UserContext(), currentUser(c), c.Params("taskId"), service.TaskPatch(req))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Task updated successfully!.", task)
}

func (h *handlers) deleteTask(c *fiber.Ctx) error {
	if err := h.svc.Tasks.DeleteTask(c.UserContext(), currentUser(c), c.Params("taskId")); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Task deleted successfully!.", nil)
}

func (h *handlers) taskHistory(c *fiber.Ctx) error {
	start, end, err := dateRange(c)
	if err != nil {
		return err
	}
	summaries, err := h.svc.Tasks.History(c.UserContext(), currentUser(c), start, end)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Task history retrieved successfully!", summaries)
}

func (h *handlers) updateTaskStatus(c *fiber.Ctx) error {
	var req statusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	task, err := h.svc.Tasks.UpdateTaskStatus(c.UserContext(), currentUser(c), c.Params("taskId"), req.Status)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Task status updated successfully!.", task)
}
