package http

import (
	"net/http"

	"cronwatch/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupTasks(base *echo.Group) {
	v1 := base.Group("/v1/tasks")
	{
		v1.GET("", h.ListTasks)
	}
}

// ListTasks returns the active tasks with their next expected windows.
func (h *HttpAPIHandler) ListTasks(c echo.Context) error {
	overviews, err := h.service.TaskService.ListActiveTasks(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, err.Error(), nil))
	}

	tasks := make([]dto.TaskResponse, 0, len(overviews))
	for _, overview := range overviews {
		tasks = append(tasks, dto.TaskResponse{
			TaskID:       overview.Task.ID,
			ProjectID:    overview.Task.ProjectID,
			Name:         overview.Task.Name,
			ScheduleType: string(overview.Task.ScheduleType),
			Status:       string(overview.Task.Status),
			NextWindow:   overview.NextWindow,
		})
	}

	return c.JSON(http.StatusOK, dto.NewSuccessResponse("active tasks", tasks))
}
