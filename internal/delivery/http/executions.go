package http

import (
	"errors"
	"net/http"
	"strconv"

	"cronwatch/internal/dto"
	"cronwatch/internal/model"
	"cronwatch/internal/repository"
	"cronwatch/internal/service"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupExecutions(base *echo.Group) {
	v1 := base.Group("/v1")
	{
		v1.POST("/tasks/:id/executions", h.StartExecution)
		v1.POST("/executions/:id/finish", h.FinishExecution)
	}
}

// StartExecution records that an external agent began running a task.
func (h *HttpAPIHandler) StartExecution(c echo.Context) error {
	taskID, err := strconv.Atoi(c.Param("id"))
	if err != nil || taskID <= 0 {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid task id"))
	}

	execution, err := h.service.ExecutionService.ReportStart(c.Request().Context(), uint(taskID))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTaskNotFound):
			return c.JSON(http.StatusNotFound, dto.NewBaseResponse(http.StatusNotFound, "task not found", nil))
		case errors.Is(err, service.ErrTaskDisabled):
			return c.JSON(http.StatusConflict, dto.NewBaseResponse(http.StatusConflict, "task is disabled", nil))
		default:
			return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, err.Error(), nil))
		}
	}

	return c.JSON(http.StatusCreated, dto.NewBaseResponse(http.StatusCreated, "execution started", executionResponse(execution)))
}

// FinishExecution records the terminal outcome of a running execution.
func (h *HttpAPIHandler) FinishExecution(c echo.Context) error {
	executionID, err := strconv.Atoi(c.Param("id"))
	if err != nil || executionID <= 0 {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid execution id"))
	}

	var req dto.FinishExecutionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
	}
	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	execution, err := h.service.ExecutionService.ReportOutcome(
		c.Request().Context(),
		uint(executionID),
		model.ExecutionOutcome(req.Outcome),
		req.EndedAt,
	)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrExecutionNotFound):
			return c.JSON(http.StatusNotFound, dto.NewBaseResponse(http.StatusNotFound, "execution not found", nil))
		case errors.Is(err, repository.ErrExecutionTerminal):
			return c.JSON(http.StatusConflict, dto.NewBaseResponse(http.StatusConflict, "execution already terminal", executionResponse(execution)))
		case errors.Is(err, service.ErrInvalidOutcome):
			return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
		default:
			return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, err.Error(), nil))
		}
	}

	return c.JSON(http.StatusOK, dto.NewSuccessResponse("execution finished", executionResponse(execution)))
}

func executionResponse(execution *model.Execution) *dto.ExecutionResponse {
	if execution == nil {
		return nil
	}
	resp := &dto.ExecutionResponse{
		ExecutionID: execution.ID,
		TaskID:      execution.TaskID,
		Outcome:     string(execution.Outcome),
		StartedAt:   execution.StartedAt,
	}
	if execution.EndedAt.Valid {
		resp.EndedAt = &execution.EndedAt.Time
	}
	return resp
}
