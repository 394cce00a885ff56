package http

import (
	"errors"
	"net/http"
	"strconv"

	"cronwatch/internal/dto"
	"cronwatch/internal/repository"
	"cronwatch/pkg/utils"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupStats(base *echo.Group) {
	v1 := base.Group("/v1/projects")
	{
		v1.GET("/:id/failure-stats", h.GetFailureStat)
	}
}

// GetFailureStat returns the failure counter for a project on a UTC date,
// defaulting to today.
func (h *HttpAPIHandler) GetFailureStat(c echo.Context) error {
	projectID, err := strconv.Atoi(c.Param("id"))
	if err != nil || projectID <= 0 {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid project id"))
	}

	date := utils.TodayUTC()
	if raw := c.QueryParam("date"); raw != "" {
		date, err = utils.ParseDate(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid date, expected YYYY-MM-DD"))
		}
	}

	count, err := h.service.StatsService.GetFailureStat(c.Request().Context(), uint(projectID), date)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return c.JSON(http.StatusNotFound, dto.NewBaseResponse(http.StatusNotFound, "project not found", nil))
		}
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, err.Error(), nil))
	}

	return c.JSON(http.StatusOK, dto.NewSuccessResponse("failure stat", dto.FailureStatResponse{
		ProjectID: uint(projectID),
		Date:      utils.FormatDate(date),
		Count:     count,
	}))
}
