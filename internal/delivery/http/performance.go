package http

import (
	"net/http"

	"microcap-trading/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupPerformance(base *echo.Group) {
	v1 := base.Group("/v1/performance")
	{
		v1.GET("", h.GetPerformance)
		v1.POST("/chart", h.RenderChart)
	}
}

func (h *HttpAPIHandler) GetPerformance(c echo.Context) error {
	report, err := h.service.PerformanceService.Report(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, err.Error(), nil))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Performance report", report))
}

func (h *HttpAPIHandler) RenderChart(c echo.Context) error {
	report, err := h.service.PerformanceService.RenderChart(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, err.Error(), nil))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Chart saved to "+report.ChartPath, report))
}
