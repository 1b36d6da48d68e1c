package http

import (
	"errors"
	"net/http"
	"strings"

	"microcap-trading/internal/dto"
	"microcap-trading/internal/model"
	"microcap-trading/internal/service"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupAutomation(base *echo.Group) {
	v1 := base.Group("/v1")
	{
		v1.POST("/automation/run", h.RunAutomation)
		v1.POST("/recommendations/evaluate", h.EvaluateRecommendation)
	}
}

func (h *HttpAPIHandler) RunAutomation(c echo.Context) error {
	req := new(dto.RunAutomationRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	result, err := h.service.AutomationService.Run(c.Request().Context(), dto.AutomationOptions{
		DryRun: req.DryRun,
		Model:  req.Model,
	})
	if err != nil {
		code := errorStatus(err)
		return c.JSON(code, dto.NewBaseResponse(code, err.Error(), result))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Automation run completed", result))
}

func (h *HttpAPIHandler) EvaluateRecommendation(c echo.Context) error {
	req := new(dto.EvaluateRecommendationRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	holdings := make([]model.Holding, 0, len(req.Holdings))
	for _, hr := range req.Holdings {
		holdings = append(holdings, model.Holding{
			Ticker:    strings.ToUpper(strings.TrimSpace(hr.Ticker)),
			Shares:    hr.Shares,
			StopLoss:  hr.StopLoss,
			BuyPrice:  hr.BuyPrice,
			CostBasis: hr.CostBasis,
		})
	}

	rec, execution, err := h.service.AutomationService.Evaluate(c.Request().Context(), req.Response,
		model.NewPortfolioState(req.Cash, holdings...))
	if err != nil {
		code := errorStatus(err)
		return c.JSON(code, dto.NewBaseResponse(code, err.Error(), nil))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Recommendation evaluated", dto.EvaluateRecommendationResponse{
		Recommendation: rec,
		Execution:      execution,
	}))
}

// errorStatus maps model-side failures to 502 and bad model output to 422.
func errorStatus(err error) int {
	var (
		gatewayErr *service.GatewayError
		parseErr   *service.ParseError
		schemaErr  *service.SchemaError
	)
	switch {
	case errors.As(err, &gatewayErr):
		return http.StatusBadGateway
	case errors.As(err, &parseErr), errors.As(err, &schemaErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrLLMNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
