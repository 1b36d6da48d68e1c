package dto

import (
	"net/http"

	"github.com/shopspring/decimal"
)

type BaseResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func NewBaseResponse(code int, message string, data interface{}) *BaseResponse {
	return &BaseResponse{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func NewBadRequestResponse(message string) *BaseResponse {
	return NewBaseResponse(http.StatusBadRequest, message, nil)
}

func NewSuccessResponse(message string, data interface{}) *BaseResponse {
	return NewBaseResponse(http.StatusOK, message, data)
}

type RunAutomationRequest struct {
	DryRun bool   `json:"dry_run"`
	Model  string `json:"model" validate:"omitempty,max=100"`
}

type HoldingRequest struct {
	Ticker    string          `json:"ticker" validate:"required"`
	Shares    decimal.Decimal `json:"shares" validate:"gte=0"`
	StopLoss  decimal.Decimal `json:"stop_loss" validate:"gte=0"`
	BuyPrice  decimal.Decimal `json:"buy_price"`
	CostBasis decimal.Decimal `json:"cost_basis"`
}

// EvaluateRecommendationRequest runs the parser and executor over a response text
// against the supplied ledger, without calling the model.
type EvaluateRecommendationRequest struct {
	Response string           `json:"response" validate:"required"`
	Cash     decimal.Decimal  `json:"cash" validate:"gte=0"`
	Holdings []HoldingRequest `json:"holdings" validate:"dive"`
}

type EvaluateRecommendationResponse struct {
	Recommendation *Recommendation  `json:"recommendation"`
	Execution      *ExecutionResult `json:"execution"`
}
