package middleware

import (
	"microcap-trading/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// NewRequestLoggerMiddleware logs one line per request and puts the request logger in the context.
func NewRequestLoggerMiddleware(log *logger.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		BeforeNextFunc: func(c echo.Context) {
			reqLog := log.With(logger.StringField("request_id", c.Response().Header().Get(echo.HeaderXRequestID)))
			c.SetRequest(c.Request().WithContext(logger.NewContext(c.Request().Context(), reqLog)))
		},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				logger.StringField("method", v.Method),
				logger.StringField("uri", v.URI),
				logger.IntField("status", v.Status),
				logger.StringField("remote_ip", v.RemoteIP),
				logger.Field("latency", v.Latency),
			}
			if v.Error != nil {
				log.Error("Request failed", append(fields, logger.ErrorField(v.Error))...)
				return nil
			}
			log.Info("Request handled", fields...)
			return nil
		},
	})
}
