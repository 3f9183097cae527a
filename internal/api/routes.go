package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ahmedfahim21/fingreat-go/domain/entities"
	"github.com/ahmedfahim21/fingreat-go/domain/repositories"
	"github.com/ahmedfahim21/fingreat-go/usecase"
)

// Handlers bundles the services the local API exposes. Voice may be nil
// when no capture device could be acquired; its routes then respond 503.
type Handlers struct {
	Sessions *usecase.SessionService
	Agents   *usecase.AgentService
	Market   repositories.MarketData
	Voice    *usecase.VoiceService
	Logger   *zap.Logger
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, h *Handlers) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "fingreat",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	// Analysis session APIs
	v1.GET("/session", h.getSession)
	v1.POST("/session/ticker", h.selectTicker)
	v1.POST("/session/submit", h.submitPrompt)
	v1.POST("/session/reset", h.resetSession)
	v1.POST("/session/clear", h.clearSession)

	// Follow-up agent APIs
	v1.POST("/agent/:ticker/ask", h.askAgent)
	v1.GET("/agent/:ticker/history", h.agentHistory)
	v1.DELETE("/agent/:ticker/history", h.clearAgentHistory)

	// Market data pass-through APIs
	v1.GET("/market/prices", h.marketPrices)
	v1.GET("/market/price/:symbol", h.marketPrice)
	v1.GET("/market/history/:symbol", h.marketHistory)

	// Voice pipeline APIs
	v1.GET("/voice/status", h.voiceStatus)
	v1.POST("/voice/toggle", h.voiceToggle)
	v1.POST("/voice/say", h.voiceSay)
	v1.POST("/voice/silence", h.voiceSilence)
}

func (h *Handlers) getSession(c echo.Context) error {
	snap := h.Sessions.Snapshot()
	if snap == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "no_session",
			Message: "No ticker selected yet",
		})
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *Handlers) selectTicker(c echo.Context) error {
	var req TickerRequest
	if err := c.Bind(&req); err != nil {
		h.Logger.Error("Failed to bind ticker request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.Ticker == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Ticker is required",
		})
	}

	snap, err := h.Sessions.SelectTicker(c.Request().Context(), req.Ticker)
	if err != nil {
		return h.sessionError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *Handlers) submitPrompt(c echo.Context) error {
	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		h.Logger.Error("Failed to bind submit request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if err := h.Sessions.Submit(c.Request().Context(), req.Prompt); err != nil {
		return h.sessionError(c, err)
	}
	return c.JSON(http.StatusAccepted, h.Sessions.Snapshot())
}

func (h *Handlers) resetSession(c echo.Context) error {
	if err := h.Sessions.Reset(c.Request().Context()); err != nil {
		return h.sessionError(c, err)
	}
	return c.JSON(http.StatusOK, h.Sessions.Snapshot())
}

func (h *Handlers) clearSession(c echo.Context) error {
	ctx := c.Request().Context()

	snap := h.Sessions.Snapshot()
	if err := h.Sessions.ClearConversation(ctx); err != nil {
		return h.sessionError(c, err)
	}
	// Stored agent turns go with the transcript
	if snap != nil {
		if err := h.Agents.Clear(ctx, snap.Ticker); err != nil {
			h.Logger.Warn("Failed to clear agent history with session",
				zap.String("ticker", snap.Ticker),
				zap.Error(err))
		}
	}
	return c.JSON(http.StatusOK, h.Sessions.Snapshot())
}

func (h *Handlers) askAgent(c echo.Context) error {
	var req AskRequest
	if err := c.Bind(&req); err != nil {
		h.Logger.Error("Failed to bind ask request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	answer, err := h.Agents.Ask(c.Request().Context(), c.Param("ticker"), req.Query)
	if err != nil {
		if err == usecase.ErrEmptyQuery || err == usecase.ErrNoSession {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "missing_fields",
				Message: err.Error(),
			})
		}
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "agent_failed",
			Message: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, AnswerResponse{Answer: answer})
}

func (h *Handlers) agentHistory(c echo.Context) error {
	turns, err := h.Agents.History(c.Request().Context(), c.Param("ticker"))
	if err != nil {
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "agent_failed",
			Message: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, turns)
}

func (h *Handlers) clearAgentHistory(c echo.Context) error {
	if err := h.Agents.Clear(c.Request().Context(), c.Param("ticker")); err != nil {
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "agent_failed",
			Message: err.Error(),
		})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handlers) marketPrices(c echo.Context) error {
	quotes, err := h.Market.Snapshot(c.Request().Context())
	if err != nil {
		return h.marketError(c, err)
	}
	return c.JSON(http.StatusOK, quotes)
}

func (h *Handlers) marketPrice(c echo.Context) error {
	quote, err := h.Market.Quote(c.Request().Context(), c.Param("symbol"))
	if err != nil {
		return h.marketError(c, err)
	}
	return c.JSON(http.StatusOK, quote)
}

func (h *Handlers) marketHistory(c echo.Context) error {
	candles, err := h.Market.History(
		c.Request().Context(),
		c.Param("symbol"),
		c.QueryParam("from"),
		c.QueryParam("to"),
	)
	if err != nil {
		return h.marketError(c, err)
	}
	return c.JSON(http.StatusOK, candles)
}

func (h *Handlers) voiceStatus(c echo.Context) error {
	if h.Voice == nil {
		return h.voiceUnavailable(c)
	}
	return c.JSON(http.StatusOK, h.Voice.Status())
}

func (h *Handlers) voiceToggle(c echo.Context) error {
	if h.Voice == nil {
		return h.voiceUnavailable(c)
	}
	if err := h.Voice.ToggleRecording(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "voice_failed",
			Message: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, h.Voice.Status())
}

func (h *Handlers) voiceSay(c echo.Context) error {
	if h.Voice == nil {
		return h.voiceUnavailable(c)
	}
	var req SayRequest
	if err := c.Bind(&req); err != nil {
		h.Logger.Error("Failed to bind say request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.Text == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Text is required",
		})
	}

	if err := h.Voice.PlayReply(c.Request().Context(), req.Text); err != nil {
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "synthesis_failed",
			Message: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, h.Voice.Status())
}

func (h *Handlers) voiceSilence(c echo.Context) error {
	if h.Voice == nil {
		return h.voiceUnavailable(c)
	}
	h.Voice.StopSpeaking()
	return c.JSON(http.StatusOK, h.Voice.Status())
}

func (h *Handlers) voiceUnavailable(c echo.Context) error {
	return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
		Error:   "voice_unavailable",
		Message: "No audio device is available",
	})
}

// sessionError maps session state errors onto HTTP statuses
func (h *Handlers) sessionError(c echo.Context, err error) error {
	switch err {
	case usecase.ErrNoSession, entities.ErrNoTicker, entities.ErrEmptyPrompt:
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
	case usecase.ErrAnalysisInProgress, entities.ErrNotIdle, entities.ErrNotResult:
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "invalid_state",
			Message: err.Error(),
		})
	default:
		h.Logger.Error("Session operation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
	}
}

func (h *Handlers) marketError(c echo.Context, err error) error {
	h.Logger.Warn("Market data request failed", zap.Error(err))
	return c.JSON(http.StatusBadGateway, ErrorResponse{
		Error:   "market_unavailable",
		Message: err.Error(),
	})
}
