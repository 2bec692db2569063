package triage

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/triage/intake/internal/platform/auth"
	"github.com/triage/intake/internal/platform/llm"
	"github.com/triage/intake/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/chat", h.Chat)
	api.POST("/triage/process", h.Process)
	api.POST("/triage/precheck", h.Precheck)

	staff := api.Group("", auth.RequireRole("doctor"))
	staff.GET("/patients", h.ListPatients)
	staff.PATCH("/patients/:id/status", h.UpdateStatus)
}

type chatRequest struct {
	History []ConversationTurn `json:"history"`
}

type chatResponse struct {
	User  string `json:"user"`
	Reply string `json:"reply"`
}

func (h *Handler) Chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	reply, err := h.svc.Chat(c.Request().Context(), req.History)
	if err != nil {
		return upstreamHTTPError(err)
	}
	return c.JSON(http.StatusOK, chatResponse{
		User:  auth.EmailFromContext(c.Request().Context()),
		Reply: reply,
	})
}

type processRequest struct {
	History   []ConversationTurn `json:"history"`
	SessionID string             `json:"session_id"`
}

func (h *Handler) Process(c echo.Context) error {
	var req processRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var sessionID *uuid.UUID
	if req.SessionID != "" {
		id, err := uuid.Parse(req.SessionID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid session_id")
		}
		sessionID = &id
	}

	patientID := auth.UserIDFromContext(c.Request().Context())
	result, err := h.svc.Process(c.Request().Context(), patientID, sessionID, req.History)
	if err != nil {
		return upstreamHTTPError(err)
	}

	if result.Continue {
		return c.JSON(http.StatusOK, map[string]bool{"continue": true})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"ticket":  result.Ticket,
		"summary": result.Summary,
	})
}

type precheckRequest struct {
	Text string `json:"text"`
}

func (h *Handler) Precheck(c echo.Context) error {
	var req precheckRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, h.svc.Precheck(c.Request().Context(), req.Text))
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	records, total, err := h.svc.ListRecords(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(records, total, pg.Limit, pg.Offset))
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !ValidStatus(req.Status) {
		return echo.NewHTTPError(http.StatusBadRequest, "status must be waiting, in-progress or done")
	}

	err = h.svc.UpdateStatus(c.Request().Context(), id, req.Status)
	if errors.Is(err, ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "record not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// upstreamHTTPError maps service failures to HTTP statuses: client mistakes
// stay 4xx, model timeouts surface as 504 and other upstream failures as 502.
func upstreamHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrNoPatientMessage):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, llm.ErrTimeout):
		return echo.NewHTTPError(http.StatusGatewayTimeout, "triage model timed out")
	case errors.Is(err, llm.ErrUpstream):
		return echo.NewHTTPError(http.StatusBadGateway, "triage model unavailable")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
