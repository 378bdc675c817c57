package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garda-ops/gms-api/internal/console"
	"github.com/garda-ops/gms-api/internal/lifecycle"
	"github.com/garda-ops/gms-api/internal/service"
	appErrors "github.com/garda-ops/gms-api/pkg/errors"
	"github.com/garda-ops/gms-api/pkg/response"
)

// ConsoleHandler exposes the stateful list-console API: per-session filter
// composition, page-scoped selection, and confirmation-gated commands.
type ConsoleHandler struct {
	registry *console.Registry
	metrics  *service.MetricsService
}

// NewConsoleHandler constructs ConsoleHandler.
func NewConsoleHandler(registry *console.Registry, metrics *service.MetricsService) *ConsoleHandler {
	return &ConsoleHandler{registry: registry, metrics: metrics}
}

type openSessionRequest struct {
	Kind string `json:"kind" binding:"required"`
}

type sessionEnvelope struct {
	SessionID string                `json:"session_id"`
	Kind      string                `json:"kind"`
	Page      *console.PageEnvelope `json:"page"`
}

type filterRequest struct {
	Name  string `json:"name" binding:"required"`
	Value string `json:"value"`
}

type searchRequest struct {
	Fields []string `json:"fields"`
}

type selectOneRequest struct {
	ID      int64 `json:"id" binding:"required"`
	Checked *bool `json:"checked" binding:"required"`
}

type selectAllRequest struct {
	Checked *bool `json:"checked" binding:"required"`
}

type selectionEnvelope struct {
	IDs         []int64 `json:"ids"`
	AllSelected bool    `json:"all_selected"`
}

// Open godoc
// @Summary Open a console session for one entity kind
// @Tags Console
// @Accept json
// @Produce json
// @Param payload body handler.openSessionRequest true "Entity kind"
// @Success 201 {object} response.Envelope
// @Router /console/sessions [post]
func (h *ConsoleHandler) Open(c *gin.Context) {
	var req openSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, page, err := h.registry.Open(c.Request.Context(), lifecycle.Kind(req.Kind))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.recordSessionGauge()
	response.Created(c, sessionEnvelope{SessionID: session.ID, Kind: req.Kind, Page: page})
}

// CloseSession godoc
// @Summary Close a console session
// @Tags Console
// @Produce json
// @Param sid path string true "Session ID"
// @Success 204
// @Router /console/sessions/{sid} [delete]
func (h *ConsoleHandler) CloseSession(c *gin.Context) {
	h.registry.Close(c.Param("sid"))
	h.recordSessionGauge()
	response.NoContent(c)
}

// Page godoc
// @Summary Current page of a console session
// @Tags Console
// @Produce json
// @Param sid path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /console/sessions/{sid}/page [get]
func (h *ConsoleHandler) Page(c *gin.Context) {
	session, err := h.registry.Get(c.Param("sid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session.Controller.Page(), nil)
}

// SetFilter godoc
// @Summary Set one filter and reload the list
// @Description Setting any filter other than the page number resets to page 1
// @Tags Console
// @Accept json
// @Produce json
// @Param sid path string true "Session ID"
// @Param payload body handler.filterRequest true "Filter name and value"
// @Success 200 {object} response.Envelope
// @Router /console/sessions/{sid}/filters [put]
func (h *ConsoleHandler) SetFilter(c *gin.Context) {
	session, err := h.registry.Get(c.Param("sid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	page, err := session.Controller.SetFilter(c.Request.Context(), req.Name, req.Value)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page, nil)
}

// SetSearch godoc
// @Summary Combine search inputs into the shared search filter
// @Tags Console
// @Accept json
// @Produce json
// @Param sid path string true "Session ID"
// @Param payload body handler.searchRequest true "Search fields"
// @Success 200 {object} response.Envelope
// @Router /console/sessions/{sid}/search [put]
func (h *ConsoleHandler) SetSearch(c *gin.Context) {
	session, err := h.registry.Get(c.Param("sid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	page, err := session.Controller.SetSearchFields(c.Request.Context(), req.Fields...)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page, nil)
}

// Refresh godoc
// @Summary Re-issue the current query
// @Tags Console
// @Produce json
// @Param sid path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /console/sessions/{sid}/refresh [post]
func (h *ConsoleHandler) Refresh(c *gin.Context) {
	session, err := h.registry.Get(c.Param("sid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	page, err := session.Controller.Refresh(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page, nil)
}

// SelectOne godoc
// @Summary Toggle one visible row in the selection
// @Tags Console
// @Accept json
// @Produce json
// @Param sid path string true "Session ID"
// @Param payload body handler.selectOneRequest true "Row and checkbox state"
// @Success 200 {object} response.Envelope
// @Router /console/sessions/{sid}/selection [put]
func (h *ConsoleHandler) SelectOne(c *gin.Context) {
	session, err := h.registry.Get(c.Param("sid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	var req selectOneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := session.Controller.SelectOne(req.ID, *req.Checked); err != nil {
		response.Error(c, err)
		return
	}
	h.respondSelection(c, session)
}

// SelectAll godoc
// @Summary Check or clear every row on the current page
// @Tags Console
// @Accept json
// @Produce json
// @Param sid path string true "Session ID"
// @Param payload body handler.selectAllRequest true "Header checkbox state"
// @Success 200 {object} response.Envelope
// @Router /console/sessions/{sid}/selection/all [put]
func (h *ConsoleHandler) SelectAll(c *gin.Context) {
	session, err := h.registry.Get(c.Param("sid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	var req selectAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session.Controller.SelectAll(*req.Checked)
	h.respondSelection(c, session)
}

// Selection godoc
// @Summary Current selection
// @Tags Console
// @Produce json
// @Param sid path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /console/sessions/{sid}/selection [get]
func (h *ConsoleHandler) Selection(c *gin.Context) {
	session, err := h.registry.Get(c.Param("sid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respondSelection(c, session)
}

// RowActions godoc
// @Summary Legal lifecycle actions for a visible row
// @Tags Console
// @Produce json
// @Param sid path string true "Session ID"
// @Param id path int true "Row ID"
// @Success 200 {object} response.Envelope
// @Router /console/sessions/{sid}/rows/{id}/actions [get]
func (h *ConsoleHandler) RowActions(c *gin.Context) {
	session, err := h.registry.Get(c.Param("sid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	actions, err := session.Controller.AvailableActions(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, actions, nil)
}

// RequestCommand godoc
// @Summary Request a mutating command, to be confirmed within the window
// @Description A failed precondition returns a notification and nothing pending
// @Tags Console
// @Accept json
// @Produce json
// @Param sid path string true "Session ID"
// @Param payload body console.CommandRequest true "Command payload"
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /console/sessions/{sid}/commands [post]
func (h *ConsoleHandler) RequestCommand(c *gin.Context) {
	session, err := h.registry.Get(c.Param("sid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	var req console.CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	pending, notification, err := session.Controller.RequestCommand(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if notification != nil {
		response.Notify(c, http.StatusPreconditionFailed, nil, notification, nil)
		return
	}
	response.JSON(c, http.StatusAccepted, pending, nil)
}

// ConfirmCommand godoc
// @Summary Confirm a pending command and execute it
// @Tags Console
// @Produce json
// @Param sid path string true "Session ID"
// @Param token path string true "Confirmation token"
// @Success 200 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /console/sessions/{sid}/commands/{token}/confirm [post]
func (h *ConsoleHandler) ConfirmCommand(c *gin.Context) {
	session, err := h.registry.Get(c.Param("sid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := session.Controller.Confirm(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.recordOutcomes(session, result)
	response.Notify(c, http.StatusOK, result, result.Notification, nil)
}

// CancelCommand godoc
// @Summary Cancel a pending command before the window closes
// @Tags Console
// @Produce json
// @Param sid path string true "Session ID"
// @Param token path string true "Confirmation token"
// @Success 204
// @Router /console/sessions/{sid}/commands/{token} [delete]
func (h *ConsoleHandler) CancelCommand(c *gin.Context) {
	session, err := h.registry.Get(c.Param("sid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := session.Controller.Cancel(c.Param("token")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *ConsoleHandler) respondSelection(c *gin.Context, session *console.Session) {
	response.JSON(c, http.StatusOK, selectionEnvelope{
		IDs:         session.Controller.SelectedIDs(),
		AllSelected: session.Controller.AllSelected(),
	}, nil)
}

func (h *ConsoleHandler) recordSessionGauge() {
	if h.metrics != nil {
		h.metrics.SetActiveSessions(h.registry.Count())
	}
}

func (h *ConsoleHandler) recordOutcomes(session *console.Session, result *console.CommandResult) {
	if h.metrics == nil || result == nil {
		return
	}
	kind := string(session.Controller.Kind())
	for _, outcome := range result.Outcomes {
		h.metrics.RecordCommand(kind, string(result.Action), string(outcome.Status))
	}
}
