package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/garda-ops/gms-api/internal/models"
	"github.com/garda-ops/gms-api/internal/service"
	appErrors "github.com/garda-ops/gms-api/pkg/errors"
	"github.com/garda-ops/gms-api/pkg/response"
)

// GuardHandler exposes guard roster endpoints.
type GuardHandler struct {
	guards *service.GuardService
}

// NewGuardHandler constructs GuardHandler.
func NewGuardHandler(guards *service.GuardService) *GuardHandler {
	return &GuardHandler{guards: guards}
}

// List godoc
// @Summary List guards
// @Tags Guards
// @Produce json
// @Param search query string false "Search by name or badge number"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /guards [get]
func (h *GuardHandler) List(c *gin.Context) {
	var filter models.GuardFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if active := c.Query("active"); active != "" {
		if v, err := strconv.ParseBool(active); err == nil {
			filter.Active = &v
		}
	}
	filter.Page, filter.PageSize = pageParams(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	guards, pagination, err := h.guards.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, guards, pagination)
}

// Get godoc
// @Summary Get guard detail
// @Tags Guards
// @Produce json
// @Param id path int true "Guard ID"
// @Success 200 {object} response.Envelope
// @Router /guards/{id} [get]
func (h *GuardHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	guard, err := h.guards.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, guard, nil)
}

// Create godoc
// @Summary Register guard
// @Tags Guards
// @Accept json
// @Produce json
// @Param payload body service.CreateGuardRequest true "Guard payload"
// @Success 201 {object} response.Envelope
// @Router /guards [post]
func (h *GuardHandler) Create(c *gin.Context) {
	var req service.CreateGuardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	guard, err := h.guards.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, guard)
}

// Update godoc
// @Summary Update guard profile
// @Tags Guards
// @Accept json
// @Produce json
// @Param id path int true "Guard ID"
// @Param payload body service.UpdateGuardRequest true "Guard payload"
// @Success 200 {object} response.Envelope
// @Router /guards/{id} [put]
func (h *GuardHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateGuardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	guard, err := h.guards.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, guard, nil)
}

// SetActive godoc
// @Summary Toggle guard active flag
// @Tags Guards
// @Accept json
// @Produce json
// @Param id path int true "Guard ID"
// @Param payload body handler.activeRequest true "Active flag"
// @Success 200 {object} response.Envelope
// @Router /guards/{id}/active [patch]
func (h *GuardHandler) SetActive(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req activeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	guard, err := h.guards.SetActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, guard, nil)
}

// Delete godoc
// @Summary Delete guard
// @Tags Guards
// @Produce json
// @Param id path int true "Guard ID"
// @Success 204
// @Router /guards/{id} [delete]
func (h *GuardHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.guards.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// activeRequest toggles an entity's active flag. A pointer distinguishes
// "false" from "missing".
type activeRequest struct {
	Active *bool `json:"active" binding:"required"`
}
