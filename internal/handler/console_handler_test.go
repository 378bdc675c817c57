package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garda-ops/gms-api/internal/console"
	"github.com/garda-ops/gms-api/internal/lifecycle"
)

type fakeGateway struct {
	rows    map[int64]string
	deleted []int64
	lastQ   console.Query
}

func (g *fakeGateway) Fetch(ctx context.Context, query console.Query) (*console.PageEnvelope, error) {
	g.lastQ = query
	page := &console.PageEnvelope{CurrentPage: query.Page, LastPage: 1, PerPage: query.PerPage}
	for id, status := range g.rows {
		page.Items = append(page.Items, console.Entity{ID: id, Status: status, Record: json.RawMessage(`{}`)})
	}
	page.Total = len(page.Items)
	return page, nil
}

func (g *fakeGateway) Mutate(ctx context.Context, id int64, change console.Mutation) (*console.Entity, error) {
	if change.Status != "" {
		g.rows[id] = change.Status
	}
	return &console.Entity{ID: id, Status: g.rows[id]}, nil
}

func (g *fakeGateway) Delete(ctx context.Context, id int64) error {
	delete(g.rows, id)
	g.deleted = append(g.deleted, id)
	return nil
}

func newConsoleFixture(t *testing.T, gateway console.Gateway) (*ConsoleHandler, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	registry := console.NewRegistry(
		map[lifecycle.Kind]console.Gateway{lifecycle.KindAssignment: gateway},
		lifecycle.NewPolicy(), nil,
		console.RegistryConfig{ConfirmTimeout: time.Minute},
	)
	handler := NewConsoleHandler(registry, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/console/sessions", openSessionRequest{Kind: "assignment"})
	handler.Open(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data sessionEnvelope `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.SessionID)
	return handler, envelope.Data.SessionID
}

func jsonRequest(t *testing.T, method, target string, payload interface{}) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req, err := http.NewRequest(method, target, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestConsoleHandlerOpenUnknownKind(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := console.NewRegistry(map[lifecycle.Kind]console.Gateway{}, lifecycle.NewPolicy(), nil, console.RegistryConfig{})
	handler := NewConsoleHandler(registry, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/console/sessions", openSessionRequest{Kind: "vehicle"})
	handler.Open(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConsoleHandlerFilterResetsPage(t *testing.T) {
	gateway := &fakeGateway{rows: map[int64]string{1: "assigned", 2: "active"}}
	handler, sid := newConsoleFixture(t, gateway)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPut, "/console/sessions/"+sid+"/filters", filterRequest{Name: "page", Value: "3"})
	c.Params = gin.Params{{Key: "sid", Value: sid}}
	handler.SetFilter(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, gateway.lastQ.Page)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPut, "/console/sessions/"+sid+"/filters", filterRequest{Name: "status", Value: "active"})
	c.Params = gin.Params{{Key: "sid", Value: sid}}
	handler.SetFilter(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, gateway.lastQ.Page)
	assert.Equal(t, "active", gateway.lastQ.Filters["status"])
}

func TestConsoleHandlerBulkDeleteWithoutSelection(t *testing.T) {
	gateway := &fakeGateway{rows: map[int64]string{1: "assigned"}}
	handler, sid := newConsoleFixture(t, gateway)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/console/sessions/"+sid+"/commands",
		console.CommandRequest{Action: console.ActionBulkDelete})
	c.Params = gin.Params{{Key: "sid", Value: sid}}
	handler.RequestCommand(c)

	require.Equal(t, http.StatusPreconditionFailed, w.Code)
	var envelope struct {
		Notification console.Notification `json:"notification"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, console.NotificationPrecondition, envelope.Notification.Kind)
	assert.Empty(t, gateway.deleted)
}

func TestConsoleHandlerConfirmBulkDelete(t *testing.T) {
	gateway := &fakeGateway{rows: map[int64]string{1: "assigned", 2: "active"}}
	handler, sid := newConsoleFixture(t, gateway)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	checked := true
	c.Request = jsonRequest(t, http.MethodPut, "/console/sessions/"+sid+"/selection/all", selectAllRequest{Checked: &checked})
	c.Params = gin.Params{{Key: "sid", Value: sid}}
	handler.SelectAll(c)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/console/sessions/"+sid+"/commands",
		console.CommandRequest{Action: console.ActionBulkDelete})
	c.Params = gin.Params{{Key: "sid", Value: sid}}
	handler.RequestCommand(c)
	require.Equal(t, http.StatusAccepted, w.Code)

	var pendingEnvelope struct {
		Data console.Pending `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pendingEnvelope))
	require.NotEmpty(t, pendingEnvelope.Data.Token)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/console/sessions/"+sid+"/commands/"+pendingEnvelope.Data.Token+"/confirm", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "sid", Value: sid}, {Key: "token", Value: pendingEnvelope.Data.Token}}
	handler.ConfirmCommand(c)
	require.Equal(t, http.StatusOK, w.Code)

	var resultEnvelope struct {
		Data         console.CommandResult `json:"data"`
		Notification console.Notification  `json:"notification"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resultEnvelope))
	assert.Equal(t, console.NotificationSuccess, resultEnvelope.Notification.Kind)
	assert.Len(t, resultEnvelope.Data.Outcomes, 2)
	assert.Len(t, gateway.deleted, 2)
	assert.Empty(t, gateway.rows)
}

func TestConsoleHandlerIllegalTransitionRejectedBeforeConfirm(t *testing.T) {
	gateway := &fakeGateway{rows: map[int64]string{1: "assigned"}}
	handler, sid := newConsoleFixture(t, gateway)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/console/sessions/"+sid+"/commands",
		console.CommandRequest{Action: console.ActionStatus, ID: 1, To: "completed"})
	c.Params = gin.Params{{Key: "sid", Value: sid}}
	handler.RequestCommand(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "assigned", gateway.rows[1])
}

func TestConsoleHandlerCancelPending(t *testing.T) {
	gateway := &fakeGateway{rows: map[int64]string{1: "assigned"}}
	handler, sid := newConsoleFixture(t, gateway)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/console/sessions/"+sid+"/commands",
		console.CommandRequest{Action: console.ActionDelete, ID: 1})
	c.Params = gin.Params{{Key: "sid", Value: sid}}
	handler.RequestCommand(c)
	require.Equal(t, http.StatusAccepted, w.Code)

	var pendingEnvelope struct {
		Data console.Pending `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pendingEnvelope))

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/console/sessions/"+sid+"/commands/"+pendingEnvelope.Data.Token, nil)
	c.Request = req
	c.Params = gin.Params{{Key: "sid", Value: sid}, {Key: "token", Value: pendingEnvelope.Data.Token}}
	handler.CancelCommand(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Len(t, gateway.rows, 1)
}
