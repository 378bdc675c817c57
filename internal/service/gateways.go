package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garda-ops/gms-api/internal/console"
	"github.com/garda-ops/gms-api/internal/lifecycle"
	"github.com/garda-ops/gms-api/internal/models"
	appErrors "github.com/garda-ops/gms-api/pkg/errors"
)

// The gateway adapters below translate the console's opaque filter map into
// the typed filters each entity service expects, and flatten service rows
// into console entities. One adapter per kind; the registry picks by kind.

func entityRecord(v interface{}) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return raw
}

func filterInt64(filters map[string]string, name string) int64 {
	if raw, ok := filters[name]; ok {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return id
		}
	}
	return 0
}

func filterBool(filters map[string]string, name string) *bool {
	if raw, ok := filters[name]; ok {
		if v, err := strconv.ParseBool(raw); err == nil {
			return &v
		}
	}
	return nil
}

func filterTime(filters map[string]string, name string) *time.Time {
	if raw, ok := filters[name]; ok {
		if ts, err := time.Parse("2006-01-02", raw); err == nil {
			return &ts
		}
	}
	return nil
}

// cacheKeyFor builds a deterministic cache key from a console query.
func cacheKeyFor(kind lifecycle.Kind, query console.Query) string {
	names := make([]string, 0, len(query.Filters))
	for name := range query.Filters {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%s", name, query.Filters[name]))
	}
	return ListKey(string(kind), query.Page, query.PerPage, strings.Join(parts, "&"))
}

type cachedFetch struct {
	cache  *CacheService
	kind   lifecycle.Kind
	logger *zap.Logger
}

// fetch wraps the load func with page-level caching keyed by the full query.
func (c cachedFetch) fetch(ctx context.Context, query console.Query, load func() (*console.PageEnvelope, error)) (*console.PageEnvelope, error) {
	key := cacheKeyFor(c.kind, query)
	if c.cache.Enabled() {
		var cached console.PageEnvelope
		if hit, err := c.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}
	page, err := load()
	if err != nil {
		return nil, err
	}
	if c.cache.Enabled() {
		c.cache.Set(ctx, key, page, 0)
	}
	return page, nil
}

// AssignmentGateway adapts the assignment service to the console contract.
type AssignmentGateway struct {
	service *AssignmentService
	cached  cachedFetch
}

// NewAssignmentGateway constructs the assignment gateway.
func NewAssignmentGateway(service *AssignmentService, cache *CacheService, logger *zap.Logger) *AssignmentGateway {
	return &AssignmentGateway{service: service, cached: cachedFetch{cache: cache, kind: lifecycle.KindAssignment, logger: logger}}
}

// Fetch loads one page of assignments for the console.
func (g *AssignmentGateway) Fetch(ctx context.Context, query console.Query) (*console.PageEnvelope, error) {
	return g.cached.fetch(ctx, query, func() (*console.PageEnvelope, error) {
		filter := models.AssignmentFilter{
			Search:    query.Filters["search"],
			GuardID:   filterInt64(query.Filters, "guard_id"),
			ClientID:  filterInt64(query.Filters, "client_id"),
			Status:    query.Filters["status"],
			DateFrom:  filterTime(query.Filters, "date_from"),
			DateTo:    filterTime(query.Filters, "date_to"),
			Page:      query.Page,
			PageSize:  query.PerPage,
			SortBy:    query.Filters["sort_by"],
			SortOrder: query.Filters["sort_order"],
		}
		rows, pagination, err := g.service.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		items := make([]console.Entity, 0, len(rows))
		for _, row := range rows {
			items = append(items, console.Entity{
				ID:     row.ID,
				Status: string(row.Status),
				Record: entityRecord(row),
			})
		}
		return &console.PageEnvelope{
			Items:       items,
			CurrentPage: pagination.Page,
			LastPage:    pagination.LastPage,
			Total:       pagination.TotalCount,
			PerPage:     pagination.PageSize,
		}, nil
	})
}

// Mutate applies a status change to one assignment.
func (g *AssignmentGateway) Mutate(ctx context.Context, id int64, change console.Mutation) (*console.Entity, error) {
	if change.Status == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "assignments only support status mutations")
	}
	updated, err := g.service.ChangeStatus(ctx, id, models.AssignmentStatus(change.Status))
	if err != nil {
		return nil, err
	}
	return &console.Entity{ID: updated.ID, Status: string(updated.Status), Record: entityRecord(updated)}, nil
}

// Delete removes one assignment.
func (g *AssignmentGateway) Delete(ctx context.Context, id int64) error {
	return g.service.Delete(ctx, id)
}

// ClientGateway adapts the client service to the console contract.
type ClientGateway struct {
	service *ClientService
	cached  cachedFetch
}

// NewClientGateway constructs the client gateway.
func NewClientGateway(service *ClientService, cache *CacheService, logger *zap.Logger) *ClientGateway {
	return &ClientGateway{service: service, cached: cachedFetch{cache: cache, kind: lifecycle.KindClient, logger: logger}}
}

// Fetch loads one page of clients for the console.
func (g *ClientGateway) Fetch(ctx context.Context, query console.Query) (*console.PageEnvelope, error) {
	return g.cached.fetch(ctx, query, func() (*console.PageEnvelope, error) {
		filter := models.ClientFilter{
			Search:    query.Filters["search"],
			City:      query.Filters["city"],
			Active:    filterBool(query.Filters, "active"),
			Page:      query.Page,
			PageSize:  query.PerPage,
			SortBy:    query.Filters["sort_by"],
			SortOrder: query.Filters["sort_order"],
		}
		rows, pagination, err := g.service.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		items := make([]console.Entity, 0, len(rows))
		for _, row := range rows {
			items = append(items, console.Entity{
				ID:     row.ID,
				Flags:  map[string]bool{"is_active": row.Active},
				Record: entityRecord(row),
			})
		}
		return &console.PageEnvelope{
			Items:       items,
			CurrentPage: pagination.Page,
			LastPage:    pagination.LastPage,
			Total:       pagination.TotalCount,
			PerPage:     pagination.PageSize,
		}, nil
	})
}

// Mutate toggles the client activation flag.
func (g *ClientGateway) Mutate(ctx context.Context, id int64, change console.Mutation) (*console.Entity, error) {
	if change.Flag != "is_active" {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown client mutation: %s%s", change.Status, change.Flag))
	}
	updated, err := g.service.SetActive(ctx, id, change.Value)
	if err != nil {
		return nil, err
	}
	return &console.Entity{ID: updated.ID, Flags: map[string]bool{"is_active": updated.Active}, Record: entityRecord(updated)}, nil
}

// Delete removes one client.
func (g *ClientGateway) Delete(ctx context.Context, id int64) error {
	return g.service.Delete(ctx, id)
}

// GuardGateway adapts the guard service to the console contract.
type GuardGateway struct {
	service *GuardService
	cached  cachedFetch
}

// NewGuardGateway constructs the guard gateway.
func NewGuardGateway(service *GuardService, cache *CacheService, logger *zap.Logger) *GuardGateway {
	return &GuardGateway{service: service, cached: cachedFetch{cache: cache, kind: lifecycle.KindGuard, logger: logger}}
}

// Fetch loads one page of guards for the console.
func (g *GuardGateway) Fetch(ctx context.Context, query console.Query) (*console.PageEnvelope, error) {
	return g.cached.fetch(ctx, query, func() (*console.PageEnvelope, error) {
		filter := models.GuardFilter{
			Search:    query.Filters["search"],
			Active:    filterBool(query.Filters, "active"),
			Page:      query.Page,
			PageSize:  query.PerPage,
			SortBy:    query.Filters["sort_by"],
			SortOrder: query.Filters["sort_order"],
		}
		rows, pagination, err := g.service.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		items := make([]console.Entity, 0, len(rows))
		for _, row := range rows {
			items = append(items, console.Entity{
				ID:     row.ID,
				Flags:  map[string]bool{"is_active": row.Active},
				Record: entityRecord(row),
			})
		}
		return &console.PageEnvelope{
			Items:       items,
			CurrentPage: pagination.Page,
			LastPage:    pagination.LastPage,
			Total:       pagination.TotalCount,
			PerPage:     pagination.PageSize,
		}, nil
	})
}

// Mutate toggles the guard activation flag.
func (g *GuardGateway) Mutate(ctx context.Context, id int64, change console.Mutation) (*console.Entity, error) {
	if change.Flag != "is_active" {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown guard mutation: %s%s", change.Status, change.Flag))
	}
	updated, err := g.service.SetActive(ctx, id, change.Value)
	if err != nil {
		return nil, err
	}
	return &console.Entity{ID: updated.ID, Flags: map[string]bool{"is_active": updated.Active}, Record: entityRecord(updated)}, nil
}

// Delete removes one guard.
func (g *GuardGateway) Delete(ctx context.Context, id int64) error {
	return g.service.Delete(ctx, id)
}

// AttendanceGateway adapts the attendance service to the console contract.
type AttendanceGateway struct {
	service *AttendanceService
	cached  cachedFetch
}

// NewAttendanceGateway constructs the attendance gateway.
func NewAttendanceGateway(service *AttendanceService, cache *CacheService, logger *zap.Logger) *AttendanceGateway {
	return &AttendanceGateway{service: service, cached: cachedFetch{cache: cache, kind: lifecycle.KindAttendance, logger: logger}}
}

// Fetch loads one page of attendance rows for the console.
func (g *AttendanceGateway) Fetch(ctx context.Context, query console.Query) (*console.PageEnvelope, error) {
	return g.cached.fetch(ctx, query, func() (*console.PageEnvelope, error) {
		filter := models.AttendanceFilter{
			Search:    query.Filters["search"],
			GuardID:   filterInt64(query.Filters, "guard_id"),
			Status:    query.Filters["status"],
			Date:      filterTime(query.Filters, "date"),
			Page:      query.Page,
			PageSize:  query.PerPage,
			SortBy:    query.Filters["sort_by"],
			SortOrder: query.Filters["sort_order"],
		}
		rows, pagination, err := g.service.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		items := make([]console.Entity, 0, len(rows))
		for _, row := range rows {
			items = append(items, console.Entity{
				ID:     row.ID,
				Status: string(row.Status),
				Record: entityRecord(row),
			})
		}
		return &console.PageEnvelope{
			Items:       items,
			CurrentPage: pagination.Page,
			LastPage:    pagination.LastPage,
			Total:       pagination.TotalCount,
			PerPage:     pagination.PageSize,
		}, nil
	})
}

// Mutate applies a status change to one attendance row.
func (g *AttendanceGateway) Mutate(ctx context.Context, id int64, change console.Mutation) (*console.Entity, error) {
	if change.Status == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "attendance only supports status mutations")
	}
	updated, err := g.service.ChangeStatus(ctx, id, models.AttendanceStatus(change.Status))
	if err != nil {
		return nil, err
	}
	return &console.Entity{ID: updated.ID, Status: string(updated.Status), Record: entityRecord(updated)}, nil
}

// Delete removes one attendance row.
func (g *AttendanceGateway) Delete(ctx context.Context, id int64) error {
	return g.service.Delete(ctx, id)
}

// IncidentGateway adapts the incident service to the console contract.
type IncidentGateway struct {
	service *IncidentService
	cached  cachedFetch
}

// NewIncidentGateway constructs the incident gateway.
func NewIncidentGateway(service *IncidentService, cache *CacheService, logger *zap.Logger) *IncidentGateway {
	return &IncidentGateway{service: service, cached: cachedFetch{cache: cache, kind: lifecycle.KindIncident, logger: logger}}
}

// Fetch loads one page of incidents for the console.
func (g *IncidentGateway) Fetch(ctx context.Context, query console.Query) (*console.PageEnvelope, error) {
	return g.cached.fetch(ctx, query, func() (*console.PageEnvelope, error) {
		filter := models.IncidentFilter{
			Search:    query.Filters["search"],
			ClientID:  filterInt64(query.Filters, "client_id"),
			Status:    query.Filters["status"],
			Severity:  query.Filters["severity"],
			Page:      query.Page,
			PageSize:  query.PerPage,
			SortBy:    query.Filters["sort_by"],
			SortOrder: query.Filters["sort_order"],
		}
		rows, pagination, err := g.service.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		items := make([]console.Entity, 0, len(rows))
		for _, row := range rows {
			items = append(items, console.Entity{
				ID:     row.ID,
				Status: string(row.Status),
				Record: entityRecord(row),
			})
		}
		return &console.PageEnvelope{
			Items:       items,
			CurrentPage: pagination.Page,
			LastPage:    pagination.LastPage,
			Total:       pagination.TotalCount,
			PerPage:     pagination.PageSize,
		}, nil
	})
}

// Mutate applies a status change to one incident.
func (g *IncidentGateway) Mutate(ctx context.Context, id int64, change console.Mutation) (*console.Entity, error) {
	if change.Status == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "incidents only support status mutations")
	}
	updated, err := g.service.ChangeStatus(ctx, id, models.IncidentStatus(change.Status))
	if err != nil {
		return nil, err
	}
	return &console.Entity{ID: updated.ID, Status: string(updated.Status), Record: entityRecord(updated)}, nil
}

// Delete removes one incident.
func (g *IncidentGateway) Delete(ctx context.Context, id int64) error {
	return g.service.Delete(ctx, id)
}

// ComplaintGateway adapts the complaint service to the console contract.
type ComplaintGateway struct {
	service *ComplaintService
	cached  cachedFetch
}

// NewComplaintGateway constructs the complaint gateway.
func NewComplaintGateway(service *ComplaintService, cache *CacheService, logger *zap.Logger) *ComplaintGateway {
	return &ComplaintGateway{service: service, cached: cachedFetch{cache: cache, kind: lifecycle.KindComplaint, logger: logger}}
}

// Fetch loads one page of complaints for the console.
func (g *ComplaintGateway) Fetch(ctx context.Context, query console.Query) (*console.PageEnvelope, error) {
	return g.cached.fetch(ctx, query, func() (*console.PageEnvelope, error) {
		filter := models.ComplaintFilter{
			Search:    query.Filters["search"],
			ClientID:  filterInt64(query.Filters, "client_id"),
			Status:    query.Filters["status"],
			Page:      query.Page,
			PageSize:  query.PerPage,
			SortBy:    query.Filters["sort_by"],
			SortOrder: query.Filters["sort_order"],
		}
		rows, pagination, err := g.service.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		items := make([]console.Entity, 0, len(rows))
		for _, row := range rows {
			items = append(items, console.Entity{
				ID:     row.ID,
				Status: string(row.Status),
				Flags: map[string]bool{
					"is_visible_to_client": row.VisibleToClient,
					"is_visible_to_guard":  row.VisibleToGuard,
				},
				Record: entityRecord(row),
			})
		}
		return &console.PageEnvelope{
			Items:       items,
			CurrentPage: pagination.Page,
			LastPage:    pagination.LastPage,
			Total:       pagination.TotalCount,
			PerPage:     pagination.PageSize,
		}, nil
	})
}

// Mutate applies either a status change or a visibility toggle.
func (g *ComplaintGateway) Mutate(ctx context.Context, id int64, change console.Mutation) (*console.Entity, error) {
	var updated *models.Complaint
	var err error
	switch {
	case change.Status != "":
		updated, err = g.service.ChangeStatus(ctx, id, models.ComplaintStatus(change.Status))
	case change.Flag != "":
		updated, err = g.service.SetVisibility(ctx, id, change.Flag, change.Value)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "empty complaint mutation")
	}
	if err != nil {
		return nil, err
	}
	return &console.Entity{
		ID:     updated.ID,
		Status: string(updated.Status),
		Flags: map[string]bool{
			"is_visible_to_client": updated.VisibleToClient,
			"is_visible_to_guard":  updated.VisibleToGuard,
		},
		Record: entityRecord(updated),
	}, nil
}

// Delete removes one complaint.
func (g *ComplaintGateway) Delete(ctx context.Context, id int64) error {
	return g.service.Delete(ctx, id)
}

// ExpenseGateway adapts the expense service to the console contract. The
// review decision plays the role of the status column.
type ExpenseGateway struct {
	service *ExpenseService
	cached  cachedFetch
}

// NewExpenseGateway constructs the expense gateway.
func NewExpenseGateway(service *ExpenseService, cache *CacheService, logger *zap.Logger) *ExpenseGateway {
	return &ExpenseGateway{service: service, cached: cachedFetch{cache: cache, kind: lifecycle.KindExpense, logger: logger}}
}

// Fetch loads one page of expense reviews for the console.
func (g *ExpenseGateway) Fetch(ctx context.Context, query console.Query) (*console.PageEnvelope, error) {
	return g.cached.fetch(ctx, query, func() (*console.PageEnvelope, error) {
		filter := models.ExpenseFilter{
			Search:    query.Filters["search"],
			GuardID:   filterInt64(query.Filters, "guard_id"),
			Decision:  query.Filters["decision"],
			Page:      query.Page,
			PageSize:  query.PerPage,
			SortBy:    query.Filters["sort_by"],
			SortOrder: query.Filters["sort_order"],
		}
		rows, pagination, err := g.service.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		items := make([]console.Entity, 0, len(rows))
		for _, row := range rows {
			items = append(items, console.Entity{
				ID:     row.ID,
				Status: string(row.Decision),
				Record: entityRecord(row),
			})
		}
		return &console.PageEnvelope{
			Items:       items,
			CurrentPage: pagination.Page,
			LastPage:    pagination.LastPage,
			Total:       pagination.TotalCount,
			PerPage:     pagination.PageSize,
		}, nil
	})
}

// Mutate records a review decision for one expense.
func (g *ExpenseGateway) Mutate(ctx context.Context, id int64, change console.Mutation) (*console.Entity, error) {
	if change.Status == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "expense reviews only support decision mutations")
	}
	updated, err := g.service.Decide(ctx, id, models.ExpenseDecision(change.Status), nil)
	if err != nil {
		return nil, err
	}
	return &console.Entity{ID: updated.ID, Status: string(updated.Decision), Record: entityRecord(updated)}, nil
}

// Delete removes one expense review.
func (g *ExpenseGateway) Delete(ctx context.Context, id int64) error {
	return g.service.Delete(ctx, id)
}
