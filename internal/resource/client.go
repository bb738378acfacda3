// Package resource holds the tenant-scoped CRUD clients: members, finance,
// ministries, scales, small groups, prayer requests, visitors and events.
package resource

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/harisonns09/ecclesia-manager-sub000/internal/apiclient"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/validation"
	"github.com/harisonns09/ecclesia-manager-sub000/pkg/logger"
	"github.com/harisonns09/ecclesia-manager-sub000/pkg/response"
)

// ErrNoActiveTenant is returned before any request when no church is given
var ErrNoActiveTenant = apiclient.ErrNoActiveTenant

// Filters narrow a tenant listing. Zero values are omitted.
type Filters struct {
	Page   int
	Size   int
	Search string
	Status string

	// members only
	BirthMonth int
	MinAge     *int
	MaxAge     *int
}

// Values encodes the filters as the backend's query parameters
func (f Filters) Values() url.Values {
	q := url.Values{}
	if f.Page > 0 || f.Size > 0 {
		q.Set("page", strconv.Itoa(f.Page))
		q.Set("size", strconv.Itoa(f.Size))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.BirthMonth > 0 {
		q.Set("mesAniversario", strconv.Itoa(f.BirthMonth))
	}
	if f.MinAge != nil {
		q.Set("idadeMin", strconv.Itoa(*f.MinAge))
	}
	if f.MaxAge != nil {
		q.Set("idadeMax", strconv.Itoa(*f.MaxAge))
	}
	return q
}

// Key identifies a filter combination. Two filters with the same Key
// request the same data.
func (f Filters) Key() string {
	return f.Values().Encode()
}

// Client is the CRUD client of one resource. E is what the backend returns,
// D what it accepts on create and update.
type Client[E any, D any] struct {
	api   *apiclient.Client
	name  string
	label string
	log   *logger.Logger
}

// NewClient creates a client for the resource served under /{name}. label
// names one record in confirmation prompts.
func NewClient[E any, D any](api *apiclient.Client, name, label string, log *logger.Logger) *Client[E, D] {
	if log == nil {
		log = logger.NewNop()
	}
	return &Client[E, D]{api: api, name: name, label: label, log: log.Named(name)}
}

// Name returns the resource path segment
func (c *Client[E, D]) Name() string {
	return c.name
}

// GetByTenant lists the tenant's records
func (c *Client[E, D]) GetByTenant(ctx context.Context, tenantID int64, f Filters) (response.Page[E], error) {
	if tenantID == 0 {
		return response.Page[E]{}, ErrNoActiveTenant
	}
	return apiclient.GetList[E](ctx, c.api, c.tenantPath(tenantID), f.Values())
}

// Create validates draft and creates the record under tenantID
func (c *Client[E, D]) Create(ctx context.Context, tenantID int64, draft D) (*E, error) {
	if tenantID == 0 {
		return nil, ErrNoActiveTenant
	}
	if err := validation.Default().Check(&draft); err != nil {
		return nil, err
	}
	var out E
	if err := c.api.Post(ctx, c.tenantPath(tenantID), draft, &out); err != nil {
		return nil, err
	}
	c.log.DebugContext(ctx, "created", zap.Int64("tenant_id", tenantID))
	return &out, nil
}

// Update validates draft and replaces the record
func (c *Client[E, D]) Update(ctx context.Context, tenantID, id int64, draft D) (*E, error) {
	if tenantID == 0 {
		return nil, ErrNoActiveTenant
	}
	if err := validation.Default().Check(&draft); err != nil {
		return nil, err
	}
	var out E
	if err := c.api.Put(ctx, c.recordPath(id), tenantQuery(tenantID), draft, &out); err != nil {
		return nil, err
	}
	c.log.DebugContext(ctx, "updated", zap.Int64("tenant_id", tenantID), zap.Int64("id", id))
	return &out, nil
}

// Delete removes the record once confirm approves
func (c *Client[E, D]) Delete(ctx context.Context, tenantID, id int64, confirm apiclient.Confirmer) error {
	if tenantID == 0 {
		return ErrNoActiveTenant
	}
	if err := apiclient.Ask(ctx, confirm, fmt.Sprintf("Excluir %s?", c.label)); err != nil {
		return err
	}
	if err := c.api.Delete(ctx, c.recordPath(id), tenantQuery(tenantID)); err != nil {
		return err
	}
	c.log.InfoContext(ctx, "deleted", zap.Int64("tenant_id", tenantID), zap.Int64("id", id))
	return nil
}

func (c *Client[E, D]) tenantPath(tenantID int64) string {
	return "/" + c.name + "/igreja/" + strconv.FormatInt(tenantID, 10)
}

func (c *Client[E, D]) recordPath(id int64) string {
	return "/" + c.name + "/" + strconv.FormatInt(id, 10)
}

func tenantQuery(tenantID int64) url.Values {
	return url.Values{"igrejaId": {strconv.FormatInt(tenantID, 10)}}
}

// Scoped pairs filters with the church they apply to, so listings of two
// churches never share a key
type Scoped struct {
	TenantID int64
	Filters
}

func (s Scoped) Key() string {
	return strconv.FormatInt(s.TenantID, 10) + "?" + s.Filters.Key()
}

// Fetch adapts the client to listing.Query
func (c *Client[E, D]) Fetch(ctx context.Context, s Scoped) (response.Page[E], error) {
	return c.GetByTenant(ctx, s.TenantID, s.Filters)
}
