// Package tenant manages the churches an operator can act on and which one
// is currently selected. Every tenant-scoped call reads the selection from
// here.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/harisonns09/ecclesia-manager-sub000/internal/apiclient"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/domain"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/storage"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/validation"
	"github.com/harisonns09/ecclesia-manager-sub000/pkg/logger"
)

// ErrNoActiveTenant is a precondition failure, never a network error
var ErrNoActiveTenant = apiclient.ErrNoActiveTenant

const basePath = "/igrejas"

// Resolver lists churches and owns the active selection
type Resolver struct {
	api   *apiclient.Client
	store storage.Store
	log   *logger.Logger

	mu     sync.Mutex
	active *domain.Church
	loaded bool
}

// NewResolver creates a Resolver backed by store
func NewResolver(api *apiclient.Client, store storage.Store, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.NewNop()
	}
	return &Resolver{api: api, store: store, log: log.Named("tenant")}
}

// List returns every church visible to the operator
func (r *Resolver) List(ctx context.Context) ([]domain.Church, error) {
	page, err := apiclient.GetList[domain.Church](ctx, r.api, basePath, nil)
	if err != nil {
		return nil, err
	}
	return page.Content, nil
}

// BySlug looks a church up for the public self-registration page
func (r *Resolver) BySlug(ctx context.Context, slug string) (*domain.Church, error) {
	var c domain.Church
	if err := r.api.Get(ctx, basePath+"/slug/"+url.PathEscape(slug), nil, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create validates draft and creates the church
func (r *Resolver) Create(ctx context.Context, draft domain.ChurchDraft) (*domain.Church, error) {
	if err := validation.Default().Check(&draft); err != nil {
		return nil, err
	}
	var c domain.Church
	if err := r.api.Post(ctx, basePath, draft, &c); err != nil {
		return nil, err
	}
	r.log.InfoContext(ctx, "church created", zap.Int64("id", c.ID), zap.String("slug", c.Slug))
	return &c, nil
}

// Update validates draft and updates the church. The stored selection is
// refreshed when the active church changes.
func (r *Resolver) Update(ctx context.Context, id int64, draft domain.ChurchDraft) (*domain.Church, error) {
	if err := validation.Default().Check(&draft); err != nil {
		return nil, err
	}
	var c domain.Church
	if err := r.api.Put(ctx, churchPath(id), nil, draft, &c); err != nil {
		return nil, err
	}
	if c.ID == 0 {
		c.ID = id
	}

	if active, ok, err := r.Active(ctx); err == nil && ok && active.ID == id {
		if err := r.Select(ctx, c); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

// Delete removes the church after confirmation. Deleting the active church
// clears the selection.
func (r *Resolver) Delete(ctx context.Context, id int64, confirm apiclient.Confirmer) error {
	if err := apiclient.Ask(ctx, confirm, "Excluir esta igreja e todos os seus dados?"); err != nil {
		return err
	}
	if err := r.api.Delete(ctx, churchPath(id), nil); err != nil {
		return err
	}

	active, ok, err := r.Active(ctx)
	if err != nil {
		return err
	}
	if ok && active.ID == id {
		return r.Clear(ctx)
	}
	return nil
}

// Select makes c the active church and persists the choice
func (r *Resolver) Select(ctx context.Context, c domain.Church) error {
	if c.ID == 0 {
		return errors.New("tenant: cannot select a church without id")
	}
	if err := storage.SetJSON(ctx, r.store, storage.KeyActiveTenant, c); err != nil {
		return fmt.Errorf("failed to persist active church: %w", err)
	}

	r.mu.Lock()
	r.active = &c
	r.loaded = true
	r.mu.Unlock()

	r.log.DebugContext(ctx, "church selected", zap.Int64("id", c.ID))
	return nil
}

// Clear drops the selection
func (r *Resolver) Clear(ctx context.Context) error {
	if err := r.store.Delete(ctx, storage.KeyActiveTenant); err != nil {
		return fmt.Errorf("failed to clear active church: %w", err)
	}
	r.mu.Lock()
	r.active = nil
	r.loaded = true
	r.mu.Unlock()
	return nil
}

// Active returns the selected church, loading it from storage on first use
func (r *Resolver) Active(ctx context.Context) (*domain.Church, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded {
		var c domain.Church
		err := storage.GetJSON(ctx, r.store, storage.KeyActiveTenant, &c)
		switch {
		case errors.Is(err, storage.ErrNotFound):
		case err != nil:
			return nil, false, err
		case c.ID != 0:
			r.active = &c
		}
		r.loaded = true
	}

	if r.active == nil {
		return nil, false, nil
	}
	c := *r.active
	return &c, true, nil
}

// ActiveID returns the id every tenant-scoped call needs
func (r *Resolver) ActiveID(ctx context.Context) (int64, error) {
	c, ok, err := r.Active(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNoActiveTenant
	}
	return c.ID, nil
}

func churchPath(id int64) string {
	return basePath + "/" + strconv.FormatInt(id, 10)
}
