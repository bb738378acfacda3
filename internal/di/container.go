package di

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/harisonns09/ecclesia-manager-sub000/internal/apiclient"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/domain"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/kids"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/listing"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/payment"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/registration"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/resource"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/session"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/storage"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/tenant"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/worker"
	"github.com/harisonns09/ecclesia-manager-sub000/pkg/config"
	"github.com/harisonns09/ecclesia-manager-sub000/pkg/logger"
	"github.com/harisonns09/ecclesia-manager-sub000/pkg/telemetry"
)

// Container holds all dependencies of the client
type Container struct {
	// Infrastructure
	Config  *config.Config
	Logger  *logger.Logger
	Metrics *telemetry.ClientMetrics
	Store   storage.Store
	API     *apiclient.Client
	Gateway payment.Gateway

	// Session and tenant
	Session *session.Holder
	Tenants *tenant.Resolver

	// Resources
	Members        *resource.Members
	Transactions   *resource.Transactions
	Ministries     *resource.Ministries
	Scales         *resource.Scales
	SmallGroups    *resource.SmallGroups
	PrayerRequests *resource.PrayerRequests
	Visitors       *resource.Visitors
	Events         *resource.Events

	// Workflows
	Registrations *registration.Service
	Kids          *kids.Service

	// Submits rejects a second submission of a control still in flight
	Submits *worker.Guard
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	Config    *config.Config
	Store     storage.Store
	Navigator session.Navigator
	Logger    *logger.Logger
	Metrics   *telemetry.ClientMetrics
	Transport http.RoundTripper
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) (*Container, error) {
	c := &Container{
		Config:  cfg.Config,
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
		Store:   cfg.Store,
	}
	if c.Logger == nil {
		c.Logger = logger.NewNop()
	}
	if c.Metrics == nil {
		c.Metrics = &telemetry.ClientMetrics{}
	}

	// Initialize transport
	c.API = apiclient.New(apiclient.Options{
		BaseURL:   cfg.Config.API.BaseURL,
		Timeout:   cfg.Config.API.Timeout,
		Transport: cfg.Transport,
		Logger:    c.Logger,
		Metrics:   c.Metrics,
	})
	gateway, err := payment.New(&cfg.Config.Payment, c.API)
	if err != nil {
		return nil, err
	}
	c.Gateway = gateway

	// Initialize session and tenant
	c.Session = session.New(c.API, c.Store, cfg.Navigator,
		session.WithLogger(c.Logger),
		session.WithMetrics(c.Metrics),
	)
	c.Tenants = tenant.NewResolver(c.API, c.Store, c.Logger)

	// Initialize resources
	c.Members = resource.NewMembers(c.API, c.Logger)
	c.Transactions = resource.NewTransactions(c.API, c.Logger)
	c.Ministries = resource.NewMinistries(c.API, c.Logger)
	c.Scales = resource.NewScales(c.API, c.Logger)
	c.SmallGroups = resource.NewSmallGroups(c.API, c.Logger)
	c.PrayerRequests = resource.NewPrayerRequests(c.API, c.Logger)
	c.Visitors = resource.NewVisitors(c.API, c.Logger)
	c.Events = resource.NewEvents(c.API, c.Logger)

	// Initialize workflows
	c.Registrations = registration.NewService(c.API, registration.Config{
		Gateway:  c.Gateway,
		Currency: cfg.Config.Payment.Currency,
		Logger:   c.Logger,
		Metrics:  c.Metrics,
	})
	c.Kids = kids.NewService(c.API, c.Logger, c.Metrics)
	c.Submits = worker.NewGuard()

	return c, nil
}

// Build wires a container from configuration: logger, telemetry, metrics
// and the configured store. The stored session is restored.
func Build(ctx context.Context, cfg *config.Config, nav session.Navigator) (*Container, error) {
	log, err := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
		OutputPath:  cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		return nil, fmt.Errorf("failed to init telemetry: %w", err)
	}
	metrics, err := telemetry.NewClientMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	c, err := NewContainer(&ContainerConfig{
		Config:    cfg,
		Store:     store,
		Navigator: nav,
		Logger:    log,
		Metrics:   metrics,
	})
	if err != nil {
		closeStore(store)
		return nil, err
	}
	if err := c.Session.Restore(ctx); err != nil {
		closeStore(store)
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	return c, nil
}

// Close releases the store and flushes telemetry and logs
func (c *Container) Close(ctx context.Context) error {
	closeStore(c.Store)
	err := telemetry.Shutdown(ctx)
	_ = c.Logger.Sync()
	return err
}

// ActiveTenantID is the church every tenant-scoped call uses
func (c *Container) ActiveTenantID(ctx context.Context) (int64, error) {
	return c.Tenants.ActiveID(ctx)
}

// PrivacyAccepted reports whether the privacy notice was acknowledged on
// this device
func (c *Container) PrivacyAccepted(ctx context.Context) (bool, error) {
	return storage.Flag(ctx, c.Store, storage.KeyPrivacyAccepted)
}

func (c *Container) AcceptPrivacy(ctx context.Context) error {
	return storage.SetFlag(ctx, c.Store, storage.KeyPrivacyAccepted, true)
}

// NewRoster creates a kids roster for the active church polling at the
// configured interval
func (c *Container) NewRoster(ctx context.Context) (*kids.Roster, error) {
	tenantID, err := c.ActiveTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return kids.NewRoster(c.Kids, tenantID, c.Config.Kids.PollInterval, c.Logger), nil
}

func closeStore(s storage.Store) {
	if closer, ok := s.(io.Closer); ok {
		_ = closer.Close()
	}
}

// MemberSearch is the members screen's search-as-you-type box
type MemberSearch = listing.SearchBox[resource.Scoped, domain.Member]

// NewMemberSearch binds a search box over the active church's members.
// Typed text is fetched once the configured debounce elapses; base carries
// the other active filters.
func (c *Container) NewMemberSearch(ctx context.Context, base resource.Filters) (*MemberSearch, *listing.Query[resource.Scoped, domain.Member], error) {
	tenantID, err := c.ActiveTenantID(ctx)
	if err != nil {
		return nil, nil, err
	}
	if base.Size == 0 {
		base.Size = c.Config.Search.PageSize
	}
	query := listing.NewQuery(c.Members.Fetch)
	build := func(text string) resource.Scoped {
		f := base
		f.Search = text
		return resource.Scoped{TenantID: tenantID, Filters: f}
	}
	return listing.NewSearchBox(query, build, c.Config.Search.Debounce, c.Logger), query, nil
}
