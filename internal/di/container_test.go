package di

import (
	"context"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harisonns09/ecclesia-manager-sub000/internal/apiclient"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/domain"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/fakeapi"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/resource"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/session"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/storage"
	"github.com/harisonns09/ecclesia-manager-sub000/pkg/config"
)

type navigator struct {
	login   atomic.Int32
	landing atomic.Int32
}

func (n *navigator) ToLogin(context.Context)   { n.login.Add(1) }
func (n *navigator) ToLanding(context.Context) { n.landing.Add(1) }

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		App:     config.AppConfig{Name: "ecclesia-test", Environment: "test"},
		API:     config.APIConfig{BaseURL: baseURL, Timeout: 5 * time.Second},
		Kids:    config.KidsConfig{PollInterval: 30 * time.Second},
		Payment: config.PaymentConfig{Provider: "backend", Currency: "brl"},
	}
}

func TestNewContainer_UnknownProvider(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.Payment.Provider = "paypal"

	_, err := NewContainer(&ContainerConfig{Config: cfg, Store: storage.NewMemoryStore()})
	assert.Error(t, err)
}

func TestContainer_EndToEnd(t *testing.T) {
	srv := fakeapi.Start()
	t.Cleanup(srv.Close)
	srv.AddUser("admin@igreja.org", "segredo", "Admin", fakeapi.RoleAdmin)
	church := srv.AddChurch(domain.Church{Nome: "Igreja Central", Slug: "igreja-central"})

	nav := &navigator{}
	c, err := NewContainer(&ContainerConfig{
		Config:    testConfig(srv.URL()),
		Store:     storage.NewMemoryStore(),
		Navigator: nav,
	})
	require.NoError(t, err)
	ctx := context.Background()

	// nothing tenant-scoped works before a church is chosen
	_, err = c.NewRoster(ctx)
	assert.ErrorIs(t, err, apiclient.ErrNoActiveTenant)

	_, err = c.Session.Login(ctx, session.Credentials{Email: "admin@igreja.org", Senha: "segredo"})
	require.NoError(t, err)
	require.NoError(t, c.Tenants.Select(ctx, church))

	tenantID, err := c.ActiveTenantID(ctx)
	require.NoError(t, err)
	_, err = c.Ministries.Create(ctx, tenantID, domain.MinistryDraft{Nome: "Louvor"})
	require.NoError(t, err)
	page, err := c.Ministries.GetByTenant(ctx, tenantID, resource.Filters{})
	require.NoError(t, err)
	assert.Len(t, page.Content, 1)

	roster, err := c.NewRoster(ctx)
	require.NoError(t, err)
	require.NoError(t, roster.Refresh(ctx))

	// a revoked token sends the operator back to login once, church kept
	srv.RevokeTokens()
	_, err = c.Ministries.GetByTenant(ctx, tenantID, resource.Filters{})
	assert.Equal(t, apiclient.KindUnauthorized, apiclient.KindOf(err))
	assert.Equal(t, int32(1), nav.login.Load())
	assert.False(t, c.Session.IsAuthenticated())
	id, err := c.ActiveTenantID(ctx)
	require.NoError(t, err)
	assert.Equal(t, church.ID, id)
	assert.Equal(t, 1, srv.Calls(http.MethodPost, "/auth/login"))
}

func TestContainer_Privacy(t *testing.T) {
	c, err := NewContainer(&ContainerConfig{Config: testConfig("http://localhost"), Store: storage.NewMemoryStore()})
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := c.PrivacyAccepted(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.AcceptPrivacy(ctx))
	ok, err = c.PrivacyAccepted(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBuild_FileStore(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.Storage = config.StorageConfig{Driver: "file", Path: filepath.Join(t.TempDir(), "state.json")}
	cfg.Log = config.LogConfig{Level: "error", Output: "stderr"}
	ctx := context.Background()

	c, err := Build(ctx, cfg, nil)
	require.NoError(t, err)
	require.NoError(t, storage.SetJSON(ctx, c.Store, storage.KeyToken, "x"))
	require.NoError(t, c.Close(ctx))

	cfg.Storage.Driver = "etcd"
	_, err = Build(ctx, cfg, nil)
	assert.ErrorIs(t, err, storage.ErrUnknownDriver)
}
