package tenant

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harisonns09/ecclesia-manager-sub000/internal/apiclient"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/domain"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/fakeapi"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/storage"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/validation"
)

type staticSession string

func (s staticSession) Token() string                                      { return string(s) }
func (s staticSession) HandleUnauthorized(context.Context, string, string) {}

func setup(t *testing.T) (*Resolver, *fakeapi.Server, storage.Store) {
	t.Helper()
	srv := fakeapi.Start()
	t.Cleanup(srv.Close)
	srv.AddUser("admin@igreja.org", "segredo", "Admin", fakeapi.RoleAdmin)

	api := apiclient.New(apiclient.Options{BaseURL: srv.URL()})
	api.SetSession(staticSession(srv.IssueToken("admin@igreja.org")))
	store := storage.NewMemoryStore()
	return NewResolver(api, store, nil), srv, store
}

func TestResolver_NoSelection(t *testing.T) {
	r, srv, _ := setup(t)

	_, err := r.ActiveID(context.Background())
	require.ErrorIs(t, err, ErrNoActiveTenant)
	assert.Equal(t, apiclient.KindPrecondition, apiclient.KindOf(err))
	assert.Equal(t, 0, srv.TotalCalls())
}

func TestResolver_SelectPersists(t *testing.T) {
	r, srv, store := setup(t)
	ctx := context.Background()
	church := srv.AddChurch(domain.Church{Nome: "Igreja Central", Slug: "igreja-central"})

	require.NoError(t, r.Select(ctx, church))
	id, err := r.ActiveID(ctx)
	require.NoError(t, err)
	assert.Equal(t, church.ID, id)

	// a new resolver over the same store picks the selection up
	again := NewResolver(nil, store, nil)
	active, ok, err := again.Active(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "igreja-central", active.Slug)

	require.NoError(t, again.Clear(ctx))
	_, err = again.ActiveID(ctx)
	assert.ErrorIs(t, err, ErrNoActiveTenant)
}

func TestResolver_SelectWithoutID(t *testing.T) {
	r, _, _ := setup(t)
	assert.Error(t, r.Select(context.Background(), domain.Church{Nome: "Sem id"}))
}

func TestResolver_ListAndBySlug(t *testing.T) {
	r, srv, _ := setup(t)
	ctx := context.Background()
	srv.AddChurch(domain.Church{Nome: "Igreja Central", Slug: "igreja-central"})
	srv.AddChurch(domain.Church{Nome: "Igreja Norte", Slug: "igreja-norte"})

	list, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	c, err := r.BySlug(ctx, "igreja-norte")
	require.NoError(t, err)
	assert.Equal(t, "Igreja Norte", c.Nome)

	_, err = r.BySlug(ctx, "nao-existe")
	assert.Equal(t, apiclient.KindNotFound, apiclient.KindOf(err))
}

func TestResolver_CreateValidatesFirst(t *testing.T) {
	r, srv, _ := setup(t)

	_, err := r.Create(context.Background(), domain.ChurchDraft{Nome: "Ig", Slug: "Com Espaço"})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Map(), "nome")
	assert.Contains(t, verr.Map(), "slug")
	assert.Equal(t, 0, srv.Calls(http.MethodPost, "/igrejas"))

	c, err := r.Create(context.Background(), domain.ChurchDraft{Nome: "Igreja Nova", Slug: Slugify("Igreja Nova"), Estado: "sp"})
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
	assert.Equal(t, "SP", c.Estado)
}

func TestResolver_UpdateRefreshesActive(t *testing.T) {
	r, srv, _ := setup(t)
	ctx := context.Background()
	church := srv.AddChurch(domain.Church{Nome: "Igreja Central", Slug: "igreja-central"})
	require.NoError(t, r.Select(ctx, church))

	_, err := r.Update(ctx, church.ID, domain.ChurchDraft{Nome: "Igreja Central Renovada", Slug: "igreja-central"})
	require.NoError(t, err)

	active, ok, err := r.Active(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Igreja Central Renovada", active.Nome)
}

func TestResolver_Delete(t *testing.T) {
	r, srv, _ := setup(t)
	ctx := context.Background()
	church := srv.AddChurch(domain.Church{Nome: "Igreja Central", Slug: "igreja-central"})
	other := srv.AddChurch(domain.Church{Nome: "Igreja Norte", Slug: "igreja-norte"})
	require.NoError(t, r.Select(ctx, church))

	t.Run("declined sends nothing", func(t *testing.T) {
		err := r.Delete(ctx, church.ID, apiclient.NeverConfirm)
		require.ErrorIs(t, err, apiclient.ErrNotConfirmed)
		assert.Equal(t, 0, srv.Calls(http.MethodDelete, "/igrejas/:id"))
	})

	t.Run("other church keeps selection", func(t *testing.T) {
		require.NoError(t, r.Delete(ctx, other.ID, apiclient.AlwaysConfirm))
		id, err := r.ActiveID(ctx)
		require.NoError(t, err)
		assert.Equal(t, church.ID, id)
	})

	t.Run("active church clears selection", func(t *testing.T) {
		require.NoError(t, r.Delete(ctx, church.ID, apiclient.AlwaysConfirm))
		_, err := r.ActiveID(ctx)
		assert.ErrorIs(t, err, ErrNoActiveTenant)
	})
}
