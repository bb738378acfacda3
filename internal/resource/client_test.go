package resource

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harisonns09/ecclesia-manager-sub000/internal/apiclient"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/domain"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/fakeapi"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/validation"
)

type staticSession string

func (s staticSession) Token() string                                      { return string(s) }
func (s staticSession) HandleUnauthorized(context.Context, string, string) {}

func setup(t *testing.T) (*apiclient.Client, *fakeapi.Server, domain.Church) {
	t.Helper()
	srv := fakeapi.Start()
	t.Cleanup(srv.Close)
	srv.AddUser("admin@igreja.org", "segredo", "Admin", fakeapi.RoleAdmin)
	srv.SetClock(func() time.Time { return time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC) })

	api := apiclient.New(apiclient.Options{BaseURL: srv.URL()})
	api.SetSession(staticSession(srv.IssueToken("admin@igreja.org")))
	church := srv.AddChurch(domain.Church{Nome: "Igreja Central", Slug: "igreja-central"})
	return api, srv, church
}

func intPtr(v int) *int { return &v }

func TestFilters_Key(t *testing.T) {
	a := Filters{Search: "ana", Page: 1, Size: 20, BirthMonth: 3}
	b := Filters{BirthMonth: 3, Size: 20, Page: 1, Search: "ana"}
	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), Filters{Search: "ana"}.Key())
	assert.Equal(t, "", Filters{}.Key())

	zero := Filters{MinAge: intPtr(0)}
	assert.Equal(t, "idadeMin=0", zero.Key())
}

func TestClient_NoTenantSendsNothing(t *testing.T) {
	api, srv, _ := setup(t)
	ministries := NewMinistries(api, nil)
	ctx := context.Background()

	_, err := ministries.GetByTenant(ctx, 0, Filters{})
	assert.ErrorIs(t, err, ErrNoActiveTenant)
	_, err = ministries.Create(ctx, 0, domain.MinistryDraft{Nome: "Louvor"})
	assert.ErrorIs(t, err, ErrNoActiveTenant)
	_, err = ministries.Update(ctx, 0, 1, domain.MinistryDraft{Nome: "Louvor"})
	assert.ErrorIs(t, err, ErrNoActiveTenant)
	err = ministries.Delete(ctx, 0, 1, apiclient.AlwaysConfirm)
	assert.ErrorIs(t, err, ErrNoActiveTenant)

	assert.Equal(t, apiclient.KindPrecondition, apiclient.KindOf(err))
	assert.Equal(t, 0, srv.TotalCalls())
}

func TestClient_CRUD(t *testing.T) {
	api, srv, church := setup(t)
	ministries := NewMinistries(api, nil)
	ctx := context.Background()

	created, err := ministries.Create(ctx, church.ID, domain.MinistryDraft{Nome: "  Louvor ", Lider: "Ana"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Louvor", created.Nome)

	updated, err := ministries.Update(ctx, church.ID, created.ID, domain.MinistryDraft{Nome: "Louvor e Adoração"})
	require.NoError(t, err)
	assert.Equal(t, "Louvor e Adoração", updated.Nome)

	page, err := ministries.GetByTenant(ctx, church.ID, Filters{})
	require.NoError(t, err)
	require.Len(t, page.Content, 1)

	err = ministries.Delete(ctx, church.ID, created.ID, apiclient.NeverConfirm)
	require.ErrorIs(t, err, apiclient.ErrNotConfirmed)
	assert.Equal(t, 0, srv.Calls(http.MethodDelete, "/ministerios/:id"))

	require.NoError(t, ministries.Delete(ctx, church.ID, created.ID, apiclient.AlwaysConfirm))
	page, err = ministries.GetByTenant(ctx, church.ID, Filters{})
	require.NoError(t, err)
	assert.Empty(t, page.Content)
}

func TestClient_ValidatesBeforeRequest(t *testing.T) {
	api, srv, church := setup(t)
	scales := NewScales(api, nil)

	_, err := scales.Create(context.Background(), church.ID, domain.ScaleDraft{Titulo: "Culto", Voluntarios: []string{"Ana", " "}})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Map(), "data")
	assert.Contains(t, verr.Map(), "voluntarios[1]")
	assert.Equal(t, 0, srv.Calls(http.MethodPost, "/escalas/igreja/:id"))
}

func TestClient_OtherTenantIsNotFound(t *testing.T) {
	api, srv, church := setup(t)
	other := srv.AddChurch(domain.Church{Nome: "Outra", Slug: "outra"})
	id := srv.AddRecord("celulas", other.ID, domain.SmallGroup{Nome: "Célula Norte"})

	err := NewSmallGroups(api, nil).Delete(context.Background(), church.ID, id, apiclient.AlwaysConfirm)
	assert.Equal(t, apiclient.KindNotFound, apiclient.KindOf(err))
}

func TestMembers_Filters(t *testing.T) {
	api, srv, church := setup(t)
	members := NewMembers(api, nil)
	srv.AddRecord("membros", church.ID, domain.Member{Nome: "Ana", Status: domain.MemberActive, DataNascimento: domain.NewDate(1990, 3, 10)})
	srv.AddRecord("membros", church.ID, domain.Member{Nome: "Bruno", Status: domain.MemberInactive, DataNascimento: domain.NewDate(2010, 3, 2)})
	srv.AddRecord("membros", church.ID, domain.Member{Nome: "Carla", Status: domain.MemberActive, DataNascimento: domain.NewDate(1985, 7, 22)})

	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{"all", Filters{}, []string{"Ana", "Bruno", "Carla"}},
		{"birthday month", Filters{BirthMonth: 3}, []string{"Ana", "Bruno"}},
		{"status", Filters{Status: string(domain.MemberActive)}, []string{"Ana", "Carla"}},
		{"adults", Filters{MinAge: intPtr(18)}, []string{"Ana", "Carla"}},
		{"age range", Filters{MinAge: intPtr(30), MaxAge: intPtr(39)}, []string{"Ana"}},
		{"search", Filters{Search: "car"}, []string{"Carla"}},
		{"paged", Filters{Page: 0, Size: 2}, []string{"Ana", "Bruno"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := members.GetByTenant(context.Background(), church.ID, tt.filters)
			require.NoError(t, err)
			names := make([]string, 0, len(page.Content))
			for _, m := range page.Content {
				names = append(names, m.Nome)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestMembers_SelfRegister(t *testing.T) {
	api, srv, church := setup(t)
	members := NewMembers(api, nil)

	m, err := members.SelfRegister(context.Background(), church.Slug, domain.MemberDraft{
		Nome:           "Davi Lima",
		Telefone:       "(21) 98888-7777",
		DataNascimento: domain.NewDate(2000, 1, 5),
	})
	require.NoError(t, err)
	assert.Equal(t, church.ID, m.IgrejaID)
	assert.Equal(t, domain.MemberActive, m.Status)
	assert.Equal(t, "21988887777", m.Telefone)

	_, err = members.SelfRegister(context.Background(), "nao-existe", domain.MemberDraft{Nome: "Davi Lima", DataNascimento: domain.NewDate(2000, 1, 5)})
	assert.Equal(t, apiclient.KindNotFound, apiclient.KindOf(err))
	assert.Equal(t, 2, srv.Calls(http.MethodPost, "/membros/publico/:slug"))
}

func TestTransactions(t *testing.T) {
	api, _, church := setup(t)
	txs := NewTransactions(api, nil)
	ctx := context.Background()

	for _, d := range []domain.TransactionDraft{
		{Descricao: "Dízimos domingo", Tipo: domain.Income, Categoria: domain.CategoryTithe, Valor: decimal.RequireFromString("1500.50"), Data: domain.NewDate(2026, 6, 1)},
		{Descricao: "Oferta missões", Tipo: domain.Income, Categoria: domain.CategoryOffering, Valor: decimal.RequireFromString("200"), Data: domain.NewDate(2026, 6, 1)},
		{Descricao: "Aluguel junho", Tipo: domain.Expense, Categoria: domain.CategoryRent, Valor: decimal.RequireFromString("900"), Data: domain.NewDate(2026, 6, 5)},
	} {
		_, err := txs.Create(ctx, church.ID, d)
		require.NoError(t, err)
	}

	page, err := txs.GetByTenant(ctx, church.ID, Filters{})
	require.NoError(t, err)
	require.Len(t, page.Content, 3)

	sum := Summarize(page.Content)
	assert.Equal(t, "1700.5", sum.Income.String())
	assert.Equal(t, "900", sum.Expense.String())
	assert.Equal(t, "800.5", sum.Balance.String())
	assert.Equal(t, "-900", sum.ByCategory[domain.CategoryRent].String())
}

func TestPrayerRequests_PrayHasNoDedup(t *testing.T) {
	api, srv, church := setup(t)
	prayers := NewPrayerRequests(api, nil)
	ctx := context.Background()

	p, err := prayers.Create(ctx, church.ID, domain.PrayerRequestDraft{Pedido: "Pela saúde da família", Anonimo: true})
	require.NoError(t, err)
	assert.Equal(t, "Anônimo", p.DisplayName())
	assert.Zero(t, p.VezesOrado)

	var last *domain.PrayerRequest
	for i := 0; i < 3; i++ {
		last, err = prayers.Pray(ctx, p.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(3), last.VezesOrado)
	assert.Equal(t, 3, srv.Calls(http.MethodPost, "/pedidos-oracao/:id/orar"))
}

func TestEvents_Get(t *testing.T) {
	api, srv, church := setup(t)
	price := decimal.NewFromInt(120)
	e := srv.AddEvent(church.ID, domain.Event{Titulo: "Retiro", Data: domain.NewDate(2026, 9, 1), Preco: &price})

	got, err := NewEvents(api, nil).Get(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Retiro", got.Titulo)
	assert.True(t, price.Equal(got.FullPrice()))

	_, err = NewEvents(api, nil).Get(context.Background(), 9999)
	assert.Equal(t, apiclient.KindNotFound, apiclient.KindOf(err))
}

func TestVisitors_UnknownTenant(t *testing.T) {
	api, _, church := setup(t)
	_, err := NewVisitors(api, nil).Create(context.Background(), church.ID+100, domain.VisitorDraft{Nome: "Elisa", DataVisita: domain.NewDate(2026, 6, 1)})
	assert.Equal(t, apiclient.KindNotFound, apiclient.KindOf(err))
}
