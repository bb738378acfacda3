package kids

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

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

func setup(t *testing.T) (*Service, *fakeapi.Server, domain.Church) {
	t.Helper()
	srv := fakeapi.Start()
	t.Cleanup(srv.Close)
	srv.AddUser("admin@igreja.org", "segredo", "Admin", fakeapi.RoleAdmin)
	church := srv.AddChurch(domain.Church{Nome: "Igreja Central", Slug: "igreja-central"})

	api := apiclient.New(apiclient.Options{BaseURL: srv.URL()})
	api.SetSession(staticSession(srv.IssueToken("admin@igreja.org")))
	return NewService(api, nil, nil), srv, church
}

func validDraft() domain.KidsCheckInDraft {
	return domain.KidsCheckInDraft{
		NomeCrianca:         "Lia Souza",
		NomeResponsavel:     "Paula Souza",
		TelefoneResponsavel: "(11) 98888-7777",
	}
}

func TestCheckIn(t *testing.T) {
	svc, srv, church := setup(t)

	s, err := svc.CheckIn(context.Background(), church.ID, validDraft())
	require.NoError(t, err)
	assert.Len(t, s.CodigoSeguranca, 6)
	assert.Equal(t, "11988887777", s.TelefoneResponsavel)
	assert.False(t, s.DataEntrada.IsZero())
	assert.True(t, s.Active())

	stored, ok := srv.KidsSession(s.ID)
	require.True(t, ok)
	assert.Equal(t, s.CodigoSeguranca, stored.CodigoSeguranca)
}

func TestCheckIn_Validation(t *testing.T) {
	svc, srv, church := setup(t)

	tests := []struct {
		name   string
		mutate func(d *domain.KidsCheckInDraft)
		field  string
	}{
		{"short child name", func(d *domain.KidsCheckInDraft) { d.NomeCrianca = "Jo" }, "nomeCrianca"},
		{"short guardian name", func(d *domain.KidsCheckInDraft) { d.NomeResponsavel = " Al " }, "nomeResponsavel"},
		{"short phone", func(d *domain.KidsCheckInDraft) { d.TelefoneResponsavel = "119999" }, "telefoneResponsavel"},
		{"phone letters only", func(d *domain.KidsCheckInDraft) { d.TelefoneResponsavel = "telefone" }, "telefoneResponsavel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)
			_, err := svc.CheckIn(context.Background(), church.ID, d)
			var verr *validation.Error
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Map(), tt.field)
		})
	}
	assert.Equal(t, 0, srv.Calls(http.MethodPost, "/kids/igreja/:id/checkin"))
}

func TestCheckIn_NoTenant(t *testing.T) {
	svc, srv, _ := setup(t)
	_, err := svc.CheckIn(context.Background(), 0, validDraft())
	assert.ErrorIs(t, err, apiclient.ErrNoActiveTenant)
	assert.Equal(t, 0, srv.TotalCalls())
}

func TestCheckOut(t *testing.T) {
	svc, srv, church := setup(t)
	ctx := context.Background()
	s, err := svc.CheckIn(ctx, church.ID, validDraft())
	require.NoError(t, err)

	t.Run("declined sends nothing", func(t *testing.T) {
		err := svc.CheckOut(ctx, church.ID, s.ID, apiclient.NeverConfirm)
		assert.ErrorIs(t, err, apiclient.ErrNotConfirmed)
		assert.Equal(t, 0, srv.Calls(http.MethodDelete, "/kids/:id/checkout"))
	})

	t.Run("nil confirmer declines", func(t *testing.T) {
		assert.ErrorIs(t, svc.CheckOut(ctx, church.ID, s.ID, nil), apiclient.ErrNotConfirmed)
	})

	t.Run("confirmed", func(t *testing.T) {
		require.NoError(t, svc.CheckOut(ctx, church.ID, s.ID, apiclient.AlwaysConfirm))
		active, err := svc.ListActive(ctx, church.ID)
		require.NoError(t, err)
		assert.Empty(t, active)
	})

	t.Run("twice is a conflict", func(t *testing.T) {
		err := svc.CheckOut(ctx, church.ID, s.ID, apiclient.AlwaysConfirm)
		assert.Equal(t, apiclient.KindConflict, apiclient.KindOf(err))
	})

	t.Run("other church", func(t *testing.T) {
		other, err := svc.CheckIn(ctx, church.ID, validDraft())
		require.NoError(t, err)
		err = svc.CheckOut(ctx, church.ID+1000, other.ID, apiclient.AlwaysConfirm)
		assert.Equal(t, apiclient.KindNotFound, apiclient.KindOf(err))
	})
}

func TestRoster_PollsWhileStarted(t *testing.T) {
	svc, srv, church := setup(t)
	ctx := context.Background()

	roster := NewRoster(svc, church.ID, 20*time.Millisecond, nil)
	var refreshes atomic.Int32
	roster.OnChange(func([]domain.KidsCheckIn) { refreshes.Add(1) })

	require.NoError(t, roster.Start(ctx))
	require.Eventually(t, func() bool { return refreshes.Load() >= 1 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, roster.Sessions())

	// a check-in made elsewhere appears within an interval
	s, err := svc.CheckIn(ctx, church.ID, validDraft())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(roster.Sessions()) == 1 }, time.Second, 5*time.Millisecond)

	found, ok := roster.FindByCode(s.CodigoSeguranca)
	require.True(t, ok)
	assert.Equal(t, s.ID, found.ID)
	assert.False(t, roster.Updated().IsZero())

	roster.Stop()
	assert.False(t, roster.Running())
	calls := srv.Calls(http.MethodGet, "/kids/igreja/:id/ativos")
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, calls, srv.Calls(http.MethodGet, "/kids/igreja/:id/ativos"))
}

func TestRoster_CheckOutDropsLocally(t *testing.T) {
	svc, _, church := setup(t)
	ctx := context.Background()
	a, err := svc.CheckIn(ctx, church.ID, validDraft())
	require.NoError(t, err)
	_, err = svc.CheckIn(ctx, church.ID, validDraft())
	require.NoError(t, err)

	roster := NewRoster(svc, church.ID, time.Hour, nil)
	require.NoError(t, roster.Refresh(ctx))
	require.Len(t, roster.Sessions(), 2)

	var prompt string
	confirm := apiclient.ConfirmFunc(func(_ context.Context, p string) bool {
		prompt = p
		return true
	})
	require.NoError(t, roster.CheckOut(ctx, *a, confirm))
	assert.Contains(t, prompt, a.CodigoSeguranca)
	assert.Len(t, roster.Sessions(), 1)
}

// heldTransport delays the active-list response until released
type heldTransport struct {
	hold     atomic.Bool
	received chan struct{}
	release  chan struct{}
}

func (h *heldTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	resp, err := http.DefaultTransport.RoundTrip(r)
	if r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/ativos") && h.hold.Load() {
		h.received <- struct{}{}
		<-h.release
	}
	return resp, err
}

func TestRoster_RefreshInFlightDuringCheckOut(t *testing.T) {
	_, srv, church := setup(t)
	ctx := context.Background()

	held := &heldTransport{received: make(chan struct{}), release: make(chan struct{})}
	api := apiclient.New(apiclient.Options{BaseURL: srv.URL(), Transport: held})
	api.SetSession(staticSession(srv.IssueToken("admin@igreja.org")))
	svc := NewService(api, nil, nil)

	a, err := svc.CheckIn(ctx, church.ID, validDraft())
	require.NoError(t, err)
	_, err = svc.CheckIn(ctx, church.ID, validDraft())
	require.NoError(t, err)

	roster := NewRoster(svc, church.ID, time.Hour, nil)
	require.NoError(t, roster.Refresh(ctx))
	require.Len(t, roster.Sessions(), 2)

	held.hold.Store(true)
	refreshed := make(chan error, 1)
	go func() { refreshed <- roster.Refresh(ctx) }()
	<-held.received

	// the held list still has both children
	require.NoError(t, roster.CheckOut(ctx, *a, apiclient.AlwaysConfirm))
	require.Len(t, roster.Sessions(), 1)

	close(held.release)
	require.NoError(t, <-refreshed)
	require.Len(t, roster.Sessions(), 1)
	_, ok := roster.FindByCode(a.CodigoSeguranca)
	assert.False(t, ok, "checked-out child must not come back")

	held.hold.Store(false)
	require.NoError(t, roster.Refresh(ctx))
	assert.Len(t, roster.Sessions(), 1)
}

func TestRoster_FailureKeepsList(t *testing.T) {
	svc, srv, church := setup(t)
	ctx := context.Background()
	_, err := svc.CheckIn(ctx, church.ID, validDraft())
	require.NoError(t, err)

	roster := NewRoster(svc, church.ID, time.Hour, nil)
	require.NoError(t, roster.Refresh(ctx))

	srv.Close()
	require.Error(t, roster.Refresh(ctx))
	assert.Equal(t, apiclient.KindNetwork, apiclient.KindOf(roster.LastError()))
	assert.Len(t, roster.Sessions(), 1)
}

func TestFormatPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"11988887777", "(11) 98888-7777"},
		{"1133334444", "(11) 3333-4444"},
		{"(21) 3333-4444", "(21) 3333-4444"},
		{"5511988887777", "(11) 98888-7777"},
		{"551133334444", "(11) 3333-4444"},
		{"12345", "12345"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPhone(tt.in))
		})
	}
}

func TestRenderLabel(t *testing.T) {
	now := time.Date(2026, 4, 5, 10, 30, 0, 0, time.UTC)
	s := domain.KidsCheckIn{
		NomeCrianca:         "Lia Souza",
		NomeResponsavel:     "Paula Souza",
		TelefoneResponsavel: "11988887777",
		CodigoSeguranca:     "K7M2QX",
	}

	var buf bytes.Buffer
	require.NoError(t, RenderLabel(&buf, NewLabel(s, now)))
	out := buf.String()
	assert.Contains(t, out, "Lia Souza")
	assert.Contains(t, out, "K7M2QX")
	assert.Contains(t, out, "Paula Souza")
	assert.Contains(t, out, "(11) 98888-7777")
	assert.Contains(t, out, "05/04/2026 10:30")
	assert.NotContains(t, out, "ALERGIAS")

	s.Alergias = "  amendoim "
	buf.Reset()
	require.NoError(t, RenderLabel(&buf, NewLabel(s, now)))
	assert.Contains(t, buf.String(), "ALERGIAS: amendoim\n")
}
