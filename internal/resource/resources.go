package resource

import (
	"context"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/harisonns09/ecclesia-manager-sub000/internal/apiclient"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/domain"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/validation"
	"github.com/harisonns09/ecclesia-manager-sub000/pkg/logger"
	"github.com/harisonns09/ecclesia-manager-sub000/pkg/response"
)

type (
	Ministries  = Client[domain.Ministry, domain.MinistryDraft]
	Scales      = Client[domain.Scale, domain.ScaleDraft]
	SmallGroups = Client[domain.SmallGroup, domain.SmallGroupDraft]
	Visitors    = Client[domain.Visitor, domain.VisitorDraft]
)

func NewMinistries(api *apiclient.Client, log *logger.Logger) *Ministries {
	return NewClient[domain.Ministry, domain.MinistryDraft](api, "ministerios", "este ministério", log)
}

func NewScales(api *apiclient.Client, log *logger.Logger) *Scales {
	return NewClient[domain.Scale, domain.ScaleDraft](api, "escalas", "esta escala", log)
}

func NewSmallGroups(api *apiclient.Client, log *logger.Logger) *SmallGroups {
	return NewClient[domain.SmallGroup, domain.SmallGroupDraft](api, "celulas", "esta célula", log)
}

func NewVisitors(api *apiclient.Client, log *logger.Logger) *Visitors {
	return NewClient[domain.Visitor, domain.VisitorDraft](api, "visitantes", "este visitante", log)
}

// Members adds public self-registration to the member client
type Members struct {
	*Client[domain.Member, domain.MemberDraft]
}

func NewMembers(api *apiclient.Client, log *logger.Logger) *Members {
	return &Members{NewClient[domain.Member, domain.MemberDraft](api, "membros", "este membro", log)}
}

// SelfRegister signs a member up through the church's public page. No
// session is needed.
func (m *Members) SelfRegister(ctx context.Context, slug string, draft domain.MemberDraft) (*domain.Member, error) {
	if err := validation.Default().Check(&draft); err != nil {
		return nil, err
	}
	var out domain.Member
	if err := m.api.Post(ctx, "/membros/publico/"+url.PathEscape(slug), draft, &out); err != nil {
		return nil, err
	}
	m.log.InfoContext(ctx, "member self-registered", zap.String("slug", slug), zap.Int64("id", out.ID))
	return &out, nil
}

// Transactions is the finance ledger. Entries are never edited or deleted.
type Transactions struct {
	c *Client[domain.Transaction, domain.TransactionDraft]
}

func NewTransactions(api *apiclient.Client, log *logger.Logger) *Transactions {
	return &Transactions{NewClient[domain.Transaction, domain.TransactionDraft](api, "transacoes", "esta transação", log)}
}

func (t *Transactions) GetByTenant(ctx context.Context, tenantID int64, f Filters) (response.Page[domain.Transaction], error) {
	return t.c.GetByTenant(ctx, tenantID, f)
}

func (t *Transactions) Create(ctx context.Context, tenantID int64, draft domain.TransactionDraft) (*domain.Transaction, error) {
	return t.c.Create(ctx, tenantID, draft)
}

// Summary is the cash position of a set of ledger entries
type Summary struct {
	Income     decimal.Decimal
	Expense    decimal.Decimal
	Balance    decimal.Decimal
	ByCategory map[domain.TransactionCategory]decimal.Decimal
}

// Summarize totals entries by type and category
func Summarize(txs []domain.Transaction) Summary {
	s := Summary{
		Income:     decimal.Zero,
		Expense:    decimal.Zero,
		Balance:    decimal.Zero,
		ByCategory: make(map[domain.TransactionCategory]decimal.Decimal),
	}
	for _, tx := range txs {
		if tx.Tipo == domain.Expense {
			s.Expense = s.Expense.Add(tx.Valor)
		} else {
			s.Income = s.Income.Add(tx.Valor)
		}
		s.Balance = s.Balance.Add(tx.Signed())
		s.ByCategory[tx.Categoria] = s.ByCategory[tx.Categoria].Add(tx.Signed())
	}
	return s
}

// PrayerRequests adds the public prayed counter
type PrayerRequests struct {
	*Client[domain.PrayerRequest, domain.PrayerRequestDraft]
}

func NewPrayerRequests(api *apiclient.Client, log *logger.Logger) *PrayerRequests {
	return &PrayerRequests{NewClient[domain.PrayerRequest, domain.PrayerRequestDraft](api, "pedidos-oracao", "este pedido de oração", log)}
}

// Pray increments the prayed counter. Every call counts, including repeats
// by the same viewer.
func (p *PrayerRequests) Pray(ctx context.Context, id int64) (*domain.PrayerRequest, error) {
	var out domain.PrayerRequest
	if err := p.api.Post(ctx, p.recordPath(id)+"/orar", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Events adds public lookup by id
type Events struct {
	*Client[domain.Event, domain.EventDraft]
}

func NewEvents(api *apiclient.Client, log *logger.Logger) *Events {
	return &Events{NewClient[domain.Event, domain.EventDraft](api, "eventos", "este evento", log)}
}

func (e *Events) Get(ctx context.Context, id int64) (*domain.Event, error) {
	var out domain.Event
	if err := e.api.Get(ctx, "/eventos/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
