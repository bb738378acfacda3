package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/harisonns09/ecclesia-manager-sub000/internal/apiclient"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/domain"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/kids"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/registration"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/resource"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/tenant"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/worker"
)

var (
	errUnknownCode         = apiclient.Precondition("Código de segurança não encontrado entre as crianças presentes.")
	errUnknownRegistration = apiclient.Precondition("Inscrição não encontrada neste evento.")
	errUnknownChurch       = apiclient.Precondition("Igreja não encontrada.")
	errInFlight            = apiclient.Precondition("Esta operação já está em andamento.")
)

// submit runs fn unless the same control is still being submitted
func (cli *commandLine) submit(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	err := cli.c.Submits.Do(ctx, key, fn)
	if errors.Is(err, worker.ErrInFlight) {
		return errInFlight
	}
	return err
}

// churchFlags binds the editable church fields
func churchFlags(fs *flag.FlagSet, draft *domain.ChurchDraft) {
	fs.StringVar(&draft.Nome, "nome", "", "Name of the church.")
	fs.StringVar(&draft.Slug, "slug", "", "Public slug. Derived from the name when empty.")
	fs.StringVar(&draft.Cidade, "cidade", "", "City.")
	fs.StringVar(&draft.Estado, "estado", "", "Two-letter state.")
	fs.StringVar(&draft.Cep, "cep", "", "Postal code.")
}

func (cli *commandLine) churches(ctx context.Context, args []string) error {
	sub, args, err := cli.subcommand(args)
	if err != nil {
		return err
	}

	switch sub {
	case "list":
		churches, err := cli.c.Tenants.List(ctx)
		if err != nil {
			return err
		}
		active, _, _ := cli.c.Tenants.Active(ctx)
		w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "\tID\tNOME\tSLUG\tCIDADE")
		for _, ch := range churches {
			mark := ""
			if active != nil && active.ID == ch.ID {
				mark = "*"
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", mark, ch.ID, ch.Nome, ch.Slug, ch.Cidade)
		}
		return w.Flush()

	case "select":
		fs := cli.flagSet("churches select")
		slug := fs.String("slug", "", "Slug of the church to work on.")
		if err := fs.Parse(args); err != nil || *slug == "" {
			fs.Usage()
			return errHelp
		}
		ch, err := cli.c.Tenants.BySlug(ctx, *slug)
		if err != nil {
			return err
		}
		if err := cli.c.Tenants.Select(ctx, *ch); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "Igreja ativa: %s\n", ch.Nome)
		return nil

	case "create":
		fs := cli.flagSet("churches create")
		draft := domain.ChurchDraft{}
		churchFlags(fs, &draft)
		if err := fs.Parse(args); err != nil {
			return errHelp
		}
		slug := tenant.NewSlugField(draft.Slug)
		slug.SetName(draft.Nome)
		draft.Slug = slug.Value()

		ch, err := cli.c.Tenants.Create(ctx, draft)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "Igreja criada: %s (%s)\n", ch.Nome, ch.Slug)
		return nil

	case "update":
		fs := cli.flagSet("churches update")
		id := fs.Int64("id", 0, "Church id.")
		patch := domain.ChurchDraft{}
		churchFlags(fs, &patch)
		if err := fs.Parse(args); err != nil || *id == 0 {
			fs.Usage()
			return errHelp
		}
		current, err := cli.church(ctx, *id)
		if err != nil {
			return err
		}
		// unset flags keep the stored values; the slug only changes when given
		draft := domain.ChurchDraft{
			Nome:        firstNonEmpty(patch.Nome, current.Nome),
			Slug:        firstNonEmpty(patch.Slug, current.Slug),
			Endereco:    current.Endereco,
			Cidade:      firstNonEmpty(patch.Cidade, current.Cidade),
			Estado:      firstNonEmpty(patch.Estado, current.Estado),
			Cep:         firstNonEmpty(patch.Cep, current.Cep),
			CorPrimaria: current.CorPrimaria,
		}
		ch, err := cli.c.Tenants.Update(ctx, *id, draft)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "Igreja atualizada: %s (%s)\n", ch.Nome, ch.Slug)
		return nil

	case "delete":
		fs := cli.flagSet("churches delete")
		id := fs.Int64("id", 0, "Church id.")
		if err := fs.Parse(args); err != nil || *id == 0 {
			fs.Usage()
			return errHelp
		}
		if _, err := cli.church(ctx, *id); err != nil {
			return err
		}
		if err := cli.c.Tenants.Delete(ctx, *id, cli.confirmer()); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "Igreja %d excluída.\n", *id)
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}

// church finds a church the operator can see
func (cli *commandLine) church(ctx context.Context, id int64) (domain.Church, error) {
	churches, err := cli.c.Tenants.List(ctx)
	if err != nil {
		return domain.Church{}, err
	}
	for _, ch := range churches {
		if ch.ID == id {
			return ch, nil
		}
	}
	return domain.Church{}, errUnknownChurch
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (cli *commandLine) events(ctx context.Context, args []string) error {
	sub, _, err := cli.subcommand(args)
	if err != nil {
		return err
	}
	if sub != "list" {
		cli.printUsage()
		return errHelp
	}

	tenantID, err := cli.c.ActiveTenantID(ctx)
	if err != nil {
		return err
	}
	page, err := cli.c.Events.GetByTenant(ctx, tenantID, resource.Filters{})
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTÍTULO\tDATA\tPREÇO\tPROMOCIONAL")
	for _, e := range page.Content {
		promo := "-"
		if p, ok := e.PromotionalPrice(); ok {
			promo = p.StringFixed(2)
		}
		price := "grátis"
		if !e.IsFree() {
			price = e.FullPrice().StringFixed(2)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.Titulo, e.Data.Format("02/01/2006"), price, promo)
	}
	return w.Flush()
}

// registrationTarget loads the event and one of its registrations
func (cli *commandLine) registrationTarget(ctx context.Context, eventID int64, numero string) (*domain.Event, registration.Registration, error) {
	event, err := cli.c.Events.Get(ctx, eventID)
	if err != nil {
		return nil, registration.Registration{}, err
	}
	if _, err := cli.c.Registrations.List(ctx, eventID); err != nil {
		return nil, registration.Registration{}, err
	}
	reg, err := cli.c.Registrations.Board().Get(eventID, numero)
	if err != nil {
		return nil, registration.Registration{}, errUnknownRegistration
	}
	return event, reg, nil
}

func (cli *commandLine) registrations(ctx context.Context, args []string) error {
	sub, args, err := cli.subcommand(args)
	if err != nil {
		return err
	}

	fs := cli.flagSet("registrations " + sub)
	eventID := fs.Int64("event", 0, "Event id.")
	numero := fs.String("numero", "", "Registration number.")
	tipo := fs.String("tipo", "", "Amount type: INTEGRAL or PROMOCIONAL.")
	forma := fs.String("forma", "", "Payment method: DINHEIRO, PIX, CARTAO or ONLINE.")
	attendee := registration.Attendee{}
	fs.StringVar(&attendee.Nome, "nome", "", "Attendee name.")
	fs.StringVar(&attendee.Email, "email", "", "Attendee e-mail.")
	fs.StringVar(&attendee.Telefone, "telefone", "", "Attendee phone.")
	fs.BoolVar(&attendee.Consentimento, "consent", false, "The attendee accepts the privacy terms.")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	if *eventID == 0 {
		fs.Usage()
		return errHelp
	}
	amount := registration.AmountType(strings.ToUpper(*tipo))

	switch sub {
	case "list":
		event, err := cli.c.Events.Get(ctx, *eventID)
		if err != nil {
			return err
		}
		if _, err := cli.c.Registrations.List(ctx, *eventID); err != nil {
			return err
		}
		board := cli.c.Registrations.Board()
		w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NÚMERO\tNOME\tSTATUS\tVALOR")
		for _, r := range board.Attendees(*eventID) {
			value := ""
			if r.Status == registration.StatusPaid {
				value = registration.ResolvedPrice(*event, r).StringFixed(2)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.NumeroInscricao, r.Nome, r.Status, value)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "Arrecadado: R$ %s\n", board.Revenue(*event).StringFixed(2))
		return nil

	case "register":
		r, err := cli.c.Registrations.Register(ctx, *eventID, attendee)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "Inscrição %s criada (%s).\n", r.NumeroInscricao, r.Status)
		return nil
	}

	if *numero == "" {
		fs.Usage()
		return errHelp
	}
	event, reg, err := cli.registrationTarget(ctx, *eventID, *numero)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("registration:%d:%s", *eventID, reg.NumeroInscricao)
	switch sub {
	case "confirm":
		return cli.submit(ctx, key, func(ctx context.Context) error {
			r, err := cli.c.Registrations.ConfirmPaymentManually(ctx, *event, reg, amount, cli.confirmer())
			if err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "Pagamento confirmado: R$ %s.\n", registration.ResolvedPrice(*event, *r).StringFixed(2))
			return nil
		})
	case "cancel":
		if _, err := cli.c.Registrations.Cancel(ctx, *eventID, reg, cli.confirmer()); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "Inscrição %s cancelada.\n", reg.NumeroInscricao)
	case "checkout":
		return cli.submit(ctx, key, func(ctx context.Context) error {
			url, err := cli.c.Registrations.InitiateOnlinePayment(ctx, *event, reg, amount)
			if err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "Pagamento online: %s\n", url)
			return nil
		})
	case "method":
		if _, err := cli.c.Registrations.UpdatePaymentMethod(ctx, *eventID, reg, strings.ToUpper(*forma)); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "Forma de pagamento atualizada.")
	default:
		cli.printUsage()
		return errHelp
	}
	return nil
}

func (cli *commandLine) kids(ctx context.Context, args []string) error {
	sub, args, err := cli.subcommand(args)
	if err != nil {
		return err
	}
	tenantID, err := cli.c.ActiveTenantID(ctx)
	if err != nil {
		return err
	}

	switch sub {
	case "checkin":
		fs := cli.flagSet("kids checkin")
		draft := domain.KidsCheckInDraft{}
		fs.StringVar(&draft.NomeCrianca, "crianca", "", "Child's name.")
		fs.StringVar(&draft.NomeResponsavel, "responsavel", "", "Guardian's name.")
		fs.StringVar(&draft.TelefoneResponsavel, "telefone", "", "Guardian's phone.")
		fs.StringVar(&draft.Alergias, "alergias", "", "Allergies.")
		fs.StringVar(&draft.Observacoes, "obs", "", "Notes.")
		if err := fs.Parse(args); err != nil {
			return errHelp
		}
		s, err := cli.c.Kids.CheckIn(ctx, tenantID, draft)
		if err != nil {
			return err
		}
		return kids.RenderLabel(cli.out, kids.NewLabel(*s, time.Now()))

	case "active":
		sessions, err := cli.c.Kids.ListActive(ctx, tenantID)
		if err != nil {
			return err
		}
		return renderRoster(cli.out, sessions)

	case "checkout", "label":
		fs := cli.flagSet("kids " + sub)
		code := fs.String("code", "", "Security code on the label.")
		if err := fs.Parse(args); err != nil || *code == "" {
			fs.Usage()
			return errHelp
		}
		roster, err := cli.c.NewRoster(ctx)
		if err != nil {
			return err
		}
		if err := roster.Refresh(ctx); err != nil {
			return err
		}
		s, ok := roster.FindByCode(*code)
		if !ok {
			return errUnknownCode
		}
		if sub == "label" {
			return kids.RenderLabel(cli.out, kids.NewLabel(s, time.Now()))
		}
		return cli.submit(ctx, "kids-checkout:"+s.CodigoSeguranca, func(ctx context.Context) error {
			if err := roster.CheckOut(ctx, s, cli.confirmer()); err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "Saída de %s registrada.\n", s.NomeCrianca)
			return nil
		})

	case "watch":
		roster, err := cli.c.NewRoster(ctx)
		if err != nil {
			return err
		}
		roster.OnChange(func(sessions []domain.KidsCheckIn) {
			fmt.Fprintf(cli.out, "Atualizado às %s\n", time.Now().Format("15:04:05"))
			_ = renderRoster(cli.out, sessions)
		})
		if err := roster.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		roster.Stop()
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}

func renderRoster(out io.Writer, sessions []domain.KidsCheckIn) error {
	if len(sessions) == 0 {
		fmt.Fprintln(out, "Nenhuma criança presente.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CÓDIGO\tCRIANÇA\tRESPONSÁVEL\tTELEFONE\tENTRADA")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.CodigoSeguranca, s.NomeCrianca, s.NomeResponsavel,
			kids.FormatPhone(s.TelefoneResponsavel), s.DataEntrada.Format("15:04"))
	}
	return w.Flush()
}

func (cli *commandLine) prayers(ctx context.Context, args []string) error {
	sub, args, err := cli.subcommand(args)
	if err != nil {
		return err
	}

	switch sub {
	case "list":
		tenantID, err := cli.c.ActiveTenantID(ctx)
		if err != nil {
			return err
		}
		page, err := cli.c.PrayerRequests.GetByTenant(ctx, tenantID, resource.Filters{})
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNOME\tORAÇÕES\tPEDIDO")
		for _, p := range page.Content {
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", p.ID, p.DisplayName(), p.VezesOrado, p.Pedido)
		}
		return w.Flush()

	case "pray":
		fs := cli.flagSet("prayers pray")
		id := fs.Int64("id", 0, "Prayer request id.")
		if err := fs.Parse(args); err != nil || *id == 0 {
			fs.Usage()
			return errHelp
		}
		p, err := cli.c.PrayerRequests.Pray(ctx, *id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "Orando por este pedido (%d).\n", p.VezesOrado)
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}
