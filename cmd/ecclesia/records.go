package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harisonns09/ecclesia-manager-sub000/internal/apiclient"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/domain"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/kids"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/listing"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/resource"
	"github.com/harisonns09/ecclesia-manager-sub000/pkg/response"
)

var (
	errBadDate   = apiclient.Precondition("Data inválida. Use AAAA-MM-DD ou DD/MM/AAAA.")
	errBadAmount = apiclient.Precondition("Valor inválido. Use ponto como separador decimal.")
)

// day parses a date flag; empty means today
func day(s string) (domain.Date, error) {
	if strings.TrimSpace(s) == "" {
		now := time.Now()
		return domain.NewDate(now.Year(), now.Month(), now.Day()), nil
	}
	d, err := domain.ParseDate(s)
	if err != nil {
		return domain.Date{}, errBadDate
	}
	return d, nil
}

// removeRecord deletes one record of the active church after confirmation
func (cli *commandLine) removeRecord(ctx context.Context, name string, args []string,
	del func(ctx context.Context, tenantID, id int64, confirm apiclient.Confirmer) error) error {
	fs := cli.flagSet(name + " delete")
	id := fs.Int64("id", 0, "Record id.")
	if err := fs.Parse(args); err != nil || *id == 0 {
		fs.Usage()
		return errHelp
	}
	tenantID, err := cli.c.ActiveTenantID(ctx)
	if err != nil {
		return err
	}
	if err := del(ctx, tenantID, *id, cli.confirmer()); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Registro %d excluído.\n", *id)
	return nil
}

func renderMembers(out io.Writer, page response.Page[domain.Member]) error {
	if page.Empty() {
		fmt.Fprintln(out, "Nenhum membro encontrado.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNOME\tTELEFONE\tSTATUS")
	for _, m := range page.Content {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", m.ID, m.Nome, kids.FormatPhone(m.Telefone), m.Status)
	}
	return w.Flush()
}

func memberFlags(fs *flag.FlagSet, draft *domain.MemberDraft, birth, status *string) {
	fs.StringVar(&draft.Nome, "nome", "", "Full name.")
	fs.StringVar(&draft.Email, "email", "", "E-mail.")
	fs.StringVar(&draft.Telefone, "telefone", "", "Phone.")
	fs.StringVar(&draft.Cargo, "cargo", "", "Role in the church.")
	fs.StringVar(birth, "nascimento", "", "Birth date.")
	fs.StringVar(status, "status", "ATIVO", "ATIVO, INATIVO or VISITANTE.")
}

func (cli *commandLine) members(ctx context.Context, args []string) error {
	sub, args, err := cli.subcommand(args)
	if err != nil {
		return err
	}

	switch sub {
	case "list", "search":
		fs := cli.flagSet("members " + sub)
		f := resource.Filters{}
		fs.StringVar(&f.Search, "search", "", "Search by name.")
		fs.StringVar(&f.Status, "status", "", "ATIVO, INATIVO or VISITANTE.")
		fs.IntVar(&f.BirthMonth, "month", 0, "Birthday month (1-12).")
		fs.IntVar(&f.Page, "page", 0, "Page, starting at 0.")
		minAge := fs.Int("min-age", -1, "Minimum age.")
		maxAge := fs.Int("max-age", -1, "Maximum age.")
		if err := fs.Parse(args); err != nil {
			return errHelp
		}
		if *minAge >= 0 {
			f.MinAge = minAge
		}
		if *maxAge >= 0 {
			f.MaxAge = maxAge
		}
		if sub == "search" {
			return cli.searchMembers(ctx, f)
		}
		if f.Page > 0 {
			f.Size = cli.c.Config.Search.PageSize
		}

		tenantID, err := cli.c.ActiveTenantID(ctx)
		if err != nil {
			return err
		}
		page, err := cli.c.Members.GetByTenant(ctx, tenantID, f)
		if err != nil {
			return err
		}
		return renderMembers(cli.out, page)

	case "create", "self-register":
		fs := cli.flagSet("members " + sub)
		draft := domain.MemberDraft{}
		var birth, status string
		memberFlags(fs, &draft, &birth, &status)
		slug := fs.String("slug", "", "Church slug, for self-register.")
		if err := fs.Parse(args); err != nil {
			return errHelp
		}
		if sub == "self-register" && *slug == "" {
			fs.Usage()
			return errHelp
		}
		if birth != "" {
			d, err := domain.ParseDate(birth)
			if err != nil {
				return errBadDate
			}
			draft.DataNascimento = d
		}
		draft.Status = domain.MemberStatus(strings.ToUpper(status))

		var m *domain.Member
		if sub == "self-register" {
			m, err = cli.c.Members.SelfRegister(ctx, *slug, draft)
		} else {
			var tenantID int64
			if tenantID, err = cli.c.ActiveTenantID(ctx); err != nil {
				return err
			}
			m, err = cli.c.Members.Create(ctx, tenantID, draft)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "Membro %d cadastrado: %s\n", m.ID, m.Nome)
		return nil

	case "delete":
		return cli.removeRecord(ctx, "members", args, cli.c.Members.Delete)

	default:
		cli.printUsage()
		return errHelp
	}
}

// searchMembers reads one search text per line and lists the members once
// typing settles. End of input searches the last line right away.
func (cli *commandLine) searchMembers(ctx context.Context, base resource.Filters) error {
	text := base.Search
	base.Search = ""
	box, query, err := cli.c.NewMemberSearch(ctx, base)
	if err != nil {
		return err
	}
	defer box.Close()

	// renders run under the query lock, one at a time
	query.OnChange(func(s listing.State[domain.Member]) {
		if s.Loading || s.Err != nil {
			return
		}
		_ = renderMembers(cli.out, s.Page)
	})

	if text != "" {
		box.Type(ctx, text)
	}
	for {
		line, err := cli.in.ReadString('\n')
		if line = strings.TrimRight(line, "\r\n"); line != "" || err == nil {
			box.Type(ctx, line)
		}
		if err != nil {
			break
		}
	}

	_, err = box.Submit(ctx)
	return err
}

func (cli *commandLine) visitors(ctx context.Context, args []string) error {
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
		page, err := cli.c.Visitors.GetByTenant(ctx, tenantID, resource.Filters{})
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNOME\tTELEFONE\tVISITA")
		for _, v := range page.Content {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", v.ID, v.Nome, kids.FormatPhone(v.Telefone), v.DataVisita.Format("02/01/2006"))
		}
		return w.Flush()

	case "create":
		fs := cli.flagSet("visitors create")
		draft := domain.VisitorDraft{}
		fs.StringVar(&draft.Nome, "nome", "", "Full name.")
		fs.StringVar(&draft.Telefone, "telefone", "", "Phone.")
		fs.StringVar(&draft.Email, "email", "", "E-mail.")
		fs.StringVar(&draft.ComoConheceu, "como", "", "How they heard of the church.")
		visit := fs.String("visita", "", "Visit date, today when empty.")
		if err := fs.Parse(args); err != nil {
			return errHelp
		}
		if draft.DataVisita, err = day(*visit); err != nil {
			return err
		}
		tenantID, err := cli.c.ActiveTenantID(ctx)
		if err != nil {
			return err
		}
		v, err := cli.c.Visitors.Create(ctx, tenantID, draft)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "Visitante %d cadastrado: %s\n", v.ID, v.Nome)
		return nil

	case "delete":
		return cli.removeRecord(ctx, "visitors", args, cli.c.Visitors.Delete)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) ministries(ctx context.Context, args []string) error {
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
		page, err := cli.c.Ministries.GetByTenant(ctx, tenantID, resource.Filters{})
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNOME\tLÍDER")
		for _, m := range page.Content {
			fmt.Fprintf(w, "%d\t%s\t%s\n", m.ID, m.Nome, m.Lider)
		}
		return w.Flush()

	case "create":
		fs := cli.flagSet("ministries create")
		draft := domain.MinistryDraft{}
		fs.StringVar(&draft.Nome, "nome", "", "Name.")
		fs.StringVar(&draft.Descricao, "descricao", "", "Description.")
		fs.StringVar(&draft.Lider, "lider", "", "Leader.")
		if err := fs.Parse(args); err != nil {
			return errHelp
		}
		tenantID, err := cli.c.ActiveTenantID(ctx)
		if err != nil {
			return err
		}
		m, err := cli.c.Ministries.Create(ctx, tenantID, draft)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "Ministério %d criado: %s\n", m.ID, m.Nome)
		return nil

	case "delete":
		return cli.removeRecord(ctx, "ministries", args, cli.c.Ministries.Delete)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) finance(ctx context.Context, args []string) error {
	sub, args, err := cli.subcommand(args)
	if err != nil {
		return err
	}
	tenantID, err := cli.c.ActiveTenantID(ctx)
	if err != nil {
		return err
	}

	switch sub {
	case "summary":
		page, err := cli.c.Transactions.GetByTenant(ctx, tenantID, resource.Filters{})
		if err != nil {
			return err
		}
		s := resource.Summarize(page.Content)
		fmt.Fprintf(cli.out, "Entradas: R$ %s\n", s.Income.StringFixed(2))
		fmt.Fprintf(cli.out, "Saídas:   R$ %s\n", s.Expense.StringFixed(2))
		fmt.Fprintf(cli.out, "Saldo:    R$ %s\n", s.Balance.StringFixed(2))
		return nil

	case "add":
		fs := cli.flagSet("finance add")
		var descricao, tipo, categoria, valor, data string
		fs.StringVar(&descricao, "descricao", "", "Description.")
		fs.StringVar(&tipo, "tipo", "", "ENTRADA or SAIDA.")
		fs.StringVar(&categoria, "categoria", "OUTROS", "DIZIMO, OFERTA, ALUGUEL, UTILIDADES, SALARIO, MANUTENCAO or OUTROS.")
		fs.StringVar(&valor, "valor", "", "Amount, e.g. 150.00.")
		fs.StringVar(&data, "data", "", "Date, today when empty.")
		if err := fs.Parse(args); err != nil || valor == "" {
			fs.Usage()
			return errHelp
		}
		amount, err := decimal.NewFromString(valor)
		if err != nil {
			return errBadAmount
		}
		when, err := day(data)
		if err != nil {
			return err
		}
		tx, err := cli.c.Transactions.Create(ctx, tenantID, domain.TransactionDraft{
			Descricao: descricao,
			Tipo:      domain.TransactionType(strings.ToUpper(tipo)),
			Categoria: domain.TransactionCategory(strings.ToUpper(categoria)),
			Valor:     amount,
			Data:      when,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "Lançamento %d registrado: R$ %s\n", tx.ID, tx.Signed().StringFixed(2))
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}
