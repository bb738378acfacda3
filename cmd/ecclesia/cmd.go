package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/harisonns09/ecclesia-manager-sub000/internal/apiclient"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/di"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/session"
	"github.com/harisonns09/ecclesia-manager-sub000/pkg/telemetry"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	c   *di.Container
	in  *bufio.Reader
	out io.Writer
	yes bool
}

func newCommandLine(c *di.Container, in io.Reader, out io.Writer) *commandLine {
	return &commandLine{c: c, in: bufio.NewReader(in), out: out}
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage: ecclesia [-yes] COMMAND [ARGS]")
	fmt.Fprintln(cli.out, "  login -email EMAIL                      - sign in; the password is prompted next")
	fmt.Fprintln(cli.out, "  logout                                  - sign out")
	fmt.Fprintln(cli.out, "  privacy accept|status                   - privacy notice acknowledgement")
	fmt.Fprintln(cli.out, "  churches list|select|create|update|delete  - churches and the active church")
	fmt.Fprintln(cli.out, "  members list|search|create|delete|self-register [-search -month -min-age -max-age -page]")
	fmt.Fprintln(cli.out, "  visitors list|create|delete")
	fmt.Fprintln(cli.out, "  ministries list|create|delete")
	fmt.Fprintln(cli.out, "  finance summary|add                     - income, expense and balance")
	fmt.Fprintln(cli.out, "  events list")
	fmt.Fprintln(cli.out, "  registrations list|register|confirm|cancel|checkout|method -event ID")
	fmt.Fprintln(cli.out, "  kids checkin|active|watch|checkout|label")
	fmt.Fprintln(cli.out, "  prayers list|pray -id ID")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	global := cli.flagSet("ecclesia")
	global.BoolVar(&cli.yes, "yes", false, "Answer yes to every confirmation.")
	if len(args) < 1 {
		cli.printUsage()
		return errHelp
	}
	if err := global.Parse(args[1:]); err != nil {
		return errHelp
	}
	rest := global.Args()
	if len(rest) == 0 {
		cli.printUsage()
		return errHelp
	}

	cmd, cmdArgs := rest[0], rest[1:]
	ctx, span := telemetry.StartCommand(ctx, cmd)
	defer span.End()

	err := cli.dispatch(ctx, cmd, cmdArgs)
	if err != nil && !errors.Is(err, errHelp) {
		telemetry.SetSpanError(ctx, err)
	}
	return err
}

func (cli *commandLine) dispatch(ctx context.Context, cmd string, cmdArgs []string) error {
	switch cmd {
	case "login":
		return cli.login(ctx, cmdArgs)
	case "logout":
		return cli.c.Session.Logout(ctx)
	case "privacy":
		return cli.privacy(ctx, cmdArgs)
	case "churches":
		return cli.churches(ctx, cmdArgs)
	case "members":
		return cli.members(ctx, cmdArgs)
	case "visitors":
		return cli.visitors(ctx, cmdArgs)
	case "ministries":
		return cli.ministries(ctx, cmdArgs)
	case "finance":
		return cli.finance(ctx, cmdArgs)
	case "events":
		return cli.events(ctx, cmdArgs)
	case "registrations":
		return cli.registrations(ctx, cmdArgs)
	case "kids":
		return cli.kids(ctx, cmdArgs)
	case "prayers":
		return cli.prayers(ctx, cmdArgs)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// confirmer approves everything with -yes and asks on stdin otherwise
func (cli *commandLine) confirmer() apiclient.Confirmer {
	if cli.yes {
		return apiclient.AlwaysConfirm
	}
	return apiclient.ConfirmFunc(func(_ context.Context, prompt string) bool {
		fmt.Fprintf(cli.out, "%s [s/N] ", prompt)
		line, _ := cli.in.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "s", "sim", "y", "yes":
			return true
		}
		return false
	})
}

func (cli *commandLine) login(ctx context.Context, args []string) error {
	fs := cli.flagSet("login")
	email := fs.String("email", "", "The operator's e-mail. The password will be prompted next.")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	if *email == "" {
		fs.Usage()
		return errHelp
	}

	fmt.Fprint(cli.out, "Senha: ")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return errHelp
	}

	sess, err := cli.c.Session.Login(ctx, session.Credentials{Email: *email, Senha: string(pwd)})
	if err != nil {
		return err
	}
	name := sess.Claims.Nome
	if name == "" {
		name = sess.Claims.Email
	}
	fmt.Fprintf(cli.out, "Bem-vindo, %s.\n", name)
	return nil
}

func (cli *commandLine) privacy(ctx context.Context, args []string) error {
	if len(args) == 0 {
		cli.printUsage()
		return errHelp
	}
	switch args[0] {
	case "accept":
		if err := cli.c.AcceptPrivacy(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "Aviso de privacidade aceito.")
		return nil
	case "status":
		ok, err := cli.c.PrivacyAccepted(ctx)
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintln(cli.out, "Aviso de privacidade aceito.")
		} else {
			fmt.Fprintln(cli.out, "Aviso de privacidade pendente.")
		}
		return nil
	default:
		cli.printUsage()
		return errHelp
	}
}

// subcommand splits "NAME -flags..." and reports a missing name as help
func (cli *commandLine) subcommand(args []string) (string, []string, error) {
	if len(args) == 0 {
		cli.printUsage()
		return "", nil, errHelp
	}
	return args[0], args[1:], nil
}
