package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harisonns09/ecclesia-manager-sub000/internal/apiclient"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/di"
	"github.com/harisonns09/ecclesia-manager-sub000/pkg/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("failed to load config: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := di.Build(ctx, cfg, &terminalNavigator{out: os.Stderr})
	if err != nil {
		log.Printf("failed to start: %v", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = c.Close(shutdownCtx)
	}()

	cli := newCommandLine(c, os.Stdin, os.Stdout)
	if err := cli.run(ctx, os.Args); err != nil {
		if !errors.Is(err, errHelp) {
			fmt.Fprintf(os.Stderr, "erro: %s\n", apiclient.Message(err))
			c.Logger.Debug(err.Error())
		}
		return 1
	}
	return 0
}

// terminalNavigator tells the operator where the web app would have gone
type terminalNavigator struct {
	out io.Writer
}

func (n *terminalNavigator) ToLogin(context.Context) {
	fmt.Fprintln(n.out, "Sessão expirada. Entre novamente com: ecclesia login -email EMAIL")
}

func (n *terminalNavigator) ToLanding(context.Context) {
	fmt.Fprintln(n.out, "Sessão encerrada.")
}
