package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"callqa/internal/calls"
	"callqa/internal/config"
	"callqa/internal/logging"
	"callqa/internal/session"
	"callqa/internal/tui"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "callqa: %v\n", err)
		return 2
	}

	logger, closeLog, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "callqa: %v\n", err)
		return 1
	}
	defer closeLog()

	client, err := calls.NewClient(calls.Options{
		BaseURL:    cfg.APIURL,
		HTTPClient: &http.Client{Timeout: cfg.RequestTimeout},
		Logger:     logger,
	})
	if err != nil {
		fmt.Fprintf(stderr, "callqa: %v\n", err)
		return 2
	}
	logger.WithFields(logrus.Fields{
		"api_url":     client.BaseURL(),
		"interactive": cfg.Interactive(),
	}).Info("callqa starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch {
	case cfg.List:
		return listCalls(ctx, client, stdout, stderr)
	case cfg.Ask != "":
		return askOnce(ctx, cfg, client, logger, stdout, stderr)
	}

	model := tui.New(tui.Options{
		Backend:        client,
		Logger:         logger,
		IncludeHistory: cfg.IncludeHistory,
		CallID:         cfg.CallID,
	})
	p := tea.NewProgram(model, tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if cfg.AltScreen {
		p = tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	}
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		logger.WithError(err).Error("tui exited")
		fmt.Fprintf(stderr, "callqa fatal error: %v\n", err)
		return 1
	}
	return 0
}

func listCalls(ctx context.Context, client *calls.Client, stdout, stderr io.Writer) int {
	list, err := client.FetchAllCalls(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "callqa: %v\n", err)
		return 1
	}
	for _, call := range list {
		fmt.Fprintf(stdout, "%s\t%s\t%s\t%d\n", call.CallID, call.Title, call.StartTime, call.Duration)
	}
	return 0
}

// askOnce runs a single question. A backend failure still prints the
// failure answer but exits 1.
func askOnce(ctx context.Context, cfg config.Config, client *calls.Client, logger logrus.FieldLogger, stdout, stderr io.Writer) int {
	ctl, err := session.New(session.Options{
		CallID:         cfg.CallID,
		Backend:        client,
		Logger:         logger,
		IncludeHistory: cfg.IncludeHistory,
	})
	if err != nil {
		fmt.Fprintf(stderr, "callqa: %v\n", err)
		return 1
	}
	outcome, err := ctl.Ask(ctx, cfg.Ask)
	if err != nil {
		fmt.Fprintf(stderr, "callqa: %v\n", err)
		return 2
	}
	fmt.Fprintln(stdout, outcome.Exchange.Answer)
	if outcome.Err != nil {
		fmt.Fprintf(stderr, "callqa: %v\n", outcome.Err)
		return 1
	}
	return 0
}
