package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/richard-senior/fplodds/internal/logger"
	"github.com/richard-senior/fplodds/pkg/config"
	"github.com/richard-senior/fplodds/pkg/datasource"
	"github.com/richard-senior/fplodds/pkg/server"
	"github.com/richard-senior/fplodds/pkg/store"
	"github.com/richard-senior/fplodds/pkg/tools"
	"github.com/richard-senior/fplodds/pkg/transport"
)

const usage = `usage: fplodds [-config path] [command]

commands:
  serve              run the MCP server on stdin/stdout (default)
  refresh            download teams and fixtures and store them
  strengths          print every team's venue stats and strength ratios
  predict HOME AWAY  print the score distribution, teams by id or short name
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		logger.Error("fplodds failed:", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	flags := flag.NewFlagSet("fplodds", flag.ContinueOnError)
	flags.Usage = func() { fmt.Fprint(flags.Output(), usage) }
	configPath := flags.String("config", "", "path to a YAML config file (default $"+config.EnvConfigPath+")")
	if err := flags.Parse(args); err != nil {
		return err
	}

	command := "serve"
	rest := flags.Args()
	if len(rest) > 0 {
		command, rest = rest[0], rest[1:]
	}
	switch command {
	case "serve", "refresh", "strengths":
		if len(rest) != 0 {
			return fmt.Errorf("%s takes no arguments\n%s", command, usage)
		}
	case "predict":
		if len(rest) != 2 {
			return fmt.Errorf("predict needs a home and an away team\n%s", usage)
		}
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}

	cfg, err := config.Resolve(*configPath)
	if err != nil {
		return err
	}
	if err := configureLogging(cfg.Logging, command == "serve"); err != nil {
		return err
	}
	defer logger.Close()
	logger.Info("Starting fplodds", command)

	db, err := store.Open(ctx, cfg.Store.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := tools.NewService(datasource.NewClient(cfg.Datasource), db, cfg.Model)

	var out any
	switch command {
	case "serve":
		return serve(ctx, svc)
	case "refresh":
		out, err = svc.Refresh(ctx)
	case "strengths":
		out, err = svc.Strengths(ctx)
	case "predict":
		out, err = svc.Predict(ctx, rest[0], rest[1])
	}
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func serve(ctx context.Context, svc *tools.Service) error {
	s := server.New(transport.NewStdioTransport())
	s.RegisterTool(tools.RefreshTool(), svc.HandleRefresh)
	s.RegisterTool(tools.TeamStrengthsTool(), svc.HandleTeamStrengths)
	s.RegisterTool(tools.ScoreDistributionTool(), svc.HandleScoreDistribution)

	if err := s.ProcessRequests(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("MCP server shutting down")
	return nil
}

// configureLogging applies the logging section. When serving, stdout carries the
// protocol so console logging is moved to stderr
func configureLogging(cfg config.LoggingConfig, serving bool) error {
	level, err := logger.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	logger.SetShowDateTime(cfg.ShowDateTime)

	output := cfg.OutputRune()
	if serving && output == 'c' {
		output = 'e'
	}
	return logger.SetLogOutput(output, cfg.File)
}
