package main

import (
	"flag"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bibbank/riskwatch/internal/infrastructure/config"
	pgutil "github.com/bibbank/riskwatch/pkg/postgres"
	"github.com/bibbank/riskwatch/pkg/tlsutil"
)

const usage = `usage: riskd [command]

With no command riskd serves the HTTP and gRPC APIs.

commands:
  migrate up|down        apply or roll back database migrations
  devcerts [-hosts h] dir  write a self-signed CA and server key pair into dir`

// runCommand executes a one-shot maintenance command.
func runCommand(args []string, cfg config.Config, logger *slog.Logger) error {
	switch args[0] {
	case "migrate":
		if len(args) != 2 {
			return fmt.Errorf("migrate needs a direction\n%s", usage)
		}
		switch args[1] {
		case "up":
			if err := pgutil.RunMigrations(cfg.DB.URL, cfg.DB.MigrationsPath); err != nil {
				return err
			}
		case "down":
			if err := pgutil.RunMigrationsDown(cfg.DB.URL, cfg.DB.MigrationsPath); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown migrate direction %q\n%s", args[1], usage)
		}
		logger.Info("migrations complete", "direction", args[1], "path", cfg.DB.MigrationsPath)
		return nil

	case "devcerts":
		fs := flag.NewFlagSet("devcerts", flag.ContinueOnError)
		hosts := fs.String("hosts", "localhost,127.0.0.1", "comma-separated DNS names and IPs for the server certificate")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return fmt.Errorf("devcerts needs an output directory\n%s", usage)
		}
		files, err := tlsutil.GenerateDevCertificates(strings.Split(*hosts, ","), fs.Arg(0))
		if err != nil {
			return err
		}
		logger.Info("development certificates written", "cert", files.CertFile, "key", files.KeyFile)
		return nil

	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}
