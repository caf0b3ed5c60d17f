// Command finanzasctl reads reports and exports straight from the SQLite
// ledger without going through the HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"finanzas/internal/backend"
	"finanzas/internal/cli"
	applog "finanzas/internal/log"
	"finanzas/internal/ports"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentCLI)

	a := &app{
		open: openSQLite,
		out:  os.Stdout,
		now:  time.Now,
	}
	if err := newRootCmd(a).Execute(); err != nil {
		logger.Debug("Command failed", applog.FieldError, err)
		os.Exit(1)
	}
}

// openSQLite opens the configured database. The broker is never dialed.
func openSQLite(ctx context.Context) (ports.Store, func() error, error) {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, nil, err
	}
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	bc.Type = backend.SQLiteBackend
	bc.AMQPURL = ""

	res, err := backend.NewFactory(nil).CreateBackend(ctx, bc)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", bc.SQLiteDBPath, err)
	}
	return res.Store, res.Close, nil
}
