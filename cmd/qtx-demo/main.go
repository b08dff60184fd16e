// Команда qtx-demo выполняет серию транзакций над сессиями базы данных SQLite и публикует метрики присоединения.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qbixus/qtx-uow"
	"github.com/qbixus/qtx-uow/enlist"
	"github.com/qbixus/qtx-uow/internal/logging"
	"github.com/qbixus/qtx-uow/internal/telemetry"
	"github.com/qbixus/qtx-uow/uow"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"
)

type config struct {
	Enlist    enlist.Config    `yaml:"enlist"`
	Logging   logging.Config   `yaml:"logging"`
	Telemetry telemetry.Config `yaml:"telemetry"`
}

func loadConfig(path string) (config, error) {
	cfg := config{
		Enlist:    enlist.DefaultConfig(),
		Logging:   logging.Config{Level: "info", Format: "console", Service: "qtx-demo"},
		Telemetry: telemetry.Config{Enabled: true, ServiceName: "qtx-demo"},
	}
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return config{}, err
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return config{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg, cfg.Enlist.Validate()
}

func main() {
	var (
		configPath  = flag.String("config", "", "path to YAML config")
		dsn         = flag.String("db", "file:qtx-demo.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", "SQLite DSN")
		iterations  = flag.Int("n", 10, "number of transactions")
		rollbackPct = flag.Int("rollback", 30, "percentage of transactions to roll back")
		metricsAddr = flag.String("metrics-addr", "", "serve /metrics on this address after the run")
	)
	flag.Parse()

	if err := run(*configPath, *dsn, *iterations, *rollbackPct, *metricsAddr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, dsn string, iterations, rollbackPct int, metricsAddr string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tel, shutdown, err := telemetry.New(cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY, customer TEXT NOT NULL, amount INTEGER NOT NULL)`); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS audit (
		id INTEGER PRIMARY KEY, message TEXT NOT NULL)`); err != nil {
		return err
	}

	coordinator, err := enlist.NewCoordinator(
		enlist.WithConfig(cfg.Enlist),
		enlist.WithLogger(logger),
		enlist.WithMeterProvider(tel.MeterProvider),
		enlist.WithTracerProvider(tel.TracerProvider),
	)
	if err != nil {
		return err
	}
	factory := uow.NewFactory(db, coordinator, uow.WithLogger(logger))

	session := factory.Open()
	defer session.Close(context.Background())
	lines := session.OpenDependent()

	var committed, aborted int
	for i := range iterations {
		rollback := rollbackPct > 0 && i*rollbackPct/100 != (i+1)*rollbackPct/100
		err := order(ctx, coordinator, factory, session, lines, i, rollback)
		switch {
		case err == nil:
			committed++
		case errors.Is(err, qtx.ErrTxAborted):
			aborted++
		default:
			return err
		}
	}
	logger.Info("run finished", zap.Int("committed", committed), zap.Int("aborted", aborted))

	if metricsAddr == "" {
		return nil
	}
	return serveMetrics(ctx, logger, metricsAddr, tel.Handler())
}

// order записывает заказ в двух сессиях с общим соединением и запись аудита вне транзакции заказа.
func order(
	ctx context.Context, coordinator *enlist.Coordinator, factory *uow.Factory,
	session, lines *uow.Session, i int, rollback bool,
) (err error) {
	ctx, complete, dispose := qtx.WithTransactionScope(ctx, qtx.WithIsolationLevel(qtx.IsolationReadCommitted))
	defer func() { err = errors.Join(err, dispose()) }()

	customer := fmt.Sprintf("customer-%d", i%3)
	if err := session.Exec(ctx, "INSERT INTO orders(customer, amount) VALUES (?, ?)", customer, 100+i); err != nil {
		return err
	}
	if err := lines.Exec(ctx, "INSERT INTO orders(customer, amount) VALUES (?, ?)", customer, 1); err != nil {
		return err
	}
	err = coordinator.ExecuteInIsolation(ctx, func(ctx context.Context) error {
		audit := factory.Open()
		defer audit.Close(ctx)
		if err := audit.Exec(ctx, "INSERT INTO audit(message) VALUES (?)", fmt.Sprintf("order %d attempted", i)); err != nil {
			return err
		}
		return audit.Flush(ctx)
	}, true)
	if err != nil {
		return err
	}

	if rollback {
		return qtx.ErrTxAborted
	}
	return complete()
}

func serveMetrics(ctx context.Context, logger *zap.Logger, addr string, handler http.Handler) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info("serving metrics", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
