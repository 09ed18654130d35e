// Package sqlite implements the store.sqlite module: a persistent message
// store on modernc.org/sqlite (pure Go, no CGO) in WAL mode, with an
// optional cron job that prunes messages past their retention window.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/flemzord/mercury/internal/core"
	"github.com/flemzord/mercury/internal/cron"
	"github.com/flemzord/mercury/internal/store"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Module{})
}

// Compile-time interface guards.
var (
	_ core.Configurable = (*Module)(nil)
	_ core.Provisioner  = (*Module)(nil)
	_ core.Validator    = (*Module)(nil)
	_ core.Starter      = (*Module)(nil)
	_ core.Stopper      = (*Module)(nil)
)

// Module is the store.sqlite module.
type Module struct {
	config    Config
	db        *sql.DB
	logger    *slog.Logger
	store     *MessageStore
	scheduler *cron.Scheduler
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "store.sqlite",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("sqlite: decode config: %w", err)
	}
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.logger = ctx.Logger

	if m.config.Path == "" {
		m.config.Path = filepath.Join(ctx.DataDir, defaultDBFile)
	}

	db, err := openDB(context.Background(), m.config.Path, m.config.walEnabled(), m.config.BusyTimeout)
	if err != nil {
		return err
	}
	m.db = db
	m.store = &MessageStore{db: db}
	ctx.RegisterService(store.ServiceName, m.store)

	m.logger.Info("sqlite message store provisioned",
		"path", m.config.Path,
		"wal", m.config.walEnabled(),
		"retention", m.config.Retention,
	)
	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	if err := m.config.validate(); err != nil {
		return err
	}
	if err := m.db.PingContext(context.Background()); err != nil {
		return fmt.Errorf("sqlite: ping failed: %w", err)
	}
	return nil
}

// Start implements core.Starter. The prune job only runs when a retention
// window is configured.
func (m *Module) Start() error {
	if m.config.Retention <= 0 {
		return nil
	}
	m.scheduler = cron.NewScheduler(m.logger)
	if err := m.scheduler.RegisterJob(&cron.PruneJob{
		Store:        m.store,
		Retention:    m.config.Retention,
		Logger:       m.logger,
		ScheduleExpr: m.config.PruneSchedule,
	}); err != nil {
		return err
	}
	return m.scheduler.Start()
}

// Stop implements core.Stopper.
func (m *Module) Stop(ctx context.Context) error {
	m.logger.Info("sqlite message store stopping")
	if m.scheduler != nil {
		_ = m.scheduler.Stop(ctx)
		m.scheduler = nil
	}
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	return err
}

// Store returns the message store.
func (m *Module) Store() *MessageStore {
	return m.store
}
