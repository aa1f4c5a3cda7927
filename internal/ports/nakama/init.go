package nakama

import (
	"context"
	"database/sql"
	"errors"
	"io"

	"tnttag/internal/app"
	"tnttag/internal/config"
	"tnttag/internal/i18n"
	"tnttag/internal/ports"
	"tnttag/internal/storage/sqlite"
	"tnttag/internal/world"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Module holds the dependencies shared by every arena hosted by this process.
type Module struct {
	Settings config.Settings
	Arenas   *config.ArenaCatalog
	Catalog  *i18n.Catalog
	Stats    ports.StatsPort
	Recorder *app.Recorder
	Voice    *app.VoiceService
	Cloner   world.Cloner
}

// NewModule wires the shared services. arenas may be nil, in which case every
// match uses the built-in fallback arena.
func NewModule(settings config.Settings, arenas *config.ArenaCatalog, catalog *i18n.Catalog, stats ports.StatsPort, logger app.Logger) *Module {
	voice := app.NewVoiceService(settings.VivoxSecret, settings.VivoxIssuer, settings.VivoxDomain)
	if !voice.Configured() {
		logger.Warn("Voice credentials missing from runtime env, %s RPC will be unavailable.", RpcVoiceToken)
	}
	return &Module{
		Settings: settings,
		Arenas:   arenas,
		Catalog:  catalog,
		Stats:    stats,
		Recorder: app.NewRecorder(stats, logger, settings.RecorderQueue),
		Voice:    voice,
	}
}

// InitModule wires RPCs, hooks and match handlers for Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	settings, err := config.ParseSettings(env)
	if err != nil {
		logger.Error("InitModule: Invalid runtime settings: %v", err)
		return err
	}

	if err := config.LoadArenaConfig(settings.ArenasFile); err != nil {
		logger.Warn("InitModule: Could not load arena config, using fallback arena: %v", err)
	}

	catalog, err := i18n.Default()
	if err != nil {
		logger.Error("InitModule: Failed to load message catalogue: %v", err)
		return err
	}

	store, err := sqlite.Open(ctx, settings.StatsDB)
	if err != nil {
		logger.Error("InitModule: Failed to open stats store %s: %v", settings.StatsDB, err)
		return err
	}

	m := NewModule(settings, config.GetArenaCatalog(), catalog, store, logger)
	if err := m.Register(initializer); err != nil {
		_ = m.Close(ctx)
		return err
	}

	logger.Info("TNT Tag Go module loaded (arenas=%v, locale=%s, tick_rate=%d).", m.Arenas.Names(), catalog.Resolve(settings.Locale), settings.TickRate)
	return nil
}

// Register registers every RPC, hook and match handler of the module.
func (m *Module) Register(initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcQuickMatch, m.rpcQuickMatch); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcVoiceToken, m.rpcVoiceToken); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcPlayerStats, m.rpcPlayerStats); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameTNTTag, func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return newMatchHandler(m), nil
	}); err != nil {
		return err
	}

	if err := initializer.RegisterAfterAuthenticateDevice(m.afterAuthenticateDevice); err != nil {
		return err
	}

	return initializer.RegisterShutdown(func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) {
		if err := m.Close(ctx); err != nil {
			logger.Error("Shutdown: Failed to flush stats: %v", err)
		}
	})
}

// Close drains pending round results and closes the stats store.
func (m *Module) Close(ctx context.Context) error {
	var errs []error
	if m.Recorder != nil {
		errs = append(errs, m.Recorder.Close(ctx))
	}
	if closer, ok := m.Stats.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}
