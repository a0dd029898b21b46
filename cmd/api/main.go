package main

import (
	"context"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/textileio/cli"
	"go.opentelemetry.io/otel/attribute"

	"github.com/qubicnetwork/go-universe/buildinfo"
	gatewayimpl "github.com/qubicnetwork/go-universe/internal/gateway/impl"
	ledgerimpl "github.com/qubicnetwork/go-universe/internal/ledger/impl"
	"github.com/qubicnetwork/go-universe/internal/router"
	"github.com/qubicnetwork/go-universe/pkg/actions"
	"github.com/qubicnetwork/go-universe/pkg/backup"
	"github.com/qubicnetwork/go-universe/pkg/logging"
	"github.com/qubicnetwork/go-universe/pkg/metrics"
	"github.com/qubicnetwork/go-universe/pkg/registry"
	"github.com/qubicnetwork/go-universe/pkg/snapshots"
	"github.com/qubicnetwork/go-universe/pkg/spectrum"
	"github.com/qubicnetwork/go-universe/pkg/universe"
)

type moduleCloser func(ctx context.Context) error

var closerNoop = func(context.Context) error { return nil }

func main() {
	config, dirPath := setupConfig()

	// Logging.
	logging.SetupLogger(buildinfo.GitCommit, config.Log.Debug, config.Log.Human)

	// Instrumentation.
	if err := metrics.SetupInstrumentation(":"+config.Metrics.Port, "universe:api"); err != nil {
		log.Fatal().Err(err).Str("port", config.Metrics.Port).Msg("could not setup instrumentation")
	}

	// Universe stack: spectrum, registry, action tracker and the record store.
	energy := spectrum.New()
	contracts := registry.New(energy)
	if err := registerContracts(contracts, config.Contracts); err != nil {
		log.Fatal().Err(err).Msg("registering contracts")
	}
	tracker, err := actions.NewTracker(config.Universe.MaxTickActions)
	if err != nil {
		log.Fatal().Err(err).Msg("creating action tracker")
	}

	u, err := universe.New(universe.Config{
		CapacityBits:      config.Universe.CapacityBits,
		NumberOfComputors: config.Universe.NumberOfComputors,
	}, energy, contracts, tracker)
	if err != nil {
		log.Fatal().Err(err).Msg("creating universe")
	}

	if err := metrics.StartCollectingUniverseMetrics(u); err != nil {
		log.Fatal().Err(err).Msg("starting universe metrics")
	}

	// Snapshot store; restore state when a snapshot exists.
	closeSnapshots := closerNoop
	var snapshotStore *snapshots.Store
	if config.Snapshots.Enabled {
		snapshotStore, closeSnapshots, err = setupSnapshots(u, dirPath, config.Snapshots.RestoreEpoch)
		if err != nil {
			log.Fatal().Err(err).Msg("setting up snapshots")
		}
	}

	// HTTP API server.
	closeHTTPServer, err := createAPIServer(config.HTTP, u, contracts)
	if err != nil {
		log.Fatal().Err(err).Msg("creating HTTP server")
	}

	// Backuper.
	closeBackupScheduler := closerNoop
	if config.Snapshots.Enabled && config.Backup.Enabled {
		closeBackupScheduler, err = createBackuper(dirPath, config.Backup)
		if err != nil {
			log.Fatal().Err(err).Msg("creating backuper")
		}
	}

	cli.HandleInterrupt(func() {
		ctx, cls := context.WithTimeout(context.Background(), time.Second*10)
		defer cls()
		if err := closeHTTPServer(ctx); err != nil {
			log.Error().Err(err).Msg("shutting down http server")
		}

		// Checkpoint the universe before going down.
		if snapshotStore != nil {
			ctx, cls := context.WithTimeout(context.Background(), time.Second*20)
			defer cls()
			if err := saveSnapshot(ctx, snapshotStore, u); err != nil {
				log.Error().Err(err).Msg("saving shutdown snapshot")
			}
		}

		if err := closeBackupScheduler(context.Background()); err != nil {
			log.Error().Err(err).Msg("closing backup scheduler")
		}
		if err := closeSnapshots(context.Background()); err != nil {
			log.Error().Err(err).Msg("closing snapshot store")
		}
	})
}

func snapshotDatabaseURL(dirPath string) string {
	return fmt.Sprintf(
		"file://%s?_busy_timeout=5000&_journal_mode=WAL",
		path.Join(dirPath, "snapshots.db"),
	)
}

func setupSnapshots(u *universe.Universe, dirPath string, restoreEpoch int64) (*snapshots.Store, moduleCloser, error) {
	store, err := snapshots.Open(snapshotDatabaseURL(dirPath), attribute.String("database", "snapshots"))
	if err != nil {
		return nil, nil, fmt.Errorf("opening the snapshot store: %s", err)
	}

	ctx, cls := context.WithTimeout(context.Background(), time.Second*30)
	defer cls()

	var snap snapshots.Snapshot
	if restoreEpoch >= 0 {
		snap, err = store.Get(ctx, restoreEpoch)
	} else {
		snap, err = store.Latest(ctx)
	}
	switch {
	case err == snapshots.ErrSnapshotNotFound:
		log.Info().Msg("no snapshot found, starting from an empty universe")
	case err != nil:
		return nil, nil, fmt.Errorf("loading snapshot: %s", err)
	default:
		if err := u.Restore(snap.Data); err != nil {
			return nil, nil, fmt.Errorf("restoring snapshot of epoch %d: %s", snap.Epoch, err)
		}
		log.Info().
			Int64("epoch", snap.Epoch).
			Str("digest", snap.Digest).
			Msg("universe restored from snapshot")
	}

	closer := func(context.Context) error {
		return store.Close()
	}
	return store, closer, nil
}

func saveSnapshot(ctx context.Context, store *snapshots.Store, u *universe.Universe) error {
	digest := u.Digest()
	epoch := time.Now().UTC().Unix()
	if err := store.Save(ctx, epoch, "0x"+hex.EncodeToString(digest[:]), u.Marshal()); err != nil {
		return fmt.Errorf("saving snapshot: %s", err)
	}
	return nil
}

func registerContracts(r *registry.Registry, configs []ContractConfig) error {
	for i, c := range configs {
		var id universe.ID
		if err := id.UnmarshalText([]byte(c.ID)); err != nil {
			return fmt.Errorf("parsing id of contract %d (%s): %s", i, c.Name, err)
		}
		var assetName universe.AssetName
		if c.AssetName != "" {
			name, err := universe.PackAssetName(c.AssetName)
			if err != nil {
				return fmt.Errorf("parsing asset name of contract %d (%s): %s", i, c.Name, err)
			}
			assetName = name
		}
		index := r.Register(registry.ContractDescription{ID: id, AssetName: assetName})
		log.Info().
			Uint16("index", index).
			Str("name", c.Name).
			Msg("contract registered")
	}
	return nil
}

func createAPIServer(httpConfig HTTPConfig, u *universe.Universe, contracts *registry.Registry) (moduleCloser, error) {
	rateLimInterval, err := time.ParseDuration(httpConfig.RateLimInterval)
	if err != nil {
		return nil, fmt.Errorf("parsing http ratelimiter interval: %s", err)
	}

	gatewayService := gatewayimpl.NewGateway(u)
	ledgerService := ledgerimpl.NewLedgerService(u, contracts)
	apiRouter, err := router.ConfiguredRouter(httpConfig.MaxRequestPerInterval, rateLimInterval, gatewayService, ledgerService)
	if err != nil {
		return nil, fmt.Errorf("configuring router: %s", err)
	}

	server := &http.Server{
		Addr:              ":" + httpConfig.Port,
		Handler:           apiRouter.Handler(),
		ReadHeaderTimeout: time.Second * 5,
		WriteTimeout:      time.Second * 10,
	}

	go func() {
		if httpConfig.TLSCert != "" {
			server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
			if err := server.ListenAndServeTLS(httpConfig.TLSCert, httpConfig.TLSKey); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("https server failed")
			}
			return
		}
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()
	log.Info().Str("port", httpConfig.Port).Msg("http server started")

	return server.Shutdown, nil
}

func createBackuper(dirPath string, config BackupConfig) (moduleCloser, error) {
	backupScheduler, err := backup.NewScheduler(config.Frequency, backup.BackuperOptions{
		SourcePath: path.Join(dirPath, "snapshots.db"),
		BackupDir:  path.Join(dirPath, config.Dir),
		Opts: []backup.Option{
			backup.WithCompression(config.EnableCompression),
			backup.WithVacuum(config.EnableVacuum),
			backup.WithPruning(config.Pruning.Enabled, config.Pruning.KeepFiles),
		},
	}, false)
	if err != nil {
		return nil, fmt.Errorf("creating backup scheduler: %s", err)
	}
	go backupScheduler.Run()

	return func(context.Context) error {
		backupScheduler.Shutdown()
		return nil
	}, nil
}
