package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/HamiGames/Lucid-sub007/pkg/api"
	"github.com/HamiGames/Lucid-sub007/pkg/auth"
	"github.com/HamiGames/Lucid-sub007/pkg/config"
	"github.com/HamiGames/Lucid-sub007/pkg/consensus"
	"github.com/HamiGames/Lucid-sub007/pkg/db/sqlite"
	"github.com/HamiGames/Lucid-sub007/pkg/logging"
	"github.com/HamiGames/Lucid-sub007/pkg/vrf"
)

var (
	hostname     string
	port         int
	dbPath       string
	loggingLevel string
)

func Run() {
	flag.StringVar(&hostname, "hostname", "localhost",
		"location at which the API shall be served.")
	flag.IntVar(&port, "port", 9001,
		"port on which the API shall be served.")
	flag.StringVar(&dbPath, "db-path", ".db",
		"path to the directory with the consensus db.")
	flag.StringVar(&loggingLevel, "level", "info",
		"level of logging.")
	flag.Parse()

	if port <= 0 || port > 65536 {
		handleCLIError(fmt.Errorf("the port must be between 1 and 65536, but was %d",
			port))
	}

	err := logging.InitLogging(loggingLevel)
	handleCLIError(err)

	cfg, err := config.Load()
	handleProgramError(err)

	sqliteDB, err := sqlite.NewSQLiteDB(dbPath)
	handleProgramError(err)
	defer sqliteDB.Close()

	authenticator, err := auth.NewEnvironmentBasedAuthentication()
	handleProgramError(err)

	seeder, err := newSeeder(cfg)
	handleProgramError(err)

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	engine := consensus.NewEngine(sqliteDB, cfg, seeder)
	go engine.Run(ctx)

	watcher := consensus.NewWatcher(sqliteDB, cfg.SlotDuration, cfg.SlotDuration, cfg.StoreTimeout)
	go watcher.Run(ctx)

	err = api.Serve(hostname, port, engine, authenticator)
	handleProgramError(err)
}

// newSeeder picks the seeder implementation: the ECVRF seeder, when a VRF key
// is configured, and the hash-based one otherwise.
func newSeeder(cfg *config.Config) (vrf.Seeder, error) {
	if cfg.VRFKeyHex != "" {
		return vrf.NewECVRFSeeder(cfg.VRFKeyHex)
	}
	return vrf.NewHashSeeder(), nil
}
