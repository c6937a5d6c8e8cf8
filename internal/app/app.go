package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/maphash"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/minefield/internal/agent"
	"github.com/vancomm/minefield/internal/config"
	"github.com/vancomm/minefield/internal/database"
	"github.com/vancomm/minefield/internal/game"
	"github.com/vancomm/minefield/internal/mines"
	"github.com/vancomm/minefield/internal/repository"
	"github.com/vancomm/minefield/internal/server"
)

// Players is what both the game and the HTTP handlers need from the
// player registry.
type Players interface {
	game.Registry
	CreatePlayer(ctx context.Context, params repository.CreatePlayerParams) (*repository.Player, error)
	ListOnlinePlayers(ctx context.Context, since time.Time) ([]repository.Player, error)
}

type App struct {
	logger  *logrus.Logger
	router  *http.ServeMux
	cfg     *config.App
	gameCfg *config.Game
	agent   *config.Agent
	jwt     *config.JWT
	cookies *config.Cookies
	ws      *config.WebSocket

	store   mines.Store
	players Players
	game    *game.Game
	hub     *server.Hub
	driver  *game.Driver
	closers []func()
}

func createRand() *rand.Rand {
	return rand.New(rand.NewPCG(
		new(maphash.Hash).Sum64(), new(maphash.Hash).Sum64(),
	))
}

// New reads the configuration of every component from the environment.
func New(logger *logrus.Logger) (*App, error) {
	a := &App{logger: logger, router: http.NewServeMux()}
	var err error
	if a.cfg, err = config.NewApp(); err != nil {
		return nil, err
	}
	if a.gameCfg, err = config.NewGame(); err != nil {
		return nil, err
	}
	if a.agent, err = config.NewAgent(); err != nil {
		return nil, err
	}
	if a.jwt, err = config.NewJWT(); err != nil {
		return nil, err
	}
	if a.cookies, err = config.NewCookies(a.jwt); err != nil {
		return nil, err
	}
	if a.ws, err = config.NewWebSocket(a.cfg.Origins); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) openStorage(ctx context.Context) error {
	a.players = repository.NewMemoryPlayers()
	switch a.gameCfg.Storage {
	case config.StoragePostgres:
		pool, migrator, err := database.ConnectAndMigrate(ctx)
		if err != nil {
			return fmt.Errorf("unable to connect to db: %w", err)
		}
		if version, dirty, err := migrator.Version(); err == nil {
			a.logger.WithFields(logrus.Fields{
				"version": version,
				"dirty":   dirty,
			}).Info("database migrated")
		}
		a.closers = append(a.closers, pool.Close)
		q := repository.New(pool)
		a.store = repository.NewPgSnapshotStore(q)
		a.players = q
	case config.StorageSQLite:
		db, err := sql.Open("sqlite3", a.gameCfg.StoragePath)
		if err != nil {
			return fmt.Errorf("unable to open %s: %w", a.gameCfg.StoragePath, err)
		}
		a.closers = append(a.closers, func() { db.Close() })
		kv, err := repository.NewKVStore(ctx, db, "minefield")
		if err != nil {
			return err
		}
		a.store = repository.NewKVSnapshotStore(kv)
		a.players = repository.NewKVPlayers(kv)
	case config.StorageFile:
		players, err := repository.NewFilePlayers(a.gameCfg.PlayersPath)
		if err != nil {
			return err
		}
		a.store = repository.NewFileStore(a.gameCfg.StoragePath)
		a.players = players
	default:
		a.store = repository.NewMemoryStore()
	}
	a.logger.WithFields(logrus.Fields{
		"storage": a.gameCfg.Storage,
		"path":    a.gameCfg.StoragePath,
	}).Info("storage ready")
	return nil
}

func (a *App) setupGame(ctx context.Context) error {
	engine, err := mines.NewEngine(a.store, a.gameCfg.Board,
		mines.WithRand(createRand()),
		mines.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}
	if err := engine.Load(ctx); err != nil {
		// the fresh board is live, saving it is retried on the next move
		a.logger.WithError(err).Warn("unable to load board")
	}

	agents := agent.New(engine, a.agent.Policy,
		agent.WithRand(createRand()),
		agent.WithLogger(a.logger),
		agent.WithPositions(func(player string) (mines.Point, bool) {
			p, err := a.players.FetchPlayer(context.Background(), player)
			if err != nil {
				return mines.Point{}, false
			}
			return p.Position(), true
		}),
	)

	a.hub = server.NewHub(a.logger)
	a.game = game.New(engine, agents, a.players,
		game.WithBroadcaster(a.hub),
		game.WithLogger(a.logger),
	)

	var bots []game.Bot
	for _, b := range game.DefaultBots() {
		if a.agent.Enabled(b.Username) {
			bots = append(bots, b)
		}
	}
	a.driver = game.NewDriver(a.game, bots, a.agent.Tick)
	if err := a.driver.Setup(ctx); err != nil {
		return fmt.Errorf("unable to set up bots: %w", err)
	}

	w, h := engine.Dims()
	a.logger.WithFields(logrus.Fields{
		"generation": engine.Generation(),
		"width":      w,
		"height":     h,
		"mines":      engine.MineCount(),
		"revealed":   engine.RevealedCount(),
		"bots":       len(bots),
	}).Info("board ready")
	return nil
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// Start serves HTTP and runs the bots until ctx is cancelled.
func (a *App) Start(ctx context.Context) error {
	defer a.close()
	if err := a.openStorage(ctx); err != nil {
		return err
	}
	if err := a.setupGame(ctx); err != nil {
		return err
	}
	a.loadRoutes(ctx)

	srv := &http.Server{
		Addr:    a.cfg.Addr(),
		Handler: a.handler(),
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
	}

	a.logger.Infof("ready to serve @ %s", a.cfg.Addr())

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return a.driver.Run(gCtx)
	})
	g.Go(func() error {
		<-gCtx.Done()
		a.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*30)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
