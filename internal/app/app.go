package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mkovardin/shopfront/internal/cache"
	"github.com/mkovardin/shopfront/internal/catalog"
	"github.com/mkovardin/shopfront/internal/clicks"
	"github.com/mkovardin/shopfront/internal/config"
	"github.com/mkovardin/shopfront/internal/controllers"
	"github.com/mkovardin/shopfront/internal/logger"
	"github.com/mkovardin/shopfront/internal/middleware"
	"github.com/mkovardin/shopfront/internal/render"
)

type Server struct {
	srv    *http.Server
	ctx    context.Context
	cancel context.CancelFunc
	keeper *clicks.Keeper

	Log *logger.Logger
}

// NewServer creates a new Server instance with the provided context
func NewServer(ctx context.Context) *Server {
	ctx, cancel := context.WithCancel(ctx)
	return &Server{
		ctx:    ctx,
		cancel: cancel,
		Log:    &logger.Logger{},
	}
}

// storeSet resolves the per-tenant catalog store.
type storeSet map[string]*catalog.Store

func (s storeSet) For(site string) controllers.Storage {
	st, ok := s[site]
	if !ok {
		return nil
	}
	return st
}

// Serve wires configuration, catalogs, cache, click analytics and the
// router, then runs the HTTP server until Shutdown.
func (server *Server) Serve() {
	// create and initialize a new option instance
	option := config.NewOptions()
	option.ParseFlags()

	// get a new logger
	nLogger, err := logger.NewLogger(option.LogLevel())
	if err != nil {
		log.Fatalln(err)
	}
	server.Log = nLogger

	// tenant registry
	sites, err := config.LoadSites(option.SitesFile())
	if err != nil {
		nLogger.Error("cannot load sites", zap.Error(err))
		log.Fatalln(err)
	}

	// one store per site, warmed concurrently
	stores := make(storeSet, len(sites.All()))
	var storeList []*catalog.Store
	g, gctx := errgroup.WithContext(server.ctx)
	for _, site := range sites.All() {
		st := catalog.NewStore(site.Name, site.DataDir, nLogger)
		stores[site.Name] = st
		storeList = append(storeList, st)
		g.Go(func() error {
			return st.Load(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		// a missing data dir is an operational problem, not a fatal
		// one: the affected site serves an empty catalog
		nLogger.Error("catalog warmup incomplete", zap.Error(err))
	}

	// catalog cache with background janitor
	pageCache := cache.New(option.CacheTTL())
	go pageCache.Janitor(server.ctx, option.CacheTTL())

	// click analytics (optional; nil keeper is a no-op recorder)
	server.keeper = clicks.NewKeeper(server.ctx, option.DataBaseDSN, nLogger)
	go server.keeper.Run(server.ctx, 15*time.Second)

	// reload catalogs when the scraper rewrites data files
	watcher, err := catalog.NewWatcher(storeList, nLogger, func(site string) {
		pageCache.Invalidate(site + ":")
	})
	if err != nil {
		nLogger.Error("cannot start catalog watcher", zap.Error(err))
	} else {
		go watcher.Run(server.ctx)
	}

	renderer, err := render.NewRenderer(nLogger)
	if err != nil {
		nLogger.Error("cannot parse templates", zap.Error(err))
		log.Fatalln(err)
	}

	basecontr := controllers.NewBaseController(stores, pageCache, server.keeper, renderer, option.CronToken(), nLogger)

	// create router and mount routes
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(nLogger))
	r.Use(middleware.Tenant(sites))
	r.Use(middleware.CompressResponseMiddleware)
	r.Mount("/", basecontr.Route())

	// configure and start the server
	server.srv = &http.Server{
		Addr:         option.RunAddr(),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	nLogger.Info("starting storefront", zap.String("addr", option.RunAddr()))
	if err := server.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		nLogger.Error("server stopped", zap.Error(err))
		log.Fatalln(err)
	}
}

// Shutdown performs graceful server shutdown and flushes buffered
// click events.
func (server *Server) Shutdown(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if server.srv != nil {
		if err := server.srv.Shutdown(ctx); err != nil {
			server.Log.Error("HTTP server shutdown", zap.Error(err))
		}
	}

	// stops the janitor, watcher and keeper loops; the keeper flushes
	// once more on the way out
	server.cancel()

	if err := server.keeper.Flush(ctx); err != nil {
		server.Log.Error("final click flush failed", zap.Error(err))
	}
	server.keeper.Close()
	_ = server.Log.Sync()
}
