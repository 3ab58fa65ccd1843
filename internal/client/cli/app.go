package cli

import (
	"bufio"
	"context"
	"log"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/finbroker/internal/client/api"
	"github.com/dmitrijs2005/finbroker/internal/client/config"
	"github.com/dmitrijs2005/finbroker/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/finbroker/internal/client/resources"
	"github.com/dmitrijs2005/finbroker/internal/client/services"
	"github.com/dmitrijs2005/finbroker/internal/client/session"
	"github.com/dmitrijs2005/finbroker/internal/logging"
)

type App struct {
	config  *config.Config
	session *session.Session
	gateway *api.Gateway
	uploads services.UploadService
	cache   *resources.Cache
	watcher *services.ModerationWatcher
	reader  *bufio.Reader
	pending atomic.Int64

	watchMu     sync.Mutex
	watchCancel context.CancelFunc
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	db, err := metadata.InitDatabase(ctx, c.SessionDBPath)
	if err != nil {
		log.Printf("error initializing session database: %s", err.Error())
		return nil, err
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	sess := session.New(metadata.NewSQLiteRepository(db), func() {
		log.Println("Session expired. Please login again.")
	})
	if err := sess.Restore(ctx); err != nil {
		return nil, err
	}

	gw, err := api.New(c.ServerBaseURL, c.RequestTimeout, sess, logger)
	if err != nil {
		return nil, err
	}

	fetcher := resources.NewFetcher(gw, c.StaticPrefix)
	cache := resources.NewCache(fetcher, c.CacheSize, c.CacheTTL, logger)

	return &App{
		config:  c,
		session: sess,
		gateway: gw,
		uploads: services.NewUploadService(gw, cache, logger),
		cache:   cache,
		watcher: services.NewModerationWatcher(gw, c.PollInterval, logger),
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.cache.Purge()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.session.Token() != ""
}

// startWatcher launches the background moderation poll that keeps the
// pending badge counter current. At most one watcher runs at a time.
func (a *App) startWatcher(ctx context.Context) {
	a.watchMu.Lock()
	defer a.watchMu.Unlock()
	if a.watchCancel != nil {
		return
	}

	wctx, cancel := context.WithCancel(ctx)
	a.watchCancel = cancel
	go func() {
		for summaries := range a.watcher.Watch(wctx) {
			a.updatePending(summaries)
		}
	}()
}

// stopWatcher cancels the background poll so a logged-out session does not
// keep hitting the API with a cleared credential.
func (a *App) stopWatcher() {
	a.watchMu.Lock()
	defer a.watchMu.Unlock()
	if a.watchCancel != nil {
		a.watchCancel()
		a.watchCancel = nil
	}
	a.pending.Store(0)
}
