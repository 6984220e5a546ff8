package host

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dmitrijs2005/acqbridge/internal/acq"
	"github.com/dmitrijs2005/acqbridge/internal/config"
	"github.com/dmitrijs2005/acqbridge/internal/filex"
	"github.com/dmitrijs2005/acqbridge/internal/logging"
	"github.com/dmitrijs2005/acqbridge/internal/session"
	"github.com/dmitrijs2005/acqbridge/internal/store"
	"github.com/dmitrijs2005/acqbridge/internal/vault"
)

const appName = "acqbridge"

// App composes the native messaging host: sqlite store, vault, session and
// the dispatch handler, served over stdin/stdout.
type App struct {
	config  *config.Config
	logger  logging.Logger
	session *session.Manager
	handler *Handler
}

func NewApp(c *config.Config) (*App, error) {

	// stdout belongs to the messaging channel; all diagnostics go to stderr
	slogger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	logger := logging.NewSlogLogger(slogger)

	ctx := context.Background()

	dbPath := c.DBPath
	if dbPath == "" {
		dir, err := filex.EnsureDataDir(appName)
		if err != nil {
			return nil, err
		}
		dbPath = filepath.Join(dir, appName+".db")
	}

	db, err := store.Open(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	v := vault.New(db)
	s := session.NewManager(v)

	httpc := &http.Client{Timeout: c.RequestTimeout}
	newClient := func(region acq.Region, apiKey string) (acq.API, error) {
		return acq.NewClient(region, apiKey, acq.WithHTTPClient(httpc))
	}

	h := NewHandler(v, s, db, logger, newClient)

	return &App{config: c, logger: logger, session: s, handler: h}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		// purge the in-memory credential before going down
		app.session.Lock()
		cancelFunc()
	}()
}

// Run serves framed requests on stdin/stdout until the browser closes the
// pipe or a termination signal arrives.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	done := make(chan error, 1)
	go func() {
		done <- app.handler.Serve(ctx, os.Stdin, os.Stdout)
	}()

	select {
	case err := <-done:
		if err != nil {
			app.logger.Error(ctx, "serve error", "error", err)
		}
	case <-ctx.Done():
	}

	app.session.Lock()
}
