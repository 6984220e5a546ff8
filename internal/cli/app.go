package cli

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/acqbridge/internal/acq"
	"github.com/dmitrijs2005/acqbridge/internal/config"
	"github.com/dmitrijs2005/acqbridge/internal/filex"
	"github.com/dmitrijs2005/acqbridge/internal/session"
	"github.com/dmitrijs2005/acqbridge/internal/settings"
	"github.com/dmitrijs2005/acqbridge/internal/store"
	"github.com/dmitrijs2005/acqbridge/internal/vault"
)

const appName = "acqbridge"

// App wires the interactive CLI over the same vault and session machinery
// the native messaging host uses. Both surfaces share one sqlite file, so
// a credential saved here is immediately visible to the extension.
type App struct {
	config    *config.Config
	vault     *vault.Vault
	session   *session.Manager
	settings  settings.Repository
	newClient func(region acq.Region, apiKey string) (acq.API, error)
	reader    *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {
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
		return nil, fmt.Errorf("open database %s: %w", dbPath, err)
	}

	v := vault.New(db)

	httpc := &http.Client{Timeout: c.RequestTimeout}
	newClient := func(region acq.Region, apiKey string) (acq.API, error) {
		return acq.NewClient(region, apiKey, acq.WithHTTPClient(httpc))
	}

	return &App{
		config:    c,
		vault:     v,
		session:   session.NewManager(v),
		settings:  settings.NewSQLiteRepository(db),
		newClient: newClient,
		reader:    bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) isUnlocked() bool {
	return a.session.IsUnlocked()
}

func (a *App) Run(ctx context.Context) {
	fmt.Println("Welcome to AcqBridge CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

func (a *App) getStatus() string {
	if a.isUnlocked() {
		return "(unlocked)"
	}
	return "(locked)"
}
