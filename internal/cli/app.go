package cli

import (
	"bufio"
	"context"
	"log/slog"
	"net/url"
	"os"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/splitsync/internal/bank"
	"github.com/dmitrijs2005/splitsync/internal/config"
	"github.com/dmitrijs2005/splitsync/internal/logging"
	"github.com/dmitrijs2005/splitsync/internal/netx"
	"github.com/dmitrijs2005/splitsync/internal/remote"
	"github.com/dmitrijs2005/splitsync/internal/repositories/metadata"
	"github.com/dmitrijs2005/splitsync/internal/schedule"
	"github.com/dmitrijs2005/splitsync/internal/session"
	"github.com/dmitrijs2005/splitsync/internal/syncer"
)

// App wires the local store, the remote client and the sync engine behind
// a small interactive shell.
type App struct {
	config      *config.Config
	repos       *Repositories
	session     *session.Manager
	api         *remote.HTTPClient
	coordinator *syncer.Coordinator
	runner      *schedule.Runner
	logger      logging.Logger
	reader      *bufio.Reader
}

func NewApp(cfg *config.Config) (*App, error) {
	ctx := context.Background()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	repos, err := InitDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	if err := ensureDeviceID(ctx, repos.Metadata); err != nil {
		return nil, err
	}

	sess := session.NewManager(repos.Metadata)
	api := remote.NewHTTPClient(cfg.ServerEndpointAddr, sess.Token)

	bankCache := bank.NewCache(
		bank.NewHTTPClient(cfg.BankEndpointAddr, cfg.BankAPIKey),
		repos.Banking, cfg.BankRefreshCooldown, logger)

	coordinator := syncer.NewCoordinator(syncer.Deps{
		Users:    repos.Users,
		Groups:   repos.Groups,
		Payments: repos.Payments,
		Banking:  repos.Banking,
		Rates:    repos.Rates,
		Devices:  repos.Devices,
		Prefs:    repos.Prefs,
		Archive:  repos.Archive,
		IDMap:    repos.IDMap,
		Metadata: repos.Metadata,
		Remote:   api,
		Bank:     bankCache,
		Prober:   netx.NewTCPProber(probeAddr(cfg.ServerEndpointAddr)),
		Session:  sess,
		Logger:   logger,
	})

	return &App{
		config:      cfg,
		repos:       repos,
		session:     sess,
		api:         api,
		coordinator: coordinator,
		runner:      schedule.NewRunner(coordinator, cfg.SyncInterval, logger),
		logger:      logger,
		reader:      bufio.NewReader(os.Stdin),
	}, nil
}

// ensureDeviceID assigns the install a stable identifier on first start.
func ensureDeviceID(ctx context.Context, md metadata.Repository) error {
	existing, err := md.Get(ctx, metadata.KeyDeviceID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	return md.Set(ctx, metadata.KeyDeviceID, []byte(uuid.NewString()))
}

// probeAddr derives a dialable host:port from the authority's base URL.
func probeAddr(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return baseURL
	}
	if u.Port() != "" {
		return u.Host
	}
	if u.Scheme == "https" {
		return u.Host + ":443"
	}
	return u.Host + ":80"
}

// Run starts the background scheduler and enters the interactive shell.
// It returns when the user exits.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.repos.DB.Close()

	go a.runner.Run(ctx)

	a.Main(ctx)
}
