package app

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/khrees2412/careerflow/internal/analysis"
	"github.com/khrees2412/careerflow/internal/config"
	"github.com/khrees2412/careerflow/internal/database"
	"github.com/khrees2412/careerflow/internal/locale"
	"github.com/khrees2412/careerflow/internal/logger"
	"github.com/khrees2412/careerflow/internal/notify"
	"github.com/khrees2412/careerflow/internal/remote"
	"github.com/khrees2412/careerflow/internal/scraper"
	"github.com/khrees2412/careerflow/internal/store"
	"github.com/khrees2412/careerflow/pkg/models"
)

type (
	ApplicationStore    = store.Collection[models.Application, models.ApplicationDraft, models.ApplicationPatch]
	JobDescriptionStore = store.Collection[models.JobDescription, models.JobDescriptionDraft, models.JobDescriptionPatch]
)

// persistTimeout bounds a single write of the local snapshot.
const persistTimeout = 5 * time.Second

// App is the dependency container for the CLI application
type App struct {
	Config          *config.Config
	Logger          logger.Logger
	DB              *sql.DB
	Repo            *database.Repository
	Remote          *remote.Client
	Applications    *ApplicationStore
	JobDescriptions *JobDescriptionStore
	Notifications   *notify.Feed
	Locale          *locale.State
	Analyzer        *analysis.Orchestrator
	Renderer        scraper.Renderer

	unsubscribe []func()
}

// NewApp initializes and returns a new App instance
func NewApp(ctx context.Context) (*App, error) {
	cfg, err := config.Initialize()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg, dir)
}

// New builds an App from cfg, keeping its local snapshot in dir. The cached
// collections, notifications and language are restored from the snapshot;
// nothing is fetched from the backend until Refresh is called.
func New(ctx context.Context, cfg *config.Config, dir string) (*App, error) {
	log, err := logger.New(cfg.LogLevel, cfg.PrettyLog)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Open(filepath.Join(dir, database.FileName))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	client := remote.New(remote.Options{
		BaseURL:         cfg.APIURL,
		RequestTimeout:  cfg.RequestTimeout,
		AnalysisTimeout: cfg.AnalysisTimeout,
		Logger:          log.With(logger.String("component", "remote")),
	})

	a := &App{
		Config: cfg,
		Logger: log,
		DB:     db,
		Repo:   database.NewRepository(db),
		Remote: client,
		Applications: store.New[models.Application, models.ApplicationDraft, models.ApplicationPatch](
			"applications", client.Applications(), func(a models.Application) models.ID { return a.ID }, log),
		JobDescriptions: store.New[models.JobDescription, models.JobDescriptionDraft, models.JobDescriptionPatch](
			"jds", client.JobDescriptions(), func(jd models.JobDescription) models.ID { return jd.ID }, log),
		Notifications: notify.NewFeed(cfg.NotificationCapacity),
		Locale:        locale.New(),
		Renderer:      scraper.NewBrowser(log.With(logger.String("component", "scraper"))),
	}
	a.Analyzer = analysis.New(client, a.Applications, a.JobDescriptions, a.Notifications, analysis.Options{
		MaxCVBytes: int64(cfg.MaxCVSizeMB) << 20,
		Logger:     log.With(logger.String("component", "analysis")),
	})

	a.restore(ctx)
	a.persist()
	return a, nil
}

// restore seeds in-memory state from the local snapshot. A broken snapshot
// only costs the cached view, so failures are logged.
func (a *App) restore(ctx context.Context) {
	if apps, err := a.Repo.LoadApplications(ctx); err != nil {
		a.Logger.Warn("failed to restore cached applications", logger.Error(err))
	} else {
		a.Applications.Restore(apps)
	}
	if jds, err := a.Repo.LoadJobDescriptions(ctx); err != nil {
		a.Logger.Warn("failed to restore cached job descriptions", logger.Error(err))
	} else {
		a.JobDescriptions.Restore(jds)
	}
	if entries, err := a.Repo.LoadNotifications(ctx); err != nil {
		a.Logger.Warn("failed to restore notifications", logger.Error(err))
	} else {
		a.Notifications.Restore(entries)
	}

	lang := a.Config.Language
	if stored, ok, err := a.Repo.GetSetting(ctx, database.SettingLanguage); err != nil {
		a.Logger.Warn("failed to read language setting", logger.Error(err))
	} else if ok {
		lang = stored
	}
	if _, err := a.Locale.Set(lang); err != nil {
		a.Logger.Warn("ignoring configured language", logger.String("language", lang), logger.Error(err))
	}
}

// persist writes every change of the in-memory state to the snapshot.
func (a *App) persist() {
	save := func(what string, write func(ctx context.Context) error) {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := write(ctx); err != nil {
			a.Logger.Warn("failed to save local snapshot", logger.String("data", what), logger.Error(err))
		}
	}

	a.unsubscribe = append(a.unsubscribe,
		a.Applications.Subscribe(func(apps []models.Application) {
			save("applications", func(ctx context.Context) error { return a.Repo.SaveApplications(ctx, apps) })
		}),
		a.JobDescriptions.Subscribe(func(jds []models.JobDescription) {
			save("jds", func(ctx context.Context) error { return a.Repo.SaveJobDescriptions(ctx, jds) })
		}),
		a.Notifications.Subscribe(func(entries []models.Notification) {
			save("notifications", func(ctx context.Context) error { return a.Repo.SaveNotifications(ctx, entries) })
		}),
		a.Locale.Subscribe(func(lang string) {
			save("language", func(ctx context.Context) error { return a.Repo.SetSetting(ctx, database.SettingLanguage, lang) })
		}),
	)
}

// Refresh syncs applications and job descriptions from the backend in
// parallel. A failed collection keeps its cached data; the first error is
// returned so callers can say the view may be stale.
func (a *App) Refresh(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return a.Applications.Refresh(ctx) })
	g.Go(func() error { return a.JobDescriptions.Refresh(ctx) })
	return g.Wait()
}

// Close closes all resources
func (a *App) Close() error {
	for _, unsubscribe := range a.unsubscribe {
		unsubscribe()
	}
	_ = a.Logger.Sync()
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
