package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"call-duration-analyzer/internal/callrecord"
	"call-duration-analyzer/internal/config"
	"call-duration-analyzer/internal/integrations/paramstore"
	"call-duration-analyzer/internal/repository"
	"call-duration-analyzer/internal/usecase"
)

// App wires the record source, extractor and analysis service for one
// configuration.
type App struct {
	cfg      config.Config
	db       *sql.DB
	analyzer *usecase.AnalyzeService
}

// New connects to the configured record source. awsCfg is only used by the
// DynamoDB source and for resolving credentials from SSM.
func New(ctx context.Context, cfg config.Config, awsCfg aws.Config) (*App, error) {
	a := &App{cfg: cfg}

	src, err := a.source(ctx, awsCfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	extractor := callrecord.NewExtractor(cfg.DashboardBaseURL, cfg.DashboardParams)
	analyzer, err := usecase.NewAnalyzeService(src, extractor, cfg.ProgressEvery)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("app: create analyze service: %w", err)
	}
	a.analyzer = analyzer
	return a, nil
}

func (a *App) source(ctx context.Context, awsCfg aws.Config) (usecase.RecordSource, error) {
	hook := repository.WithPageHook(func(page, total int) {
		slog.Info("fetched webhooks so far", "page", page, "total", total)
	})

	if a.cfg.Source == config.SourceDynamoDB {
		src, err := repository.NewDynamoSource(awsdynamodb.NewFromConfig(awsCfg), a.cfg.Table, a.cfg.PageSize, hook)
		if err != nil {
			return nil, fmt.Errorf("app: create dynamodb source: %w", err)
		}
		return src, nil
	}

	dsn, err := a.databaseURL(ctx, awsCfg)
	if err != nil {
		return nil, err
	}
	driver, dialect := "postgres", repository.DialectPostgres
	if a.cfg.Source == config.SourceSQLite {
		driver, dialect = "sqlite", repository.DialectSQLite
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("app: open %s: %w", driver, err)
	}
	a.db = db
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("app: connect %s: %w", driver, err)
	}

	src, err := repository.NewSQLSource(db, dialect, a.cfg.Table, a.cfg.PageSize, hook)
	if err != nil {
		return nil, fmt.Errorf("app: create sql source: %w", err)
	}
	return src, nil
}

func (a *App) databaseURL(ctx context.Context, awsCfg aws.Config) (string, error) {
	if a.cfg.DatabaseURL != "" {
		return a.cfg.DatabaseURL, nil
	}
	ps, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		return "", fmt.Errorf("app: create SSM client: %w", err)
	}
	url, err := paramstore.ConnectionString(ctx, ps, a.cfg.DatabaseURLParam)
	if err != nil {
		return "", fmt.Errorf("app: resolve database url: %w", err)
	}
	return url, nil
}

func (a *App) Analyzer() *usecase.AnalyzeService { return a.analyzer }

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
