package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	httpadapter "fulfillment/internal/adapters/in/http"
	"fulfillment/internal/adapters/out/kafka/stagepublisher"
	"fulfillment/internal/adapters/out/memory/sitedir"
	memorystore "fulfillment/internal/adapters/out/memory/timelinestore"
	mongosites "fulfillment/internal/adapters/out/mongo/siterepo"
	pgsites "fulfillment/internal/adapters/out/postgres/siterepo"
	redisstore "fulfillment/internal/adapters/out/redis/timelinestore"
	"fulfillment/internal/adapters/out/seed/sitefile"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/jobs"
	"fulfillment/internal/pkg/metrics"

	"github.com/labstack/echo/v4"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const directoryReloadTimeout = 30 * time.Second

// CompositionRoot owns every long-lived dependency of the service.
type CompositionRoot struct {
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	directory *sitedir.Directory
	ledger    ports.StatusLedger
	publisher ports.StageEventPublisher
	planner   services.DeliveryPlanner
	scheduler *jobs.TimelineScheduler
	jobs      *jobs.JobManager

	closers []func() error
}

// NewCompositionRoot connects the configured backends and loads the site directory
// once. It fails when the directory cannot be loaded: the service never starts
// without sites.
func NewCompositionRoot(ctx context.Context, cfg Config, logger *slog.Logger) (*CompositionRoot, error) {
	c := &CompositionRoot{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(),
	}

	if err := c.build(ctx); err != nil {
		return nil, errors.Join(err, c.Close())
	}
	return c, nil
}

func (c *CompositionRoot) build(ctx context.Context) error {
	planner, err := services.NewDeliveryPlanner(c.cfg.Planner)
	if err != nil {
		return fmt.Errorf("planner: %w", err)
	}
	c.planner = planner

	source, err := c.newSiteSource(ctx)
	if err != nil {
		return fmt.Errorf("site source: %w", err)
	}

	c.directory = sitedir.New(source, c.metrics, c.logger)
	if err = c.directory.Reload(ctx); err != nil {
		return err
	}

	if c.ledger, err = c.newLedger(ctx); err != nil {
		return fmt.Errorf("status ledger: %w", err)
	}

	c.publisher = c.newPublisher()

	recorder := commands.NewRecordStageCommandHandler(c.ledger, c.publisher, c.metrics, c.logger)
	c.scheduler = jobs.NewTimelineScheduler(recorder, jobs.DefaultRecordTimeout, c.metrics, c.logger)
	refresh := jobs.NewDirectoryRefreshJob(c.directory, c.cfg.DirectoryRefreshSchedule, directoryReloadTimeout, c.logger)
	c.jobs = jobs.NewJobManager(c.scheduler, refresh)

	return nil
}

func (c *CompositionRoot) newSiteSource(ctx context.Context) (ports.SiteSource, error) {
	switch c.cfg.DirectorySource {
	case DirectorySourcePostgres:
		db, err := gorm.Open(postgresdriver.Open(c.cfg.PostgresDSN()), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, sqlDB.Close)
		return pgsites.NewGormSiteRepository(db), nil

	case DirectorySourceMongo:
		client, err := mongosites.Connect(ctx, c.cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, func() error { return client.Disconnect(context.Background()) })
		return mongosites.NewMongoSiteRepository(client.Database(c.cfg.MongoDatabase)), nil

	default:
		return sitefile.New(c.cfg.DirectorySeedPath), nil
	}
}

func (c *CompositionRoot) newLedger(ctx context.Context) (ports.StatusLedger, error) {
	if c.cfg.LedgerBackend != LedgerBackendRedis {
		return memorystore.New(), nil
	}

	client, err := redisstore.NewClient(ctx, c.cfg.RedisAddr, c.cfg.RedisPassword, c.cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, client.Close)
	return redisstore.New(client, redisstore.DefaultKeyPrefix, c.cfg.LedgerTTL), nil
}

// newPublisher returns nil when no broker is configured; handlers then skip publishing.
func (c *CompositionRoot) newPublisher() ports.StageEventPublisher {
	brokers := c.cfg.KafkaBrokers()
	if len(brokers) == 0 {
		c.logger.Info("Stage event publishing disabled, KAFKA_HOST is empty")
		return nil
	}

	writer := stagepublisher.NewWriter(brokers, c.cfg.KafkaStageEventsTopic)
	publisher := stagepublisher.New(writer, stagepublisher.DefaultConfig(), c.metrics, c.logger)
	c.closers = append(c.closers, publisher.Close)
	return publisher
}

func (c *CompositionRoot) CreateDispatchOrderCommandHandler() commands.DispatchOrderCommandHandler {
	return commands.NewDispatchOrderCommandHandler(
		c.directory, c.ledger, c.scheduler, c.publisher, c.planner, commands.SystemClock{}, c.metrics, c.logger)
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() commands.CancelOrderCommandHandler {
	return commands.NewCancelOrderCommandHandler(
		c.ledger, c.scheduler, c.publisher, commands.SystemClock{}, c.metrics, c.logger)
}

func (c *CompositionRoot) CreateGetOrderStatusQueryHandler() queries.GetOrderStatusQueryHandler {
	return queries.NewGetOrderStatusQueryHandler(c.ledger)
}

func (c *CompositionRoot) CreateServer() *httpadapter.Server {
	return httpadapter.NewServer(
		c.CreateDispatchOrderCommandHandler(),
		c.CreateCancelOrderCommandHandler(),
		c.CreateGetOrderStatusQueryHandler(),
		c.cfg.StatusUnknownAsNotFound,
	)
}

func (c *CompositionRoot) CreateRouter() (*echo.Echo, error) {
	return httpadapter.NewRouter(c.CreateServer(), c.metrics, c.logger)
}

func (c *CompositionRoot) JobManager() *jobs.JobManager {
	return c.jobs
}

// Close releases backend connections in reverse order of creation.
func (c *CompositionRoot) Close() error {
	var err error
	for i := len(c.closers) - 1; i >= 0; i-- {
		err = errors.Join(err, c.closers[i]())
	}
	c.closers = nil
	return err
}
