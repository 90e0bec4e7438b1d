package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-docbot/internal/commands"
	governancecmd "github.com/goliatone/go-docbot/internal/commands/governance"
	"github.com/goliatone/go-docbot/internal/events"
	"github.com/goliatone/go-docbot/internal/governance"
	"github.com/goliatone/go-docbot/internal/graph"
	httpapi "github.com/goliatone/go-docbot/internal/http"
	"github.com/goliatone/go-docbot/internal/images"
	"github.com/goliatone/go-docbot/internal/jobs"
	"github.com/goliatone/go-docbot/internal/library"
	"github.com/goliatone/go-docbot/internal/logging"
	"github.com/goliatone/go-docbot/internal/logging/gologger"
	"github.com/goliatone/go-docbot/internal/pdf"
	"github.com/goliatone/go-docbot/internal/pipeline"
	"github.com/goliatone/go-docbot/internal/runtimeconfig"
	"github.com/goliatone/go-docbot/internal/sitepages"
	"github.com/goliatone/go-docbot/internal/source"
	"github.com/goliatone/go-docbot/internal/storage"
	"github.com/goliatone/go-docbot/internal/webhooks"
	"github.com/goliatone/go-docbot/pkg/interfaces"
)

// SourceClient is the GitHub surface the bot reads documents and edits pull
// requests through.
type SourceClient interface {
	pipeline.ContentSource
	pipeline.PullRequests
}

// GraphClient is the Microsoft Graph surface pages, libraries and files go
// through.
type GraphClient interface {
	sitepages.Client
	library.Client
	images.DriveClient
}

type unsubscriber interface {
	Unsubscribe()
}

// Container wires the bot services from a runtime config.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logger         interfaces.Logger
	registry       *prometheus.Registry
	now            func() time.Time

	bunDB         *bun.DB
	ownsDB        bool
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	source SourceClient
	graph  GraphClient
	events events.Publisher
	sink   governancecmd.ReportSink

	store      governance.Store
	loader     *governance.Loader
	metrics    *pipeline.Metrics
	cmdMetrics *commands.CommandMetrics
	renderer   *pdf.Renderer
	processor  *pipeline.Processor
	approvals  *pipeline.ApprovalWorkflow
	commands   *governancecmd.HandlerSet
	audit      *jobs.InMemoryAuditRecorder
	worker     *jobs.Worker
	webhook    *webhooks.Handler

	dispatch      bool
	subscriptions []unsubscriber
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider built from the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

// WithRegistry collects metrics in registry instead of a fresh one.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(c *Container) {
		if registry != nil {
			c.registry = registry
		}
	}
}

// WithBunDB uses db for SQL storage. The caller keeps ownership.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the repository cache used in front of SQL storage.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithGovernanceStore overrides the store selected by the storage config.
func WithGovernanceStore(store governance.Store) Option {
	return func(c *Container) {
		if store != nil {
			c.store = store
		}
	}
}

// WithSourceClient overrides the GitHub client.
func WithSourceClient(client SourceClient) Option {
	return func(c *Container) {
		if client != nil {
			c.source = client
		}
	}
}

// WithGraphClient overrides the Graph client.
func WithGraphClient(client GraphClient) Option {
	return func(c *Container) {
		if client != nil {
			c.graph = client
		}
	}
}

// WithEventPublisher overrides the NATS publisher.
func WithEventPublisher(publisher events.Publisher) Option {
	return func(c *Container) {
		if publisher != nil {
			c.events = publisher
		}
	}
}

// WithReportSink receives every push report.
func WithReportSink(sink governancecmd.ReportSink) Option {
	return func(c *Container) {
		c.sink = sink
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Container) {
		if now != nil {
			c.now = now
		}
	}
}

// WithDispatcher routes webhook work through the go-command dispatcher with
// Pipeline.Retries retries instead of calling the handlers directly.
func WithDispatcher() Option {
	return func(c *Container) {
		c.dispatch = true
	}
}

// NewContainer builds every service. Clients not injected through options
// are created from cfg, so their credentials must be present.
func NewContainer(ctx context.Context, cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Container{Config: cfg, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	steps := []func(context.Context) error{
		c.configureLogger,
		c.configureMetrics,
		c.configureStorage,
		c.configureClients,
		c.configureServices,
		c.configureCommands,
		c.configureIngress,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			_ = c.Close(context.Background())
			return nil, err
		}
	}
	return c, nil
}

func (c *Container) configureLogger(context.Context) error {
	if c.loggerProvider == nil && strings.EqualFold(strings.TrimSpace(c.Config.Logging.Provider), "gologger") {
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     c.Config.Logging.Level,
			Format:    c.Config.Logging.Format,
			AddSource: c.Config.Logging.AddSource,
			Focus:     c.Config.Logging.Focus,
		})
		if err != nil {
			return fmt.Errorf("di: logger: %w", err)
		}
		c.loggerProvider = provider
	}
	c.logger = logging.ModuleLogger(c.loggerProvider, "docbot.di")
	return nil
}

func (c *Container) configureMetrics(context.Context) error {
	if c.registry == nil {
		c.registry = prometheus.NewRegistry()
	}
	c.metrics = pipeline.NewMetrics(c.registry)
	c.cmdMetrics = commands.NewCommandMetrics(c.registry)
	return nil
}

func (c *Container) configureStorage(ctx context.Context) error {
	if c.store != nil {
		return nil
	}
	cfg := c.Config.Storage
	if strings.EqualFold(strings.TrimSpace(cfg.Driver), runtimeconfig.DriverMemory) && c.bunDB == nil {
		c.store = governance.NewMemoryStore()
		return nil
	}

	if c.bunDB == nil {
		db, err := storage.Open(ctx, cfg.Driver, cfg.DSN)
		if err != nil {
			return fmt.Errorf("di: storage: %w", err)
		}
		c.bunDB = db
		c.ownsDB = true
	}
	if cfg.AutoMigrate {
		if _, err := storage.Migrate(ctx, c.bunDB, logging.ModuleLogger(c.loggerProvider, "docbot.storage")); err != nil {
			return fmt.Errorf("di: %w", err)
		}
	}

	c.configureCacheDefaults()
	c.store = governance.NewBunStoreWithCache(c.bunDB, c.cacheService, c.keySerializer)
	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Storage.Cache.Enabled {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if ttl := c.Config.Storage.Cache.TTL; ttl > 0 {
			cfg.TTL = ttl
		}
		service, err := repocache.NewCacheService(cfg)
		if err != nil {
			c.logger.Warn("di.cache.disabled", "error", err)
			return
		}
		c.cacheService = service
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureClients(context.Context) error {
	if c.source == nil {
		client, err := source.NewGitHubClient(source.Config{
			AppID:          c.Config.GitHub.AppID,
			InstallationID: c.Config.GitHub.InstallationID,
			PrivateKey:     []byte(c.Config.GitHub.PrivateKey),
			Token:          c.Config.GitHub.Token,
			BaseURL:        c.Config.GitHub.BaseURL,
			Timeout:        c.Config.GitHub.Timeout,
		}, source.WithLogger(logging.ModuleLogger(c.loggerProvider, "docbot.source")))
		if err != nil {
			return fmt.Errorf("di: github: %w", err)
		}
		c.source = client
	}

	if c.graph == nil {
		client, err := graph.NewClient(graph.Config{
			TenantID:     c.Config.Graph.TenantID,
			ClientID:     c.Config.Graph.ClientID,
			ClientSecret: c.Config.Graph.ClientSecret,
			BaseURL:      c.Config.Graph.BaseURL,
			TokenURL:     c.Config.Graph.TokenURL,
			Timeout:      c.Config.Graph.Timeout,
		}, graph.WithLogger(logging.ModuleLogger(c.loggerProvider, "docbot.graph")))
		if err != nil {
			return fmt.Errorf("di: graph: %w", err)
		}
		c.graph = client
	}

	if c.events == nil {
		if url := strings.TrimSpace(c.Config.Events.NATSURL); url != "" {
			publisher, err := events.Connect(url, c.Config.Events.ClientName,
				events.WithLogger(logging.ModuleLogger(c.loggerProvider, "docbot.events")),
				events.WithClock(c.now))
			if err != nil {
				return fmt.Errorf("di: events: %w", err)
			}
			c.events = publisher
		} else {
			c.events = events.Noop{}
		}
	}
	return nil
}

func (c *Container) configureServices(context.Context) error {
	c.loader = governance.NewLoader(c.source, c.store,
		governance.WithLogger(logging.GovernanceLogger(c.loggerProvider)),
		governance.WithSourceObserver(c.metrics.ObserveConfigSource))

	resolver := library.NewResolver(c.graph, library.WithLogger(logging.LibraryLogger(c.loggerProvider)))
	uploader := images.NewUploader(c.graph, logging.ImagesLogger(c.loggerProvider))
	imageProcessor := images.NewProcessor(uploader,
		images.WithObserver(c.metrics.ObserveImage),
		images.WithProcessorLogger(logging.ImagesLogger(c.loggerProvider)))
	publisher := sitepages.NewPublisher(c.graph,
		sitepages.WithLogger(logging.PagesLogger(c.loggerProvider)),
		sitepages.WithImages(imageProcessor, resolver))

	deps := pipeline.Dependencies{
		Config:    c.loader,
		Source:    c.source,
		Sites:     c.graph,
		Libraries: resolver,
		Pages:     publisher,
		Events:    c.events,
	}
	if c.Config.Pipeline.RenderPDF {
		renderer, err := pdf.NewRenderer(c.Config.PDF.Config, pdf.WithLogger(logging.PDFLogger(c.loggerProvider)))
		if err != nil {
			return fmt.Errorf("di: pdf: %w", err)
		}
		c.renderer = renderer
		deps.Renderer = renderer
		deps.Files = c.graph
	}

	processor, err := pipeline.NewProcessor(deps,
		pipeline.WithLogger(logging.PipelineLogger(c.loggerProvider)),
		pipeline.WithMetrics(c.metrics),
		pipeline.WithDocumentTimeout(c.Config.Pipeline.DocumentTimeout),
		pipeline.WithPDFOptions(c.Config.PDF.Options()),
		pipeline.WithClock(c.now))
	if err != nil {
		return fmt.Errorf("di: %w", err)
	}
	c.processor = processor

	approvals, err := pipeline.NewApprovalWorkflow(c.loader, c.source,
		pipeline.WithApprovalLogger(logging.ApprovalsLogger(c.loggerProvider)),
		pipeline.WithApprovalClock(c.now))
	if err != nil {
		return fmt.Errorf("di: %w", err)
	}
	c.approvals = approvals
	return nil
}

func (c *Container) configureCommands(context.Context) error {
	opts := []governancecmd.Option{governancecmd.WithCommandMetrics(c.cmdMetrics)}
	if c.sink != nil {
		opts = append(opts, governancecmd.WithReportSink(c.sink))
	}
	set, err := governancecmd.RegisterGovernanceCommands(nil, governancecmd.Services{
		Pipeline:  c.processor,
		Approvals: c.approvals,
		Config:    c.loader,
	}, c.loggerProvider, opts...)
	if err != nil {
		return fmt.Errorf("di: %w", err)
	}
	c.commands = set

	if c.dispatch {
		retries := runner.WithMaxRetries(c.Config.Pipeline.Retries)
		c.subscriptions = append(c.subscriptions,
			dispatcher.SubscribeCommand(set.ProcessPush, retries),
			dispatcher.SubscribeCommand(set.UpdateApprovalTable, retries),
			dispatcher.SubscribeCommand(set.SyncConfig, retries),
		)
	}
	return nil
}

func (c *Container) configureIngress(context.Context) error {
	c.audit = jobs.NewInMemoryAuditRecorder(c.Config.Server.AuditSize)
	c.worker = jobs.NewWorker(
		jobs.WithAuditRecorder(c.audit),
		jobs.WithLogger(logging.ModuleLogger(c.loggerProvider, "docbot.jobs")),
		jobs.WithClock(c.now),
		jobs.WithConcurrency(c.Config.Server.Workers),
		jobs.WithQueueSize(c.Config.Server.QueueSize),
	)

	secret := strings.TrimSpace(c.Config.GitHub.WebhookSecret)
	if secret == "" {
		c.logger.Warn("di.webhooks.disabled", "reason", "no webhook secret configured")
		return nil
	}
	handler, err := webhooks.NewHandler([]byte(secret), c.worker, c.webhookHandlers(),
		webhooks.WithLogger(logging.WebhooksLogger(c.loggerProvider)),
		webhooks.WithDropObserver(c.metrics.ObserveWebhookDrop))
	if err != nil {
		return fmt.Errorf("di: %w", err)
	}
	c.webhook = handler
	return nil
}

func (c *Container) webhookHandlers() webhooks.Handlers {
	return webhooks.Handlers{
		Push: func(ctx context.Context, event pipeline.PushEvent) error {
			return c.ProcessPush(ctx, event)
		},
		PullRequest: c.ProcessPullRequest,
		Comment: func(ctx context.Context, comment webhooks.Comment) error {
			return c.ProcessComment(ctx, comment.PullRequest, comment.Actor, comment.Body)
		},
	}
}

// ProcessPush runs the push command.
func (c *Container) ProcessPush(ctx context.Context, event pipeline.PushEvent) error {
	msg := governancecmd.ProcessPushCommand{Event: event}
	if c.dispatch {
		return dispatcher.Dispatch(ctx, msg)
	}
	return c.commands.ProcessPush.Execute(ctx, msg)
}

// ProcessPullRequest syncs the approval table rows of pr.
func (c *Container) ProcessPullRequest(ctx context.Context, pr pipeline.PullRequestRef) error {
	return c.updateApprovalTable(ctx, governancecmd.UpdateApprovalTableCommand{PullRequest: pr})
}

// ProcessComment applies the decisions in a pull request comment.
func (c *Container) ProcessComment(ctx context.Context, pr pipeline.PullRequestRef, actor, body string) error {
	return c.updateApprovalTable(ctx, governancecmd.UpdateApprovalTableCommand{PullRequest: pr, Actor: actor, Comment: body})
}

func (c *Container) updateApprovalTable(ctx context.Context, msg governancecmd.UpdateApprovalTableCommand) error {
	if c.dispatch {
		return dispatcher.Dispatch(ctx, msg)
	}
	return c.commands.UpdateApprovalTable.Execute(ctx, msg)
}

// SyncConfig runs the config sync command.
func (c *Container) SyncConfig(ctx context.Context, repoFullName, ref string) error {
	msg := governancecmd.SyncConfigCommand{RepoFullName: repoFullName, Ref: ref}
	if c.dispatch {
		return dispatcher.Dispatch(ctx, msg)
	}
	return c.commands.SyncConfig.Execute(ctx, msg)
}

// Start launches the background workers.
func (c *Container) Start(ctx context.Context) {
	c.worker.Start(ctx)
}

// HTTPHandler returns the mux serving webhooks, metrics and the read API.
func (c *Container) HTTPHandler() (http.Handler, error) {
	opts := []httpapi.Option{
		httpapi.WithDeliveries(c.audit),
		httpapi.WithConfigs(c.store, c.loader),
	}
	if c.webhook != nil {
		opts = append(opts, httpapi.WithWebhook(c.Config.Server.WebhookPath, c.webhook))
	}
	if c.Config.Metrics.Enabled {
		opts = append(opts, httpapi.WithMetrics(c.Config.Metrics.Path, c.registry))
	}
	return httpapi.NewAPI(opts...).Handler()
}

// Close drains the worker queue and releases connections.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.worker != nil {
		if err := c.worker.Stop(ctx); err != nil && !errors.Is(err, jobs.ErrStopped) {
			errs = append(errs, err)
		}
	}
	for _, sub := range c.subscriptions {
		sub.Unsubscribe()
	}
	c.subscriptions = nil
	if c.events != nil {
		if err := c.events.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.ownsDB && c.bunDB != nil {
		if err := c.bunDB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LoggerProvider returns the provider module loggers come from. It is nil
// when logging is disabled.
func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }

// Registry returns the metrics registry.
func (c *Container) Registry() *prometheus.Registry { return c.registry }

// Store returns the governance config store.
func (c *Container) Store() governance.Store { return c.store }

// Loader returns the governance config loader.
func (c *Container) Loader() *governance.Loader { return c.loader }

// Processor returns the push pipeline.
func (c *Container) Processor() *pipeline.Processor { return c.processor }

// Approvals returns the approval workflow.
func (c *Container) Approvals() *pipeline.ApprovalWorkflow { return c.approvals }

// Renderer returns the PDF renderer, nil when rendering is disabled.
func (c *Container) Renderer() *pdf.Renderer { return c.renderer }

// Commands returns the governance command handlers.
func (c *Container) Commands() *governancecmd.HandlerSet { return c.commands }

// Deliveries returns the delivery audit trail.
func (c *Container) Deliveries() *jobs.InMemoryAuditRecorder { return c.audit }

// Worker returns the background queue.
func (c *Container) Worker() *jobs.Worker { return c.worker }

// Webhook returns the webhook handler, nil without a webhook secret.
func (c *Container) Webhook() *webhooks.Handler { return c.webhook }
