package internal

import (
	"log/slog"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/starford/catadmin/internal/api"
	"github.com/starford/catadmin/internal/apiclient"
	"github.com/starford/catadmin/internal/catalog"
	"github.com/starford/catadmin/internal/journal"
	"github.com/starford/catadmin/internal/mcpserver"
	"github.com/starford/catadmin/internal/resource"
	"github.com/starford/catadmin/internal/sse"
	"github.com/starford/catadmin/internal/views"
)

type buildInfo struct {
	version string
}

// newContainer registers every component of the admin. Components are built
// lazily on first invoke; the broker and the journal are shut down with the
// container.
func newContainer(cfg *Config, logger *slog.Logger, version string) *do.RootScope {
	i := do.New()

	do.ProvideValue(i, cfg)
	do.ProvideValue(i, logger)
	do.ProvideValue(i, buildInfo{version: version})

	do.Provide(i, provideAPIClient)
	do.Provide(i, provideRegistry)
	do.Provide(i, provideBroker)
	do.Provide(i, provideJournal)

	do.Provide(i, provideStores[catalog.Brand]("brands"))
	do.Provide(i, provideStores[catalog.Model]("models"))
	do.Provide(i, provideStores[catalog.Rating]("ratings"))
	do.Provide(i, provideStores[catalog.Gallery]("galleries"))
	do.Provide(i, provideStores[catalog.Spec]("specs"))

	do.Provide(i, provideViews)
	do.Provide(i, provideRouter)
	do.Provide(i, provideMCPServer)

	return i
}

func provideAPIClient(i do.Injector) (*apiclient.Client, error) {
	cfg := do.MustInvoke[*Config](i)
	logger := do.MustInvoke[*slog.Logger](i)
	return apiclient.New(cfg.API.ClientOptions(), logger), nil
}

func provideRegistry(do.Injector) (*catalog.Registry, error) {
	return catalog.DefaultRegistry(), nil
}

func provideBroker(i do.Injector) (*sse.Broker, error) {
	cfg := do.MustInvoke[*Config](i)
	return sse.NewBroker(cfg.Events.Throttle), nil
}

func provideJournal(i do.Injector) (*journal.DB, error) {
	cfg := do.MustInvoke[*Config](i)
	logger := do.MustInvoke[*slog.Logger](i)

	db, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return nil, err
	}
	logger.Info("Journal opened", slog.String("path", cfg.Journal.Path))
	return db, nil
}

// provideStores builds the store factory of one resource. Its stores are
// hooked to the SSE broker and the journal.
func provideStores[R catalog.Record](name string) func(do.Injector) (*resource.Factory[R], error) {
	return func(i do.Injector) (*resource.Factory[R], error) {
		def, err := do.MustInvoke[*catalog.Registry](i).Get(name)
		if err != nil {
			return nil, err
		}
		client := do.MustInvoke[*apiclient.Client](i)
		broker := do.MustInvoke[*sse.Broker](i)
		db := do.MustInvoke[*journal.DB](i)
		logger := do.MustInvoke[*slog.Logger](i).With(slog.String("resource", name))

		record := db.Recorder(logger)
		return resource.NewFactory[R](def, client,
			resource.WithLogger(logger),
			resource.WithOnChange(broker.PublishChange),
			resource.WithOnResult(func(r resource.Result) {
				record(r)
				broker.PublishResult(r)
			}),
		), nil
	}
}

func provideViews(i do.Injector) (*views.Set, error) {
	return views.NewSet(
		views.Bind(do.MustInvoke[*resource.Factory[catalog.Brand]](i)),
		views.Bind(do.MustInvoke[*resource.Factory[catalog.Model]](i)),
		views.Bind(do.MustInvoke[*resource.Factory[catalog.Rating]](i)),
		views.Bind(do.MustInvoke[*resource.Factory[catalog.Gallery]](i)),
		views.Bind(do.MustInvoke[*resource.Factory[catalog.Spec]](i)),
	), nil
}

func provideRouter(i do.Injector) (http.Handler, error) {
	cfg := do.MustInvoke[*Config](i)
	db := do.MustInvoke[*journal.DB](i)

	return api.NewRouter(api.Deps{
		Resources:   do.MustInvoke[*views.Set](i),
		Activity:    db,
		Events:      do.MustInvoke[*sse.Broker](i),
		Ready:       db.Ping,
		CORSOrigins: cfg.App.CORSOrigins,
	}), nil
}

func provideMCPServer(i do.Injector) (*mcpserver.Server, error) {
	info := do.MustInvoke[buildInfo](i)
	return mcpserver.New(do.MustInvoke[*views.Set](i), info.version), nil
}
