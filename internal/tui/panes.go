package tui

import (
	"context"

	"github.com/merchdeck/merchdeck/internal/auth"
	"github.com/merchdeck/merchdeck/internal/config"
	"github.com/merchdeck/merchdeck/internal/connector"
	"github.com/merchdeck/merchdeck/internal/ingest"
	"github.com/merchdeck/merchdeck/internal/pipeline"
	"github.com/merchdeck/merchdeck/internal/workbench"
	"github.com/merchdeck/merchdeck/pkg/events"
)

// Deps carries everything panes need. Grids get the record source of
// the upstream that owns their resource.
type Deps struct {
	Config     *config.Config
	Store      *config.Store
	Auth       *auth.Service
	Bus        *events.EventBus
	Watcher    *ingest.Watcher
	Uploader   pipeline.Uploader
	MasterData connector.RecordSource
	Ecommerce  connector.RecordSource
	ERP        connector.RecordSource
	Version    string
}

// BuildRegistry binds every catalogue destination to its pane factory.
func BuildRegistry(deps Deps) *workbench.Registry {
	reg := workbench.NewRegistry()

	reg.Register("dashboard", func(ctx context.Context) workbench.Pane {
		return newDashboardPane(deps.Auth, deps.Bus)
	})

	grid := func(resource, title string, source connector.RecordSource) {
		reg.Register(resource, func(ctx context.Context) workbench.Pane {
			return newGridPane(ctx, resource, title, source)
		})
	}
	grid("products", "Products", deps.MasterData)
	grid("stocks", "Stocks", deps.MasterData)
	grid("categories", "Categories", deps.MasterData)
	grid("orders", "Orders", deps.ERP)
	grid("invoices", "Invoices", deps.ERP)
	grid("customers", "Customers", deps.ERP)

	reg.Register("cms-pages", func(ctx context.Context) workbench.Pane {
		return newGridPane(ctx, "cms-pages", "CMS Pages", deps.Ecommerce)
	})

	reg.Register("bulk-media", func(ctx context.Context) workbench.Pane {
		return newMediaPane(ctx, deps.Watcher, deps.Uploader, deps.Config.Pipeline, deps.Bus)
	})

	reg.Register("locker-access", func(ctx context.Context) workbench.Pane {
		return newSystemPane(deps.Version, deps.Config.OpsPort, deps.Bus)
	})

	reg.Register("settings", func(ctx context.Context) workbench.Pane {
		return newSettingsPane(deps.Store)
	})

	return reg
}
