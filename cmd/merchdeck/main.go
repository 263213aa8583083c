package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/merchdeck/merchdeck/internal/auth"
	"github.com/merchdeck/merchdeck/internal/config"
	"github.com/merchdeck/merchdeck/internal/connector"
	"github.com/merchdeck/merchdeck/internal/ingest"
	"github.com/merchdeck/merchdeck/internal/logging"
	"github.com/merchdeck/merchdeck/internal/menu"
	"github.com/merchdeck/merchdeck/internal/nav"
	"github.com/merchdeck/merchdeck/internal/server"
	"github.com/merchdeck/merchdeck/internal/tui"
	"github.com/merchdeck/merchdeck/pkg/events"
)

var (
	// Version is set at build time
	Version = "dev"

	workDir     string
	opsPort     int
	openPath    string
	noOps       bool
	noTUI       bool
	debugMode   bool
	showVersion bool
)

var rootCmd = &cobra.Command{
	Use:   "merchdeck",
	Short: "A TUI workbench for commerce back-office data with a bulk media pipeline",
	Long: `MerchDeck is a terminal workbench for administering commerce data.
It opens catalogue, sales and content destinations as tabs over the
configured upstream systems, and ships a bulk media pipeline that
matches dropped images against a product manifest and uploads them
in batches.

Basic Usage:
  merchdeck                     # Start the workbench on the dashboard
  merchdeck --open /products    # Start with the products tab active
  merchdeck -d ../shop          # Read merchdeck.toml and .env from ../shop

Ops Server Examples:
  merchdeck --ops-port 8080     # Serve /health, /api/tabs, /api/pipeline, /ws on 8080
  merchdeck --no-ops            # Disable the ops endpoint
  merchdeck --no-tui            # Headless mode (ops server and ingest only)

Configuration:
  merchdeck.toml                # Upstream endpoints, pipeline defaults, license
  .env                          # MERCHDECK_API_TOKEN and other secrets
  drop_dir                      # Directory watched for manifests and images`,
	Args: cobra.NoArgs,
	Run:  runApp,
}

func init() {
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "Show version information")
	rootCmd.Flags().StringVarP(&workDir, "dir", "d", ".", "Working directory (merchdeck.toml optional)")
	rootCmd.Flags().IntVar(&opsPort, "ops-port", 0, "Ops server port (overrides config)")
	rootCmd.Flags().StringVar(&openPath, "open", "", "Route to open on startup (e.g. /products)")
	rootCmd.Flags().BoolVar(&noOps, "no-ops", false, "Disable the ops HTTP server")
	rootCmd.Flags().BoolVar(&noTUI, "no-tui", false, "Run in headless mode (ops server only)")
	rootCmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	rootCmd.Version = Version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runApp(cmd *cobra.Command, args []string) {
	if showVersion {
		fmt.Printf("merchdeck version %s\n", Version)
		return
	}

	cfg, err := config.Load(workDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if opsPort > 0 {
		cfg.OpsPort = opsPort
	}
	if cfg.DropDir == "" {
		cfg.DropDir = filepath.Join(workDir, "dropzone")
	}

	logOpts := logging.FromEnv()
	logOpts.Console = noTUI
	if debugMode {
		logOpts.Level = "debug"
	}
	logging.Init(logOpts)
	log := logging.WithComponent("main")
	log.Info("starting", "version", Version, "dir", workDir)

	bus := events.NewEventBus()
	defer bus.Shutdown()

	watcher, err := ingest.New(cfg.DropDir, bus)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open drop dir %s: %v\n", cfg.DropDir, err)
		os.Exit(1)
	}
	if err := watcher.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to watch drop dir: %v\n", err)
		os.Exit(1)
	}
	defer watcher.Stop()

	settingsDir, err := config.DefaultDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to resolve settings dir: %v\n", err)
		os.Exit(1)
	}
	store, err := config.NewStore(settingsDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open settings store: %v\n", err)
		os.Exit(1)
	}
	settings, err := store.Load()
	if err != nil {
		log.Warn("settings unreadable, using defaults", "error", err)
		settings = config.DefaultSettings()
	}

	authSvc := auth.NewService(bus)
	tree := menu.DefaultTree()

	registry := tui.BuildRegistry(tui.Deps{
		Config:     cfg,
		Store:      store,
		Auth:       authSvc,
		Bus:        bus,
		Watcher:    watcher,
		Uploader:   connector.NewMediaUploader(cfg.Upstreams.Ecommerce),
		MasterData: connector.NewRecordClient(cfg.Upstreams.MasterData),
		Ecommerce:  connector.NewRecordClient(cfg.Upstreams.Ecommerce),
		ERP:        connector.NewRecordClient(cfg.Upstreams.ERP),
		Version:    Version,
	})

	var ops *server.Server
	if !noOps && cfg.OpsPort > 0 {
		state := newOpsState(bus, nav.NewBinding(tree.Flatten()))
		ops = server.New(cfg.OpsPort, bus, server.Snapshots{
			Tabs:     state.Tabs,
			Pipeline: state.Pipeline,
		})
		go func() {
			if err := ops.Start(); err != nil {
				log.Error("ops server failed", "error", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := ops.Shutdown(ctx); err != nil {
				log.Warn("ops server shutdown", "error", err)
			}
		}()
	}

	if noTUI {
		runHeadless(log)
		return
	}

	pinned, collapsed := true, false
	if settings.Sidebar != nil {
		pinned = settings.Sidebar.Pinned
		collapsed = settings.Sidebar.Collapsed
	}

	model, err := tui.NewModel(tui.Options{
		Tree:        tree,
		Registry:    registry,
		Auth:        authSvc,
		Bus:         bus,
		LoadAuth:    func() (*auth.User, auth.License) { return localIdentity(cfg) },
		InitialPath: openPath,
		Pinned:      pinned,
		Collapsed:   collapsed,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to assemble workbench: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(model, tea.WithAltScreen())

	sigChan := make(chan os.Signal, 1)
	setupSignalHandling(sigChan)
	go func() {
		<-sigChan
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "merchdeck exited with error: %v\n", err)
		os.Exit(1)
	}
	log.Info("shutting down")
}

// runHeadless keeps the ops server and ingest watcher alive until a
// termination signal arrives.
func runHeadless(log *slog.Logger) {
	log.Info("running headless")
	sigChan := make(chan os.Signal, 1)
	setupSignalHandling(sigChan)
	<-sigChan
	log.Info("shutting down")
}

// localIdentity resolves the operator identity used until a directory
// integration lands. The role comes from the environment so admin-only
// destinations stay gated by default.
func localIdentity(cfg *config.Config) (*auth.User, auth.License) {
	name := os.Getenv("MERCHDECK_USER")
	if name == "" {
		name = "operator"
	}
	role := auth.Role(os.Getenv("MERCHDECK_ROLE"))
	if !role.Valid() {
		role = auth.RoleManager
	}

	user := &auth.User{
		ID:          name,
		DisplayName: name,
		Role:        role,
		Permissions: map[string]bool{
			"view:dashboard":  true,
			"view:products":   true,
			"view:stocks":     true,
			"view:categories": true,
			"view:orders":     true,
			"view:invoices":   true,
			"view:customers":  true,
			"view:cms":        true,
			"edit:products":   true,
		},
	}
	if role.AtLeast(auth.RoleAdmin) {
		user.Permissions["admin:locker"] = true
	}
	return user, licenseFromConfig(cfg.License)
}

// licenseFromConfig converts the provisioned license block into the
// runtime license state.
func licenseFromConfig(lc config.LicenseConfig) auth.License {
	lic := auth.License{
		Valid:    lc.Valid,
		Level:    lc.Level,
		Features: make(map[string]bool, len(lc.Features)),
	}
	for _, f := range lc.Features {
		lic.Features[f] = true
	}
	if lc.Expiry != "" {
		if t, err := time.Parse(time.RFC3339, lc.Expiry); err == nil {
			lic.ExpiryDate = &t
			if t.Before(time.Now()) {
				lic.Valid = false
			}
		} else {
			logging.WithComponent("main").Warn("unparseable license expiry", "value", lc.Expiry)
		}
	}
	return lic
}
