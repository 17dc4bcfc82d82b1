// newsimpact: news-driven stock price impact analysis.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/seenimoa/newsimpact/api"
	"github.com/seenimoa/newsimpact/internal/agent"
	"github.com/seenimoa/newsimpact/internal/config"
	"github.com/seenimoa/newsimpact/internal/llm"
	"github.com/seenimoa/newsimpact/internal/logging"
	"github.com/seenimoa/newsimpact/internal/mcpserver"
	"github.com/seenimoa/newsimpact/internal/report"
	"github.com/seenimoa/newsimpact/internal/storage"
	"github.com/seenimoa/newsimpact/internal/tui"
	"github.com/seenimoa/newsimpact/pkg/models"
	"github.com/seenimoa/newsimpact/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var (
	cfg       *config.Config
	logCloser io.Closer
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "newsimpact",
	Short: "newsimpact: news sentiment vs. stock price impact",
	Long: `newsimpact gathers recent news about a listed company, fetches its
daily prices, measures the close-to-close return around each article and
asks an LLM to annotate sentiment and expected impact. The result is a
report comparing what the news said with what the price did.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env files are optional; real environment variables win.
		_ = godotenv.Load(".env.local", ".env")

		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		logCloser, err = logging.Setup(cfg.Logging)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(diagramCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statusCmd)
}

// signalContext is cancelled on SIGINT/SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("newsimpact %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Run Command ---

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Analyze the news impact on one stock",
	Long: `Run the full pipeline for one stock and print the report.

Examples:
  newsimpact run
  newsimpact run --ticker TSLA --company Tesla --lookback 14
  newsimpact run --ticker AAPL.US --company Apple --format md --out apple.md
  newsimpact run --ticker NVDA --company Nvidia --tui --format pdf --out nvda.pdf`,
	RunE: runAnalysis,
}

func init() {
	f := runCmd.Flags()
	f.String("ticker", "AMZN.US", "ticker symbol (Stooq style, e.g. AMZN.US)")
	f.String("company", "Amazon", "company name used in news queries")
	f.Int("lookback", 3, "days of news to gather")
	f.Int("event-window", 1, "trading days after publication for the return")
	f.Int("max-articles", 3, "articles to annotate")
	f.String("format", "json", "output format: "+strings.Join(formatNames(), ", "))
	f.String("out", "", "write the report to this file instead of stdout")
	f.Bool("tui", false, "show live step progress")
	f.Bool("no-store", false, "do not save the run to history")
}

func formatNames() []string {
	var names []string
	for _, f := range report.Formats() {
		names = append(names, string(f))
	}
	return names
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	ticker, _ := f.GetString("ticker")
	company, _ := f.GetString("company")
	lookback, _ := f.GetInt("lookback")
	window, _ := f.GetInt("event-window")
	maxArticles, _ := f.GetInt("max-articles")
	formatName, _ := f.GetString("format")
	outPath, _ := f.GetString("out")
	useTUI, _ := f.GetBool("tui")
	noStore, _ := f.GetBool("no-store")

	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}
	if outPath == "" && format == report.FormatPDF {
		return fmt.Errorf("pdf output needs --out")
	}

	req := models.Request{
		Ticker:          utils.NormalizeTicker(ticker),
		CompanyName:     strings.TrimSpace(company),
		LookbackDays:    lookback,
		EventWindowDays: window,
		MaxArticles:     maxArticles,
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	store, err := a.openStore(noStore)
	if err != nil {
		return err
	}

	var rep *models.FinalReport
	if useTUI {
		if cfg.Logging.File == "" {
			logging.Discard()
		}
		rep, err = tui.Run(ctx, os.Stderr, req, func(ctx context.Context, observe agent.Observer) (*models.FinalReport, error) {
			orch, err := a.orchestrator(observe)
			if err != nil {
				return nil, err
			}
			return orch.Run(ctx, req)
		})
	} else {
		var orch *agent.Orchestrator
		if orch, err = a.orchestrator(logObserver); err != nil {
			return err
		}
		rep, err = orch.Run(ctx, req)
	}
	if err != nil {
		return err
	}

	if store != nil {
		if err := store.Save(rep); err != nil {
			log.Warn().Err(err).Str("run_id", rep.RunID).Msg("saving run")
		}
	}

	return writeReport(rep, format, outPath)
}

// writeReport renders rep to path, or to stdout when path is empty.
func writeReport(rep *models.FinalReport, format report.Format, path string) error {
	if path == "" {
		return report.Render(os.Stdout, rep, format, report.DefaultReportConfig())
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.Render(file, rep, format, report.DefaultReportConfig()); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	log.Info().Str("path", path).Str("format", string(format)).Msg("report written")
	return nil
}

// --- Diagram Command ---

var diagramCmd = &cobra.Command{
	Use:   "diagram",
	Short: "Write the pipeline graph as a Mermaid diagram",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("out")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		path := filepath.Join(dir, "graph.mmd")
		if err := os.WriteFile(path, []byte(agent.Mermaid()), 0o644); err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	diagramCmd.Flags().String("out", "diagrams", "output directory")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.API.Port = port
		}

		ctx, stop := signalContext(cmd)
		defer stop()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		store, err := a.openStore(false)
		if err != nil {
			return err
		}

		hub := api.NewWSHub()
		orch, err := a.orchestrator(agent.Observers(logObserver, hub.Publish))
		if err != nil {
			return err
		}

		opts := api.Options{Config: cfg, Analyzer: orch, Hub: hub, Version: version}
		if store != nil {
			opts.Store = store
		}
		srv, err := api.NewServer(opts)
		if err != nil {
			return err
		}
		return srv.ListenAndServe(ctx, fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (default from config)")
}

// --- MCP Command ---

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the pipeline as MCP tools on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		store, err := a.openStore(false)
		if err != nil {
			return err
		}
		orch, err := a.orchestrator(logObserver)
		if err != nil {
			return err
		}

		defaults := models.NewRequest("", "")
		defaults.LookbackDays = cfg.Pipeline.LookbackDays
		defaults.EventWindowDays = cfg.Pipeline.EventWindowDays
		defaults.MaxArticles = cfg.Pipeline.MaxArticles

		opts := mcpserver.Options{Analyzer: orch, Defaults: defaults, Version: version}
		if store != nil {
			opts.Store = store
		}
		return mcpserver.ServeStdio(opts)
	},
}

// --- History Command ---

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List stored runs, or print one run",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Storage.Path == "" {
			return fmt.Errorf("run history is disabled (storage.path is empty)")
		}
		store, err := storage.Open(cfg.Storage.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		if len(args) == 1 {
			formatName, _ := cmd.Flags().GetString("format")
			format, err := report.ParseFormat(formatName)
			if err != nil {
				return err
			}
			rep, err := store.Get(args[0])
			if err != nil {
				return err
			}
			return report.Render(os.Stdout, rep, format, report.DefaultReportConfig())
		}

		ticker, _ := cmd.Flags().GetString("ticker")
		limit, _ := cmd.Flags().GetInt("limit")
		if ticker != "" {
			ticker = utils.NormalizeTicker(ticker)
		}
		recs, err := store.List(ticker, limit)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("no runs stored")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RUN ID\tTICKER\tCOMPANY\tARTICLES\tCREATED")
		for _, rec := range recs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
				rec.ID, rec.Report.Ticker, rec.Company, rec.Report.ArticlesAnalyzed,
				rec.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		return tw.Flush()
	},
}

func init() {
	historyCmd.Flags().String("ticker", "", "only runs for this ticker")
	historyCmd.Flags().Int("limit", storage.DefaultListLimit, "maximum runs to list")
	historyCmd.Flags().String("format", "text", "format for a single run")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and API key status",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  newsimpact: System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    LLM Provider:  %s (model: %s)\n", cfg.LLM.Primary, cfg.LLM.Model)
		if len(cfg.LLM.Fallback) > 0 {
			fmt.Printf("    LLM Fallback:  %s\n", strings.Join(cfg.LLM.Fallback, ", "))
		}
		fmt.Printf("    News:          %s\n", cfg.News.Provider)
		fmt.Printf("    Prices:        %s\n", cfg.Prices.Provider)
		cache := "memory"
		if cfg.Cache.RedisURL != "" {
			cache = "redis"
		}
		fmt.Printf("    Cache:         %s (ttl %s)\n", cache, cfg.Cache.TTL)
		history := cfg.Storage.Path
		if history == "" {
			history = "disabled"
		}
		fmt.Printf("    History:       %s\n", history)
		fmt.Printf("    API Server:    %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println()

		fmt.Println("  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}

		if ping, _ := cmd.Flags().GetBool("ping"); ping {
			fmt.Println()
			fmt.Println("  LLM Providers:")
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			router, err := llm.NewRouterFromConfig(ctx, cfg)
			if err != nil {
				fmt.Printf("    %s\n", err)
			} else {
				results := router.HealthCheck(ctx)
				for _, name := range router.ProviderNames() {
					status := "✅ reachable"
					if err := results[name]; err != nil {
						status = "❌ " + err.Error()
					}
					fmt.Printf("    %-25s %s\n", name+":", status)
				}
			}
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

func init() {
	statusCmd.Flags().Bool("ping", false, "ping the configured LLM providers")
}
