package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"pdf-compressor-go/internal/compressor"
	"pdf-compressor-go/internal/config"
	"pdf-compressor-go/internal/ghostscript"
	"pdf-compressor-go/internal/logger"
	"pdf-compressor-go/internal/preset"
	"pdf-compressor-go/internal/settings"
	"pdf-compressor-go/internal/web"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	outputDir string
	level     string
	useRecent bool
	recursive bool
	verbose   bool
	quiet     bool
	version   = "dev"
	port      int

	cfg *config.Config
	log *logrus.Logger
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "pdf-compressor",
	Short: "Batch-compress PDF files with Ghostscript",
	Long: `PDF Compressor shrinks PDF files by rewriting them through Ghostscript
with one of five compression levels, from Ekstrem (smallest files) to
Sangat Tinggi (prepress quality).

Each input is written to <output>/<name>_compressed.pdf. Files are processed
one at a time, in order; the first failure stops the batch.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// compressCmd runs a batch from the terminal.
var compressCmd = &cobra.Command{
	Use:   "compress [files or directories...]",
	Short: "Compress PDF files",
	Long: `Compress the given PDF files. Directories contribute the PDF files they
contain (add --recursive to descend into subdirectories).

The output directory defaults to the configured one, or the directory of the
first input. The level defaults to the stored default level.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompress(cmd.Context(), args)
	},
}

// levelsCmd lists the compression levels.
var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "List compression levels",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLevels()
	},
}

// recentCmd shows the recently selected files.
var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show recently compressed files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRecent()
	},
}

var recentClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the recent files list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *settings.Store) error {
			if err := store.ClearRecentFiles(); err != nil {
				return err
			}
			fmt.Println("Recent files cleared")
			return nil
		})
	},
}

// themeCmd shows or sets the interface theme.
var themeCmd = &cobra.Command{
	Use:       "theme [System|Dark|Light]",
	Short:     "Show or set the interface theme",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{settings.ThemeSystem, settings.ThemeDark, settings.ThemeLight},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTheme(args)
	},
}

// serveCmd starts the web interface server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start web interface server",
	Long: `Starts a local web server with a graphical interface to pick files,
choose a compression level and follow progress in real time.

Access the interface at http://localhost:<port> (default: 8080)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "suppress non-error output")

	compressCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory")
	compressCmd.Flags().StringVarP(&level, "level", "l", "", "compression level label or alias (see 'levels')")
	compressCmd.Flags().BoolVar(&useRecent, "recent", false, "also compress the recent files list")
	compressCmd.Flags().BoolVar(&recursive, "recursive", false, "descend into subdirectories")

	serveCmd.Flags().IntVar(&port, "port", 0, "port to run web server on (default from config)")

	recentCmd.AddCommand(recentClearCmd)
	rootCmd.AddCommand(compressCmd)
	rootCmd.AddCommand(levelsCmd)
	rootCmd.AddCommand(recentCmd)
	rootCmd.AddCommand(themeCmd)
	rootCmd.AddCommand(serveCmd)
}

// setup loads configuration and the logger before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log = setupLogger(cfg)
	return nil
}

// runCompress compresses the selected files and prints progress.
func runCompress(ctx context.Context, args []string) error {
	store, err := settings.Open(cfg.Storage.DatabasePath, log)
	if err != nil {
		return err
	}
	defer store.Close()

	selection := append([]string(nil), args...)
	if useRecent {
		recent, err := store.RecentFiles()
		if err != nil {
			return err
		}
		selection = append(selection, recent...)
	}

	inputs, err := compressor.CollectInputs(selection, recursive || cfg.Compression.Recursive)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return compressor.ErrNoInputFiles
	}

	chosen, err := chooseLevel(store)
	if err != nil {
		return err
	}

	gsPath, err := ghostscript.Locate(cfg.Ghostscript.Path)
	if err != nil {
		return err
	}
	log.WithField("operation", "locate").Debugf("Using Ghostscript at %s", gsPath)

	if err := store.AddRecentFiles(inputs); err != nil {
		log.Warnf("Failed to update recent files: %v", err)
	}

	req := compressor.Request{
		InputPaths: inputs,
		OutputDir:  resolveOutputDir(outputDir, cfg.Compression.OutputDirectory, inputs),
		Level:      chosen.Label,
		Profile:    chosen.Profile(),
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !quiet {
		fmt.Printf("Compressing %d files at level %s into %s\n\n", len(inputs), chosen.Label, req.OutputDir)
	}

	runner := compressor.NewRunner(ghostscript.NewTool(gsPath, cfg.Ghostscript.Timeout, log), log)
	_, err = runner.Run(ctx, req, newProgressPrinter(os.Stdout, quiet).observe)
	return err
}

// chooseLevel resolves the --level flag, falling back to the stored default.
func chooseLevel(store *settings.Store) (preset.Level, error) {
	if level != "" {
		return preset.Lookup(level)
	}

	name := cfg.Compression.DefaultLevel
	if prefs, err := store.Get(); err == nil && prefs.DefaultLevel != "" {
		name = prefs.DefaultLevel
	} else if err != nil {
		log.Warnf("Failed to load preferences: %v", err)
	}
	return preset.Lookup(name)
}

// resolveOutputDir picks the flag, then the configured directory, then the
// directory of the first input.
func resolveOutputDir(flag, configured string, inputs []string) string {
	if strings.TrimSpace(flag) != "" {
		return flag
	}
	if strings.TrimSpace(configured) != "" {
		return configured
	}
	return filepath.Dir(inputs[0])
}

// runLevels prints the level menu.
func runLevels() error {
	defaultLevel := cfg.Compression.DefaultLevel
	if store, err := settings.Open(cfg.Storage.DatabasePath, log); err == nil {
		if prefs, err := store.Get(); err == nil {
			defaultLevel = prefs.DefaultLevel
		}
		store.Close()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LEVEL\tALIAS\tDESCRIPTION\tFLAGS")
	for _, l := range preset.Levels() {
		label := l.Label
		if label == defaultLevel {
			label += " *"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", label, l.Alias, l.Description, strings.Join(l.Profile().Args(), " "))
	}
	return w.Flush()
}

// runRecent prints the recent files list, most recent first.
func runRecent() error {
	return withStore(func(store *settings.Store) error {
		recent, err := store.RecentFiles()
		if err != nil {
			return err
		}
		if len(recent) == 0 {
			fmt.Println("No recent files")
			return nil
		}
		for i, p := range recent {
			fmt.Printf("%2d. %s\n", i+1, p)
		}
		return nil
	})
}

// runTheme prints the stored theme, or stores a new one.
func runTheme(args []string) error {
	return withStore(func(store *settings.Store) error {
		if len(args) == 0 {
			prefs, err := store.Get()
			if err != nil {
				return err
			}
			fmt.Println(prefs.Theme)
			return nil
		}
		if err := store.SetTheme(args[0]); err != nil {
			return err
		}
		fmt.Printf("Theme set to %s\n", args[0])
		return nil
	})
}

// runServe starts the web server and handles graceful shutdown.
func runServe() error {
	store, err := settings.Open(cfg.Storage.DatabasePath, log)
	if err != nil {
		return err
	}
	defer store.Close()

	// A missing Ghostscript leaves the runner without an executor; the UI
	// still starts and reports the problem when a batch is requested.
	var executor compressor.Executor
	if gsPath, err := ghostscript.Locate(cfg.Ghostscript.Path); err != nil {
		log.Warnf("%v", err)
	} else {
		executor = ghostscript.NewTool(gsPath, cfg.Ghostscript.Timeout, log)
	}

	if port == 0 {
		port = cfg.Web.Port
	}

	server := web.NewServer(cfg, log, compressor.NewRunner(executor, log), store)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	fmt.Printf("PDF Compressor web interface started\n")
	fmt.Printf("Open your browser and go to: http://localhost:%d\n", port)
	fmt.Printf("Press Ctrl+C to stop the server\n\n")

	select {
	case err := <-errChan:
		return fmt.Errorf("server failed to start: %w", err)
	case <-sigChan:
	}
	fmt.Println("\nShutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	fmt.Println("Server stopped")
	return nil
}

func withStore(fn func(*settings.Store) error) error {
	store, err := settings.Open(cfg.Storage.DatabasePath, log)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// setupLogger configures and returns a logger. Log lines go to the log
// file; the console only gets them with --verbose so they don't mix with
// progress output.
func setupLogger(cfg *config.Config) *logrus.Logger {
	loggerCfg := logger.LoggerConfig{
		Level:      cfg.Logging.Level,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
		Console:    verbose,
	}

	if verbose {
		loggerCfg.Level = "debug"
	}
	if quiet {
		loggerCfg.Level = "error"
	}

	log, err := logger.NewLogger(loggerCfg)
	if err != nil {
		log = logrus.New()
		log.SetLevel(logrus.InfoLevel)
	}

	return log
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
