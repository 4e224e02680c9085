package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Nomadcxx/cinesync/internal/cleaner"
	"github.com/Nomadcxx/cinesync/internal/config"
	"github.com/Nomadcxx/cinesync/internal/logging"
	"github.com/Nomadcxx/cinesync/internal/organizer"
	"github.com/Nomadcxx/cinesync/internal/reporter"
	"github.com/Nomadcxx/cinesync/internal/tmdb"
	"github.com/Nomadcxx/cinesync/internal/ui"
	"github.com/Nomadcxx/cinesync/internal/watcher"
)

var (
	cfgFile string

	// organize flags
	dryRun        bool
	autoSelect    bool
	rename        bool
	noCollections bool
	skipExtras    bool
	singlePath    string
	workers       int

	// watch flags
	settleSeconds int

	// clean flags
	cleanDryRun bool
	assumeYes   bool

	// config flags
	addSource    string
	removeSource string

	// Version information (set via -ldflags during build)
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "cinesync",
	Short: "Organize raw media files into a clean symlinked library",
	Long:  getLongDescription(),
}

var organizeCmd = &cobra.Command{
	Use:   "organize",
	Short: "Classify, resolve and symlink everything under the source directories",
	Run:   runOrganize,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Organize new files continuously as they appear in the sources",
	Run:   runWatch,
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove symlinks in the library whose targets no longer exist",
	Run:   runClean,
}

var viewCmd = &cobra.Command{
	Use:   "view [report-file]",
	Short: "View the most recent organize report in the TUI",
	Args:  cobra.MaximumNArgs(1),
	Run:   runView,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration file location and resolved contents",
	Run:   runConfig,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cinesync %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/cinesync/config.toml)")

	organizeCmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be linked without touching the filesystem")
	organizeCmd.Flags().BoolVar(&autoSelect, "auto-select", false, "pick the first provider candidate without prompting")
	organizeCmd.Flags().BoolVar(&rename, "rename", false, "recompute destination file names from resolved metadata")
	organizeCmd.Flags().BoolVar(&noCollections, "no-collections", false, "do not group movies into provider collections")
	organizeCmd.Flags().BoolVar(&skipExtras, "skip-extras", false, "skip files classified as extras entirely")
	organizeCmd.Flags().StringVar(&singlePath, "path", "", "organize only this file or directory")
	organizeCmd.Flags().IntVar(&workers, "workers", 0, "worker count (0 = number of CPUs)")

	watchCmd.Flags().IntVar(&settleSeconds, "settle", 0, "seconds to wait for writes to settle (0 = config value)")

	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "show what would be removed without removing it")
	cleanCmd.Flags().BoolVar(&assumeYes, "yes", false, "skip the confirmation prompt")

	configCmd.Flags().StringVar(&addSource, "add-source", "", "add a source directory and save")
	configCmd.Flags().StringVar(&removeSource, "remove-source", "", "remove a source directory and save")

	rootCmd.AddCommand(organizeCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func getLongDescription() string {
	return ui.FormatASCIIHeader() + "\n\n" +
		"cinesync identifies movies and TV episodes from messy file names, resolves them\n" +
		"against TMDb, and builds a clean symlinked library grouped by resolution tier."
}

// loadConfig reads the config file, honoring --config.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFile(cfgFile)
	}
	return config.Load()
}

// setup loads and validates configuration and opens the logger. Validation
// failures are fatal before any work begins.
func setup() (*config.Config, *logging.Logger) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, ui.FormatStatusFail(fmt.Sprintf("configuration invalid: %v", err)))
		os.Exit(1)
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log: %v\n", err)
		os.Exit(1)
	}
	return cfg, log
}

// signalContext returns a context cancelled by SIGINT/SIGTERM. In-flight
// workers finish their current item; queued work is abandoned.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nCancelling run...")
		cancel()
	}()
	return ctx, cancel
}

// buildOptions merges config defaults with flag overrides for one run.
func buildOptions(cfg *config.Config, flags *cobra.Command) organizer.Options {
	opts := organizer.Options{
		SourceDirs:  cfg.Library.SourceDirs,
		DestDir:     cfg.Library.DestDir,
		AutoSelect:  cfg.Organize.AutoSelect,
		Rename:      cfg.Organize.Rename,
		Collections: cfg.Organize.Collections,
		SkipExtras:  cfg.Organize.SkipExtras,
		FolderID:    cfg.Organize.FolderID,
		Workers:     cfg.Organize.Workers,
	}

	opts.DryRun = dryRun
	opts.SinglePath = singlePath
	if flags.Flags().Changed("auto-select") {
		opts.AutoSelect = autoSelect
	}
	if flags.Flags().Changed("rename") {
		opts.Rename = rename
	}
	if noCollections {
		opts.Collections = false
	}
	if flags.Flags().Changed("skip-extras") {
		opts.SkipExtras = skipExtras
	}
	if flags.Flags().Changed("workers") {
		opts.Workers = workers
	}

	return opts
}

// pickMu serializes disambiguation prompts: two workers hitting ambiguous
// queries at once must not fight over the terminal.
var pickMu sync.Mutex

func promptPick(query string, candidates []tmdb.Result) int {
	pickMu.Lock()
	defer pickMu.Unlock()
	return ui.RunPicker(query, candidates)
}

func runOrganize(cmd *cobra.Command, args []string) {
	cfg, log := setup()
	defer log.Close()

	opts := buildOptions(cfg, cmd)

	client := tmdb.NewClient(cfg.TMDB.APIKey, cfg.TMDB.Language, log)
	var policy organizer.DisambiguationPolicy = organizer.Interactive{Prompt: promptPick}
	if opts.AutoSelect {
		policy = organizer.AutoFirst{}
	}
	org := organizer.New(client, policy, log)

	ctx, cancel := signalContext()
	defer cancel()

	var sum *organizer.Summary
	var err error
	if opts.AutoSelect && isTerminal(os.Stdout) {
		sum, err = runWithProgressTUI(ctx, cancel, org, opts)
	} else {
		sum, err = org.Run(ctx, opts)
	}
	if sum == nil {
		fmt.Fprintln(os.Stderr, ui.FormatStatusFail(fmt.Sprintf("organize failed: %v", err)))
		os.Exit(1)
	}

	report := reporter.FromSummary(sum, opts)
	reportPath, reportErr := reporter.Generate(report)

	printSummary(sum, opts.DryRun)
	if reportErr != nil {
		fmt.Fprintln(os.Stderr, ui.FormatStatusWarn(fmt.Sprintf("could not write report: %v", reportErr)))
	} else {
		fmt.Printf("\nReport saved to:\n  %s\n\nView it with: cinesync view\n", reportPath)
	}

	if err == context.Canceled {
		os.Exit(130)
	}
	if err != nil {
		os.Exit(1)
	}
}

// runWithProgressTUI drives the organizer under the live progress view.
// Only used with auto-select, where no candidate prompts can interleave
// with the TUI.
func runWithProgressTUI(ctx context.Context, cancel context.CancelFunc, org *organizer.Organizer, opts organizer.Options) (*organizer.Summary, error) {
	p := tea.NewProgram(ui.NewProgressModel(cancel))

	progressCh := make(chan organizer.Progress, 64)
	go func() {
		for ev := range progressCh {
			p.Send(ui.ProgressMsg(ev))
		}
	}()

	type runResult struct {
		sum *organizer.Summary
		err error
	}
	resCh := make(chan runResult, 1)
	go func() {
		sum, err := org.RunWithProgress(ctx, opts, progressCh)
		close(progressCh)
		resCh <- runResult{sum, err}
		p.Send(ui.DoneMsg{Err: err})
	}()

	if _, err := p.Run(); err != nil {
		// TUI failure: the run itself keeps going; wait for it.
		fmt.Fprintln(os.Stderr, ui.FormatStatusWarn(fmt.Sprintf("progress display failed: %v", err)))
	}
	res := <-resCh
	return res.sum, res.err
}

func printSummary(sum *organizer.Summary, dryRun bool) {
	if dryRun {
		fmt.Println(ui.FormatStatusInfo("dry run — nothing was written"))
	}
	fmt.Println(ui.FormatStatusOK(fmt.Sprintf("scanned %d files in %s", sum.Scanned, sum.Duration.Round(time.Millisecond))))
	fmt.Println(ui.FormatStatusOK(fmt.Sprintf("created %d, already linked %d, replaced %d", sum.Created, sum.AlreadyLinked, sum.Replaced)))
	if sum.Skipped > 0 {
		fmt.Println(ui.FormatStatusWarn(fmt.Sprintf("skipped %d", sum.Skipped)))
	}
	if sum.Unresolved > 0 {
		fmt.Println(ui.FormatStatusWarn(fmt.Sprintf("unresolved %d (placed under original names)", sum.Unresolved)))
	}
	if sum.Failed > 0 {
		fmt.Println(ui.FormatStatusFail(fmt.Sprintf("failed %d", sum.Failed)))
	}
}

func runWatch(cmd *cobra.Command, args []string) {
	cfg, log := setup()
	defer log.Close()

	settle := time.Duration(cfg.Watch.SettleSeconds) * time.Second
	if settleSeconds > 0 {
		settle = time.Duration(settleSeconds) * time.Second
	}

	opts := buildOptions(cfg, cmd)
	// Watch mode is unattended: nobody is present to answer prompts.
	opts.AutoSelect = true

	client := tmdb.NewClient(cfg.TMDB.APIKey, cfg.TMDB.Language, log)
	org := organizer.New(client, organizer.AutoFirst{}, log)

	w, err := watcher.New(cfg.Library.SourceDirs, settle, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.FormatStatusFail(fmt.Sprintf("watcher setup failed: %v", err)))
		os.Exit(1)
	}
	defer w.Close()

	sr, err := reporter.NewStreamingReporter(cfg.Library.SourceDirs, cfg.Library.DestDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.FormatStatusFail(fmt.Sprintf("report setup failed: %v", err)))
		os.Exit(1)
	}
	defer sr.Close()

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Println(ui.FormatStatusInfo(fmt.Sprintf("watching %d source(s), settle %s — Ctrl+C to stop", len(cfg.Library.SourceDirs), settle)))

	runErr := w.Run(ctx, func(paths []string) {
		organizeBatch(ctx, org, opts, paths, sr, log)
	})

	if err := sr.Finalize(); err != nil {
		log.Warn("watch", "failed to finalize session report", logging.F("error", err))
	}
	fmt.Printf("\nSession report: %s\n", sr.Path())

	if runErr != nil && runErr != context.Canceled {
		fmt.Fprintln(os.Stderr, ui.FormatStatusFail(fmt.Sprintf("watch stopped: %v", runErr)))
		os.Exit(1)
	}
}

// organizeBatch runs the pipeline once per settled file. The variation
// index is rebuilt for each batch so later batches see folders created by
// earlier ones.
func organizeBatch(ctx context.Context, org *organizer.Organizer, opts organizer.Options, paths []string, sr *reporter.StreamingReporter, log *logging.Logger) {
	for _, path := range paths {
		itemOpts := opts
		itemOpts.SinglePath = path

		sum, err := org.Run(ctx, itemOpts)
		if err != nil && err != context.Canceled {
			log.Error("watch", "failed to organize new file", err, logging.F("path", path))
			continue
		}
		if sum == nil {
			continue
		}
		for _, r := range sum.Items {
			if werr := sr.WriteItem(ctx, r); werr != nil {
				log.Warn("watch", "failed to record item", logging.F("error", werr))
			}
			fmt.Println(ui.FormatStatusOK(fmt.Sprintf("[%s] %s", r.Outcome, r.Source)))
		}
	}
}

func runClean(cmd *cobra.Command, args []string) {
	cfg, log := setup()
	defer log.Close()

	cleanCfg := cleaner.DefaultConfig()
	cleanCfg.DryRun = cleanDryRun

	if !cleanDryRun && !assumeYes {
		fmt.Printf("This removes broken symlinks under %s and prunes empty directories.\n", cfg.Library.DestDir)
		fmt.Print("Are you sure you want to proceed? (yes/no): ")
		var response string
		fmt.Scanln(&response)
		if response != "yes" {
			fmt.Println("Clean cancelled.")
			return
		}
	}

	result, err := cleaner.Clean(cfg.Library.DestDir, cleanCfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.FormatStatusFail(fmt.Sprintf("clean failed: %v", err)))
		os.Exit(1)
	}

	if result.DryRun {
		fmt.Println(ui.FormatStatusInfo("dry run — nothing was removed"))
	}
	fmt.Println(ui.FormatStatusOK(fmt.Sprintf("broken links removed: %d", result.LinksRemoved)))
	fmt.Println(ui.FormatStatusOK(fmt.Sprintf("empty directories pruned: %d", result.DirsPruned)))
	if len(result.Errors) > 0 {
		fmt.Println(ui.FormatStatusWarn(fmt.Sprintf("errors encountered: %d", len(result.Errors))))
		for i, err := range result.Errors {
			fmt.Printf("  %d. %v\n", i+1, err)
		}
	}
}

func runView(cmd *cobra.Command, args []string) {
	var report reporter.Report
	var err error
	if len(args) == 1 {
		report, err = reporter.LoadFile(args[0])
	} else {
		report, err = reporter.LoadLatest()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading report: %v\n", err)
		fmt.Fprintln(os.Stderr, "Run `cinesync organize` first to produce one.")
		os.Exit(1)
	}

	p := tea.NewProgram(ui.NewModel(report), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

func runConfig(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if addSource != "" || removeSource != "" {
		if addSource != "" {
			if err := cfg.AddSourceDir(addSource); err != nil {
				fmt.Fprintln(os.Stderr, ui.FormatStatusFail(err.Error()))
				os.Exit(1)
			}
			fmt.Println(ui.FormatStatusOK("added source " + addSource))
		}
		if removeSource != "" {
			if err := cfg.RemoveSourceDir(removeSource); err != nil {
				fmt.Fprintln(os.Stderr, ui.FormatStatusFail(err.Error()))
				os.Exit(1)
			}
			fmt.Println(ui.FormatStatusOK("removed source " + removeSource))
		}
		if err := config.Save(cfg); err != nil {
			fmt.Fprintln(os.Stderr, ui.FormatStatusFail(fmt.Sprintf("could not save config: %v", err)))
			os.Exit(1)
		}
	}

	path := cfgFile
	if path == "" {
		path, _ = config.ConfigPath()
	}
	fmt.Printf("Configuration file: %s\n\n", path)

	encoder := toml.NewEncoder(os.Stdout)
	if err := encoder.Encode(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error printing config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Println()
		fmt.Println(ui.FormatStatusWarn(fmt.Sprintf("configuration incomplete: %v", err)))
	}
}

// isTerminal reports whether w is attached to a terminal.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
