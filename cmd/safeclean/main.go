package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fenilsonani/safeclean/internal/config"
	"github.com/fenilsonani/safeclean/internal/engine"
	"github.com/fenilsonani/safeclean/internal/logger"
	"github.com/fenilsonani/safeclean/internal/platform"
	"github.com/fenilsonani/safeclean/internal/progress"
	"github.com/fenilsonani/safeclean/internal/security"
	"github.com/fenilsonani/safeclean/internal/trash"
	"github.com/fenilsonani/safeclean/internal/ui"
	"github.com/fenilsonani/safeclean/pkg/utils"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var (
	configPath     string
	verbose        bool
	dryRun         bool
	allowPersonal  bool
	includeHidden  bool
	followSymlinks bool
	maxResults     int
	threshold      string
	categories     string
	confirmToken   string
	outputFmt      string
	outputFile     string
	detailed       bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "safeclean",
	Short: "Find reclaimable disk space and move it to the trash",
	Long: `safeclean scans Downloads, application caches and logs for large, old or
regenerable files and moves the ones you choose to the trash.

System folders are never touched. Personal folders such as Documents and
Desktop are skipped unless --allow-personal is given. Nothing moves until
you type DELETE, and dry run is on by default.

Run without a command in a terminal to open the interactive view.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isTerminal(os.Stdout) || !isTerminal(os.Stdin) {
			return cmd.Help()
		}

		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		return ui.RunInteractive(cmd.Context(), a.engine, a.progress, a.settings)
	},
}

// app holds everything a command needs, built once from config and flags
type app struct {
	cfg      *config.Config
	settings config.Settings
	info     *platform.Info
	log      *logger.Logger
	progress *progress.Reporter
	engine   *engine.Engine
}

func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	settings, err := cfg.Settings()
	if err != nil {
		return nil, err
	}
	if settings, err = applyFlags(cmd, settings); err != nil {
		return nil, err
	}

	info, err := platform.GetInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to get platform info: %w", err)
	}

	log := openLogger(cfg)

	rules := security.DefaultRules(info.HomeDir, runtime.GOOS).With(cfg.BlockedPaths(), cfg.PersonalPaths())
	classifier := security.NewClassifier(rules)

	loc := info.Locations
	trasher := trash.New(trash.System(), trash.Dir{Files: loc.Trash, Info: loc.TrashInfo}, log.Logger)

	pr := progress.NewReporter()
	eng := engine.New(classifier, loc, trasher, engine.WithLogger(log.Logger), engine.WithProgress(pr))

	return &app{
		cfg:      cfg,
		settings: settings,
		info:     info,
		log:      log,
		progress: pr,
		engine:   eng,
	}, nil
}

func (a *app) close() {
	if err := a.log.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing log: %v\n", err)
	}
}

// openLogger opens the operational log. Logging problems never stop a run.
func openLogger(cfg *config.Config) *logger.Logger {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}

	path := cfg.Log.File
	if path == "" {
		p, err := config.GetLogPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: no log location: %v\n", err)
			return logger.Discard()
		}
		path = p
	}

	log, err := logger.Open(path, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
		return logger.Discard()
	}
	return log
}

// applyFlags overlays explicitly set flags on the configured settings
func applyFlags(cmd *cobra.Command, s config.Settings) (config.Settings, error) {
	flags := cmd.Flags()
	if flags.Changed("dry-run") {
		s.DryRun = dryRun
	}
	if flags.Changed("allow-personal") {
		s.AllowPersonalFolders = allowPersonal
	}
	if flags.Changed("include-hidden") {
		s.IncludeHidden = includeHidden
	}
	if flags.Changed("follow-symlinks") {
		s.FollowSymlinks = followSymlinks
	}
	if flags.Changed("max-results") {
		s.MaxResults = maxResults
	}
	if flags.Changed("threshold") {
		n, err := utils.ParseSize(threshold)
		if err != nil {
			return s, &config.ValidationError{Field: "large_file_threshold", Message: err.Error()}
		}
		s.LargeFileThreshold = n
	}
	if flags.Changed("categories") {
		set, err := config.ParseCategorySet(categories)
		if err != nil {
			return s, &config.ValidationError{Field: "categories", Message: err.Error()}
		}
		s.Categories = set
	}
	return s, s.Validate()
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}

	cfgPath, err := config.GetConfigPath()
	if err != nil {
		return nil, err
	}

	return config.Load(cfgPath)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// bindSettingsFlags registers the flags applyFlags reads
func bindSettingsFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&dryRun, "dry-run", true, "report what would be moved without moving anything")
	fs.BoolVar(&allowPersonal, "allow-personal", false, "include personal folders such as Documents and Desktop")
	fs.BoolVar(&includeHidden, "include-hidden", false, "include hidden files and folders")
	fs.BoolVar(&followSymlinks, "follow-symlinks", false, "descend into symlinked folders")
	fs.IntVar(&maxResults, "max-results", 500, "stop after this many items")
	fs.StringVar(&threshold, "threshold", "1GiB", "large file threshold, e.g. 500MB or 2GiB")
	fs.StringVar(&categories, "categories", "", "comma separated categories: large_files,caches,old_downloads,logs,trash_report")
}

var errNoConfirmation = errors.New("no confirmation given: pass --confirm or run in a terminal")

func init() {
	bindSettingsFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	scanCmd.Flags().StringVarP(&outputFmt, "output", "o", "summary", "output format (summary, table, json, yaml, csv)")
	scanCmd.Flags().StringVar(&outputFile, "file", "", "save the report to a file")
	scanCmd.Flags().BoolVarP(&detailed, "tree", "t", false, "show a tree of everything found")

	cleanCmd.Flags().StringVarP(&outputFmt, "output", "o", "summary", "output format (summary, json, yaml, csv)")
	cleanCmd.Flags().StringVar(&outputFile, "file", "", "save the scan and deletion report to a file")
	cleanCmd.Flags().StringVar(&confirmToken, "confirm", "", `confirmation token; must be exactly "DELETE"`)

	emptyTrashCmd.Flags().StringVar(&confirmToken, "confirm", "", `confirmation token; must be exactly "EMPTY TRASH"`)

	classifyCmd.Flags().StringVarP(&outputFmt, "output", "o", "summary", "output format (summary, json)")

	configCmd.AddCommand(configShowCmd, configInitCmd, configPathCmd)

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(emptyTrashCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
