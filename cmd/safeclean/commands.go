package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/safeclean/internal/cleaner"
	"github.com/fenilsonani/safeclean/internal/config"
	"github.com/fenilsonani/safeclean/internal/reporter"
	"github.com/fenilsonani/safeclean/internal/scanner"
	"github.com/fenilsonani/safeclean/internal/security"
	"github.com/fenilsonani/safeclean/pkg/utils"
)

var emptyTrashCmd = &cobra.Command{
	Use:   "empty-trash",
	Short: "Permanently remove everything in the trash",
	Long: `Empties the trash. This cannot be undone, so it needs its own token:
type EMPTY TRASH when asked, or pass --confirm "EMPTY TRASH".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		summary, _ := scanner.MeasureTrash(cmd.Context(), a.info.Locations.Trash)
		fmt.Fprintf(os.Stderr, "Trash holds %d entries (%s).\n", summary.Entries, utils.FormatBytes(summary.Size))
		if summary.Entries == 0 {
			return nil
		}

		token, err := readToken(cmd, fmt.Sprintf("Type %s to remove them permanently: ", cleaner.ConfirmEmptyTrash))
		if err != nil {
			return err
		}

		report, err := a.engine.EmptyTrash(cmd.Context(), a.settings, token)
		if err != nil {
			return err
		}
		return reporter.New(cmd.OutOrStdout(), reporter.FormatSummary).ReportDeletion(report)
	},
}

type classification struct {
	Path     string `json:"path"`
	Resolved string `json:"resolved,omitempty"`
	Class    string `json:"class"`
	Rule     string `json:"rule,omitempty"`
	Match    string `json:"match,omitempty"`
	Eligible bool   `json:"eligible"`
}

var classifyCmd = &cobra.Command{
	Use:   "classify PATH...",
	Short: "Explain whether a path may be cleaned",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		var out []classification
		for _, arg := range args {
			p := arg
			if abs, err := filepath.Abs(arg); err == nil {
				p = abs
			}
			v := a.engine.Classify(p, a.settings)
			out = append(out, classification{
				Path:     v.Path,
				Resolved: v.Resolved,
				Class:    v.Class.String(),
				Rule:     v.Rule,
				Match:    matchName(v.Match),
				Eligible: security.Admits(v.Class, a.settings),
			})
		}

		w := cmd.OutOrStdout()
		if outputFmt == "json" {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}
		for _, c := range out {
			mark := "✓"
			if !c.Eligible {
				mark = "✗"
			}
			line := fmt.Sprintf("%s %s: %s", mark, c.Path, c.Class)
			if c.Rule != "" {
				line += fmt.Sprintf(" (%s rule %s)", c.Match, c.Rule)
			}
			if c.Resolved != "" {
				line += " → " + c.Resolved
			}
			fmt.Fprintln(w, line)
		}
		return nil
	},
}

func matchName(m security.Match) string {
	switch m {
	case security.MatchPrefix:
		return "prefix"
	case security.MatchExact:
		return "exact"
	case security.MatchAncestor:
		return "ancestor"
	}
	return ""
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show disk usage, trash size and file locations",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		w := cmd.OutOrStdout()
		loc := a.info.Locations

		fmt.Fprintf(w, "Platform:  %s/%s\n", a.info.OS, runtime.GOARCH)
		fmt.Fprintf(w, "Disk:      %s\n", reporter.FormatDiskUsage(a.diskUsage()))

		summary, errs := scanner.MeasureTrash(cmd.Context(), loc.Trash)
		if len(errs) > 0 {
			fmt.Fprintf(w, "Trash:     %s (unreadable)\n", loc.Trash)
		} else {
			fmt.Fprintf(w, "Trash:     %d entries, %s in %s\n", summary.Entries, utils.FormatBytes(summary.Size), loc.Trash)
		}

		fmt.Fprintf(w, "Downloads: %s\n", loc.Downloads)
		fmt.Fprintf(w, "Caches:    %s\n", loc.Caches)
		fmt.Fprintf(w, "Logs:      %s\n", loc.Logs)
		fmt.Fprintf(w, "Dry run:   %t\n", a.settings.DryRun)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration if none exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := config.EnsureConfigExists()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config file: %s\n", p)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration and log file locations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		logPath, err := config.GetLogPath()
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Config file: %s\n", cfgPath)
		if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
			fmt.Fprintln(w, "  (missing; defaults are used, run 'safeclean config init' to create it)")
		}
		fmt.Fprintf(w, "Log file:    %s\n", logPath)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "safeclean %s (commit: %s, built: %s, %s)\n",
			Version, GitCommit, BuildTime, runtime.Version())
	},
}
