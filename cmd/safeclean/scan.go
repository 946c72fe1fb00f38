package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/safeclean/internal/cleaner"
	"github.com/fenilsonani/safeclean/internal/platform"
	"github.com/fenilsonani/safeclean/internal/reporter"
	"github.com/fenilsonani/safeclean/internal/scanner"
	"github.com/fenilsonani/safeclean/internal/ui"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for reclaimable files",
	Long: `Scans Downloads, caches and logs and reports what could be cleaned without
changing anything.

Use --tree to see everything found grouped by folder.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := reporter.ParseFormat(outputFmt)
		if err != nil {
			return err
		}

		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		result, err := a.scan(cmd.Context())
		if err != nil {
			return err
		}

		if outputFile != "" {
			if err := reporter.SaveToFile(result, nil, outputFile, format); err != nil {
				return fmt.Errorf("failed to save report: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Report saved to: %s\n", outputFile)
			return nil
		}

		out := cmd.OutOrStdout()
		if detailed && format == reporter.FormatSummary {
			ui.PrintDetailedTree(out, result.Items, result.TotalSize)
			fmt.Fprintln(out)
		}
		if err := reporter.New(out, format).Report(result); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}
		return nil
	},
}

// scan runs one scan on the engine with live progress on stderr
func (a *app) scan(ctx context.Context) (*scanner.Result, error) {
	task, err := a.engine.StartScan(ctx, a.settings)
	if err != nil {
		return nil, err
	}

	lp := ui.NewLiveProgress(os.Stderr)
	lp.Start()
	for ev := range task.Events() {
		lp.Observe(ev)
	}
	lp.Finish()
	fmt.Fprintln(os.Stderr, lp.Status())

	result := task.Wait()
	if result.Cancelled {
		fmt.Fprintln(os.Stderr, "Scan cancelled; showing partial results.")
	}
	return result, nil
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Scan, then move the findings to the trash",
	Long: `Scans with the current settings and moves every item found to the trash
after you type DELETE. Limit what is cleaned with --categories.

Dry run is on by default; pass --dry-run=false to actually move files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := reporter.ParseFormat(outputFmt)
		if err != nil {
			return err
		}

		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		ctx := cmd.Context()
		result, err := a.scan(ctx)
		if err != nil {
			return err
		}

		// machine readable formats keep stdout for the final document
		info := cmd.OutOrStdout()
		if format != reporter.FormatSummary && format != reporter.FormatTable {
			info = os.Stderr
		}
		if err := reporter.New(info, reporter.FormatSummary).Report(result); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}

		if result.Cancelled {
			return fmt.Errorf("scan cancelled; nothing was moved")
		}
		if len(result.Items) == 0 {
			fmt.Fprintln(info, "\n✨ Nothing to clean up.")
			return nil
		}

		prompt := fmt.Sprintf("\nType %s to move %d items to the trash: ", cleaner.ConfirmDelete, len(result.Items))
		if a.settings.DryRun {
			prompt = fmt.Sprintf("\n[DRY RUN] Type %s to check %d items: ", cleaner.ConfirmDelete, len(result.Items))
		}
		token, err := readToken(cmd, prompt)
		if err != nil {
			return err
		}

		before := a.diskUsage()
		report, err := a.engine.Delete(ctx, cleaner.Request{
			Result:       result,
			Paths:        result.Paths(),
			Settings:     a.settings,
			Confirmation: token,
		})
		if err != nil {
			return err
		}

		if outputFile != "" {
			if err := reporter.SaveToFile(result, report, outputFile, format); err != nil {
				return fmt.Errorf("failed to save report: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Report saved to: %s\n", outputFile)
		}

		fmt.Fprintln(info)
		if err := reporter.New(cmd.OutOrStdout(), format).ReportDeletion(report); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		if freed := reporter.FormatFreed(before, a.diskUsage()); freed != "" && !report.DryRun {
			fmt.Fprintln(info, freed)
		}
		return nil
	},
}

func (a *app) diskUsage() *platform.DiskUsage {
	u, err := platform.GetDiskUsage(a.info.HomeDir)
	if err != nil {
		a.log.Debug("disk usage unavailable", "error", err)
		return nil
	}
	return u
}

// readToken returns --confirm when given, otherwise asks on the terminal.
// The answer is passed through verbatim; the cleaner decides if it matches.
func readToken(cmd *cobra.Command, prompt string) (string, error) {
	if cmd.Flags().Changed("confirm") {
		return confirmToken, nil
	}
	if !isTerminal(os.Stdin) {
		return "", errNoConfirmation
	}

	fmt.Fprint(os.Stderr, prompt)
	return readLine(cmd.InOrStdin())
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading confirmation: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
