package cmd

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mailsignal/dmarclens/internal/dmarc"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>...",
	Short: "Parse DMARC aggregate report files and print statistics",
	Long: `Parse one or more DMARC aggregate report XML files and print their
compliance statistics and forwarding-risk verdicts.

A malformed file is reported and skipped; the remaining files still parse.
`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	var failures int

	for _, path := range args {
		raw, err := os.ReadFile(path)
		if err != nil {
			color.Red("✗ %s: %v", path, err)
			failures++
			continue
		}

		report, err := dmarc.Parse(raw, path)
		if err != nil {
			var parseErr *dmarc.ParseError
			if errors.As(err, &parseErr) {
				color.Red("✗ %s: %s", path, parseErr.Reason)
			} else {
				color.Red("✗ %s: %v", path, err)
			}
			failures++
			continue
		}

		printReport(report)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d file(s) failed to parse", failures, len(args))
	}
	return nil
}

func printReport(report *dmarc.Report) {
	stats := dmarc.Calculate(report)
	verdicts := dmarc.ClassifyAll(report)

	bold := color.New(color.Bold)
	bold.Printf("\n%s\n", report.FileName)
	fmt.Printf("  Reporter: %s  Domain: %s  Policy: p=%s pct=%s\n",
		report.Metadata.OrgName, report.Policy.Domain, report.Policy.P, report.Policy.Pct)

	fmt.Printf("  Messages: %d\n", stats.TotalMessages)
	color.Green("    passed:  %d", stats.PassedCount)
	color.Yellow("    partial: %d", stats.PartialCount)
	color.Red("    failed:  %d", stats.FailedCount)
	fmt.Printf("    dkim %d/%d  spf %d/%d  forwarded %d\n",
		stats.DKIMPass, stats.TotalMessages, stats.SPFPass, stats.TotalMessages, stats.ForwardedCount)

	if len(stats.Dispositions) > 0 {
		names := make([]string, 0, len(stats.Dispositions))
		for name := range stats.Dispositions {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Print("  Dispositions:")
		for _, name := range names {
			fmt.Printf(" %s=%d", name, stats.Dispositions[name])
		}
		fmt.Println()
	}

	if len(stats.TopIPs) > 0 {
		fmt.Println("  Top sources:")
		for _, entry := range stats.TopIPs {
			fmt.Printf("    %-40s %d\n", entry.IP, entry.Count)
		}
	}

	var flagged []dmarc.Verdict
	for _, v := range verdicts {
		if v.Forwarded {
			flagged = append(flagged, v)
		}
	}
	if len(flagged) > 0 {
		fmt.Println("  Forwarded:")
		for _, v := range flagged {
			line := fmt.Sprintf("    %-40s %-8s %s", v.SourceIP, v.RiskTier, v.Reason)
			switch v.RiskTier {
			case dmarc.RiskCritical:
				color.Red("%s", line)
			case dmarc.RiskHigh:
				color.Yellow("%s", line)
			default:
				fmt.Println(line)
			}
		}
	}
}
