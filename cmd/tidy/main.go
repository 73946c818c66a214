package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"tidy-go/internal/app"
	"tidy-go/internal/config"
	"tidy-go/internal/ruleset"
	"tidy-go/internal/tidy"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a TidyApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "AddRule", "RunAll").
func newApp(operation string) (*app.TidyApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewTidyApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// pathArg returns args[0], or the current directory when no argument is given.
func pathArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// closeApp closes a and hands its error to the command unless the command
// already failed. Close writes changed rules, so its error must not be lost.
func closeApp(a *app.TidyApp, err *error) {
	if cerr := a.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}

func printReport(r *tidy.Report) {
	fmt.Println(r.Summary)
	fmt.Printf("  %d selected, %d succeeded, %d failed\n", r.Selected, r.Succeeded, r.Failed())
	for _, fe := range r.Failures {
		fmt.Printf("  ! %s\n", fe)
	}
}

var rootCmd = &cobra.Command{
	Use:          "tidy",
	Short:        "Rule-based directory organizer",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Rules File: %s\n", cfg.RulesPath)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Rules File: %s\n", cfg.RulesPath)
		fmt.Printf("Database:   %s\n", cfg.Database.Type)
		if len(cfg.Filesystem.Ignore) > 0 {
			fmt.Printf("Ignore:     %s\n", strings.Join(cfg.Filesystem.Ignore, ", "))
		}
		return nil
	},
}

// dir command
var dirCmd = &cobra.Command{
	Use:   "dir",
	Short: "Manage monitored directories",
}

var dirAddCmd = &cobra.Command{
	Use:   "add [PATH]",
	Short: "Monitor a directory (default: current directory)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp("AddDirectory")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		dir, err := a.AddDirectory(pathArg(args))
		if err != nil {
			return fmt.Errorf("monitoring directory: %w", err)
		}
		if err := a.Save(); err != nil {
			return err
		}

		fmt.Printf("Monitoring directory: %s\n", dir)
		return nil
	},
}

var dirRemoveCmd = &cobra.Command{
	Use:   "remove [PATH]",
	Short: "Stop monitoring a directory and drop its rules",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp("RemoveDirectory")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if err := a.RemoveDirectory(pathArg(args)); err != nil {
			return err
		}
		if err := a.Save(); err != nil {
			return err
		}
		fmt.Println("Directory removed.")
		return nil
	},
}

var dirListCmd = &cobra.Command{
	Use:   "list",
	Short: "List monitored directories",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp("ListDirectories")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		dirs := a.Directories()
		if len(dirs) == 0 {
			fmt.Println("No directories monitored.")
			return nil
		}
		for _, d := range dirs {
			fmt.Println(d)
		}
		return nil
	},
}

// rule command
var ruleCmd = &cobra.Command{
	Use:   "rule",
	Short: "Manage the rules of monitored directories",
}

var ruleAddCmd = &cobra.Command{
	Use:   "add PATH RULE",
	Short: "Add a rule such as \"copy|.png|nd7\" to a directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp("AddRule")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		rule, err := a.AddRule(args[0], args[1])
		if err != nil {
			return fmt.Errorf("adding rule: %w", err)
		}
		if err := a.Save(); err != nil {
			return err
		}
		fmt.Printf("Added: %s\n", tidy.Describe(rule))
		return nil
	},
}

var ruleRemoveCmd = &cobra.Command{
	Use:   "remove PATH RULE",
	Short: "Remove a rule from a directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp("RemoveRule")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if err := a.RemoveRule(args[0], args[1]); err != nil {
			return err
		}
		if err := a.Save(); err != nil {
			return err
		}
		fmt.Println("Rule removed.")
		return nil
	},
}

var ruleListCmd = &cobra.Command{
	Use:   "list [PATH]",
	Short: "List rules of one directory, or of all monitored directories",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp("ListRules")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		dirs := a.Directories()
		if len(args) > 0 {
			dirs = args[:1]
		}
		if len(dirs) == 0 {
			fmt.Println("No directories monitored.")
			return nil
		}

		for _, d := range dirs {
			rules, err := a.Rules(d)
			if err != nil {
				return err
			}
			fmt.Println(d)
			for _, r := range rules {
				fmt.Printf("\t%-40s %s\n", ruleset.FormatRule(r), tidy.Describe(r))
			}
		}
		return nil
	},
}

// run command
var runCmd = &cobra.Command{
	Use:   "run [PATH]",
	Short: "Apply the rules of a monitored directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		all, _ := cmd.Flags().GetBool("all")

		operation := "Run"
		if all {
			operation = "RunAll"
		}
		a, err := newApp(operation)
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		var reports []*tidy.Report
		if all {
			reports, err = a.RunAll()
		} else {
			reports, err = a.Run(pathArg(args))
		}
		for _, r := range reports {
			printReport(r)
		}
		if err != nil {
			return fmt.Errorf("run failed: %w", err)
		}
		if len(reports) == 0 {
			fmt.Println("No rules to apply.")
		}
		return nil
	},
}

// apply command
var applyCmd = &cobra.Command{
	Use:   "apply (PATH RULE | PATH|RULE)",
	Short: "Apply a one-off rule without saving it",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp("Apply")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		var report *tidy.Report
		if len(args) == 2 {
			report, err = a.Apply(args[0], args[1])
		} else {
			report, err = a.ApplyLine(args[0])
		}
		if err != nil {
			return fmt.Errorf("apply failed: %w", err)
		}
		printReport(report)
		return nil
	},
}

// index command
var indexCmd = &cobra.Command{
	Use:   "index [PATH]",
	Short: "Show files grouped by modification date",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp("Index")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		idx, err := a.Index(pathArg(args))
		if err != nil {
			return err
		}
		if idx.Len() == 0 {
			fmt.Println("No files found.")
			return nil
		}
		for _, d := range idx.Dates() {
			fmt.Printf("%s  (%d)\n", d, len(idx[d]))
			for _, name := range idx[d] {
				fmt.Printf("    %s\n", name)
			}
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View past rule runs",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("GetHistory")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		runs, err := a.GetHistory(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No rule runs recorded.")
			return nil
		}

		for _, r := range runs {
			fmt.Printf("%s  %s  %-7s  %3d ok  %3d failed  %s\n",
				r.ID,
				r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				r.Operation,
				r.Succeeded,
				r.Failed,
				r.Directory,
			)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show RUN_ID",
	Short: "Show one rule run with its failures",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp("GetRun")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		run, err := a.GetRun(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Run:       %s\n", run.ID)
		fmt.Printf("Directory: %s\n", run.Directory)
		fmt.Printf("Summary:   %s\n", run.Summary)
		fmt.Printf("Started:   %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Duration:  %s\n", run.FinishedAt.Sub(run.StartedAt).Truncate(time.Millisecond))
		fmt.Printf("Result:    %d selected, %d succeeded, %d failed\n", run.Selected, run.Succeeded, run.Failed)
		for _, f := range run.Failures {
			fmt.Printf("  ! %s: %s\n", f.FileName, f.Error)
		}
		return nil
	},
}

var historyOpsCmd = &cobra.Command{
	Use:   "ops",
	Short: "View past CLI operations",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("GetOperations")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		ops, err := a.GetOperations(limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt.Valid {
				d := op.FinishedAt.Time.Sub(op.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-15s  %s  %-8s  %-10s  %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Local().Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
				op.Parameters,
			)
		}
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// dir subcommands
	dirCmd.AddCommand(dirAddCmd)
	dirCmd.AddCommand(dirRemoveCmd)
	dirCmd.AddCommand(dirListCmd)

	// rule subcommands
	ruleCmd.AddCommand(ruleAddCmd)
	ruleCmd.AddCommand(ruleRemoveCmd)
	ruleCmd.AddCommand(ruleListCmd)

	// history subcommands
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyOpsCmd)
	historyCmd.PersistentFlags().IntP("limit", "n", 50, "Maximum number of entries to show")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dirCmd)
	rootCmd.AddCommand(ruleCmd)
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolP("all", "a", false, "Run the rules of every monitored directory")
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(historyCmd)
}
