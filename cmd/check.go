package cmd

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cottand/narrow/internal/log"
	"github.com/cottand/narrow/program"
	"github.com/spf13/cobra"
)

var CheckCmd = &cobra.Command{
	Use:          "check ./folder|file.yaml",
	Short:        "Analyse the functions and run the soundness checks of narrow programs",
	RunE:         runCheck,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

var (
	logLevel *int
	quiet    *bool
)

var logger = log.Section("cmd")

func init() {
	logLevel = CheckCmd.Flags().IntP("log-level", "l", int(slog.LevelWarn), "log level")
	quiet = CheckCmd.Flags().BoolP("quiet", "q", false, "only print diagnostics")
}

// loadTarget loads the program at target, or every program directly
// inside it when target is a folder
func loadTarget(target string) ([]*program.Program, error) {
	target, err := filepath.Abs(target)
	if err != nil {
		return nil, fmt.Errorf("could not get absolute path of target: %w", err)
	}
	stat, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("could not stat target: %w", err)
	}

	var folderFS fs.FS
	if stat.IsDir() {
		folderFS = os.DirFS(target)
		return program.LoadDir(folderFS, ".")
	}
	folderFS = os.DirFS(filepath.Dir(target))
	p, err := program.Load(folderFS, filepath.Base(target))
	if err != nil {
		return nil, err
	}
	return []*program.Program{p}, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	log.SetLevel(slog.Level(*logLevel))

	programs, err := loadTarget(args[0])
	if err != nil {
		return fmt.Errorf("could not load programs: %w", err)
	}
	if len(programs) == 0 {
		return fmt.Errorf("no .yaml programs found in %s", args[0])
	}

	out := cmd.OutOrStdout()
	diagnostics := 0
	for _, p := range programs {
		report, err := p.Analyze()
		if err != nil {
			return fmt.Errorf("could not analyse %s: %w", p.Path, err)
		}
		if *quiet {
			err = report.PrintDiagnostics(out)
		} else {
			err = report.Print(out)
		}
		if err != nil {
			return fmt.Errorf("could not write report: %w", err)
		}
		diagnostics += len(report.Errors.Errors()) + len(report.Failures)
		logger.Debug("checked program", "path", p.Path, "ok", report.OK())
	}
	if diagnostics > 0 {
		return fmt.Errorf("found %d problems in %d programs", diagnostics, len(programs))
	}
	return nil
}
