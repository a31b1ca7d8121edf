package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/macforge/qlaunch/internal/config"
	"github.com/macforge/qlaunch/internal/launch"
	"github.com/macforge/qlaunch/internal/notify"
	"github.com/macforge/qlaunch/internal/probe"
	"github.com/macforge/qlaunch/internal/setup"
	"github.com/macforge/qlaunch/internal/window"
)

var (
	forceSetup bool
	debug      bool
)

// Debug prints a diagnostic message to stderr if --debug is set.
func Debug(format string, args ...interface{}) {
	if debug {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

var rootCmd = &cobra.Command{
	Use:   "qlaunch",
	Short: "Configure and launch a QEMU virtual machine",
	Long: `qlaunch builds a QEMU invocation from a saved configuration and live
host probes, starts the VM, and moves its window onto a secondary
display when one is connected.

The first run (or qlaunch --config) opens the interactive setup form;
after that qlaunch boots the VM directly.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().BoolVar(&forceSetup, "config", false, "open the setup form even if a configuration exists")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging to stderr")
}

func run() error {
	dir, err := config.DefaultDir()
	if err != nil {
		return err
	}
	store := config.NewStore(dir)
	orch := launch.NewOrchestrator(store, probe.New())

	if err := orch.Initialize(forceSetup); err != nil {
		return err
	}
	Debug("initialized in state %s (store %s)", orch.State(), store.Dir())

	if orch.State() == launch.StateNeedsSetup {
		launchNow, err := runSetup(orch)
		if err != nil {
			return err
		}
		if !launchNow {
			fmt.Println("Setup cancelled, nothing launched.")
			return nil
		}
	}

	plan, caps, err := orch.BuildPlan()
	if err != nil {
		return err
	}
	Debug("qemu %s (version %q, sdl audio %v)", plan.Executable, caps.Version, caps.SDLAudioAvailable)
	Debug("args: %v", plan.Args)

	sup := launch.NewSupervisor(store.Dir(), window.NewPlacer(), notify.New())
	sup.Debugf = Debug

	handle, err := sup.Launch(plan)
	if err != nil {
		_ = orch.MarkFailed()
		return err
	}
	if err := orch.MarkLaunched(); err != nil {
		return err
	}

	fmt.Printf("QEMU started (pid %d), log at %s\n", handle.PID, sup.LogPath)
	if handle.RecordID != "" {
		Debug("launch record: %s", sup.History.Path(handle.RecordID))
	}

	sup.PlaceWindow(handle.PID)
	return nil
}

// runSetup drives the interactive form until a candidate is accepted or the
// user quits. Returns false when the user cancelled setup.
func runSetup(orch *launch.Orchestrator) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, fmt.Errorf("setup requires an interactive terminal; run qlaunch from a terminal to configure it")
	}

	working := *orch.Config()
	seedSuggestions(&working)

	form := setup.NewForm(os.Stdin, os.Stdout)
	for {
		candidate, submitted := form.Run(&working)
		if !submitted {
			return false, nil
		}

		outcome, err := orch.SubmitConfiguration(candidate)
		if err != nil {
			return false, err
		}
		if outcome.Accepted {
			return true, nil
		}

		form.ShowFailures(outcome.Failures)
		working = *candidate
	}
}

// seedSuggestions fills empty required paths with whatever the host can
// suggest before the first edit pass.
func seedSuggestions(cfg *config.Config) {
	if cfg.QEMUPath != "" && cfg.FirmwarePath != "" {
		return
	}
	suggested := setup.SmartDefaults(cfg.Arch)
	if cfg.QEMUPath == "" {
		cfg.QEMUPath = suggested.QEMUPath
	}
	if cfg.FirmwarePath == "" {
		cfg.FirmwarePath = suggested.FirmwarePath
	}
}
