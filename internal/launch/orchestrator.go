package launch

import (
	"fmt"
	"os"
	"strings"

	"github.com/macforge/qlaunch/internal/config"
	"github.com/macforge/qlaunch/internal/probe"
	"github.com/macforge/qlaunch/internal/qemu"
)

// Orchestrator owns the launch state machine. It decides whether setup is
// needed, validates candidate configurations from the setup collaborator,
// and synthesizes the launch plan once a configuration is accepted.
type Orchestrator struct {
	store  *config.Store
	prober *probe.Prober
	state  State
	cfg    *config.Config
}

// Outcome reports one validation pass over a submitted candidate.
type Outcome struct {
	Accepted bool
	Failures []ValidationFailure
}

// FirstFailure returns the leading failure, the pass's reported reason.
// Empty when the candidate was accepted.
func (o Outcome) FirstFailure() string {
	if len(o.Failures) == 0 {
		return ""
	}
	return o.Failures[0].Error()
}

// NewOrchestrator returns an orchestrator over the given store and prober.
// Call Initialize before anything else.
func NewOrchestrator(store *config.Store, prober *probe.Prober) *Orchestrator {
	return &Orchestrator{
		store:  store,
		prober: prober,
		state:  StateNeedsSetup,
	}
}

// Initialize loads the persisted record and decides the starting state.
// Setup is needed when the setup marker is missing, the record is absent or
// incomplete, or forceSetup is set. A complete, marked record goes straight
// to ready: it was validated when it was accepted and is not re-validated.
func (o *Orchestrator) Initialize(forceSetup bool) error {
	cfg, err := o.store.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	o.cfg = cfg

	if forceSetup || !o.store.SetupComplete() || !cfg.Complete() {
		o.state = StateNeedsSetup
		return nil
	}
	o.state = StateReadyToLaunch
	return nil
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	return o.state
}

// Config returns the working configuration: the accepted record once a
// submit succeeded, otherwise the candidate for the setup form to re-edit.
func (o *Orchestrator) Config() *config.Config {
	return o.cfg
}

// SubmitConfiguration validates a candidate from the setup collaborator.
// Every check runs so the user sees all problems at once; the candidate is
// accepted only when none fail. On success the record is persisted, the
// setup marker is dropped, and the orchestrator becomes ready to launch. On
// failure the candidate is retained for re-editing.
func (o *Orchestrator) SubmitConfiguration(candidate *config.Config) (Outcome, error) {
	if err := o.transition(StateValidating); err != nil {
		return Outcome{}, err
	}

	// A half-set shared pair is normalized to absent, not rejected.
	normalized := *candidate
	if !normalized.HasSharedFolder() {
		normalized.SharedDirPath = ""
		normalized.MountTag = ""
	}

	failures := o.validate(&normalized)
	if len(failures) > 0 {
		o.cfg = candidate
		if err := o.transition(StateNeedsSetup); err != nil {
			return Outcome{}, err
		}
		return Outcome{Failures: failures}, nil
	}

	if err := o.store.Save(&normalized); err != nil {
		o.state = StateNeedsSetup
		return Outcome{}, err
	}
	if err := o.store.MarkSetupComplete(); err != nil {
		o.state = StateNeedsSetup
		return Outcome{}, err
	}

	o.cfg = &normalized
	if err := o.transition(StateReadyToLaunch); err != nil {
		return Outcome{}, err
	}
	return Outcome{Accepted: true}, nil
}

// BuildPlan probes the executable and synthesizes the launch plan. Probes
// run fresh for every launch and are never persisted; the executable probe
// result does not gate the plan, since a vanished binary surfaces as a spawn
// failure anyway.
func (o *Orchestrator) BuildPlan() (qemu.Plan, probe.Result, error) {
	if o.state != StateReadyToLaunch {
		return qemu.Plan{}, probe.Result{}, fmt.Errorf("%w: state %s", ErrConfigIncomplete, o.state)
	}
	caps := o.prober.Probe(o.cfg.QEMUPath)
	return qemu.NewPlan(o.cfg, caps), caps, nil
}

// MarkLaunched records a confirmed spawn. Terminal.
func (o *Orchestrator) MarkLaunched() error {
	return o.transition(StateLaunched)
}

// MarkFailed records a failed spawn. Terminal.
func (o *Orchestrator) MarkFailed() error {
	return o.transition(StateFailed)
}

func (o *Orchestrator) transition(target State) error {
	if err := o.state.CanTransitionTo(target); err != nil {
		return err
	}
	o.state = target
	return nil
}

// validate runs every check and collects every failure in a stable order:
// required paths, disk, firmware, shared directory, executable probe.
func (o *Orchestrator) validate(cfg *config.Config) []ValidationFailure {
	var failures []ValidationFailure

	// One failure naming every missing required field.
	if missing := cfg.MissingRequired(); len(missing) > 0 {
		failures = append(failures, ValidationFailure{
			Field:  strings.Join(missing, ", "),
			Reason: "required path not set",
		})
	}

	if cfg.DiskPath != "" {
		if err := checkFile(cfg.DiskPath); err != nil {
			failures = append(failures, ValidationFailure{Field: "disk_path", Reason: err.Error()})
		}
	}
	if cfg.FirmwarePath != "" {
		if err := checkFile(cfg.FirmwarePath); err != nil {
			failures = append(failures, ValidationFailure{Field: "firmware_path", Reason: err.Error()})
		}
	}
	if cfg.SharedDirPath != "" {
		if err := checkDir(cfg.SharedDirPath); err != nil {
			failures = append(failures, ValidationFailure{Field: "shared_dir_path", Reason: err.Error()})
		}
	}
	if cfg.QEMUPath != "" {
		if _, err := o.prober.ProbeExecutable(cfg.QEMUPath); err != nil {
			failures = append(failures, ValidationFailure{Field: "qemu_executable", Reason: err.Error()})
		}
	}

	return failures
}

func checkFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("no file at %s", path)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

func checkDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("no directory at %s", path)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}
