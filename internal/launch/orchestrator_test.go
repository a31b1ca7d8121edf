package launch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macforge/qlaunch/internal/config"
	"github.com/macforge/qlaunch/internal/probe"
)

// testCandidate builds a fully-valid candidate: real disk and firmware
// files, a real shared directory, and a fake qemu binary that answers
// --version.
func testCandidate(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	disk := filepath.Join(dir, "disk.vmdk")
	require.NoError(t, os.WriteFile(disk, []byte("disk"), 0644))
	fw := filepath.Join(dir, "edk2-aarch64-code.fd")
	require.NoError(t, os.WriteFile(fw, []byte("fw"), 0644))

	qemuPath := filepath.Join(dir, "qemu-system-aarch64")
	script := "#!/bin/sh\necho \"QEMU emulator version 10.0.2\"\n"
	require.NoError(t, os.WriteFile(qemuPath, []byte(script), 0755))

	cfg := config.Default()
	cfg.QEMUPath = qemuPath
	cfg.DiskPath = disk
	cfg.FirmwarePath = fw
	cfg.SharedDirPath = dir
	return cfg
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *config.Store) {
	t.Helper()
	store := config.NewStore(t.TempDir())
	return NewOrchestrator(store, probe.New()), store
}

func TestInitializeFreshInstall(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	require.NoError(t, o.Initialize(false))
	assert.Equal(t, StateNeedsSetup, o.State())
	assert.Equal(t, config.Default(), o.Config())
}

func TestInitializeCompleteConfig(t *testing.T) {
	o, store := newTestOrchestrator(t)
	cfg := testCandidate(t)
	require.NoError(t, store.Save(cfg))
	require.NoError(t, store.MarkSetupComplete())

	require.NoError(t, o.Initialize(false))
	assert.Equal(t, StateReadyToLaunch, o.State())
	assert.Equal(t, cfg.QEMUPath, o.Config().QEMUPath)
}

func TestInitializeForceSetup(t *testing.T) {
	o, store := newTestOrchestrator(t)
	require.NoError(t, store.Save(testCandidate(t)))
	require.NoError(t, store.MarkSetupComplete())

	require.NoError(t, o.Initialize(true))
	assert.Equal(t, StateNeedsSetup, o.State())
}

func TestInitializeMissingMarker(t *testing.T) {
	o, store := newTestOrchestrator(t)
	require.NoError(t, store.Save(testCandidate(t)))

	require.NoError(t, o.Initialize(false))
	assert.Equal(t, StateNeedsSetup, o.State())
}

func TestInitializeIncompleteConfig(t *testing.T) {
	o, store := newTestOrchestrator(t)
	cfg := testCandidate(t)
	cfg.DiskPath = ""
	require.NoError(t, store.Save(cfg))
	require.NoError(t, store.MarkSetupComplete())

	require.NoError(t, o.Initialize(false))
	assert.Equal(t, StateNeedsSetup, o.State())
}

func TestSubmitAccepted(t *testing.T) {
	o, store := newTestOrchestrator(t)
	require.NoError(t, o.Initialize(false))

	outcome, err := o.SubmitConfiguration(testCandidate(t))
	require.NoError(t, err)
	assert.True(t, outcome.Accepted)
	assert.Empty(t, outcome.Failures)
	assert.Empty(t, outcome.FirstFailure())
	assert.Equal(t, StateReadyToLaunch, o.State())

	// The record was persisted and the marker dropped.
	saved, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, o.Config(), saved)
	assert.True(t, store.SetupComplete())
}

func TestSubmitAllRequiredMissing(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	require.NoError(t, o.Initialize(false))

	candidate := config.Default()
	candidate.SharedDirPath = ""
	candidate.MountTag = ""

	outcome, err := o.SubmitConfiguration(candidate)
	require.NoError(t, err)
	assert.False(t, outcome.Accepted)
	require.Len(t, outcome.Failures, 1)

	// One failure names every missing field.
	assert.Contains(t, outcome.Failures[0].Field, "qemu_executable")
	assert.Contains(t, outcome.Failures[0].Field, "disk_path")
	assert.Contains(t, outcome.Failures[0].Field, "firmware_path")
	assert.Equal(t, StateNeedsSetup, o.State())

	// The candidate is retained for re-editing.
	assert.Equal(t, candidate, o.Config())
}

func TestSubmitMissingDiskFile(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	require.NoError(t, o.Initialize(false))

	candidate := testCandidate(t)
	candidate.DiskPath = filepath.Join(t.TempDir(), "gone.vmdk")

	outcome, err := o.SubmitConfiguration(candidate)
	require.NoError(t, err)
	assert.False(t, outcome.Accepted)
	require.Len(t, outcome.Failures, 1)
	assert.Equal(t, "disk_path", outcome.Failures[0].Field)
	assert.Contains(t, outcome.Failures[0].Reason, "no file")
}

func TestSubmitSharedDirNotDirectory(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	require.NoError(t, o.Initialize(false))

	candidate := testCandidate(t)
	candidate.SharedDirPath = candidate.DiskPath // a file, not a directory

	outcome, err := o.SubmitConfiguration(candidate)
	require.NoError(t, err)
	assert.False(t, outcome.Accepted)
	require.Len(t, outcome.Failures, 1)
	assert.Equal(t, "shared_dir_path", outcome.Failures[0].Field)
}

func TestSubmitProbeTimeout(t *testing.T) {
	store := config.NewStore(t.TempDir())
	prober := probe.New()
	prober.ExecTimeout = 100 * time.Millisecond
	o := NewOrchestrator(store, prober)
	require.NoError(t, o.Initialize(false))

	candidate := testCandidate(t)
	require.NoError(t, os.WriteFile(candidate.QEMUPath, []byte("#!/bin/sh\nsleep 2\n"), 0755))

	outcome, err := o.SubmitConfiguration(candidate)
	require.NoError(t, err)
	assert.False(t, outcome.Accepted)
	require.Len(t, outcome.Failures, 1)
	assert.Equal(t, "qemu_executable", outcome.Failures[0].Field)
	assert.Contains(t, outcome.Failures[0].Reason, "timed out")
	assert.Equal(t, StateNeedsSetup, o.State())
}

func TestSubmitCollectsAllFailures(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	require.NoError(t, o.Initialize(false))

	candidate := testCandidate(t)
	candidate.DiskPath = filepath.Join(t.TempDir(), "gone.vmdk")
	candidate.QEMUPath = filepath.Join(t.TempDir(), "gone-qemu")

	outcome, err := o.SubmitConfiguration(candidate)
	require.NoError(t, err)
	require.Len(t, outcome.Failures, 2)
	assert.Equal(t, "disk_path", outcome.Failures[0].Field)
	assert.Equal(t, "qemu_executable", outcome.Failures[1].Field)
	assert.Contains(t, outcome.FirstFailure(), "disk_path")
}

func TestSubmitNormalizesHalfSetSharedPair(t *testing.T) {
	o, store := newTestOrchestrator(t)
	require.NoError(t, o.Initialize(false))

	candidate := testCandidate(t)
	candidate.MountTag = "" // half-set pair

	outcome, err := o.SubmitConfiguration(candidate)
	require.NoError(t, err)
	assert.True(t, outcome.Accepted)

	// Both halves were cleared before the record was persisted.
	assert.Empty(t, o.Config().SharedDirPath)
	assert.Empty(t, o.Config().MountTag)

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, saved.SharedDirPath)
	assert.Empty(t, saved.MountTag)
}

func TestSubmitRetryAfterFailure(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	require.NoError(t, o.Initialize(false))

	bad := config.Default()
	outcome, err := o.SubmitConfiguration(bad)
	require.NoError(t, err)
	require.False(t, outcome.Accepted)

	outcome, err = o.SubmitConfiguration(testCandidate(t))
	require.NoError(t, err)
	assert.True(t, outcome.Accepted)
	assert.Equal(t, StateReadyToLaunch, o.State())
}

func TestSubmitFromReadyIsRejected(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	require.NoError(t, o.Initialize(false))

	_, err := o.SubmitConfiguration(testCandidate(t))
	require.NoError(t, err)

	_, err = o.SubmitConfiguration(testCandidate(t))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBuildPlanBeforeReady(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	require.NoError(t, o.Initialize(false))

	_, _, err := o.BuildPlan()
	assert.ErrorIs(t, err, ErrConfigIncomplete)
}

func TestBuildPlanAfterAccept(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	require.NoError(t, o.Initialize(false))

	candidate := testCandidate(t)
	_, err := o.SubmitConfiguration(candidate)
	require.NoError(t, err)

	plan, caps, err := o.BuildPlan()
	require.NoError(t, err)
	assert.Equal(t, candidate.QEMUPath, plan.Executable)
	assert.NotEmpty(t, plan.Args)
	assert.True(t, caps.ExecutableValid)
	assert.Equal(t, "10.0.2", caps.Version)
}

func TestMarkLaunched(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	require.NoError(t, o.Initialize(false))
	_, err := o.SubmitConfiguration(testCandidate(t))
	require.NoError(t, err)

	require.NoError(t, o.MarkLaunched())
	assert.Equal(t, StateLaunched, o.State())
	assert.ErrorIs(t, o.MarkFailed(), ErrInvalidTransition)
}

func TestMarkFailed(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	require.NoError(t, o.Initialize(false))
	_, err := o.SubmitConfiguration(testCandidate(t))
	require.NoError(t, err)

	require.NoError(t, o.MarkFailed())
	assert.Equal(t, StateFailed, o.State())
	assert.ErrorIs(t, o.MarkLaunched(), ErrInvalidTransition)
}

func TestMarkLaunchedBeforeReady(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	require.NoError(t, o.Initialize(false))

	assert.ErrorIs(t, o.MarkLaunched(), ErrInvalidTransition)
}
