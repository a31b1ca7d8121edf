package qemu

import (
	"fmt"

	"github.com/macforge/qlaunch/internal/config"
	"github.com/macforge/qlaunch/internal/probe"
)

// Plan is a fully-resolved launch invocation: the executable plus the exact
// argument sequence to hand it. A plan is built fresh for each launch and
// never mutated afterwards.
type Plan struct {
	Executable string
	Args       []string
}

// NewPlan resolves the configuration and the host capabilities into a Plan.
func NewPlan(cfg *config.Config, caps probe.Result) Plan {
	return Plan{
		Executable: cfg.QEMUPath,
		Args:       BuildArgs(cfg, caps),
	}
}

// BuildArgs converts the launcher configuration and the capability probe
// result to QEMU command-line arguments. Output is deterministic: equal
// inputs yield the identical token sequence, sections always appear in the
// same order, and optional features are whole-block omissions.
func BuildArgs(cfg *config.Config, caps probe.Result) []string {
	args := make([]string, 0, 48)

	// Machine baseline: HVF-accelerated virt machine, fixed topology.
	args = append(args, "-M", "virt")
	args = append(args, "-accel", "hvf")
	args = append(args, "-cpu", "host")
	args = append(args, "-smp", "4")
	args = append(args, "-m", "16G")

	// Firmware: read-only pflash.
	args = append(args, "-drive", fmt.Sprintf("if=pflash,format=raw,readonly=on,file=%s", cfg.FirmwarePath))

	// Primary disk.
	args = append(args, "-device", "virtio-blk-pci,drive=disk0")
	args = append(args, "-drive", fmt.Sprintf("id=disk0,if=none,format=vmdk,file=%s", cfg.DiskPath))

	// Display.
	args = append(args, "-display", "cocoa,show-cursor=on,full-screen=on")

	// GPU and input devices.
	args = append(args, "-device", "virtio-gpu-pci")
	args = append(args, "-device", "virtio-keyboard-pci")
	args = append(args, "-device", "virtio-tablet-pci")

	// Webcam passthrough: Apple vendor id on a dedicated xhci bus.
	if cfg.EnableWebcam {
		args = append(args, "-device", "qemu-xhci,id=xhci")
		args = append(args, "-device", "usb-host,bus=xhci.0,vendorid=0x05ac")
	}

	// Shared folder over 9p, only when the directory/tag pair is fully set.
	if cfg.HasSharedFolder() {
		args = append(args, "-fsdev", fmt.Sprintf("local,id=fsdev0,path=%s,security_model=passthrough", cfg.SharedDirPath))
		args = append(args, "-device", fmt.Sprintf("virtio-9p-pci,fsdev=fsdev0,mount_tag=%s", cfg.MountTag))
	}

	// Guest integration channel (clipboard agent over virtio-serial).
	if cfg.EnableGuestAgent {
		args = append(args, "-device", "virtio-serial")
		args = append(args, "-chardev", "qemu-vdagent,id=vdagent,name=vdagent,clipboard=on")
		args = append(args, "-device", "virtserialport,chardev=vdagent,name=com.redhat.spice.0")
	}

	// Audio: sdl when the binary offers it, coreaudio otherwise.
	args = append(args, "-audiodev", audiodevOpts(caps.SDLAudioAvailable, cfg.EnableMicrophone))
	args = append(args, "-device", "intel-hda")
	args = append(args, "-device", "hda-output,audiodev=snd0")
	if cfg.EnableMicrophone {
		args = append(args, "-device", "hda-input,audiodev=snd0")
	}

	// Network.
	args = append(args, "-netdev", netdevOpts(cfg))
	args = append(args, "-device", "virtio-net-pci,netdev=net0")

	return args
}

// audiodevOpts builds the -audiodev option string. Output parameters are
// always present; input parameters only when the microphone is enabled.
func audiodevOpts(sdl, microphone bool) string {
	backend := "coreaudio"
	if sdl {
		backend = "sdl"
	}
	opts := backend + ",id=snd0,out.frequency=48000,out.channels=2,out.format=s16"
	if microphone {
		opts += ",in.frequency=48000,in.channels=1,in.format=s16"
	}
	return opts
}

// netdevOpts builds the -netdev option string for the configured mode.
// Unknown modes fall back to user networking.
func netdevOpts(cfg *config.Config) string {
	switch cfg.NetworkMode {
	case config.NetworkVMNetShared:
		return "vmnet-shared,id=net0"
	case config.NetworkBridge:
		bridge := cfg.BridgeName
		if bridge == "" {
			bridge = config.DefaultBridgeName
		}
		return fmt.Sprintf("bridge,id=net0,br=%s", bridge)
	default:
		return "user,id=net0"
	}
}
