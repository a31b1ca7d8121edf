package config

import (
	"github.com/mitchellh/go-homedir"
)

// Network modes accepted in network_mode.
const (
	NetworkUser        = "user"
	NetworkVMNetShared = "vmnet-shared"
	NetworkBridge      = "bridge"
)

// DefaultBridgeName is substituted when bridge mode is selected but no
// bridge name was configured.
const DefaultBridgeName = "br0"

// ValidArchs and ValidNetworkModes enumerate the accepted values for the
// corresponding fields, in the order the setup form cycles through them.
var (
	ValidArchs        = []string{"aarch64", "x86_64"}
	ValidNetworkModes = []string{NetworkUser, NetworkVMNetShared, NetworkBridge}
)

// Default returns a configuration carrying the documented defaults. Required
// paths come back empty; the values mirror setDefaults.
func Default() *Config {
	cfg := &Config{
		Arch:             "aarch64",
		SharedDirPath:    "~/Documents",
		MountTag:         "host_share",
		NetworkMode:      NetworkUser,
		BridgeName:       DefaultBridgeName,
		EnableMicrophone: true,
	}
	cfg.expandPaths()
	return cfg
}

// Config represents the persisted launcher configuration. It is treated as
// immutable once accepted for a launch.
type Config struct {
	Arch             string `mapstructure:"arch"`
	QEMUPath         string `mapstructure:"qemu_executable"`
	DiskPath         string `mapstructure:"disk_path"`
	FirmwarePath     string `mapstructure:"firmware_path"`
	SharedDirPath    string `mapstructure:"shared_dir_path"`
	MountTag         string `mapstructure:"mount_tag"`
	NetworkMode      string `mapstructure:"network_mode"`
	BridgeName       string `mapstructure:"bridge_name"`
	EnableWebcam     bool   `mapstructure:"enable_webcam"`
	EnableGuestAgent bool   `mapstructure:"enable_guest_agent"`
	EnableMicrophone bool   `mapstructure:"enable_microphone"`
}

// MissingRequired returns the config keys of required paths that are empty.
func (c *Config) MissingRequired() []string {
	var missing []string
	if c.QEMUPath == "" {
		missing = append(missing, "qemu_executable")
	}
	if c.DiskPath == "" {
		missing = append(missing, "disk_path")
	}
	if c.FirmwarePath == "" {
		missing = append(missing, "firmware_path")
	}
	return missing
}

// Complete reports whether every required path is set.
func (c *Config) Complete() bool {
	return len(c.MissingRequired()) == 0
}

// HasSharedFolder reports whether the shared-folder pair is fully configured.
func (c *Config) HasSharedFolder() bool {
	return c.SharedDirPath != "" && c.MountTag != ""
}

// expandPaths expands ~ in every path field. Expansion failures leave the
// original value in place.
func (c *Config) expandPaths() {
	c.QEMUPath = expandPath(c.QEMUPath)
	c.DiskPath = expandPath(c.DiskPath)
	c.FirmwarePath = expandPath(c.FirmwarePath)
	c.SharedDirPath = expandPath(c.SharedDirPath)
}

func expandPath(path string) string {
	if path == "" {
		return path
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}
