package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	configName = "config"
	configFile = "config.yaml"
	markerFile = ".setup_complete"
)

// Store persists the launcher configuration and the setup-complete marker
// inside a single directory. The directory is a constructor parameter so
// tests can point a store at a temp dir.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// DefaultDir returns the standard store location, ~/.qlaunch.
func DefaultDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".qlaunch"), nil
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// ConfigPath returns the path of the persisted configuration file.
func (s *Store) ConfigPath() string {
	return filepath.Join(s.dir, configFile)
}

// Load reads the persisted configuration. A missing file yields (nil, nil).
// Malformed content never fails the load: optional fields fall back to their
// defaults and required paths come back empty, so setup can repair the
// record.
func (s *Store) Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(s.dir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, nil
		}
		return Default(), nil
	}

	cfg, err := decode(v)
	if err != nil {
		return Default(), nil
	}
	return cfg, nil
}

// Save writes the full configuration record. The write is atomic: the record
// goes to a temp file in the same directory and is renamed over the old one,
// so a concurrent reader sees either the previous record or the new one.
func (s *Store) Save(cfg *Config) error {
	if err := s.ensureDir(); err != nil {
		return err
	}

	v := viper.New()
	v.Set("vm.arch", cfg.Arch)
	v.Set("vm.qemu_executable", cfg.QEMUPath)
	v.Set("vm.disk_path", cfg.DiskPath)
	v.Set("vm.firmware_path", cfg.FirmwarePath)
	v.Set("vm.shared_dir_path", cfg.SharedDirPath)
	v.Set("vm.mount_tag", cfg.MountTag)
	v.Set("vm.network_mode", cfg.NetworkMode)
	v.Set("vm.bridge_name", cfg.BridgeName)
	v.Set("vm.enable_webcam", cfg.EnableWebcam)
	v.Set("vm.enable_guest_agent", cfg.EnableGuestAgent)
	v.Set("vm.enable_microphone", cfg.EnableMicrophone)

	// The temp file keeps the .yaml extension so viper infers the format.
	tmpPath := filepath.Join(s.dir, "config.tmp.yaml")
	if err := v.WriteConfigAs(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmpPath, s.ConfigPath()); err != nil {
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}

// MarkSetupComplete drops the zero-byte marker recording that setup finished
// at least once.
func (s *Store) MarkSetupComplete() error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(s.dir, markerFile))
	if err != nil {
		return fmt.Errorf("failed to write setup marker: %w", err)
	}
	return f.Close()
}

// SetupComplete reports whether the setup marker exists.
func (s *Store) SetupComplete() bool {
	_, err := os.Stat(filepath.Join(s.dir, markerFile))
	return err == nil
}

func (s *Store) ensureDir() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

// setDefaults registers the per-field defaults for every optional field.
// Required paths have no default: an unset path stays empty and routes the
// user to setup.
func setDefaults(v *viper.Viper) {
	v.SetDefault("vm.arch", "aarch64")
	v.SetDefault("vm.shared_dir_path", "~/Documents")
	v.SetDefault("vm.mount_tag", "host_share")
	v.SetDefault("vm.network_mode", NetworkUser)
	v.SetDefault("vm.bridge_name", DefaultBridgeName)
	v.SetDefault("vm.enable_webcam", false)
	v.SetDefault("vm.enable_guest_agent", false)
	v.SetDefault("vm.enable_microphone", true)
}

// decode unmarshals the vm section and expands ~ in path fields.
func decode(v *viper.Viper) (*Config, error) {
	var wrapper struct {
		VM Config `mapstructure:"vm"`
	}
	if err := v.Unmarshal(&wrapper); err != nil {
		return nil, err
	}
	cfg := wrapper.VM
	cfg.expandPaths()
	return &cfg, nil
}
