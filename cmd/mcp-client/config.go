package main

import (
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v3"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Profile names a server to connect to and how, so commands can take a
// short --profile name instead of a full URL (SPEC_FULL's Configuration
// supplement, grounded on the teacher's agent.Read front-matter parsing
// idiom for yaml.v3 usage).
type Profile struct {
	URL   string `yaml:"url"`
	Auth  string `yaml:"auth,omitempty"`
	Debug bool   `yaml:"debug,omitempty"`
}

type config struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// defaultConfigPath returns ~/.config/go-mcp/profiles.yaml.
func defaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "go-mcp", "profiles.yaml"), nil
}

// loadProfile resolves name to a Profile from the profiles file at path.
// A missing file is not an error — it just means no profiles are defined.
func loadProfile(path, name string) (Profile, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Profile{}, false, nil
	} else if err != nil {
		return Profile{}, false, err
	}

	var cfg config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Profile{}, false, err
	}

	p, ok := cfg.Profiles[name]
	return p, ok, nil
}
