/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"
)

// ReceiveConfig describes the wire listener
type ReceiveConfig struct {
	Address string `json:"address,omitempty"`
	Port    int    `json:"port,omitempty"`
}

// ApiConfig describes the statistics API server
type ApiConfig struct {
	Address string `json:"address,omitempty"`
	Port    int    `json:"port,omitempty"`
}

// Config is the tool configuration persisted under the user home
type Config struct {
	*ReceiveConfig `json:"receive,omitempty"`
	*ApiConfig     `json:"api,omitempty"`
	// FibexFilePaths are combined into one metadata model for
	// non-verbose resolution
	FibexFilePaths []string `json:"fibex_file_paths,omitempty"`
	// FilterPath points to a filter config (YAML/JSON) or a DLF file
	FilterPath string `json:"filter_path,omitempty"`
	// DBPath is the statistics cache database
	DBPath string `json:"db_path,omitempty"`
	// LogLevel is one of error, warning, info, debug, trace
	LogLevel string `json:"log_level,omitempty"`

	filepath string
}

// ErrConfigFileExists ...
type ErrConfigFileExists struct {
	Path string
}

func (e ErrConfigFileExists) Error() string {
	return fmt.Sprintf("Config file already exists: %s", e.Path)
}

// Persist writes the config file
func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(&c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filepath)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	err = ioutil.WriteFile(c.filepath, data, 0644)
	if err != nil {
		return err
	}

	return nil
}

// Load reads the config file if it exists
func (c *Config) Load() error {
	data, err := ioutil.ReadFile(c.filepath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// DefaultConfigPath ...
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, ConfigFile)
}

// DefaultDBPath ...
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, DBFile)
}

// NewDefaultConfig ...
func NewDefaultConfig() *Config {
	return &Config{
		ReceiveConfig: &ReceiveConfig{
			Address: DefaultReceiveAddress,
			Port:    DefaultReceivePort,
		},
		ApiConfig: &ApiConfig{
			Address: DefaultApiAddress,
			Port:    DefaultApiPort,
		},
		DBPath:   DefaultDBPath(),
		LogLevel: DefaultLogLevel,
		filepath: DefaultConfigPath(),
	}
}
