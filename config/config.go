// Package config implements the YAML config file parser for a recording
// session: trace buffer sizing and policy, stream output and compression,
// and the text log service.
package config

import (
	"fmt"
	"os"

	"github.com/c2h5oh/datasize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/tracelens/tracelens/format"
	"github.com/tracelens/tracelens/textlog"
	"github.com/tracelens/tracelens/trace"
)

// DefaultBufferSize is the default trace chunk capacity.
const DefaultBufferSize = 64 * datasize.KB

// Config is the config root object.
type Config struct {
	Trace   Trace          `yaml:"trace"`
	Stream  Stream         `yaml:"stream"`
	TextLog textlog.Config `yaml:"textlog"`

	// LogLevel sets the logrus level for service-side logging
	// ("debug", "info", "warn", "error"). Empty keeps the default.
	LogLevel string `yaml:"log_level"`
}

// Trace configures the snapshot buffer.
type Trace struct {
	// BufferSize is the capacity of one buffer chunk, e.g. "64KB".
	BufferSize datasize.ByteSize `yaml:"buffer_size"`
	// Policy selects the full-buffer behavior: "grow" or "drop".
	Policy string `yaml:"policy"`
	// MaxChunks bounds the chain length under the drop policy.
	MaxChunks int `yaml:"max_chunks"`
}

// Stream configures the persistent record stream.
type Stream struct {
	// Output selects the target: a file path, "stdout", or "none".
	Output string `yaml:"output"`
	// Compression selects the frame codec: "none", "zstd", "s2", "lz4".
	Compression string `yaml:"compression"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Trace: Trace{
			BufferSize: DefaultBufferSize,
			Policy:     "grow",
		},
		Stream: Stream{
			Output:      "none",
			Compression: "none",
		},
		TextLog: textlog.DefaultConfig(),
	}
}

// Check validates a Config instance.
func (c Config) Check() error {
	if c.Trace.BufferSize < datasize.ByteSize(trace.MinChunkSize) {
		return fmt.Errorf("trace.buffer_size: %s is below the minimum of %s",
			c.Trace.BufferSize, datasize.ByteSize(trace.MinChunkSize))
	}
	if _, err := trace.ParsePolicy(c.Trace.Policy); err != nil {
		return fmt.Errorf("trace.policy: %v", err)
	}
	if c.Trace.MaxChunks < 0 {
		return fmt.Errorf("trace.max_chunks: must not be negative")
	}
	if _, err := format.ParseCompression(c.Stream.Compression); err != nil {
		return fmt.Errorf("stream.compression: %v", err)
	}
	if c.LogLevel != "" {
		if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("log_level: %v", err)
		}
	}

	return nil
}

// String returns the config as a YAML string.
func (c Config) String() string {
	y, err := yaml.Marshal(c)
	if err != nil {
		logrus.Panicf("YAML marshal of config failed: %v", err) // Should never happen
	}

	return string(y)
}

// LoadYAML loads config from YAML. Any set value overwrites any existing
// value, but omitted keys are untouched. Unknown keys are an error.
func (c *Config) LoadYAML(yamlContents []byte, expandEnv bool) error {
	if expandEnv {
		yamlContents = []byte(os.ExpandEnv(string(yamlContents)))
	}

	return yaml.UnmarshalStrict(yamlContents, c)
}

// LoadYAMLFile loads config from a YAML file. Any set value overwrites
// any existing value, but omitted keys are untouched.
func (c *Config) LoadYAMLFile(path string, expandEnv bool) error {
	contents, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "open yaml file")
	}

	return errors.Wrap(c.LoadYAML(contents, expandEnv), "load yaml file")
}
