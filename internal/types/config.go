package types

import "fmt"

const DefaultServerPort = 8080

// ServerConfig is the optional YAML server configuration loaded at startup.
// Backend selection and endpoints stay env-driven (see internal/backends);
// the file only carries knobs that do not vary per deployment environment.
type ServerConfig struct {
	// Port is the HTTP listen port.
	Port int `yaml:"port"`
	// EventTopicARN, when set, enables best-effort lifecycle event
	// publication for create/update/delete operations.
	EventTopicARN string `yaml:"event_topic_arn"`
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{Port: DefaultServerPort}
}

func (c ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be in (0, 65535], got %d", c.Port)
	}
	return nil
}
