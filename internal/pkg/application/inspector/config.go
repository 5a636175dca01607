package inspector

import (
	"io"

	"github.com/diwise/odata-toolkit/pkg/odata/version"
	yaml "gopkg.in/yaml.v2"
)

type ServiceConfig struct {
	Name        string `yaml:"name"`
	ServiceRoot string `yaml:"serviceRoot"`
	// MaxProtocolVersion is the highest version the inspected service supports
	MaxProtocolVersion string `yaml:"maxProtocolVersion"`
}

type BatchConfig struct {
	MaxOperations int `yaml:"maxOperations"`
}

type Config struct {
	Service ServiceConfig `yaml:"service"`
	Batch   BatchConfig   `yaml:"batch"`
}

func (c *Config) MaxProtocolVersion() (version.Version, error) {
	if c.Service.MaxProtocolVersion == "" {
		return version.Latest, nil
	}
	return version.Parse(c.Service.MaxProtocolVersion)
}

func LoadConfiguration(data io.Reader) (*Config, error) {

	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	err = yaml.Unmarshal(buf, &cfg)

	return cfg, err
}
