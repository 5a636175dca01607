package inspector

import (
	"bytes"
	"testing"

	"github.com/diwise/odata-toolkit/pkg/odata/version"
	"github.com/matryer/is"
)

func TestLoadServiceConfig(t *testing.T) {
	is, config := setupConfigTest(t, configFile)

	is.Equal(config.Service.Name, "northwind")
	is.Equal(config.Service.ServiceRoot, "http://localhost:8080/northwind.svc")

	v, err := config.MaxProtocolVersion()
	is.NoErr(err)
	is.Equal(v, version.V2)
}

func TestLoadBatchConfig(t *testing.T) {
	is, config := setupConfigTest(t, configFile)

	is.Equal(config.Batch.MaxOperations, 100)
}

func TestThatAMissingMaxVersionDefaultsToLatest(t *testing.T) {
	is, config := setupConfigTest(t, "service:\n  name: minimal\n")

	v, err := config.MaxProtocolVersion()
	is.NoErr(err)
	is.Equal(v, version.Latest)
}

func setupConfigTest(t *testing.T, data string) (*is.I, *Config) {
	is := is.New(t)
	config, err := LoadConfiguration(bytes.NewBufferString(data))
	is.NoErr(err)

	return is, config
}

var configFile string = `
service:
  name: northwind
  serviceRoot: http://localhost:8080/northwind.svc
  maxProtocolVersion: "2.0"
batch:
  maxOperations: 100
`
