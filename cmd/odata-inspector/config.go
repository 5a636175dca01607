package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/diwise/service-chassis/pkg/infrastructure/env"
)

type AppConfig struct {
	servicePort string

	inspectorConfig io.ReadCloser
	modelConfig     io.ReadCloser
	opaConfig       io.ReadCloser
}

func LoadConfiguration(ctx context.Context) (*AppConfig, error) {
	cfg := &AppConfig{
		servicePort: env.GetVariableOrDefault(ctx, "SERVICE_PORT", "8080"),
	}

	var err error

	cfg.inspectorConfig, err = open(env.GetVariableOrDefault(ctx, "INSPECTOR_CONFIG_PATH", "/opt/diwise/config/inspector.yaml"))
	if err != nil {
		return nil, err
	}

	cfg.modelConfig, err = open(env.GetVariableOrDefault(ctx, "ODATA_MODEL_PATH", "/opt/diwise/config/model.yaml"))
	if err != nil {
		cfg.Close()
		return nil, err
	}

	cfg.opaConfig, err = open(env.GetVariableOrDefault(ctx, "POLICY_PATH", "/opt/diwise/config/authz.rego"))
	if err != nil {
		cfg.Close()
		return nil, err
	}

	return cfg, nil
}

func (cfg *AppConfig) Close() {
	for _, c := range []io.ReadCloser{cfg.inspectorConfig, cfg.modelConfig, cfg.opaConfig} {
		if c != nil {
			c.Close()
		}
	}
}

func open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}
