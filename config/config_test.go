package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `server:
  address: ":9000"
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  client_id: "cli"
  username: "user"
  password: "pass"
  topic_prefix: "city"
  qos:
    toll: 1
metrics:
  prometheus_addr: ":9200"
  sinks:
    - type: "nop"
    - type: "influx"
      conf:
        url: "http://influx:8086"
        bucket: "tolls"
logging:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"server.address", cfg.Server.Address, ":9000"},
		{"server.read_timeout_seconds", cfg.Server.ReadTimeoutSeconds, 10},
		{"mqtt.enabled", cfg.MQTT.Enabled, true},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "cli"},
		{"username", cfg.MQTT.Username, "user"},
		{"password", cfg.MQTT.Password, "pass"},
		{"topic_prefix", cfg.MQTT.TopicPrefix, "city"},
		{"qos.toll", cfg.MQTT.QoS["toll"], byte(1)},
		{"max_retries", cfg.MQTT.MaxRetries, 3},
		{"metrics_sinks", len(cfg.Metrics.Sinks), 2},
		{"influx_bucket", cfg.Metrics.Sinks[1].Conf["bucket"], "tolls"},
		{"prometheus_addr", cfg.Metrics.PrometheusAddr, ":9200"},
		{"logging.level", cfg.Logging.Level, "debug"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"server":{"address":"127.0.0.1:8081"},"metrics":{"sinks":[{"type":"prometheus"}]}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8081", cfg.Server.Address)
	assert.True(t, cfg.Metrics.HasSink("prometheus"))
	assert.Equal(t, ":9100", cfg.Metrics.PrometheusAddr)
	assert.False(t, cfg.MQTT.Enabled)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "tolltag", cfg.MQTT.TopicPrefix)
	assert.Empty(t, cfg.Metrics.Sinks)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "config.yaml", "server:\n  address: \":9000\"\n")
	t.Setenv("TOLL_SERVER__ADDRESS", ":7000")
	t.Setenv("TOLL_LOGGING__LEVEL", "warn")
	t.Setenv("TOLL_MQTT__TOPIC_PREFIX", "bridge")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Address)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "bridge", cfg.MQTT.TopicPrefix)
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(writeConfig(t, "config.toml", "")); err == nil {
		t.Fatalf("expected unsupported format error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := Load(writeConfig(t, "bad.yaml", "logging:\n  level: loud\n")); err == nil {
		t.Fatalf("expected invalid level error")
	}
	if _, err := Load(writeConfig(t, "mqtt.yaml", "mqtt:\n  enabled: true\n")); err == nil {
		t.Fatalf("expected error for enabled mqtt without broker")
	}
	if _, err := Load(writeConfig(t, "sinks.yaml", "metrics:\n  sinks:\n    - conf: {}\n")); err == nil {
		t.Fatalf("expected error for sink without type")
	}
}
