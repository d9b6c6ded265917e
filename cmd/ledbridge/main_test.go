package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"led-json-bridge/internal/domain/model"
)

func TestListenPort(t *testing.T) {
	assert.Equal(t, 80, listenPort(":80"))
	assert.Equal(t, 8080, listenPort("0.0.0.0:8080"))
	assert.Equal(t, 80, listenPort("bogus"))
	assert.Equal(t, 80, listenPort(":0"))
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("LOCAL_IP", "10.1.2.3")
	t.Setenv("LEDBRIDGE_LOG_LEVEL", "debug")
	t.Setenv("LEDBRIDGE_MQTT_HOST", "broker.lan")

	cfg := model.DefaultConfig()
	applyEnv(cfg)

	assert.Equal(t, "10.1.2.3", cfg.Server.LocalIP)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "broker.lan", cfg.MQTT.Host)
}
