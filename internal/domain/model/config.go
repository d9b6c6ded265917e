package model

// Config is the controller configuration, loaded from YAML.
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	Strip     StripConfig     `json:"strip" yaml:"strip"`
	Presets   PresetsConfig   `json:"presets" yaml:"presets"`
	MQTT      MQTTConfig      `json:"mqtt" yaml:"mqtt"`
	HueSync   HueSyncConfig   `json:"huesync" yaml:"huesync"`
	WebSocket WebSocketConfig `json:"websocket" yaml:"websocket"`
	Discovery DiscoveryConfig `json:"discovery" yaml:"discovery"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
}

type ServerConfig struct {
	Listen  string `json:"listen" yaml:"listen"`
	LocalIP string `json:"local_ip" yaml:"local_ip"`
	Name    string `json:"name" yaml:"name"`
	// BufferSize is the capacity of the shared staging buffer in bytes.
	BufferSize int `json:"buffer_size" yaml:"buffer_size"`
	// LockWaitMS bounds how long a request waits for the staging buffer.
	LockWaitMS int `json:"lock_wait_ms" yaml:"lock_wait_ms"`
}

type StripConfig struct {
	LEDCount          int  `json:"led_count" yaml:"led_count"`
	RGBW              bool `json:"rgbw" yaml:"rgbw"`
	MaxSegments       int  `json:"max_segments" yaml:"max_segments"`
	GammaCorrectColor bool `json:"gamma_correct_color" yaml:"gamma_correct_color"`
	// TransitionMS is the default transition duration.
	TransitionMS int `json:"transition_ms" yaml:"transition_ms"`
}

type PresetsConfig struct {
	Path string `json:"path" yaml:"path"`
}

type MQTTConfig struct {
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	Host        string `json:"host" yaml:"host"`
	Port        int    `json:"port" yaml:"port"`
	ClientID    string `json:"client_id" yaml:"client_id"`
	Username    string `json:"username" yaml:"username"`
	Password    string `json:"password" yaml:"password"`
	DeviceTopic string `json:"device_topic" yaml:"device_topic"`
	GroupTopic  string `json:"group_topic" yaml:"group_topic"`
	QoS         int    `json:"qos" yaml:"qos"`
}

type HueSyncConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	BridgeIP       string `json:"bridge_ip" yaml:"bridge_ip"`
	User           string `json:"user" yaml:"user"`
	LightID        int    `json:"light_id" yaml:"light_id"`
	PollIntervalMS int    `json:"poll_interval_ms" yaml:"poll_interval_ms"`
	ApplyOnOff     bool   `json:"apply_on_off" yaml:"apply_on_off"`
	ApplyBri       bool   `json:"apply_bri" yaml:"apply_bri"`
	ApplyColor     bool   `json:"apply_color" yaml:"apply_color"`
}

type WebSocketConfig struct {
	MaxMessageSize int `json:"max_message_size" yaml:"max_message_size"`
	PingInterval   int `json:"ping_interval" yaml:"ping_interval"`
	PongTimeout    int `json:"pong_timeout" yaml:"pong_timeout"`
	LiveIntervalMS int `json:"live_interval_ms" yaml:"live_interval_ms"`
}

type DiscoveryConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	Output string `json:"output" yaml:"output"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:     ":80",
			Name:       "LED Controller",
			BufferSize: 24576,
			LockWaitMS: 1000,
		},
		Strip: StripConfig{
			LEDCount:     30,
			MaxSegments:  16,
			TransitionMS: 700,
		},
		Presets: PresetsConfig{Path: "presets.json"},
		MQTT: MQTTConfig{
			Port:        1883,
			ClientID:    "ledbridge",
			DeviceTopic: "wled/ledbridge",
			GroupTopic:  "wled/all",
		},
		HueSync: HueSyncConfig{
			LightID:        1,
			PollIntervalMS: 2500,
			ApplyOnOff:     true,
			ApplyBri:       true,
			ApplyColor:     true,
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
			LiveIntervalMS: 200,
		},
		Discovery: DiscoveryConfig{Enabled: true},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}
