// Copyright 2024 The MaxMQ Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gsalomao/maxmq-client/internal/logger"
	"github.com/spf13/viper"
	"golang.org/x/net/proxy"
)

// ErrConfigFileNotFound indicates that the configuration file was not found in any of the search
// paths.
var ErrConfigFileNotFound = errors.New("config file not found")

const envPrefix = "MAXMQ_CLIENT"

// Config holds all the application configuration.
type Config struct {
	// Minimal severity level of the logs.
	LogLevel string `json:"log_level" mapstructure:"log_level"`

	// Log format (json, text, pretty, pretty-no-colors).
	LogFormat string `json:"log_format" mapstructure:"log_format"`

	// Log destination (stdout, stderr, or a file path).
	LogDestination string `json:"log_destination" mapstructure:"log_destination"`

	// Indicate whether the client exports metrics or not.
	MetricsEnabled bool `json:"metrics_enabled" mapstructure:"metrics_enabled"`

	// TCP address (<IP>:<port>) where the Prometheus metrics are exported.
	MetricsAddress string `json:"metrics_address" mapstructure:"metrics_address"`

	// The path where the metrics are exported.
	MetricsPath string `json:"metrics_path" mapstructure:"metrics_path"`

	// Indicate whether the profiling metrics are exported or not.
	MetricsProfiling bool `json:"metrics_profiling" mapstructure:"metrics_profiling"`

	// Host name or IP address of the MQTT broker.
	MQTTHost string `json:"mqtt_host" mapstructure:"mqtt_host"`

	// TCP port of the MQTT broker.
	MQTTPort int `json:"mqtt_port" mapstructure:"mqtt_port"`

	// The MQTT Keep Alive, in seconds. Zero disables the keep alive.
	MQTTKeepAlive int `json:"mqtt_keep_alive" mapstructure:"mqtt_keep_alive"`

	// Indicate whether the broker must discard any previous session or not.
	MQTTCleanSession bool `json:"mqtt_clean_session" mapstructure:"mqtt_clean_session"`

	// MQTT client identifier. When empty, a client identifier is generated.
	MQTTClientID string `json:"mqtt_client_id" mapstructure:"mqtt_client_id"`

	// User name used to authenticate the client.
	MQTTUsername string `json:"mqtt_username" mapstructure:"mqtt_username"`

	// Password used to authenticate the client. It's never encoded as JSON, so it cannot leak into
	// the logs.
	MQTTPassword string `json:"-" mapstructure:"mqtt_password"`

	// The amount of time, in seconds, the client waits for the TCP connection to be established.
	MQTTConnectTimeout int `json:"mqtt_connect_timeout" mapstructure:"mqtt_connect_timeout"`

	// Address (<IP>:<port>) of a SOCKS5 proxy used to reach the broker.
	MQTTSocks5Proxy string `json:"mqtt_socks5_proxy" mapstructure:"mqtt_socks5_proxy"`

	// The size, in bytes, of the MQTT receiver and transmitter buffers.
	MQTTBufferSize int `json:"mqtt_buffer_size" mapstructure:"mqtt_buffer_size"`

	// The maximum size, in bytes, allowed for received MQTT Packets.
	MQTTMaxPacketSize int `json:"mqtt_max_packet_size" mapstructure:"mqtt_max_packet_size"`
}

// DefaultConfig contains the default configuration.
var DefaultConfig = Config{
	LogLevel:           "info",
	LogFormat:          "pretty",
	LogDestination:     "stderr",
	MetricsEnabled:     false,
	MetricsAddress:     ":8889",
	MetricsPath:        "/metrics",
	MQTTHost:           "localhost",
	MQTTPort:           1883,
	MQTTKeepAlive:      15,
	MQTTCleanSession:   true,
	MQTTConnectTimeout: 5,
	MQTTBufferSize:     1024,
	MQTTMaxPacketSize:  65536,
}

// ReadConfigFile reads the configuration file.
//
// The configuration file can be stored at one of the following locations:
//   - next to the executable, or in its parent directory
//   - /etc/maxmq-client/maxmq-client.conf
//   - /etc/maxmq-client.conf
func ReadConfigFile() error {
	viper.SetConfigName("maxmq-client.conf")
	viper.SetConfigType("toml")

	if exe, err := os.Executable(); err == nil {
		pwd := filepath.Dir(exe)
		viper.AddConfigPath(pwd)
		viper.AddConfigPath(filepath.Dir(pwd))
	}

	viper.AddConfigPath("/etc/maxmq-client")
	viper.AddConfigPath("/etc")

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return fmt.Errorf("%w: %w", ErrConfigFileNotFound, err)
		}
		return err
	}

	return nil
}

// LoadConfig loads the configuration from the conf file and the environment variables into c.
// Values not found in any of these sources keep the value already present in c.
//
// Note: The ReadConfigFile must be called before in order to load the configuration from the conf
// file.
func LoadConfig(c *Config) error {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	for _, key := range keys {
		_ = viper.BindEnv(key)
	}

	return viper.Unmarshal(c)
}

var keys = []string{
	"log_level",
	"log_format",
	"log_destination",
	"metrics_enabled",
	"metrics_address",
	"metrics_path",
	"metrics_profiling",
	"mqtt_host",
	"mqtt_port",
	"mqtt_keep_alive",
	"mqtt_clean_session",
	"mqtt_client_id",
	"mqtt_username",
	"mqtt_password",
	"mqtt_connect_timeout",
	"mqtt_socks5_proxy",
	"mqtt_buffer_size",
	"mqtt_max_packet_size",
}

// Validate checks whether the configuration is valid or not.
func (c Config) Validate() error {
	if c.LogLevel == "" {
		return errors.New("log_level is required")
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return errors.New("log_level is invalid")
	}
	if c.LogFormat == "" {
		return errors.New("log_format is required")
	}
	if _, err := logger.ParseFormat(c.LogFormat); err != nil {
		return errors.New("log_format is invalid")
	}
	if c.LogDestination == "" {
		return errors.New("log_destination is required")
	}
	if c.MQTTHost == "" {
		return errors.New("mqtt_host is required")
	}
	if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
		return errors.New("mqtt_port must be between 1 and 65535")
	}
	if c.MQTTKeepAlive < 0 || c.MQTTKeepAlive > 65535 {
		return errors.New("mqtt_keep_alive must be between 0 and 65535")
	}
	if c.MQTTConnectTimeout <= 0 {
		return errors.New("mqtt_connect_timeout must be greater than 0")
	}
	if c.MQTTBufferSize < 16 {
		return errors.New("mqtt_buffer_size must be no less than 16")
	}
	if c.MQTTMaxPacketSize < 2 {
		return errors.New("mqtt_max_packet_size must be no less than 2")
	}
	if c.MetricsEnabled && c.MetricsAddress == "" {
		return errors.New("metrics_address is required when metrics_enabled")
	}
	return nil
}

// ProxyDialer returns the SOCKS5 dialer configured by mqtt_socks5_proxy, or nil when no proxy is
// configured.
func (c Config) ProxyDialer() (proxy.Dialer, error) {
	if c.MQTTSocks5Proxy == "" {
		return nil, nil
	}

	d, err := proxy.SOCKS5("tcp", c.MQTTSocks5Proxy, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("invalid mqtt_socks5_proxy: %w", err)
	}
	return d, nil
}
