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

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dimiro1/banner"
	"github.com/gsalomao/maxmq-client/internal/config"
	"github.com/gsalomao/maxmq-client/internal/logger"
	"github.com/gsalomao/maxmq-client/internal/metric"
	"github.com/gsalomao/maxmq-client/internal/mqtt"
	"github.com/gsalomao/maxmq-client/internal/mqtt/transport"
	"github.com/mattn/go-colorable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

var bannerTemplate = `{{ .Title "MaxMQ Client" "" 0 }}
{{ .AnsiColor.BrightCyan }}  MQTT 3.1 client for the MaxMQ broker
{{ .AnsiColor.Default }}
`

var errConnectionClosed = errors.New("connection closed by broker")

// client holds everything a command needs to talk to the broker.
type client struct {
	conf    config.Config
	log     *logger.Logger
	session *mqtt.Session
	metrics *metric.Server
}

func addClientFlags(fs *pflag.FlagSet) {
	d := config.DefaultConfig

	fs.StringP("host", "H", d.MQTTHost, "Broker host name or IP address")
	fs.IntP("port", "p", d.MQTTPort, "Broker TCP port")
	fs.StringP("client-id", "i", "", "Client identifier (generated when empty)")
	fs.StringP("username", "u", "", "User name")
	fs.StringP("password", "P", "", "Password")
	fs.IntP("keep-alive", "k", d.MQTTKeepAlive, "Keep alive, in seconds (0 disables it)")
	fs.Bool("persistent", !d.MQTTCleanSession, "Resume the previous session instead of a clean one")
	fs.String("socks5-proxy", "", "Address of the SOCKS5 proxy used to reach the broker")
	fs.String("log-level", d.LogLevel, "Log level (debug, info, warn, error)")
	fs.String("log-format", d.LogFormat, "Log format (json, text, pretty, pretty-no-colors)")
	fs.String("log-destination", d.LogDestination, "Log destination (stdout, stderr or a file)")
	fs.Bool("metrics", d.MetricsEnabled, "Export Prometheus metrics")
	fs.String("metrics-address", d.MetricsAddress, "Address where the metrics are exported")
	fs.Bool("no-banner", false, "Do not print the banner")
}

// applyFlags overrides the configuration with the flags set in the command line.
func applyFlags(fs *pflag.FlagSet, c *config.Config) error {
	strFlags := map[string]*string{
		"host":            &c.MQTTHost,
		"client-id":       &c.MQTTClientID,
		"username":        &c.MQTTUsername,
		"password":        &c.MQTTPassword,
		"socks5-proxy":    &c.MQTTSocks5Proxy,
		"log-level":       &c.LogLevel,
		"log-format":      &c.LogFormat,
		"log-destination": &c.LogDestination,
		"metrics-address": &c.MetricsAddress,
	}
	for name, dst := range strFlags {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	intFlags := map[string]*int{
		"port":       &c.MQTTPort,
		"keep-alive": &c.MQTTKeepAlive,
	}
	for name, dst := range intFlags {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetInt(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	if fs.Changed("persistent") {
		v, err := fs.GetBool("persistent")
		if err != nil {
			return err
		}
		c.MQTTCleanSession = !v
	}
	if fs.Changed("metrics") {
		v, err := fs.GetBool("metrics")
		if err != nil {
			return err
		}
		c.MetricsEnabled = v
	}
	return nil
}

// loadConfig loads the configuration from the config file, the environment variables and the
// command line flags, in increasing order of precedence.
func loadConfig(fs *pflag.FlagSet) (c config.Config, found bool, err error) {
	c = config.DefaultConfig

	err = config.ReadConfigFile()
	if err == nil {
		found = true
	} else if !errors.Is(err, config.ErrConfigFileNotFound) {
		return c, found, err
	}

	err = config.LoadConfig(&c)
	if err != nil {
		return c, found, err
	}

	err = applyFlags(fs, &c)
	if err != nil {
		return c, found, err
	}

	return c, found, c.Validate()
}

func newLogger(c config.Config) (*logger.Logger, error) {
	lvl, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}

	var format logger.Format
	format, err = logger.ParseFormat(c.LogFormat)
	if err != nil {
		return nil, err
	}

	var out io.Writer
	out, err = logger.ParseDestination(c.LogDestination)
	if err != nil {
		return nil, err
	}

	return logger.New(out, &logger.Options{
		Level:          lvl,
		Format:         format,
		LogIDGenerator: logger.XIDGenerator{},
	}), nil
}

func connectConfig(c config.Config) mqtt.ConnectConfig {
	keepAlive := time.Duration(c.MQTTKeepAlive) * time.Second
	if c.MQTTKeepAlive == 0 {
		keepAlive = -1
	}

	cc := mqtt.ConnectConfig{
		ClientID:   c.MQTTClientID,
		Username:   c.MQTTUsername,
		KeepAlive:  keepAlive,
		Persistent: !c.MQTTCleanSession,
	}
	if c.MQTTPassword != "" {
		cc.Password = []byte(c.MQTTPassword)
	}
	return cc
}

func newClient(fs *pflag.FlagSet, stderr io.Writer) (*client, error) {
	conf, found, err := loadConfig(fs)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if noBanner, _ := fs.GetBool("no-banner"); !noBanner {
		printBanner(stderr)
	}

	c := &client{conf: conf}
	c.log, err = newLogger(conf)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	ctx := context.Background()
	if found {
		c.log.Info(ctx, "Config file loaded with success")
	} else {
		c.log.Info(ctx, "No config file found")
	}

	if cf, err := json.Marshal(conf); err == nil {
		c.log.Debug(ctx, "Using configuration", logger.Any("config", json.RawMessage(cf)))
	}

	var m *mqtt.Metrics
	if conf.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		m, err = mqtt.NewMetrics(reg)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics: %w", err)
		}

		c.metrics = metric.NewServer(c.log,
			metric.WithAddress(conf.MetricsAddress),
			metric.WithPath(conf.MetricsPath),
			metric.WithProfile(conf.MetricsProfiling),
			metric.WithGatherer(reg),
		)
	}

	c.session, err = newSession(conf, c.log, m)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newSession(c config.Config, log *logger.Logger, m *mqtt.Metrics) (*mqtt.Session, error) {
	p, err := c.ProxyDialer()
	if err != nil {
		return nil, err
	}

	d := &transport.Dialer{
		Log:           log,
		Proxy:         p,
		Timeout:       time.Duration(c.MQTTConnectTimeout) * time.Second,
		BufferSize:    c.MQTTBufferSize,
		MaxPacketSize: c.MQTTMaxPacketSize,
	}

	return mqtt.NewSession(log,
		mqtt.WithHost(c.MQTTHost),
		mqtt.WithPort(c.MQTTPort),
		mqtt.WithDialer(mqtt.NewDialer(d)),
		mqtt.WithMetrics(m),
	), nil
}

// run calls fn while the metrics server, when enabled, is serving. The metrics server is shut down
// once fn returns.
func (c *client) run(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)

	if c.metrics != nil {
		g.Go(func() error {
			return c.metrics.Serve(ctx)
		})
		g.Go(func() error {
			<-ctx.Done()
			return c.metrics.Shutdown(context.Background())
		})
	}

	g.Go(func() error {
		defer cancel()
		return fn(ctx)
	})

	return g.Wait()
}

// connect connects the session and waits until the broker accepts or refuses the connection.
func (c *client) connect(ctx context.Context) error {
	result := make(chan error, 1)
	notify := func(err error) {
		select {
		case result <- err:
		default:
		}
	}

	ids := []mqtt.ListenerID{
		c.session.OnConnect(func() { notify(nil) }),
		c.session.OnConnectionLost(notify),
		c.session.OnDisconnect(func() { notify(errConnectionClosed) }),
	}
	defer func() {
		for _, id := range ids {
			c.session.RemoveListener(id)
		}
	}()

	err := c.session.Connect(ctx, connectConfig(c.conf))
	if err != nil {
		return err
	}

	select {
	case err = <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func printBanner(w io.Writer) {
	if f, ok := w.(*os.File); ok {
		w = colorable.NewColorable(f)
	}
	banner.InitString(w, true, true, bannerTemplate)
}
