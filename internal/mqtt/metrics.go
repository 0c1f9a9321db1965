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

package mqtt

import (
	"strconv"
	"time"

	"github.com/gsalomao/maxmq-client/internal/mqtt/packet"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
)

const (
	metricsNamespace = "maxmq"
	metricsSubsystem = "client"
)

// Metrics holds the Prometheus metrics of a Session. A nil *Metrics records nothing.
type Metrics struct {
	packets     *packetsMetrics
	connections *connectionsMetrics
	delivery    *deliveryMetrics
	latencies   *latenciesMetrics
}

type packetsMetrics struct {
	receivedTotal *prometheus.CounterVec
	receivedBytes *prometheus.CounterVec
	sentTotal     *prometheus.CounterVec
	sentBytes     *prometheus.CounterVec
}

type connectionsMetrics struct {
	connectTotal    prometheus.Counter
	disconnectTotal prometheus.Counter
	lostTotal       prometheus.Counter
	connected       prometheus.Gauge
}

type deliveryMetrics struct {
	inFlight             prometheus.Gauge
	pendingSubscriptions prometheus.Gauge
	messagesReceived     *prometheus.CounterVec
	messagesPublished    *prometheus.CounterVec
}

type latenciesMetrics struct {
	pingSeconds      prometheus.Histogram
	subscribeSeconds *prometheus.HistogramVec
}

// NewMetrics creates the Session metrics and registers them into reg. When reg is nil, the
// metrics are created but not registered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		packets:     newPacketsMetrics(),
		connections: newConnectionsMetrics(),
		delivery:    newDeliveryMetrics(),
		latencies:   newLatenciesMetrics(),
	}

	if reg == nil {
		return m, nil
	}

	err := multierr.Combine(
		reg.Register(m.packets.receivedTotal),
		reg.Register(m.packets.receivedBytes),
		reg.Register(m.packets.sentTotal),
		reg.Register(m.packets.sentBytes),
		reg.Register(m.connections.connectTotal),
		reg.Register(m.connections.disconnectTotal),
		reg.Register(m.connections.lostTotal),
		reg.Register(m.connections.connected),
		reg.Register(m.delivery.inFlight),
		reg.Register(m.delivery.pendingSubscriptions),
		reg.Register(m.delivery.messagesReceived),
		reg.Register(m.delivery.messagesPublished),
		reg.Register(m.latencies.pingSeconds),
		reg.Register(m.latencies.subscribeSeconds),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func newPacketsMetrics() *packetsMetrics {
	return &packetsMetrics{
		receivedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "packets_received_total",
			Help:      "Number of packets received",
		}, []string{"type"}),
		receivedBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "packets_received_bytes",
			Help:      "Number of bytes received",
		}, []string{"type"}),
		sentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "packets_sent_total",
			Help:      "Number of packets sent",
		}, []string{"type"}),
		sentBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "packets_sent_bytes",
			Help:      "Number of bytes sent",
		}, []string{"type"}),
	}
}

func newConnectionsMetrics() *connectionsMetrics {
	return &connectionsMetrics{
		connectTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "connected_total",
			Help:      "Number of connections accepted by the broker",
		}),
		disconnectTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "disconnected_total",
			Help:      "Number of connections closed by the client",
		}),
		lostTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "connections_lost_total",
			Help:      "Number of connections lost or refused",
		}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "connected",
			Help:      "Whether the session is connected (1) or not (0)",
		}),
	}
}

func newDeliveryMetrics() *deliveryMetrics {
	return &deliveryMetrics{
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "inflight_messages",
			Help:      "Number of inbound QoS 2 messages waiting for PUBREL",
		}),
		pendingSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "pending_subscriptions",
			Help:      "Number of SUBSCRIBE and UNSUBSCRIBE packets waiting for acknowledgment",
		}),
		messagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "messages_received_total",
			Help:      "Number of application messages delivered to the listeners",
		}, []string{"qos"}),
		messagesPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "messages_published_total",
			Help:      "Number of application messages published",
		}, []string{"qos"}),
	}
}

func newLatenciesMetrics() *latenciesMetrics {
	buckets := []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

	return &latenciesMetrics{
		pingSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "ping_latency_seconds",
			Help: "Duration in seconds from the time the PINGREQ packet is sent until the time " +
				"the PINGRESP packet is received",
			Buckets: buckets,
		}),
		subscribeSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "subscribe_latency_seconds",
			Help: "Duration in seconds from the time the SUBSCRIBE or UNSUBSCRIBE packet is " +
				"sent until the time its acknowledgment is received",
			Buckets: buckets,
		}, []string{"kind"}),
	}
}

func qosLabel(qos packet.QoS) prometheus.Labels {
	return prometheus.Labels{"qos": strconv.Itoa(int(qos))}
}

func (m *Metrics) packetReceived(pkt packet.Packet) {
	if m == nil {
		return
	}

	lb := prometheus.Labels{"type": pkt.Type().String()}
	m.packets.receivedTotal.With(lb).Inc()
	m.packets.receivedBytes.With(lb).Add(float64(pkt.Size()))
}

func (m *Metrics) packetSent(pkt packet.Packet) {
	if m == nil {
		return
	}

	lb := prometheus.Labels{"type": pkt.Type().String()}
	m.packets.sentTotal.With(lb).Inc()
	m.packets.sentBytes.With(lb).Add(float64(pkt.Size()))
}

func (m *Metrics) connected() {
	if m == nil {
		return
	}

	m.connections.connectTotal.Inc()
	m.connections.connected.Set(1)
}

func (m *Metrics) disconnected() {
	if m == nil {
		return
	}

	m.connections.disconnectTotal.Inc()
	m.connections.connected.Set(0)
}

func (m *Metrics) lost() {
	if m == nil {
		return
	}

	m.connections.lostTotal.Inc()
	m.connections.connected.Set(0)
}

func (m *Metrics) sessionState(inFlight, pendingSubscriptions int) {
	if m == nil {
		return
	}

	m.delivery.inFlight.Set(float64(inFlight))
	m.delivery.pendingSubscriptions.Set(float64(pendingSubscriptions))
}

func (m *Metrics) messageReceived(qos packet.QoS) {
	if m == nil {
		return
	}

	m.delivery.messagesReceived.With(qosLabel(qos)).Inc()
}

func (m *Metrics) messagePublished(qos packet.QoS) {
	if m == nil {
		return
	}

	m.delivery.messagesPublished.With(qosLabel(qos)).Inc()
}

func (m *Metrics) recordPingLatency(d time.Duration) {
	if m == nil {
		return
	}

	m.latencies.pingSeconds.Observe(d.Seconds())
}

func (m *Metrics) recordSubscribeLatency(kind requestKind, d time.Duration) {
	if m == nil {
		return
	}

	lb := prometheus.Labels{"kind": kind.String()}
	m.latencies.subscribeSeconds.With(lb).Observe(d.Seconds())
}
