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
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/gsalomao/maxmq-client/internal/logger"
	"github.com/gsalomao/maxmq-client/internal/mqtt/packet"
	"github.com/gsalomao/maxmq-client/internal/mqtt/transport"
	"github.com/looplab/fsm"
	"go.uber.org/multierr"
)

const (
	defaultHost = "localhost"
	defaultPort = 1883
)

// Transport is the connection used by the Session to send packets to the broker. Each packet
// written into the connection is reported to the transport.Handler.HandleSent.
type Transport interface {
	// Connect sends the CONNECT packet.
	Connect(pkt *packet.Connect) error

	// Publish sends a PUBLISH packet.
	Publish(id packet.ID, topic string, qos packet.QoS, retain bool, payload []byte) error

	// PubAck sends a PUBACK packet.
	PubAck(id packet.ID) error

	// PubRec sends a PUBREC packet.
	PubRec(id packet.ID) error

	// PubRel sends a PUBREL packet.
	PubRel(id packet.ID) error

	// PubComp sends a PUBCOMP packet.
	PubComp(id packet.ID) error

	// Subscribe sends a SUBSCRIBE packet.
	Subscribe(id packet.ID, topics []packet.Topic) error

	// Unsubscribe sends an UNSUBSCRIBE packet.
	Unsubscribe(id packet.ID, topics []string) error

	// PingReq sends a PINGREQ packet.
	PingReq() error

	// Disconnect sends a DISCONNECT packet.
	Disconnect() error

	// Close closes the connection. The cause is reported to the transport.Handler.
	Close(cause error) error
}

// Dialer establishes the connections with the broker.
type Dialer interface {
	// Dial connects to the broker at address. The h receives every packet read from and written
	// into the connection, and the close of the connection.
	Dial(ctx context.Context, address string, h transport.Handler) (Transport, error)
}

type transportDialer struct {
	dialer *transport.Dialer
}

// NewDialer creates a Dialer which connects to the broker using the transport.Dialer.
func NewDialer(d *transport.Dialer) Dialer {
	return &transportDialer{dialer: d}
}

// Dial connects to the broker at address.
func (d *transportDialer) Dial(ctx context.Context, address string, h transport.Handler) (
	Transport, error) {
	c, err := d.dialer.Dial(ctx, address, h)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Session manages a single connection with a MQTT 3.1 broker: the connection lifecycle, the keep
// alive, the packet identifiers, the subscription acknowledgments and the QoS 1 and QoS 2
// delivery handshakes.
//
// The events of the Session are delivered to the listeners registered with the On methods. The
// listeners are called without any lock held, so they can call any method of the Session.
type Session struct {
	log           *logger.Logger
	dialer        Dialer
	metrics       *Metrics
	clock         Clock
	notifier      notifier
	host          string
	port          int
	version       packet.Version
	mu            sync.Mutex
	ctx           context.Context
	lifecycle     *fsm.FSM
	transport     Transport
	watchdog      *watchdog
	subscriptions *subscriptionTracker
	delivery      *deliveryEngine
	clientID      string
	keepAlive     uint16
	ids           packetIDAllocator
	gen           uint64
}

// NewSession creates a new Session in the disconnected state.
func NewSession(log *logger.Logger, opts ...OptionFn) *Session {
	s := &Session{
		log:     log,
		host:    defaultHost,
		port:    defaultPort,
		clock:   systemClock{},
		version: packet.MQTT31,
		ctx:     context.Background(),
	}

	for _, fn := range opts {
		fn(s)
	}

	s.log = log.With(logger.Str("broker", s.address()))
	if s.dialer == nil {
		s.dialer = NewDialer(&transport.Dialer{Log: s.log, Version: s.version})
	}

	s.lifecycle = newLifecycle(s.stateChanged)
	s.watchdog = newWatchdog(s.clock)
	s.subscriptions = newSubscriptionTracker()
	s.delivery = newDeliveryEngine()
	return s
}

func (s *Session) address() string {
	return net.JoinHostPort(s.host, strconv.Itoa(s.port))
}

// Connect connects to the broker and sends the CONNECT packet. It returns ErrAlreadyConnected
// when the Session is connecting or connected.
//
// A failure to establish the connection is not returned. It's reported to the connection lost
// listeners, as well as the refusal of the connection by the broker. The connect listeners are
// called once the broker accepts the connection.
func (s *Session) Connect(ctx context.Context, conf ConnectConfig) error {
	err := conf.validate()
	if err != nil {
		return fmt.Errorf("invalid will: %w", err)
	}
	conf = conf.withDefaults()

	s.mu.Lock()
	st := s.state()
	if st != StateDisconnected && st != StateLost {
		s.mu.Unlock()
		return ErrAlreadyConnected
	}

	s.ctx = logger.Context(context.Background(), logger.Str("client_id", conf.ClientID))
	s.clientID = conf.ClientID
	s.keepAlive = uint16(conf.KeepAlive / time.Second)
	s.gen++
	gen := s.gen
	logCtx := s.ctx
	s.fire(eventConnect)
	s.mu.Unlock()

	s.log.Info(logCtx, "Connecting to broker",
		logger.Duration("keep_alive", time.Duration(s.keepAlive)*time.Second),
		logger.Bool("clean_session", !conf.Persistent),
	)

	t, err := s.dialer.Dial(ctx, s.address(), &connHandler{session: s, gen: gen})
	if err != nil {
		s.dialFailed(logCtx, gen, err)
		return nil
	}

	s.mu.Lock()
	if s.gen != gen || s.state() != StateConnecting {
		// The connection was closed before the dial returned.
		s.mu.Unlock()
		_ = t.Close(nil)
		return nil
	}
	s.transport = t
	s.mu.Unlock()

	connect := conf.connectPacket(s.version)
	err = s.send(logCtx, t, packet.CONNECT, func(t Transport) error { return t.Connect(connect) })
	if err != nil {
		return fmt.Errorf("failed to send CONNECT: %w", err)
	}
	return nil
}

func (s *Session) dialFailed(ctx context.Context, gen uint64, err error) {
	s.log.Warn(ctx, "Failed to connect to broker", logger.Err(err))

	s.mu.Lock()
	if s.gen != gen || s.state() != StateConnecting {
		s.mu.Unlock()
		return
	}
	s.gen++
	s.fire(eventLose)
	s.reset()
	s.mu.Unlock()

	s.metrics.lost()
	s.notifier.connectionLost(err)
}

// Disconnect sends the DISCONNECT packet and closes the connection. It does nothing when the
// Session is not connected. The disconnect listeners are called once the connection is closed.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	if s.state() != StateConnected {
		s.mu.Unlock()
		return nil
	}

	s.fire(eventDisconnect)
	s.watchdog.stop()
	s.reset()
	t := s.transport
	ctx := s.ctx
	s.mu.Unlock()

	s.log.Info(ctx, "Disconnecting from broker")
	s.metrics.disconnected()

	return multierr.Combine(
		s.send(ctx, t, packet.DISCONNECT, Transport.Disconnect),
		t.Close(nil),
	)
}

// IsConnected returns whether the broker has accepted the connection and the Session is still
// connected.
func (s *Session) IsConnected() bool {
	return s.State() == StateConnected
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state()
}

// ClientID returns the client identifier used in the last connection.
func (s *Session) ClientID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.clientID
}

// Publish publishes the payload to the topic. The payload is sent as it is when it's a []byte or
// a string, and it's encoded as JSON when it's a map, a struct or a slice. It does nothing when
// the Session is not connected.
func (s *Session) Publish(topic string, payload any, qos packet.QoS, retain bool) error {
	if !packet.IsValidTopicName(topic) {
		return fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}
	if !qos.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidQoS, qos)
	}

	data, err := encodePayload(payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.state() != StateConnected {
		s.mu.Unlock()
		return nil
	}

	var id packet.ID
	if qos > packet.QoS0 {
		id = s.ids.next()
	}
	t := s.transport
	ctx := s.ctx
	s.mu.Unlock()

	err = s.send(ctx, t, packet.PUBLISH, func(t Transport) error {
		return t.Publish(id, topic, qos, retain, data)
	})
	if err != nil {
		return fmt.Errorf("failed to publish: %w", err)
	}

	s.metrics.messagePublished(qos)
	return nil
}

// Subscribe subscribes to the topic filter. The subscribe listeners are called when the broker
// acknowledges the subscription. It does nothing when the Session is not connected.
func (s *Session) Subscribe(topic string, qos packet.QoS) error {
	if !packet.IsValidTopicFilter(topic) {
		return fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}
	if !qos.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidQoS, qos)
	}

	topics := []packet.Topic{{Name: topic, QoS: qos}}
	return s.request(requestSubscribe, topic, qos, func(t Transport, id packet.ID) error {
		return t.Subscribe(id, topics)
	})
}

// Unsubscribe unsubscribes from the topic filter. The unsubscribe listeners are called when the
// broker acknowledges the unsubscription. It does nothing when the Session is not connected.
func (s *Session) Unsubscribe(topic string) error {
	if !packet.IsValidTopicFilter(topic) {
		return fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}

	topics := []string{topic}
	return s.request(requestUnsubscribe, topic, packet.QoS0, func(t Transport, id packet.ID) error {
		return t.Unsubscribe(id, topics)
	})
}

func (s *Session) request(kind requestKind, topic string, qos packet.QoS,
	sendFn func(t Transport, id packet.ID) error) error {
	s.mu.Lock()
	if s.state() != StateConnected {
		s.mu.Unlock()
		return nil
	}

	id := s.ids.next()
	s.subscriptions.add(id, pendingRequest{
		sentAt: s.clock.Now(),
		topic:  topic,
		kind:   kind,
		qos:    qos,
	})
	s.updateMetrics()
	t := s.transport
	ctx := s.ctx
	gen := s.gen
	s.mu.Unlock()

	pt := packet.SUBSCRIBE
	if kind == requestUnsubscribe {
		pt = packet.UNSUBSCRIBE
	}
	err := s.send(ctx, t, pt, func(t Transport) error { return sendFn(t, id) })
	if err != nil {
		s.mu.Lock()
		if s.gen == gen {
			s.subscriptions.remove(id)
			s.updateMetrics()
		}
		s.mu.Unlock()
		return fmt.Errorf("failed to %v: %w", kind, err)
	}
	return nil
}

// OnConnect registers a listener called when the broker accepts the connection.
func (s *Session) OnConnect(fn func()) ListenerID {
	return s.notifier.add(eventKindConnect, fn)
}

// OnConnectionLost registers a listener called when the connection fails, is refused by the
// broker or is lost. The error is a *ConnAckError when the broker refused the connection.
func (s *Session) OnConnectionLost(fn func(err error)) ListenerID {
	return s.notifier.add(eventKindConnectionLost, fn)
}

// OnDisconnect registers a listener called when the connection is closed without being lost.
func (s *Session) OnDisconnect(fn func()) ListenerID {
	return s.notifier.add(eventKindDisconnect, fn)
}

// OnSubscribe registers a listener called when the broker acknowledges a subscription. The qos is
// the QoS granted by the broker, or SubscriptionFailed.
func (s *Session) OnSubscribe(fn func(topic string, qos packet.QoS)) ListenerID {
	return s.notifier.add(eventKindSubscribe, fn)
}

// OnUnsubscribe registers a listener called when the broker acknowledges an unsubscription. The
// id is the packet identifier acknowledged by the broker.
func (s *Session) OnUnsubscribe(fn func(topic string, id packet.ID)) ListenerID {
	return s.notifier.add(eventKindUnsubscribe, fn)
}

// OnMessage registers a listener called for every application message delivered by the broker.
func (s *Session) OnMessage(fn func(msg Message)) ListenerID {
	return s.notifier.add(eventKindMessage, fn)
}

// OnPublishComplete registers a listener called when the broker completes the delivery of a
// message published with QoS 1 (PUBACK) or QoS 2 (PUBCOMP). The id is the packet identifier of
// the PUBLISH.
func (s *Session) OnPublishComplete(fn func(id packet.ID)) ListenerID {
	return s.notifier.add(eventKindPublishComplete, fn)
}

// RemoveListener removes the listener. It returns false when no listener has the id.
func (s *Session) RemoveListener(id ListenerID) bool {
	return s.notifier.remove(id)
}

// connHandler binds the events of one connection to the Session. Events of a connection which has
// been replaced or already closed are ignored.
type connHandler struct {
	session *Session
	gen     uint64
}

// HandlePacket handles a packet received from the broker.
func (h *connHandler) HandlePacket(p packet.Packet) {
	h.session.handlePacket(h.gen, p)
}

// HandleSent handles a packet written into the connection.
func (h *connHandler) HandleSent(p packet.Packet) {
	h.session.packetSent(p)
}

// HandleClose handles the close of the connection.
func (h *connHandler) HandleClose(err error) {
	h.session.handleClose(h.gen, err)
}

// effects are the packets to send and the listeners to call, in order, once the session lock has
// been released.
type effects []func()

func (e effects) run() {
	for _, fn := range e {
		fn()
	}
}

func (s *Session) handlePacket(gen uint64, p packet.Packet) {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}

	s.metrics.packetReceived(p)
	s.log.Debug(s.ctx, "Received packet", packetAttrs(p)...)

	st := s.state()
	if st != StateConnecting && st != StateConnected {
		s.mu.Unlock()
		return
	}

	var e effects
	switch pkt := p.(type) {
	case *packet.ConnAck:
		e = s.handleConnAck(pkt)
	case *packet.Publish:
		e = s.handlePublish(pkt)
	case *packet.PubRel:
		e = s.handlePubRel(pkt)
	case *packet.PubRec:
		e = s.handlePubRec(pkt)
	case *packet.PubAck:
		e = s.handlePublishComplete(pkt.PacketID)
	case *packet.PubComp:
		e = s.handlePublishComplete(pkt.PacketID)
	case *packet.SubAck:
		e = s.handleSubAck(pkt)
	case *packet.UnsubAck:
		e = s.handleUnsubAck(pkt)
	case *packet.PingResp:
		s.handlePingResp()
	default:
		s.log.Warn(s.ctx, "Unexpected packet received", logger.Str("packet_type", p.Type().String()))
	}
	s.mu.Unlock()

	e.run()
}

func (s *Session) handleConnAck(pkt *packet.ConnAck) effects {
	if s.state() != StateConnecting {
		s.log.Warn(s.ctx, "Unexpected CONNACK received", logger.Stringer("state", s.state()))
		return nil
	}

	if pkt.ReturnCode != packet.ReturnCodeConnectionAccepted {
		err := &ConnAckError{ReturnCode: pkt.ReturnCode}
		s.log.Warn(s.ctx, "Connection refused by broker", logger.Err(err))
		s.fire(eventRejected)
		s.reset()

		t := s.transport
		return effects{
			s.metrics.lost,
			func() { s.notifier.connectionLost(err) },
			func() { _ = t.Close(err) },
		}
	}

	s.fire(eventAccepted)
	gen := s.gen
	s.watchdog.start(s.keepAliveDuration(), func(runID uint64) { s.keepAliveTick(gen, runID) })
	s.log.Info(s.ctx, "Connected to broker", logger.Bool("session_present", pkt.SessionPresent))

	return effects{s.metrics.connected, s.notifier.connect}
}

func (s *Session) handlePublish(pkt *packet.Publish) effects {
	s.watchdog.received()
	msg, a := s.delivery.inbound(pkt)
	s.updateMetrics()

	var e effects
	if msg != nil {
		e = append(e, s.deliver(*msg))
	}
	if a != nil {
		e = append(e, s.acknowledge(a))
	}
	return e
}

func (s *Session) handlePubRel(pkt *packet.PubRel) effects {
	s.watchdog.received()
	msg, comp, ok := s.delivery.release(pkt.PacketID)
	if !ok {
		s.log.Warn(s.ctx, "Received PUBREL with unknown packet ID",
			logger.Uint16("packet_id", uint16(pkt.PacketID)),
		)
		return nil
	}

	s.updateMetrics()
	return effects{s.deliver(*msg), s.acknowledge(comp)}
}

func (s *Session) handlePubRec(pkt *packet.PubRec) effects {
	s.watchdog.received()
	return effects{s.acknowledge(s.delivery.received(pkt.PacketID))}
}

func (s *Session) handlePublishComplete(id packet.ID) effects {
	s.watchdog.received()
	return effects{func() { s.notifier.publishComplete(id) }}
}

func (s *Session) handleSubAck(pkt *packet.SubAck) effects {
	s.watchdog.received()
	req, ok := s.subscriptions.ack(pkt.PacketID, requestSubscribe)
	if !ok {
		s.log.Warn(s.ctx, "Received SUBACK with unknown packet ID",
			logger.Uint16("packet_id", uint16(pkt.PacketID)),
		)
		return nil
	}

	granted := SubscriptionFailed
	if len(pkt.GrantedQoS) > 0 {
		granted = packet.QoS(pkt.GrantedQoS[0])
	}

	s.metrics.recordSubscribeLatency(req.kind, s.clock.Now().Sub(req.sentAt))
	s.updateMetrics()
	s.log.Info(s.ctx, "Subscribed to topic",
		logger.Str("topic", req.topic),
		logger.Uint8("qos", uint8(granted)),
	)

	return effects{func() { s.notifier.subscribe(req.topic, granted) }}
}

func (s *Session) handleUnsubAck(pkt *packet.UnsubAck) effects {
	s.watchdog.received()
	req, ok := s.subscriptions.ack(pkt.PacketID, requestUnsubscribe)
	if !ok {
		s.log.Warn(s.ctx, "Received UNSUBACK with unknown packet ID",
			logger.Uint16("packet_id", uint16(pkt.PacketID)),
		)
		return nil
	}

	s.metrics.recordSubscribeLatency(req.kind, s.clock.Now().Sub(req.sentAt))
	s.updateMetrics()
	s.log.Info(s.ctx, "Unsubscribed from topic", logger.Str("topic", req.topic))

	id := pkt.PacketID
	return effects{func() { s.notifier.unsubscribe(req.topic, id) }}
}

func (s *Session) handlePingResp() {
	rtt := s.watchdog.pong()
	if rtt > 0 {
		s.metrics.recordPingLatency(rtt)
	}
}

func (s *Session) handleClose(gen uint64, err error) {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}

	s.gen++
	s.transport = nil

	var e effects
	switch s.state() {
	case StateConnected:
		if err == nil {
			err = ErrConnectionLost
		}
		s.log.Warn(s.ctx, "Connection lost", logger.Err(err))
		s.fire(eventLose)
		s.watchdog.stop()
		s.reset()
		e = effects{s.metrics.lost, func() { s.notifier.connectionLost(err) }}
	case StateConnecting:
		s.fire(eventClose)
		s.reset()
		e = effects{s.notifier.disconnect}
	default:
		e = effects{s.notifier.disconnect}
	}
	s.log.Info(s.ctx, "Connection closed")
	s.mu.Unlock()

	e.run()
}

func (s *Session) keepAliveTick(gen, runID uint64) {
	s.mu.Lock()
	if s.gen != gen || !s.watchdog.running(runID) || s.state() != StateConnected {
		s.mu.Unlock()
		return
	}

	var e effects
	switch s.watchdog.check() {
	case watchdogPing:
		e = effects{s.reply(packet.PINGREQ, Transport.PingReq)}
	case watchdogDead:
		s.log.Warn(s.ctx, "No PINGRESP received within the keep alive",
			logger.Uint16("keep_alive", s.keepAlive),
		)
		t := s.transport
		e = effects{func() { _ = t.Close(ErrKeepAliveTimeout) }}
	}
	s.mu.Unlock()

	e.run()
}

// deliver returns the effect which delivers the message to the listeners. It must be called with
// the session lock held.
func (s *Session) deliver(msg Message) func() {
	return func() {
		s.metrics.messageReceived(msg.QoS)
		s.notifier.message(msg)
	}
}

// reply returns the effect which sends a packet through the current transport. It must be
// called with the session lock held.
func (s *Session) reply(pt packet.Type, fn func(t Transport) error) func() {
	t := s.transport
	ctx := s.ctx
	return func() { _ = s.send(ctx, t, pt, fn) }
}

// acknowledge returns the effect which sends the acknowledgment of a delivery step. It must be
// called with the session lock held.
func (s *Session) acknowledge(a *ack) func() {
	return s.reply(a.kind, a.send)
}

// send sends a packet of type pt with fn. The watchdog and the metrics are updated by packetSent
// once the transport has written the packet.
func (s *Session) send(ctx context.Context, t Transport, pt packet.Type,
	fn func(t Transport) error) error {
	if t == nil {
		return ErrConnectionLost
	}

	err := fn(t)
	if err != nil {
		s.log.Warn(ctx, "Failed to send packet",
			logger.Str("packet_type", pt.String()),
			logger.Err(err),
		)
		return err
	}
	return nil
}

// packetSent records a packet written into the connection. It must be called without the session
// lock held.
func (s *Session) packetSent(p packet.Packet) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	s.watchdog.sent()
	s.metrics.packetSent(p)
	s.log.Debug(ctx, "Sent packet", packetAttrs(p)...)
}

// fire triggers the lifecycle event. It must be called with the session lock held.
func (s *Session) fire(event string) {
	err := s.lifecycle.Event(context.Background(), event)
	if err != nil {
		s.log.Error(s.ctx, "Failed to change session state",
			logger.Str("event", event),
			logger.Err(err),
		)
	}
}

func (s *Session) stateChanged(src, dst State, event string) {
	s.log.Debug(s.ctx, "Session state changed",
		logger.Stringer("from", src),
		logger.Stringer("to", dst),
		logger.Str("event", event),
	)
}

func (s *Session) state() State {
	return State(s.lifecycle.Current())
}

// reset clears the pending subscriptions and the in-flight messages. It must be called with the
// session lock held.
func (s *Session) reset() {
	s.subscriptions.reset()
	s.delivery.reset()
	s.updateMetrics()
}

func (s *Session) updateMetrics() {
	s.metrics.sessionState(s.delivery.len(), s.subscriptions.len())
}

func (s *Session) keepAliveDuration() time.Duration {
	return time.Duration(s.keepAlive) * time.Second
}

func packetAttrs(p packet.Packet) []logger.Attr {
	attrs := []logger.Attr{logger.Str("packet_type", p.Type().String())}

	switch pkt := p.(type) {
	case *packet.Publish:
		attrs = append(attrs,
			logger.Uint16("packet_id", uint16(pkt.PacketID)),
			logger.Uint8("qos", uint8(pkt.QoS)),
			logger.Str("topic", pkt.TopicName),
		)
	case *packet.Subscribe:
		attrs = append(attrs, logger.Uint16("packet_id", uint16(pkt.PacketID)))
		if len(pkt.Topics) > 0 {
			attrs = append(attrs,
				logger.Uint8("qos", uint8(pkt.Topics[0].QoS)),
				logger.Str("topic", pkt.Topics[0].Name),
			)
		}
	case *packet.Unsubscribe:
		attrs = append(attrs, logger.Uint16("packet_id", uint16(pkt.PacketID)))
		if len(pkt.Topics) > 0 {
			attrs = append(attrs, logger.Str("topic", pkt.Topics[0]))
		}
	case *packet.PubAck:
		attrs = append(attrs, logger.Uint16("packet_id", uint16(pkt.PacketID)))
	case *packet.PubRec:
		attrs = append(attrs, logger.Uint16("packet_id", uint16(pkt.PacketID)))
	case *packet.PubRel:
		attrs = append(attrs, logger.Uint16("packet_id", uint16(pkt.PacketID)))
	case *packet.PubComp:
		attrs = append(attrs, logger.Uint16("packet_id", uint16(pkt.PacketID)))
	case *packet.SubAck:
		attrs = append(attrs, logger.Uint16("packet_id", uint16(pkt.PacketID)))
	case *packet.UnsubAck:
		attrs = append(attrs, logger.Uint16("packet_id", uint16(pkt.PacketID)))
	case *packet.ConnAck:
		attrs = append(attrs, logger.Stringer("return_code", pkt.ReturnCode))
	}
	return attrs
}
