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
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gsalomao/maxmq-client/internal/logger"
	"github.com/gsalomao/maxmq-client/internal/mqtt"
	"github.com/gsalomao/maxmq-client/internal/mqtt/packet"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"golang.org/x/time/rate"
)

// sequencePlaceholder is replaced, in the published messages, by the message sequence number.
const sequencePlaceholder = "{n}"

// ackTimeout is how long the publish command waits for the acknowledgments after the last message.
const ackTimeout = 10 * time.Second

var errAckTimeout = errors.New("acknowledgments not received")

type publishOptions struct {
	topic   string
	message string
	qos     packet.QoS
	retain  bool
	count   int
	rate    float64
}

func newCommandPublish() *cobra.Command {
	var (
		opts publishOptions
		qos  int
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish messages",
		Long: "Connect to the broker, publish the message the given number of times and disconnect. " +
			"The " + sequencePlaceholder + " placeholder in the message is replaced by the " +
			"sequence number of each message.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if qos < 0 || !packet.QoS(qos).Valid() {
				return fmt.Errorf("%w: %d", mqtt.ErrInvalidQoS, qos)
			}
			if opts.count < 1 {
				return errors.New("count must be greater than 0")
			}
			if opts.rate < 0 {
				return errors.New("rate must not be negative")
			}
			opts.qos = packet.QoS(qos)

			c, err := newClient(cmd.Flags(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			return c.run(cmd.Context(), func(ctx context.Context) error {
				return c.publish(ctx, opts)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.topic, "topic", "t", "", "Topic name to publish to")
	cmd.Flags().StringVarP(&opts.message, "message", "m", "", "Message to publish")
	cmd.Flags().IntVarP(&qos, "qos", "q", 0, "QoS level")
	cmd.Flags().BoolVarP(&opts.retain, "retain", "r", false, "Retain the message")
	cmd.Flags().IntVarP(&opts.count, "count", "n", 1, "Number of messages to publish")
	cmd.Flags().Float64Var(&opts.rate, "rate", 0, "Messages per second (0 publishes without pacing)")
	addClientFlags(cmd.Flags())
	_ = cmd.MarkFlagRequired("topic")

	return cmd
}

func newLimiter(r float64) *rate.Limiter {
	if r <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(r), 1)
}

// publish connects, publishes the messages paced by the configured rate, waits for the broker to
// acknowledge the QoS 1 and QoS 2 messages and disconnects.
func (c *client) publish(ctx context.Context, opts publishOptions) error {
	err := c.connect(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	completed := make(chan struct{}, opts.count)
	lost := make(chan error, 1)
	ids := []mqtt.ListenerID{
		c.session.OnPublishComplete(func(packet.ID) {
			select {
			case completed <- struct{}{}:
			default:
			}
		}),
		c.session.OnConnectionLost(func(err error) {
			select {
			case lost <- err:
			default:
			}
		}),
	}
	defer func() {
		for _, id := range ids {
			c.session.RemoveListener(id)
		}
	}()

	limiter := newLimiter(opts.rate)
	var published int

	for i := 1; i <= opts.count; i++ {
		err = limiter.Wait(ctx)
		if err != nil {
			break
		}

		// Session.Publish does nothing once the connection has been lost.
		if !c.session.IsConnected() {
			err = connectionLostCause(lost)
			break
		}

		msg := strings.ReplaceAll(opts.message, sequencePlaceholder, strconv.Itoa(i))
		err = c.session.Publish(opts.topic, msg, opts.qos, opts.retain)
		if err != nil {
			break
		}
		published++
	}

	acknowledged := published
	if opts.qos > packet.QoS0 {
		if err == nil {
			acknowledged, err = waitCompleted(ctx, completed, lost, published)
		} else {
			acknowledged = len(completed)
		}
	}

	c.log.Info(ctx, "Messages published",
		logger.Str("topic", opts.topic),
		logger.Uint8("qos", uint8(opts.qos)),
		logger.Int("count", published),
		logger.Int("acknowledged", acknowledged),
	)

	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return multierr.Combine(err, c.session.Disconnect())
}

// waitCompleted waits until the broker completes the delivery of n messages. It returns how many
// deliveries were completed.
func waitCompleted(ctx context.Context, completed <-chan struct{}, lost <-chan error, n int) (
	int, error) {
	timeout := time.NewTimer(ackTimeout)
	defer timeout.Stop()

	var done int
	for done < n {
		select {
		case <-completed:
			done++
		case err := <-lost:
			return done, err
		case <-timeout.C:
			return done, fmt.Errorf("%w: %d of %d messages acknowledged", errAckTimeout, done, n)
		case <-ctx.Done():
			return done, ctx.Err()
		}
	}
	return done, nil
}

func connectionLostCause(lost <-chan error) error {
	select {
	case err := <-lost:
		if err != nil {
			return err
		}
	default:
	}
	return mqtt.ErrConnectionLost
}
