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
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/gsalomao/maxmq-client/internal/logger"
	"github.com/gsalomao/maxmq-client/internal/mqtt"
	"github.com/gsalomao/maxmq-client/internal/mqtt/packet"
	"github.com/spf13/cobra"
)

func newCommandSubscribe() *cobra.Command {
	var (
		topics  []string
		qos     int
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Subscribe to topics and print the messages",
		Long: "Connect to the broker, subscribe to the given topic filters and print every message " +
			"received until interrupted.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if qos < 0 || !packet.QoS(qos).Valid() {
				return fmt.Errorf("%w: %d", mqtt.ErrInvalidQoS, qos)
			}

			c, err := newClient(cmd.Flags(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			p := newMessagePrinter(cmd.OutOrStdout(), noColor)
			c.session.OnMessage(p.print)

			return c.run(cmd.Context(), func(ctx context.Context) error {
				return c.subscribe(ctx, topics, packet.QoS(qos))
			})
		},
	}

	cmd.Flags().StringArrayVarP(&topics, "topic", "t", nil, "Topic filter to subscribe to (repeatable)")
	cmd.Flags().IntVarP(&qos, "qos", "q", 0, "Requested QoS level")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Print messages without colors")
	addClientFlags(cmd.Flags())
	_ = cmd.MarkFlagRequired("topic")

	return cmd
}

// subscribe subscribes to the topics and blocks until the context is done or the connection is
// lost.
func (c *client) subscribe(ctx context.Context, topics []string, qos packet.QoS) error {
	lost := make(chan error, 1)
	c.session.OnConnectionLost(func(err error) {
		select {
		case lost <- err:
		default:
		}
	})
	c.session.OnSubscribe(func(topic string, granted packet.QoS) {
		if granted == mqtt.SubscriptionFailed {
			c.log.Warn(ctx, "Subscription refused by broker", logger.Str("topic", topic))
		}
	})

	err := c.connect(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("failed to connect: %w", err)
	}

	for _, topic := range topics {
		err = c.session.Subscribe(topic, qos)
		if err != nil {
			_ = c.session.Disconnect()
			return err
		}
	}

	select {
	case <-ctx.Done():
		return c.session.Disconnect()
	case err = <-lost:
		return fmt.Errorf("connection lost: %w", err)
	}
}

type messagePrinter struct {
	w     io.Writer
	topic *color.Color
	meta  *color.Color
	mu    sync.Mutex
}

func newMessagePrinter(w io.Writer, noColor bool) *messagePrinter {
	p := &messagePrinter{
		w:     w,
		topic: color.New(color.FgCyan, color.Bold),
		meta:  color.New(color.FgHiBlack),
	}

	if noColor {
		p.topic.DisableColor()
		p.meta.DisableColor()
	} else {
		p.topic.EnableColor()
		p.meta.EnableColor()
	}
	return p
}

func (p *messagePrinter) print(msg mqtt.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	flags := fmt.Sprintf("qos=%d", msg.QoS)
	if msg.Retain {
		flags += " retain"
	}
	if msg.Dup {
		flags += " dup"
	}

	_, _ = p.topic.Fprint(p.w, msg.Topic)
	_, _ = fmt.Fprintf(p.w, " %s %s\n", p.meta.Sprintf("[%s]", flags), msg.Payload)
}
