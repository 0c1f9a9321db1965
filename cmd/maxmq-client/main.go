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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gsalomao/maxmq-client/internal/cli"
	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	undo, _ := maxprocs.Set(maxprocs.Logger(func(string, ...any) {}))
	defer undo()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := cli.New("maxmq-client", "MaxMQ Client is a command line MQTT 3.1 client for the MaxMQ broker.")

	err := c.Run(ctx, os.Stdout, os.Args[1:])
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		stop()
		undo()
		os.Exit(1)
	}
}
