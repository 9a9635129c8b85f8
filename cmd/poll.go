/*
Copyright 2025 Tradepost Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tradepost-hq/tradepost/config"
	"github.com/tradepost-hq/tradepost/model"
	"github.com/tradepost-hq/tradepost/poller"
)

// pollCommands defines the "poll" command. It runs the dashboard-side poller
// against a tradepost server, logging every change it dispatches. The poll
// watermarks survive restarts through the configured state file.
func pollCommands(_ *tradepostInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "start the tradepost change poller",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.Fetch()
			if err != nil {
				log.Fatal(err)
			}

			serverURL := cfg.Poller.ServerURL
			if serverURL == "" {
				serverURL = "http://localhost:" + cfg.Server.Port
			}

			client := poller.NewClient(serverURL, cfg.Server.SecretKey, 0)
			store := poller.NewWatermarkStore(cfg.Poller.StateFile)

			p := poller.New(poller.Config{
				Fetcher: client,
				Store:   store,
				Handler: func(entity string, record *model.ChangeRecord) error {
					logrus.Infof(" [*] %s %s %s (%s)", record.ChangeType, entity, record.EntityID, record.Status)
					return nil
				},
				Interval: time.Duration(cfg.Poller.IntervalSec) * time.Second,
			})

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Printf("Polling %s every %ds", serverURL, cfg.Poller.IntervalSec)
			p.Start(ctx)
		},
	}

	return cmd
}
