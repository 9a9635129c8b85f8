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
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tradepost-hq/tradepost"
	"github.com/tradepost-hq/tradepost/config"
	"github.com/tradepost-hq/tradepost/database"
	"github.com/tradepost-hq/tradepost/internal/notification"
)

// Tradepost represents the CLI application, encapsulating the root Cobra command.
type Tradepost struct {
	cmd *cobra.Command
}

// tradepostInstance holds the runtime instance and configuration shared by
// every subcommand.
type tradepostInstance struct {
	tradepost *tradepost.Tradepost
	cnf       *config.Configuration
}

// recoverPanic handles any panics during program execution and logs the error.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads configuration and initializes the Tradepost instance before
// running any command.
func preRun(app *tradepostInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig("tradepost.json")
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		newTradepost, err := setupTradepost(cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.tradepost = newTradepost
		app.cnf = cnf

		return nil
	}
}

// setupTradepost connects to the data source and builds a Tradepost instance
// from the provided configuration.
func setupTradepost(cfg *config.Configuration) (*tradepost.Tradepost, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}

	newTradepost, err := tradepost.NewTradepost(db)
	if err != nil {
		return nil, fmt.Errorf("error creating tradepost: %v", err)
	}
	return newTradepost, nil
}

// NewCLI creates the command-line interface for the Tradepost application.
func NewCLI() *Tradepost {
	var configFile string
	b := &tradepostInstance{}

	var rootCmd = &cobra.Command{
		Use:   "tradepost",
		Short: "Marketplace admin dashboard core",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./tradepost.json", "Configuration file for tradepost")

	rootCmd.PersistentPreRunE = preRun(b)

	rootCmd.AddCommand(serverCommands(b))
	rootCmd.AddCommand(workerCommands(b))
	rootCmd.AddCommand(pollCommands(b))
	rootCmd.AddCommand(migrateCommands(b))

	return &Tradepost{cmd: rootCmd}
}

// executeCLI runs the root command, handling any errors that occur during
// execution.
func (w Tradepost) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
