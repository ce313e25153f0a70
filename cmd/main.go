/*
Copyright 2025 Finrecon Authors.

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

	"github.com/raynanbulhoes22/finrecon"
	"github.com/raynanbulhoes22/finrecon/config"
	"github.com/raynanbulhoes22/finrecon/database"
	"github.com/raynanbulhoes22/finrecon/internal/notification"
)

// Finrecon wraps the root Cobra command of the CLI.
type Finrecon struct {
	cmd *cobra.Command
}

// finreconInstance holds the engine instance and its configuration for use
// by the subcommands.
type finreconInstance struct {
	engine *finrecon.Finrecon
	cnf    *config.Configuration
}

func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads the configuration and initializes the engine before any
// subcommand executes.
func preRun(app *finreconInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig("finrecon.json")
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		engine, err := setupEngine(cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.engine = engine
		app.cnf = cnf

		return nil
	}
}

func setupEngine(cfg *config.Configuration) (*finrecon.Finrecon, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}

	engine, err := finrecon.NewFinrecon(db)
	if err != nil {
		return nil, fmt.Errorf("error creating finrecon: %v", err)
	}
	return engine, nil
}

// NewCLI builds the command-line interface for the reconciliation engine.
func NewCLI() *Finrecon {
	var configFile string
	b := &finreconInstance{}

	var rootCmd = &cobra.Command{
		Use:   "finrecon",
		Short: "Financial event reconciliation engine",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./finrecon.json", "Configuration file for finrecon")

	rootCmd.PersistentPreRunE = preRun(b)

	rootCmd.AddCommand(serverCommands(b))
	rootCmd.AddCommand(workerCommands(b))
	rootCmd.AddCommand(migrateCommands(b))

	return &Finrecon{cmd: rootCmd}
}

func (w Finrecon) executeCLI() {
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
