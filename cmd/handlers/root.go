/*
Copyright © 2025 Your Name

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
package handlers

import (
	"fmt"
	"os"

	"finhelp/internal/config"

	"github.com/spf13/cobra"
)

var cfgFile string

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "finhelp",
		Short: "Finhelp finds, extracts, and summarizes earnings call transcripts.",
		Long: `Finhelp is a CLI for earnings research. It discovers a company's
quarterly earnings call transcript on the web, extracts and validates the
content, and produces a structured financial summary. It also offers an
interactive finance chat that can load multiple earnings analyses as
conversation context.`,
	}

	// Initialize configuration
	cobra.OnInitialize(initConfig)

	// Add persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.finhelp.yaml)")

	// Add subcommands
	rootCmd.AddCommand(NewAnalyzeCmd())
	rootCmd.AddCommand(NewChatCmd())
	rootCmd.AddCommand(NewSessionsCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Load configuration using the centralized config module
	_, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Show which config file is being used (if any)
	if config.Get().App.ConfigFile != "" {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", config.Get().App.ConfigFile)
	}
}
