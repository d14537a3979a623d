package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/papermeta/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set global configuration values",
	Long: `Get or set values in the global config file
($XDG_CONFIG_HOME/pmeta/config.yml).

Usage:
  pmeta config                              # Show all config
  pmeta config mailto                       # Get specific value
  pmeta config mailto me@example.org        # Set value

Keys:
  library_path          Default paper library
  mailto                Contact address for the CrossRef/OpenAlex polite pools
  crossref_url          CrossRef API base URL
  openalex_url          OpenAlex API base URL
  lookup_timeout        Per-lookup timeout (e.g. 8s)
  similarity_threshold  Minimum title similarity for OpenAlex matches (0-1)
  min_title_length      Shortest PDF title that triggers a title search
  cache                 Cache lookups in the library (true/false)
  log_level             debug, info, warn or error

PMETA_MAILTO, PMETA_LIBRARY and PMETA_LOG_LEVEL override the file.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// UpdateResponse is the response for config set commands.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	// No args: show effective config
	if len(args) == 0 {
		cfg := mustLoadConfig()
		if humanOutput {
			for _, k := range config.Keys() {
				v, _ := cfg.Get(k)
				fmt.Printf("%s %s\n", padString(k+":", 22), v)
			}
		} else {
			outputJSON(cfg)
		}
		return nil
	}

	key := args[0]

	// One arg: get specific value
	if len(args) == 1 {
		cfg := mustLoadConfig()
		v, err := cfg.Get(key)
		if err != nil {
			exitWithError(ExitError, "%v (valid: %v)", err, config.Keys())
		}
		if humanOutput {
			fmt.Println(v)
		} else {
			outputJSON(map[string]string{key: v})
		}
		return nil
	}

	// Two args: set value in the file, without env overrides
	cfg, err := config.ReadGlobalFile()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if err := cfg.Set(key, args[1]); err != nil {
		code := ExitDataError
		if errors.Is(err, config.ErrUnknownKey) {
			code = ExitError
		}
		exitWithError(code, "%v", err)
	}
	if err := config.SaveGlobalConfig(cfg); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	v, _ := cfg.Get(key)
	if humanOutput {
		fmt.Printf("Set %s = %s\n", key, v)
	} else {
		outputJSON(UpdateResponse{Status: "updated", Key: key, Value: v})
	}
	return nil
}
