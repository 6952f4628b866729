// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"os"

	"vizcore/internal/config"
	"vizcore/internal/quality"
	"vizcore/pkg/build"

	"github.com/spf13/cobra"
)

// ParseArgs builds the runtime configuration from the config file and
// command line. Flags override file values, which override defaults.
func ParseArgs() (*config.Config, error) {
	buildInfo := build.GetBuildFlags()

	var (
		configPath string
		verbose    bool
	)
	var options *config.Config

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("quality") {
				cfg.Engine.Quality, _ = flags.GetString("quality")
			}
			if flags.Changed("bars") {
				cfg.Engine.BarCount, _ = flags.GetInt("bars")
			}
			if flags.Changed("particles") {
				cfg.Engine.ParticleCapacity, _ = flags.GetInt("particles")
			}
			if flags.Changed("input") {
				cfg.Source.InputFile, _ = flags.GetString("input")
			}
			if flags.Changed("window-size") {
				cfg.Source.WindowSize, _ = flags.GetInt("window-size")
			}
			if flags.Changed("sample-rate") {
				cfg.Source.SampleRate, _ = flags.GetFloat64("sample-rate")
			}
			if flags.Changed("websocket") {
				cfg.Transport.WebSocketEnabled, _ = flags.GetBool("websocket")
			}
			if flags.Changed("ws-port") {
				cfg.Transport.WebSocketPort, _ = flags.GetString("ws-port")
			}
			if flags.Changed("udp") {
				cfg.Transport.UDPEnabled, _ = flags.GetBool("udp")
			}
			if flags.Changed("udp-target") {
				cfg.Transport.UDPTargetAddress, _ = flags.GetString("udp-target")
			}
			if verbose {
				cfg.LogLevel = "debug"
			}

			if err := cfg.Validate(); err != nil {
				return err
			}
			options = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// Profiles command
	profilesCmd := &cobra.Command{
		Use:   "profiles",
		Short: "List the built-in quality profiles",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = "profiles"
		},
	}
	rootCmd.AddCommand(profilesCmd)

	// Engine Configuration
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "f", "",
		"Path to a YAML config file. Default is config.yaml if present.")
	rootCmd.PersistentFlags().StringP("quality", "q", config.DefaultQuality,
		"Quality tier (low, medium, high)")
	rootCmd.PersistentFlags().Int("bars", 0,
		"Number of spectrum bars. 0 uses the tier's default.")
	rootCmd.PersistentFlags().Int("particles", 0,
		"Particle ring capacity. 0 uses the tier's default.")

	// Source Configuration
	rootCmd.PersistentFlags().StringP("input", "i", "",
		"WAV file to analyze. Omit to use the synthetic tone source.")
	rootCmd.PersistentFlags().Int("window-size", config.DefaultWindowSize,
		"Samples per analysis window (rounded up to a power of two)")
	rootCmd.PersistentFlags().Float64P("sample-rate", "s", config.DefaultSampleRate,
		"Sample rate for the synthetic source, measured in Hertz (Hz)")

	// Transport Configuration
	rootCmd.PersistentFlags().Bool("websocket", false,
		"Broadcast frames over WebSocket")
	rootCmd.PersistentFlags().String("ws-port", config.DefaultWebSocketPort,
		"WebSocket listen port")
	rootCmd.PersistentFlags().Bool("udp", false,
		"Publish binary frame packets over UDP")
	rootCmd.PersistentFlags().String("udp-target", config.DefaultUDPTarget,
		"UDP target address (host:port)")

	// Debug Configuration
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Show verbose output")

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return options, nil
}

// PrintProfiles writes the built-in quality tiers to stdout.
func PrintProfiles() {
	for _, tier := range quality.Tiers() {
		p := quality.ForTier(tier)
		fmt.Printf("%-8s bars=%-4d passes=%d temporal=%.2f particles=%d simd=%t\n",
			tier, p.BarCount, p.SmoothingPasses, p.TemporalFactor, p.ParticleCapacity, p.SIMDEnabled)
	}
}
