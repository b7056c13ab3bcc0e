/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/caldera-oss/logxray/internal"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Create and inspect the project manifest (check subcommands)",
	Long:  "Create and inspect the project manifest that lists source roots and the log pre-parser.",
	Run: func(cmd *cobra.Command, args []string) {
		println("Please specify a subcommand for manifest operations.")
		os.Exit(1)
	},
}

var manifestNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Write a starter manifest",
	Run: func(cmd *cobra.Command, args []string) {
		path := viper.GetString("manifest")
		if _, err := os.Stat(path); err == nil {
			log.Fatal().Msgf("manifest already exists at %s", path)
		}
		if err := internal.SampleManifest().Save(path); err != nil {
			log.Fatal().Msgf("error writing manifest: %v", err)
		}
		fmt.Printf("Manifest created at %s\n", path)
	},
}

var manifestCatCmd = &cobra.Command{
	Use:   "cat",
	Short: "Print the resolved manifest",
	Run: func(cmd *cobra.Command, args []string) {
		m, err := internal.LoadManifest(viper.GetString("manifest"))
		if err != nil {
			log.Fatal().Msgf("error reading manifest: %v", err)
		}
		for _, r := range m.Roots {
			fmt.Printf("root: %s (ignore: %v)\n", r.Path, r.Ignore)
		}
		if m.LogLinePrefix != "" {
			fmt.Printf("log_line_prefix: %s\n", m.LogLinePrefix)
		}
	},
}

func init() {
	rootCmd.AddCommand(manifestCmd)
	manifestCmd.AddCommand(manifestNewCmd)
	manifestCmd.AddCommand(manifestCatCmd)
}
