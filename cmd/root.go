/*
Copyright © 2024 Zheng 'Vic' Luo vicluo96@gmail.com

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
package cmd

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/adrg/xdg"
	"github.com/phuslu/log"

	"github.com/caldera-oss/logxray/internal"
)

var cfgFile string

func initFromGlobalConfig() {
	log.DefaultLogger = log.Logger{
		Level:      log.ParseLevel(viper.GetString("loglevel")),
		Caller:     1,
		TimeField:  "time",
		TimeFormat: "2006-01-02 15:04:05",
		Writer: &log.ConsoleWriter{
			ColorOutput: true,
		},
	}

	cacheDir := viper.GetString("cache_dir")
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		log.Fatal().Msgf("error creating cache directory: %v", err)
	}

	if cpuProfile, err := rootCmd.PersistentFlags().GetString("cpuprofile"); err != nil {
		log.Fatal().Msgf("error parsing cpuprofile flag: %v", err)
	} else if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			log.Fatal().Msgf("error creating cpu profile file: %s", err)
		}
		pprof.StartCPUProfile(f)
	}
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "logxray {manifest | scan | match} [flags...]",
	Short: "Link emitted log lines back to the source statement that produced them",
	Long: `A command-line tool that maps log lines back to the exact source statement
that produced them, across Rust, Java and C++ source trees, recovering the
interpolated variable values along the way.

'logxray manifest new' writes a starter project manifest.
'logxray scan'         discovers and extracts log call sites from the manifest's roots.
'logxray match'        resolves log lines read from stdin against the extracted call sites.

Some flags (e.g., cache_dir, loglevel, source_column_width) can be set via
$XDG_CONFIG_HOME/logxray/logxray.yaml or ~/logxray.yaml.

Set 'CLICOLOR_FORCE' or 'NO_COLOR' to force color output regardless of the terminal.
`,

	Run: func(cmd *cobra.Command, args []string) {
		println("Please specify a subcommand for logxray operations.")
		os.Exit(1)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/logxray.yaml)")
	rootCmd.PersistentFlags().String("cache_dir", "", "cache directory (default is $XDG_CACHE_HOME/logxray)")
	viper.BindPFlag("cache_dir", rootCmd.PersistentFlags().Lookup("cache_dir"))
	rootCmd.PersistentFlags().String("loglevel", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	viper.BindPFlag("loglevel", rootCmd.PersistentFlags().Lookup("loglevel"))
	rootCmd.PersistentFlags().String("manifest", internal.ManifestFileName, "project manifest path")
	viper.BindPFlag("manifest", rootCmd.PersistentFlags().Lookup("manifest"))

	rootCmd.PersistentFlags().String("cpuprofile", "", "write cpu profile to file")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetDefault("cache_dir", xdg.CacheHome+"/logxray")
	viper.SetDefault("loglevel", "warn")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(xdg.ConfigHome + "/logxray")
		viper.SetConfigType("yaml")
		viper.SetConfigName("logxray")
	}
	viper.SetEnvPrefix("LOGXRAY")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	initFromGlobalConfig()
}
