/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/caldera-oss/logxray/internal"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Discover source roots and extract log call sites",
	Long:  "Discover source files under the manifest's roots and extract their log call sites, reporting a summary without matching anything.",
	Run: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		matcher, err := buildMatcherFromManifest(viper.GetString("manifest"), verbose)
		if err != nil {
			log.Fatal().Msgf("error scanning: %v", err)
		}

		total := 0
		matcher.Visit(func(path string, n int) {
			total += n
			fmt.Printf("%s: %d log statement(s)\n", path, n)
		})
		fmt.Printf("Total: %d log statement(s)\n", total)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().Bool("verbose", false, "show progress while scanning")
}

// buildMatcherFromManifest is shared by scan and match: it reads the
// manifest, registers every root, and runs one discover+extract pass.
func buildMatcherFromManifest(manifestPath string, verbose bool) (*matcherSummary, error) {
	m, err := internal.LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	progress := internal.NewProgressTracker(verbose)
	lm := internal.NewLogMatcher(progress)
	if cacheDir := viper.GetString("cache_dir"); cacheDir != "" {
		cache, err := internal.OpenParseCache(filepath.Join(cacheDir, "parse_cache.db"))
		if err != nil {
			log.Warn().Err(err).Msg("failed to open parse cache, extraction will re-parse every file")
		} else {
			lm.SetParseCache(cache)
		}
	}
	for _, root := range m.Roots {
		ignore := internal.NewIgnoreSet(append(append([]string{}, internal.DefaultIgnoreGlobs...), root.Ignore...))
		if err := lm.AddRoot(root.Path, ignore); err != nil {
			return nil, err
		}
	}

	events, err := lm.DiscoverSources()
	if err != nil {
		return nil, err
	}
	if err := lm.ExtractLogStatements(events); err != nil {
		return nil, err
	}

	format, err := m.LogFormat()
	if err != nil {
		return nil, err
	}

	return &matcherSummary{matcher: lm, format: format, manifest: m}, nil
}

// matcherSummary bundles a populated LogMatcher with the bits scan/match
// need afterward, so the manifest only needs parsing once per run.
type matcherSummary struct {
	matcher  *internal.LogMatcher
	format   *internal.LogFormat
	manifest *internal.Manifest
}

// Visit reports every tracked file's path and statement count across all
// registered roots.
func (s *matcherSummary) Visit(fn func(path string, n int)) {
	s.matcher.VisitFiles(fn)
}
