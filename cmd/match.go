/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/atomic"

	"github.com/caldera-oss/logxray/internal"
)

var matchCmd = &cobra.Command{
	Use:   "match [file]",
	Short: "Resolve log lines to their source statements",
	Long: `Read log lines (from a file, or stdin if no file is given), resolve each one
to the source statement that produced it, and print an annotated line.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		summary, err := buildMatcherFromManifest(viper.GetString("manifest"), verbose)
		if err != nil {
			log.Fatal().Msgf("error building matcher: %v", err)
		}

		opts := internal.RenderOptions{
			SourceColumnWidth: viper.GetInt("source_column_width"),
			LinkTemplate:      viper.GetString("link_template"),
			Highlight:         !viper.GetBool("skip_print_argument_expr"),
		}

		type inputLine struct {
			Line    int
			Content string
		}

		currLine := atomic.NewInt64(0)
		inputQueue := internal.NewSafeQueue[inputLine]()
		completionQueue := internal.NewOrderPreservingCompletionQueue[string]()
		completionChan := completionQueue.GetCompletionChan()
		terminationChan := make(chan int)

		const workerCount = 32
		for i := 0; i < workerCount; i++ {
			go func() {
				for {
					line := inputQueue.WaitToPop()
					completionQueue.Push(line.Line, renderMatchedLine(summary, opts, line.Content))
				}
			}()
		}

		go func() {
			reader := os.Stdin
			if len(args) > 0 {
				f, err := os.Open(args[0])
				if err != nil {
					log.Fatal().Msgf("error opening file: %v", err)
				}
				reader = f
			}
			scanner := bufio.NewScanner(reader)
			for scanner.Scan() {
				text := scanner.Text()
				idx := currLine.Add(1) - 1
				inputQueue.Push(inputLine{Content: text, Line: int(idx)})
			}
			terminationChan <- 1
		}()

		outputLine := 0
		terminated := false
		for {
			select {
			case line := <-completionChan:
				fmt.Println(line)
				outputLine++
			case <-terminationChan:
				terminated = true
			}
			if terminated && int(currLine.Load()) == outputLine {
				return
			}
		}
	},
}

// renderMatchedLine resolves one raw log line through the manifest's
// pre-parser (if any), matches it against the extracted call sites, and
// renders the annotated output line, regardless of whether a match was
// found.
func renderMatchedLine(summary *matcherSummary, opts internal.RenderOptions, raw string) string {
	details := internal.FromParsed(raw, summary.format)

	hint := details.Ref.File
	ref, ok := summary.matcher.MatchLogStatement(details.Body, hint)
	if !ok {
		return internal.BuildRefColumn(opts, nil) + details.Body
	}

	values := internal.MatchedValues(ref, details.Body)
	mapping := internal.LogMapping{
		Details:   details,
		Source:    *ref,
		Variables: internal.ExtractVariables(ref, values),
	}
	return internal.FormatMapping(opts, mapping, values)
}

func init() {
	rootCmd.AddCommand(matchCmd)
	matchCmd.Flags().Bool("verbose", false, "show progress while scanning before matching")
	viper.SetDefault("source_column_width", 40)
	viper.SetDefault("skip_print_argument_expr", false)
	viper.SetDefault("link_template", "")
	matchCmd.PersistentFlags().Int("source_column_width", 40, "Width of the source column in the output. Setting it to 0 will disable the source column.")
	viper.BindPFlag("source_column_width", matchCmd.PersistentFlags().Lookup("source_column_width"))
	matchCmd.PersistentFlags().Bool("skip_print_argument_expr", false, "Skip printing the matched argument expr in the output")
	viper.BindPFlag("skip_print_argument_expr", matchCmd.PersistentFlags().Lookup("skip_print_argument_expr"))
	matchCmd.PersistentFlags().String("link_template", "", "URL template for the source column, with {file} and {line} placeholders")
	viper.BindPFlag("link_template", matchCmd.PersistentFlags().Lookup("link_template"))
}
