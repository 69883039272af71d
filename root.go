package main

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"comic-market-watch/config"
	"comic-market-watch/utils"
)

// usageError marks errors caused by bad command line input.
type usageError struct {
	error
}

func (e usageError) Unwrap() error { return e.error }

func newRootCmd(out io.Writer, logger *utils.Logger) *cobra.Command {
	vip := viper.New()
	var opts pipelineOptions
	var (
		configFile string
		verbose    int
	)

	cmd := &cobra.Command{
		Use:   config.AppName,
		Short: "Summarise recently sold eBay comics into an HTML page and an RSS feed",
		Long: `Fetch the most recent sold listings of the eBay Comics category,
compute the average and the top sale, and overwrite report.html and feed.xml
with the result. Meant to be run periodically, for instance from cron.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.NoArgs(cmd, args); err != nil {
				return usageError{err}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger.SetVerbose(verbose)

			cfg, err := config.Load(vip, configFile, logger)
			if err != nil {
				return err
			}
			return runPipeline(cmd.Context(), cfg, opts, out, logger)
		},
	}
	cmd.SetOut(out)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "use a specific configuration file")
	flags.CountVarP(&verbose, "verbose", "v", "issue DEBUG output")
	flags.StringVar(&opts.input, "input", "", "analyze a saved Finding API response instead of calling eBay")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "print the report without writing any file")

	flags.String("html-out", config.DefaultHTMLPath, "path of the generated HTML page")
	flags.String("rss-out", config.DefaultRSSPath, "path of the generated RSS feed")
	flags.String("metrics-file", "", "write Prometheus textfile metrics to this path after a successful run")

	for key, name := range map[string]string{
		"render.html_path": "html-out",
		"render.rss_path":  "rss-out",
		"metrics_file":     "metrics-file",
	} {
		// Lookup never returns nil here: the flags are declared just above.
		_ = vip.BindPFlag(key, flags.Lookup(name))
	}

	return cmd
}
