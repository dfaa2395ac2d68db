package main

import "github.com/spf13/cobra"

// options holds the flag values shared by every mode
type options struct {
	tableEntnahme string
	tableBelassen string
	outputDir     string
	persist       bool
	metricsFile   string
	logLevel      string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "uvfvolume",
		Short: "Calculates volumes and statistics from a UVF discharge file",
		Long: `uvfvolume reads a UVF discharge series (m³/s) and computes water volumes
over an interval, volumes per hydrologic year (01 Nov to 31 Oct) or daily
discharge extremes. Raw readings can be remapped through a lookup table first.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.tableEntnahme, "table-entnahme", "", "Lookup table (Q_Zufluss;Q_Entnahme) applied to every reading")
	pf.StringVar(&opts.tableBelassen, "table-belassen", "", "Lookup table (Q_Zufluss;Q_Belassen) applied to every reading")
	pf.StringVar(&opts.outputDir, "output-dir", "", "Directory for result files (default from config, else current directory)")
	pf.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics of this run to a textfile")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	rootCmd.MarkFlagsMutuallyExclusive("table-entnahme", "table-belassen")

	volumeCmd := &cobra.Command{
		Use:   "volume <uvf_file> <start> <end>",
		Short: "Total volume for the interval",
		Example: `  uvfvolume volume pegel.uvf 1996-01-01 1996-12-31
  uvfvolume volume pegel.uvf 1975-11-01T06:00 1976-11-01T06:00 --table-entnahme entnahme.csv`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, modeVolume, args)
		},
	}

	hydroYearCmd := &cobra.Command{
		Use:   "hydro-year <uvf_file> <start> <end>",
		Short: "Volumes per hydrologic year within the interval",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, modeHydroYear, args)
		},
	}
	hydroYearCmd.Flags().BoolVar(&opts.persist, "persist", false, "Store the results in the configured database")

	extremesCmd := &cobra.Command{
		Use:   "extremes <uvf_file> <start> <end>",
		Short: "Daily min/max discharge within the interval",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, modeExtremes, args)
		},
	}
	extremesCmd.Flags().BoolVar(&opts.persist, "persist", false, "Store the results in the configured database")

	rootCmd.AddCommand(volumeCmd, hydroYearCmd, extremesCmd)

	return rootCmd
}
