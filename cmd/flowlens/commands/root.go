package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"flowlens/internal/config"
	"flowlens/internal/httpapi"
	"flowlens/internal/jobs"
	"flowlens/internal/logging"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "flowlens",
	Short: "Flowlens is a flow-metrics analytics server for issue tracker exports",
	Long: `Flowlens computes lead/cycle times, throughput, cumulative flow, burn
charts, and completion forecasts from an exported issue snapshot and serves
them over HTTP.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("Flowlens starting")
	},
	Run: func(cmd *cobra.Command, args []string) {
		server, err := httpapi.NewServer(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize server")
		}

		cron, err := jobs.New(cfg.RefreshCron, server.Location(), server)
		if err != nil {
			log.Fatal().Err(err).Str("spec", cfg.RefreshCron).Msg("Bad refresh schedule")
		}
		cron.Start()
		defer cron.Stop()

		router := httpapi.NewRouter(server)
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := router.Run(cfg.HTTPAddr); err != nil {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}
