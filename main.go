package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ubuhinzi360/server/internal/activity"
	"ubuhinzi360/server/internal/app"
	"ubuhinzi360/server/internal/config"

	"github.com/spf13/cobra"
)

var (
	ephemeral bool
	feedUser  string
	feedLang  string
)

var rootCmd = &cobra.Command{
	Use:          "ubuhinzi360",
	Short:        "Ubuhinzi360 community server",
	Long:         "Serves the farmer community API: connection requests, conversations, the activity feed and the farming assistant.",
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and websocket server",
	RunE:  runServe,
}

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Print a user's activity feed from the stored state",
	Example: `  ubuhinzi360 feed --user user-you
  ubuhinzi360 feed --user user-you --lang rw`,
	RunE: runFeed,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep state in memory only")
	feedCmd.Flags().StringVarP(&feedUser, "user", "u", "", "user id (required)")
	feedCmd.Flags().StringVarP(&feedLang, "lang", "l", "", "language, defaults to the user's setting")
	feedCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(serveCmd, feedCmd)
}

func loadConfig() config.Config {
	cfg := config.Load()
	if ephemeral {
		cfg.StorageDriver = config.DriverMemory
	}
	return cfg
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		return err
	}
	return a.Run(ctx)
}

func runFeed(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer closeLog()

	kv, st, err := app.LoadState(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer kv.Close()

	items, err := activity.Build(st, feedUser)
	if err != nil {
		return fmt.Errorf("build feed for %s: %w", feedUser, err)
	}

	lang := feedLang
	if lang == "" {
		lang = st.Settings(feedUser).Language
	}
	entries := activity.Render(items, lang, st.Now())
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No recent activity.")
		return nil
	}
	for _, e := range entries {
		line := fmt.Sprintf("[%s] %s (%s)", e.Kind, e.Title, e.Ago)
		if e.Snippet != "" {
			line += ": " + e.Snippet
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
