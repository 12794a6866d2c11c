package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sevigo/riflesync/internal/config"
	"github.com/sevigo/riflesync/internal/core"
	"github.com/sevigo/riflesync/internal/gitutil"
	"github.com/sevigo/riflesync/internal/logger"
	"github.com/sevigo/riflesync/internal/rifle"
	"github.com/sevigo/riflesync/internal/syncer"
	"github.com/sevigo/riflesync/internal/transpile"
)

var rootCmd = &cobra.Command{
	Use:   "riflesync GITREPOSITORYPATH RIFLEROOTPATH",
	Short: "Import changed JavaScript files into a Codemodel Rifle server.",
	Long: `riflesync computes the JavaScript files that changed since the last
import recorded by the Codemodel Rifle server, transpiles them with
Babel, and uploads the result for analysis. When the server holds no
prior import for the current branch, the whole branch is imported.`,
	Args:          cobra.ExactArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSync,
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	cobra.OnInitialize(initConfig)

	flags := rootCmd.Flags()
	flags.StringP("ignore-file", "i", config.DefaultIgnoreFile,
		"File listing path substrings to exclude, one per line. Directories need a trailing slash.")
	flags.StringP("babel-config-file", "b", config.DefaultBabelConfigFile,
		"File listing extra Babel CLI flags, one per line.")
	flags.IntP("max-upload-trials", "t", config.DefaultMaxUploadTrials,
		"Maximum number of upload retries after a network failure.")
	flags.BoolP("reimport-full-branch", "f", false,
		"Upload the whole branch instead of the delta since the last imported commit.")
	flags.Duration("retry-delay", config.DefaultRetryDelay,
		"Initial delay between upload retries; doubles on each retry.")
	flags.String("log-level", "info", "Log level (debug, info, warn, error).")
	flags.String("log-format", "text", "Log format (text, json).")

	for _, name := range []string{
		"ignore-file", "babel-config-file", "max-upload-trials",
		"reimport-full-branch", "retry-delay", "log-level", "log-format",
	} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			slog.Error("failed to bind flag", "flag", name, "error", err)
			os.Exit(1)
		}
	}
}

// initConfig reads RIFLE_* environment variables as overrides.
func initConfig() {
	viper.SetEnvPrefix("RIFLE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func runSync(_ *cobra.Command, args []string) error {
	viper.Set("repo-path", args[0])
	viper.Set("server-url", args[1])

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Logger, nil)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gitClient := gitutil.NewClient(log)
	rifleClient := rifle.NewClient(cfg.ServerURL, nil, log)
	uploader := rifle.NewUploader(rifleClient, cfg.MaxUploadTrials, cfg.RetryDelay, log)
	babel := transpile.NewBabel(log)

	result, err := syncer.New(cfg, gitClient, rifleClient, uploader, babel, log).Run(ctx)
	if err != nil {
		if errors.Is(err, rifle.ErrUploadExhausted) {
			color.Red("Upload failed more than %d times.", cfg.MaxUploadTrials)
			fmt.Println("At the next import you are suggested to run a full import" +
				" of the branch (--reimport-full-branch).")
		}
		return err
	}

	printSummary(result)
	return nil
}

func printSummary(result *syncer.Result) {
	if result.UpToDate {
		color.Green("Revision %q is already imported at commit %s.",
			result.Revision.Revision, result.Revision.HeadSHA)
		return
	}

	mode := "incremental"
	if result.FullImport {
		mode = "full"
	}
	color.Green("Imported revision %q at commit %s (%s import, %d files uploaded).",
		result.Revision.Revision, result.Revision.HeadSHA, mode,
		result.Report.Count(core.UploadSucceeded))

	for _, path := range result.Report.Rejected() {
		color.Yellow("The server could not process %q; the file was skipped.", path)
	}
}
