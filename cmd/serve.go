package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hh-resume-bot/internal/ai"
	"github.com/spigell/hh-resume-bot/internal/ai/gemini"
	"github.com/spigell/hh-resume-bot/internal/bot"
	"github.com/spigell/hh-resume-bot/internal/callback"
	"github.com/spigell/hh-resume-bot/internal/entity"
	"github.com/spigell/hh-resume-bot/internal/headhunter"
	"github.com/spigell/hh-resume-bot/internal/logger"
	"github.com/spigell/hh-resume-bot/internal/pipeline"
	"github.com/spigell/hh-resume-bot/internal/secrets"
	"github.com/spigell/hh-resume-bot/internal/session"
	"github.com/spigell/hh-resume-bot/internal/telegram"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the telegram bot",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", defaultPort, "port of the oauth callback listener")
	serveCmd.Flags().String("audit-dir", defaultAuditDir, "directory for rewrite audit records")

	viper.BindPFlag("callback.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("audit.dir", serveCmd.Flags().Lookup("audit-dir"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(logger.Options{
		JSON:  viper.GetBool("json"),
		Debug: viper.GetBool("debug"),
		File:  viper.GetString("log-file"),
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer func() { _ = logger.Sync() }()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the hh-resume-bot",
		zap.String("version", version),
		zap.String("environment", config.Environment),
	)

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	botToken, err := secrets.Load(secrets.Source{
		Name:  "telegram bot token",
		Value: config.Telegram.Token,
		File:  config.Telegram.TokenFile,
	})
	if err != nil {
		logger.Fatal("loading telegram token", zap.Error(err), zap.String("hint", "set BOT_TOKEN or telegram.token-file"))
	}

	clientSecret, err := secrets.Load(secrets.Source{
		Name:  "headhunter client secret",
		Value: config.Headhunter.ClientSecret,
		File:  config.Headhunter.ClientSecretFile,
	})
	if err != nil {
		logger.Fatal("loading headhunter client secret", zap.Error(err), zap.String("hint", "set HH_CLIENT_SECRET or headhunter.client-secret-file"))
	}

	redirectURI, err := config.redirectURI()
	if err != nil {
		logger.Fatal("resolving redirect uri", zap.Error(err))
	}

	hh := headhunter.New(headhunter.Options{
		ClientID:     config.Headhunter.ClientID,
		ClientSecret: clientSecret,
		RedirectURI:  redirectURI,
		UserAgent:    config.Headhunter.UserAgent,
	}, logger.Named("headhunter"))

	logger.Info("oauth redirect configured", zap.String("redirect_uri", hh.RedirectURI()))

	rewriter, err := newRewriter(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building ai rewriter", zap.Error(err))
	}

	listener := callback.New(config.Callback.Port, logger.Named("callback"))

	auditor := pipeline.NewAuditor(afero.NewOsFs(), config.Audit.Dir, logger.Named("audit"))
	rewrite := pipeline.New(hh, entity.NewExtractor(logger), rewriter, auditor, logger.Named("pipeline"))

	tg, err := telegram.New(botToken, logger.Named("telegram"))
	if err != nil {
		logger.Fatal("starting telegram client", zap.Error(err))
	}

	machine := bot.NewMachine(bot.Deps{
		Sessions: session.NewStore(),
		Sender:   tg,
		Auth:     hh,
		Callback: listener,
		Pipeline: rewrite,
		Logger:   logger.Named("bot"),
	})
	dispatcher := bot.NewDispatcher(machine.Handle, logger)

	if err := tg.Run(ctx, dispatcher.Dispatch); err != nil {
		logger.Error("telegram update loop failed", zap.Error(err))
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := listener.Stop(shutdownCtx); err != nil {
		logger.Warn("stopping callback listener", zap.Error(err))
	}

	dispatcher.Wait()
	logger.Info("bot stopped")
}

func newRewriter(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Rewriter, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set GEMINI_API_KEY or ai.gemini.api-key-file)", err)
	}

	genLogger := logger.With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries))

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	return gemini.NewRewriter(generator, logger.Named("rewriter"), cfg.Gemini.MaxLogLength), nil
}

// redacted returns a copy of config safe for logging.
func redacted(config *Config) Config {
	c := *config

	hide := func(s string) string {
		if s == "" {
			return ""
		}
		return "***"
	}

	tg := *c.Telegram
	tg.Token = hide(tg.Token)
	c.Telegram = &tg

	hh := *c.Headhunter
	hh.ClientSecret = hide(hh.ClientSecret)
	c.Headhunter = &hh

	aiCfg := *c.AI
	gem := *aiCfg.Gemini
	gem.APIKey = hide(gem.APIKey)
	aiCfg.Gemini = &gem
	c.AI = &aiCfg

	return c
}
