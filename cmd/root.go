package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "hh-resume-bot"

	EnvironmentDevelopment = "development"
	EnvironmentDemo        = "demo"

	defaultPort     = 8080
	defaultAuditDir = "logs"
)

type Config struct {
	Environment string            `mapstructure:"environment"`
	Telegram    *TelegramConfig   `mapstructure:"telegram"`
	Headhunter  *HeadhunterConfig `mapstructure:"headhunter"`
	Callback    *CallbackConfig   `mapstructure:"callback"`
	AI          *AIConfig         `mapstructure:"ai"`
	Audit       *AuditConfig      `mapstructure:"audit"`
}

type TelegramConfig struct {
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"token-file"`
}

type HeadhunterConfig struct {
	ClientID         string `mapstructure:"client-id"`
	ClientSecret     string `mapstructure:"client-secret"`
	ClientSecretFile string `mapstructure:"client-secret-file"`
	RedirectURI      string `mapstructure:"redirect-uri"`
	UserAgent        string `mapstructure:"user-agent"`
}

type CallbackConfig struct {
	Port      int    `mapstructure:"port"`
	PublicURL string `mapstructure:"public-url"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type AuditConfig struct {
	Dir string `mapstructure:"dir"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "hh-resume-bot is a telegram bot rewriting hh.ru resumes for a chosen vacancy",
	}
)

// env holds the environment variables the bot has always been configured with.
var env = map[string]string{
	"telegram.token":           "BOT_TOKEN",
	"headhunter.client-id":     "HH_CLIENT_ID",
	"headhunter.client-secret": "HH_CLIENT_SECRET",
	"ai.gemini.api-key":        "GEMINI_API_KEY",
	"environment":              "APP_ENVIRONMENT",
	"callback.port":            "PORT",
	"callback.public-url":      "PUBLIC_URL",
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	for key, name := range env {
		if err := viper.BindEnv(key, name); err != nil {
			log.Fatalf("binding %s environment variable: %v", name, err)
		}
	}

	viper.SetDefault("environment", EnvironmentDevelopment)
	viper.SetDefault("callback.port", defaultPort)
	viper.SetDefault("audit.dir", defaultAuditDir)
	viper.SetDefault("ai.provider", "gemini")

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is hh-resume-bot.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("log-file", "", "additionally write json logs to a rotating file")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file"))
}

func initConfig() {
	// Only serve reads the configuration.
	if serveCmd.CalledAs() == "" {
		return
	}

	// A missing .env is fine, the variables may come from the environment itself.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Without an explicit config the bot can run on environment variables alone.
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config == nil {
		return nil, errors.New("config is empty")
	}

	if config.Telegram == nil {
		config.Telegram = &TelegramConfig{}
	}
	if config.Headhunter == nil {
		config.Headhunter = &HeadhunterConfig{}
	}
	if config.Callback == nil {
		config.Callback = &CallbackConfig{Port: defaultPort}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.Audit == nil {
		config.Audit = &AuditConfig{}
	}

	return config, config.validate()
}

func (c *Config) validate() error {
	switch c.Environment {
	case EnvironmentDevelopment, EnvironmentDemo:
	default:
		return fmt.Errorf("unknown environment %q, expected %s or %s", c.Environment, EnvironmentDevelopment, EnvironmentDemo)
	}

	if strings.TrimSpace(c.Headhunter.ClientID) == "" {
		return errors.New("headhunter.client-id (HH_CLIENT_ID) is required")
	}

	if c.Callback.Port <= 0 || c.Callback.Port > 65535 {
		return fmt.Errorf("invalid callback port %d", c.Callback.Port)
	}

	if provider := strings.ToLower(strings.TrimSpace(c.AI.Provider)); provider != "" && provider != "gemini" {
		return fmt.Errorf("unsupported ai provider: %s", c.AI.Provider)
	}

	return nil
}

// redirectURI is where hh.ru sends the user back after authorization.
// An explicit headhunter.redirect-uri always wins.
func (c *Config) redirectURI() (string, error) {
	if uri := strings.TrimSpace(c.Headhunter.RedirectURI); uri != "" {
		return uri, nil
	}

	switch c.Environment {
	case EnvironmentDemo:
		public := strings.TrimRight(strings.TrimSpace(c.Callback.PublicURL), "/")
		if public == "" {
			return "", errors.New("callback.public-url (PUBLIC_URL) is required in demo environment")
		}
		return public + "/", nil
	default:
		return fmt.Sprintf("http://localhost:%d/", c.Callback.Port), nil
	}
}
