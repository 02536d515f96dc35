package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively create a config file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		force, _ := cmd.Flags().GetBool("force")
		return initWizard(cmd.Flags().Lookup("output").Value.String(), force)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringP("output", "o", app+".yaml", "where to write the config")
	initCmd.Flags().Bool("force", false, "overwrite an existing config")
}

// question is a single free-form wizard step.
type question struct {
	key      string
	label    string
	def      string
	validate promptui.ValidateFunc
}

func initWizard(output string, force bool) error {
	v := viper.New()

	envPrompt := promptui.Select{
		Label: "Environment",
		Items: []string{EnvironmentDevelopment, EnvironmentDemo},
	}
	_, environment, err := envPrompt.Run()
	if err != nil {
		return err
	}
	v.Set("environment", environment)

	questions := []question{
		{key: "headhunter.client-id", label: "hh.ru client id", validate: required},
		{key: "headhunter.client-secret-file", label: "File with hh.ru client secret (empty to use HH_CLIENT_SECRET)"},
		{key: "telegram.token-file", label: "File with telegram bot token (empty to use BOT_TOKEN)"},
		{key: "ai.gemini.api-key-file", label: "File with gemini api key (empty to use GEMINI_API_KEY)"},
		{key: "ai.gemini.model", label: "Gemini model", def: "gemini-2.5-pro", validate: required},
		{key: "callback.port", label: "OAuth callback port", def: strconv.Itoa(defaultPort), validate: port},
		{key: "audit.dir", label: "Audit log directory", def: defaultAuditDir, validate: required},
	}

	if environment == EnvironmentDemo {
		questions = append(questions, question{key: "callback.public-url", label: "Public url of the callback listener", validate: absoluteURL})
	}

	for _, q := range questions {
		p := promptui.Prompt{
			Label:    q.label,
			Default:  q.def,
			Validate: q.validate,
		}

		answer, err := p.Run()
		if err != nil {
			return err
		}

		answer = strings.TrimSpace(answer)
		if answer == "" {
			continue
		}

		if q.key == "callback.port" {
			n, _ := strconv.Atoi(answer)
			v.Set(q.key, n)
			continue
		}
		v.Set(q.key, answer)
	}

	if force {
		err = v.WriteConfigAs(output)
	} else {
		err = v.SafeWriteConfigAs(output)
	}
	if err != nil {
		return fmt.Errorf("writing config %s: %w", output, err)
	}

	fmt.Printf("config written to %s\n", output)
	return nil
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("value is required")
	}
	return nil
}

func port(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 || n > 65535 {
		return errors.New("port must be a number between 1 and 65535")
	}
	return nil
}

func absoluteURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("an absolute url like https://example.com is required")
	}
	return nil
}
