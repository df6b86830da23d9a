// Command formengine fills and submits the registration form from a script,
// an interactive prompt or free text.
//
// Configuration is read, in order of precedence, from flags, FORMENGINE_*
// environment variables and a YAML config file (.formengine.yml by default):
//
//	log-level: debug
//	validator: schema
//	assist:
//	  api_key: sk-...
//	  base_url: https://api.openai.com/v1
//	  model: gpt-4o-mini
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tbxark/formengine"
	"github.com/tbxark/formengine/registration"
)

type app struct {
	v       *viper.Viper
	cfgFile string
	out     io.Writer
	errOut  io.Writer
	logger  zerolog.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{v: viper.New(), out: out, errOut: errOut, logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:          "formengine",
		Short:        "Fill, validate and submit the registration form",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is .formengine.yml, can also use FORMENGINE_CONFIG_FILE env var)")
	root.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("validator", string(registration.VariantManual), "validator to use (manual, tags, schema)")
	_ = a.v.BindPFlag("log-level", root.PersistentFlags().Lookup("log-level"))
	_ = a.v.BindPFlag("validator", root.PersistentFlags().Lookup("validator"))

	root.AddCommand(
		newFillCmd(a),
		newInteractiveCmd(a),
		newSchemaCmd(a),
		newAssistCmd(a),
	)
	return root
}

func (a *app) initConfig() error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else if envConfigFile := os.Getenv("FORMENGINE_CONFIG_FILE"); envConfigFile != "" {
		a.v.SetConfigFile(envConfigFile)
	} else {
		a.v.AddConfigPath(".")
		a.v.SetConfigType("yaml")
		a.v.SetConfigName(".formengine")
	}

	a.v.SetEnvPrefix("FORMENGINE")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	logger, err := newLogger(a.v.GetString("log-level"), a.errOut)
	if err != nil {
		return err
	}
	a.logger = logger
	if used := a.v.ConfigFileUsed(); used != "" {
		a.logger.Debug().Str("file", used).Msg("using config file")
	}
	return nil
}

func newLogger(level string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: true}
	return zerolog.New(console).Level(lvl).With().Timestamp().Logger(), nil
}

// newForm builds the registration engine configured by the validator key. The
// submitted form is written to the log.
func (a *app) newForm(opts ...registration.Option) (*registration.FormEngine, error) {
	variant, err := registration.ParseVariant(a.v.GetString("validator"))
	if err != nil {
		return nil, err
	}
	base := []registration.Option{
		registration.WithVariant(variant),
		registration.WithLogger(a.logger),
		registration.WithSink(formengine.NewLogSink[registration.FormState](a.logger, "registration")),
	}
	return registration.NewFormEngine(append(base, opts...)...)
}
