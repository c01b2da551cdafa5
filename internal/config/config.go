package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const EnvPrefix = "BALANZA"

type Config struct {
	Bind        string
	Port        int
	DatabaseURL string
	NATSURL     string
	NATSSubject string
	PublicURL   string
	Origins     []string
	TurnTimeout time.Duration
	Threshold   int
	Verbose     bool
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.TurnTimeout <= 0 {
		return fmt.Errorf("turn timeout must be positive: %s", c.TurnTimeout)
	}
	if c.Threshold <= 0 {
		return fmt.Errorf("threshold must be positive: %d", c.Threshold)
	}
	if c.NATSURL != "" && c.NATSSubject == "" {
		return errors.New("--nats-subject is required with --nats-url")
	}
	return nil
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

// JoinURL is the websocket address players should dial.
func (c *Config) JoinURL() string {
	if c.PublicURL != "" {
		return c.PublicURL
	}
	host := c.Bind
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "ws://" + net.JoinHostPort(host, strconv.Itoa(c.Port)) + "/ws"
}

// LoadDotEnv exports the variables in path without overriding the environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// NewCommand builds the root command. Every flag can also be set through a
// BALANZA_ environment variable or a .env file in the working directory.
func NewCommand(cfg *Config, version string, run func(cmd *cobra.Command, cfg *Config) error) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:     "balanza",
		Short:   "Game server for the balance scale: ten players, five colors, one scale.",
		Args:    cobra.ExactArgs(0),
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: BALANZA_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 5000, "port to listen on (env: BALANZA_PORT)")
	fs.StringVar(&cfg.DatabaseURL, "database-url", "", "postgres dsn for play history; empty keeps it in memory (env: BALANZA_DATABASE_URL)")
	fs.StringVar(&cfg.NATSURL, "nats-url", "", "nats server to publish finished sessions to (env: BALANZA_NATS_URL)")
	fs.StringVar(&cfg.NATSSubject, "nats-subject", "balanza", "subject prefix for published sessions (env: BALANZA_NATS_SUBJECT)")
	fs.StringVar(&cfg.PublicURL, "public-url", "", "websocket url encoded in the join QR code (env: BALANZA_PUBLIC_URL)")
	fs.StringSliceVar(&cfg.Origins, "origins", nil, "extra allowed websocket origin patterns (env: BALANZA_ORIGINS)")
	fs.DurationVar(&cfg.TurnTimeout, "turn-timeout", 5*time.Minute, "time a player has to move before elimination (env: BALANZA_TURN_TIMEOUT)")
	fs.IntVar(&cfg.Threshold, "threshold", 16, "largest allowed difference between pans, in grams (env: BALANZA_THRESHOLD)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "display additional output (env: BALANZA_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("balanza v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

func NewLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
