package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/mattkinnersley/cloud-dlp-hook/internal/config"
	"github.com/mattkinnersley/cloud-dlp-hook/internal/hook"
)

// app carries the settings and the lazily created hook shared by every
// subcommand of one root command.
type app struct {
	v    *viper.Viper
	hook *hook.Hook
	log  *slog.Logger
}

// NewRootCmd creates the root dlpctl command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "dlpctl",
		Short:         "Command line client for the Cloud DLP API and its emulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initViper(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}

	// Global flags, bound to viper keys in initViper.
	flags := root.PersistentFlags()
	flags.String("project", "", "project id (defaults to GOOGLE_CLOUD_PROJECT)")
	flags.String("organization", "", "organization id; takes precedence over --project where supported")
	flags.String("endpoint", "", "DLP API endpoint")
	flags.String("emulator-host", "", "host:port of a DLP emulator; disables TLS")
	flags.Bool("insecure", false, "disable TLS and credentials")
	flags.Duration("poll-interval", 0, "sleep between job polls when waiting")
	flags.Duration("timeout", 0, "deadline of each call (0 means none)")
	flags.BoolP("verbose", "v", false, "log gRPC calls to stderr")

	root.AddCommand(
		newJobsCmd(a),
		newTemplatesCmd(a),
		newTriggersCmd(a),
		newStoredInfoTypesCmd(a),
		newInfoTypesCmd(a),
		newInspectCmd(a),
		newDeidentifyCmd(a),
	)

	return root
}

var boundFlags = map[string]string{
	"project":       "project",
	"organization":  "organization",
	"endpoint":      "endpoint",
	"emulator_host": "emulator-host",
	"insecure":      "insecure",
	"poll_interval": "poll-interval",
	"timeout":       "timeout",
	"verbose":       "verbose",
}

// initViper layers flag > env (DLP_ prefix) > defaults. Defaults come
// from the same environment the library reads.
func (a *app) initViper(cmd *cobra.Command) error {
	v := a.v

	defaults := config.LoadClient()
	v.SetDefault("endpoint", defaults.Endpoint)
	v.SetDefault("insecure", defaults.Insecure)
	v.SetDefault("project", defaults.ProjectID)
	v.SetDefault("poll_interval", defaults.PollInterval)

	v.SetEnvPrefix("DLP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, flag := range boundFlags {
		if err := v.BindPFlag(key, cmd.Root().PersistentFlags().Lookup(flag)); err != nil {
			return fmt.Errorf("binding %s flag: %w", flag, err)
		}
	}

	level := slog.LevelWarn
	if v.GetBool("verbose") {
		level = slog.LevelDebug
	}
	a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

// client returns the hook, creating it on first use.
func (a *app) client() *hook.Hook {
	if a.hook != nil {
		return a.hook
	}
	cfg := hook.Config{
		Endpoint:     a.v.GetString("endpoint"),
		Insecure:     a.v.GetBool("insecure"),
		ProjectID:    a.v.GetString("project"),
		PollInterval: a.v.GetDuration("poll_interval"),
	}
	if host := a.v.GetString("emulator_host"); host != "" {
		cfg.Endpoint = host
		cfg.Insecure = true
	}
	a.hook = hook.New(cfg, hook.WithLogger(a.log))
	return a.hook
}

func (a *app) close() error {
	if a.hook == nil {
		return nil
	}
	return a.hook.Close()
}

func (a *app) parent() hook.Parent {
	return hook.Parent{
		OrganizationID: a.v.GetString("organization"),
		ProjectID:      a.project(),
	}
}

// project is the hook's default project, resolved from flag, env or
// GOOGLE_CLOUD_PROJECT.
func (a *app) project() string {
	return a.client().ProjectID()
}

func (a *app) callOptions() []hook.CallOption {
	if d := a.v.GetDuration("timeout"); d > 0 {
		return []hook.CallOption{hook.WithTimeout(d)}
	}
	return nil
}

var jsonOptions = protojson.MarshalOptions{Multiline: true, Indent: "  "}

func printJSON(w io.Writer, m proto.Message) error {
	b, err := jsonOptions.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", m.ProtoReflect().Descriptor().FullName(), err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func printList[T proto.Message](w io.Writer, items []T) error {
	for _, item := range items {
		if err := printJSON(w, item); err != nil {
			return err
		}
	}
	return nil
}
