package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"hy2core/internal/client"
	"hy2core/pkg/hy2"
	"hy2core/pkg/types"
)

// readConfigArg reads an engine config file; "-" reads stdin.
func (o *Options) readConfigArg(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(o.in)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read engine config: %w", err)
	}
	return string(b), nil
}

func (o *Options) opResult(cmd *cobra.Command, c *client.Client) error {
	ctx, cancel := o.context(cmd)
	defer cancel()
	st, err := c.Snapshot(ctx)
	if err != nil {
		return err
	}
	return o.render(types.OpResponse{Status: st.Status}, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, st.Status)
		return err
	})
}

func newStartCmd(o *Options) *cobra.Command {
	var profile string
	cmd := &cobra.Command{
		Use:   "start [config.json|-]",
		Short: "Start the engine with a config file or a stored profile",
		Example: "  hy2ctl start client.json\n" +
			"  hy2ctl start --profile home",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := o.client()
			ctx, cancel := o.context(cmd)
			defer cancel()
			switch {
			case profile != "" && len(args) > 0:
				return errors.New("use either a config file or --profile, not both")
			case profile != "":
				if err := c.StartProfile(ctx, profile); err != nil {
					return err
				}
			case len(args) == 1:
				cfg, err := o.readConfigArg(args[0])
				if err != nil {
					return err
				}
				if err := c.StartContext(ctx, cfg); err != nil {
					return err
				}
			default:
				return errors.New("start requires a config file or --profile")
			}
			return o.opResult(cmd, c)
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "", "Name of a profile stored on the daemon")
	return cmd
}

func newReloadCmd(o *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "reload <config.json|->",
		Short: "Apply a new config to the running engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.readConfigArg(args[0])
			if err != nil {
				return err
			}
			c := o.client()
			ctx, cancel := o.context(cmd)
			defer cancel()
			if err := c.ReloadContext(ctx, cfg); err != nil {
				return err
			}
			return o.opResult(cmd, c)
		},
	}
}

func newStopCmd(o *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := o.client()
			ctx, cancel := o.context(cmd)
			defer cancel()
			if err := c.StopContext(ctx); err != nil {
				return err
			}
			return o.opResult(cmd, c)
		},
	}
}

func newStatusCmd(o *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show controller state and counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := o.context(cmd)
			defer cancel()
			st, err := o.client().Snapshot(ctx)
			if err != nil {
				return err
			}
			return o.render(st, func(w io.Writer) error { return writeStatus(w, st) })
		},
	}
}

func newHealthCmd(o *Options) *cobra.Command {
	var engineDoc bool
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Print the health document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := o.context(cmd)
			defer cancel()
			c := o.client()
			var (
				doc string
				err error
			)
			if engineDoc {
				doc, err = c.EngineHealth(ctx)
			} else {
				doc, err = c.Health(ctx)
			}
			if err != nil {
				return err
			}
			return o.renderRawJSON(doc)
		},
	}
	cmd.Flags().BoolVar(&engineDoc, "engine", false, "Show the engine's own health document")
	return cmd
}

func newVersionCmd(o *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the daemon build identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := o.context(cmd)
			defer cancel()
			v, err := o.client().VersionInfo(ctx)
			if err != nil {
				return err
			}
			return o.render(v, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s commit=%s built=%s\n", v.Version, v.Commit, v.BuildTime)
				return err
			})
		},
	}
}

func newLogLevelCmd(o *Options) *cobra.Command {
	return &cobra.Command{
		Use:       "log-level <debug|info|warn|error>",
		Short:     "Set the engine log threshold",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{hy2.LevelDebug, hy2.LevelInfo, hy2.LevelWarn, hy2.LevelError},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !hy2.ValidLevel(args[0]) {
				return fmt.Errorf("unknown log level %q", args[0])
			}
			ctx, cancel := o.context(cmd)
			defer cancel()
			lvl, err := o.client().SetLogLevelContext(ctx, args[0])
			if err != nil {
				return err
			}
			return o.render(types.LogLevelRequest{Level: lvl}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, lvl)
				return err
			})
		},
	}
}

func newEventsCmd(o *Options) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow engine logs and events until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch kind {
			case "", types.StreamKindLog, types.StreamKindEvent:
			default:
				return fmt.Errorf("unknown kind %q (log|event)", kind)
			}
			var werr error
			err := o.client().Subscribe(cmd.Context(), func(m types.StreamMessage) {
				if werr != nil || (kind != "" && m.Kind != kind) {
					return
				}
				werr = o.renderStream(m)
			})
			if werr != nil {
				return werr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Only show log or event frames")
	return cmd
}

func newProfilesCmd(o *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List engine configs stored on the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := o.context(cmd)
			defer cancel()
			list, err := o.client().Profiles(ctx)
			if err != nil {
				return err
			}
			return o.render(types.ProfilesResponse{Profiles: list}, func(w io.Writer) error {
				for _, p := range list {
					if _, err := fmt.Fprintf(w, "%-20s %6d  %s\n", p.Name, p.Size, p.Path); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func baseURL(addr string) string {
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return addr
	}
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	return "http://" + addr
}
