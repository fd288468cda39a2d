// Package cli implements hy2ctl, the command line client for hy2d.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"hy2core/internal/client"
	"hy2core/internal/config"
)

// Options carries the persistent flags shared by every subcommand.
type Options struct {
	Addr    string
	Output  string
	Timeout time.Duration

	out io.Writer
	in  io.Reader
}

func (o *Options) client() *client.Client {
	return client.New(baseURL(o.Addr), client.WithTimeout(o.Timeout))
}

func (o *Options) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), o.Timeout)
}

// DefaultAddr honours HY2D_ADDR.
func DefaultAddr() string {
	if v := os.Getenv("HY2D_ADDR"); v != "" {
		return v
	}
	return config.DefaultAddr
}

// NewRootCmd builds the hy2ctl command tree writing to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	o := &Options{out: out, in: os.Stdin}
	root := &cobra.Command{
		Use:           "hy2ctl",
		Short:         "Control a running hy2d daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch o.Output {
			case outputText, outputJSON, outputYAML:
				return nil
			default:
				return fmt.Errorf("unknown output format %q (text|json|yaml)", o.Output)
			}
		},
	}
	root.SetOut(out)
	root.SetErr(out)

	pf := root.PersistentFlags()
	pf.StringVar(&o.Addr, "addr", DefaultAddr(), "Daemon address (defaults HY2D_ADDR or "+config.DefaultAddr+")")
	pf.StringVarP(&o.Output, "output", "o", outputText, "Output format: text|json|yaml")
	pf.DurationVar(&o.Timeout, "timeout", client.DefaultTimeout, "Per-request timeout")

	root.AddCommand(
		newStartCmd(o),
		newReloadCmd(o),
		newStopCmd(o),
		newStatusCmd(o),
		newHealthCmd(o),
		newVersionCmd(o),
		newLogLevelCmd(o),
		newEventsCmd(o),
		newProfilesCmd(o),
	)
	return root
}

// Execute runs hy2ctl with os.Args and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	root := NewRootCmd(os.Stdout)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
