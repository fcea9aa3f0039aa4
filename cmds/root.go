package cmds

import (
	"context"
	"flag"
	"io"
	"os"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/pharmer/cloudcli/cloud"
	"github.com/pharmer/cloudcli/cmds/options"
	"github.com/pharmer/cloudcli/config"
	"github.com/pharmer/cloudcli/utils/printer"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Runner carries the process level collaborators of a command run.
type Runner struct {
	Out     io.Writer
	Exit    func(code int)
	Connect func(provider string, cred cloud.Credentials) (*cloud.Connection, error)
	// Poll is the interval of wait-for-running loops, cloud.RetryInterval when zero.
	Poll time.Duration
}

func NewRunner() *Runner {
	return &Runner{
		Out:     os.Stdout,
		Exit:    os.Exit,
		Connect: cloud.Connect,
	}
}

func NewRootCmd(r *Runner) *cobra.Command {
	cobra.EnableCaseInsensitive = true

	opts := options.New()
	help := findVerb(verbHelp)
	rootCmd := &cobra.Command{
		Use:               "cloudcli [command]",
		Short:             "Manage DNS zones, load balancers and nodes across cloud providers",
		DisableAutoGenTag: true,
		Args:              cobra.ArbitraryArgs,
		PersistentPreRun: func(c *cobra.Command, args []string) {
			c.Flags().VisitAll(func(flag *pflag.Flag) {
				if flag.Name == "key" {
					return
				}
				glog.V(5).Infof("FLAG: --%s=%q", flag.Name, flag.Value)
			})
		},
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) > 0 {
				glog.V(1).Infof("unknown command %q", args[0])
			}
			r.Run(cmd, help, opts, nil)
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	// ref: https://github.com/kubernetes/kubernetes/issues/17162#issuecomment-225596212
	flag.CommandLine.Parse([]string{})
	opts.AddFlags(rootCmd.PersistentFlags())

	for _, v := range verbTable() {
		v := v
		cmd := &cobra.Command{
			Use:               strings.TrimSpace(v.name + " " + v.usage),
			Short:             v.summary,
			DisableAutoGenTag: true,
			Args:              cobra.ArbitraryArgs,
			Run: func(cmd *cobra.Command, args []string) {
				r.Run(cmd, v, opts, args)
			},
		}
		if v.name == verbHelp {
			rootCmd.SetHelpCommand(cmd)
			continue
		}
		rootCmd.AddCommand(cmd)
	}
	return rootCmd
}

// Run executes one verb and leaves through the printer's exit paths.
func (r *Runner) Run(cmd *cobra.Command, v verb, opts *options.Options, args []string) {
	p := &printer.Printer{
		Out:    r.Out,
		Format: printer.NewFormat(opts.Human, opts.JSON),
		Exit:   r.Exit,
	}
	result, err := r.execute(context.Background(), cmd, v, opts, args)
	if err != nil {
		glog.V(1).Infof("%s failed: %+v", v.name, err)
		p.Fail(message(err))
		return
	}
	p.Succeed(*result)
}

func (r *Runner) execute(ctx context.Context, cmd *cobra.Command, v verb, opts *options.Options, args []string) (*printer.Result, error) {
	if v.offline {
		return v.run(ctx, &env{opts: opts}, args)
	}

	if err := opts.ValidateFlags(cmd, args); err != nil {
		return nil, failure{err}
	}
	if v.validate != nil {
		if err := v.validate(opts, args); err != nil {
			return nil, failure{err}
		}
	}

	settings, err := config.Resolve(opts.Settings())
	if err != nil {
		return nil, failure{err}
	}
	conn, err := r.Connect(settings.Provider, cloud.Credentials{
		User:     settings.User,
		Key:      settings.Key,
		Location: settings.Location,
	})
	if err != nil {
		return nil, err
	}

	e := &env{
		conn:     conn,
		settings: settings,
		opts:     opts,
		wait:     cloud.WaitOptions{Interval: r.Poll},
	}
	if opts.Wait > 0 {
		e.wait.Timeout = time.Duration(opts.Wait) * time.Second
	}
	return v.run(ctx, e, args)
}

// env is what a handler works with: one connection, the resolved settings and
// the parsed options.
type env struct {
	conn     *cloud.Connection
	settings *config.Settings
	opts     *options.Options
	wait     cloud.WaitOptions
}

func (e *env) zone(ctx context.Context, domain string) (*cloud.Zone, error) {
	zone, err := cloud.FindZone(ctx, e.conn.DNS, domain)
	if err != nil {
		return nil, err
	}
	if zone == nil {
		return nil, notFound("Zone", domain)
	}
	return zone, nil
}

func (e *env) balancer(ctx context.Context, name string) (*cloud.Balancer, error) {
	lb, err := cloud.FindBalancer(ctx, e.conn.LoadBalancer, name)
	if err != nil {
		return nil, err
	}
	if lb == nil {
		return nil, notFound("Balancer", name)
	}
	return lb, nil
}

func (e *env) node(ctx context.Context, name string) (*cloud.Node, error) {
	node, err := cloud.FindNode(ctx, e.conn.Compute, name)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, notFound("Node", name)
	}
	return node, nil
}
