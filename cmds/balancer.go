package cmds

import (
	"context"

	"github.com/pharmer/cloudcli/cloud"
	"github.com/pharmer/cloudcli/cmds/options"
	"github.com/pharmer/cloudcli/utils/printer"
	"github.com/pkg/errors"
)

func runListProtocols(_ context.Context, e *env, _ []string) (*printer.Result, error) {
	return &printer.Result{Type: printer.TypeProtocol, Data: e.conn.LoadBalancer.Protocols()}, nil
}

func runListBalancers(ctx context.Context, e *env, _ []string) (*printer.Result, error) {
	balancers, err := e.conn.LoadBalancer.ListBalancers(ctx)
	if err != nil {
		return nil, err
	}
	return &printer.Result{Type: printer.TypeBalancer, Data: balancers}, nil
}

func runListBalancerMembers(ctx context.Context, e *env, _ []string) (*printer.Result, error) {
	lb, err := e.balancer(ctx, e.opts.Name)
	if err != nil {
		return nil, err
	}
	members, err := e.conn.LoadBalancer.ListMembers(ctx, *lb)
	if err != nil {
		return nil, err
	}
	return &printer.Result{Type: printer.TypeBalancerMember, Data: members}, nil
}

func validateCreateBalancer(o *options.Options, args []string) error {
	if err := o.RequireName(); err != nil {
		return err
	}
	if o.Port == 0 {
		return errors.New("--port is required")
	}
	for _, arg := range args {
		if _, err := options.ParseMember(arg); err != nil {
			return err
		}
	}
	return nil
}

// runCreateBalancer always asks for least-connections, whatever --algorithm says.
func runCreateBalancer(ctx context.Context, e *env, args []string) (*printer.Result, error) {
	members := make([]cloud.Member, 0, len(args))
	for _, arg := range args {
		m, _ := options.ParseMember(arg)
		members = append(members, m)
	}
	lb, err := e.conn.LoadBalancer.CreateBalancer(ctx, cloud.BalancerRequest{
		Name:      e.opts.Name,
		Port:      e.opts.Port,
		Protocol:  e.opts.Protocol,
		Algorithm: cloud.AlgorithmLeastConnections,
		Members:   members,
		Location:  e.settings.Location,
	})
	if err != nil {
		return nil, err
	}
	if !e.opts.WaitRequested {
		return &printer.Result{Message: "Balancer created", Type: printer.TypeBalancer, Data: lb}, nil
	}

	running, err := cloud.WaitForRunningBalancer(ctx, e.conn.LoadBalancer, lb.Name, e.wait)
	if err != nil {
		return nil, err
	}
	if running == nil {
		return nil, notFound("Balancer", lb.Name)
	}
	if running.State != cloud.BalancerStateRunning {
		return nil, fail("Balancer %q is %s, not running", lb.Name, running.State)
	}
	return &printer.Result{Message: "Balancer created", Type: printer.TypeBalancer, Data: running}, nil
}

func validateNodeAttach(o *options.Options, args []string) error {
	if err := o.RequireName(); err != nil {
		return err
	}
	if len(args) != 1 {
		return errors.New("NODE argument is required")
	}
	return nil
}

func runBalancerNodeAttach(ctx context.Context, e *env, args []string) (*printer.Result, error) {
	lb, err := e.balancer(ctx, e.opts.Name)
	if err != nil {
		return nil, err
	}
	node, err := e.node(ctx, args[0])
	if err != nil {
		return nil, err
	}
	member, err := e.conn.LoadBalancer.AttachNode(ctx, *lb, *node)
	if err != nil {
		return nil, err
	}
	return &printer.Result{Message: "Node attached", Type: printer.TypeBalancerMember, Data: member}, nil
}

// memberAddress returns the IP:PORT given by --member or as the only argument.
func memberAddress(o *options.Options, args []string) string {
	if o.Member != "" {
		return o.Member
	}
	if len(args) == 1 {
		return args[0]
	}
	return ""
}

func validateMemberAttach(o *options.Options, args []string) error {
	if err := o.RequireName(); err != nil {
		return err
	}
	addr := memberAddress(o, args)
	if addr == "" {
		return errors.New("--member or an IP:PORT argument is required")
	}
	_, err := options.ParseMember(addr)
	return err
}

func runBalancerMemberAttach(ctx context.Context, e *env, args []string) (*printer.Result, error) {
	m, _ := options.ParseMember(memberAddress(e.opts, args))
	lb, err := e.balancer(ctx, e.opts.Name)
	if err != nil {
		return nil, err
	}
	member, err := e.conn.LoadBalancer.AttachMember(ctx, *lb, m)
	if err != nil {
		return nil, err
	}
	return &printer.Result{Message: "Member attached", Type: printer.TypeBalancerMember, Data: member}, nil
}

func validateMemberDetach(o *options.Options, args []string) error {
	if err := o.RequireName(); err != nil {
		return err
	}
	if o.ID == "" && memberAddress(o, args) == "" {
		return errors.New("--id, --member or an IP:PORT argument is required")
	}
	return nil
}

func runBalancerMemberDetach(ctx context.Context, e *env, args []string) (*printer.Result, error) {
	key := e.opts.ID
	if key == "" {
		key = memberAddress(e.opts, args)
	}
	lb, err := e.balancer(ctx, e.opts.Name)
	if err != nil {
		return nil, err
	}
	member, err := cloud.FindMember(ctx, e.conn.LoadBalancer, *lb, key)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, notFound("Member", key)
	}
	if err := e.conn.LoadBalancer.DetachMember(ctx, *lb, *member); err != nil {
		return nil, err
	}
	return &printer.Result{Message: "Member detached", Type: printer.TypeBalancerMember, Data: member}, nil
}

func runDestroyBalancer(ctx context.Context, e *env, _ []string) (*printer.Result, error) {
	lb, err := e.balancer(ctx, e.opts.Name)
	if err != nil {
		return nil, err
	}
	if err := e.conn.LoadBalancer.DestroyBalancer(ctx, *lb); err != nil {
		return nil, err
	}
	return &printer.Result{Message: "Balancer destroyed"}, nil
}
