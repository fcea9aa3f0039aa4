package cloud

import (
	"context"
	"time"

	"github.com/golang/glog"
	"k8s.io/apimachinery/pkg/util/wait"
)

const (
	RetryInterval = 2 * time.Second
	RetryTimeout  = 30 * time.Second
)

// WaitOptions bound a wait-for-running loop. Zero values fall back to
// RetryInterval and RetryTimeout.
type WaitOptions struct {
	Interval time.Duration
	Timeout  time.Duration
}

func (o WaitOptions) withDefaults() WaitOptions {
	if o.Interval <= 0 {
		o.Interval = RetryInterval
	}
	if o.Timeout <= 0 {
		o.Timeout = RetryTimeout
	}
	return o
}

// WaitForRunningNode polls the node list until the named node is running or
// the timeout elapses. A timeout is not an error: the last observation is
// returned as is, and it is nil when the node never showed up. Callers must
// check the returned state themselves.
func WaitForRunningNode(ctx context.Context, compute Compute, name string, opts WaitOptions) (*Node, error) {
	opts = opts.withDefaults()

	var last *Node
	attempt := 0
	err := wait.PollImmediate(opts.Interval, opts.Timeout, func() (bool, error) {
		attempt++
		node, err := FindNode(ctx, compute, name)
		if err != nil {
			return false, err
		}
		last = node
		if node == nil {
			glog.V(4).Infof("node %q not listed yet, attempt %d", name, attempt)
			return false, nil
		}
		glog.V(4).Infof("node %q is %s, attempt %d", name, node.State, attempt)
		return node.State == NodeStateRunning, nil
	})
	if err != nil && err != wait.ErrWaitTimeout {
		return nil, err
	}
	return last, nil
}

// WaitForRunningBalancer is WaitForRunningNode for balancers.
func WaitForRunningBalancer(ctx context.Context, lb LoadBalancer, name string, opts WaitOptions) (*Balancer, error) {
	opts = opts.withDefaults()

	var last *Balancer
	attempt := 0
	err := wait.PollImmediate(opts.Interval, opts.Timeout, func() (bool, error) {
		attempt++
		balancer, err := FindBalancer(ctx, lb, name)
		if err != nil {
			return false, err
		}
		last = balancer
		if balancer == nil {
			glog.V(4).Infof("balancer %q not listed yet, attempt %d", name, attempt)
			return false, nil
		}
		glog.V(4).Infof("balancer %q is %s, attempt %d", name, balancer.State, attempt)
		return balancer.State == BalancerStateRunning, nil
	})
	if err != nil && err != wait.ErrWaitTimeout {
		return nil, err
	}
	return last, nil
}
