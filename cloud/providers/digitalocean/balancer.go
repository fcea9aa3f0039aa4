package digitalocean

import (
	"context"
	"strconv"

	"github.com/digitalocean/godo"
	"github.com/pharmer/cloudcli/cloud"
	"github.com/pkg/errors"
)

// DigitalOcean balancers forward to droplets, so members are droplets
// addressed by their public IPv4 and the target port of the first rule.

func (conn *cloudConnector) Protocols() []string {
	return []string{"http", "https", "http2", "tcp"}
}

func (conn *cloudConnector) ListBalancers(ctx context.Context) ([]cloud.Balancer, error) {
	lbs, err := listAll(ctx, conn.client.LoadBalancers.List)
	if err != nil {
		return nil, wrap(err, "failed to list load balancers")
	}
	out := make([]cloud.Balancer, 0, len(lbs))
	for _, lb := range lbs {
		out = append(out, toBalancer(lb))
	}
	return out, nil
}

func (conn *cloudConnector) CreateBalancer(ctx context.Context, req cloud.BalancerRequest) (*cloud.Balancer, error) {
	targetPort := req.Port
	ips := make([]string, 0, len(req.Members))
	for _, m := range req.Members {
		ips = append(ips, m.IP)
		if m.Port != 0 {
			targetPort = m.Port
		}
	}
	dropletIDs, err := conn.dropletIDsByIP(ctx, ips...)
	if err != nil {
		return nil, err
	}

	region := req.Location
	if region == "" {
		region = conn.region
	}
	lb, _, err := conn.client.LoadBalancers.Create(ctx, &godo.LoadBalancerRequest{
		Name:      req.Name,
		Algorithm: toAlgorithm(req.Algorithm),
		Region:    region,
		ForwardingRules: []godo.ForwardingRule{
			{
				EntryProtocol:  req.Protocol,
				EntryPort:      req.Port,
				TargetProtocol: req.Protocol,
				TargetPort:     targetPort,
			},
		},
		DropletIDs: dropletIDs,
	})
	if err != nil {
		return nil, wrap(err, "failed to create load balancer")
	}
	balancer := toBalancer(*lb)
	return &balancer, nil
}

func (conn *cloudConnector) DestroyBalancer(ctx context.Context, lb cloud.Balancer) error {
	if _, err := conn.client.LoadBalancers.Delete(ctx, lb.ID); err != nil {
		return wrap(err, "failed to delete load balancer")
	}
	return nil
}

func (conn *cloudConnector) ListMembers(ctx context.Context, lb cloud.Balancer) ([]cloud.Member, error) {
	l, _, err := conn.client.LoadBalancers.Get(ctx, lb.ID)
	if err != nil {
		return nil, wrap(err, "failed to get load balancer")
	}
	members := make([]cloud.Member, 0, len(l.DropletIDs))
	for _, id := range l.DropletIDs {
		d, _, err := conn.client.Droplets.Get(ctx, id)
		if err != nil {
			return nil, wrap(err, "failed to get droplet")
		}
		ip, _ := d.PublicIPv4()
		members = append(members, cloud.Member{
			ID:         strconv.Itoa(d.ID),
			IP:         ip,
			Port:       targetPort(*l),
			BalancerID: l.ID,
		})
	}
	return members, nil
}

func (conn *cloudConnector) AttachMember(ctx context.Context, lb cloud.Balancer, member cloud.Member) (*cloud.Member, error) {
	ids, err := conn.dropletIDsByIP(ctx, member.IP)
	if err != nil {
		return nil, err
	}
	if _, err := conn.client.LoadBalancers.AddDroplets(ctx, lb.ID, ids...); err != nil {
		return nil, wrap(err, "failed to add droplet to load balancer")
	}
	member.ID = strconv.Itoa(ids[0])
	member.BalancerID = lb.ID
	return &member, nil
}

func (conn *cloudConnector) AttachNode(ctx context.Context, lb cloud.Balancer, node cloud.Node) (*cloud.Member, error) {
	id, err := strconv.Atoi(node.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid droplet id %q", node.ID)
	}
	if _, err := conn.client.LoadBalancers.AddDroplets(ctx, lb.ID, id); err != nil {
		return nil, wrap(err, "failed to add droplet to load balancer")
	}
	member := &cloud.Member{
		ID:         node.ID,
		Port:       lb.Port,
		BalancerID: lb.ID,
	}
	if len(node.PublicIPs) > 0 {
		member.IP = node.PublicIPs[0]
	}
	return member, nil
}

func (conn *cloudConnector) DetachMember(ctx context.Context, lb cloud.Balancer, member cloud.Member) error {
	id, err := strconv.Atoi(member.ID)
	if err != nil {
		return errors.Wrapf(err, "invalid droplet id %q", member.ID)
	}
	if _, err := conn.client.LoadBalancers.RemoveDroplets(ctx, lb.ID, id); err != nil {
		return wrap(err, "failed to remove droplet from load balancer")
	}
	return nil
}

func (conn *cloudConnector) dropletIDsByIP(ctx context.Context, ips ...string) ([]int, error) {
	if len(ips) == 0 {
		return nil, nil
	}
	droplets, err := listAll(ctx, conn.client.Droplets.List)
	if err != nil {
		return nil, wrap(err, "failed to list droplets")
	}
	ids := make([]int, 0, len(ips))
	for _, ip := range ips {
		id, found := dropletIDByIP(droplets, ip)
		if !found {
			return nil, errors.Errorf("no droplet has public address %s", ip)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func dropletIDByIP(droplets []godo.Droplet, ip string) (int, bool) {
	for _, d := range droplets {
		if d.Networks == nil {
			continue
		}
		for _, n := range d.Networks.V4 {
			if n.Type == "public" && n.IPAddress == ip {
				return d.ID, true
			}
		}
	}
	return 0, false
}

func toBalancer(lb godo.LoadBalancer) cloud.Balancer {
	b := cloud.Balancer{
		ID:    lb.ID,
		Name:  lb.Name,
		State: toBalancerState(lb.Status),
		IP:    lb.IP,
		Extra: map[string]string{
			"algorithm": lb.Algorithm,
		},
	}
	if len(lb.ForwardingRules) > 0 {
		b.Port = lb.ForwardingRules[0].EntryPort
		b.Extra["protocol"] = lb.ForwardingRules[0].EntryProtocol
	}
	if lb.Region != nil {
		b.Extra["region"] = lb.Region.Slug
	}
	return b
}

func targetPort(lb godo.LoadBalancer) int {
	if len(lb.ForwardingRules) == 0 {
		return 0
	}
	return lb.ForwardingRules[0].TargetPort
}

func toBalancerState(status string) cloud.BalancerState {
	switch status {
	case "active":
		return cloud.BalancerStateRunning
	case "new":
		return cloud.BalancerStatePending
	case "errored":
		return cloud.BalancerStateError
	}
	return cloud.BalancerStateUnknown
}

func toAlgorithm(a cloud.Algorithm) string {
	if a == cloud.AlgorithmLeastConnections {
		return "least_connections"
	}
	return "round_robin"
}
