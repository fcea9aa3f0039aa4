package linode

import (
	"context"
	"net"
	"strconv"

	"github.com/appscode/go/types"
	"github.com/golang/glog"
	"github.com/linode/linodego"
	"github.com/pharmer/cloudcli/cloud"
	"github.com/pkg/errors"
)

var errNoConfig = errors.New("nodebalancer has no config")

// A NodeBalancer carries one config per port. Balancers created here have a
// single config, and members are the nodes of the first config.

func (conn *cloudConnector) Protocols() []string {
	return []string{string(linodego.ProtocolHTTP), string(linodego.ProtocolHTTPS), string(linodego.ProtocolTCP)}
}

func (conn *cloudConnector) ListBalancers(ctx context.Context) ([]cloud.Balancer, error) {
	lbs, err := conn.client.ListNodeBalancers(ctx, nil)
	if err != nil {
		return nil, wrap(err, "failed to list nodebalancers")
	}
	out := make([]cloud.Balancer, 0, len(lbs))
	for _, lb := range lbs {
		config, err := conn.firstConfig(ctx, lb.ID)
		if err != nil && err != errNoConfig {
			return nil, err
		}
		out = append(out, toBalancer(lb, config))
	}
	return out, nil
}

func (conn *cloudConnector) CreateBalancer(ctx context.Context, req cloud.BalancerRequest) (*cloud.Balancer, error) {
	region := req.Location
	if region == "" {
		region = conn.region
	}
	connThrottle := 20
	nb, err := conn.client.CreateNodeBalancer(ctx, linodego.NodeBalancerCreateOptions{
		Label:              types.StringP(req.Name),
		Region:             region,
		ClientConnThrottle: &connThrottle,
	})
	if err != nil {
		return nil, wrap(err, "failed to create nodebalancer")
	}

	config, err := conn.client.CreateNodeBalancerConfig(ctx, nb.ID, linodego.NodeBalancerConfigCreateOptions{
		Port:          req.Port,
		Protocol:      linodego.ConfigProtocol(req.Protocol),
		Algorithm:     toAlgorithm(req.Algorithm),
		Stickiness:    linodego.StickinessTable,
		Check:         linodego.CheckConnection,
		CheckInterval: 5,
		CheckTimeout:  3,
		CheckAttempts: 10,
		CheckPassive:  types.BoolP(true),
	})
	if err != nil {
		return nil, wrap(err, "failed to create nodebalancer config")
	}

	for _, m := range req.Members {
		if _, err := conn.createNode(ctx, nb.ID, config.ID, m.Address(), m.Address()); err != nil {
			return nil, err
		}
	}
	glog.V(2).Infof("nodebalancer %q created with %d members", req.Name, len(req.Members))

	lb := toBalancer(*nb, config)
	return &lb, nil
}

func (conn *cloudConnector) DestroyBalancer(ctx context.Context, lb cloud.Balancer) error {
	id, err := strconv.Atoi(lb.ID)
	if err != nil {
		return errors.Wrapf(err, "invalid nodebalancer id %q", lb.ID)
	}
	if err := conn.client.DeleteNodeBalancer(ctx, id); err != nil {
		return wrap(err, "failed to delete nodebalancer")
	}
	return nil
}

func (conn *cloudConnector) ListMembers(ctx context.Context, lb cloud.Balancer) ([]cloud.Member, error) {
	id, config, err := conn.balancerConfig(ctx, lb)
	if err != nil {
		return nil, err
	}
	nodes, err := conn.client.ListNodeBalancerNodes(ctx, id, config.ID, nil)
	if err != nil {
		return nil, wrap(err, "failed to list nodebalancer nodes")
	}
	members := make([]cloud.Member, 0, len(nodes))
	for _, n := range nodes {
		members = append(members, toMember(n))
	}
	return members, nil
}

func (conn *cloudConnector) AttachMember(ctx context.Context, lb cloud.Balancer, member cloud.Member) (*cloud.Member, error) {
	id, config, err := conn.balancerConfig(ctx, lb)
	if err != nil {
		return nil, err
	}
	return conn.createNode(ctx, id, config.ID, member.Address(), member.Address())
}

// AttachNode adds the node by its private address, the only one a
// NodeBalancer can reach.
func (conn *cloudConnector) AttachNode(ctx context.Context, lb cloud.Balancer, node cloud.Node) (*cloud.Member, error) {
	id, config, err := conn.balancerConfig(ctx, lb)
	if err != nil {
		return nil, err
	}
	ips := node.PrivateIPs
	if len(ips) == 0 {
		ips = node.PublicIPs
	}
	if len(ips) == 0 {
		return nil, errors.Errorf("node %s has no address", node.Name)
	}
	address := net.JoinHostPort(ips[0], strconv.Itoa(config.Port))
	return conn.createNode(ctx, id, config.ID, node.Name, address)
}

func (conn *cloudConnector) DetachMember(ctx context.Context, lb cloud.Balancer, member cloud.Member) error {
	id, config, err := conn.balancerConfig(ctx, lb)
	if err != nil {
		return err
	}
	nodeID, err := strconv.Atoi(member.ID)
	if err != nil {
		return errors.Wrapf(err, "invalid nodebalancer node id %q", member.ID)
	}
	if err := conn.client.DeleteNodeBalancerNode(ctx, id, config.ID, nodeID); err != nil {
		return wrap(err, "failed to delete nodebalancer node")
	}
	return nil
}

func (conn *cloudConnector) createNode(ctx context.Context, nbID, configID int, label, address string) (*cloud.Member, error) {
	n, err := conn.client.CreateNodeBalancerNode(ctx, nbID, configID, linodego.NodeBalancerNodeCreateOptions{
		Address: address,
		Label:   nodeLabel(label),
		Weight:  100,
		Mode:    linodego.ModeAccept,
	})
	if err != nil {
		return nil, wrap(err, "failed to create nodebalancer node")
	}
	member := toMember(*n)
	return &member, nil
}

func (conn *cloudConnector) balancerConfig(ctx context.Context, lb cloud.Balancer) (int, *linodego.NodeBalancerConfig, error) {
	id, err := strconv.Atoi(lb.ID)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "invalid nodebalancer id %q", lb.ID)
	}
	config, err := conn.firstConfig(ctx, id)
	if err != nil {
		return 0, nil, err
	}
	return id, config, nil
}

func (conn *cloudConnector) firstConfig(ctx context.Context, nbID int) (*linodego.NodeBalancerConfig, error) {
	configs, err := conn.client.ListNodeBalancerConfigs(ctx, nbID, nil)
	if err != nil {
		return nil, wrap(err, "failed to list nodebalancer configs")
	}
	if len(configs) == 0 {
		return nil, errNoConfig
	}
	return &configs[0], nil
}

// nodeLabel fits a label into the 3 to 32 characters Linode accepts.
func nodeLabel(s string) string {
	if len(s) > 32 {
		s = s[:32]
	}
	for len(s) < 3 {
		s += "-"
	}
	return s
}

func toBalancer(nb linodego.NodeBalancer, config *linodego.NodeBalancerConfig) cloud.Balancer {
	lb := cloud.Balancer{
		ID:    strconv.Itoa(nb.ID),
		State: cloud.BalancerStateRunning,
		Extra: map[string]string{
			"region": nb.Region,
		},
	}
	if nb.Label != nil {
		lb.Name = *nb.Label
	}
	if nb.IPv4 != nil {
		lb.IP = *nb.IPv4
	}
	if nb.Hostname != nil {
		lb.Extra["hostname"] = *nb.Hostname
	}
	if config != nil {
		lb.Port = config.Port
		lb.Extra["protocol"] = string(config.Protocol)
		lb.Extra["algorithm"] = string(config.Algorithm)
	}
	return lb
}

func toMember(n linodego.NodeBalancerNode) cloud.Member {
	m := cloud.Member{
		ID:         strconv.Itoa(n.ID),
		BalancerID: strconv.Itoa(n.NodeBalancerID),
		Extra: map[string]string{
			"label":  n.Label,
			"status": n.Status,
		},
	}
	host, port, err := net.SplitHostPort(n.Address)
	if err != nil {
		m.IP = n.Address
		return m
	}
	m.IP = host
	m.Port, _ = strconv.Atoi(port)
	return m
}

func toAlgorithm(a cloud.Algorithm) linodego.ConfigAlgorithm {
	switch a {
	case cloud.AlgorithmLeastConnections:
		return linodego.AlgorithmLeastConn
	case cloud.AlgorithmSourceIP:
		return linodego.AlgorithmSource
	}
	return linodego.AlgorithmRoundRobin
}
