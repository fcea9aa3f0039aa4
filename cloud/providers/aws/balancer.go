package aws

import (
	"context"
	"strings"

	"github.com/appscode/go/types"
	_ec2 "github.com/aws/aws-sdk-go/service/ec2"
	_elb "github.com/aws/aws-sdk-go/service/elb"
	"github.com/pharmer/cloudcli/cloud"
	"github.com/pkg/errors"

	_aws "github.com/aws/aws-sdk-go/aws"
)

// Classic ELBs are addressed by name and forward to instances, so a member is
// an instance and its IP is the instance's private address.

func (conn *cloudConnector) Protocols() []string {
	return []string{"http", "https", "tcp", "ssl"}
}

func (conn *cloudConnector) ListBalancers(ctx context.Context) ([]cloud.Balancer, error) {
	lbs := []cloud.Balancer{}
	err := conn.elb.DescribeLoadBalancersPagesWithContext(ctx, &_elb.DescribeLoadBalancersInput{},
		func(page *_elb.DescribeLoadBalancersOutput, lastPage bool) bool {
			for _, d := range page.LoadBalancerDescriptions {
				lbs = append(lbs, toBalancer(d))
			}
			return true
		})
	if err != nil {
		return nil, wrap(err, "failed to describe load balancers")
	}
	return lbs, nil
}

func (conn *cloudConnector) CreateBalancer(ctx context.Context, req cloud.BalancerRequest) (*cloud.Balancer, error) {
	instancePort := req.Port
	for _, m := range req.Members {
		if m.Port != 0 {
			instancePort = m.Port
		}
	}
	zones, err := conn.availabilityZones(ctx)
	if err != nil {
		return nil, err
	}
	protocol := strings.ToUpper(req.Protocol)
	out, err := conn.elb.CreateLoadBalancerWithContext(ctx, &_elb.CreateLoadBalancerInput{
		LoadBalancerName: types.StringP(req.Name),
		Listeners: []*_elb.Listener{
			{
				Protocol:         types.StringP(protocol),
				LoadBalancerPort: _aws.Int64(int64(req.Port)),
				InstanceProtocol: types.StringP(protocol),
				InstancePort:     _aws.Int64(int64(instancePort)),
			},
		},
		AvailabilityZones: zones,
	})
	if err != nil {
		return nil, wrap(err, "failed to create load balancer")
	}

	if len(req.Members) > 0 {
		ips := make([]string, 0, len(req.Members))
		for _, m := range req.Members {
			ips = append(ips, m.IP)
		}
		instances, err := conn.instancesByIP(ctx, ips...)
		if err != nil {
			return nil, err
		}
		if err := conn.register(ctx, req.Name, instances...); err != nil {
			return nil, err
		}
	}

	return &cloud.Balancer{
		ID:    req.Name,
		Name:  req.Name,
		State: cloud.BalancerStateRunning,
		IP:    _aws.StringValue(out.DNSName),
		Port:  req.Port,
		Extra: map[string]string{
			"protocol": req.Protocol,
		},
	}, nil
}

func (conn *cloudConnector) DestroyBalancer(ctx context.Context, lb cloud.Balancer) error {
	_, err := conn.elb.DeleteLoadBalancerWithContext(ctx, &_elb.DeleteLoadBalancerInput{
		LoadBalancerName: types.StringP(lb.ID),
	})
	if err != nil {
		return wrap(err, "failed to delete load balancer")
	}
	return nil
}

func (conn *cloudConnector) ListMembers(ctx context.Context, lb cloud.Balancer) ([]cloud.Member, error) {
	out, err := conn.elb.DescribeLoadBalancersWithContext(ctx, &_elb.DescribeLoadBalancersInput{
		LoadBalancerNames: []*string{types.StringP(lb.ID)},
	})
	if err != nil {
		return nil, wrap(err, "failed to describe load balancer")
	}
	if len(out.LoadBalancerDescriptions) == 0 {
		return nil, errors.Errorf("load balancer %s does not exist", lb.ID)
	}
	d := out.LoadBalancerDescriptions[0]
	if len(d.Instances) == 0 {
		return []cloud.Member{}, nil
	}

	ids := make([]*string, 0, len(d.Instances))
	for _, i := range d.Instances {
		ids = append(ids, i.InstanceId)
	}
	instances, err := conn.describeInstances(ctx, &_ec2.DescribeInstancesInput{InstanceIds: ids})
	if err != nil {
		return nil, err
	}
	port := instancePort(d)
	members := make([]cloud.Member, 0, len(instances))
	for _, i := range instances {
		members = append(members, cloud.Member{
			ID:         _aws.StringValue(i.InstanceId),
			IP:         _aws.StringValue(i.PrivateIpAddress),
			Port:       port,
			BalancerID: lb.ID,
		})
	}
	return members, nil
}

func (conn *cloudConnector) AttachMember(ctx context.Context, lb cloud.Balancer, member cloud.Member) (*cloud.Member, error) {
	instances, err := conn.instancesByIP(ctx, member.IP)
	if err != nil {
		return nil, err
	}
	if err := conn.register(ctx, lb.ID, instances...); err != nil {
		return nil, err
	}
	member.ID = _aws.StringValue(instances[0].InstanceId)
	member.BalancerID = lb.ID
	return &member, nil
}

func (conn *cloudConnector) AttachNode(ctx context.Context, lb cloud.Balancer, node cloud.Node) (*cloud.Member, error) {
	err := conn.register(ctx, lb.ID, &_ec2.Instance{InstanceId: types.StringP(node.ID)})
	if err != nil {
		return nil, err
	}
	member := &cloud.Member{
		ID:         node.ID,
		Port:       lb.Port,
		BalancerID: lb.ID,
	}
	if len(node.PrivateIPs) > 0 {
		member.IP = node.PrivateIPs[0]
	}
	return member, nil
}

func (conn *cloudConnector) DetachMember(ctx context.Context, lb cloud.Balancer, member cloud.Member) error {
	_, err := conn.elb.DeregisterInstancesFromLoadBalancerWithContext(ctx, &_elb.DeregisterInstancesFromLoadBalancerInput{
		LoadBalancerName: types.StringP(lb.ID),
		Instances:        []*_elb.Instance{{InstanceId: types.StringP(member.ID)}},
	})
	if err != nil {
		return wrap(err, "failed to deregister instance")
	}
	return nil
}

func (conn *cloudConnector) register(ctx context.Context, lbName string, instances ...*_ec2.Instance) error {
	targets := make([]*_elb.Instance, 0, len(instances))
	for _, i := range instances {
		targets = append(targets, &_elb.Instance{InstanceId: i.InstanceId})
	}
	_, err := conn.elb.RegisterInstancesWithLoadBalancerWithContext(ctx, &_elb.RegisterInstancesWithLoadBalancerInput{
		LoadBalancerName: types.StringP(lbName),
		Instances:        targets,
	})
	if err != nil {
		return wrap(err, "failed to register instances")
	}
	return nil
}

// instancesByIP resolves each address, public or private, to its instance.
func (conn *cloudConnector) instancesByIP(ctx context.Context, ips ...string) ([]*_ec2.Instance, error) {
	values := make([]*string, 0, len(ips))
	for _, ip := range ips {
		values = append(values, types.StringP(ip))
	}
	found := map[string]*_ec2.Instance{}
	for _, filter := range []string{"ip-address", "private-ip-address"} {
		instances, err := conn.describeInstances(ctx, &_ec2.DescribeInstancesInput{
			Filters: []*_ec2.Filter{{Name: types.StringP(filter), Values: values}},
		})
		if err != nil {
			return nil, err
		}
		for _, i := range instances {
			found[_aws.StringValue(i.PublicIpAddress)] = i
			found[_aws.StringValue(i.PrivateIpAddress)] = i
		}
	}
	out := make([]*_ec2.Instance, 0, len(ips))
	for _, ip := range ips {
		i, ok := found[ip]
		if !ok {
			return nil, errors.Errorf("no instance has address %s", ip)
		}
		out = append(out, i)
	}
	return out, nil
}

func (conn *cloudConnector) availabilityZones(ctx context.Context) ([]*string, error) {
	out, err := conn.ec2.DescribeAvailabilityZonesWithContext(ctx, &_ec2.DescribeAvailabilityZonesInput{
		Filters: []*_ec2.Filter{{Name: types.StringP("state"), Values: []*string{types.StringP("available")}}},
	})
	if err != nil {
		return nil, wrap(err, "failed to describe availability zones")
	}
	zones := make([]*string, 0, len(out.AvailabilityZones))
	for _, z := range out.AvailabilityZones {
		zones = append(zones, z.ZoneName)
	}
	return zones, nil
}

func toBalancer(d *_elb.LoadBalancerDescription) cloud.Balancer {
	lb := cloud.Balancer{
		ID:    _aws.StringValue(d.LoadBalancerName),
		Name:  _aws.StringValue(d.LoadBalancerName),
		State: cloud.BalancerStateRunning,
		IP:    _aws.StringValue(d.DNSName),
		Extra: map[string]string{
			"scheme": _aws.StringValue(d.Scheme),
		},
	}
	if len(d.ListenerDescriptions) > 0 && d.ListenerDescriptions[0].Listener != nil {
		l := d.ListenerDescriptions[0].Listener
		lb.Port = int(_aws.Int64Value(l.LoadBalancerPort))
		lb.Extra["protocol"] = strings.ToLower(_aws.StringValue(l.Protocol))
	}
	return lb
}

func instancePort(d *_elb.LoadBalancerDescription) int {
	if len(d.ListenerDescriptions) == 0 || d.ListenerDescriptions[0].Listener == nil {
		return 0
	}
	return int(_aws.Int64Value(d.ListenerDescriptions[0].Listener.InstancePort))
}
