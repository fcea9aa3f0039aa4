package aws

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/appscode/go/types"
	_ec2 "github.com/aws/aws-sdk-go/service/ec2"
	"github.com/golang/glog"
	"github.com/pharmer/cloudcli/cloud"
	"github.com/pkg/errors"

	_aws "github.com/aws/aws-sdk-go/aws"
)

var regionCountries = map[string]string{
	"af": "ZA",
	"ap": "",
	"ca": "CA",
	"eu": "EU",
	"me": "",
	"sa": "BR",
	"us": "US",
}

func (conn *cloudConnector) ListLocations(ctx context.Context) ([]cloud.Location, error) {
	out, err := conn.ec2.DescribeRegionsWithContext(ctx, &_ec2.DescribeRegionsInput{})
	if err != nil {
		return nil, wrap(err, "failed to describe regions")
	}
	locations := make([]cloud.Location, 0, len(out.Regions))
	for _, r := range out.Regions {
		name := _aws.StringValue(r.RegionName)
		locations = append(locations, cloud.Location{
			ID:      name,
			Name:    name,
			Country: regionCountries[strings.SplitN(name, "-", 2)[0]],
		})
	}
	return locations, nil
}

func (conn *cloudConnector) ListSizes(ctx context.Context) ([]cloud.Size, error) {
	sizes := []cloud.Size{}
	err := conn.ec2.DescribeInstanceTypesPagesWithContext(ctx, &_ec2.DescribeInstanceTypesInput{},
		func(page *_ec2.DescribeInstanceTypesOutput, lastPage bool) bool {
			for _, it := range page.InstanceTypes {
				sizes = append(sizes, toSize(it))
			}
			return true
		})
	if err != nil {
		return nil, wrap(err, "failed to describe instance types")
	}
	return sizes, nil
}

// ListImages lists the images owned by the account. Public catalogs are far
// too large to scan by name.
func (conn *cloudConnector) ListImages(ctx context.Context) ([]cloud.Image, error) {
	out, err := conn.ec2.DescribeImagesWithContext(ctx, &_ec2.DescribeImagesInput{
		Owners: []*string{types.StringP("self")},
	})
	if err != nil {
		return nil, wrap(err, "failed to describe images")
	}
	images := make([]cloud.Image, 0, len(out.Images))
	for _, i := range out.Images {
		images = append(images, cloud.Image{
			ID:   _aws.StringValue(i.ImageId),
			Name: _aws.StringValue(i.Name),
			Extra: map[string]string{
				"architecture": _aws.StringValue(i.Architecture),
				"state":        _aws.StringValue(i.State),
			},
		})
	}
	return images, nil
}

func (conn *cloudConnector) ListNodes(ctx context.Context) ([]cloud.Node, error) {
	instances, err := conn.describeInstances(ctx, &_ec2.DescribeInstancesInput{})
	if err != nil {
		return nil, err
	}
	nodes := make([]cloud.Node, 0, len(instances))
	for _, i := range instances {
		nodes = append(nodes, toNode(i))
	}
	return nodes, nil
}

func (conn *cloudConnector) CreateNode(ctx context.Context, req cloud.NodeRequest) (*cloud.Node, error) {
	in := &_ec2.RunInstancesInput{
		ImageId:      types.StringP(req.Image.ID),
		InstanceType: types.StringP(req.Size.ID),
		MinCount:     _aws.Int64(1),
		MaxCount:     _aws.Int64(1),
		TagSpecifications: []*_ec2.TagSpecification{
			{
				ResourceType: types.StringP(_ec2.ResourceTypeInstance),
				Tags: []*_ec2.Tag{
					{Key: types.StringP("Name"), Value: types.StringP(req.Name)},
				},
			},
		},
	}
	if conn.zone != "" {
		in.Placement = &_ec2.Placement{AvailabilityZone: types.StringP(conn.zone)}
	}
	if req.Script != "" {
		in.UserData = types.StringP(base64.StdEncoding.EncodeToString([]byte(req.Script)))
	}
	if req.PublicKey != "" {
		keyName, err := conn.ensureKeyPair(ctx, req.PublicKey)
		if err != nil {
			return nil, err
		}
		in.KeyName = types.StringP(keyName)
	}

	r, err := conn.ec2.RunInstancesWithContext(ctx, in)
	if err != nil {
		return nil, wrap(err, "failed to run instance")
	}
	if len(r.Instances) == 0 {
		return nil, errors.New("no instance was launched")
	}
	glog.V(2).Infof("instance %q launched with id %s", req.Name, _aws.StringValue(r.Instances[0].InstanceId))
	node := toNode(r.Instances[0])
	return &node, nil
}

func (conn *cloudConnector) DestroyNode(ctx context.Context, node cloud.Node) error {
	_, err := conn.ec2.TerminateInstancesWithContext(ctx, &_ec2.TerminateInstancesInput{
		InstanceIds: []*string{types.StringP(node.ID)},
	})
	if err != nil {
		return wrap(err, "failed to terminate instance")
	}
	return nil
}

// ensureKeyPair imports the public key under a name derived from its
// fingerprint unless a key pair with that name exists.
func (conn *cloudConnector) ensureKeyPair(ctx context.Context, publicKey string) (string, error) {
	key, err := cloud.ParseSSHKey([]byte(publicKey))
	if err != nil {
		return "", err
	}
	_, err = conn.ec2.DescribeKeyPairsWithContext(ctx, &_ec2.DescribeKeyPairsInput{
		KeyNames: []*string{types.StringP(key.Name())},
	})
	if err == nil {
		return key.Name(), nil
	}
	if !isNotFound(err, "InvalidKeyPair.NotFound") {
		return "", wrap(err, "failed to describe key pairs")
	}
	_, err = conn.ec2.ImportKeyPairWithContext(ctx, &_ec2.ImportKeyPairInput{
		KeyName:           types.StringP(key.Name()),
		PublicKeyMaterial: []byte(key.PublicKey),
	})
	if err != nil {
		return "", wrap(err, "failed to import key pair")
	}
	return key.Name(), nil
}

func (conn *cloudConnector) describeInstances(ctx context.Context, in *_ec2.DescribeInstancesInput) ([]*_ec2.Instance, error) {
	instances := []*_ec2.Instance{}
	err := conn.ec2.DescribeInstancesPagesWithContext(ctx, in, func(page *_ec2.DescribeInstancesOutput, lastPage bool) bool {
		for _, r := range page.Reservations {
			instances = append(instances, r.Instances...)
		}
		return true
	})
	if err != nil {
		return nil, wrap(err, "failed to describe instances")
	}
	return instances, nil
}

func toSize(it *_ec2.InstanceTypeInfo) cloud.Size {
	name := _aws.StringValue(it.InstanceType)
	s := cloud.Size{
		ID:   name,
		Name: name,
	}
	if it.MemoryInfo != nil {
		s.RAM = int(_aws.Int64Value(it.MemoryInfo.SizeInMiB))
	}
	if it.InstanceStorageInfo != nil {
		s.Disk = int(_aws.Int64Value(it.InstanceStorageInfo.TotalSizeInGB))
	}
	return s
}

func toNode(i *_ec2.Instance) cloud.Node {
	node := cloud.Node{
		ID:         _aws.StringValue(i.InstanceId),
		PublicIPs:  []string{},
		PrivateIPs: []string{},
		Size:       _aws.StringValue(i.InstanceType),
		Image:      _aws.StringValue(i.ImageId),
		Extra:      map[string]string{},
		State:      cloud.NodeStateUnknown,
	}
	for _, t := range i.Tags {
		if _aws.StringValue(t.Key) == "Name" {
			node.Name = _aws.StringValue(t.Value)
		}
	}
	if i.State != nil {
		node.State = toNodeState(_aws.StringValue(i.State.Name))
	}
	if ip := _aws.StringValue(i.PublicIpAddress); ip != "" {
		node.PublicIPs = append(node.PublicIPs, ip)
	}
	if ip := _aws.StringValue(i.PrivateIpAddress); ip != "" {
		node.PrivateIPs = append(node.PrivateIPs, ip)
	}
	if i.Placement != nil {
		node.Extra["availability_zone"] = _aws.StringValue(i.Placement.AvailabilityZone)
	}
	if i.KeyName != nil {
		node.Extra["key_name"] = *i.KeyName
	}
	return node
}

func toNodeState(state string) cloud.NodeState {
	switch state {
	case _ec2.InstanceStateNameRunning:
		return cloud.NodeStateRunning
	case _ec2.InstanceStateNamePending:
		return cloud.NodeStatePending
	case _ec2.InstanceStateNameStopping, _ec2.InstanceStateNameStopped:
		return cloud.NodeStateStopped
	case _ec2.InstanceStateNameShuttingDown, _ec2.InstanceStateNameTerminated:
		return cloud.NodeStateTerminated
	}
	return cloud.NodeStateUnknown
}
