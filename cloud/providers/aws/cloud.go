package aws

import (
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	_ec2 "github.com/aws/aws-sdk-go/service/ec2"
	_elb "github.com/aws/aws-sdk-go/service/elb"
	_route53 "github.com/aws/aws-sdk-go/service/route53"
	"github.com/golang/glog"
	"github.com/pharmer/cloudcli/cloud"
	"github.com/pkg/errors"

	_aws "github.com/aws/aws-sdk-go/aws"
)

const (
	UID           = "aws"
	defaultRegion = "us-east-1"
)

func init() {
	cloud.RegisterDNS(UID, func(cred cloud.Credentials) (cloud.DNS, error) { return NewConnector(cred) })
	cloud.RegisterLoadBalancer(UID, func(cred cloud.Credentials) (cloud.LoadBalancer, error) { return NewConnector(cred) })
	cloud.RegisterCompute(UID, func(cred cloud.Credentials) (cloud.Compute, error) { return NewConnector(cred) })
}

type cloudConnector struct {
	region string
	// zone is set when the location names an availability zone.
	zone string

	ec2     *_ec2.EC2
	elb     *_elb.ELB
	route53 *_route53.Route53
}

var _ cloud.DNS = &cloudConnector{}
var _ cloud.LoadBalancer = &cloudConnector{}
var _ cloud.Compute = &cloudConnector{}

// NewConnector uses cred.User as the access key id and cred.Key as the secret
// access key.
func NewConnector(cred cloud.Credentials) (*cloudConnector, error) {
	if cred.User == "" || cred.Key == "" {
		return nil, cloud.ErrInvalidCredentials
	}
	region, zone := splitLocation(cred.Location)
	config := &_aws.Config{
		Region:      &region,
		Credentials: credentials.NewStaticCredentials(cred.User, cred.Key, ""),
	}
	sess, err := session.NewSession(config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create aws session")
	}
	return &cloudConnector{
		region:  region,
		zone:    zone,
		ec2:     _ec2.New(sess),
		elb:     _elb.New(sess),
		route53: _route53.New(sess),
	}, nil
}

// splitLocation accepts a region ("us-east-1") or an availability zone
// ("us-east-1a") and returns the region and the zone, if any.
func splitLocation(location string) (region, zone string) {
	if location == "" {
		return defaultRegion, ""
	}
	n := len(location)
	if n > 1 && location[n-1] >= 'a' && location[n-1] <= 'z' && location[n-2] >= '0' && location[n-2] <= '9' {
		return location[:n-1], location
	}
	return location, ""
}

var authErrorCodes = map[string]bool{
	"AuthFailure":                 true,
	"InvalidAccessKeyId":          true,
	"InvalidClientTokenId":        true,
	"SignatureDoesNotMatch":       true,
	"UnrecognizedClientException": true,
}

func wrap(err error, msg string) error {
	if e, ok := err.(awserr.Error); ok && authErrorCodes[e.Code()] {
		glog.V(2).Infof("aws rejected credentials: %v", e)
		return errors.Wrap(cloud.ErrInvalidCredentials, msg)
	}
	return errors.Wrap(err, msg)
}

func isNotFound(err error, code string) bool {
	e, ok := err.(awserr.Error)
	return ok && e.Code() == code
}
