package linode

import (
	"net"
	"net/http"

	"github.com/golang/glog"
	"github.com/linode/linodego"
	"github.com/pharmer/cloudcli/cloud"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const (
	UID           = "linode"
	defaultRegion = "us-east"
)

func init() {
	cloud.RegisterDNS(UID, func(cred cloud.Credentials) (cloud.DNS, error) { return newconnector(cred) })
	cloud.RegisterLoadBalancer(UID, func(cred cloud.Credentials) (cloud.LoadBalancer, error) { return newconnector(cred) })
	cloud.RegisterCompute(UID, func(cred cloud.Credentials) (cloud.Compute, error) { return newconnector(cred) })
}

type cloudConnector struct {
	client *linodego.Client
	region string
	// soaEmail is required by Linode for master zones.
	soaEmail string
}

var _ cloud.DNS = &cloudConnector{}
var _ cloud.LoadBalancer = &cloudConnector{}
var _ cloud.Compute = &cloudConnector{}

func newconnector(cred cloud.Credentials) (*cloudConnector, error) {
	if cred.Key == "" {
		return nil, cloud.ErrInvalidCredentials
	}
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cred.Key})

	oauth2Client := &http.Client{
		Transport: &oauth2.Transport{
			Source: tokenSource,
		},
	}

	c := linodego.NewClient(oauth2Client)

	region := cred.Location
	if region == "" {
		region = defaultRegion
	}
	return &cloudConnector{
		client:   &c,
		region:   region,
		soaEmail: cred.User,
	}, nil
}

func wrap(err error, msg string) error {
	if e, ok := err.(*linodego.Error); ok && (e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden) {
		glog.V(2).Infof("linode rejected credentials: %v", e)
		return errors.Wrap(cloud.ErrInvalidCredentials, msg)
	}
	return errors.Wrap(err, msg)
}

// splitIPs separates the public addresses of an instance from its private
// (192.168.128.0/17) ones.
func splitIPs(ips []*net.IP) (public, private []string) {
	public, private = []string{}, []string{}
	for _, ip := range ips {
		if ip == nil {
			continue
		}
		if ip.IsPrivate() {
			private = append(private, ip.String())
		} else {
			public = append(public, ip.String())
		}
	}
	return public, private
}
