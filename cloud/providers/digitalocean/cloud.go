package digitalocean

import (
	"context"
	"net/http"

	"github.com/digitalocean/godo"
	"github.com/golang/glog"
	"github.com/pharmer/cloudcli/cloud"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const (
	UID           = "digitalocean"
	defaultRegion = "nyc3"
)

func init() {
	cloud.RegisterDNS(UID, func(cred cloud.Credentials) (cloud.DNS, error) { return NewConnector(cred) })
	cloud.RegisterLoadBalancer(UID, func(cred cloud.Credentials) (cloud.LoadBalancer, error) { return NewConnector(cred) })
	cloud.RegisterCompute(UID, func(cred cloud.Credentials) (cloud.Compute, error) { return NewConnector(cred) })
}

type cloudConnector struct {
	client *godo.Client
	region string
}

var _ cloud.DNS = &cloudConnector{}
var _ cloud.LoadBalancer = &cloudConnector{}
var _ cloud.Compute = &cloudConnector{}

// NewConnector authenticates with the API token in cred.Key. No request is
// made until the first call.
func NewConnector(cred cloud.Credentials) (*cloudConnector, error) {
	if cred.Key == "" {
		return nil, cloud.ErrInvalidCredentials
	}
	oauthClient := &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cred.Key}),
		},
	}
	region := cred.Location
	if region == "" {
		region = defaultRegion
	}
	return &cloudConnector{
		client: godo.NewClient(oauthClient),
		region: region,
	}, nil
}

// wrap maps authentication failures onto cloud.ErrInvalidCredentials.
func wrap(err error, msg string) error {
	if e, ok := err.(*godo.ErrorResponse); ok && e.Response != nil {
		if e.Response.StatusCode == http.StatusUnauthorized || e.Response.StatusCode == http.StatusForbidden {
			glog.V(2).Infof("digitalocean rejected credentials: %v", e)
			return errors.Wrap(cloud.ErrInvalidCredentials, msg)
		}
	}
	return errors.Wrap(err, msg)
}

// listAll follows the pagination links of a godo list call.
func listAll[T any](ctx context.Context, list func(context.Context, *godo.ListOptions) ([]T, *godo.Response, error)) ([]T, error) {
	all := []T{}
	opt := &godo.ListOptions{PerPage: 200}
	for {
		items, resp, err := list(ctx, opt)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if resp == nil || resp.Links == nil || resp.Links.IsLastPage() {
			return all, nil
		}
		page, err := resp.Links.CurrentPage()
		if err != nil {
			return nil, err
		}
		opt.Page = page + 1
	}
}
