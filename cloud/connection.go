package cloud

import (
	"github.com/golang/glog"
)

// Connection holds the three service handles of one provider. It is built once
// per command invocation and never refreshed.
type Connection struct {
	Provider string
	User     string
	Key      string

	DNS          DNS
	LoadBalancer LoadBalancer
	Compute      Compute
}

// Connect resolves the DNS, load balancer and compute drivers registered for
// provider. A failure in any category aborts the whole connection.
func Connect(provider string, cred Credentials) (*Connection, error) {
	conn := &Connection{
		Provider: provider,
		User:     cred.User,
		Key:      cred.Key,
	}

	var err error
	if conn.DNS, err = NewDNS(provider, cred); err != nil {
		return nil, err
	}
	if conn.LoadBalancer, err = NewLoadBalancer(provider, cred); err != nil {
		return nil, err
	}
	if conn.Compute, err = NewCompute(provider, cred); err != nil {
		return nil, err
	}
	glog.V(2).Infof("connected to provider %q as %q", provider, cred.User)
	return conn, nil
}
