package digitalocean

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/digitalocean/godo"
	"github.com/onsi/gomega"
	"github.com/pharmer/cloudcli/cloud"
	"github.com/pkg/errors"
)

func TestToNode(t *testing.T) {
	g := gomega.NewGomegaWithT(t)

	node := toNode(godo.Droplet{
		ID:       42,
		Name:     "web",
		Status:   "active",
		SizeSlug: "s-1vcpu-1gb",
		Image:    &godo.Image{ID: 7, Slug: "ubuntu-22-04-x64"},
		Region:   &godo.Region{Slug: "nyc3"},
		Networks: &godo.Networks{
			V4: []godo.NetworkV4{
				{IPAddress: "203.0.113.10", Type: "public"},
				{IPAddress: "10.0.0.10", Type: "private"},
			},
		},
	})
	g.Expect(node).To(gomega.Equal(cloud.Node{
		ID:         "42",
		Name:       "web",
		State:      cloud.NodeStateRunning,
		PublicIPs:  []string{"203.0.113.10"},
		PrivateIPs: []string{"10.0.0.10"},
		Size:       "s-1vcpu-1gb",
		Image:      "ubuntu-22-04-x64",
		Extra:      map[string]string{"region": "nyc3"},
	}))
}

func TestStates(t *testing.T) {
	tests := []struct {
		status string
		node   cloud.NodeState
		lb     cloud.BalancerState
	}{
		{status: "active", node: cloud.NodeStateRunning, lb: cloud.BalancerStateRunning},
		{status: "new", node: cloud.NodeStatePending, lb: cloud.BalancerStatePending},
		{status: "off", node: cloud.NodeStateStopped, lb: cloud.BalancerStateUnknown},
		{status: "archive", node: cloud.NodeStateTerminated, lb: cloud.BalancerStateUnknown},
		{status: "errored", node: cloud.NodeStateUnknown, lb: cloud.BalancerStateError},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := toNodeState(tt.status); got != tt.node {
				t.Errorf("toNodeState(%q) = %v, want %v", tt.status, got, tt.node)
			}
			if got := toBalancerState(tt.status); got != tt.lb {
				t.Errorf("toBalancerState(%q) = %v, want %v", tt.status, got, tt.lb)
			}
		})
	}
}

func TestToBalancer(t *testing.T) {
	g := gomega.NewGomegaWithT(t)

	lb := godo.LoadBalancer{
		ID:        "lb-1",
		Name:      "front",
		IP:        "198.51.100.1",
		Algorithm: "least_connections",
		Status:    "new",
		ForwardingRules: []godo.ForwardingRule{
			{EntryProtocol: "http", EntryPort: 80, TargetProtocol: "http", TargetPort: 8080},
		},
	}
	b := toBalancer(lb)
	g.Expect(b.Port).To(gomega.Equal(80))
	g.Expect(b.State).To(gomega.Equal(cloud.BalancerStatePending))
	g.Expect(b.Extra).To(gomega.HaveKeyWithValue("protocol", "http"))
	g.Expect(targetPort(lb)).To(gomega.Equal(8080))
	g.Expect(toAlgorithm(cloud.AlgorithmLeastConnections)).To(gomega.Equal("least_connections"))
	g.Expect(toAlgorithm(cloud.AlgorithmRandom)).To(gomega.Equal("round_robin"))
}

func TestToRecord(t *testing.T) {
	g := gomega.NewGomegaWithT(t)

	zone := cloud.Zone{ID: "example.com", Domain: "example.com"}
	r := toRecord(zone, godo.DomainRecord{ID: 9, Type: "MX", Name: "@", Data: "mail.example.com", Priority: 10, TTL: 1800})
	g.Expect(r.ID).To(gomega.Equal("9"))
	g.Expect(r.Type).To(gomega.Equal(cloud.RecordTypeMX))
	g.Expect(r.ZoneDomain).To(gomega.Equal("example.com"))
	g.Expect(r.Extra).To(gomega.Equal(map[string]string{"priority": "10"}))
}

func TestDropletIDByIP(t *testing.T) {
	droplets := []godo.Droplet{
		{ID: 1, Networks: &godo.Networks{V4: []godo.NetworkV4{{IPAddress: "10.0.0.1", Type: "private"}}}},
		{ID: 2, Networks: &godo.Networks{V4: []godo.NetworkV4{{IPAddress: "10.0.0.1", Type: "public"}}}},
		{ID: 3},
	}
	id, found := dropletIDByIP(droplets, "10.0.0.1")
	if !found || id != 2 {
		t.Errorf("dropletIDByIP() = %d, %v", id, found)
	}
	if _, found := dropletIDByIP(droplets, "10.0.0.9"); found {
		t.Error("dropletIDByIP() found an unknown address")
	}
}

func TestWrap(t *testing.T) {
	g := gomega.NewGomegaWithT(t)

	unauthorized := &godo.ErrorResponse{
		Response: &http.Response{
			StatusCode: http.StatusUnauthorized,
			Request:    &http.Request{Method: http.MethodGet, URL: &url.URL{Path: "/v2/droplets"}},
		},
		Message: "Unable to authenticate you",
	}
	g.Expect(cloud.IsInvalidCredentials(wrap(unauthorized, "failed to list droplets"))).To(gomega.BeTrue())

	other := errors.New("connection reset")
	err := wrap(other, "failed to list droplets")
	g.Expect(cloud.IsInvalidCredentials(err)).To(gomega.BeFalse())
	g.Expect(err).To(gomega.MatchError("failed to list droplets: connection reset"))
}

func TestNewConnector(t *testing.T) {
	_, err := NewConnector(cloud.Credentials{})
	if !cloud.IsInvalidCredentials(err) {
		t.Errorf("NewConnector() error = %v, want invalid credentials", err)
	}
	conn, err := NewConnector(cloud.Credentials{Key: "token"})
	if err != nil {
		t.Fatal(err)
	}
	if conn.region != defaultRegion {
		t.Errorf("region = %q", conn.region)
	}
}
