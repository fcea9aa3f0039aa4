package cmds

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/onsi/gomega"
	"github.com/pharmer/cloudcli/cloud"
	"github.com/pharmer/cloudcli/cloud/providers/fake"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"
)

const acmeConfig = `
[default]
provider = acme

[acme]
user = bob
key = xyz
`

type harness struct {
	t      *testing.T
	fake   *fake.Provider
	config string
	out    bytes.Buffer
	code   int

	connects int
	provider string
	cred     cloud.Credentials
	// realConnect routes connections through the driver registry.
	realConnect bool
}

func newHarness(t *testing.T, config string) *harness {
	return &harness{
		t:      t,
		fake:   fake.NewProvider(),
		config: writeFile(t, "libcloudrc", config),
		code:   -1,
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func publicKeyFile(t *testing.T) string {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		t.Fatal(err)
	}
	return writeFile(t, "id.pub", string(ssh.MarshalAuthorizedKey(sshPub)))
}

func (h *harness) connect(provider string, cred cloud.Credentials) (*cloud.Connection, error) {
	h.connects++
	h.provider, h.cred = provider, cred
	if h.realConnect {
		return cloud.Connect(provider, cred)
	}
	return &cloud.Connection{
		Provider:     provider,
		User:         cred.User,
		Key:          cred.Key,
		DNS:          h.fake,
		LoadBalancer: h.fake,
		Compute:      h.fake,
	}, nil
}

func (h *harness) run(args ...string) string {
	h.t.Helper()
	h.out.Reset()
	h.code = -1
	r := &Runner{
		Out:     &h.out,
		Exit:    func(code int) { h.code = code },
		Connect: h.connect,
		Poll:    10 * time.Millisecond,
	}
	cmd := NewRootCmd(r)
	cmd.SetArgs(append(args, "--config-file", h.config))
	if err := cmd.Execute(); err != nil {
		h.t.Fatalf("execute %v: %v", args, err)
	}
	return h.out.String()
}

func TestListNodesFromConfig(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	h := newHarness(t, acmeConfig)
	h.fake.Nodes = []cloud.Node{{ID: "n-1", Name: "web", State: cloud.NodeStateRunning}}

	out := h.run("list-nodes")
	g.Expect(h.code).To(gomega.Equal(0))
	g.Expect(h.provider).To(gomega.Equal("acme"))
	g.Expect(h.cred.User).To(gomega.Equal("bob"))
	g.Expect(h.cred.Key).To(gomega.Equal("xyz"))
	g.Expect(h.fake.Calls("ListNodes")).To(gomega.Equal(1))
	g.Expect(h.fake.TotalCalls()).To(gomega.Equal(1))
	g.Expect(out).To(gomega.Equal("n-1 web running  \n"))
}

func TestCreateBalancer(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	h := newHarness(t, acmeConfig)

	h.run("create-balancer", "--name", "lb1", "--port", "80", "--algorithm", "round-robin", "10.0.0.1:8080", "10.0.0.2:8080")
	g.Expect(h.code).To(gomega.Equal(0))
	g.Expect(h.fake.Calls("CreateBalancer")).To(gomega.Equal(1))
	g.Expect(h.fake.Balancers).To(gomega.HaveLen(1))

	lb := h.fake.Balancers[0]
	g.Expect(lb.Port).To(gomega.Equal(80))
	g.Expect(lb.Extra["algorithm"]).To(gomega.Equal("least-connections"))
	g.Expect(lb.Extra["protocol"]).To(gomega.Equal("http"))

	members := h.fake.Members[lb.ID]
	g.Expect(members).To(gomega.HaveLen(2))
	g.Expect(members[0].IP).To(gomega.Equal("10.0.0.1"))
	g.Expect(members[1].IP).To(gomega.Equal("10.0.0.2"))
	for _, m := range members {
		g.Expect(m.Port).To(gomega.Equal(8080))
	}
}

func TestCreateBalancerWait(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	h := newHarness(t, acmeConfig)
	h.fake.PollsUntilRunning = 2

	out := h.run("create-balancer", "--name", "lb1", "--port", "80", "--wait", "5", "--human")
	g.Expect(h.code).To(gomega.Equal(0))
	g.Expect(out).To(gomega.ContainSubstring("state: running"))
	g.Expect(h.fake.Calls("ListBalancers")).To(gomega.Equal(2))
}

func TestCreateZoneRecordMissingZone(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	h := newHarness(t, acmeConfig)

	out := h.run("create-zone-record", "--name", "example.com", "www", "203.0.113.7")
	g.Expect(h.code).To(gomega.Equal(1))
	g.Expect(out).To(gomega.Equal("Zone \"example.com\" not found\n"))
	g.Expect(h.fake.Calls("ListZones")).To(gomega.Equal(1))
	g.Expect(h.fake.Calls("CreateRecord")).To(gomega.BeZero())
}

func TestCreateZoneRecord(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	h := newHarness(t, acmeConfig)
	h.fake.Zones = []cloud.Zone{{ID: "z-1", Domain: "example.com", Type: "master"}}

	h.run("create-zone-record", "--name", "example.com", "--type", "cname", "--ttl", "300", "www", "web.example.com")
	g.Expect(h.code).To(gomega.Equal(0))
	g.Expect(h.fake.Records).To(gomega.HaveLen(1))
	r := h.fake.Records[0]
	g.Expect(r.Type).To(gomega.Equal(cloud.RecordTypeCNAME))
	g.Expect(r.Name).To(gomega.Equal("www"))
	g.Expect(r.ZoneID).To(gomega.Equal("z-1"))
	g.Expect(r.TTL).To(gomega.Equal(300))
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"list-zone-records"}, "--name is required"},
		{[]string{"create-zone"}, "--name is required"},
		{[]string{"create-zone", "--name", "example.com", "--extra", "bad"}, `invalid --extra entry "bad", expected key=value`},
		{[]string{"create-zone-record", "--name", "example.com", "www"}, "RECORD and DATA arguments are required"},
		{[]string{"create-zone-record", "--name", "example.com", "--type", "BOGUS", "www", "x"}, `invalid --type: unknown record type "BOGUS"`},
		{[]string{"list-balancer-members"}, "--name is required"},
		{[]string{"create-balancer", "--name", "lb1"}, "--port is required"},
		{[]string{"create-balancer", "--name", "lb1", "--port", "80", "10.0.0.1"}, `invalid member "10.0.0.1", expected IP:PORT`},
		{[]string{"balancer-node-attach", "--name", "lb1"}, "NODE argument is required"},
		{[]string{"balancer-member-attach", "--name", "lb1"}, "--member or an IP:PORT argument is required"},
		{[]string{"balancer-member-detach", "--name", "lb1"}, "--id, --member or an IP:PORT argument is required"},
		{[]string{"destroy-balancer"}, "--name is required"},
		{[]string{"find-node"}, "--name is required"},
		{[]string{"create-node"}, "--name is required"},
		{[]string{"deploy-node", "--name", "web"}, `--name must be HOST.DOMAIN, got "web"`},
		{[]string{"destroy-node"}, "--name is required"},
		{[]string{"list-nodes", "--algorithm", "fastest"}, `invalid --algorithm: unknown balancer algorithm "fastest"`},
	}
	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			g := gomega.NewGomegaWithT(t)
			h := newHarness(t, acmeConfig)

			out := h.run(tt.args...)
			g.Expect(h.code).To(gomega.Equal(1))
			g.Expect(out).To(gomega.Equal(tt.want + "\n"))
			g.Expect(h.connects).To(gomega.BeZero())
			g.Expect(h.fake.TotalCalls()).To(gomega.BeZero())
		})
	}
}

func TestConfigurationErrors(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	h := newHarness(t, "[default]\nprovider = acme\n[acme]\nuser = bob\n")

	out := h.run("list-zones")
	g.Expect(h.code).To(gomega.Equal(1))
	g.Expect(out).To(gomega.Equal("key is not set, use --key or key in the provider section\n"))
	g.Expect(h.connects).To(gomega.BeZero())

	out = h.run("list-zones", "--key", "xyz")
	g.Expect(h.code).To(gomega.Equal(0))
	g.Expect(h.cred.Key).To(gomega.Equal("xyz"))
	g.Expect(out).To(gomega.BeEmpty())
}

func TestConnectionErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown provider", []string{"list-zones"}, "unknown dns provider \"acme\"\n"},
		{"invalid credentials", []string{"list-zones", "--provider", "fake", "--user", "bob", "--key", "invalid"}, "Invalid credentials\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := gomega.NewGomegaWithT(t)
			h := newHarness(t, acmeConfig)
			h.realConnect = true

			out := h.run(tt.args...)
			g.Expect(h.code).To(gomega.Equal(1))
			g.Expect(out).To(gomega.Equal(tt.want))
		})
	}
}

func TestRemoteErrors(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	h := newHarness(t, acmeConfig)
	h.fake.Err = errors.New("connection reset by peer")

	out := h.run("list-nodes")
	g.Expect(h.code).To(gomega.Equal(1))
	g.Expect(out).To(gomega.Equal("Exception: connection reset by peer\n"))

	out = h.run("destroy-node", "--name", "web")
	g.Expect(h.code).To(gomega.Equal(1))
	g.Expect(out).To(gomega.Equal("Exception: failed to list nodes: connection reset by peer\n"))

	h.fake.Err = cloud.ErrInvalidCredentials
	out = h.run("list-sizes")
	g.Expect(out).To(gomega.Equal("Invalid credentials\n"))
}

func TestHelp(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"help verb", []string{"help"}},
		{"upper case", []string{"HELP"}},
		{"unknown verb", []string{"frobnicate"}},
		{"no verb", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := gomega.NewGomegaWithT(t)
			// help never reads the settings file, even a broken one
			h := newHarness(t, "[default\n")

			out := h.run(tt.args...)
			g.Expect(h.code).To(gomega.Equal(0))
			g.Expect(out).To(gomega.HavePrefix("Usage: cloudcli COMMAND"))
			for _, v := range verbTable() {
				g.Expect(out).To(gomega.ContainSubstring(v.name))
			}
			g.Expect(h.connects).To(gomega.BeZero())
		})
	}
}

func TestCaseInsensitiveVerbs(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	h := newHarness(t, acmeConfig)

	h.run("List-Sizes")
	g.Expect(h.code).To(gomega.Equal(0))
	g.Expect(h.fake.Calls("ListSizes")).To(gomega.Equal(1))
}

func TestListZonesJSON(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	h := newHarness(t, acmeConfig)
	h.fake.Zones = []cloud.Zone{{ID: "z-1", Domain: "example.com", Type: "master", TTL: 3600}}

	out := h.run("list-zones", "--json", "--human")
	g.Expect(h.code).To(gomega.Equal(0))

	var doc map[string][]map[string]interface{}
	g.Expect(json.Unmarshal([]byte(out), &doc)).To(gomega.Succeed())
	g.Expect(doc["result"]).To(gomega.Equal([]map[string]interface{}{
		{"id": "z-1", "domain": "example.com", "type": "master", "ttl": float64(3600)},
	}))
}

func TestCreateNode(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	h := newHarness(t, acmeConfig)
	key := publicKeyFile(t)

	out := h.run("create-node", "--name", "web", "--public-key", key)
	g.Expect(h.code).To(gomega.Equal(1))
	g.Expect(out).To(gomega.Equal("size is not set, use --size or default_size in the provider section\n"))

	out = h.run("create-node", "--name", "web", "--size", "4096", "--image", "Ubuntu 22.04", "--public-key", key)
	g.Expect(h.code).To(gomega.Equal(1))
	g.Expect(out).To(gomega.Equal("Size with 4096 MB of RAM not found\n"))

	out = h.run("create-node", "--name", "web", "--size", "1024", "--image", "CentOS", "--public-key", key)
	g.Expect(h.code).To(gomega.Equal(1))
	g.Expect(out).To(gomega.Equal("Image \"CentOS\" not found\n"))
	g.Expect(h.fake.Calls("CreateNode")).To(gomega.BeZero())

	h.fake.PollsUntilRunning = 2
	out = h.run("create-node", "--name", "web", "--size", "1024", "--image", "Ubuntu 22.04", "--public-key", key, "--wait", "5")
	g.Expect(h.code).To(gomega.Equal(0))
	g.Expect(out).To(gomega.HavePrefix("Node created\n"))
	g.Expect(out).To(gomega.ContainSubstring(" web running "))
	g.Expect(h.fake.Nodes).To(gomega.HaveLen(1))
	g.Expect(h.fake.Nodes[0].Size).To(gomega.Equal("small"))
	g.Expect(h.fake.Nodes[0].Image).To(gomega.Equal("ubuntu-22-04"))
}

func TestFindNodeWaitTimeout(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	h := newHarness(t, acmeConfig)
	h.fake.Nodes = []cloud.Node{{ID: "n-1", Name: "web", State: cloud.NodeStateStopped}}

	out := h.run("find-node", "--name", "web")
	g.Expect(h.code).To(gomega.Equal(0))
	g.Expect(out).To(gomega.Equal("n-1 web stopped  \n"))

	start := time.Now()
	out = h.run("find-node", "--name", "web", "--wait", "1")
	g.Expect(time.Since(start)).To(gomega.BeNumerically(">=", time.Second))
	g.Expect(h.code).To(gomega.Equal(1))
	g.Expect(out).To(gomega.Equal("Node \"web\" is stopped, not running\n"))
}

func TestDeployNode(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	h := newHarness(t, acmeConfig+"default_size = 1024\ndefault_image = Debian 12\n")
	h.fake.PollsUntilRunning = 3

	out := h.run("deploy-node", "--name", "web.example.com", "--public-key", publicKeyFile(t))
	g.Expect(h.code).To(gomega.Equal(0), out)
	g.Expect(out).To(gomega.HavePrefix("Node deployed\n"))

	g.Expect(h.fake.Nodes).To(gomega.HaveLen(1))
	node := h.fake.Nodes[0]
	g.Expect(node.Name).To(gomega.Equal("web.example.com"))
	g.Expect(node.State).To(gomega.Equal(cloud.NodeStateRunning))

	g.Expect(h.fake.Zones).To(gomega.HaveLen(1))
	g.Expect(h.fake.Zones[0].Domain).To(gomega.Equal("example.com"))
	g.Expect(h.fake.Records).To(gomega.HaveLen(1))
	record := h.fake.Records[0]
	g.Expect(record.Name).To(gomega.Equal("web"))
	g.Expect(record.Type).To(gomega.Equal(cloud.RecordTypeA))
	g.Expect(record.Data).To(gomega.Equal(node.PublicIPs[0]))

	// the zone exists now and is reused
	h.run("deploy-node", "--name", "db.example.com", "--public-key", publicKeyFile(t))
	g.Expect(h.code).To(gomega.Equal(0))
	g.Expect(h.fake.Calls("CreateZone")).To(gomega.Equal(1))
	g.Expect(h.fake.Records).To(gomega.HaveLen(2))
}

func TestBalancerMembers(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	h := newHarness(t, acmeConfig)
	h.fake.Balancers = []cloud.Balancer{{ID: "lb-1", Name: "lb1", State: cloud.BalancerStateRunning, Port: 80}}
	h.fake.Nodes = []cloud.Node{{ID: "n-1", Name: "web", PublicIPs: []string{"203.0.113.9"}}}

	h.run("balancer-member-attach", "--name", "lb1", "--member", "10.0.0.1:8080")
	g.Expect(h.code).To(gomega.Equal(0))
	h.run("balancer-node-attach", "--name", "lb1", "web")
	g.Expect(h.code).To(gomega.Equal(0))

	out := h.run("list-balancer-members", "--name", "lb1")
	g.Expect(h.code).To(gomega.Equal(0))
	g.Expect(out).To(gomega.ContainSubstring("10.0.0.1 8080\n"))
	g.Expect(out).To(gomega.ContainSubstring("n-1 203.0.113.9 80\n"))

	h.run("balancer-member-detach", "--name", "lb1", "10.0.0.1:8080")
	g.Expect(h.code).To(gomega.Equal(0))
	g.Expect(h.fake.Members["lb-1"]).To(gomega.HaveLen(1))

	out = h.run("balancer-member-detach", "--name", "lb1", "--id", "nope")
	g.Expect(h.code).To(gomega.Equal(1))
	g.Expect(out).To(gomega.Equal("Member \"nope\" not found\n"))

	h.run("destroy-balancer", "--name", "lb1")
	g.Expect(h.code).To(gomega.Equal(0))
	g.Expect(h.fake.Balancers).To(gomega.BeEmpty())
}
