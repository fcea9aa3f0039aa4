package fake

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/pharmer/cloudcli/cloud"
)

const (
	UID = "fake"
)

func init() {
	cloud.RegisterDNS(UID, func(cred cloud.Credentials) (cloud.DNS, error) { return New(cred) })
	cloud.RegisterLoadBalancer(UID, func(cred cloud.Credentials) (cloud.LoadBalancer, error) { return New(cred) })
	cloud.RegisterCompute(UID, func(cred cloud.Credentials) (cloud.Compute, error) { return New(cred) })
}

// Provider is an in-memory implementation of every service category. Nodes
// and balancers it creates start out pending and become running after
// PollsUntilRunning list calls.
type Provider struct {
	mu sync.Mutex

	Zones     []cloud.Zone
	Records   []cloud.Record
	Balancers []cloud.Balancer
	Members   map[string][]cloud.Member
	Nodes     []cloud.Node
	Sizes     []cloud.Size
	Images    []cloud.Image
	Locations []cloud.Location

	PollsUntilRunning int
	// Err, when set, is returned by every remote call.
	Err error

	pending map[string]int
	calls   map[string]int
	nextID  int
}

var _ cloud.DNS = &Provider{}
var _ cloud.LoadBalancer = &Provider{}
var _ cloud.Compute = &Provider{}

// New returns an empty provider. The key "invalid" is rejected the way a real
// vendor would reject a revoked token.
func New(cred cloud.Credentials) (*Provider, error) {
	if cred.Key == "" || cred.Key == "invalid" {
		return nil, cloud.ErrInvalidCredentials
	}
	return NewProvider(), nil
}

func NewProvider() *Provider {
	return &Provider{
		Members: map[string][]cloud.Member{},
		Sizes: []cloud.Size{
			{ID: "small", Name: "Small", RAM: 1024, Disk: 25, Bandwidth: 1000, Price: 5},
			{ID: "medium", Name: "Medium", RAM: 2048, Disk: 50, Bandwidth: 2000, Price: 10},
		},
		Images: []cloud.Image{
			{ID: "ubuntu-22-04", Name: "Ubuntu 22.04"},
			{ID: "debian-12", Name: "Debian 12"},
		},
		Locations: []cloud.Location{
			{ID: "nyc1", Name: "New York 1", Country: "US"},
			{ID: "fra1", Name: "Frankfurt 1", Country: "DE"},
		},
		pending: map[string]int{},
		calls:   map[string]int{},
	}
}

// Calls returns how many times the named method was invoked.
func (p *Provider) Calls(method string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[method]
}

// TotalCalls counts every remote call made so far.
func (p *Provider) TotalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		n += c
	}
	return n
}

func (p *Provider) record(method string) error {
	p.calls[method]++
	return p.Err
}

func (p *Provider) newID(prefix string) string {
	p.nextID++
	return prefix + "-" + strconv.Itoa(p.nextID)
}

// converged reports whether a pending resource has been polled enough times.
func (p *Provider) converged(id string) bool {
	left, ok := p.pending[id]
	if !ok {
		return true
	}
	left--
	if left <= 0 {
		delete(p.pending, id)
		return true
	}
	p.pending[id] = left
	return false
}

func (p *Provider) RecordTypes() []cloud.RecordType {
	return cloud.RecordTypes()
}

func (p *Provider) ListZones(ctx context.Context) ([]cloud.Zone, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("ListZones"); err != nil {
		return nil, err
	}
	return append([]cloud.Zone(nil), p.Zones...), nil
}

func (p *Provider) ListRecords(ctx context.Context, zone cloud.Zone) ([]cloud.Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("ListRecords"); err != nil {
		return nil, err
	}
	records := []cloud.Record{}
	for _, r := range p.Records {
		if r.ZoneID == zone.ID {
			records = append(records, r)
		}
	}
	return records, nil
}

func (p *Provider) CreateZone(ctx context.Context, req cloud.ZoneRequest) (*cloud.Zone, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("CreateZone"); err != nil {
		return nil, err
	}
	zone := cloud.Zone{
		ID:     p.newID("zone"),
		Domain: req.Domain,
		Type:   req.Type,
		TTL:    req.TTL,
		Extra:  req.Extra,
	}
	if zone.Type == "" {
		zone.Type = "master"
	}
	p.Zones = append(p.Zones, zone)
	return &zone, nil
}

func (p *Provider) CreateRecord(ctx context.Context, zone cloud.Zone, req cloud.RecordRequest) (*cloud.Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("CreateRecord"); err != nil {
		return nil, err
	}
	record := cloud.Record{
		ID:         p.newID("record"),
		Name:       req.Name,
		Type:       req.Type,
		Data:       req.Data,
		TTL:        req.TTL,
		ZoneID:     zone.ID,
		ZoneDomain: zone.Domain,
		Extra:      req.Extra,
	}
	p.Records = append(p.Records, record)
	return &record, nil
}

func (p *Provider) Protocols() []string {
	return []string{"http", "https", "tcp"}
}

func (p *Provider) ListBalancers(ctx context.Context) ([]cloud.Balancer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("ListBalancers"); err != nil {
		return nil, err
	}
	for i := range p.Balancers {
		if p.Balancers[i].State == cloud.BalancerStatePending && p.converged(p.Balancers[i].ID) {
			p.Balancers[i].State = cloud.BalancerStateRunning
		}
	}
	return append([]cloud.Balancer(nil), p.Balancers...), nil
}

func (p *Provider) CreateBalancer(ctx context.Context, req cloud.BalancerRequest) (*cloud.Balancer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("CreateBalancer"); err != nil {
		return nil, err
	}
	lb := cloud.Balancer{
		ID:    p.newID("lb"),
		Name:  req.Name,
		State: cloud.BalancerStateRunning,
		IP:    fmt.Sprintf("192.0.2.%d", p.nextID),
		Port:  req.Port,
		Extra: map[string]string{
			"protocol":  req.Protocol,
			"algorithm": req.Algorithm.String(),
		},
	}
	if p.PollsUntilRunning > 0 {
		lb.State = cloud.BalancerStatePending
		p.pending[lb.ID] = p.PollsUntilRunning
	}
	for _, m := range req.Members {
		m.ID = p.newID("member")
		m.BalancerID = lb.ID
		p.Members[lb.ID] = append(p.Members[lb.ID], m)
	}
	p.Balancers = append(p.Balancers, lb)
	return &lb, nil
}

func (p *Provider) DestroyBalancer(ctx context.Context, lb cloud.Balancer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("DestroyBalancer"); err != nil {
		return err
	}
	for i := range p.Balancers {
		if p.Balancers[i].ID == lb.ID {
			p.Balancers = append(p.Balancers[:i], p.Balancers[i+1:]...)
			delete(p.Members, lb.ID)
			return nil
		}
	}
	return fmt.Errorf("balancer %s does not exist", lb.ID)
}

func (p *Provider) ListMembers(ctx context.Context, lb cloud.Balancer) ([]cloud.Member, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("ListMembers"); err != nil {
		return nil, err
	}
	return append([]cloud.Member{}, p.Members[lb.ID]...), nil
}

func (p *Provider) AttachMember(ctx context.Context, lb cloud.Balancer, member cloud.Member) (*cloud.Member, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("AttachMember"); err != nil {
		return nil, err
	}
	member.ID = p.newID("member")
	member.BalancerID = lb.ID
	p.Members[lb.ID] = append(p.Members[lb.ID], member)
	return &member, nil
}

func (p *Provider) AttachNode(ctx context.Context, lb cloud.Balancer, node cloud.Node) (*cloud.Member, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("AttachNode"); err != nil {
		return nil, err
	}
	if len(node.PublicIPs) == 0 {
		return nil, fmt.Errorf("node %s has no public address", node.Name)
	}
	member := cloud.Member{
		ID:         node.ID,
		IP:         node.PublicIPs[0],
		Port:       lb.Port,
		BalancerID: lb.ID,
	}
	p.Members[lb.ID] = append(p.Members[lb.ID], member)
	return &member, nil
}

func (p *Provider) DetachMember(ctx context.Context, lb cloud.Balancer, member cloud.Member) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("DetachMember"); err != nil {
		return err
	}
	members := p.Members[lb.ID]
	for i := range members {
		if members[i].ID == member.ID {
			p.Members[lb.ID] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("member %s is not attached to balancer %s", member.ID, lb.Name)
}

func (p *Provider) ListLocations(ctx context.Context) ([]cloud.Location, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("ListLocations"); err != nil {
		return nil, err
	}
	return append([]cloud.Location(nil), p.Locations...), nil
}

func (p *Provider) ListSizes(ctx context.Context) ([]cloud.Size, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("ListSizes"); err != nil {
		return nil, err
	}
	return append([]cloud.Size(nil), p.Sizes...), nil
}

func (p *Provider) ListImages(ctx context.Context) ([]cloud.Image, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("ListImages"); err != nil {
		return nil, err
	}
	return append([]cloud.Image(nil), p.Images...), nil
}

func (p *Provider) ListNodes(ctx context.Context) ([]cloud.Node, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("ListNodes"); err != nil {
		return nil, err
	}
	for i := range p.Nodes {
		if p.Nodes[i].State == cloud.NodeStatePending && p.converged(p.Nodes[i].ID) {
			p.Nodes[i].State = cloud.NodeStateRunning
		}
	}
	return append([]cloud.Node(nil), p.Nodes...), nil
}

func (p *Provider) CreateNode(ctx context.Context, req cloud.NodeRequest) (*cloud.Node, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("CreateNode"); err != nil {
		return nil, err
	}
	id := p.newID("node")
	node := cloud.Node{
		ID:         id,
		Name:       req.Name,
		State:      cloud.NodeStateRunning,
		PublicIPs:  []string{fmt.Sprintf("203.0.113.%d", p.nextID)},
		PrivateIPs: []string{fmt.Sprintf("10.0.0.%d", p.nextID)},
		Size:       req.Size.ID,
		Image:      req.Image.ID,
		Extra:      req.Extra,
	}
	if p.PollsUntilRunning > 0 {
		node.State = cloud.NodeStatePending
		p.pending[id] = p.PollsUntilRunning
	}
	p.Nodes = append(p.Nodes, node)
	return &node, nil
}

func (p *Provider) DestroyNode(ctx context.Context, node cloud.Node) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("DestroyNode"); err != nil {
		return err
	}
	for i := range p.Nodes {
		if p.Nodes[i].ID == node.ID {
			p.Nodes = append(p.Nodes[:i], p.Nodes[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("node %s does not exist", node.ID)
}
