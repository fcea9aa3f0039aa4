package cloud

import (
	"context"

	"github.com/pkg/errors"
)

// Each Find* helper issues exactly one list call and returns the first item
// that matches, or nil when nothing does. Duplicate names resolve by the order
// the provider lists them in.

func FindZone(ctx context.Context, dns DNS, domain string) (*Zone, error) {
	zones, err := dns.ListZones(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list zones")
	}
	return ZoneByDomain(zones, domain), nil
}

func FindBalancer(ctx context.Context, lb LoadBalancer, name string) (*Balancer, error) {
	balancers, err := lb.ListBalancers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list balancers")
	}
	return BalancerByName(balancers, name), nil
}

func FindImage(ctx context.Context, compute Compute, name string) (*Image, error) {
	images, err := compute.ListImages(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list images")
	}
	return ImageByName(images, name), nil
}

func FindNode(ctx context.Context, compute Compute, name string) (*Node, error) {
	nodes, err := compute.ListNodes(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list nodes")
	}
	return NodeByName(nodes, name), nil
}

// FindSize matches on RAM in megabytes rather than on name.
func FindSize(ctx context.Context, compute Compute, ram int) (*Size, error) {
	sizes, err := compute.ListSizes(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list sizes")
	}
	return SizeByRAM(sizes, ram), nil
}

// FindMember matches either the member ID or its ip:port address.
func FindMember(ctx context.Context, lb LoadBalancer, balancer Balancer, idOrAddress string) (*Member, error) {
	members, err := lb.ListMembers(ctx, balancer)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list balancer members")
	}
	return MemberByIDOrAddress(members, idOrAddress), nil
}

func ZoneByDomain(zones []Zone, domain string) *Zone {
	return first(zones, func(z Zone) bool { return z.Domain == domain })
}

func BalancerByName(balancers []Balancer, name string) *Balancer {
	return first(balancers, func(b Balancer) bool { return b.Name == name })
}

func ImageByName(images []Image, name string) *Image {
	return first(images, func(i Image) bool { return i.Name == name })
}

func NodeByName(nodes []Node, name string) *Node {
	return first(nodes, func(n Node) bool { return n.Name == name })
}

func SizeByRAM(sizes []Size, ram int) *Size {
	return first(sizes, func(s Size) bool { return s.RAM == ram })
}

func MemberByIDOrAddress(members []Member, idOrAddress string) *Member {
	return first(members, func(m Member) bool {
		return (m.ID != "" && m.ID == idOrAddress) || m.Address() == idOrAddress
	})
}

// first returns a copy of the first matching item so callers never alias the
// listed slice.
func first[T any](items []T, match func(T) bool) *T {
	for _, item := range items {
		if match(item) {
			found := item
			return &found
		}
	}
	return nil
}
