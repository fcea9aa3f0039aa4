/*
Copyright The Pharmer Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cloud

import (
	"context"
)

// DNS manages zones and records of a provider.
type DNS interface {
	RecordTypes() []RecordType
	ListZones(ctx context.Context) ([]Zone, error)
	ListRecords(ctx context.Context, zone Zone) ([]Record, error)
	CreateZone(ctx context.Context, req ZoneRequest) (*Zone, error)
	CreateRecord(ctx context.Context, zone Zone, req RecordRequest) (*Record, error)
}

// LoadBalancer manages balancers and their members.
type LoadBalancer interface {
	Protocols() []string
	ListBalancers(ctx context.Context) ([]Balancer, error)
	CreateBalancer(ctx context.Context, req BalancerRequest) (*Balancer, error)
	DestroyBalancer(ctx context.Context, lb Balancer) error
	ListMembers(ctx context.Context, lb Balancer) ([]Member, error)
	AttachMember(ctx context.Context, lb Balancer, member Member) (*Member, error)
	AttachNode(ctx context.Context, lb Balancer, node Node) (*Member, error)
	DetachMember(ctx context.Context, lb Balancer, member Member) error
}

// Compute manages nodes and lists the catalog they are created from.
type Compute interface {
	ListLocations(ctx context.Context) ([]Location, error)
	ListSizes(ctx context.Context) ([]Size, error)
	ListImages(ctx context.Context) ([]Image, error)
	ListNodes(ctx context.Context) ([]Node, error)
	CreateNode(ctx context.Context, req NodeRequest) (*Node, error)
	DestroyNode(ctx context.Context, node Node) error
}

type ZoneRequest struct {
	Domain string
	// Type is "master" or "slave"; drivers that only host master zones ignore it.
	Type  string
	TTL   int
	Extra map[string]string
}

type RecordRequest struct {
	Name  string
	Type  RecordType
	Data  string
	TTL   int
	Extra map[string]string
}

type BalancerRequest struct {
	Name      string
	Port      int
	Protocol  string
	Algorithm Algorithm
	Members   []Member
	Location  string
}

type NodeRequest struct {
	Name      string
	Size      Size
	Image     Image
	Location  string
	PublicKey string
	// Script is passed to the node as user data and runs on first boot.
	Script string
	Extra  map[string]string
}
