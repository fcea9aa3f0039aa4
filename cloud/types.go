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
	"fmt"
	"strings"
)

// Zone is a DNS domain hosted by a provider.
type Zone struct {
	ID     string
	Domain string
	Type   string
	TTL    int
	Extra  map[string]string
}

// Record is a single entry of a Zone.
type Record struct {
	ID         string
	Name       string
	Type       RecordType
	Data       string
	TTL        int
	ZoneID     string
	ZoneDomain string
	Extra      map[string]string
}

// Balancer is a load-balancing endpoint.
type Balancer struct {
	ID    string
	Name  string
	State BalancerState
	IP    string
	Port  int
	Extra map[string]string
}

// Member is a backend target attached to a Balancer.
type Member struct {
	ID         string
	IP         string
	Port       int
	BalancerID string
	Extra      map[string]string
}

// Address returns the member in ip:port form.
func (m Member) Address() string {
	return fmt.Sprintf("%s:%d", m.IP, m.Port)
}

// Size is a compute instance type. RAM is in megabytes, Disk in gigabytes.
type Size struct {
	ID        string
	Name      string
	RAM       int
	Disk      int
	Bandwidth int
	Price     float64
}

type Image struct {
	ID    string
	Name  string
	Extra map[string]string
}

type Location struct {
	ID      string
	Name    string
	Country string
}

// Node is a compute instance.
type Node struct {
	ID         string
	Name       string
	State      NodeState
	PublicIPs  []string
	PrivateIPs []string
	Size       string
	Image      string
	Extra      map[string]string
}

// RecordType is the type of a DNS record.
type RecordType int

const (
	RecordTypeA RecordType = iota
	RecordTypeAAAA
	RecordTypeCAA
	RecordTypeCNAME
	RecordTypeMX
	RecordTypeNS
	RecordTypePTR
	RecordTypeSOA
	RecordTypeSPF
	RecordTypeSRV
	RecordTypeTXT
	numRecordTypes
)

var recordTypeNames = [numRecordTypes]string{
	RecordTypeA:     "A",
	RecordTypeAAAA:  "AAAA",
	RecordTypeCAA:   "CAA",
	RecordTypeCNAME: "CNAME",
	RecordTypeMX:    "MX",
	RecordTypeNS:    "NS",
	RecordTypePTR:   "PTR",
	RecordTypeSOA:   "SOA",
	RecordTypeSPF:   "SPF",
	RecordTypeSRV:   "SRV",
	RecordTypeTXT:   "TXT",
}

func (t RecordType) String() string {
	if t < 0 || t >= numRecordTypes {
		return fmt.Sprintf("RecordType(%d)", int(t))
	}
	return recordTypeNames[t]
}

// RecordTypes returns every known record type in declaration order.
func RecordTypes() []RecordType {
	types := make([]RecordType, 0, numRecordTypes)
	for t := RecordType(0); t < numRecordTypes; t++ {
		types = append(types, t)
	}
	return types
}

// ParseRecordType maps a display name such as "cname" to its RecordType.
func ParseRecordType(s string) (RecordType, error) {
	for t, name := range recordTypeNames {
		if strings.EqualFold(name, s) {
			return RecordType(t), nil
		}
	}
	return 0, fmt.Errorf("unknown record type %q", s)
}

// NodeState is the lifecycle state of a Node.
type NodeState int

const (
	NodeStateRunning NodeState = iota
	NodeStateRebooting
	NodeStateTerminated
	NodeStatePending
	NodeStateStopped
	NodeStateSuspended
	NodeStateError
	NodeStateUnknown
	numNodeStates
)

var nodeStateNames = [numNodeStates]string{
	NodeStateRunning:    "running",
	NodeStateRebooting:  "rebooting",
	NodeStateTerminated: "terminated",
	NodeStatePending:    "pending",
	NodeStateStopped:    "stopped",
	NodeStateSuspended:  "suspended",
	NodeStateError:      "error",
	NodeStateUnknown:    "unknown",
}

func (s NodeState) String() string {
	if s < 0 || s >= numNodeStates {
		return fmt.Sprintf("NodeState(%d)", int(s))
	}
	return nodeStateNames[s]
}

// BalancerState is the lifecycle state of a Balancer.
type BalancerState int

const (
	BalancerStateRunning BalancerState = iota
	BalancerStatePending
	BalancerStateError
	BalancerStateDeleted
	BalancerStateUnknown
	numBalancerStates
)

var balancerStateNames = [numBalancerStates]string{
	BalancerStateRunning: "running",
	BalancerStatePending: "pending",
	BalancerStateError:   "error",
	BalancerStateDeleted: "deleted",
	BalancerStateUnknown: "unknown",
}

func (s BalancerState) String() string {
	if s < 0 || s >= numBalancerStates {
		return fmt.Sprintf("BalancerState(%d)", int(s))
	}
	return balancerStateNames[s]
}

// Algorithm is the member selection strategy of a Balancer.
type Algorithm int

const (
	AlgorithmRoundRobin Algorithm = iota
	AlgorithmLeastConnections
	AlgorithmRandom
	AlgorithmSourceIP
	numAlgorithms
)

var algorithmNames = [numAlgorithms]string{
	AlgorithmRoundRobin:       "round-robin",
	AlgorithmLeastConnections: "least-connections",
	AlgorithmRandom:           "random",
	AlgorithmSourceIP:         "source-ip",
}

func (a Algorithm) String() string {
	if a < 0 || a >= numAlgorithms {
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
	return algorithmNames[a]
}

func ParseAlgorithm(s string) (Algorithm, error) {
	for a, name := range algorithmNames {
		if strings.EqualFold(name, s) {
			return Algorithm(a), nil
		}
	}
	return 0, fmt.Errorf("unknown balancer algorithm %q", s)
}

// every enumeration variant must carry a display name
func init() {
	tables := map[string][]string{
		"RecordType":    recordTypeNames[:],
		"NodeState":     nodeStateNames[:],
		"BalancerState": balancerStateNames[:],
		"Algorithm":     algorithmNames[:],
	}
	for kind, names := range tables {
		for i, name := range names {
			if name == "" {
				panic(fmt.Sprintf("%s(%d) has no display name", kind, i))
			}
		}
	}
}
