package cloud

import (
	"sort"
	"strings"
	"sync"

	"github.com/golang/glog"
)

// Credentials are handed to every driver factory.
type Credentials struct {
	User string
	Key  string
	// Location is the default region for calls that need one.
	Location string
}

type DNSFactory func(cred Credentials) (DNS, error)

type LoadBalancerFactory func(cred Credentials) (LoadBalancer, error)

type ComputeFactory func(cred Credentials) (Compute, error)

const (
	CategoryDNS          = "dns"
	CategoryLoadBalancer = "loadbalancer"
	CategoryCompute      = "compute"
)

// All registered drivers, one table per service category.
var (
	driversMutex   sync.Mutex
	dnsDrivers     = make(map[string]DNSFactory)
	lbDrivers      = make(map[string]LoadBalancerFactory)
	computeDrivers = make(map[string]ComputeFactory)
)

// RegisterDNS registers a DNS driver by provider name. This is expected to
// happen during app startup.
func RegisterDNS(name string, f DNSFactory) {
	driversMutex.Lock()
	defer driversMutex.Unlock()
	name = strings.ToLower(name)
	if _, found := dnsDrivers[name]; found {
		glog.Fatalf("DNS driver %q was registered twice", name)
	}
	glog.V(1).Infof("Registered DNS driver %q", name)
	dnsDrivers[name] = f
}

func RegisterLoadBalancer(name string, f LoadBalancerFactory) {
	driversMutex.Lock()
	defer driversMutex.Unlock()
	name = strings.ToLower(name)
	if _, found := lbDrivers[name]; found {
		glog.Fatalf("load balancer driver %q was registered twice", name)
	}
	glog.V(1).Infof("Registered load balancer driver %q", name)
	lbDrivers[name] = f
}

func RegisterCompute(name string, f ComputeFactory) {
	driversMutex.Lock()
	defer driversMutex.Unlock()
	name = strings.ToLower(name)
	if _, found := computeDrivers[name]; found {
		glog.Fatalf("compute driver %q was registered twice", name)
	}
	glog.V(1).Infof("Registered compute driver %q", name)
	computeDrivers[name] = f
}

// Providers returns the sorted names of providers that have a driver in every
// service category.
func Providers() []string {
	driversMutex.Lock()
	defer driversMutex.Unlock()
	names := []string{}
	for name := range dnsDrivers {
		_, lb := lbDrivers[name]
		_, compute := computeDrivers[name]
		if lb && compute {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// NewDNS creates the named DNS driver. The error is an *UnknownProviderError
// when nothing is registered under name.
func NewDNS(name string, cred Credentials) (DNS, error) {
	driversMutex.Lock()
	f, found := dnsDrivers[strings.ToLower(name)]
	driversMutex.Unlock()
	if !found {
		return nil, &UnknownProviderError{Category: CategoryDNS, Name: name}
	}
	return f(cred)
}

func NewLoadBalancer(name string, cred Credentials) (LoadBalancer, error) {
	driversMutex.Lock()
	f, found := lbDrivers[strings.ToLower(name)]
	driversMutex.Unlock()
	if !found {
		return nil, &UnknownProviderError{Category: CategoryLoadBalancer, Name: name}
	}
	return f(cred)
}

func NewCompute(name string, cred Credentials) (Compute, error) {
	driversMutex.Lock()
	f, found := computeDrivers[strings.ToLower(name)]
	driversMutex.Unlock()
	if !found {
		return nil, &UnknownProviderError{Category: CategoryCompute, Name: name}
	}
	return f(cred)
}
