package cmds

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/golang/glog"
	"github.com/pharmer/cloudcli/cmds/options"
	"github.com/pharmer/cloudcli/utils/printer"
)

const verbHelp = "help"

type handler func(ctx context.Context, e *env, args []string) (*printer.Result, error)

type verb struct {
	name     string
	usage    string
	summary  string
	validate func(o *options.Options, args []string) error
	run      handler
	// offline verbs run without configuration or a connection
	offline bool
}

func verbTable() []verb {
	return []verb{
		{name: verbHelp, summary: "Show this help", run: runHelp, offline: true},

		{name: "list-zones", summary: "List DNS zones", run: runListZones},
		{name: "list-zone-records", usage: "--name ZONE", summary: "List the records of a zone", validate: requireName, run: runListZoneRecords},
		{name: "create-zone", usage: "--name DOMAIN [--type master] [--ttl N] [--extra k=v,...]", summary: "Create a zone", validate: requireName, run: runCreateZone},
		{name: "create-zone-record", usage: "--name ZONE [--type A] [--ttl N] RECORD DATA", summary: "Create a record in a zone", validate: validateCreateZoneRecord, run: runCreateZoneRecord},
		{name: "list-record-types", summary: "List the record types the provider supports", run: runListRecordTypes},

		{name: "list-protocols", summary: "List balancer protocols", run: runListProtocols},
		{name: "list-balancers", summary: "List balancers", run: runListBalancers},
		{name: "list-balancer-members", usage: "--name BALANCER", summary: "List the members of a balancer", validate: requireName, run: runListBalancerMembers},
		{name: "create-balancer", usage: "--name BALANCER --port N [--protocol http] [--wait N] [IP:PORT ...]", summary: "Create a balancer", validate: validateCreateBalancer, run: runCreateBalancer},
		{name: "balancer-node-attach", usage: "--name BALANCER NODE", summary: "Attach a node to a balancer", validate: validateNodeAttach, run: runBalancerNodeAttach},
		{name: "balancer-member-attach", usage: "--name BALANCER (--member IP:PORT | IP:PORT)", summary: "Attach a member to a balancer", validate: validateMemberAttach, run: runBalancerMemberAttach},
		{name: "balancer-member-detach", usage: "--name BALANCER (--id MEMBER | --member IP:PORT | IP:PORT)", summary: "Detach a member from a balancer", validate: validateMemberDetach, run: runBalancerMemberDetach},
		{name: "destroy-balancer", usage: "--name BALANCER", summary: "Destroy a balancer", validate: requireName, run: runDestroyBalancer},

		{name: "find-node", usage: "--name NODE [--wait N]", summary: "Show a node, optionally waiting for it to run", validate: requireName, run: runFindNode},
		{name: "list-locations", summary: "List locations", run: runListLocations},
		{name: "list-sizes", summary: "List node sizes", run: runListSizes},
		{name: "list-images", summary: "List node images", run: runListImages},
		{name: "list-nodes", summary: "List nodes", run: runListNodes},
		{name: "create-node", usage: "--name NODE [--size RAM] [--image NAME] [--public-key PATH] [--script PATH] [--wait N]", summary: "Create a node", validate: requireName, run: runCreateNode},
		{name: "deploy-node", usage: "--name HOST.DOMAIN [--size RAM] [--image NAME] [--public-key PATH] [--script PATH] [--wait N]", summary: "Create a node and point an A record at it", validate: validateDeployNode, run: runDeployNode},
		{name: "destroy-node", usage: "--name NODE", summary: "Destroy a node", validate: requireName, run: runDestroyNode},
	}
}

func findVerb(name string) verb {
	name = strings.ToLower(name)
	for _, v := range verbTable() {
		if v.name == name {
			return v
		}
	}
	glog.Fatalf("verb %q is not registered", name)
	return verb{}
}

func requireName(o *options.Options, _ []string) error {
	return o.RequireName()
}

func runHelp(_ context.Context, _ *env, _ []string) (*printer.Result, error) {
	var b strings.Builder
	b.WriteString("Usage: cloudcli COMMAND [OPTIONS] [ARGS]\n\nCommands:\n")
	w := tabwriter.NewWriter(&b, 0, 4, 3, ' ', 0)
	for _, v := range verbTable() {
		fmt.Fprintf(w, "  %s\t%s\n", v.name, v.summary)
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	b.WriteString("\nRun 'cloudcli COMMAND --help' for the options of a command.")
	return &printer.Result{Message: b.String()}, nil
}
