package cmds

import (
	"context"
	"os"
	"strings"

	"github.com/golang/glog"
	"github.com/pharmer/cloudcli/cloud"
	"github.com/pharmer/cloudcli/cmds/options"
	"github.com/pharmer/cloudcli/utils/printer"
	"github.com/pkg/errors"
)

func runFindNode(ctx context.Context, e *env, _ []string) (*printer.Result, error) {
	if !e.opts.WaitRequested {
		node, err := e.node(ctx, e.opts.Name)
		if err != nil {
			return nil, err
		}
		return &printer.Result{Type: printer.TypeNode, Data: node}, nil
	}
	node, err := e.waitForNode(ctx, e.opts.Name)
	if err != nil {
		return nil, err
	}
	return &printer.Result{Type: printer.TypeNode, Data: node}, nil
}

func runListLocations(ctx context.Context, e *env, _ []string) (*printer.Result, error) {
	locations, err := e.conn.Compute.ListLocations(ctx)
	if err != nil {
		return nil, err
	}
	return &printer.Result{Type: printer.TypeLocation, Data: locations}, nil
}

func runListSizes(ctx context.Context, e *env, _ []string) (*printer.Result, error) {
	sizes, err := e.conn.Compute.ListSizes(ctx)
	if err != nil {
		return nil, err
	}
	return &printer.Result{Type: printer.TypeSize, Data: sizes}, nil
}

func runListImages(ctx context.Context, e *env, _ []string) (*printer.Result, error) {
	images, err := e.conn.Compute.ListImages(ctx)
	if err != nil {
		return nil, err
	}
	return &printer.Result{Type: printer.TypeImage, Data: images}, nil
}

func runListNodes(ctx context.Context, e *env, _ []string) (*printer.Result, error) {
	nodes, err := e.conn.Compute.ListNodes(ctx)
	if err != nil {
		return nil, err
	}
	return &printer.Result{Type: printer.TypeNode, Data: nodes}, nil
}

func runCreateNode(ctx context.Context, e *env, _ []string) (*printer.Result, error) {
	node, err := e.createNode(ctx, e.opts.Name)
	if err != nil {
		return nil, err
	}
	if e.opts.WaitRequested {
		if node, err = e.waitForNode(ctx, node.Name); err != nil {
			return nil, err
		}
	}
	return &printer.Result{Message: "Node created", Type: printer.TypeNode, Data: node}, nil
}

func validateDeployNode(o *options.Options, args []string) error {
	if err := o.RequireName(); err != nil {
		return err
	}
	if _, _, err := splitHostname(o.Name); err != nil {
		return err
	}
	return nil
}

// splitHostname splits "web.example.com" into "web" and "example.com".
func splitHostname(name string) (host, domain string, err error) {
	parts := strings.SplitN(name, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.Errorf("--name must be HOST.DOMAIN, got %q", name)
	}
	return parts[0], parts[1], nil
}

// runDeployNode creates a node, waits for it to run and points HOST.DOMAIN at
// its first public address. Steps that already ran are not undone when a
// later one fails.
func runDeployNode(ctx context.Context, e *env, _ []string) (*printer.Result, error) {
	host, domain, _ := splitHostname(e.opts.Name)

	created, err := e.createNode(ctx, e.opts.Name)
	if err != nil {
		return nil, err
	}
	node, err := e.waitForNode(ctx, created.Name)
	if err != nil {
		return nil, err
	}
	if len(node.PublicIPs) == 0 {
		return nil, fail("Node %q has no public address", node.Name)
	}

	zone, err := cloud.FindZone(ctx, e.conn.DNS, domain)
	if err != nil {
		return nil, err
	}
	if zone == nil {
		glog.V(2).Infof("zone %q not found, creating it", domain)
		if zone, err = e.conn.DNS.CreateZone(ctx, cloud.ZoneRequest{Domain: domain, Type: defaultZoneType, TTL: e.opts.TTL}); err != nil {
			return nil, err
		}
	}
	if _, err := e.conn.DNS.CreateRecord(ctx, *zone, cloud.RecordRequest{
		Name: host,
		Type: cloud.RecordTypeA,
		Data: node.PublicIPs[0],
		TTL:  e.opts.TTL,
	}); err != nil {
		return nil, err
	}
	return &printer.Result{Message: "Node deployed", Type: printer.TypeNode, Data: node}, nil
}

func runDestroyNode(ctx context.Context, e *env, _ []string) (*printer.Result, error) {
	node, err := e.node(ctx, e.opts.Name)
	if err != nil {
		return nil, err
	}
	if err := e.conn.Compute.DestroyNode(ctx, *node); err != nil {
		return nil, err
	}
	return &printer.Result{Message: "Node destroyed"}, nil
}

// createNode resolves size, image, public key and script from the settings
// and creates the node. Nothing is created when any of them is missing.
func (e *env) createNode(ctx context.Context, name string) (*cloud.Node, error) {
	if e.settings.Size == 0 {
		return nil, fail("size is not set, use --size or default_size in the provider section")
	}
	if e.settings.Image == "" {
		return nil, fail("image is not set, use --image or default_image in the provider section")
	}
	publicKey, err := readPublicKey(e.settings.PublicKey)
	if err != nil {
		return nil, err
	}
	script, err := readScript(e.settings.Script)
	if err != nil {
		return nil, err
	}

	size, err := cloud.FindSize(ctx, e.conn.Compute, e.settings.Size)
	if err != nil {
		return nil, err
	}
	if size == nil {
		return nil, fail("Size with %d MB of RAM not found", e.settings.Size)
	}
	image, err := cloud.FindImage(ctx, e.conn.Compute, e.settings.Image)
	if err != nil {
		return nil, err
	}
	if image == nil {
		return nil, notFound("Image", e.settings.Image)
	}

	return e.conn.Compute.CreateNode(ctx, cloud.NodeRequest{
		Name:      name,
		Size:      *size,
		Image:     *image,
		Location:  e.settings.Location,
		PublicKey: publicKey,
		Script:    script,
		Extra:     e.opts.ExtraMap,
	})
}

// waitForNode fails unless the node reaches the running state in time.
func (e *env) waitForNode(ctx context.Context, name string) (*cloud.Node, error) {
	node, err := cloud.WaitForRunningNode(ctx, e.conn.Compute, name, e.wait)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, notFound("Node", name)
	}
	if node.State != cloud.NodeStateRunning {
		return nil, fail("Node %q is %s, not running", name, node.State)
	}
	return node, nil
}

func readPublicKey(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", failure{errors.Wrapf(err, "failed to read public key %s", path)}
	}
	key, err := cloud.ParseSSHKey(data)
	if err != nil {
		return "", failure{errors.Wrapf(err, "public key %s is not valid", path)}
	}
	glog.V(3).Infof("using public key %s (%s)", path, key.Fingerprint)
	return key.PublicKey, nil
}

func readScript(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", failure{errors.Wrapf(err, "failed to read script %s", path)}
	}
	return string(data), nil
}
