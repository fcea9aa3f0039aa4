package linode

import (
	"context"
	"fmt"
	"strconv"

	"github.com/appscode/go/crypto/rand"
	"github.com/golang/glog"
	"github.com/linode/linodego"
	"github.com/pharmer/cloudcli/cloud"
	"github.com/pkg/errors"
)

func (conn *cloudConnector) ListLocations(ctx context.Context) ([]cloud.Location, error) {
	regions, err := conn.client.ListRegions(ctx, nil)
	if err != nil {
		return nil, wrap(err, "failed to list regions")
	}
	out := make([]cloud.Location, 0, len(regions))
	for _, r := range regions {
		out = append(out, cloud.Location{
			ID:      r.ID,
			Name:    r.Label,
			Country: r.Country,
		})
	}
	return out, nil
}

func (conn *cloudConnector) ListSizes(ctx context.Context) ([]cloud.Size, error) {
	linodeTypes, err := conn.client.ListTypes(ctx, nil)
	if err != nil {
		return nil, wrap(err, "failed to list linode types")
	}
	out := make([]cloud.Size, 0, len(linodeTypes))
	for _, t := range linodeTypes {
		out = append(out, toSize(t))
	}
	return out, nil
}

func (conn *cloudConnector) ListImages(ctx context.Context) ([]cloud.Image, error) {
	images, err := conn.client.ListImages(ctx, nil)
	if err != nil {
		return nil, wrap(err, "failed to list images")
	}
	out := make([]cloud.Image, 0, len(images))
	for _, i := range images {
		out = append(out, cloud.Image{
			ID:   i.ID,
			Name: i.Label,
			Extra: map[string]string{
				"vendor": i.Vendor,
				"public": strconv.FormatBool(i.IsPublic),
			},
		})
	}
	return out, nil
}

func (conn *cloudConnector) ListNodes(ctx context.Context) ([]cloud.Node, error) {
	instances, err := conn.client.ListInstances(ctx, nil)
	if err != nil {
		return nil, wrap(err, "failed to list instances")
	}
	out := make([]cloud.Node, 0, len(instances))
	for _, i := range instances {
		out = append(out, toNode(i))
	}
	return out, nil
}

// CreateNode boots an instance with a generated root password. A deploy
// script is stored as a StackScript and run on first boot.
func (conn *cloudConnector) CreateNode(ctx context.Context, req cloud.NodeRequest) (*cloud.Node, error) {
	region := req.Location
	if region == "" {
		region = conn.region
	}
	createOpts := linodego.InstanceCreateOptions{
		Label:          req.Name,
		Region:         region,
		Type:           req.Size.ID,
		Image:          req.Image.ID,
		RootPass:       rand.GeneratePassword(),
		BackupsEnabled: false,
		PrivateIP:      true,
	}
	if req.PublicKey != "" {
		key, err := cloud.ParseSSHKey([]byte(req.PublicKey))
		if err != nil {
			return nil, err
		}
		createOpts.AuthorizedKeys = []string{key.PublicKey}
	}
	if req.Script != "" {
		scriptID, err := conn.createOrUpdateStackScript(ctx, req.Name, req.Image.ID, req.Script)
		if err != nil {
			return nil, err
		}
		createOpts.StackScriptID = scriptID
		createOpts.StackScriptData = map[string]string{
			"hostname": req.Name,
		}
	}

	instance, err := conn.client.CreateInstance(ctx, createOpts)
	if err != nil {
		return nil, wrap(err, "failed to create instance")
	}
	glog.V(2).Infof("instance %q created with id %d", instance.Label, instance.ID)
	node := toNode(*instance)
	return &node, nil
}

func (conn *cloudConnector) DestroyNode(ctx context.Context, node cloud.Node) error {
	id, err := strconv.Atoi(node.ID)
	if err != nil {
		return errors.Wrapf(err, "invalid instance id %q", node.ID)
	}
	if err := conn.client.DeleteInstance(ctx, id); err != nil {
		return wrap(err, "failed to delete instance")
	}
	return nil
}

func (conn *cloudConnector) createOrUpdateStackScript(ctx context.Context, nodeName, image, script string) (int, error) {
	scriptName := stackScriptName(nodeName)
	filter := fmt.Sprintf(`{"label" : "%v"}`, scriptName)
	listOpts := &linodego.ListOptions{PageOptions: nil, Filter: filter}

	scripts, err := conn.client.ListStackscripts(ctx, listOpts)
	if err != nil {
		return 0, wrap(err, "failed to list stackscripts")
	}

	if len(scripts) > 1 {
		return 0, errors.Errorf("multiple stackscript found with label %v", scriptName)
	} else if len(scripts) == 0 {
		createOpts := linodego.StackscriptCreateOptions{
			Label:       scriptName,
			Description: fmt.Sprintf("Deploy script for node %s", nodeName),
			Images:      []string{image},
			Script:      script,
		}
		stackScript, err := conn.client.CreateStackscript(ctx, createOpts)
		if err != nil {
			return 0, wrap(err, "failed to create stackscript")
		}
		glog.V(2).Infof("stackscript %q created", scriptName)
		return stackScript.ID, nil
	}

	updateOpts := scripts[0].GetUpdateOptions()
	updateOpts.Script = script
	updateOpts.Images = []string{image}

	stackScript, err := conn.client.UpdateStackscript(ctx, scripts[0].ID, updateOpts)
	if err != nil {
		return 0, wrap(err, "failed to update stackscript")
	}
	glog.V(2).Infof("stackscript %q updated", scriptName)
	return stackScript.ID, nil
}

func stackScriptName(nodeName string) string {
	return nodeLabel("deploy-" + nodeName)
}

func toSize(t linodego.LinodeType) cloud.Size {
	s := cloud.Size{
		ID:        t.ID,
		Name:      t.Label,
		RAM:       t.Memory,
		Disk:      t.Disk / 1024,
		Bandwidth: t.Transfer,
	}
	if t.Price != nil {
		s.Price = float64(t.Price.Monthly)
	}
	return s
}

func toNode(i linodego.Instance) cloud.Node {
	public, private := splitIPs(i.IPv4)
	return cloud.Node{
		ID:         strconv.Itoa(i.ID),
		Name:       i.Label,
		State:      toNodeState(i.Status),
		PublicIPs:  public,
		PrivateIPs: private,
		Size:       i.Type,
		Image:      i.Image,
		Extra: map[string]string{
			"region": i.Region,
		},
	}
}

func toNodeState(status linodego.InstanceStatus) cloud.NodeState {
	switch status {
	case linodego.InstanceRunning:
		return cloud.NodeStateRunning
	case linodego.InstanceBooting, linodego.InstanceProvisioning, linodego.InstanceMigrating,
		linodego.InstanceRebuilding, linodego.InstanceCloning, linodego.InstanceRestoring,
		linodego.InstanceResizing:
		return cloud.NodeStatePending
	case linodego.InstanceRebooting:
		return cloud.NodeStateRebooting
	case linodego.InstanceOffline, linodego.InstanceShuttingDown:
		return cloud.NodeStateStopped
	case linodego.InstanceDeleting:
		return cloud.NodeStateTerminated
	}
	return cloud.NodeStateUnknown
}
