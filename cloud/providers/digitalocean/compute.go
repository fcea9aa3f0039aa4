package digitalocean

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/digitalocean/godo"
	"github.com/golang/glog"
	"github.com/pharmer/cloudcli/cloud"
	"github.com/pkg/errors"
)

var regionCountries = map[string]string{
	"ams": "NL",
	"blr": "IN",
	"fra": "DE",
	"lon": "GB",
	"nyc": "US",
	"sfo": "US",
	"sgp": "SG",
	"syd": "AU",
	"tor": "CA",
}

func (conn *cloudConnector) ListLocations(ctx context.Context) ([]cloud.Location, error) {
	regions, err := listAll(ctx, conn.client.Regions.List)
	if err != nil {
		return nil, wrap(err, "failed to list regions")
	}
	out := make([]cloud.Location, 0, len(regions))
	for _, r := range regions {
		out = append(out, toLocation(r))
	}
	return out, nil
}

func (conn *cloudConnector) ListSizes(ctx context.Context) ([]cloud.Size, error) {
	sizes, err := listAll(ctx, conn.client.Sizes.List)
	if err != nil {
		return nil, wrap(err, "failed to list sizes")
	}
	out := make([]cloud.Size, 0, len(sizes))
	for _, s := range sizes {
		out = append(out, toSize(s))
	}
	return out, nil
}

func (conn *cloudConnector) ListImages(ctx context.Context) ([]cloud.Image, error) {
	images, err := listAll(ctx, conn.client.Images.List)
	if err != nil {
		return nil, wrap(err, "failed to list images")
	}
	out := make([]cloud.Image, 0, len(images))
	for _, i := range images {
		out = append(out, toImage(i))
	}
	return out, nil
}

func (conn *cloudConnector) ListNodes(ctx context.Context) ([]cloud.Node, error) {
	droplets, err := listAll(ctx, conn.client.Droplets.List)
	if err != nil {
		return nil, wrap(err, "failed to list droplets")
	}
	out := make([]cloud.Node, 0, len(droplets))
	for _, d := range droplets {
		out = append(out, toNode(d))
	}
	return out, nil
}

func (conn *cloudConnector) CreateNode(ctx context.Context, req cloud.NodeRequest) (*cloud.Node, error) {
	region := req.Location
	if region == "" {
		region = conn.region
	}
	create := &godo.DropletCreateRequest{
		Name:     req.Name,
		Region:   region,
		Size:     req.Size.ID,
		Image:    toCreateImage(req.Image),
		UserData: req.Script,
		Tags:     []string{"cloudcli"},
	}
	if req.PublicKey != "" {
		fingerprint, err := conn.ensureSSHKey(ctx, req.PublicKey)
		if err != nil {
			return nil, err
		}
		create.SSHKeys = []godo.DropletCreateSSHKey{{Fingerprint: fingerprint}}
	}
	d, _, err := conn.client.Droplets.Create(ctx, create)
	if err != nil {
		return nil, wrap(err, "failed to create droplet")
	}
	glog.V(2).Infof("droplet %q created with id %d", d.Name, d.ID)
	node := toNode(*d)
	return &node, nil
}

func (conn *cloudConnector) DestroyNode(ctx context.Context, node cloud.Node) error {
	id, err := strconv.Atoi(node.ID)
	if err != nil {
		return errors.Wrapf(err, "invalid droplet id %q", node.ID)
	}
	if _, err := conn.client.Droplets.Delete(ctx, id); err != nil {
		return wrap(err, "failed to delete droplet")
	}
	return nil
}

// ensureSSHKey imports the public key unless an account key with the same
// fingerprint exists, and returns that fingerprint.
func (conn *cloudConnector) ensureSSHKey(ctx context.Context, publicKey string) (string, error) {
	key, err := cloud.ParseSSHKey([]byte(publicKey))
	if err != nil {
		return "", err
	}
	_, resp, err := conn.client.Keys.GetByFingerprint(ctx, key.Fingerprint)
	if err == nil {
		return key.Fingerprint, nil
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		return "", wrap(err, "failed to look up ssh key")
	}
	_, _, err = conn.client.Keys.Create(ctx, &godo.KeyCreateRequest{
		Name:      key.Name(),
		PublicKey: key.PublicKey,
	})
	if err != nil {
		return "", wrap(err, "failed to import ssh key")
	}
	return key.Fingerprint, nil
}

func toCreateImage(image cloud.Image) godo.DropletCreateImage {
	if id, err := strconv.Atoi(image.ID); err == nil {
		return godo.DropletCreateImage{ID: id}
	}
	return godo.DropletCreateImage{Slug: image.ID}
}

func toLocation(r godo.Region) cloud.Location {
	country := ""
	if len(r.Slug) >= 3 {
		country = regionCountries[r.Slug[:3]]
	}
	return cloud.Location{
		ID:      r.Slug,
		Name:    r.Name,
		Country: country,
	}
}

func toSize(s godo.Size) cloud.Size {
	return cloud.Size{
		ID:        s.Slug,
		Name:      s.Slug,
		RAM:       s.Memory,
		Disk:      s.Disk,
		Bandwidth: int(s.Transfer * 1024),
		Price:     s.PriceMonthly,
	}
}

func toImage(i godo.Image) cloud.Image {
	id := i.Slug
	if id == "" {
		id = strconv.Itoa(i.ID)
	}
	return cloud.Image{
		ID:   id,
		Name: strings.TrimSpace(i.Distribution + " " + i.Name),
		Extra: map[string]string{
			"type":   i.Type,
			"public": strconv.FormatBool(i.Public),
		},
	}
}

func toNode(d godo.Droplet) cloud.Node {
	node := cloud.Node{
		ID:         strconv.Itoa(d.ID),
		Name:       d.Name,
		State:      toNodeState(d.Status),
		PublicIPs:  []string{},
		PrivateIPs: []string{},
		Size:       d.SizeSlug,
		Extra:      map[string]string{},
	}
	if d.Networks != nil {
		for _, n := range d.Networks.V4 {
			switch n.Type {
			case "public":
				node.PublicIPs = append(node.PublicIPs, n.IPAddress)
			case "private":
				node.PrivateIPs = append(node.PrivateIPs, n.IPAddress)
			}
		}
	}
	if d.Image != nil {
		node.Image = d.Image.Slug
		if node.Image == "" {
			node.Image = strconv.Itoa(d.Image.ID)
		}
	}
	if d.Region != nil {
		node.Extra["region"] = d.Region.Slug
	}
	return node
}

func toNodeState(status string) cloud.NodeState {
	switch status {
	case "active":
		return cloud.NodeStateRunning
	case "new":
		return cloud.NodeStatePending
	case "off":
		return cloud.NodeStateStopped
	case "archive":
		return cloud.NodeStateTerminated
	}
	return cloud.NodeStateUnknown
}
