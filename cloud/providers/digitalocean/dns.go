package digitalocean

import (
	"context"
	"strconv"

	"github.com/digitalocean/godo"
	"github.com/pharmer/cloudcli/cloud"
)

func (conn *cloudConnector) RecordTypes() []cloud.RecordType {
	return []cloud.RecordType{
		cloud.RecordTypeA,
		cloud.RecordTypeAAAA,
		cloud.RecordTypeCAA,
		cloud.RecordTypeCNAME,
		cloud.RecordTypeMX,
		cloud.RecordTypeNS,
		cloud.RecordTypeSRV,
		cloud.RecordTypeTXT,
	}
}

func (conn *cloudConnector) ListZones(ctx context.Context) ([]cloud.Zone, error) {
	domains, err := listAll(ctx, conn.client.Domains.List)
	if err != nil {
		return nil, wrap(err, "failed to list domains")
	}
	zones := make([]cloud.Zone, 0, len(domains))
	for _, d := range domains {
		zones = append(zones, toZone(d))
	}
	return zones, nil
}

func (conn *cloudConnector) ListRecords(ctx context.Context, zone cloud.Zone) ([]cloud.Record, error) {
	records, err := listAll(ctx, func(ctx context.Context, opt *godo.ListOptions) ([]godo.DomainRecord, *godo.Response, error) {
		return conn.client.Domains.Records(ctx, zone.Domain, opt)
	})
	if err != nil {
		return nil, wrap(err, "failed to list domain records")
	}
	out := make([]cloud.Record, 0, len(records))
	for _, r := range records {
		out = append(out, toRecord(zone, r))
	}
	return out, nil
}

// CreateZone creates a master zone. DigitalOcean has no slave zones and sets
// the zone TTL itself.
func (conn *cloudConnector) CreateZone(ctx context.Context, req cloud.ZoneRequest) (*cloud.Zone, error) {
	d, _, err := conn.client.Domains.Create(ctx, &godo.DomainCreateRequest{
		Name:      req.Domain,
		IPAddress: req.Extra["ip_address"],
	})
	if err != nil {
		return nil, wrap(err, "failed to create domain")
	}
	zone := toZone(*d)
	return &zone, nil
}

func (conn *cloudConnector) CreateRecord(ctx context.Context, zone cloud.Zone, req cloud.RecordRequest) (*cloud.Record, error) {
	edit := &godo.DomainRecordEditRequest{
		Type: req.Type.String(),
		Name: req.Name,
		Data: req.Data,
		TTL:  req.TTL,
	}
	if v, ok := req.Extra["priority"]; ok {
		edit.Priority, _ = strconv.Atoi(v)
	}
	if v, ok := req.Extra["port"]; ok {
		edit.Port, _ = strconv.Atoi(v)
	}
	if v, ok := req.Extra["weight"]; ok {
		edit.Weight, _ = strconv.Atoi(v)
	}
	r, _, err := conn.client.Domains.CreateRecord(ctx, zone.Domain, edit)
	if err != nil {
		return nil, wrap(err, "failed to create domain record")
	}
	record := toRecord(zone, *r)
	return &record, nil
}

func toZone(d godo.Domain) cloud.Zone {
	return cloud.Zone{
		ID:     d.Name,
		Domain: d.Name,
		Type:   "master",
		TTL:    d.TTL,
	}
}

func toRecord(zone cloud.Zone, r godo.DomainRecord) cloud.Record {
	rt, err := cloud.ParseRecordType(r.Type)
	if err != nil {
		rt = cloud.RecordTypeA
	}
	record := cloud.Record{
		ID:         strconv.Itoa(r.ID),
		Name:       r.Name,
		Type:       rt,
		Data:       r.Data,
		TTL:        r.TTL,
		ZoneID:     zone.ID,
		ZoneDomain: zone.Domain,
		Extra:      map[string]string{},
	}
	if r.Priority != 0 {
		record.Extra["priority"] = strconv.Itoa(r.Priority)
	}
	if r.Port != 0 {
		record.Extra["port"] = strconv.Itoa(r.Port)
	}
	if r.Weight != 0 {
		record.Extra["weight"] = strconv.Itoa(r.Weight)
	}
	return record
}
