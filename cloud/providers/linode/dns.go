package linode

import (
	"context"
	"strconv"

	"github.com/appscode/go/types"
	"github.com/linode/linodego"
	"github.com/pharmer/cloudcli/cloud"
	"github.com/pkg/errors"
)

func (conn *cloudConnector) RecordTypes() []cloud.RecordType {
	return []cloud.RecordType{
		cloud.RecordTypeA,
		cloud.RecordTypeAAAA,
		cloud.RecordTypeCAA,
		cloud.RecordTypeCNAME,
		cloud.RecordTypeMX,
		cloud.RecordTypeNS,
		cloud.RecordTypePTR,
		cloud.RecordTypeSRV,
		cloud.RecordTypeTXT,
	}
}

func (conn *cloudConnector) ListZones(ctx context.Context) ([]cloud.Zone, error) {
	domains, err := conn.client.ListDomains(ctx, nil)
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
	id, err := strconv.Atoi(zone.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid domain id %q", zone.ID)
	}
	records, err := conn.client.ListDomainRecords(ctx, id, nil)
	if err != nil {
		return nil, wrap(err, "failed to list domain records")
	}
	out := make([]cloud.Record, 0, len(records))
	for _, r := range records {
		out = append(out, toRecord(zone, r))
	}
	return out, nil
}

func (conn *cloudConnector) CreateZone(ctx context.Context, req cloud.ZoneRequest) (*cloud.Zone, error) {
	opts := linodego.DomainCreateOptions{
		Domain:   req.Domain,
		Type:     linodego.DomainTypeMaster,
		SOAEmail: conn.soaEmail,
		TTLSec:   req.TTL,
	}
	if req.Type == "slave" {
		opts.Type = linodego.DomainTypeSlave
		if ip, ok := req.Extra["master_ip"]; ok {
			opts.MasterIPs = []string{ip}
		}
	}
	if email, ok := req.Extra["soa_email"]; ok {
		opts.SOAEmail = email
	}
	d, err := conn.client.CreateDomain(ctx, opts)
	if err != nil {
		return nil, wrap(err, "failed to create domain")
	}
	zone := toZone(*d)
	return &zone, nil
}

func (conn *cloudConnector) CreateRecord(ctx context.Context, zone cloud.Zone, req cloud.RecordRequest) (*cloud.Record, error) {
	id, err := strconv.Atoi(zone.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid domain id %q", zone.ID)
	}
	opts := linodego.DomainRecordCreateOptions{
		Type:   linodego.DomainRecordType(req.Type.String()),
		Name:   req.Name,
		Target: req.Data,
		TTLSec: req.TTL,
	}
	if v, err := strconv.Atoi(req.Extra["priority"]); err == nil {
		opts.Priority = types.IntP(v)
	}
	if v, err := strconv.Atoi(req.Extra["weight"]); err == nil {
		opts.Weight = types.IntP(v)
	}
	if v, err := strconv.Atoi(req.Extra["port"]); err == nil {
		opts.Port = types.IntP(v)
	}
	r, err := conn.client.CreateDomainRecord(ctx, id, opts)
	if err != nil {
		return nil, wrap(err, "failed to create domain record")
	}
	record := toRecord(zone, *r)
	return &record, nil
}

func toZone(d linodego.Domain) cloud.Zone {
	return cloud.Zone{
		ID:     strconv.Itoa(d.ID),
		Domain: d.Domain,
		Type:   string(d.Type),
		TTL:    d.TTLSec,
		Extra: map[string]string{
			"soa_email": d.SOAEmail,
			"status":    string(d.Status),
		},
	}
}

func toRecord(zone cloud.Zone, r linodego.DomainRecord) cloud.Record {
	rt, err := cloud.ParseRecordType(string(r.Type))
	if err != nil {
		rt = cloud.RecordTypeA
	}
	record := cloud.Record{
		ID:         strconv.Itoa(r.ID),
		Name:       r.Name,
		Type:       rt,
		Data:       r.Target,
		TTL:        r.TTLSec,
		ZoneID:     zone.ID,
		ZoneDomain: zone.Domain,
		Extra:      map[string]string{},
	}
	if r.Priority != 0 {
		record.Extra["priority"] = strconv.Itoa(r.Priority)
	}
	if r.Weight != 0 {
		record.Extra["weight"] = strconv.Itoa(r.Weight)
	}
	if r.Port != 0 {
		record.Extra["port"] = strconv.Itoa(r.Port)
	}
	return record
}
