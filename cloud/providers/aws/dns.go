package aws

import (
	"context"
	"strings"

	"github.com/appscode/go/crypto/rand"
	"github.com/appscode/go/types"
	_route53 "github.com/aws/aws-sdk-go/service/route53"
	"github.com/pharmer/cloudcli/cloud"

	_aws "github.com/aws/aws-sdk-go/aws"
)

const defaultRecordTTL = 300

func (conn *cloudConnector) RecordTypes() []cloud.RecordType {
	return []cloud.RecordType{
		cloud.RecordTypeA,
		cloud.RecordTypeAAAA,
		cloud.RecordTypeCAA,
		cloud.RecordTypeCNAME,
		cloud.RecordTypeMX,
		cloud.RecordTypeNS,
		cloud.RecordTypePTR,
		cloud.RecordTypeSOA,
		cloud.RecordTypeSPF,
		cloud.RecordTypeSRV,
		cloud.RecordTypeTXT,
	}
}

func (conn *cloudConnector) ListZones(ctx context.Context) ([]cloud.Zone, error) {
	zones := []cloud.Zone{}
	err := conn.route53.ListHostedZonesPagesWithContext(ctx, &_route53.ListHostedZonesInput{},
		func(page *_route53.ListHostedZonesOutput, lastPage bool) bool {
			for _, hz := range page.HostedZones {
				zones = append(zones, toZone(hz))
			}
			return true
		})
	if err != nil {
		return nil, wrap(err, "failed to list hosted zones")
	}
	return zones, nil
}

func (conn *cloudConnector) ListRecords(ctx context.Context, zone cloud.Zone) ([]cloud.Record, error) {
	records := []cloud.Record{}
	err := conn.route53.ListResourceRecordSetsPagesWithContext(ctx, &_route53.ListResourceRecordSetsInput{
		HostedZoneId: types.StringP(zone.ID),
	}, func(page *_route53.ListResourceRecordSetsOutput, lastPage bool) bool {
		for _, rrs := range page.ResourceRecordSets {
			records = append(records, toRecords(zone, rrs)...)
		}
		return true
	})
	if err != nil {
		return nil, wrap(err, "failed to list resource record sets")
	}
	return records, nil
}

// CreateZone creates a public hosted zone. Route 53 has no zone level TTL;
// TTL applies to records only.
func (conn *cloudConnector) CreateZone(ctx context.Context, req cloud.ZoneRequest) (*cloud.Zone, error) {
	in := &_route53.CreateHostedZoneInput{
		Name:            types.StringP(req.Domain),
		CallerReference: types.StringP(rand.WithUniqSuffix("cloudcli")),
	}
	if comment, ok := req.Extra["comment"]; ok {
		in.HostedZoneConfig = &_route53.HostedZoneConfig{Comment: types.StringP(comment)}
	}
	out, err := conn.route53.CreateHostedZoneWithContext(ctx, in)
	if err != nil {
		return nil, wrap(err, "failed to create hosted zone")
	}
	zone := toZone(out.HostedZone)
	return &zone, nil
}

func (conn *cloudConnector) CreateRecord(ctx context.Context, zone cloud.Zone, req cloud.RecordRequest) (*cloud.Record, error) {
	ttl := req.TTL
	if ttl == 0 {
		ttl = defaultRecordTTL
	}
	rrs := &_route53.ResourceRecordSet{
		Name: types.StringP(fqdn(req.Name, zone.Domain)),
		Type: types.StringP(req.Type.String()),
		TTL:  _aws.Int64(int64(ttl)),
		ResourceRecords: []*_route53.ResourceRecord{
			{Value: types.StringP(req.Data)},
		},
	}
	out, err := conn.route53.ChangeResourceRecordSetsWithContext(ctx, &_route53.ChangeResourceRecordSetsInput{
		HostedZoneId: types.StringP(zone.ID),
		ChangeBatch: &_route53.ChangeBatch{
			Changes: []*_route53.Change{
				{
					Action:            types.StringP(_route53.ChangeActionCreate),
					ResourceRecordSet: rrs,
				},
			},
		},
	})
	if err != nil {
		return nil, wrap(err, "failed to create resource record set")
	}
	record := toRecords(zone, rrs)[0]
	if out.ChangeInfo != nil {
		record.ID = _aws.StringValue(out.ChangeInfo.Id)
		record.Extra["status"] = _aws.StringValue(out.ChangeInfo.Status)
	}
	return &record, nil
}

// fqdn qualifies a record name relative to its zone. "@" and "" name the apex.
func fqdn(name, domain string) string {
	domain = strings.TrimSuffix(domain, ".")
	switch {
	case name == "" || name == "@":
		return domain + "."
	case strings.HasSuffix(name, "."):
		return name
	case strings.HasSuffix(name, "."+domain) || name == domain:
		return name + "."
	}
	return name + "." + domain + "."
}

func toZone(hz *_route53.HostedZone) cloud.Zone {
	zone := cloud.Zone{
		ID:     strings.TrimPrefix(_aws.StringValue(hz.Id), "/hostedzone/"),
		Domain: strings.TrimSuffix(_aws.StringValue(hz.Name), "."),
		Type:   "master",
		Extra:  map[string]string{},
	}
	if hz.Config != nil {
		zone.Extra["comment"] = _aws.StringValue(hz.Config.Comment)
		if _aws.BoolValue(hz.Config.PrivateZone) {
			zone.Extra["private"] = "true"
		}
	}
	return zone
}

// toRecords flattens a record set into one record per value.
func toRecords(zone cloud.Zone, rrs *_route53.ResourceRecordSet) []cloud.Record {
	rt, err := cloud.ParseRecordType(_aws.StringValue(rrs.Type))
	if err != nil {
		rt = cloud.RecordTypeA
	}
	name := strings.TrimSuffix(_aws.StringValue(rrs.Name), ".")
	name = strings.TrimSuffix(strings.TrimSuffix(name, zone.Domain), ".")
	base := cloud.Record{
		ID:         _aws.StringValue(rrs.Name) + " " + _aws.StringValue(rrs.Type),
		Name:       name,
		Type:       rt,
		TTL:        int(_aws.Int64Value(rrs.TTL)),
		ZoneID:     zone.ID,
		ZoneDomain: zone.Domain,
	}
	if rrs.AliasTarget != nil {
		r := base
		r.Data = _aws.StringValue(rrs.AliasTarget.DNSName)
		r.Extra = map[string]string{"alias": "true"}
		return []cloud.Record{r}
	}
	records := make([]cloud.Record, 0, len(rrs.ResourceRecords))
	for _, rr := range rrs.ResourceRecords {
		r := base
		r.Data = _aws.StringValue(rr.Value)
		r.Extra = map[string]string{}
		records = append(records, r)
	}
	if len(records) == 0 {
		base.Extra = map[string]string{}
		records = append(records, base)
	}
	return records
}
