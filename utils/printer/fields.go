package printer

import (
	"encoding/json"
	"reflect"

	"github.com/davecgh/go-spew/spew"
	"github.com/pharmer/cloudcli/cloud"
)

// Result types understood by the printer.
const (
	TypeZone           = "zone"
	TypeZoneRecord     = "zone_record"
	TypeBalancer       = "balancer"
	TypeBalancerMember = "balancer_member"
	TypeSize           = "size"
	TypeImage          = "image"
	TypeLocation       = "location"
	TypeNode           = "node"
	TypeRecordType     = "record_type"
	TypeProtocol       = "protocol"

	unknownKey = "unknown key"
)

type Field struct {
	Key   string
	Value interface{}
}

// Record is an ordered field mapping built from one result item.
type Record []Field

func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for _, f := range r {
		keys = append(keys, f.Key)
	}
	return keys
}

// MarshalJSON writes the record as an object with sorted keys.
func (r Record) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(r))
	for _, f := range r {
		m[f.Key] = f.Value
	}
	return json.Marshal(m)
}

type projection func(item interface{}) (Record, bool)

var projections = map[string]projection{
	TypeZone:           projectZone,
	TypeZoneRecord:     projectZoneRecord,
	TypeBalancer:       projectBalancer,
	TypeBalancerMember: projectMember,
	TypeSize:           projectSize,
	TypeImage:          projectImage,
	TypeLocation:       projectLocation,
	TypeNode:           projectNode,
	TypeRecordType:     projectRecordType,
	TypeProtocol:       projectValue,
	"":                 projectValue,
}

// Project maps item through the projection registered for typ. Unknown types
// and items that do not fit their projection come out as a single
// "unknown key" field.
func Project(typ string, item interface{}) Record {
	item = indirect(item)
	if p, found := projections[typ]; found {
		if r, ok := p(item); ok {
			return r
		}
	}
	return Record{{unknownKey, spew.Sprintf("%+v", item)}}
}

// Records projects every item of data, which is either a single item or a
// slice of them.
func Records(typ string, data interface{}) []Record {
	if data == nil {
		return nil
	}
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice {
		return []Record{Project(typ, data)}
	}
	records := make([]Record, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		records = append(records, Project(typ, v.Index(i).Interface()))
	}
	return records
}

func isList(data interface{}) bool {
	if data == nil {
		return false
	}
	return reflect.ValueOf(data).Kind() == reflect.Slice
}

func indirect(item interface{}) interface{} {
	v := reflect.ValueOf(item)
	if v.Kind() == reflect.Ptr && !v.IsNil() {
		return v.Elem().Interface()
	}
	return item
}

func projectZone(item interface{}) (Record, bool) {
	z, ok := item.(cloud.Zone)
	if !ok {
		return nil, false
	}
	return Record{
		{"id", z.ID},
		{"domain", z.Domain},
		{"type", z.Type},
		{"ttl", z.TTL},
	}, true
}

func projectZoneRecord(item interface{}) (Record, bool) {
	r, ok := item.(cloud.Record)
	if !ok {
		return nil, false
	}
	return Record{
		{"id", r.ID},
		{"name", r.Name},
		{"type", r.Type.String()},
		{"data", r.Data},
		{"ttl", r.TTL},
		{"zone", r.ZoneDomain},
	}, true
}

func projectBalancer(item interface{}) (Record, bool) {
	b, ok := item.(cloud.Balancer)
	if !ok {
		return nil, false
	}
	return Record{
		{"id", b.ID},
		{"name", b.Name},
		{"state", b.State.String()},
		{"ip", b.IP},
		{"port", b.Port},
	}, true
}

func projectMember(item interface{}) (Record, bool) {
	m, ok := item.(cloud.Member)
	if !ok {
		return nil, false
	}
	return Record{
		{"id", m.ID},
		{"ip", m.IP},
		{"port", m.Port},
	}, true
}

func projectSize(item interface{}) (Record, bool) {
	s, ok := item.(cloud.Size)
	if !ok {
		return nil, false
	}
	return Record{
		{"id", s.ID},
		{"name", s.Name},
		{"ram", s.RAM},
		{"disk", s.Disk},
		{"bandwidth", s.Bandwidth},
		{"price", s.Price},
	}, true
}

func projectImage(item interface{}) (Record, bool) {
	i, ok := item.(cloud.Image)
	if !ok {
		return nil, false
	}
	return Record{
		{"id", i.ID},
		{"name", i.Name},
	}, true
}

func projectLocation(item interface{}) (Record, bool) {
	l, ok := item.(cloud.Location)
	if !ok {
		return nil, false
	}
	return Record{
		{"id", l.ID},
		{"name", l.Name},
		{"country", l.Country},
	}, true
}

func projectNode(item interface{}) (Record, bool) {
	n, ok := item.(cloud.Node)
	if !ok {
		return nil, false
	}
	return Record{
		{"id", n.ID},
		{"name", n.Name},
		{"state", n.State.String()},
		{"public_ips", nonNil(n.PublicIPs)},
		{"private_ips", nonNil(n.PrivateIPs)},
	}, true
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func projectRecordType(item interface{}) (Record, bool) {
	t, ok := item.(cloud.RecordType)
	if !ok {
		return nil, false
	}
	return Record{{"name", t.String()}}, true
}

func projectValue(item interface{}) (Record, bool) {
	return Record{{"value", item}}, true
}
