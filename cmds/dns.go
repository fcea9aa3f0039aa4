package cmds

import (
	"context"
	"strings"

	"github.com/pharmer/cloudcli/cloud"
	"github.com/pharmer/cloudcli/cmds/options"
	"github.com/pharmer/cloudcli/utils/printer"
	"github.com/pkg/errors"
)

const defaultZoneType = "master"

func runListZones(ctx context.Context, e *env, _ []string) (*printer.Result, error) {
	zones, err := e.conn.DNS.ListZones(ctx)
	if err != nil {
		return nil, err
	}
	return &printer.Result{Type: printer.TypeZone, Data: zones}, nil
}

func runListZoneRecords(ctx context.Context, e *env, _ []string) (*printer.Result, error) {
	zone, err := e.zone(ctx, e.opts.Name)
	if err != nil {
		return nil, err
	}
	records, err := e.conn.DNS.ListRecords(ctx, *zone)
	if err != nil {
		return nil, err
	}
	return &printer.Result{Type: printer.TypeZoneRecord, Data: records}, nil
}

func runCreateZone(ctx context.Context, e *env, _ []string) (*printer.Result, error) {
	req := cloud.ZoneRequest{
		Domain: e.opts.Name,
		Type:   strings.ToLower(e.opts.Type),
		TTL:    e.opts.TTL,
		Extra:  e.opts.ExtraMap,
	}
	if req.Type == "" {
		req.Type = defaultZoneType
	}
	zone, err := e.conn.DNS.CreateZone(ctx, req)
	if err != nil {
		return nil, err
	}
	return &printer.Result{Message: "Zone created", Type: printer.TypeZone, Data: zone}, nil
}

func validateCreateZoneRecord(o *options.Options, args []string) error {
	if err := o.RequireName(); err != nil {
		return err
	}
	if len(args) != 2 {
		return errors.New("RECORD and DATA arguments are required")
	}
	if o.Type != "" {
		if _, err := cloud.ParseRecordType(o.Type); err != nil {
			return errors.Wrap(err, "invalid --type")
		}
	}
	return nil
}

func runCreateZoneRecord(ctx context.Context, e *env, args []string) (*printer.Result, error) {
	typ := cloud.RecordTypeA
	if e.opts.Type != "" {
		typ, _ = cloud.ParseRecordType(e.opts.Type)
	}
	zone, err := e.zone(ctx, e.opts.Name)
	if err != nil {
		return nil, err
	}
	record, err := e.conn.DNS.CreateRecord(ctx, *zone, cloud.RecordRequest{
		Name:  args[0],
		Type:  typ,
		Data:  args[1],
		TTL:   e.opts.TTL,
		Extra: e.opts.ExtraMap,
	})
	if err != nil {
		return nil, err
	}
	return &printer.Result{Message: "Record created", Type: printer.TypeZoneRecord, Data: record}, nil
}

func runListRecordTypes(_ context.Context, e *env, _ []string) (*printer.Result, error) {
	return &printer.Result{Type: printer.TypeRecordType, Data: e.conn.DNS.RecordTypes()}, nil
}
