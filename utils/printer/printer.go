package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

type Format int

const (
	FormatSimple Format = iota
	FormatHuman
	FormatJSON
)

// NewFormat picks the output format from the --human and --json flags. JSON
// wins when both are set.
func NewFormat(human, json bool) Format {
	switch {
	case json:
		return FormatJSON
	case human:
		return FormatHuman
	}
	return FormatSimple
}

func (f Format) String() string {
	switch f {
	case FormatHuman:
		return "human"
	case FormatJSON:
		return "json"
	}
	return "simple"
}

const rule = "----------"

// Result is what a command hands to the printer. Data is a single item or a
// slice of items, both projected according to Type.
type Result struct {
	Message string
	Type    string
	Data    interface{}
}

// Printer renders results and ends the process through Exit.
type Printer struct {
	Out    io.Writer
	Format Format
	Exit   func(code int)
}

func New(format Format) *Printer {
	return &Printer{
		Out:    os.Stdout,
		Format: format,
		Exit:   os.Exit,
	}
}

// Succeed prints r and exits with status 0.
func (p *Printer) Succeed(r Result) {
	if err := p.Print(r); err != nil {
		glog.Errorf("failed to print result: %v", err)
		p.Exit(1)
		return
	}
	p.Exit(0)
}

// Fail prints msg and exits with status 1.
func (p *Printer) Fail(msg string) {
	if err := p.Print(Result{Message: msg}); err != nil {
		glog.Errorf("failed to print failure %q: %v", msg, err)
	}
	p.Exit(1)
}

func (p *Printer) Print(r Result) error {
	switch p.Format {
	case FormatJSON:
		return p.printJSON(r)
	case FormatHuman:
		return p.printHuman(r)
	case FormatSimple:
		return p.printSimple(r)
	}
	return errors.Errorf("output format %v not recognized", p.Format)
}

func (p *Printer) printSimple(r Result) error {
	var b strings.Builder
	if r.Message != "" {
		b.WriteString(r.Message)
		b.WriteString("\n")
	}
	for _, rec := range Records(r.Type, r.Data) {
		values := make([]string, 0, len(rec))
		for _, f := range rec {
			values = append(values, formatValue(f.Value))
		}
		b.WriteString(strings.Join(values, " "))
		b.WriteString("\n")
	}
	_, err := io.WriteString(p.Out, b.String())
	return err
}

func (p *Printer) printHuman(r Result) error {
	var b strings.Builder
	if r.Message != "" {
		b.WriteString(r.Message)
		b.WriteString("\n")
	}
	for i, rec := range Records(r.Type, r.Data) {
		if i > 0 {
			b.WriteString(rule)
			b.WriteString("\n")
		}
		for _, f := range rec {
			fmt.Fprintf(&b, "%s: %s\n", f.Key, formatValue(f.Value))
		}
	}
	_, err := io.WriteString(p.Out, b.String())
	return err
}

func (p *Printer) printJSON(r Result) error {
	doc := map[string]interface{}{}
	if r.Message != "" {
		doc["message"] = r.Message
	}
	if r.Data != nil {
		records := Records(r.Type, r.Data)
		if isList(r.Data) {
			doc["result"] = records
		} else {
			doc["result"] = records[0]
		}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode result")
	}
	_, err = fmt.Fprintf(p.Out, "%s\n", data)
	return err
}

func formatValue(v interface{}) string {
	switch t := v.(type) {
	case []string:
		return strings.Join(t, ",")
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}
