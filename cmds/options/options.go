package options

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/pharmer/cloudcli/cloud"
	"github.com/pharmer/cloudcli/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Options is the option set shared by every verb.
type Options struct {
	ID        string
	Name      string
	Type      string
	TTL       int
	Extra     string
	Port      int
	Member    string
	Protocol  string
	Algorithm string
	Size      int
	Image     string
	Wait      int
	Human     bool
	JSON      bool

	Provider   string
	User       string
	Key        string
	PublicKey  string
	Script     string
	ConfigFile string
	Location   string

	// set by ValidateFlags
	ExtraMap      map[string]string
	WaitRequested bool
}

func New() *Options {
	return &Options{
		Protocol:  "http",
		Algorithm: cloud.AlgorithmRoundRobin.String(),
	}
}

func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.ID, "id", o.ID, "ID of the resource")
	fs.StringVar(&o.Name, "name", o.Name, "Name of the zone, balancer or node")
	fs.StringVar(&o.Type, "type", o.Type, "Zone type (master|slave) or record type (A|AAAA|CNAME|...)")
	fs.IntVar(&o.TTL, "ttl", o.TTL, "Time to live in seconds")
	fs.StringVar(&o.Extra, "extra", o.Extra, "Provider specific attributes as key=value pairs separated by commas")
	fs.IntVar(&o.Port, "port", o.Port, "Port the balancer listens on")
	fs.StringVar(&o.Member, "member", o.Member, "Balancer member as IP:PORT")
	fs.StringVar(&o.Protocol, "protocol", o.Protocol, "Balancer protocol")
	fs.StringVar(&o.Algorithm, "algorithm", o.Algorithm, "Balancer algorithm")
	fs.IntVar(&o.Size, "size", o.Size, "RAM of the node size in megabytes")
	fs.StringVar(&o.Image, "image", o.Image, "Name of the node image")
	fs.IntVar(&o.Wait, "wait", o.Wait, fmt.Sprintf("Seconds to wait for the resource to run (default %v)", cloud.RetryTimeout))
	fs.BoolVar(&o.Human, "human", o.Human, "Print key: value blocks")
	fs.BoolVar(&o.JSON, "json", o.JSON, "Print a JSON document")

	fs.StringVar(&o.Provider, "provider", o.Provider, "Cloud provider name")
	fs.StringVar(&o.User, "user", o.User, "Provider user or access key id")
	fs.StringVar(&o.Key, "key", o.Key, "Provider API key or secret")
	fs.StringVar(&o.PublicKey, "public-key", o.PublicKey, fmt.Sprintf("Path to the SSH public key (default %s)", config.DefaultPublicKey))
	fs.StringVar(&o.Script, "script", o.Script, "Path to a script run on first boot")
	fs.StringVar(&o.ConfigFile, "config-file", o.ConfigFile, fmt.Sprintf("Path to the settings file (default %s)", config.DefaultConfigFile))
	fs.StringVar(&o.Location, "location", o.Location, "Region used for new resources")
}

// ValidateFlags checks the values common to all verbs. It never touches the
// network.
func (o *Options) ValidateFlags(cmd *cobra.Command, args []string) error {
	if o.TTL < 0 {
		return errors.Errorf("--ttl must not be negative, got %d", o.TTL)
	}
	if o.Port < 0 || o.Port > 65535 {
		return errors.Errorf("--port must be between 0 and 65535, got %d", o.Port)
	}
	if o.Wait < 0 {
		return errors.Errorf("--wait must not be negative, got %d", o.Wait)
	}
	if _, err := cloud.ParseAlgorithm(o.Algorithm); err != nil {
		return errors.Wrap(err, "invalid --algorithm")
	}
	extra, err := ParseExtra(o.Extra)
	if err != nil {
		return err
	}
	o.ExtraMap = extra
	o.Protocol = strings.ToLower(o.Protocol)
	if cmd != nil {
		o.WaitRequested = cmd.Flags().Changed("wait")
	}
	return nil
}

// Settings returns the connection settings given on the command line.
func (o *Options) Settings() config.Settings {
	return config.Settings{
		ConfigFile: o.ConfigFile,
		Provider:   o.Provider,
		User:       o.User,
		Key:        o.Key,
		Location:   o.Location,
		Size:       o.Size,
		Image:      o.Image,
		PublicKey:  o.PublicKey,
		Script:     o.Script,
	}
}

// RequireName fails unless --name is set.
func (o *Options) RequireName() error {
	if o.Name == "" {
		return errors.New("--name is required")
	}
	return nil
}

// ParseExtra parses "k1=v1,k2=v2". An empty string yields a nil map.
func ParseExtra(s string) (map[string]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	extra := map[string]string{}
	for _, pair := range strings.Split(s, ",") {
		kv := strings.SplitN(pair, "=", 2)
		key := strings.TrimSpace(kv[0])
		if len(kv) != 2 || key == "" {
			return nil, errors.Errorf("invalid --extra entry %q, expected key=value", pair)
		}
		extra[key] = strings.TrimSpace(kv[1])
	}
	return extra, nil
}

// ParseMember parses an IP:PORT member address.
func ParseMember(s string) (cloud.Member, error) {
	host, port, err := net.SplitHostPort(s)
	if err != nil {
		return cloud.Member{}, errors.Errorf("invalid member %q, expected IP:PORT", s)
	}
	if net.ParseIP(host) == nil {
		return cloud.Member{}, errors.Errorf("invalid member %q, %q is not an IP address", s, host)
	}
	p, err := strconv.Atoi(port)
	if err != nil || p <= 0 || p > 65535 {
		return cloud.Member{}, errors.Errorf("invalid member %q, bad port %q", s, port)
	}
	return cloud.Member{IP: host, Port: p}, nil
}
