package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/hashicorp/go-multierror"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

const (
	DefaultConfigFile = "~/.libcloudrc"
	DefaultPublicKey  = "~/.ssh/id_rsa.pub"

	defaultSection = "default"
)

// Settings are the connection parameters and defaults a command runs with.
// Zero values mean "not set".
type Settings struct {
	ConfigFile string

	Provider string
	User     string
	Key      string
	Location string

	// Size is the RAM in megabytes of the default node size.
	Size      int
	Image     string
	PublicKey string
	Script    string
}

// Resolve fills every unset field of flags from the settings file, then from
// the hard defaults. The file holds a [default] section naming the provider
// and one section per provider:
//
//	[default]
//	provider = linode
//
//	[linode]
//	user = bob
//	key = xyz
//	default_size = 1024
//	default_image = Ubuntu 22.04
//
// A missing file at the default location is not an error. Missing provider,
// user or key are reported together.
func Resolve(flags Settings) (*Settings, error) {
	s := flags
	explicitFile := s.ConfigFile != ""
	if !explicitFile {
		s.ConfigFile = DefaultConfigFile
	}
	path, err := homedir.Expand(s.ConfigFile)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to expand %s", s.ConfigFile)
	}
	s.ConfigFile = path

	cfg, err := load(path, explicitFile)
	if err != nil {
		return nil, err
	}

	if s.Provider == "" {
		s.Provider = cfg.Section(defaultSection).Key("provider").String()
	}
	s.Provider = strings.ToLower(s.Provider)

	if s.Provider != "" {
		sec := cfg.Section(s.Provider)
		setIfEmpty(&s.User, sec.Key("user").String())
		setIfEmpty(&s.Key, sec.Key("key").String())
		setIfEmpty(&s.Location, sec.Key("default_location").String())
		setIfEmpty(&s.Image, sec.Key("default_image").String())
		setIfEmpty(&s.PublicKey, sec.Key("default_public_key").String())
		setIfEmpty(&s.Script, sec.Key("default_deploy_script").String())
		if s.Size == 0 && sec.HasKey("default_size") {
			v := sec.Key("default_size").String()
			size, err := strconv.Atoi(v)
			if err != nil {
				return nil, errors.Errorf("%s: [%s] default_size must be an integer, got %q", path, s.Provider, v)
			}
			s.Size = size
		}
	}
	setIfEmpty(&s.PublicKey, DefaultPublicKey)

	if err := s.Validate(); err != nil {
		return nil, err
	}

	for _, p := range []*string{&s.PublicKey, &s.Script} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to expand %s", *p)
		}
		*p = expanded
	}
	glog.V(3).Infof("resolved provider %q for user %q from %s", s.Provider, s.User, s.ConfigFile)
	return &s, nil
}

// Validate reports every required field that is still unset.
func (s *Settings) Validate() error {
	var result *multierror.Error
	if s.Provider == "" {
		result = multierror.Append(result, errors.New("provider is not set, use --provider or provider in the [default] section"))
	}
	if s.User == "" {
		result = multierror.Append(result, errors.New("user is not set, use --user or user in the provider section"))
	}
	if s.Key == "" {
		result = multierror.Append(result, errors.New("key is not set, use --key or key in the provider section"))
	}
	if result == nil {
		return nil
	}
	result.ErrorFormat = func(errs []error) string {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		return strings.Join(msgs, "\n")
	}
	return result
}

func load(path string, explicit bool) (*ini.File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicit {
			return nil, errors.Errorf("config file %s does not exist", path)
		}
		glog.V(3).Infof("config file %s does not exist, using flags only", path)
		return ini.Empty(), nil
	}
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %s", path)
	}
	return cfg, nil
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
