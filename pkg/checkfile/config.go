package checkfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/consol-monitoring/check_file/pkg/threshold"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultEnvFile is loaded when present and no other env file is given.
const DefaultEnvFile = ".env"

// Environment variables used for options which have not been set on the command line.
const (
	EnvHost           = "CHECK_FILE_HOST"
	EnvLogname        = "CHECK_FILE_LOGNAME"
	EnvAuthentication = "CHECK_FILE_AUTHENTICATION"
	EnvIdentity       = "CHECK_FILE_IDENTITY"
)

// Flags contains the raw command line flags.
type Flags struct {
	Verbose  int
	Delay    int
	Timeout  int
	Warning  string
	Critical string
	FilePath string
	Lenient  bool

	ConfigFile string
	EnvFile    string
	LogFile    string
	Version    bool

	Host     string // remote host (network) or monitoring api url (passive)
	Username string
	Password string

	// network
	Identity   string
	Port       int
	Protocol   string
	KnownHosts string
	HTTPS      bool

	NoSSL bool // passive api and winrm over https

	// passive
	HostName    string
	ServiceName string

	// Changed contains the long names of all flags set on the command line.
	Changed map[string]bool
}

// FileConfig contains the options which can be set in the yaml config file.
type FileConfig struct {
	Delay          int    `yaml:"delay"`
	Timeout        int    `yaml:"timeout"`
	Warning        string `yaml:"warning"`
	Critical       string `yaml:"critical"`
	FilePath       string `yaml:"filepath"`
	Lenient        bool   `yaml:"lenient"`
	Host           string `yaml:"host"`
	Logname        string `yaml:"logname"`
	Authentication string `yaml:"authentication"`
	Identity       string `yaml:"identity"`
	Port           int    `yaml:"port"`
	Protocol       string `yaml:"protocol"`
	KnownHosts     string `yaml:"known_hosts"`
	HTTPS          bool   `yaml:"https"`
	NoSSL          bool   `yaml:"no_ssl"`
	HostName       string `yaml:"host_name"`
	ServiceName    string `yaml:"service_name"`
}

// Config is the resolved and validated configuration of a single check run.
type Config struct {
	Mode     Mode             `validate:"oneof=network passive"`
	Verbose  int              `validate:"gte=0"`
	Delay    time.Duration    `validate:"gte=0" flag:"delay"`
	Timeout  time.Duration    `validate:"gt=0" flag:"timeout"`
	Warning  *threshold.Range `validate:"-"`
	Critical *threshold.Range `validate:"-"`
	FilePath string           `validate:"required" flag:"filepath"`
	Lenient  bool

	Remote  RemoteTarget  `validate:"-"`
	Passive PassiveTarget `validate:"-"`
}

// RemoteTarget describes where and how the file is read in network mode.
type RemoteTarget struct {
	Protocol   string `validate:"oneof=ssh winrm" flag:"protocol"`
	Host       string `validate:"required" flag:"uri"`
	Port       int    `validate:"min=1,max=65535" flag:"port"`
	Username   string `validate:"required" flag:"logname"`
	Password   string
	Identity   string `validate:"omitempty,file" flag:"identity"`
	KnownHosts string `validate:"omitempty,file" flag:"known-hosts"`
	UseHTTPS   bool
	Insecure   bool // skip certificate verification for winrm over https
}

// PassiveTarget describes where passive results are delivered to.
type PassiveTarget struct {
	URL         string `validate:"required" flag:"url"`
	HostName    string `validate:"required" flag:"host-name"`
	ServiceName string
	Account     string
	Password    string
	VerifySSL   bool
}

// IsServiceCheck returns true if the result belongs to a service instead of a host.
func (t *PassiveTarget) IsServiceCheck() bool {
	return t.ServiceName != ""
}

var validate = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	val.RegisterTagNameFunc(func(field reflect.StructField) string {
		if name := field.Tag.Get("flag"); name != "" {
			return name
		}

		return strings.ToLower(field.Name)
	})

	return val
}

// LoadConfigFile reads the yaml config file.
func LoadConfigFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newError(ErrConfiguration, "cannot read config file: %s", err.Error())
	}

	conf := &FileConfig{}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(conf); err != nil && !errors.Is(err, io.EOF) {
		return nil, newError(ErrConfiguration, "cannot parse config file %s: %s", path, err.Error())
	}

	return conf, nil
}

// Resolve builds the configuration from command line flags, the optional
// config file and the environment. Flags given on the command line win over
// the environment which wins over the config file.
func Resolve(mode Mode, flags *Flags) (*Config, error) {
	merged := *flags

	if err := loadEnvFile(merged.EnvFile); err != nil {
		return nil, err
	}

	if merged.ConfigFile != "" {
		fileConf, err := LoadConfigFile(merged.ConfigFile)
		if err != nil {
			return nil, err
		}
		merged.applyFile(fileConf)
	}
	merged.applyEnv()
	if merged.Timeout == 0 && !merged.isSet("timeout") {
		merged.Timeout = DefaultTimeout
	}

	conf := &Config{
		Mode:     mode,
		Verbose:  merged.Verbose,
		Delay:    time.Duration(merged.Delay) * time.Second,
		Timeout:  time.Duration(merged.Timeout) * time.Second,
		FilePath: merged.FilePath,
		Lenient:  merged.Lenient,
	}

	var err error
	conf.Warning, err = parseRange(merged.Warning, merged.isSet("warning"), merged.Lenient)
	if err != nil {
		return nil, wrapError(ErrArgumentSyntax, fmt.Errorf("warning: %w", err))
	}
	conf.Critical, err = parseRange(merged.Critical, merged.isSet("critical"), merged.Lenient)
	if err != nil {
		return nil, wrapError(ErrArgumentSyntax, fmt.Errorf("critical: %w", err))
	}

	if conf.Warning == nil && conf.Critical == nil {
		return nil, newError(ErrConfiguration, "At least one range needs to be defined.")
	}

	switch mode {
	case ModeNetwork:
		conf.Remote = merged.remoteTarget()
	case ModePassive:
		conf.Passive = merged.passiveTarget()
		if conf.FilePath != "" {
			abs, err := filepath.Abs(conf.FilePath)
			if err != nil {
				return nil, newError(ErrConfiguration, "filepath: %s", err.Error())
			}
			conf.FilePath = abs
		}
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return conf, nil
}

// parseRange returns nil if the threshold is not defined. An explicitly empty
// threshold is only used by the lenient parser which treats it as 0.
func parseRange(def string, set, lenient bool) (*threshold.Range, error) {
	if def == "" && (!set || !lenient) {
		return nil, nil
	}
	if lenient {
		return threshold.ParseLenient(def), nil
	}

	return threshold.Parse(def)
}

// Validate checks the configuration for the selected mode.
func (conf *Config) Validate() error {
	if err := validate.Struct(conf); err != nil {
		return formatValidationError(err)
	}

	switch conf.Mode {
	case ModeNetwork:
		if err := validate.Struct(&conf.Remote); err != nil {
			return formatValidationError(err)
		}
	case ModePassive:
		if err := validate.Struct(&conf.Passive); err != nil {
			return formatValidationError(err)
		}
	}

	return nil
}

func formatValidationError(err error) error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return wrapError(ErrConfiguration, err)
	}

	msgs := make([]string, 0, len(fieldErrors))
	for _, fieldErr := range fieldErrors {
		field := fieldErr.Field()
		switch fieldErr.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, fieldErr.Param()))
		case "file":
			msgs = append(msgs, fmt.Sprintf("%s must be an existing file: %v", field, fieldErr.Value()))
		case "min", "gte", "gt":
			msgs = append(msgs, fmt.Sprintf("%s is too small: %v", field, fieldErr.Value()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s is too big: %v", field, fieldErr.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", field, fieldErr.Tag()))
		}
	}

	return newError(ErrConfiguration, "%s", strings.Join(msgs, ", "))
}

func loadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(DefaultEnvFile); err != nil {
			return nil
		}
		path = DefaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		return newError(ErrConfiguration, "cannot load env file %s: %s", path, err.Error())
	}

	return nil
}

func (f *Flags) isSet(names ...string) bool {
	for _, name := range names {
		if f.Changed[name] {
			return true
		}
	}

	return false
}

// applyFile sets all options from the config file which have not been set on the command line.
func (f *Flags) applyFile(conf *FileConfig) {
	setInt := func(target *int, val int, names ...string) {
		if val != 0 && !f.isSet(names...) {
			*target = val
		}
	}
	setString := func(target *string, val string, names ...string) {
		if val != "" && !f.isSet(names...) {
			*target = val
		}
	}
	setBool := func(target *bool, val bool, names ...string) {
		if val && !f.isSet(names...) {
			*target = val
		}
	}

	setInt(&f.Delay, conf.Delay, "delay")
	setInt(&f.Timeout, conf.Timeout, "timeout")
	setInt(&f.Port, conf.Port, "port")
	setString(&f.Warning, conf.Warning, "warning")
	setString(&f.Critical, conf.Critical, "critical")
	setString(&f.FilePath, conf.FilePath, "filepath")
	setString(&f.Host, conf.Host, "uri", "url")
	setString(&f.Username, conf.Logname, "logname")
	setString(&f.Password, conf.Authentication, "authentication")
	setString(&f.Identity, conf.Identity, "identity")
	setString(&f.Protocol, conf.Protocol, "protocol")
	setString(&f.KnownHosts, conf.KnownHosts, "known-hosts")
	setString(&f.HostName, conf.HostName, "host-name")
	setString(&f.ServiceName, conf.ServiceName, "service-name")
	setBool(&f.Lenient, conf.Lenient, "lenient")
	setBool(&f.HTTPS, conf.HTTPS, "https")
	setBool(&f.NoSSL, conf.NoSSL, "no-ssl")
}

// applyEnv sets credentials and target from the environment unless set on the command line.
func (f *Flags) applyEnv() {
	for _, env := range []struct {
		name   string
		target *string
		flags  []string
	}{
		{EnvHost, &f.Host, []string{"uri", "url"}},
		{EnvLogname, &f.Username, []string{"logname"}},
		{EnvAuthentication, &f.Password, []string{"authentication"}},
		{EnvIdentity, &f.Identity, []string{"identity"}},
	} {
		if val, ok := os.LookupEnv(env.name); ok && val != "" && !f.isSet(env.flags...) {
			*env.target = val
		}
	}
}

func (f *Flags) remoteTarget() RemoteTarget {
	target := RemoteTarget{
		Protocol:   strings.ToLower(f.Protocol),
		Host:       f.Host,
		Port:       f.Port,
		Username:   f.Username,
		Password:   f.Password,
		Identity:   f.Identity,
		KnownHosts: f.KnownHosts,
		UseHTTPS:   f.HTTPS,
		Insecure:   f.NoSSL,
	}
	if target.Protocol == "" {
		target.Protocol = "ssh"
	}
	if target.Port == 0 {
		switch {
		case target.Protocol == "winrm" && target.UseHTTPS:
			target.Port = DefaultWinRMHTTPSPort
		case target.Protocol == "winrm":
			target.Port = DefaultWinRMPort
		default:
			target.Port = DefaultSSHPort
		}
	}

	return target
}

func (f *Flags) passiveTarget() PassiveTarget {
	target := PassiveTarget{
		URL:         f.Host,
		HostName:    f.HostName,
		ServiceName: f.ServiceName,
		Account:     f.Username,
		Password:    f.Password,
		VerifySSL:   !f.NoSSL,
	}
	if target.URL == "" {
		target.URL = DefaultURL
	}

	return target
}

// Dump returns all options in human readable form, passwords are masked.
func (conf *Config) Dump() []string {
	mask := func(secret string) string {
		if secret == "" {
			return ""
		}

		return "********"
	}

	lines := []string{
		fmt.Sprintf("Mode: %s", conf.Mode),
		fmt.Sprintf("Exec delay: %s", conf.Delay),
		fmt.Sprintf("Warning thresholds: %s", describeRange(conf.Warning)),
		fmt.Sprintf("Critical thresholds: %s", describeRange(conf.Critical)),
		fmt.Sprintf("Path to file: %s", conf.FilePath),
		fmt.Sprintf("Timeout: %s", conf.Timeout),
		fmt.Sprintf("Lenient parsing: %v", conf.Lenient),
	}

	switch conf.Mode {
	case ModeNetwork:
		lines = append(lines,
			fmt.Sprintf("Protocol: %s", conf.Remote.Protocol),
			fmt.Sprintf("Hostname: %s", conf.Remote.Host),
			fmt.Sprintf("Port: %d", conf.Remote.Port),
			fmt.Sprintf("Username: %s", conf.Remote.Username),
			fmt.Sprintf("Passphrase: %s", mask(conf.Remote.Password)),
			fmt.Sprintf("SSH Identity: %s", conf.Remote.Identity),
			fmt.Sprintf("Known hosts: %s", conf.Remote.KnownHosts),
			fmt.Sprintf("SSL verification: %v", !conf.Remote.Insecure),
		)
	case ModePassive:
		lines = append(lines,
			fmt.Sprintf("Account name: %s", conf.Passive.Account),
			fmt.Sprintf("Password: %s", mask(conf.Passive.Password)),
			fmt.Sprintf("URL: %s", conf.Passive.URL),
			fmt.Sprintf("SSL verification: %v", conf.Passive.VerifySSL),
			fmt.Sprintf("Target host: %s", conf.Passive.HostName),
			fmt.Sprintf("Target service: %s", conf.Passive.ServiceName),
		)
	}

	return lines
}

func describeRange(rng *threshold.Range) string {
	if rng == nil {
		return "none"
	}

	bound := func(val float64, ok bool, unbounded string) string {
		if !ok {
			return unbounded
		}

		return fmt.Sprintf("%v", val)
	}
	lower, hasLower := rng.Lower()
	upper, hasUpper := rng.Upper()

	return fmt.Sprintf("%q (lower: %s, upper: %s, inclusive: %v)",
		rng.String(), bound(lower, hasLower, "-inf"), bound(upper, hasUpper, "+inf"), rng.Inclusive())
}
