package config

import (
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	DefaultConfigFile       = "config.yaml"
	DefaultListeningAddress = ":8080"
	DefaultSpecials         = " äöüÄÖÜß,.-;:_!/%"
	DefaultPageTitle        = "Change your password"
)

type Config struct {
	Ldap   LdapProvider   `mapstructure:"ldap"`
	Policy PasswordPolicy `mapstructure:"policy"`
	Html   Html           `mapstructure:"html"`
	Server Server         `mapstructure:"server"`

	// Warnings lists configuration keys that were present in the file but are
	// not understood by any section.
	Warnings []string `mapstructure:"-"`
}

type Html struct {
	PageTitle string `mapstructure:"page_title"`
}

type Server struct {
	ListeningAddress string `mapstructure:"listening_address"`
	LogPath          string `mapstructure:"log_path"`
	LogLevel         string `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`
	SessionSecret    string `mapstructure:"session_secret"`
	OtlpEndpoint     string `mapstructure:"otlp_endpoint"`
	TraceStdout      bool   `mapstructure:"trace_stdout"`
	Metrics          bool   `mapstructure:"metrics"`
}

// FileFromEnvironment returns the config file named by CONFIG_FILE, or the default.
func FileFromEnvironment() string {
	if f := os.Getenv("CONFIG_FILE"); f != "" {
		return f
	}
	return DefaultConfigFile
}

/*
Load config settings from the given YAML file, apply environment overrides and
defaults, then check the result.
*/
func LoadConfig(file string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(file)
	v.SetConfigType("yaml")

	setDefaults(v)
	BindFromEnvironment(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", file)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	unknown, err := UnknownKeys(file)
	if err != nil {
		return nil, err
	}
	for _, key := range unknown {
		cfg.Warnings = append(cfg.Warnings, "Unknown configuration key \""+key+"\" will not be used.")
	}

	if err := CheckConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ldap.use_ssl", false)
	v.SetDefault("ldap.type", string(DirectoryLDAP))

	v.SetDefault("policy.enable", false)
	v.SetDefault("policy.min_length", 0)
	v.SetDefault("policy.max_length", 0)
	v.SetDefault("policy.min_lowers", 0)
	v.SetDefault("policy.min_uppers", 0)
	v.SetDefault("policy.min_digits", 0)
	v.SetDefault("policy.min_specials", 0)
	v.SetDefault("policy.specials", DefaultSpecials)
	v.SetDefault("policy.forbid_others", false)
	v.SetDefault("policy.forbid_username", false)
	v.SetDefault("policy.forbid_reuse", false)
	v.SetDefault("policy.min_score", 0)

	v.SetDefault("html.page_title", DefaultPageTitle)

	v.SetDefault("server.listening_address", DefaultListeningAddress)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.metrics", true)
}

func BindFromEnvironment(v *viper.Viper) {
	// Ldap configuration
	v.BindEnv("ldap.host", "PASSUI_LDAP_HOST")
	v.BindEnv("ldap.port", "PASSUI_LDAP_PORT")
	v.BindEnv("ldap.use_ssl", "PASSUI_LDAP_USE_SSL")
	v.BindEnv("ldap.start_tls", "PASSUI_LDAP_START_TLS")
	v.BindEnv("ldap.skip_tls_verify", "PASSUI_LDAP_SKIP_TLS_VERIFY")
	v.BindEnv("ldap.type", "PASSUI_LDAP_TYPE")
	v.BindEnv("ldap.policy_hints", "PASSUI_LDAP_POLICY_HINTS")
	v.BindEnv("ldap.user_dn", "PASSUI_LDAP_USER_DN")
	v.BindEnv("ldap.user_search_base", "PASSUI_LDAP_USER_SEARCH_BASE")
	v.BindEnv("ldap.user_search_filter", "PASSUI_LDAP_USER_SEARCH_FILTER")
	v.BindEnv("ldap.user_search_bind_dn", "PASSUI_LDAP_USER_SEARCH_BIND_DN")
	v.BindEnv("ldap.user_search_bind_pass", "PASSUI_LDAP_USER_SEARCH_BIND_PASS")
	v.BindEnv("ldap.bind_dn", "PASSUI_LDAP_BIND_DN")
	v.BindEnv("ldap.bind_pass", "PASSUI_LDAP_BIND_PASS")

	// Html configuration
	v.BindEnv("html.page_title", "PASSUI_HTML_PAGE_TITLE")

	// Server configuration
	v.BindEnv("server.listening_address", "PASSUI_SERVER_LISTENING_ADDRESS")
	v.BindEnv("server.log_path", "PASSUI_SERVER_LOG_PATH")
	v.BindEnv("server.log_level", "PASSUI_SERVER_LOG_LEVEL")
	v.BindEnv("server.session_secret", "PASSUI_SERVER_SESSION_SECRET")
	v.BindEnv("server.otlp_endpoint", "PASSUI_SERVER_OTLP_ENDPOINT")
	v.BindEnv("server.trace_stdout", "PASSUI_SERVER_TRACE_STDOUT")
	v.BindEnv("server.metrics", "PASSUI_SERVER_METRICS")
}

/*
Check for config errors and set defaults
*/
func CheckConfig(conf *Config) error {
	if err := validate(conf); err != nil {
		return err
	}

	if conf.Server.ListeningAddress == "" {
		conf.Server.ListeningAddress = DefaultListeningAddress
	}

	// Sessions only carry the CSRF token, so a per-process secret is enough
	// when none is configured.
	if conf.Server.SessionSecret == "" {
		conf.Server.SessionSecret = uuid.NewString() + uuid.NewString()
	}

	return nil
}

// UnknownKeys returns the dotted names of keys in the YAML file that do not
// map onto any field of Config.
func UnknownKeys(file string) ([]string, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", file)
	}

	raw := map[string]interface{}{}
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %s", file)
	}

	var unknown []string
	collectUnknown("", raw, reflect.TypeOf(Config{}), &unknown)
	sort.Strings(unknown)
	return unknown, nil
}

func collectUnknown(prefix string, raw map[string]interface{}, t reflect.Type, unknown *[]string) {
	fields := map[string]reflect.Type{}
	for i := 0; i < t.NumField(); i++ {
		name := strings.SplitN(t.Field(i).Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			continue
		}
		fields[name] = t.Field(i).Type
	}

	for key, value := range raw {
		ft, ok := fields[key]
		if !ok {
			*unknown = append(*unknown, prefix+key)
			continue
		}
		if ft.Kind() != reflect.Struct {
			continue
		}
		if nested, ok := value.(map[interface{}]interface{}); ok {
			section := map[string]interface{}{}
			for k, v := range nested {
				if s, ok := k.(string); ok {
					section[s] = v
				}
			}
			collectUnknown(prefix+key+".", section, ft, unknown)
		}
	}
}
