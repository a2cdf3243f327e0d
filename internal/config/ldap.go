package config

type DirectoryType string

const (
	DirectoryActiveDirectory DirectoryType = "ad"
	DirectoryLDAP            DirectoryType = "ldap"
)

// LdapProvider describes how to reach the directory and how to turn a
// username into the entry whose password is changed. Templates may use the
// {username} placeholder.
type LdapProvider struct {
	Host          string        `mapstructure:"host" validate:"required"`
	Port          int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	StartTLS      bool          `mapstructure:"start_tls" validate:"excluded_with=UseSSL"`
	SkipTLSVerify bool          `mapstructure:"skip_tls_verify"`
	Type          DirectoryType `mapstructure:"type" validate:"oneof=ad ldap"`
	PolicyHints   bool          `mapstructure:"policy_hints"`

	UserDN           string `mapstructure:"user_dn" validate:"required_without=UserSearchBase,excluded_with=UserSearchBase"`
	UserSearchBase   string `mapstructure:"user_search_base" validate:"required_with=UserSearchFilter"`
	UserSearchFilter string `mapstructure:"user_search_filter" validate:"required_with=UserSearchBase"`

	UserSearchBindDN   string  `mapstructure:"user_search_bind_dn"`
	UserSearchBindPass *string `mapstructure:"user_search_bind_pass"`

	BindDN   string  `mapstructure:"bind_dn"`
	BindPass *string `mapstructure:"bind_pass"`
}
