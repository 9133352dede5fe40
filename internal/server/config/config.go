package config

type TLS struct {
	Enable   bool
	CertFile string
	KeyFile  string
}

type Listener struct {
	Address string `validate:"required"`
	Network string `validate:"oneof=tcp tcp4 tcp6 unix"`
	TLS     TLS
}

// Auth controls which schemes the server accepts and which one it
// advertises first on an unauthenticated challenge.
type Auth struct {
	Realm         string `validate:"required"`
	AcceptBasic   bool   `toml:"accept_basic"`
	AcceptDigest  bool   `toml:"accept_digest"`
	DefaultScheme string `toml:"default_scheme" validate:"oneof=basic digest"`
	NonceLifetime string `toml:"nonce_lifetime"`
}

type Webdav struct {
	EnableListing          bool `toml:"enable_listing"`
	AllowPropfindInfDepth  bool `toml:"allow_propfind_inf_depth"`
	EnableContentTypeProbe bool `toml:"enable_content_type_probe"`
	ExposeDavmount         bool `toml:"expose_davmount"`
	MsAuthorVia            bool `toml:"ms_author_via"`
}

// Properties selects the dead-property store. An empty Path keeps
// properties in memory; otherwise a badger database is opened there.
type Properties struct {
	Path string
}

type Metrics struct {
	Enable  bool
	Address string
}

type Share struct {
	Prefix   string `validate:"required,startswith=/"`
	Provider string `validate:"oneof=dir mem"`
	Path     string
	ReadOnly bool `toml:"read_only"`
}

type User struct {
	Name       string `validate:"required"`
	Share      string `validate:"required"`
	SecretHash string `toml:"secret_hash"`
	DigestHA1  string `toml:"digest_ha1" validate:"omitempty,len=32,hexadecimal"`
	ReadOnly   bool   `toml:"read_only"`
}

type Server struct {
	filePath   string // internal, path to this config file
	Listener   Listener
	Auth       Auth
	Webdav     Webdav
	Properties Properties
	Metrics    Metrics
	Shares     []Share `validate:"dive"`
	Users      []User  `validate:"dive"`
}
