package config

var Default = Server{
	filePath: "",
	Listener: Listener{
		Address: ":20003",
		Network: "tcp",
		TLS: TLS{
			Enable:   false,
			CertFile: "/srv/ssl/cert",
			KeyFile:  "/srv/ssl/key",
		},
	},
	Auth: Auth{
		Realm:         "davd",
		AcceptBasic:   true,
		AcceptDigest:  true,
		DefaultScheme: "digest",
		NonceLifetime: "5m",
	},
	Webdav: Webdav{
		EnableListing:          true,
		AllowPropfindInfDepth:  false,
		EnableContentTypeProbe: false,
		ExposeDavmount:         false,
		MsAuthorVia:            true,
	},
	Properties: Properties{
		Path: "",
	},
	Metrics: Metrics{
		Enable:  false,
		Address: ":20004",
	},
	Shares: []Share{},
	Users:  []User{},
}
