package profile

// Config holds the signed-in area settings.
type Config struct {
	BasePath   string `env:"PROFILE_BASE_PATH" envDefault:"/dashboard"`
	LoginPath  string `env:"ACCOUNT_BASE_PATH" envDefault:"/auth"`
	TOTPIssuer string `env:"TOTP_ISSUER" envDefault:"MNO Registry"`
	QRSize     int    `env:"TOTP_QR_SIZE" envDefault:"256"`
}

// DefaultConfig returns the envDefault values.
func DefaultConfig() Config {
	return Config{
		BasePath:   "/dashboard",
		LoginPath:  "/auth",
		TOTPIssuer: "MNO Registry",
		QRSize:     256,
	}
}
