package identity

// Config holds the Cognito user pool settings.
type Config struct {
	Region       string `env:"AWS_REGION" envDefault:"ca-central-1"`
	UserPoolID   string `env:"COGNITO_USER_POOL_ID,required"`
	ClientID     string `env:"COGNITO_CLIENT_ID,required"`
	ClientSecret string `env:"COGNITO_CLIENT_SECRET"`
	// Endpoint overrides the service URL, e.g. for cognito-local.
	Endpoint        string `env:"COGNITO_ENDPOINT"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	// DeviceName labels the TOTP device in the user's MFA settings.
	DeviceName string `env:"COGNITO_TOTP_DEVICE_NAME" envDefault:"Authenticator"`
}
