package identity

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"github.com/metisnation/registry/pkg/autherr"
)

// CognitoClient is the subset of *cognitoidentityprovider.Client in use.
type CognitoClient interface {
	SignUp(ctx context.Context, params *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, params *cip.ConfirmSignUpInput, optFns ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error)
	ResendConfirmationCode(ctx context.Context, params *cip.ResendConfirmationCodeInput, optFns ...func(*cip.Options)) (*cip.ResendConfirmationCodeOutput, error)
	InitiateAuth(ctx context.Context, params *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	RespondToAuthChallenge(ctx context.Context, params *cip.RespondToAuthChallengeInput, optFns ...func(*cip.Options)) (*cip.RespondToAuthChallengeOutput, error)
	ForgotPassword(ctx context.Context, params *cip.ForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ForgotPasswordOutput, error)
	ConfirmForgotPassword(ctx context.Context, params *cip.ConfirmForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ConfirmForgotPasswordOutput, error)
	GetUser(ctx context.Context, params *cip.GetUserInput, optFns ...func(*cip.Options)) (*cip.GetUserOutput, error)
	GlobalSignOut(ctx context.Context, params *cip.GlobalSignOutInput, optFns ...func(*cip.Options)) (*cip.GlobalSignOutOutput, error)
	AssociateSoftwareToken(ctx context.Context, params *cip.AssociateSoftwareTokenInput, optFns ...func(*cip.Options)) (*cip.AssociateSoftwareTokenOutput, error)
	VerifySoftwareToken(ctx context.Context, params *cip.VerifySoftwareTokenInput, optFns ...func(*cip.Options)) (*cip.VerifySoftwareTokenOutput, error)
	SetUserMFAPreference(ctx context.Context, params *cip.SetUserMFAPreferenceInput, optFns ...func(*cip.Options)) (*cip.SetUserMFAPreferenceOutput, error)
}

// Option configures a Provider.
type Option func(*Provider)

// WithCognitoClient replaces the SDK client, e.g. with a mock.
func WithCognitoClient(c CognitoClient) Option {
	return func(p *Provider) { p.client = c }
}

// WithClock sets the time source used for token expiry.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// Provider performs identity operations against one user pool app client.
type Provider struct {
	client       CognitoClient
	clientID     string
	clientSecret string
	deviceName   string
	now          func() time.Time
}

// New builds a Provider. Without WithCognitoClient it loads the default
// AWS configuration for cfg.Region, using static credentials when set.
func New(ctx context.Context, cfg Config, opts ...Option) (*Provider, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: COGNITO_CLIENT_ID is required", ErrInvalidConfig)
	}

	p := &Provider{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		deviceName:   cfg.DeviceName,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.deviceName == "" {
		p.deviceName = "Authenticator"
	}
	if p.client != nil {
		return p, nil
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	p.client = cip.NewFromConfig(awsCfg, func(o *cip.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return p, nil
}

func (p *Provider) secretHash(username string) *string {
	if h := SecretHash(username, p.clientID, p.clientSecret); h != "" {
		return aws.String(h)
	}
	return nil
}

func (p *Provider) withSecret(username string, params map[string]string) map[string]string {
	if h := p.secretHash(username); h != nil {
		params["SECRET_HASH"] = *h
	}
	return params
}

func (p *Provider) tokens(res *types.AuthenticationResultType) *Tokens {
	if res == nil {
		return nil
	}
	return &Tokens{
		AccessToken:  aws.ToString(res.AccessToken),
		IDToken:      aws.ToString(res.IdToken),
		RefreshToken: aws.ToString(res.RefreshToken),
		ExpiresAt:    p.now().Add(time.Duration(res.ExpiresIn) * time.Second),
	}
}

// SignUp registers a user with email as the username.
func (p *Provider) SignUp(ctx context.Context, in SignUpInput) (SignUpResult, error) {
	out, err := p.client.SignUp(ctx, &cip.SignUpInput{
		ClientId:   aws.String(p.clientID),
		Username:   aws.String(in.Email),
		Password:   aws.String(in.Password),
		SecretHash: p.secretHash(in.Email),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(in.Email)},
			{Name: aws.String("given_name"), Value: aws.String(in.FirstName)},
			{Name: aws.String("family_name"), Value: aws.String(in.LastName)},
			{Name: aws.String("birthdate"), Value: aws.String(in.BirthDate)},
		},
	})
	if err != nil {
		return SignUpResult{}, mapError(err)
	}

	res := SignUpResult{Subject: aws.ToString(out.UserSub), Confirmed: out.UserConfirmed}
	if out.CodeDeliveryDetails != nil {
		res.Destination = aws.ToString(out.CodeDeliveryDetails.Destination)
	}
	return res, nil
}

// ConfirmSignUp submits the emailed verification code.
func (p *Provider) ConfirmSignUp(ctx context.Context, email, code string) error {
	_, err := p.client.ConfirmSignUp(ctx, &cip.ConfirmSignUpInput{
		ClientId:         aws.String(p.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
		SecretHash:       p.secretHash(email),
	})
	return mapError(err)
}

// ResendConfirmationCode emails a new sign-up code.
func (p *Provider) ResendConfirmationCode(ctx context.Context, email string) error {
	_, err := p.client.ResendConfirmationCode(ctx, &cip.ResendConfirmationCodeInput{
		ClientId:   aws.String(p.clientID),
		Username:   aws.String(email),
		SecretHash: p.secretHash(email),
	})
	return mapError(err)
}

// SignIn runs USER_PASSWORD_AUTH. Users with TOTP enabled get a challenge
// session instead of tokens.
func (p *Provider) SignIn(ctx context.Context, email, password string) (SignInResult, error) {
	out, err := p.client.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(p.clientID),
		AuthParameters: p.withSecret(email, map[string]string{
			"USERNAME": email,
			"PASSWORD": password,
		}),
	})
	if err != nil {
		return SignInResult{}, mapError(err)
	}

	switch out.ChallengeName {
	case "":
		if out.AuthenticationResult == nil {
			return SignInResult{}, autherr.New(autherr.KindUnknown, "", "sign in returned no tokens", nil)
		}
		return SignInResult{Tokens: p.tokens(out.AuthenticationResult)}, nil
	case types.ChallengeNameTypeSoftwareTokenMfa:
		return SignInResult{TOTPRequired: true, Session: aws.ToString(out.Session)}, nil
	default:
		return SignInResult{}, autherr.New(autherr.KindUnknown, string(out.ChallengeName), "unsupported sign in challenge", nil)
	}
}

// RespondToTOTPChallenge completes a sign-in that required a TOTP code.
func (p *Provider) RespondToTOTPChallenge(ctx context.Context, email, session, code string) (Tokens, error) {
	out, err := p.client.RespondToAuthChallenge(ctx, &cip.RespondToAuthChallengeInput{
		ChallengeName: types.ChallengeNameTypeSoftwareTokenMfa,
		ClientId:      aws.String(p.clientID),
		Session:       aws.String(session),
		ChallengeResponses: p.withSecret(email, map[string]string{
			"USERNAME":                email,
			"SOFTWARE_TOKEN_MFA_CODE": code,
		}),
	})
	if err != nil {
		return Tokens{}, mapError(err)
	}
	t := p.tokens(out.AuthenticationResult)
	if t == nil {
		return Tokens{}, autherr.New(autherr.KindUnknown, string(out.ChallengeName), "challenge returned no tokens", nil)
	}
	return *t, nil
}

// ForgotPassword emails a reset code.
func (p *Provider) ForgotPassword(ctx context.Context, email string) error {
	_, err := p.client.ForgotPassword(ctx, &cip.ForgotPasswordInput{
		ClientId:   aws.String(p.clientID),
		Username:   aws.String(email),
		SecretHash: p.secretHash(email),
	})
	return mapError(err)
}

// ConfirmForgotPassword sets a new password using the emailed code.
func (p *Provider) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error {
	_, err := p.client.ConfirmForgotPassword(ctx, &cip.ConfirmForgotPasswordInput{
		ClientId:         aws.String(p.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
		Password:         aws.String(newPassword),
		SecretHash:       p.secretHash(email),
	})
	return mapError(err)
}

// GetCurrentUser returns the profile behind accessToken.
func (p *Provider) GetCurrentUser(ctx context.Context, accessToken string) (User, error) {
	out, err := p.client.GetUser(ctx, &cip.GetUserInput{AccessToken: aws.String(accessToken)})
	if err != nil {
		return User{}, mapError(err)
	}

	u := User{
		Subject:     aws.ToString(out.Username),
		TOTPEnabled: slices.Contains(out.UserMFASettingList, string(types.ChallengeNameTypeSoftwareTokenMfa)),
	}
	for _, a := range out.UserAttributes {
		v := aws.ToString(a.Value)
		switch aws.ToString(a.Name) {
		case "sub":
			u.Subject = v
		case "email":
			u.Email = v
		case "email_verified":
			u.EmailVerified = v == "true"
		case "given_name":
			u.FirstName = v
		case "family_name":
			u.LastName = v
		case "birthdate":
			u.BirthDate = v
		}
	}
	return u, nil
}

// SignOut revokes every token of the user.
func (p *Provider) SignOut(ctx context.Context, accessToken string) error {
	_, err := p.client.GlobalSignOut(ctx, &cip.GlobalSignOutInput{AccessToken: aws.String(accessToken)})
	return mapError(err)
}

// SetUpTOTP starts authenticator enrolment and returns the base32 secret.
func (p *Provider) SetUpTOTP(ctx context.Context, accessToken string) (string, error) {
	out, err := p.client.AssociateSoftwareToken(ctx, &cip.AssociateSoftwareTokenInput{
		AccessToken: aws.String(accessToken),
	})
	if err != nil {
		return "", mapError(err)
	}
	return aws.ToString(out.SecretCode), nil
}

// VerifyTOTP checks the first code from a newly enrolled authenticator.
func (p *Provider) VerifyTOTP(ctx context.Context, accessToken, code string) error {
	out, err := p.client.VerifySoftwareToken(ctx, &cip.VerifySoftwareTokenInput{
		AccessToken:        aws.String(accessToken),
		UserCode:           aws.String(code),
		FriendlyDeviceName: aws.String(p.deviceName),
	})
	if err != nil {
		return mapError(err)
	}
	if out.Status != types.VerifySoftwareTokenResponseTypeSuccess {
		return autherr.New(autherr.KindCodeMismatch, "", "authenticator code was not accepted", nil)
	}
	return nil
}

// UpdateMFAPreference enables or disables TOTP as the preferred factor.
func (p *Provider) UpdateMFAPreference(ctx context.Context, accessToken string, enabled bool) error {
	_, err := p.client.SetUserMFAPreference(ctx, &cip.SetUserMFAPreferenceInput{
		AccessToken: aws.String(accessToken),
		SoftwareTokenMfaSettings: &types.SoftwareTokenMfaSettingsType{
			Enabled:      enabled,
			PreferredMfa: enabled,
		},
	})
	return mapError(err)
}
