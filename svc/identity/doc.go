// Package identity talks to the Amazon Cognito user pool that owns registry
// credentials.
//
// Provider wraps the cognitoidentityprovider client with the calls the
// registry needs: sign-up and confirmation, password sign-in with the
// optional TOTP challenge, password reset, TOTP enrolment and session
// calls keyed by access token. When the app client has a secret every
// request carries SECRET_HASH.
//
// Every error leaving this package is an *autherr.Error produced by
// mapError from the Cognito exception code, so callers switch on
// autherr.Kind instead of matching strings. Context cancellation is
// returned untouched.
package identity
