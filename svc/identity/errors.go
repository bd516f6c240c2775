package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/smithy-go"

	"github.com/metisnation/registry/pkg/autherr"
)

var ErrInvalidConfig = errors.New("identity: invalid config")

var codeKinds = map[string]autherr.Kind{
	"NotAuthorizedException":          autherr.KindInvalidCredentials,
	"UserNotConfirmedException":       autherr.KindUnconfirmedAccount,
	"UserNotFoundException":           autherr.KindUserNotFound,
	"CodeMismatchException":           autherr.KindCodeMismatch,
	"EnableSoftwareTokenMFAException": autherr.KindCodeMismatch,
	"ExpiredCodeException":            autherr.KindExpiredCode,
	"LimitExceededException":          autherr.KindRateLimited,
	"TooManyFailedAttemptsException":  autherr.KindRateLimited,
	"TooManyRequestsException":        autherr.KindTooManyRequests,
	"InvalidParameterException":       autherr.KindInvalidParameter,
	"UsernameExistsException":         autherr.KindUsernameExists,
	"AliasExistsException":            autherr.KindUsernameExists,
	"InvalidPasswordException":        autherr.KindInvalidPassword,
}

// mapError converts a Cognito failure to *autherr.Error.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return autherr.New(autherr.KindUnknown, "", "", err)
	}

	code, msg := apiErr.ErrorCode(), apiErr.ErrorMessage()
	kind, ok := codeKinds[code]
	if !ok {
		kind = autherr.KindUnknown
	}
	// Cognito reports its own lockout as NotAuthorized.
	if code == "NotAuthorizedException" && strings.Contains(strings.ToLower(msg), "password attempts exceeded") {
		kind = autherr.KindRateLimited
	}
	return autherr.New(kind, code, msg, err)
}
