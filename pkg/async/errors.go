package async

import "errors"

var ErrCancelled = errors.New("async: future cancelled")
