package logger

import (
	"log/slog"
	"strconv"

	"github.com/metisnation/registry/pkg/sanitizer"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups the non-nil errs under "errors".
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error records err under "error".
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under the key "user_id".
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// RequestID records the request identifier under the key "request_id".
func RequestID(id any) slog.Attr {
	if id == nil || id == "" {
		return slog.Attr{}
	}
	return slog.Any("request_id", id)
}

// FlowID records the authentication flow instance.
func FlowID(id string) slog.Attr {
	return slog.String("flow_id", id)
}

// Step records a flow step name.
func Step(name string) slog.Attr {
	return slog.String("step", name)
}

// Action records a rate-limited action key.
func Action(key string) slog.Attr {
	return slog.String("action", key)
}

// ErrorKind records the classified kind of a provider error.
func ErrorKind(kind string) slog.Attr {
	return slog.String("error_kind", kind)
}

// Email records an address with all but the first character of the local
// part masked.
func Email(email string) slog.Attr {
	return slog.String("email", sanitizer.MaskEmail(email))
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event records the event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}
