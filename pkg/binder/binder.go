package binder

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
)

// DefaultMaxMemory bounds the memory used for multipart forms (1MB).
const DefaultMaxMemory = 1 << 20

// Form binds form bodies to `form` tagged fields.
func Form() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		contentType := r.Header.Get("Content-Type")
		if contentType == "" || r.Method == http.MethodGet || r.Method == http.MethodHead {
			return ErrBinderNotApplicable
		}

		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnsupportedMediaType, err)
		}

		switch mediaType {
		case "application/x-www-form-urlencoded":
			if err := r.ParseForm(); err != nil {
				return errors.Join(ErrFailedToParseForm, err)
			}
		case "multipart/form-data":
			if err := r.ParseMultipartForm(DefaultMaxMemory); err != nil {
				return errors.Join(ErrFailedToParseForm, err)
			}
		default:
			return ErrBinderNotApplicable
		}

		return bindToStruct(v, "form", r.PostForm, ErrFailedToParseForm)
	}
}

// Query binds URL query parameters to `query` tagged fields.
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		return bindToStruct(v, "query", r.URL.Query(), ErrFailedToParseQuery)
	}
}
