// Package metaerr attaches structured key/value metadata to errors so that it
// can be logged alongside the error message.
package metaerr

import "errors"

type metaError struct {
	err  error
	meta []any
}

func (e *metaError) Error() string {
	return e.err.Error()
}

func (e *metaError) Unwrap() error {
	return e.err
}

// WithMetadata returns an error wrapping err that carries the given key/value
// pairs. It returns nil if err is nil.
func WithMetadata(err error, keyvals ...any) error {
	if err == nil {
		return nil
	}
	if len(keyvals)%2 != 0 {
		keyvals = append(keyvals, "!MISSING")
	}
	return &metaError{
		err:  err,
		meta: keyvals,
	}
}

// GetMetadata collects the metadata of all errors in err's chain, outermost
// first. The result can be passed to slog.With.
func GetMetadata(err error) []any {
	var meta []any
	for err != nil {
		var me *metaError
		if !errors.As(err, &me) {
			break
		}
		meta = append(meta, me.meta...)
		err = me.err
	}
	return meta
}
