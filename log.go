package evbuffer

import (
	"os"

	"github.com/rs/zerolog"
)

// log is the package-wide structured logger. Callers embedding evbuffer
// in a larger service can replace it with SetLogger to route diagnostics
// through their own zerolog instance instead of stderr.
var log = zerolog.New(os.Stderr).With().Timestamp().Str("component", "evbuffer").Logger()

// SetLogger replaces the package-wide logger. The package currently
// logs only when it recovers a panicking callback.
func SetLogger(l zerolog.Logger) {
	log = l
}
