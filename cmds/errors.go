package cmds

import (
	"github.com/pharmer/cloudcli/cloud"
	"github.com/pkg/errors"
)

// failure is an error whose message is shown to the user unchanged. Every
// other error coming out of a handler is reported as an exception.
type failure struct {
	error
}

func fail(format string, args ...interface{}) error {
	return failure{errors.Errorf(format, args...)}
}

func notFound(kind, name string) error {
	return fail("%s %q not found", kind, name)
}

func message(err error) string {
	if cloud.IsInvalidCredentials(err) {
		return "Invalid credentials"
	}
	var f failure
	if errors.As(err, &f) {
		return f.Error()
	}
	var unknown *cloud.UnknownProviderError
	if errors.As(err, &unknown) {
		return unknown.Error()
	}
	return "Exception: " + err.Error()
}
