package cloud

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInvalidCredentials is returned by drivers when the provider rejects the
// configured user/key pair.
var ErrInvalidCredentials = errors.New("invalid credentials")

// IsInvalidCredentials reports whether err was caused by rejected credentials.
func IsInvalidCredentials(err error) bool {
	return errors.Cause(err) == ErrInvalidCredentials
}

// UnknownProviderError is returned when no driver is registered under the
// requested name for a service category.
type UnknownProviderError struct {
	Category string
	Name     string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown %s provider %q", e.Category, e.Name)
}
