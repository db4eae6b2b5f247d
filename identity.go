package pchat

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

const defaultMaxIdentityLength = 64

// ValidateIdentity rejects identities that are empty, too long, or would
// break the wire prefix.
func ValidateIdentity(identity string, maxLength int) error {
	if identity == "" {
		return ErrEmptyIdentity
	}
	if maxLength <= 0 {
		maxLength = defaultMaxIdentityLength
	}
	if err := validate.Var(identity, fmt.Sprintf("required,max=%d,excludesall=:{}", maxLength)); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidIdentity, identity, err)
	}
	if strings.TrimSpace(identity) != identity {
		return fmt.Errorf("%w %q: surrounding whitespace", ErrInvalidIdentity, identity)
	}
	return nil
}

type IdentityResolver interface {
	IdentityFromRequest(r *http.Request) (string, error)
}

type IdentityResolverFunc func(r *http.Request) (string, error)

func (f IdentityResolverFunc) IdentityFromRequest(r *http.Request) (string, error) {
	return f(r)
}

// IdentityFromPath reads the identity from a chi route parameter, as in
// /pchat/{username}.
func IdentityFromPath(param string) IdentityResolverFunc {
	return func(r *http.Request) (string, error) {
		identity := chi.URLParam(r, param)
		if identity == "" {
			return "", fmt.Errorf("path parameter %q: %w", param, ErrEmptyIdentity)
		}
		return identity, nil
	}
}
