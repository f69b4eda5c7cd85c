// Package authz composes request authorization out of small predicates.
// A request moves from anonymous to authenticated once RequireToken has
// accepted its bearer token, and to authorized once every later stage
// allows it. The first stage that denies ends the chain.
package authz

import (
	"context"
	"errors"
	"strings"

	"github.com/harentsoaR/doctors-portal/internal/errs"
	"github.com/harentsoaR/doctors-portal/internal/models"
	"github.com/harentsoaR/doctors-portal/internal/utils"
)

// Identity is what a verified token proves about the caller.
type Identity struct {
	Email string
}

// Request is the per-request state the predicates read and extend.
type Request struct {
	Context       context.Context
	Authorization string
	Query         func(key string) string
	Identity      *Identity
}

// Predicate returns nil to allow the request or an *errs.Error to deny it.
type Predicate func(r *Request) error

// Chain runs the predicates left to right and stops at the first denial.
func Chain(preds ...Predicate) Predicate {
	return func(r *Request) error {
		for _, p := range preds {
			if err := p(r); err != nil {
				return err
			}
		}
		return nil
	}
}

// TokenValidator is satisfied by *utils.TokenManager.
type TokenValidator interface {
	ValidateJWT(token string) (*utils.Claims, error)
}

// RequireToken authenticates the bearer token. A missing header is
// CredentialMissing; anything wrong with the token is CredentialInvalid.
func RequireToken(tokens TokenValidator) Predicate {
	return func(r *Request) error {
		header := strings.TrimSpace(r.Authorization)
		if header == "" {
			return errs.CredentialMissing(nil)
		}
		token := header
		if parts := strings.Fields(header); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			token = parts[1]
		}
		claims, err := tokens.ValidateJWT(token)
		if err != nil {
			return errs.CredentialInvalid(err)
		}
		r.Identity = &Identity{Email: claims.Email}
		return nil
	}
}

// RequireQueryOwner denies the request when the email in the named query
// parameter is not the authenticated caller's.
func RequireQueryOwner(param string) Predicate {
	return func(r *Request) error {
		supplied := ""
		if r.Query != nil {
			supplied = r.Query(param)
		}
		return CheckOwner(r.Identity, supplied)
	}
}

// CheckOwner is the ownership rule shared by predicates and handlers.
func CheckOwner(id *Identity, email string) error {
	if id == nil {
		return errs.CredentialMissing(nil)
	}
	if email != id.Email {
		return errs.NotAuthorized("forbidden access")
	}
	return nil
}

// UserFinder looks up the current user record by email.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// RequireRole re-reads the caller's user record and checks its role.
func RequireRole(users UserFinder, role string) Predicate {
	return func(r *Request) error {
		if r.Identity == nil {
			return errs.CredentialMissing(nil)
		}
		ctx := r.Context
		if ctx == nil {
			ctx = context.Background()
		}
		user, err := users.FindByEmail(ctx, r.Identity.Email)
		if errors.Is(err, errs.ErrNotFound) {
			return errs.NotAuthorized("forbidden access")
		}
		if err != nil {
			return err
		}
		if user.Role != role {
			return errs.NotAuthorized("forbidden access")
		}
		return nil
	}
}

// RequireAdmin is RequireRole for the admin role.
func RequireAdmin(users UserFinder) Predicate {
	return RequireRole(users, models.RoleAdmin)
}
