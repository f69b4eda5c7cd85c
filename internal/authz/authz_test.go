package authz

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harentsoaR/doctors-portal/internal/errs"
	"github.com/harentsoaR/doctors-portal/internal/models"
	"github.com/harentsoaR/doctors-portal/internal/utils"
)

type stubUsers map[string]*models.User

func (s stubUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := s[email]; ok {
		return u, nil
	}
	return nil, errs.NotFound("user", nil)
}

func request(header string, query url.Values) *Request {
	return &Request{
		Context:       context.Background(),
		Authorization: header,
		Query:         query.Get,
	}
}

func bearer(t *testing.T, m *utils.TokenManager, email string) string {
	t.Helper()
	token, err := m.GenerateJWT(email)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRequireToken(t *testing.T) {
	tokens := utils.NewTokenManager("secret")

	t.Run("missing header", func(t *testing.T) {
		err := RequireToken(tokens)(request("", nil))
		assert.ErrorIs(t, err, errs.ErrCredentialMissing)
	})

	t.Run("foreign secret", func(t *testing.T) {
		r := request(bearer(t, utils.NewTokenManager("other"), "a@example.com"), nil)
		err := RequireToken(tokens)(r)
		assert.ErrorIs(t, err, errs.ErrCredentialInvalid)
		assert.Nil(t, r.Identity)
	})

	t.Run("expired", func(t *testing.T) {
		old := utils.NewTokenManager("secret").WithClock(func() time.Time { return time.Now().Add(-25 * time.Hour) })
		err := RequireToken(tokens)(request(bearer(t, old, "a@example.com"), nil))
		assert.ErrorIs(t, err, errs.ErrCredentialInvalid)
	})

	t.Run("valid", func(t *testing.T) {
		r := request(bearer(t, tokens, "a@example.com"), nil)
		require.NoError(t, RequireToken(tokens)(r))
		require.NotNil(t, r.Identity)
		assert.Equal(t, "a@example.com", r.Identity.Email)
	})
}

func TestRequireQueryOwner(t *testing.T) {
	tokens := utils.NewTokenManager("secret")
	gate := Chain(RequireToken(tokens), RequireQueryOwner("email"))

	err := gate(request(bearer(t, tokens, "e1@example.com"), url.Values{"email": {"e2@example.com"}}))
	assert.ErrorIs(t, err, errs.ErrNotAuthorized)

	err = gate(request(bearer(t, tokens, "e1@example.com"), url.Values{"email": {"e1@example.com"}}))
	assert.NoError(t, err)
}

func TestRequireAdmin(t *testing.T) {
	tokens := utils.NewTokenManager("secret")
	users := stubUsers{
		"admin@example.com":   {Email: "admin@example.com", Role: models.RoleAdmin},
		"patient@example.com": {Email: "patient@example.com", Role: models.RolePatient},
	}
	gate := Chain(RequireToken(tokens), RequireAdmin(users))

	assert.ErrorIs(t, gate(request(bearer(t, tokens, "patient@example.com"), nil)), errs.ErrNotAuthorized)
	assert.ErrorIs(t, gate(request(bearer(t, tokens, "stranger@example.com"), nil)), errs.ErrNotAuthorized)
	assert.NoError(t, gate(request(bearer(t, tokens, "admin@example.com"), nil)))
}

func TestRoleIsReadAtRequestTime(t *testing.T) {
	tokens := utils.NewTokenManager("secret")
	users := stubUsers{"p@example.com": {Email: "p@example.com", Role: models.RolePatient}}
	gate := Chain(RequireToken(tokens), RequireAdmin(users))
	header := bearer(t, tokens, "p@example.com")

	assert.ErrorIs(t, gate(request(header, nil)), errs.ErrNotAuthorized)

	users["p@example.com"].Role = models.RoleAdmin
	assert.NoError(t, gate(request(header, nil)), "same token is accepted after promotion")
}

func TestChainShortCircuits(t *testing.T) {
	called := false
	deny := func(*Request) error { return errs.NotAuthorized("no") }
	spy := func(*Request) error { called = true; return nil }

	err := Chain(deny, spy)(request("", nil))
	assert.ErrorIs(t, err, errs.ErrNotAuthorized)
	assert.False(t, called)
}

func TestRequireRolePropagatesLookupFailure(t *testing.T) {
	boom := errs.Unavailable(errors.New("connection reset"))
	failing := finderFunc(func(context.Context, string) (*models.User, error) { return nil, boom })

	r := request("", nil)
	r.Identity = &Identity{Email: "a@example.com"}
	err := RequireAdmin(failing)(r)
	assert.ErrorIs(t, err, errs.ErrUnavailable)
}

type finderFunc func(context.Context, string) (*models.User, error)

func (f finderFunc) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return f(ctx, email)
}
