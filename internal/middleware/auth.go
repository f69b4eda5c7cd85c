package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/doctors-portal/internal/authz"
	"github.com/harentsoaR/doctors-portal/internal/errs"
	"github.com/harentsoaR/doctors-portal/internal/metrics"
)

const ContextIdentity = "identity"

// Authorize runs the predicates against the request and aborts on the first
// denial. An identity set by an earlier Authorize in the same chain is
// reused, so route groups can stack gates.
func Authorize(m *metrics.Metrics, preds ...authz.Predicate) gin.HandlerFunc {
	gate := authz.Chain(preds...)
	return func(c *gin.Context) {
		r := &authz.Request{
			Context:       c.Request.Context(),
			Authorization: c.GetHeader("Authorization"),
			Query:         c.Query,
			Identity:      IdentityFrom(c),
		}
		if err := gate(r); err != nil {
			status := errs.StatusOf(err)
			if m != nil {
				m.AuthDenied.WithLabelValues(strconv.Itoa(status)).Inc()
			}
			c.AbortWithStatusJSON(status, gin.H{"error": errs.PublicMessage(err)})
			return
		}
		if r.Identity != nil {
			c.Set(ContextIdentity, r.Identity)
		}
		c.Next()
	}
}

// IdentityFrom returns the identity an Authorize middleware attached, or nil.
func IdentityFrom(c *gin.Context) *authz.Identity {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return nil
	}
	id, _ := v.(*authz.Identity)
	return id
}
