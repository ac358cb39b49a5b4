package credential

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims holds the identity claims worth showing when debugging which
// principal a token belongs to.
type Claims struct {
	ObjectID  string    `json:"oid,omitempty"`
	UPN       string    `json:"upn,omitempty"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	AppID     string    `json:"appid,omitempty"`
	TenantID  string    `json:"tid,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
}

// DecodeClaims parses a JWT without verifying its signature.
// The token came from the identity provider; we only read it.
func DecodeClaims(token string) (*Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}

	c := &Claims{
		ObjectID: stringClaim(mc, "oid"),
		UPN:      stringClaim(mc, "upn"),
		Email:    stringClaim(mc, "email"),
		Name:     stringClaim(mc, "name"),
		AppID:    stringClaim(mc, "appid"),
		TenantID: stringClaim(mc, "tid"),
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

// Fields returns the non-empty identity claims in display order.
func (c *Claims) Fields() [][2]string {
	var out [][2]string
	for _, kv := range [][2]string{
		{"oid", c.ObjectID},
		{"upn", c.UPN},
		{"email", c.Email},
		{"name", c.Name},
		{"appid", c.AppID},
		{"tid", c.TenantID},
	} {
		if kv[1] != "" {
			out = append(out, kv)
		}
	}
	return out
}

func stringClaim(mc jwt.MapClaims, key string) string {
	if v, ok := mc[key].(string); ok {
		return v
	}
	return ""
}
