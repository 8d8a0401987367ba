package domain

import (
	"net/url"
	"strings"
	"unicode"
)

// Role gates which views an identity may open.
type Role string

const (
	RoleCitizen  Role = "citizen"
	RoleOfficial Role = "official"
	RoleAnalyst  Role = "analyst"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleOfficial, RoleAnalyst:
		return true
	}
	return false
}

// Identity is the profile attached to a session.
type Identity struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	Avatar string `json:"avatar,omitempty"`
}

// Valid reports whether the identity is well-formed enough to restore.
func (i Identity) Valid() bool {
	return i.ID != "" && i.Email != "" && i.Role.Valid()
}

// RoleResolver maps an email to a role. Swapping the resolver replaces the
// heuristic without touching call sites.
type RoleResolver interface {
	ResolveRole(email string) Role
}

// RoleResolverFunc adapts a plain function to RoleResolver.
type RoleResolverFunc func(email string) Role

func (f RoleResolverFunc) ResolveRole(email string) Role { return f(email) }

// EmailHeuristicResolver infers roles from substrings of the email.
// Official markers win over analyst markers.
var EmailHeuristicResolver = RoleResolverFunc(func(email string) Role {
	switch {
	case strings.Contains(email, "gov.") || strings.Contains(email, "official"):
		return RoleOfficial
	case strings.Contains(email, "analyst") || strings.Contains(email, "research"):
		return RoleAnalyst
	default:
		return RoleCitizen
	}
})

// NewIdentity builds the identity for email. The role comes from resolver,
// or from EmailHeuristicResolver when resolver is nil.
func NewIdentity(id, email string, resolver RoleResolver) Identity {
	if resolver == nil {
		resolver = EmailHeuristicResolver
	}
	return Identity{
		ID:     id,
		Email:  email,
		Name:   DisplayName(email),
		Role:   resolver.ResolveRole(email),
		Avatar: AvatarURL(email),
	}
}

// DisplayName derives a name from the local-part of email.
func DisplayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	local = strings.NewReplacer(".", " ", "_", " ").Replace(local)

	var b strings.Builder
	b.Grow(len(local))
	prevWord := false
	for _, r := range local {
		isWord := unicode.IsLetter(r) || unicode.IsDigit(r)
		if isWord && !prevWord {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
		prevWord = isWord
	}
	return b.String()
}

// AvatarURL returns the placeholder avatar keyed by email.
func AvatarURL(email string) string {
	return "https://api.dicebear.com/7.x/avataaars/svg?seed=" + url.QueryEscape(email)
}
