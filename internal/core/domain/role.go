package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Role is the canonical role used for every access-control decision.
type Role string

const (
	RoleUnknown       Role = ""
	RoleCitizen       Role = "citizen"
	RoleOfficial      Role = "official"
	RoleAdministrator Role = "administrator"
)

// Names under which roles are stored on user records and issued in tokens.
const (
	StoredCitizen       = "ciudadano"
	StoredOfficial      = "funcionario"
	StoredAdministrator = "administrador"
)

// Canonical home paths, one per role.
const (
	HomeCitizen       = "/ciudadano"
	HomeOfficial      = "/funcionario"
	HomeAdministrator = "/admin"
)

var roleTable = map[string]Role{
	"funcionario":   RoleOfficial,
	"administrador": RoleAdministrator,
	"admin":         RoleAdministrator,
	"ciudadano":     RoleCitizen,
}

// ParseRole maps a raw role string to its canonical role. Matching ignores
// case, surrounding whitespace and diacritics. Unrecognised or empty input
// falls back to RoleCitizen with ok=false.
func ParseRole(raw string) (Role, bool) {
	key := foldRole(raw)
	if r, ok := roleTable[key]; ok {
		return r, true
	}
	return RoleCitizen, false
}

// NormalizeRole is ParseRole without the recognition flag.
func NormalizeRole(raw string) Role {
	r, _ := ParseRole(raw)
	return r
}

func foldRole(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return s
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// HomePath returns the landing page for the role. RoleUnknown lands on the
// citizen home, same as the fallback in ParseRole.
func (r Role) HomePath() string {
	switch r {
	case RoleAdministrator:
		return HomeAdministrator
	case RoleOfficial:
		return HomeOfficial
	default:
		return HomeCitizen
	}
}

// StoredName returns the name persisted on user records for the role.
func (r Role) StoredName() string {
	switch r {
	case RoleAdministrator:
		return StoredAdministrator
	case RoleOfficial:
		return StoredOfficial
	default:
		return StoredCitizen
	}
}

func (r Role) String() string {
	if r == RoleUnknown {
		return "unknown"
	}
	return string(r)
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID   string
	Username string
	Role     Role
	Token    string
}

// Authenticated reports whether the principal carries a credential.
func (p Principal) Authenticated() bool {
	return p.Token != ""
}
