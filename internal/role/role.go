// Package role holds the user role classification and the capability
// predicates that gate every mutating action on the platform.
//
// Roles are totally ordered: player < developer < admin < owner. Each
// role inherits the allowances of the roles below it. All predicates are
// stateless and evaluated fresh on every call; a role can change between
// requests, so results must never be cached.
package role

import "fmt"

// Role classifies a user for capability purposes.
type Role int

const (
	Player Role = iota
	Developer
	Admin
	Owner
)

var names = map[Role]string{
	Player:    "player",
	Developer: "developer",
	Admin:     "admin",
	Owner:     "owner",
}

// String returns the persisted name of the role.
func (r Role) String() string {
	if name, ok := names[r]; ok {
		return name
	}
	return "player"
}

// MarshalText implements encoding.TextMarshaler so roles serialize as
// their names in JSON.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Parse converts a persisted role name into a Role.
func Parse(s string) (Role, error) {
	for r, name := range names {
		if name == s {
			return r, nil
		}
	}
	return Player, fmt.Errorf("unknown role %q", s)
}

// IsOwner reports whether r is the owner role.
func (r Role) IsOwner() bool {
	return r == Owner
}

// IsAdmin reports whether r is admin or above.
func (r Role) IsAdmin() bool {
	return r >= Admin
}

// IsDeveloper reports whether r is developer or above.
func (r Role) IsDeveloper() bool {
	return r >= Developer
}

// CanEditUser reports whether an actor may edit a subject account.
// The owner may edit anyone. An admin may edit players and developers.
// Everyone may edit themselves. actorID/subjectID identify the accounts
// so the self-edit case is decided here rather than by the caller.
func CanEditUser(actor Role, actorID int64, subject Role, subjectID int64) bool {
	if actorID == subjectID {
		return true
	}
	if actor.IsOwner() {
		return true
	}
	if actor.IsAdmin() {
		return subject == Player || subject == Developer
	}
	return false
}

// CanDeleteUser reports whether an actor may delete a subject account.
// The owner may delete anyone but themselves. An admin may delete players
// and developers. Self-deletion is always denied; callers at the action
// boundary must additionally refuse actorID == subjectID, which this
// predicate also encodes.
func CanDeleteUser(actor Role, actorID int64, subject Role, subjectID int64) bool {
	if actorID == subjectID {
		return false
	}
	if actor.IsOwner() {
		return true
	}
	if actor.IsAdmin() {
		return subject == Player || subject == Developer
	}
	return false
}

// AssignableRoles returns the roles an actor may assign when creating or
// editing another account. The owner may assign any role; an admin only
// player and developer; everyone else none.
func AssignableRoles(actor Role) []Role {
	switch {
	case actor.IsOwner():
		return []Role{Player, Developer, Admin, Owner}
	case actor.IsAdmin():
		return []Role{Player, Developer}
	default:
		return nil
	}
}

// CanAssign reports whether an actor may assign the given role.
func CanAssign(actor, target Role) bool {
	for _, r := range AssignableRoles(actor) {
		if r == target {
			return true
		}
	}
	return false
}

// CanEditGame reports whether an actor may edit a game owned by
// developerID.
func CanEditGame(actor Role, actorID, developerID int64) bool {
	return actorID == developerID || actor.IsAdmin()
}

// CanDeleteGame reports whether an actor may delete a game owned by
// developerID. The owner always may. An admin may only when the game is
// not their own; removing their own game goes through the plain
// developer-owner path, never the elevated one.
func CanDeleteGame(actor Role, actorID, developerID int64) bool {
	if actor.IsOwner() {
		return true
	}
	if actor.IsAdmin() {
		return actorID != developerID
	}
	return actorID == developerID
}

// CanViewGame reports whether an actor may view a game given its
// approval state. Approved games are visible to everyone, including
// anonymous viewers (actorID 0). Unapproved games are visible only to
// the owning developer and admins.
func CanViewGame(actor Role, actorID, developerID int64, approved bool) bool {
	if approved {
		return true
	}
	if actorID == 0 {
		return false
	}
	return actorID == developerID || actor.IsAdmin()
}
