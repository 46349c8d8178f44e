package authz

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID string
	Role   string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// VisibleTo is the user id list queries are restricted to, or "" for admins.
func (p Principal) VisibleTo() string {
	if p.IsAdmin() {
		return ""
	}
	return p.UserID
}

// Owned is any record carrying owner and assignee.
type Owned interface {
	Owner() string
	Assignee() string
}

// CanRead: owner, assignee or admin. The same set may update
// non-ownership fields.
func CanRead(p Principal, o Owned) bool {
	if p.IsAdmin() {
		return true
	}
	return p.UserID != "" && (o.Owner() == p.UserID || o.Assignee() == p.UserID)
}

func CanUpdate(p Principal, o Owned) bool {
	return CanRead(p, o)
}

// CanManage covers delete and ownership changes: owner or admin only.
func CanManage(p Principal, o Owned) bool {
	if p.IsAdmin() {
		return true
	}
	return p.UserID != "" && o.Owner() == p.UserID
}

func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}
