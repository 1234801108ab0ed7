package model

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Actor is the authenticated caller of an operation, resolved upstream from
// the bearer token. Every service operation takes it explicitly; there is no
// ambient session state.
type Actor struct {
	UID  string
	Role Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
