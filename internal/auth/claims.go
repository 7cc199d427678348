package auth

// UserClaims is the acting user resolved by the auth middleware.
type UserClaims interface {
	UserID() string
	Username() string
	Source() string
	HasPermission(perm string) bool
}

type JWTClaims struct {
	UserUUID string
	Name     string
	Perms    []string
}

func (c *JWTClaims) UserID() string                 { return c.UserUUID }
func (c *JWTClaims) Username() string               { return c.Name }
func (c *JWTClaims) Source() string                 { return "JWT" }
func (c *JWTClaims) HasPermission(perm string) bool { return contains(c.Perms, perm) }

// APIKeyClaims identify a trusted client acting on behalf of a user.
type APIKeyClaims struct {
	UserUUID string
	Name     string
	Perms    []string
}

func (c *APIKeyClaims) UserID() string                 { return c.UserUUID }
func (c *APIKeyClaims) Username() string               { return c.Name }
func (c *APIKeyClaims) Source() string                 { return "API_KEY" }
func (c *APIKeyClaims) HasPermission(perm string) bool { return contains(c.Perms, perm) }

type SessionClaims struct {
	UserUUID  string
	Name      string
	Perms     []string
	SessionID string
}

func (c *SessionClaims) UserID() string                 { return c.UserUUID }
func (c *SessionClaims) Username() string               { return c.Name }
func (c *SessionClaims) Source() string                 { return "SESSION" }
func (c *SessionClaims) HasPermission(perm string) bool { return contains(c.Perms, perm) }

func contains(perms []string, perm string) bool {
	for _, p := range perms {
		if p == perm {
			return true
		}
	}
	return false
}
