package session

// Action is what a route guard tells the caller to do.
type Action int

const (
	// Wait while the status is still unknown. Nothing protected is shown and no redirect happens.
	Wait Action = iota
	Allow
	Redirect
)

func (a Action) String() string {
	switch a {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	}
	return "wait"
}

const (
	UserLoginPath  = "/"
	AdminLoginPath = "/admin/login"
)

// Decision is a guard verdict. Target is set only for Redirect.
type Decision struct {
	Action Action
	Target string
}

// Guard decides whether a route needing role may be shown for s.
// RoleAnonymous marks a public route.
func Guard(s Snapshot, need Role) Decision {
	if need == RoleAnonymous {
		return Decision{Action: Allow}
	}
	if s.Status == StatusUnknown {
		return Decision{Action: Wait}
	}
	switch need {
	case RoleAdmin:
		if s.IsAdmin() {
			return Decision{Action: Allow}
		}
		return Decision{Action: Redirect, Target: AdminLoginPath}
	default:
		if s.IsAuthenticated() {
			return Decision{Action: Allow}
		}
		return Decision{Action: Redirect, Target: UserLoginPath}
	}
}
