package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cms-platform/client"
)

func TestGuard(t *testing.T) {
	user := Snapshot{Status: StatusAuthenticated, Role: RoleUser, User: &client.Profile{ID: 2}}
	admin := Snapshot{Status: StatusAuthenticated, Role: RoleAdmin, User: &client.Profile{ID: 1}}
	anon := loggedOut()
	unknown := Snapshot{}

	cases := []struct {
		name string
		s    Snapshot
		need Role
		want Decision
	}{
		{"public route while unknown", unknown, RoleAnonymous, Decision{Action: Allow}},
		{"user route while unknown", unknown, RoleUser, Decision{Action: Wait}},
		{"admin route while unknown", unknown, RoleAdmin, Decision{Action: Wait}},
		{"user route anonymous", anon, RoleUser, Decision{Action: Redirect, Target: "/"}},
		{"admin route anonymous", anon, RoleAdmin, Decision{Action: Redirect, Target: "/admin/login"}},
		{"user route as user", user, RoleUser, Decision{Action: Allow}},
		{"user route as admin", admin, RoleUser, Decision{Action: Allow}},
		{"admin route as user", user, RoleAdmin, Decision{Action: Redirect, Target: "/admin/login"}},
		{"admin route as admin", admin, RoleAdmin, Decision{Action: Allow}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Guard(tc.s, tc.need))
		})
	}
}
