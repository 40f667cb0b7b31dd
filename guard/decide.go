package guard

import "github.com/makolaconnect/makola/session"

// Outcome is what the rendering layer must do with a guarded view.
type Outcome uint8

const (
	// Render shows the wrapped view unchanged.
	Render Outcome = iota
	// Redirect navigates to Decision.Destination and renders nothing.
	Redirect
)

func (o Outcome) String() string {
	if o == Redirect {
		return "redirect"
	}
	return "render"
}

// Reason explains a decision for logs and metrics.
type Reason string

const (
	ReasonAuthorized      Reason = "authorized"
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonRoleNotAllowed  Reason = "role_not_allowed"
)

// Decision is the result of evaluating a policy against one snapshot.
type Decision struct {
	Outcome     Outcome
	Destination string
	Reason      Reason
}

// Renders reports whether the view may render.
func (d Decision) Renders() bool {
	return d.Outcome == Render
}

// Decide evaluates p against state. Authentication is checked before roles.
func Decide(state session.State, p Policy, routes Routes) Decision {
	if p.RequireAuth() && !state.IsAuthenticated() {
		return Decision{Outcome: Redirect, Destination: routes.Login, Reason: ReasonUnauthenticated}
	}

	if len(p.AllowedRoles) > 0 && state.User != nil && !p.Allows(state.User.UserType) {
		return Decision{
			Outcome:     Redirect,
			Destination: routes.HomeFor(state.User.UserType),
			Reason:      ReasonRoleNotAllowed,
		}
	}

	return Decision{Outcome: Render, Reason: ReasonAuthorized}
}
