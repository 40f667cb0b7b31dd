package guard

import (
	"errors"
	"strings"

	"github.com/makolaconnect/makola/session"
)

// Routes are the logical destinations the guard may redirect to.
type Routes struct {
	Login           string `mapstructure:"login"`
	Home            string `mapstructure:"home"`
	SellerDashboard string `mapstructure:"seller_dashboard"`
	KayayoDashboard string `mapstructure:"kayayo_dashboard"`
	RiderDashboard  string `mapstructure:"rider_dashboard"`
}

// DefaultRoutes returns the paths used by the Makola Connect web app.
func DefaultRoutes() Routes {
	return Routes{
		Login:           "/login",
		Home:            "/",
		SellerDashboard: "/seller/dashboard",
		KayayoDashboard: "/kayayo/dashboard",
		RiderDashboard:  "/rider/dashboard",
	}
}

// Validate requires every destination to be an absolute path.
func (r Routes) Validate() error {
	for _, p := range []string{r.Login, r.Home, r.SellerDashboard, r.KayayoDashboard, r.RiderDashboard} {
		if !strings.HasPrefix(p, "/") {
			return errors.New("guard: route destinations must be absolute paths")
		}
	}
	return nil
}

// HomeFor maps a role to its landing view. Buyers and any role without a
// dashboard of its own land on the public home view.
//
// TODO: give new roles an explicit entry here instead of relying on the
// home fallback once the role set grows beyond the current four.
func (r Routes) HomeFor(role session.UserType) string {
	switch role {
	case session.Seller:
		return r.SellerDashboard
	case session.Kayayo:
		return r.KayayoDashboard
	case session.Rider:
		return r.RiderDashboard
	default:
		return r.Home
	}
}
