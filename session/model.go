package session

import "strings"

// UserType is the marketplace role of an authenticated user.
type UserType string

const (
	// Buyer shops the marketplace, fills a cart and checks out.
	Buyer UserType = "buyer"
	// Seller runs a market stall and manages products.
	Seller UserType = "seller"
	// Kayayo is a personal shopper who picks orders in the market.
	Kayayo UserType = "kayayo"
	// Rider delivers picked orders.
	Rider UserType = "rider"
)

// UserTypes lists every known role in display order.
var UserTypes = []UserType{Buyer, Seller, Kayayo, Rider}

// Valid reports whether t is one of the known roles.
func (t UserType) Valid() bool {
	switch t {
	case Buyer, Seller, Kayayo, Rider:
		return true
	}
	return false
}

func (t UserType) String() string {
	return string(t)
}

// ParseUserType converts a raw role tag into a UserType. Matching is case
// insensitive and ignores surrounding whitespace.
func ParseUserType(raw string) (UserType, bool) {
	t := UserType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", false
	}
	return t, true
}

// User is the identity record supplied by the authentication provider.
// ID and UserType are required; the profile fields are carried verbatim.
type User struct {
	ID       string   `json:"id"`
	UserType UserType `json:"userType"`
	Name     string   `json:"name,omitempty"`
	Email    string   `json:"email,omitempty"`
	Phone    string   `json:"phone,omitempty"`
	Avatar   string   `json:"avatar,omitempty"`
}

// Validate checks the identity shape required to hold a session.
func (u User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return ErrInvalidUser
	}
	if !u.UserType.Valid() {
		return ErrInvalidUser
	}
	return nil
}

// State is an immutable snapshot of a store. User is nil when the client is
// not logged in.
type State struct {
	User  *User
	Token string
}

// IsAuthenticated is true iff both the user and a non-empty token are present.
func (s State) IsAuthenticated() bool {
	return s.User != nil && s.Token != ""
}

// Role returns the user's role, or "" when nobody is logged in.
func (s State) Role() UserType {
	if s.User == nil {
		return ""
	}
	return s.User.UserType
}

func (s State) clone() State {
	if s.User == nil {
		return State{}
	}
	u := *s.User
	return State{User: &u, Token: s.Token}
}

// Record is the persisted form of a session: the opaque token and the
// serialized user, always written and removed together.
type Record struct {
	Token string
	User  string
}

// Empty reports whether neither slot holds a value.
func (r Record) Empty() bool {
	return r.Token == "" && r.User == ""
}
