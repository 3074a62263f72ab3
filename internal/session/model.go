package session

// User is the signed-in visitor. Email is the identity.
type User struct {
	Email          string  `json:"email"`
	Name           string  `json:"name"`
	DisplayPicture *string `json:"displayPicture"`
}

// Session is the in-memory authentication state. Authenticated is true
// exactly when User is non-nil.
type Session struct {
	Authenticated bool  `json:"isAuthenticated"`
	User          *User `json:"user"`
}

// UserPatch carries the fields UpdateUser merges into the current user.
// Nil fields are left untouched. ClearDisplayPicture removes the picture.
type UserPatch struct {
	Email               *string `json:"email,omitempty"`
	Name                *string `json:"name,omitempty"`
	DisplayPicture      *string `json:"displayPicture,omitempty"`
	ClearDisplayPicture bool    `json:"clearDisplayPicture,omitempty"`
}

func (u User) clone() *User {
	c := u
	if u.DisplayPicture != nil {
		p := *u.DisplayPicture
		c.DisplayPicture = &p
	}
	return &c
}

func (s Session) clone() Session {
	if s.User == nil {
		return Session{}
	}
	return Session{Authenticated: true, User: s.User.clone()}
}

func (p UserPatch) apply(u *User) {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.ClearDisplayPicture {
		u.DisplayPicture = nil
	} else if p.DisplayPicture != nil {
		pic := *p.DisplayPicture
		u.DisplayPicture = &pic
	}
}
