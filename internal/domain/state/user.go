package state

// User mirrors the authenticated identity. Authentication is signalled by
// presence: a nil *User in the store means no one is signed in, so no
// separate flag is carried.
type User struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}
