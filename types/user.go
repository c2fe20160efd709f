package types

import "time"

// An AuthorizedUser is a user who completed the OAuth2 flow with the guilds.join scope
type AuthorizedUser struct {
	UserID      string    `db:"user_id" json:"user_id" description:"The Discord user ID, unique key of the store"`
	AccessToken string    `db:"access_token" json:"-" description:"The user's OAuth2 bearer token. Never serialized to API responses"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at,omitempty" description:"Last time the token was written. Zero for the file backend"`
}
