package service

// Realm identifies the tenant's game world.
type Realm struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Profile is the remote profile of a player.
type Profile struct {
	XUID       string `json:"xuid"`
	Gamertag   string `json:"gamertag"`
	Gamerscore int    `json:"gamerscore"`
	Followers  int    `json:"followers"`
	Tier       string `json:"tier"`
}

// banRequest is the body sent to the ban API.
type banRequest struct {
	RealmID   string `json:"realm_id"`
	RealmName string `json:"realm_name,omitempty"`
	XUID      string `json:"xuid"`
	Reason    string `json:"reason"`
}
