package core

// Roles
const (
	RolePlayer = "player"
	RoleCoach  = "coach"
	RoleAdmin  = "admin"
)

// Actor is the authenticated caller of an operation, as carried by its token.
type Actor struct {
	ID       string
	Role     string
	ClubID   string
	TeamID   string
	PlayerID string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// IsStaff reports whether a manages players: coaches & admins.
func (a Actor) IsStaff() bool { return a.Role == RoleCoach || a.Role == RoleAdmin }

func (a Actor) InClub(clubID string) bool {
	return a.ClubID != "" && a.ClubID == clubID
}

// CanActFor reports whether a may read or write the data of the player of clubID.
// Players only act for themselves, staff for any player of their club.
func (a Actor) CanActFor(playerID, clubID string) bool {
	if !a.InClub(clubID) {
		return false
	}
	if a.IsStaff() {
		return true
	}
	return a.Role == RolePlayer && a.PlayerID != "" && a.PlayerID == playerID
}
