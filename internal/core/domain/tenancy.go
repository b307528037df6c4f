package domain

// Role is a closed tag set consumed by the external policy oracle. The core
// never branches on it for authorization decisions; it only feeds the
// permission-aware response copy.
type Role string

const (
	RoleSalesperson  Role = "salesperson"
	RoleSalesManager Role = "salesmanager"
	RoleCEO          Role = "ceo"
)

type Organization struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Region struct {
	ID             int    `json:"id"`
	OrganizationID int    `json:"organization_id"`
	Name           string `json:"name"`
}

type User struct {
	ID             int    `json:"id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	Role           Role   `json:"role"`
	OrganizationID int    `json:"organization_id"`
	RegionID       int    `json:"region_id"`
	RegionName     string `json:"region"`
}

// Client is a confidential sales account. AssignedUserID is nil when no
// salesperson owns the account; it is never ambiguous (0 or 1 owner).
type Client struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	Company           string `json:"company"`
	RegionID          int    `json:"region_id"`
	RegionName        string `json:"region"`
	AssignedUserID    *int   `json:"assigned_user_id,omitempty"`
	AssignedUserName  string `json:"assigned_user_name,omitempty"`
	AssignedUserEmail string `json:"assigned_user_email,omitempty"`
}

// Roster is the full set of clients a user may view, with the user profile
// for response context.
type Roster struct {
	User         User     `json:"user"`
	Clients      []Client `json:"clients"`
	TotalClients int      `json:"totalClients"`
}
