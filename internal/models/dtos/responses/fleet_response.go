package responses

import "time"

// FleetSummary is one row of the fleet lists.
type FleetSummary struct {
	FleetID     string    `json:"fleet_id"`
	SystemID    string    `json:"system_id"`
	SystemName  string    `json:"system_name"`
	BossID      string    `json:"boss_id"`
	BossName    string    `json:"boss_name"`
	StartedAt   time.Time `json:"started_at"`
	MemberCount int       `json:"member_count"`
	SiteCount   int       `json:"site_count"`
}

type MemberView struct {
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	JoinTime time.Time `json:"join_time"`
	IsBoss   bool      `json:"is_boss"`
}

type ClaimView struct {
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	Pending bool   `json:"pending"`
}

type SiteView struct {
	SiteID         string      `json:"site_id"`
	SiteType       string      `json:"site_type"`
	SiteTypeName   string      `json:"site_type_name"`
	Value          int64       `json:"value"`
	CreditedAt     time.Time   `json:"credited_at"`
	CreditedBy     string      `json:"credited_by"`
	FleetSize      int         `json:"fleet_size"`
	ApprovedClaims int         `json:"approved_claims"`
	ShareValue     float64     `json:"share_value"`
	Claims         []ClaimView `json:"claims"`
}

// MemberCredit totals the approved share a user earned in one fleet.
type MemberCredit struct {
	UserID       string  `json:"user_id"`
	Name         string  `json:"name"`
	SitesCounted int     `json:"sites_counted"`
	Credit       float64 `json:"credit"`
}

type FleetDetail struct {
	FleetID         string         `json:"fleet_id"`
	SystemID        string         `json:"system_id"`
	SystemName      string         `json:"system_name"`
	InitialBossID   string         `json:"initial_boss_id"`
	CurrentBossID   string         `json:"current_boss_id"`
	CurrentBossName string         `json:"current_boss_name"`
	Ended           bool           `json:"ended"`
	StartedAt       time.Time      `json:"started_at"`
	EndedAt         *time.Time     `json:"ended_at,omitempty"`
	Members         []MemberView   `json:"members"`
	Sites           []SiteView     `json:"sites"`
	Credits         []MemberCredit `json:"credits"`
	ViewerIsBoss    bool           `json:"viewer_is_boss"`
	ViewerIsMember  bool           `json:"viewer_is_member"`
}

type PendingClaim struct {
	SiteID   string `json:"site_id"`
	SiteType string `json:"site_type"`
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
}

// BossPanel is the boss-only management view of a fleet.
type BossPanel struct {
	Fleet         FleetDetail    `json:"fleet"`
	PendingClaims []PendingClaim `json:"pending_claims"`
}

type MemberDetail struct {
	FleetID   string      `json:"fleet_id"`
	UserID    string      `json:"user_id"`
	Name      string      `json:"name"`
	JoinTime  time.Time   `json:"join_time"`
	LeaveTime *time.Time  `json:"leave_time,omitempty"`
	Active    bool        `json:"active"`
	Claims    []ClaimSite `json:"claims"`
}

type ClaimSite struct {
	SiteID  string `json:"site_id"`
	Pending bool   `json:"pending"`
}

type SiteTypeView struct {
	ShortName string `json:"short_name"`
	LongName  string `json:"long_name"`
	Value     int64  `json:"value"`
}

type LeaveAllResult struct {
	FleetsLeft int64 `json:"fleets_left"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
