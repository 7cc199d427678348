package services

import (
	"context"
	"sort"

	"evewspace/sitetracker/internal/db/repositories"
	"evewspace/sitetracker/internal/models/dtos/responses"
	gormModels "evewspace/sitetracker/internal/models/gorm"
	"evewspace/sitetracker/internal/policy"
)

// FleetViewService builds the read models handed to the presentation layer.
type FleetViewService struct {
	repo *repositories.Repository
}

func NewFleetViewService(repo *repositories.Repository) *FleetViewService {
	return &FleetViewService{repo: repo}
}

// MyFleets lists the open fleets the user is currently in.
func (svc *FleetViewService) MyFleets(ctx context.Context, userID string) ([]responses.FleetSummary, error) {
	fleets, err := svc.repo.Fleets.ListActiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return summarize(fleets), nil
}

// ActiveFleets lists every fleet open to join.
func (svc *FleetViewService) ActiveFleets(ctx context.Context) ([]responses.FleetSummary, error) {
	fleets, err := svc.repo.Fleets.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return summarize(fleets), nil
}

// FleetDetail returns the roster, sites and credit totals of a fleet as seen
// by viewerID.
func (svc *FleetViewService) FleetDetail(ctx context.Context, viewerID, fleetID string) (*responses.FleetDetail, error) {
	fleet, err := svc.repo.Fleets.GetDetail(ctx, fleetID)
	if err != nil {
		return nil, err
	}
	sites, err := svc.repo.Sites.ListByFleet(ctx, fleetID)
	if err != nil {
		return nil, err
	}
	return buildDetail(fleet, sites, viewerID), nil
}

// BossPanel returns the fleet detail plus every claim awaiting approval.
// Boss only.
func (svc *FleetViewService) BossPanel(ctx context.Context, actorID, fleetID string) (*responses.BossPanel, error) {
	fleet, err := svc.repo.Fleets.GetDetail(ctx, fleetID)
	if err != nil {
		return nil, err
	}
	if err := policy.RequireBoss(fleet, actorID); err != nil {
		return nil, err
	}
	sites, err := svc.repo.Sites.ListByFleet(ctx, fleetID)
	if err != nil {
		return nil, err
	}

	panel := &responses.BossPanel{
		Fleet:         *buildDetail(fleet, sites, actorID),
		PendingClaims: []responses.PendingClaim{},
	}
	for _, site := range sites {
		for _, c := range site.Claims {
			if !c.Pending {
				continue
			}
			panel.PendingClaims = append(panel.PendingClaims, responses.PendingClaim{
				SiteID:   site.ID,
				SiteType: site.SiteType.ShortName,
				UserID:   c.UserID,
				Name:     c.User.Name(),
			})
		}
	}
	return panel, nil
}

// MemberDetail returns a member's latest interval in the fleet and their
// claims on its sites. Boss only.
func (svc *FleetViewService) MemberDetail(ctx context.Context, actorID, fleetID, memberID string) (*responses.MemberDetail, error) {
	fleet, err := svc.repo.Fleets.GetByID(ctx, fleetID)
	if err != nil {
		return nil, err
	}
	if err := policy.RequireBoss(fleet, actorID); err != nil {
		return nil, err
	}

	record, err := svc.repo.Members.Latest(ctx, fleetID, memberID)
	if err != nil {
		return nil, err
	}
	claims, err := svc.repo.Sites.ListClaimsByUserInFleet(ctx, fleetID, memberID)
	if err != nil {
		return nil, err
	}

	detail := &responses.MemberDetail{
		FleetID:   fleetID,
		UserID:    memberID,
		Name:      record.User.Name(),
		JoinTime:  record.JoinTime,
		LeaveTime: record.LeaveTime,
		Active:    record.Active(),
		Claims:    make([]responses.ClaimSite, 0, len(claims)),
	}
	for _, c := range claims {
		detail.Claims = append(detail.Claims, responses.ClaimSite{SiteID: c.SiteID, Pending: c.Pending})
	}
	return detail, nil
}

// PendingClaims lists the claims on one site still awaiting approval.
func (svc *FleetViewService) PendingClaims(ctx context.Context, fleetID, siteID string) ([]responses.PendingClaim, error) {
	site, err := svc.repo.Sites.GetInFleet(ctx, fleetID, siteID)
	if err != nil {
		return nil, err
	}
	claims, err := svc.repo.Sites.ListPendingBySite(ctx, siteID)
	if err != nil {
		return nil, err
	}

	out := make([]responses.PendingClaim, 0, len(claims))
	for _, c := range claims {
		out = append(out, responses.PendingClaim{
			SiteID:   siteID,
			SiteType: site.SiteType.ShortName,
			UserID:   c.UserID,
			Name:     c.User.Name(),
		})
	}
	return out, nil
}

func summarize(fleets []gormModels.Fleet) []responses.FleetSummary {
	out := make([]responses.FleetSummary, 0, len(fleets))
	for _, f := range fleets {
		out = append(out, responses.FleetSummary{
			FleetID:     f.ID,
			SystemID:    f.SystemID,
			SystemName:  f.System.Name,
			BossID:      f.CurrentBossID,
			BossName:    f.CurrentBoss.Name(),
			StartedAt:   f.StartedAt,
			MemberCount: len(f.Members),
			SiteCount:   len(f.Sites),
		})
	}
	return out
}

// SiteShare splits a site's value evenly across its approved claimants.
func SiteShare(value int64, approved int) float64 {
	if approved == 0 {
		return 0
	}
	return float64(value) / float64(approved)
}

func buildDetail(fleet *gormModels.Fleet, sites []gormModels.SiteRecord, viewerID string) *responses.FleetDetail {
	detail := &responses.FleetDetail{
		FleetID:         fleet.ID,
		SystemID:        fleet.SystemID,
		SystemName:      fleet.System.Name,
		InitialBossID:   fleet.InitialBossID,
		CurrentBossID:   fleet.CurrentBossID,
		CurrentBossName: fleet.CurrentBoss.Name(),
		Ended:           fleet.Ended,
		StartedAt:       fleet.StartedAt,
		EndedAt:         fleet.EndedAt,
		Members:         make([]responses.MemberView, 0, len(fleet.Members)),
		Sites:           make([]responses.SiteView, 0, len(sites)),
		Credits:         []responses.MemberCredit{},
		ViewerIsBoss:    policy.IsBoss(fleet, viewerID),
		ViewerIsMember:  policy.IsMember(fleet.Members, viewerID),
	}

	for _, m := range fleet.Members {
		detail.Members = append(detail.Members, responses.MemberView{
			UserID:   m.UserID,
			Name:     m.User.Name(),
			JoinTime: m.JoinTime,
			IsBoss:   m.UserID == fleet.CurrentBossID,
		})
	}

	credits := make(map[string]*responses.MemberCredit)
	for _, site := range sites {
		approved := 0
		for _, c := range site.Claims {
			if !c.Pending {
				approved++
			}
		}
		share := SiteShare(site.SiteType.Value, approved)

		view := responses.SiteView{
			SiteID:         site.ID,
			SiteType:       site.SiteType.ShortName,
			SiteTypeName:   site.SiteType.LongName,
			Value:          site.SiteType.Value,
			CreditedAt:     site.CreditedAt,
			CreditedBy:     site.CreditedBy.Name(),
			FleetSize:      site.FleetSize,
			ApprovedClaims: approved,
			ShareValue:     share,
			Claims:         make([]responses.ClaimView, 0, len(site.Claims)),
		}
		for _, c := range site.Claims {
			view.Claims = append(view.Claims, responses.ClaimView{UserID: c.UserID, Name: c.User.Name(), Pending: c.Pending})
			if c.Pending {
				continue
			}
			mc, ok := credits[c.UserID]
			if !ok {
				mc = &responses.MemberCredit{UserID: c.UserID, Name: c.User.Name()}
				credits[c.UserID] = mc
			}
			mc.SitesCounted++
			mc.Credit += share
		}
		detail.Sites = append(detail.Sites, view)
	}

	for _, mc := range credits {
		detail.Credits = append(detail.Credits, *mc)
	}
	sort.Slice(detail.Credits, func(i, j int) bool {
		if detail.Credits[i].Credit != detail.Credits[j].Credit {
			return detail.Credits[i].Credit > detail.Credits[j].Credit
		}
		return detail.Credits[i].Name < detail.Credits[j].Name
	})
	return detail
}
