package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"evewspace/sitetracker/internal/db/repositories"

	"github.com/xuri/excelize/v2"
)

const (
	sheetSites   = "Sites"
	sheetMembers = "Members"
)

// FleetExportService renders a fleet's sites and roster history as xlsx.
type FleetExportService struct {
	repo  *repositories.Repository
	views *FleetViewService
}

func NewFleetExportService(repo *repositories.Repository, views *FleetViewService) *FleetExportService {
	return &FleetExportService{repo: repo, views: views}
}

// ExportFleet returns the workbook bytes and a suggested file name.
func (svc *FleetExportService) ExportFleet(ctx context.Context, viewerID, fleetID string) ([]byte, string, error) {
	detail, err := svc.views.FleetDetail(ctx, viewerID, fleetID)
	if err != nil {
		return nil, "", err
	}
	history, err := svc.repo.Members.ListByFleet(ctx, fleetID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetSites)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")
	if _, err := f.NewSheet(sheetMembers); err != nil {
		return nil, "", fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	siteHeader := []string{"Site", "Type", "Value", "Credited At", "Credited By", "Fleet Size", "Approved", "Share", "Pending"}
	writeRow(f, sheetSites, 1, toCells(siteHeader))
	f.SetCellStyle(sheetSites, "A1", cell(len(siteHeader), 1), headerStyle)
	f.SetColWidth(sheetSites, "A", "A", 38)
	f.SetColWidth(sheetSites, "B", "E", 20)

	for i, s := range detail.Sites {
		pending := 0
		for _, c := range s.Claims {
			if c.Pending {
				pending++
			}
		}
		writeRow(f, sheetSites, i+2, []interface{}{
			s.SiteID, s.SiteType, s.Value, s.CreditedAt.Format(time.RFC3339), s.CreditedBy,
			s.FleetSize, s.ApprovedClaims, s.ShareValue, pending,
		})
	}

	credit := make(map[string]float64, len(detail.Credits))
	for _, mc := range detail.Credits {
		credit[mc.UserID] = mc.Credit
	}

	memberHeader := []string{"User", "Joined", "Left", "Credit"}
	writeRow(f, sheetMembers, 1, toCells(memberHeader))
	f.SetCellStyle(sheetMembers, "A1", cell(len(memberHeader), 1), headerStyle)
	f.SetColWidth(sheetMembers, "A", "C", 24)

	for i, m := range history {
		left := ""
		if m.LeaveTime != nil {
			left = m.LeaveTime.Format(time.RFC3339)
		}
		writeRow(f, sheetMembers, i+2, []interface{}{
			m.User.Name(), m.JoinTime.Format(time.RFC3339), left, credit[m.UserID],
		})
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, "", fmt.Errorf("failed to write workbook: %w", err)
	}

	name := fmt.Sprintf("fleet-%s-%s.xlsx", detail.SystemName, detail.StartedAt.Format("20060102-1504"))
	return buf.Bytes(), name, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) {
	for i, v := range values {
		f.SetCellValue(sheet, cell(i+1, row), v)
	}
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
