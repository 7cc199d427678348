package dtos

import (
	"evewspace/sitetracker/internal/models/dtos/responses"
)

// The wrappers below are only used for Swagger documentation.

type FleetDetailSwaggerResponse struct {
	Status       string                `json:"status"`
	Message      string                `json:"message"`
	ResponseTime string                `json:"response_time"`
	Data         responses.FleetDetail `json:"data"`
}

type FleetListSwaggerResponse struct {
	Status       string                   `json:"status"`
	Message      string                   `json:"message"`
	ResponseTime string                   `json:"response_time"`
	Data         []responses.FleetSummary `json:"data"`
}

type BossPanelSwaggerResponse struct {
	Status       string              `json:"status"`
	Message      string              `json:"message"`
	ResponseTime string              `json:"response_time"`
	Data         responses.BossPanel `json:"data"`
}
