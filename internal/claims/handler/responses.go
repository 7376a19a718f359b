package handler

import (
	"claimtriage/internal/claims/models"
	fraudmodels "claimtriage/internal/fraud/models"
	notificationmodels "claimtriage/internal/notification/models"
	"claimtriage/pkg/domain"
)

type ClaimList struct {
	Claims []*models.Claim `json:"claims"`
	Count  int             `json:"count"`
}

type FlagList struct {
	ClaimID domain.ClaimID      `json:"claim_id"`
	Flags   []*fraudmodels.Flag `json:"fraud_flags"`
}

type AttemptList struct {
	ClaimID  domain.ClaimID                `json:"claim_id"`
	Attempts []*notificationmodels.Attempt `json:"attempts"`
}

// TimelineResponse is a claim's current status with its ordered ledger.
// Next lists the statuses the viewing actor may move the claim to.
type TimelineResponse struct {
	ClaimID domain.ClaimID          `json:"claim_id"`
	Status  models.Status           `json:"status"`
	Next    []models.Status         `json:"next_statuses"`
	Events  []*models.TrackingEvent `json:"events"`
}

func toTimeline(claim *models.Claim, events []*models.TrackingEvent, role domain.ActorRole) *TimelineResponse {
	if events == nil {
		events = []*models.TrackingEvent{}
	}
	next := models.NextStatuses(claim.Status, role)
	if next == nil {
		next = []models.Status{}
	}
	return &TimelineResponse{
		ClaimID: claim.ID,
		Status:  claim.Status,
		Next:    next,
		Events:  events,
	}
}
