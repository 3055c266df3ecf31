package service

import "context"

// DashboardService serves the dashboard's summary counts.
type DashboardService struct {
	reference *ReferenceService
}

func NewDashboardService(reference *ReferenceService) *DashboardService {
	return &DashboardService{reference: reference}
}

func (s *DashboardService) Dispatch(ctx context.Context, p Payload, token string) Result {
	switch p.Action() {
	case ActionList:
		return s.List(ctx, p, token)
	default:
		return InvalidAction()
	}
}

func (s *DashboardService) List(ctx context.Context, _ Payload, token string) Result {
	return Ok(s.reference.Counts(ctx, token))
}
