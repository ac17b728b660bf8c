package service

import (
	"funnel_backend/internal/leads/domain"
	"funnel_backend/internal/leads/repository"
	"funnel_backend/internal/leads/transport"
)

func toBreakdownResponse(in map[string]domain.BreakdownEntry) map[string]transport.BreakdownEntryResponse {
	breakdown := make(map[string]transport.BreakdownEntryResponse, len(in))
	for name, entry := range in {
		breakdown[name] = transport.BreakdownEntryResponse{
			RuleID:   entry.RuleID,
			Applies:  entry.Applies,
			Points:   entry.Points,
			RuleType: string(entry.RuleType),
		}
	}
	return breakdown
}

func toArchivedScoreResponse(res domain.ScoreResult) transport.ArchivedScoreResponse {
	return transport.ArchivedScoreResponse{
		TotalScore:         res.TotalScore,
		Breakdown:          toBreakdownResponse(res.Breakdown),
		Qualification:      string(res.Qualification),
		QualificationLabel: res.Qualification.Label(),
		Version:            res.Version,
		RuleCount:          res.RuleCount,
		CalculatedAt:       res.CalculatedAt,
	}
}

func toScoreResponse(score repository.LeadScore) transport.ScoreResponse {
	res := score.Result
	return transport.ScoreResponse{
		LeadID:             res.LeadID,
		TotalScore:         res.TotalScore,
		Breakdown:          toBreakdownResponse(res.Breakdown),
		Qualification:      string(res.Qualification),
		QualificationLabel: res.Qualification.Label(),
		Version:            res.Version,
		RuleCount:          res.RuleCount,
		CalculatedAt:       res.CalculatedAt,
		FollowUp: transport.FollowUpResponse{
			Approach:           score.Strategy.Approach,
			Channel:            string(score.Strategy.Channel),
			Priority:           string(score.Strategy.Priority),
			SuggestedContactAt: score.Strategy.SuggestedContactAt,
		},
	}
}

func toLeadResponse(p domain.LeadProfile, score *repository.LeadScore) transport.LeadResponse {
	resp := transport.LeadResponse{
		ID:             p.ID,
		Email:          p.Email,
		Name:           p.Name,
		Phone:          p.Phone,
		Company:        p.Company,
		SourceFunnelID: p.SourceFunnelID,
		SessionID:      p.SessionID,
		CombinedData:   p.CombinedData,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if resp.CombinedData == nil {
		resp.CombinedData = map[string]any{}
	}
	if score != nil {
		sr := toScoreResponse(*score)
		resp.Score = &sr
	}
	return resp
}
