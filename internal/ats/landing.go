package ats

import (
	"context"
	"math"

	"atspro/internal/models"
)

// LandingStats are the public headline numbers.
type LandingStats struct {
	JobsMatched int64   `json:"jobs_matched"`
	SuccessRate int     `json:"success_rate"`
	Companies   int64   `json:"companies"`
	ActiveJobs  int64   `json:"active_jobs"`
	Rating      float64 `json:"rating"`
}

// successRate is the share of decided applications that ended in a hire.
func successRate(counts map[models.ApplicationStatus]int64) int {
	hired := counts[models.StatusSelected] + counts[models.StatusPlaced]
	decided := hired + counts[models.StatusRejected]
	if decided == 0 {
		return 0
	}
	return int(math.Round(100 * float64(hired) / float64(decided)))
}

// LandingStats computes the public numbers. No caller is required.
func (s *Service) LandingStats(ctx context.Context) (*LandingStats, error) {
	counts, err := s.store.StatusCounts(ctx, "")
	if err != nil {
		return nil, s.fail(storeErr(err, "Applications"), "landing_stats")
	}
	companies, err := s.store.CountActiveCompanies(ctx)
	if err != nil {
		return nil, s.fail(storeErr(err, "Companies"), "landing_stats")
	}
	active, err := s.store.CountActiveJobs(ctx)
	if err != nil {
		return nil, s.fail(storeErr(err, "Jobs"), "landing_stats")
	}
	avg, ok, err := s.store.AverageInterviewRating(ctx)
	if err != nil {
		return nil, s.fail(storeErr(err, "Interviews"), "landing_stats")
	}

	stats := &LandingStats{
		SuccessRate: successRate(counts),
		Companies:   companies,
		ActiveJobs:  active,
	}
	for _, n := range counts {
		stats.JobsMatched += n
	}
	if ok {
		stats.Rating = math.Round(avg*10) / 10
	}
	return stats, nil
}
