package etl

import (
	"math/rand"
	"time"

	"github.com/dnlaql/cls-reporting/config"
	"github.com/dnlaql/cls-reporting/dataset"
)

// MockGenerator produces a synthetic work-order dataset for development and
// tests, with the same null texture a real export has: the occasional
// missing timestamp, duration or SLA flag.
type MockGenerator struct {
	cfg  *config.MockDataConfig
	rand *rand.Rand
}

// NewMockGenerator seeds from config; seed 0 falls back to wall clock.
func NewMockGenerator(cfg *config.MockDataConfig) *MockGenerator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &MockGenerator{
		cfg:  cfg,
		rand: rand.New(rand.NewSource(seed)),
	}
}

// Generate builds the synthetic rows.
func (m *MockGenerator) Generate() []dataset.WorkOrder {
	records := m.cfg.Records
	if records <= 0 {
		records = 500
	}
	spanDays := m.cfg.TimeRangeDays
	if spanDays <= 0 {
		spanDays = 90
	}

	priorities := m.cfg.Priorities
	if len(priorities) == 0 {
		priorities = []string{"Critical", "High", "Medium", "Low"}
	}
	assignees := m.cfg.Assignees
	if len(assignees) == 0 {
		assignees = []string{"Team A", "Team B", "Team C"}
	}
	subCategories := m.cfg.SubCategories
	if len(subCategories) == 0 {
		subCategories = []string{"Hardware", "Software", "Network"}
	}

	respondRate := m.cfg.RespondRate
	if respondRate <= 0 || respondRate > 1 {
		respondRate = 0.85
	}
	resolutionRate := m.cfg.ResolutionRate
	if resolutionRate <= 0 || resolutionRate > 1 {
		resolutionRate = 0.75
	}

	startDate := time.Now().UTC().AddDate(0, 0, -spanDays)

	rows := make([]dataset.WorkOrder, 0, records)
	for i := 0; i < records; i++ {
		w := dataset.WorkOrder{
			Priority: priorities[m.rand.Intn(len(priorities))],
			AssignTo: assignees[m.rand.Intn(len(assignees))],
		}

		// ~2% of rows lose their creation date, exercising the null-date
		// filter path.
		if m.rand.Float64() >= 0.02 {
			created := startDate.
				AddDate(0, 0, m.rand.Intn(spanDays)).
				Add(time.Duration(m.rand.Intn(24*60)) * time.Minute)
			w.DateCreated = &created

			todo := created.Add(time.Duration(1+m.rand.Intn(72)) * time.Hour)
			w.ToDoDate = &todo
		}

		if m.rand.Float64() >= 0.05 {
			resp := 5 + m.rand.Float64()*120
			w.ResponseTimeMin = &resp

			if m.rand.Float64() >= 0.05 {
				res := resp + m.rand.Float64()*480
				w.ResolutionTimeMin = &res
			}
		}

		if m.rand.Float64() >= 0.03 {
			met := m.rand.Float64() < respondRate
			w.SLARespondMet = &met
		}
		if m.rand.Float64() >= 0.03 {
			met := m.rand.Float64() < resolutionRate
			w.SLAResolutionMet = &met
		}

		if m.rand.Float64() >= 0.10 {
			sub := subCategories[m.rand.Intn(len(subCategories))]
			w.SubCategory = &sub
		}

		w.SLARespondStatus = dataset.StatusOf(w.SLARespondMet)
		w.SLAResolutionStatus = dataset.StatusOf(w.SLAResolutionMet)

		rows = append(rows, w)
	}

	return rows
}
