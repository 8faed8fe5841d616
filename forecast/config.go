package forecast

import "time"

// BoostParams are the gradient boosting hyperparameters. They are fixed
// constants for every rice type, not tuned per product.
type BoostParams struct {
	Rounds              int
	MaxDepth            int
	LearningRate        float64
	Subsample           float64
	EarlyStoppingRounds int
	Seed                int64
}

// Config carries everything the pipeline needs that used to live as
// scattered literals: holiday calendar, lag offsets, row gates, horizon and
// model hyperparameters. Passing it in explicitly keeps test runs
// deterministic and lets environments override the defaults.
type Config struct {
	HorizonDays     int
	Lags            []int
	MinRawRows      int
	MinFeatureRows  int
	OutlierQuantile float64
	TestFraction    float64
	Boost           BoostParams
	Holidays        []time.Time

	holidaySet map[string]bool
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		HorizonDays:     90,
		Lags:            []int{1, 2, 3, 7, 14, 21, 30},
		MinRawRows:      100,
		MinFeatureRows:  50,
		OutlierQuantile: 0.995,
		TestFraction:    0.2,
		Boost: BoostParams{
			Rounds:              200,
			MaxDepth:            8,
			LearningRate:        0.05,
			Subsample:           0.8,
			EarlyStoppingRounds: 10,
			Seed:                42,
		},
		Holidays: holidayCalendar2024(),
	}
}

func holidayCalendar2024() []time.Time {
	dates := []string{
		"2024-01-15", "2024-01-25", "2024-02-04", "2024-02-23", "2024-03-08", "2024-03-24",
		"2024-03-29", "2024-04-11", "2024-04-12", "2024-04-13", "2024-04-23", "2024-05-01",
		"2024-05-23", "2024-05-24", "2024-06-17", "2024-06-21", "2024-07-20", "2024-08-19",
		"2024-09-16", "2024-09-17", "2024-10-17", "2024-10-31", "2024-11-15", "2024-12-14",
		"2024-12-25",
	}
	out := make([]time.Time, 0, len(dates))
	for _, s := range dates {
		d, _ := time.Parse("2006-01-02", s)
		out = append(out, d)
	}
	return out
}

// MaxLag returns the largest configured lag offset. Rows earlier than this
// in a product's series cannot have a complete feature set.
func (c Config) MaxLag() int {
	max := 0
	for _, l := range c.Lags {
		if l > max {
			max = l
		}
	}
	return max
}

// IsHoliday reports whether d falls on a configured holiday.
func (c *Config) IsHoliday(d time.Time) bool {
	if c.holidaySet == nil {
		c.holidaySet = make(map[string]bool, len(c.Holidays))
		for _, h := range c.Holidays {
			c.holidaySet[h.Format("2006-01-02")] = true
		}
	}
	return c.holidaySet[d.Format("2006-01-02")]
}
