// Package forecast projects next week's spending per category.
//
// The projection is a descriptive band of one population standard deviation
// around the mean of the closed weeks. It is not a fitted model and makes no
// claim about trend or seasonality.
package forecast

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"max.ks1230/expense-tracker/internal/entity/category"
	"max.ks1230/expense-tracker/internal/model/history"
)

var ErrNoHistory = errors.New("no recorded weeks")

type Prediction struct {
	Category category.Name `json:"category"`
	Mean     float64       `json:"mean"`
	Median   float64       `json:"median"`
	StdDev   float64       `json:"std_dev"`
	Low      float64       `json:"low"`
	High     float64       `json:"high"`
	// Weeks is the number of values the statistics were computed from,
	// Skipped the number of unparseable cells left out.
	Weeks   int `json:"weeks"`
	Skipped int `json:"skipped"`
}

// Predict computes the band for one series. Unparseable cells are excluded,
// zero weeks are not.
func Predict(series []float64) (Prediction, error) {
	values := make([]float64, 0, len(series))
	for _, v := range series {
		if !history.IsUnparseable(v) {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return Prediction{}, ErrNoHistory
	}

	mean := mean(values)
	sd := stdDev(values, mean)
	return Prediction{
		Mean:    mean,
		Median:  median(values),
		StdDev:  sd,
		Low:     math.Max(0, mean-sd),
		High:    mean + sd,
		Weeks:   len(values),
		Skipped: len(series) - len(values),
	}, nil
}

// PredictAll predicts every category of the history that has usable data.
// It fails with ErrNoHistory only when no category has any.
func PredictAll(h *history.History) ([]Prediction, error) {
	res := make([]Prediction, 0)
	for _, name := range h.Categories() {
		p, err := Predict(h.Series(name))
		if errors.Is(err, ErrNoHistory) {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "predict "+name.String())
		}
		p.Category = name
		res = append(res, p)
	}
	if len(res) == 0 {
		return nil, ErrNoHistory
	}
	return res, nil
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// stdDev is the population standard deviation.
func stdDev(values []float64, mean float64) float64 {
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// Batch is a set of predictions computed from the history as it stood at Week.
type Batch struct {
	Week        int          `json:"week"`
	Predictions []Prediction `json:"predictions"`
}
