package simulation

import (
	"math/rand"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/FOLIOGEN/foliogen/internal/models"
)

// Series names shown in the chart legend. The benchmark keeps its ticker on
// the wire; the page displays it as "S&P 500".
const (
	SeriesPortfolio = "Portfolio"
	SeriesBenchmark = "SPY"
)

const (
	baseValue     = 10000.0
	portfolioStep = 10.0
	benchmarkStep = 8.0
)

// Point is one daily sample of a simulated series.
type Point struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Summary describes a series through its endpoints and the distribution of
// its daily changes.
type Summary struct {
	FinalValue        float64 `json:"final_value"`
	ChangePercent     float64 `json:"change_percent"`
	High              float64 `json:"high"`
	Low               float64 `json:"low"`
	MeanDailyChange   float64 `json:"mean_daily_change"`
	StdDevDailyChange float64 `json:"stddev_daily_change"`
}

// Series is one simulated line of the performance chart.
type Series struct {
	Name    string  `json:"name"`
	Points  []Point `json:"points"`
	Summary Summary `json:"summary"`
}

// Performance bundles the simulated chart data for one generation. Simulated
// is always true on the wire so no client mistakes this for market data.
type Performance struct {
	Timeframe string   `json:"timeframe"`
	Days      int      `json:"days"`
	Series    []Series `json:"series"`
	Simulated bool     `json:"simulated"`
}

// Generator produces decorative random-walk performance series. The walk is
// anchored at 10,000 and has nothing to do with portfolio contents.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Generator seeded from the current time.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a Generator with a fixed seed for reproducible output.
func NewWithSeed(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Simulate builds the portfolio and benchmark series for a timeframe of the
// given day count, with daily points ending at now. A day count of zero
// yields empty series.
func (g *Generator) Simulate(timeframe models.Timeframe, days int, now time.Time) Performance {
	if days < 0 {
		days = 0
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	return Performance{
		Timeframe: string(timeframe),
		Days:      days,
		Series: []Series{
			g.walk(SeriesPortfolio, days, now, portfolioStep),
			g.walk(SeriesBenchmark, days, now, benchmarkStep),
		},
		Simulated: true,
	}
}

// walk accumulates N(0,1)*step increments on top of the base value, one per
// day, dating points consecutively so the last lands on now.
func (g *Generator) walk(name string, days int, now time.Time, step float64) Series {
	points := make([]Point, days)
	start := now.AddDate(0, 0, -(days - 1))
	value := baseValue
	for i := 0; i < days; i++ {
		value += g.rng.NormFloat64() * step
		points[i] = Point{
			Date:  start.AddDate(0, 0, i).Format("2006-01-02"),
			Value: value,
		}
	}
	return Series{Name: name, Points: points, Summary: summarize(points)}
}

func summarize(points []Point) Summary {
	if len(points) == 0 {
		return Summary{}
	}

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	changes := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		changes = append(changes, values[i]-values[i-1])
	}

	s := Summary{
		FinalValue: values[len(values)-1],
		High:       floats.Max(values),
		Low:        floats.Min(values),
	}
	s.ChangePercent = (s.FinalValue - values[0]) / values[0] * 100
	if len(changes) > 0 {
		s.MeanDailyChange = stat.Mean(changes, nil)
	}
	if len(changes) > 1 {
		s.StdDevDailyChange = stat.StdDev(changes, nil)
	}
	return s
}
