package dashboard

import (
	"fmt"
	"math"

	"github.com/guttosm/stockdash/internal/domain/dto"
)

// Gauge is the fear and greed reading derived from recent news sentiment.
type Gauge struct {
	Label   string  // "Fear", "Neutral", "Greed" or "No Data"
	Percent float64 // 0..100
	Scored  int     // news items with a usable score
}

func (g Gauge) String() string {
	switch {
	case g.Label == "No Data":
		return g.Label
	case g.Scored == 0:
		return g.Label + " (No Data)"
	default:
		return fmt.Sprintf("%s (%.0f)", g.Label, g.Percent)
	}
}

// SentimentGauge averages the scores in [-1, 1] of news and maps the mean to 0..100.
// Below 30 is Fear, below 70 Neutral, otherwise Greed. No news reads "No Data";
// news without any usable score falls back to Neutral 50.
func SentimentGauge(news []dto.NewsItem) Gauge {
	if len(news) == 0 {
		return Gauge{Label: "No Data"}
	}

	var (
		sum float64
		n   int
	)
	for _, item := range news {
		if item.SentimentScore == nil || math.IsNaN(*item.SentimentScore) || math.IsInf(*item.SentimentScore, 0) {
			continue
		}
		sum += *item.SentimentScore
		n++
	}
	if n == 0 {
		return Gauge{Label: "Neutral", Percent: 50}
	}

	pct := math.Max(0, math.Min(100, (sum/float64(n)+1)/2*100))
	g := Gauge{Percent: pct, Scored: n}
	switch {
	case pct < 30:
		g.Label = "Fear"
	case pct < 70:
		g.Label = "Neutral"
	default:
		g.Label = "Greed"
	}
	return g
}

// NewsTone classifies a single score the way the news list colours it.
func NewsTone(score *float64) string {
	switch {
	case score == nil || math.IsNaN(*score):
		return "neutral"
	case *score > 0.1:
		return "positive"
	case *score < -0.1:
		return "negative"
	default:
		return "neutral"
	}
}
