// Package eventwindow measures how a stock moved around each news event:
// the close before the window against the close after it.
package eventwindow

import (
	"math"
	"time"

	"github.com/seenimoa/newsimpact/pkg/models"
	"github.com/seenimoa/newsimpact/pkg/utils"
)

// maxProbeDays is how many calendar days (offsets 0..6) are searched for a
// trading day, which covers weekends and holidays.
const maxProbeDays = 7

// ParseEventDate parses an article timestamp to its calendar day.
func ParseEventDate(s string) (time.Time, bool) {
	t, err := utils.ParseDay(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ComputeEventReturns returns one EventReturn per article with a parseable
// date, in input order. The pre-close is the first close found searching
// backward from eventDate-windowDays; the post-close is the first found
// searching forward from eventDate+windowDays. ReturnPct is
// (post/pre - 1) * 100 rounded to 3 decimals, nil unless both closes exist.
// Articles with unparseable dates are skipped.
func ComputeEventReturns(series *models.PriceSeries, articles []models.Article, windowDays int) []models.EventReturn {
	closes := series.Closes()
	out := make([]models.EventReturn, 0, len(articles))

	for _, a := range articles {
		event, ok := ParseEventDate(a.PublishedAt)
		if !ok {
			continue
		}

		pre := probe(closes, utils.AddDays(event, -windowDays), -1)
		post := probe(closes, utils.AddDays(event, windowDays), 1)

		er := models.EventReturn{
			URL:       a.URL,
			Title:     a.Title,
			EventDate: utils.FormatDay(event),
			PreClose:  pre,
			PostClose: post,
		}
		if pre != nil && post != nil && *pre != 0 {
			r := round3((*post / *pre - 1) * 100)
			er.ReturnPct = &r
		}
		out = append(out, er)
	}
	return out
}

// probe looks up from, from+dir, ... for maxProbeDays days.
func probe(closes map[string]float64, from time.Time, dir int) *float64 {
	for k := 0; k < maxProbeDays; k++ {
		if c, ok := closes[utils.FormatDay(utils.AddDays(from, dir*k))]; ok {
			return &c
		}
	}
	return nil
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
