package repository

import (
	"sort"

	"StockX/internal/domain/models"
)

// mergeObservation returns series with obs inserted at its date, replacing any
// row for the same day. series must already be in ascending date order.
func mergeObservation(series models.TimeSeries, obs models.Observation) models.TimeSeries {
	obs.Date = models.DayKey(obs.Date)
	i := sort.Search(len(series), func(i int) bool { return !series[i].Date.Before(obs.Date) })
	if i < len(series) && series[i].Date.Equal(obs.Date) {
		out := append(models.TimeSeries(nil), series...)
		out[i] = obs
		return out
	}
	out := make(models.TimeSeries, 0, len(series)+1)
	out = append(out, series[:i]...)
	out = append(out, obs)
	return append(out, series[i:]...)
}

// normalize sorts rows by date and keeps the last row seen for each day.
func normalize(rows models.TimeSeries) models.TimeSeries {
	for i := range rows {
		rows[i].Date = models.DayKey(rows[i].Date)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	out := rows[:0]
	for _, r := range rows {
		if n := len(out); n > 0 && out[n-1].Date.Equal(r.Date) {
			out[n-1] = r
			continue
		}
		out = append(out, r)
	}
	return out
}
