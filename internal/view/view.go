// Package view derives presentation slices from a weather snapshot: the
// remainder of today's hourly entries and stable pagination over the daily
// horizon. Projections never mutate snapshot data.
package view

import (
	"time"

	"github.com/nuvolino/weather-service/internal/models"
)

// TodayHourly returns the hourly points sharing now's calendar date,
// evaluated in each point's own zone. Order is preserved; late in the day
// the result naturally shrinks and may be empty.
func TodayHourly(points []models.HourlyPoint, now time.Time) []models.HourlyPoint {
	var today []models.HourlyPoint
	for _, p := range points {
		if sameDate(p.Timestamp, now.In(p.Timestamp.Location())) {
			today = append(today, p)
		}
	}
	return today
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Page is one pagination window over a projected sequence.
type Page[T any] struct {
	Items      []T `json:"items"`
	Index      int `json:"index"`
	TotalPages int `json:"totalPages"`
}

// Paginate slices items into fixed-size pages. TotalPages is at least 1 even
// for an empty input; an out-of-range index clamps to the nearest valid page.
// The returned slice aliases items.
func Paginate[T any](items []T, pageSize, pageIndex int) Page[T] {
	if pageSize <= 0 {
		pageSize = 1
	}

	totalPages := (len(items) + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	if pageIndex < 0 {
		pageIndex = 0
	}
	if pageIndex > totalPages-1 {
		pageIndex = totalPages - 1
	}

	start := pageIndex * pageSize
	if start > len(items) {
		start = len(items)
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}

	return Page[T]{
		Items:      items[start:end],
		Index:      pageIndex,
		TotalPages: totalPages,
	}
}
