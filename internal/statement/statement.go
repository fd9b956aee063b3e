// Package statement holds the client-side aggregation over the transaction
// feed: period filtering, day-bucketed sections and the category visual map.
package statement

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fizpay/internal/models"
)

// PeriodKey selects the statement time window.
type PeriodKey string

const (
	PeriodToday PeriodKey = "today"
	PeriodWeek  PeriodKey = "week"
	PeriodMonth PeriodKey = "month"
	PeriodLast3 PeriodKey = "last3"
	PeriodYear  PeriodKey = "year"
)

// Valid reports whether k is a known period.
func (k PeriodKey) Valid() bool {
	switch k {
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodLast3, PeriodYear:
		return true
	}
	return false
}

// periodStart computes the inclusive lower bound of a period relative to now,
// in local time.
func periodStart(key PeriodKey, now time.Time) time.Time {
	y, m, d := now.Date()
	loc := now.Location()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)

	switch key {
	case PeriodToday:
		return midnight
	case PeriodWeek:
		// Week starts Monday; Sunday counts as six days in.
		back := (int(now.Weekday()) + 6) % 7
		return midnight.AddDate(0, 0, -back)
	case PeriodMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case PeriodLast3:
		// Rolling three-month window including the current month.
		return time.Date(y, m, 1, 0, 0, 0, 0, loc).AddDate(0, -2, 0)
	case PeriodYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	}
	return time.Time{}
}

// FilterByPeriod keeps the transactions dated at or after the start of the
// selected period. An unknown key keeps everything.
func FilterByPeriod(list []models.Transaction, key PeriodKey) []models.Transaction {
	return filterByPeriodAt(list, key, time.Now())
}

func filterByPeriodAt(list []models.Transaction, key PeriodKey, now time.Time) []models.Transaction {
	start := periodStart(key, now).UnixMilli()
	out := make([]models.Transaction, 0, len(list))
	for _, tx := range list {
		if tx.Date >= start {
			out = append(out, tx)
		}
	}
	return out
}

// Section is a day bucket of the statement view.
type Section struct {
	Title string               `json:"title"`
	Date  int64                `json:"date"` // midnight of the bucket, epoch ms
	Count int                  `json:"count"`
	Total decimal.Decimal      `json:"total"`
	Items []models.Transaction `json:"items"`
}

// ToSections groups transactions by local calendar day. Sections come back
// newest-day-first, items inside each section newest-first. Today's and
// yesterday's buckets get relative titles; older days a formatted date.
func ToSections(list []models.Transaction) []Section {
	return toSectionsAt(list, time.Now())
}

func toSectionsAt(list []models.Transaction, now time.Time) []Section {
	loc := now.Location()
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)
	yesterday := today.AddDate(0, 0, -1)

	buckets := make(map[int64]*Section)
	for _, tx := range list {
		txDay := time.UnixMilli(tx.Date).In(loc)
		dy, dm, dd := txDay.Date()
		day := time.Date(dy, dm, dd, 0, 0, 0, 0, loc)
		key := day.UnixMilli()

		s, ok := buckets[key]
		if !ok {
			title := day.Format("02 Jan 2006")
			if day.Equal(today) {
				title = "Today"
			} else if day.Equal(yesterday) {
				title = "Yesterday"
			}
			s = &Section{Title: title, Date: key, Total: decimal.Zero}
			buckets[key] = s
		}
		s.Items = append(s.Items, tx)
		s.Total = s.Total.Add(decimal.NewFromFloat(tx.Amount))
	}

	sections := make([]Section, 0, len(buckets))
	for _, s := range buckets {
		sort.SliceStable(s.Items, func(i, j int) bool { return s.Items[i].Date > s.Items[j].Date })
		s.Count = len(s.Items)
		sections = append(sections, *s)
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i].Date > sections[j].Date })

	return sections
}

// CashbackSummary totals the cashback credits of a transaction list.
type CashbackSummary struct {
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// SummarizeCashback sums category=cashback entries with decimal arithmetic so
// the displayed total carries no float drift.
func SummarizeCashback(list []models.Transaction) CashbackSummary {
	sum := CashbackSummary{Total: decimal.Zero}
	for _, tx := range list {
		if tx.Category == models.CategoryCashback {
			sum.Total = sum.Total.Add(decimal.NewFromFloat(tx.Amount))
			sum.Count++
		}
	}
	return sum
}
