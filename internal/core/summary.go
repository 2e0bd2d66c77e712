package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Daily   TimeFrame = "daily"
	Weekly  TimeFrame = "weekly"
	Monthly TimeFrame = "monthly"
	Yearly  TimeFrame = "yearly"
)

// TimeFrame selects the window the overview aggregates over.
type TimeFrame string

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// Overview is the dashboard summary for one time frame.
type Overview struct {
	Frame           TimeFrame
	Start, End      time.Time
	Expenses        []Expense
	TotalSpent      decimal.Decimal
	RemainingBudget decimal.Decimal
	ByCategory      []CategoryAmount
	PendingBills    []Bill
}

func ParseTimeFrame(s string) (TimeFrame, error) {
	switch tf := TimeFrame(s); tf {
	case Daily, Weekly, Monthly, Yearly:
		return tf, nil
	}
	return "", fmt.Errorf("invalid time frame %q", s)
}

// Bounds returns the inclusive window of tf around now, in now's location.
// Weeks start on Sunday.
func (tf TimeFrame) Bounds(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	loc := now.Location()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)
	var start, next time.Time
	switch tf {
	case Daily:
		start, next = day, day.AddDate(0, 0, 1)
	case Weekly:
		start = day.AddDate(0, 0, -int(day.Weekday()))
		next = start.AddDate(0, 0, 7)
	case Yearly:
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		next = start.AddDate(1, 0, 0)
	default:
		start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
		next = start.AddDate(0, 1, 0)
	}
	return start, next.Add(-time.Nanosecond)
}

// Summarize computes the overview the dashboard shows: spending inside the
// frame, the remaining monthly budget, a per-category breakdown (largest first)
// and unpaid bills ordered by due date.
func Summarize(expenses []Expense, bills []Bill, user User, tf TimeFrame, now time.Time) Overview {
	start, end := tf.Bounds(now)
	ov := Overview{Frame: tf, Start: start, End: end, TotalSpent: decimal.Zero}

	byCat := map[string]decimal.Decimal{}
	var order []string
	for _, e := range expenses {
		if e.Date.Before(start) || e.Date.After(end) {
			continue
		}
		ov.Expenses = append(ov.Expenses, e)
		ov.TotalSpent = ov.TotalSpent.Add(e.Amount)
		if _, ok := byCat[e.Category]; !ok {
			order = append(order, e.Category)
		}
		byCat[e.Category] = byCat[e.Category].Add(e.Amount)
	}
	for _, name := range order {
		ov.ByCategory = append(ov.ByCategory, CategoryAmount{Name: name, Amount: byCat[name]})
	}
	sort.SliceStable(ov.ByCategory, func(i, j int) bool {
		return ov.ByCategory[i].Amount.GreaterThan(ov.ByCategory[j].Amount)
	})

	ov.RemainingBudget = user.MonthlyBudget.Sub(ov.TotalSpent)

	for _, b := range bills {
		if !b.IsPaid {
			ov.PendingBills = append(ov.PendingBills, b)
		}
	}
	sort.SliceStable(ov.PendingBills, func(i, j int) bool {
		return ov.PendingBills[i].DueDate.Before(ov.PendingBills[j].DueDate.Time)
	})
	return ov
}
