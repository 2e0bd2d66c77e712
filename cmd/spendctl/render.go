package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"expensync/internal/core"
)

const dateLayout = "2006-01-02"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func renderUser(w io.Writer, u core.User) {
	if u.IsAnonymous() {
		fmt.Fprintln(w, "Not signed in (Guest User)")
		return
	}
	tw := newTable(w)
	fmt.Fprintf(tw, "Name\t%s\n", u.DisplayName())
	fmt.Fprintf(tw, "ID\t%s\n", u.ID)
	fmt.Fprintf(tw, "Mobile\t%s\n", u.MobileNumber)
	fmt.Fprintf(tw, "Email\t%s\n", u.Email)
	fmt.Fprintf(tw, "Monthly budget\t%s\n", core.FormatAmount(u.MonthlyBudget, u.Preferences.Currency))
	tw.Flush()
}

func renderExpenses(w io.Writer, items []core.Expense) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No expenses")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tDATE\tMERCHANT\tCATEGORY\tAMOUNT\tTYPE\tSOURCE")
	for _, e := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Date.Local().Format(dateLayout), e.Merchant, e.Category,
			core.FormatAmount(e.Amount, e.Currency), e.Type, e.Source)
	}
	tw.Flush()
}

func renderBills(w io.Writer, items []core.Bill) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No bills")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tDUE\tAMOUNT\tSTATUS")
	for _, b := range items {
		status := "pending"
		if b.IsPaid {
			status = "paid"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			b.ID, b.Title, b.DueDate.Local().Format(dateLayout), b.Amount.StringFixed(2), status)
	}
	tw.Flush()
}

func renderSuggestions(w io.Writer, items []core.Suggestion) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No suggestions")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "TITLE\tCATEGORY\tSAVINGS\tDETAILS")
	for _, s := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Title, s.Category, s.PotentialSavings.StringFixed(2), s.Description)
	}
	tw.Flush()
}

func renderOverview(w io.Writer, ov core.Overview, u core.User) {
	cur := u.Preferences.Currency
	fmt.Fprintf(w, "%s overview (%s to %s)\n", ov.Frame, ov.Start.Format(dateLayout), ov.End.Format(dateLayout))

	tw := newTable(w)
	fmt.Fprintf(tw, "Total spent\t%s\n", core.FormatAmount(ov.TotalSpent, cur))
	fmt.Fprintf(tw, "Remaining budget\t%s\n", core.FormatAmount(ov.RemainingBudget, cur))
	fmt.Fprintf(tw, "Transactions\t%d\n", len(ov.Expenses))
	tw.Flush()

	if len(ov.ByCategory) > 0 {
		fmt.Fprintln(w)
		tw = newTable(w)
		fmt.Fprintln(tw, "CATEGORY\tAMOUNT")
		for _, c := range ov.ByCategory {
			fmt.Fprintf(tw, "%s\t%s\n", c.Name, c.Amount.StringFixed(2))
		}
		tw.Flush()
	}

	if len(ov.PendingBills) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Upcoming bills:")
		renderBills(w, ov.PendingBills)
	}
}
