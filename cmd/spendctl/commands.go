package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"expensync/internal/alerts"
	"expensync/internal/amqp"
	"expensync/internal/core"

	"golang.org/x/term"
)

type command struct {
	summary   string
	loadsData bool
	run       func(ctx context.Context, a *app, args []string) error
}

var commandOrder = []string{
	"login", "signup", "logout", "whoami", "sync",
	"expenses", "add-expense", "edit-expense", "rm-expense",
	"bills", "add-bill", "pay-bill",
	"prefs", "suggestions", "dashboard", "export", "watch-alerts",
}

var commands = map[string]command{
	"login":        {"sign in with mobile number and password", false, cmdLogin},
	"signup":       {"create an account and sign in", false, cmdSignup},
	"logout":       {"forget the saved session", false, cmdLogout},
	"whoami":       {"show the signed-in user", false, cmdWhoami},
	"sync":         {"load expenses and bills and show counts", true, cmdSync},
	"expenses":     {"list expenses", true, cmdExpenses},
	"add-expense":  {"record an expense", true, cmdAddExpense},
	"edit-expense": {"change fields of an expense", true, cmdEditExpense},
	"rm-expense":   {"delete an expense", true, cmdRemoveExpense},
	"bills":        {"list bills", true, cmdBills},
	"add-bill":     {"record a bill", true, cmdAddBill},
	"pay-bill":     {"mark a bill as paid", true, cmdPayBill},
	"prefs":        {"show or change preferences", true, cmdPrefs},
	"suggestions":  {"show savings suggestions", true, cmdSuggestions},
	"dashboard":    {"summarize spending for a time frame", true, cmdDashboard},
	"export":       {"append expenses to the configured spreadsheet", true, cmdExport},
	"watch-alerts": {"print budget alerts from the broker until interrupted", false, cmdWatchAlerts},
}

func newFlagSet(a *app, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// parseFlags marks bad flags as usage errors; the flag set has already
// printed the problem.
func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "login")
	mobile := fs.String("mobile", "", "mobile number")
	password := fs.String("password", "", "password (prompted when omitted)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *password == "" {
		p, err := readPassword(a.stdin, a.stderr)
		if err != nil {
			return err
		}
		*password = p
	}
	if err := a.store.Login(ctx, core.Credentials{MobileNumber: *mobile, Password: *password}); err != nil {
		return err
	}
	u := a.store.State().User
	fmt.Fprintf(a.stdout, "Signed in as %s (%s)\n", u.DisplayName(), u.ID)
	return nil
}

func cmdSignup(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "signup")
	var p core.Profile
	fs.StringVar(&p.FirstName, "first", "", "first name")
	fs.StringVar(&p.LastName, "last", "", "last name")
	fs.StringVar(&p.Email, "email", "", "email address")
	fs.StringVar(&p.MobileNumber, "mobile", "", "mobile number")
	fs.StringVar(&p.Password, "password", "", "password (prompted when omitted)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if p.Password == "" {
		pw, err := readPassword(a.stdin, a.stderr)
		if err != nil {
			return err
		}
		p.Password = pw
	}
	if err := a.store.Signup(ctx, p); err != nil {
		return err
	}
	u := a.store.State().User
	fmt.Fprintf(a.stdout, "Signed in as %s (%s)\n", u.DisplayName(), u.ID)
	return nil
}

func cmdLogout(_ context.Context, a *app, _ []string) error {
	if err := a.store.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Signed out")
	return nil
}

func cmdWhoami(_ context.Context, a *app, _ []string) error {
	renderUser(a.stdout, a.store.State().User)
	return nil
}

func cmdSync(_ context.Context, a *app, _ []string) error {
	st := a.store.State()
	if st.User.IsAnonymous() {
		fmt.Fprintln(a.stdout, "Not signed in")
		return nil
	}
	fmt.Fprintf(a.stdout, "Loaded %d expenses and %d bills for %s\n", len(st.Expenses), len(st.Bills), st.User.DisplayName())
	return nil
}

func cmdExpenses(_ context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "expenses")
	limit := fs.Int("limit", 0, "show at most this many (0 = all)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	items := a.store.State().Expenses
	if *limit > 0 && len(items) > *limit {
		items = items[:*limit]
	}
	renderExpenses(a.stdout, items)
	return nil
}

func cmdAddExpense(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "add-expense")
	amount := fs.String("amount", "", "amount, e.g. 450.50")
	merchant := fs.String("merchant", "", "merchant")
	category := fs.String("category", "Other", "category")
	currency := fs.String("currency", "", "ISO currency code (default: preference)")
	date := fs.String("date", "", "date or date-time (default: now)")
	notes := fs.String("notes", "", "notes")
	source := fs.String("source", string(core.SourceManual), "SMS, Mail or Manual")
	typ := fs.String("type", string(core.TypePurchase), "transaction type")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	amt, err := core.ParseAmount(*amount)
	if err != nil {
		return fmt.Errorf("amount %q: %w", *amount, err)
	}
	when, err := parseDate(*date)
	if err != nil {
		return err
	}
	if *currency == "" {
		*currency = a.store.State().User.Preferences.Currency
	}

	err = a.store.AddExpense(ctx, core.NewExpense{
		Amount:   amt,
		Currency: strings.ToUpper(*currency),
		Category: *category,
		Merchant: *merchant,
		Date:     when,
		Notes:    *notes,
		Source:   core.Source(*source),
		Type:     core.TransactionType(*typ),
	})
	if err != nil {
		return err
	}
	added := a.store.State().Expenses[0]
	fmt.Fprintf(a.stdout, "Added expense %s\n", added.ID)
	return nil
}

func cmdEditExpense(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "edit-expense")
	id := fs.String("id", "", "expense id")
	amount := fs.String("amount", "", "new amount")
	merchant := fs.String("merchant", "", "new merchant")
	category := fs.String("category", "", "new category")
	currency := fs.String("currency", "", "new currency")
	date := fs.String("date", "", "new date")
	notes := fs.String("notes", "", "new notes")
	source := fs.String("source", "", "new source")
	typ := fs.String("type", "", "new transaction type")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	var patch core.ExpensePatch
	var parseErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "amount":
			amt, err := core.ParseAmount(*amount)
			if err != nil {
				parseErr = fmt.Errorf("amount %q: %w", *amount, err)
				return
			}
			patch.Amount = &amt
		case "merchant":
			patch.Merchant = merchant
		case "category":
			patch.Category = category
		case "currency":
			c := strings.ToUpper(*currency)
			patch.Currency = &c
		case "date":
			ts, err := parseDate(*date)
			if err != nil {
				parseErr = err
				return
			}
			patch.Date = &ts
		case "notes":
			patch.Notes = notes
		case "source":
			s := core.Source(*source)
			patch.Source = &s
		case "type":
			t := core.TransactionType(*typ)
			patch.Type = &t
		}
	})
	if parseErr != nil {
		return parseErr
	}

	if err := a.store.UpdateExpense(ctx, *id, patch); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Updated expense %s\n", *id)
	return nil
}

func cmdRemoveExpense(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "rm-expense")
	id := fs.String("id", "", "expense id")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := a.store.RemoveExpense(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Removed expense %s\n", *id)
	return nil
}

func cmdBills(_ context.Context, a *app, _ []string) error {
	renderBills(a.stdout, a.store.State().Bills)
	return nil
}

func cmdAddBill(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "add-bill")
	title := fs.String("title", "", "bill title")
	amount := fs.String("amount", "", "amount")
	due := fs.String("due", "", "due date")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	amt, err := core.ParseAmount(*amount)
	if err != nil {
		return fmt.Errorf("amount %q: %w", *amount, err)
	}
	if *due == "" {
		return fmt.Errorf("due date: %w", core.ErrMissingDate)
	}
	when, err := parseDate(*due)
	if err != nil {
		return err
	}
	if err := a.store.AddBill(ctx, core.NewBill{Title: *title, Amount: amt, DueDate: when}); err != nil {
		return err
	}
	bills := a.store.State().Bills
	fmt.Fprintf(a.stdout, "Added bill %s\n", bills[len(bills)-1].ID)
	return nil
}

func cmdPayBill(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "pay-bill")
	id := fs.String("id", "", "bill id")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := a.store.MarkBillAsPaid(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Marked bill %s as paid\n", *id)
	return nil
}

func cmdPrefs(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "prefs")
	dark := fs.Bool("dark", false, "dark mode")
	currency := fs.String("currency", "", "display currency")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	var patch core.PreferencesPatch
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dark":
			patch.DarkMode = dark
		case "currency":
			c := strings.ToUpper(*currency)
			patch.Currency = &c
		}
	})

	if patch.DarkMode != nil || patch.Currency != nil {
		// The local change stays even if the remote update fails.
		if err := a.store.UpdateUserPreferences(ctx, patch); err != nil {
			fmt.Fprintf(a.stderr, "Warning: %v\n", err)
		}
	}
	p := a.store.State().User.Preferences
	fmt.Fprintf(a.stdout, "Dark mode: %t\nCurrency: %s\n", p.DarkMode, p.Currency)
	return nil
}

func cmdSuggestions(ctx context.Context, a *app, _ []string) error {
	if err := a.store.FetchSuggestions(ctx); err != nil {
		return err
	}
	renderSuggestions(a.stdout, a.store.State().Suggestions)
	return nil
}

func cmdDashboard(_ context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "dashboard")
	frame := fs.String("frame", string(core.Monthly), "daily, weekly, monthly or yearly")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	tf, err := core.ParseTimeFrame(*frame)
	if err != nil {
		return err
	}
	st := a.store.State()
	renderOverview(a.stdout, a.store.Overview(tf), st.User)
	return nil
}

func cmdExport(ctx context.Context, a *app, _ []string) error {
	items := a.store.State().Expenses
	if len(items) == 0 {
		fmt.Fprintln(a.stdout, "Nothing to export")
		return nil
	}
	ref, err := a.res.Exporter.Export(ctx, items)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Exported %d expenses to %s\n", len(items), ref)
	return nil
}

func cmdWatchAlerts(ctx context.Context, a *app, _ []string) error {
	client, ok := a.res.Publisher.(*amqp.Client)
	if !ok {
		return errors.New("watch-alerts needs a reachable broker (set AMQP_URL)")
	}
	err := client.ConsumeBudgetAlerts(ctx, func(al alerts.Alert) error {
		fmt.Fprintf(a.stdout, "%s  %s over budget: spent %s of %s\n",
			al.Month, al.UserID,
			core.FormatAmount(al.Spent, al.Currency),
			core.FormatAmount(al.Budget, al.Currency))
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func parseDate(s string) (core.Timestamp, error) {
	if strings.TrimSpace(s) == "" {
		return core.NewTimestamp(time.Now()), nil
	}
	ts, err := core.ParseTimestamp(s)
	if err != nil {
		return core.Timestamp{}, err
	}
	return ts, nil
}

// readPassword prompts without echo on a terminal and otherwise reads one line.
func readPassword(stdin io.Reader, stderr io.Writer) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(stderr, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
