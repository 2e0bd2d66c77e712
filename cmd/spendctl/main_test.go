package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"expensync/internal/devserver"
	"expensync/internal/gateway/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupEnv(t *testing.T) {
	t.Helper()
	srv := httptest.NewServer(devserver.NewRouter(memory.New(bcrypt.MinCost), devserver.Options{}))
	t.Cleanup(srv.Close)

	t.Setenv("API_BASE_URL", srv.URL+"/api")
	t.Setenv("GATEWAY_BACKEND", "rest")
	t.Setenv("SESSION_BACKEND", "file")
	t.Setenv("SESSION_FILE", filepath.Join(t.TempDir(), "session.json"))
	t.Setenv("SUGGESTIONS_DELAY", "0s")
	t.Setenv("AMQP_URL", "")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	t.Setenv("LOG_LEVEL", "error")
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// lastField returns the last whitespace-separated token of out, the id printed
// by add commands.
func lastField(out string) string {
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

func TestUsage(t *testing.T) {
	code, _, stderr := runCLI(t, "")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "Usage: spendctl")
	assert.Contains(t, stderr, "add-expense")

	code, _, _ = runCLI(t, "", "help")
	assert.Equal(t, exitOK, code)
}

func TestUnknownCommand(t *testing.T) {
	code, _, stderr := runCLI(t, "", "frobnicate")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, `unknown command "frobnicate"`)
}

func TestBadFlag(t *testing.T) {
	setupEnv(t)
	code, _, _ := runCLI(t, "", "dashboard", "-nope")
	assert.Equal(t, exitUsage, code)
}

func TestSignedOutCommands(t *testing.T) {
	setupEnv(t)

	code, stdout, _ := runCLI(t, "", "whoami")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Not signed in")

	code, stdout, _ = runCLI(t, "", "expenses")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "No expenses")
}

func TestLoginWithWrongPassword(t *testing.T) {
	setupEnv(t)

	code, _, _ := runCLI(t, "secret\n", "signup",
		"-first", "Asha", "-last", "Rao", "-email", "asha@example.com", "-mobile", "8940225321")
	require.Equal(t, exitOK, code)
	code, _, _ = runCLI(t, "", "logout")
	require.Equal(t, exitOK, code)

	code, _, stderr := runCLI(t, "wrong\n", "login", "-mobile", "8940225321")
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "Invalid credentials")
}

func TestFullSession(t *testing.T) {
	setupEnv(t)

	code, stdout, stderr := runCLI(t, "secret\n", "signup",
		"-first", "Asha", "-last", "Rao", "-email", "asha@example.com", "-mobile", "8940225321")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "Signed in as Asha Rao")

	code, stdout, _ = runCLI(t, "", "whoami")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Asha Rao")

	code, stdout, stderr = runCLI(t, "", "add-expense", "-amount", "450.50", "-merchant", "Swiggy", "-category", "Food")
	require.Equal(t, exitOK, code, stderr)
	expenseID := lastField(stdout)
	require.NotEmpty(t, expenseID)

	code, stdout, _ = runCLI(t, "", "expenses")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Swiggy")
	assert.Contains(t, stdout, "450.50 INR")

	code, _, stderr = runCLI(t, "", "edit-expense", "-id", expenseID, "-merchant", "Zomato")
	require.Equal(t, exitOK, code, stderr)
	code, stdout, _ = runCLI(t, "", "expenses")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Zomato")
	assert.NotContains(t, stdout, "Swiggy")

	code, stdout, stderr = runCLI(t, "", "add-bill", "-title", "Electricity", "-amount", "1200", "-due", "2030-01-05")
	require.Equal(t, exitOK, code, stderr)
	billID := lastField(stdout)
	require.NotEmpty(t, billID)

	code, _, stderr = runCLI(t, "", "pay-bill", "-id", billID)
	require.Equal(t, exitOK, code, stderr)
	code, stdout, _ = runCLI(t, "", "bills")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Electricity")
	assert.Contains(t, stdout, "paid")

	code, stdout, _ = runCLI(t, "", "prefs", "-dark=false", "-currency", "usd")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Dark mode: false")
	assert.Contains(t, stdout, "Currency: USD")

	// Preferences survive into the next invocation.
	code, stdout, _ = runCLI(t, "", "prefs")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Currency: USD")

	code, stdout, _ = runCLI(t, "", "dashboard", "-frame", "monthly")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "monthly overview")
	assert.Contains(t, stdout, "Food")

	code, stdout, _ = runCLI(t, "", "suggestions")
	require.Equal(t, exitOK, code)
	assert.NotEmpty(t, stdout)

	code, stdout, stderr = runCLI(t, "", "export")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "Exported 1 expenses to memory!A2:H2")

	code, _, stderr = runCLI(t, "", "rm-expense", "-id", expenseID)
	require.Equal(t, exitOK, code, stderr)
	code, stdout, _ = runCLI(t, "", "expenses")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "No expenses")

	code, stdout, _ = runCLI(t, "", "logout")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Signed out")

	code, stdout, _ = runCLI(t, "", "whoami")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Not signed in")
}

func TestAddExpenseRejectsBadAmount(t *testing.T) {
	setupEnv(t)
	code, _, _ := runCLI(t, "secret\n", "signup",
		"-first", "Asha", "-last", "Rao", "-email", "asha@example.com", "-mobile", "8940225321")
	require.Equal(t, exitOK, code)

	code, _, stderr := runCLI(t, "", "add-expense", "-amount", "-5", "-merchant", "Swiggy")
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "invalid amount")
}

func TestWatchAlertsNeedsBroker(t *testing.T) {
	setupEnv(t)
	code, _, stderr := runCLI(t, "", "watch-alerts")
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "AMQP_URL")
}
