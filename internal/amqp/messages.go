package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"expensync/internal/alerts"

	"github.com/shopspring/decimal"
)

// BudgetAlertMessage is the wire form of alerts.Alert.
type BudgetAlertMessage struct {
	UserID    string          `json:"userId"`
	Month     string          `json:"month"`
	Spent     decimal.Decimal `json:"spent"`
	Budget    decimal.Decimal `json:"budget"`
	Threshold decimal.Decimal `json:"threshold"`
	Currency  string          `json:"currency,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewBudgetAlertMessage(a alerts.Alert) *BudgetAlertMessage {
	ts := a.At
	if ts.IsZero() {
		ts = time.Now()
	}
	return &BudgetAlertMessage{
		UserID:    a.UserID,
		Month:     a.Month,
		Spent:     a.Spent,
		Budget:    a.Budget,
		Threshold: a.Threshold,
		Currency:  a.Currency,
		Timestamp: ts.UTC(),
	}
}

func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Alert converts the message back to the domain alert.
func (m *BudgetAlertMessage) Alert() alerts.Alert {
	return alerts.Alert{
		UserID:    m.UserID,
		Month:     m.Month,
		Spent:     m.Spent,
		Budget:    m.Budget,
		Threshold: m.Threshold,
		Currency:  m.Currency,
		At:        m.Timestamp,
	}
}

func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode budget alert: %w", err)
	}
	if msg.UserID == "" || msg.Month == "" {
		return nil, fmt.Errorf("decode budget alert: missing user or month")
	}
	return &msg, nil
}
