// Package alerts lists pending cheques and supplier payments falling due
// today or tomorrow.
package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amsilks/amsilks-erp/internal/documents"
	"github.com/amsilks/amsilks-erp/internal/ledger"
)

// Kind distinguishes incoming cheques from outgoing supplier payments.
type Kind string

const (
	KindCheque          Kind = "cheque"
	KindSupplierPayment Kind = "supplier_payment"
)

// Alert is one entry needing attention.
type Alert struct {
	Kind         Kind      `json:"kind"`
	EntryID      int64     `json:"entry_id"`
	Counterparty string    `json:"counterparty"`
	Phone        string    `json:"phone,omitempty"`
	Amount       string    `json:"amount"`
	DueDate      time.Time `json:"due_date"`
	Message      string    `json:"message"`
	// Issue is set when the stored amount cannot be read.
	Issue string `json:"issue,omitempty"`
}

// Digest groups alerts by day.
type Digest struct {
	Date     time.Time `json:"date"`
	Today    []Alert   `json:"today"`
	Tomorrow []Alert   `json:"tomorrow"`
}

// Count returns the number of alerts in the digest.
func (d Digest) Count() int { return len(d.Today) + len(d.Tomorrow) }

// DueSource lists ledger entries falling due in a date range.
type DueSource interface {
	Due(ctx context.Context, from, to time.Time) ([]ledger.Entry, error)
}

// Service builds alert digests.
type Service struct {
	source DueSource
	money  documents.Money
	logger *slog.Logger
	clock  func() time.Time
}

// NewService constructs a Service. Amounts in messages are formatted with
// money.
func NewService(source DueSource, money documents.Money, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, money: money, logger: logger, clock: func() time.Time { return time.Now().UTC() }}
}

// Scan returns the alerts for today and tomorrow.
func (s *Service) Scan(ctx context.Context) (Digest, error) {
	now := s.clock()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	tomorrow := today.AddDate(0, 0, 1)

	entries, err := s.source.Due(ctx, today, tomorrow)
	if err != nil {
		return Digest{}, fmt.Errorf("alerts: load due entries: %w", err)
	}

	digest := Digest{Date: today, Today: []Alert{}, Tomorrow: []Alert{}}
	for _, e := range entries {
		alert, ok := s.alertFor(e, today, tomorrow)
		if !ok {
			continue
		}
		if alert.DueDate.Equal(today) {
			digest.Today = append(digest.Today, alert)
		} else {
			digest.Tomorrow = append(digest.Tomorrow, alert)
		}
	}
	return digest, nil
}

func (s *Service) alertFor(e ledger.Entry, today, tomorrow time.Time) (Alert, bool) {
	inWindow := func(t time.Time) bool {
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return d.Equal(today) || d.Equal(tomorrow)
	}

	var (
		kind Kind
		due  time.Time
	)
	switch {
	case e.Mode == ledger.ModeCheque && e.Status == ledger.StatusPending && e.ChequeDate != nil && inWindow(*e.ChequeDate):
		kind, due = KindCheque, *e.ChequeDate
		if e.Account == ledger.AccountSupplier {
			kind = KindSupplierPayment
		}
	case e.Account == ledger.AccountSupplier && e.Type == ledger.EntryPayment && inWindow(e.Date):
		kind, due = KindSupplierPayment, e.Date
	default:
		return Alert{}, false
	}
	due = time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)

	alert := Alert{
		Kind:         kind,
		EntryID:      e.ID,
		Counterparty: e.Counterparty,
		Phone:        e.Phone,
		Amount:       e.Amount,
		DueDate:      due,
	}
	shown := e.Amount
	if amount, err := ledger.ParseAmount(e.Amount); err != nil {
		alert.Issue = err.Error()
		s.logger.Warn("alert amount unreadable", slog.Int64("entry_id", e.ID), slog.String("amount", e.Amount))
	} else {
		shown = s.money.Format(amount)
	}
	if kind == KindCheque {
		alert.Message = fmt.Sprintf("Cheque due: %s (%s) on %s", e.Counterparty, shown, due.Format("2006-01-02"))
	} else {
		alert.Message = fmt.Sprintf("Payment due: to %s (%s) on %s", e.Counterparty, shown, due.Format("2006-01-02"))
	}
	return alert, true
}
