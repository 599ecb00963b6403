package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/BruksfildServices01/counsel-console/internal/models"
)

// ObjectStore keeps exported files.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
}

// SignalSource lists a day's settlement signals.
type SignalSource interface {
	ListForDay(ctx context.Context, from time.Time) ([]models.SettlementSignal, error)
}

var header = []string{
	"signal_id", "booking_id", "kind", "amount", "currency",
	"recipient_id", "status", "external_ref", "attempts", "created_at",
}

// WriteCSV renders signals as the settlement sheet finance imports.
func WriteCSV(signals []models.SettlementSignal) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, s := range signals {
		if err := w.Write([]string{
			strconv.FormatUint(uint64(s.ID), 10),
			strconv.FormatUint(uint64(s.BookingID), 10),
			s.Kind,
			s.Amount.StringFixed(2),
			s.Currency,
			strconv.FormatUint(uint64(s.RecipientID), 10),
			s.Status,
			s.ExternalRef,
			strconv.Itoa(s.Attempts),
			s.CreatedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

type SettlementExporter struct {
	source SignalSource
	store  ObjectStore
}

func NewSettlementExporter(source SignalSource, store ObjectStore) *SettlementExporter {
	return &SettlementExporter{source: source, store: store}
}

// Export writes the sheet for the calendar day starting at day and returns
// the stored object's location.
func (e *SettlementExporter) Export(ctx context.Context, day time.Time) (string, int, error) {
	signals, err := e.source.ListForDay(ctx, day)
	if err != nil {
		return "", 0, fmt.Errorf("list signals: %w", err)
	}

	body, err := WriteCSV(signals)
	if err != nil {
		return "", 0, fmt.Errorf("render csv: %w", err)
	}

	key := fmt.Sprintf("settlements/%s.csv", day.Format("2006-01-02"))
	loc, err := e.store.Put(ctx, key, "text/csv", body)
	if err != nil {
		return "", 0, fmt.Errorf("store %s: %w", key, err)
	}
	return loc, len(signals), nil
}
