package ledger

import "github.com/shopspring/decimal"

// MetricsCollector receives movement and error counts. Optional; the
// service falls back to the no-op collector.
type MetricsCollector interface {
	RecordMovement(txType string, amount decimal.Decimal)
	RecordError(operation, code string)
}

type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordMovement(string, decimal.Decimal) {}
func (NoopMetricsCollector) RecordError(string, string)             {}
