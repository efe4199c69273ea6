package transfer

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// LoadMetrics tracks metrics for one table load
type LoadMetrics struct {
	Table       string
	StartTime   time.Time
	EndTime     time.Time
	RowsWritten int64
	Batches     int
	BytesMoved  int64 // Approximate payload size of the bound arguments
}

// NewLoadMetrics creates a new metrics tracker starting now
func NewLoadMetrics(table string) *LoadMetrics {
	return &LoadMetrics{
		Table:     table,
		StartTime: time.Now(),
	}
}

// RecordBatch adds one inserted batch
func (m *LoadMetrics) RecordBatch(rows int64, args []interface{}) {
	m.Batches++
	m.RowsWritten += rows
	m.BytesMoved += estimateBytes(args)
}

// Complete marks the end of the load
func (m *LoadMetrics) Complete() {
	m.EndTime = time.Now()
}

// Duration returns the total duration of the load
func (m *LoadMetrics) Duration() time.Duration {
	if m.EndTime.IsZero() {
		return time.Since(m.StartTime)
	}
	return m.EndTime.Sub(m.StartTime)
}

// RowsPerSecond returns the average write throughput
func (m *LoadMetrics) RowsPerSecond() float64 {
	seconds := m.Duration().Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(m.RowsWritten) / seconds
}

// LogMetrics writes the metrics as one structured entry
func (m *LoadMetrics) LogMetrics(logger *zap.Logger) {
	logger.Info("Load metrics",
		zap.String("table", m.Table),
		zap.Int64("rows_written", m.RowsWritten),
		zap.Int("batches", m.Batches),
		zap.String("bytes_moved", formatBytes(m.BytesMoved)),
		zap.String("duration", formatDuration(m.Duration())),
		zap.Float64("rows_per_second", m.RowsPerSecond()))
}

// GenerateMetricsReport creates a human-readable metrics report
func (m *LoadMetrics) GenerateMetricsReport() string {
	return fmt.Sprintf(`
Load Metrics Report
===================
Table:                   %s
Duration:                %s
Rows Written:            %d
Batches:                 %d
Data Transferred:        %s
Average Throughput:      %.2f rows/sec
`,
		m.Table,
		formatDuration(m.Duration()),
		m.RowsWritten,
		m.Batches,
		formatBytes(m.BytesMoved),
		m.RowsPerSecond())
}

// estimateBytes approximates the wire size of bound arguments
func estimateBytes(args []interface{}) int64 {
	var total int64
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
		case string:
			total += int64(len(v))
		default:
			total += 8
		}
	}
	return total
}

// formatBytes formats bytes to a human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// formatDuration formats a duration to a human-readable string
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
