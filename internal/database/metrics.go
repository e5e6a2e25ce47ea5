package database

import (
	"context"
	"fmt"

	"edumanage/pkg/types"
)

// GetDashboardMetrics assembles the headline summary pushed to dashboard
// clients: active student count, today's attendance rate, total fees
// collected, and the number of behavior records awaiting follow-up.
func (m *Manager) GetDashboardMetrics(ctx context.Context) (*types.DashboardMetrics, error) {
	var metrics types.DashboardMetrics

	err := m.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM students WHERE is_active = 1`,
	).Scan(&metrics.TotalStudents)
	if err != nil {
		return nil, fmt.Errorf("failed to count students: %w", err)
	}

	var total, present int
	err = m.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(CASE WHEN status = 'present' THEN 1 END) FROM attendance WHERE date = ?`,
		todayDate(),
	).Scan(&total, &present)
	if err != nil {
		return nil, fmt.Errorf("failed to query today's attendance: %w", err)
	}
	if total > 0 {
		metrics.AttendanceRate = fmt.Sprintf("%.1f", float64(present)/float64(total)*100)
	} else {
		metrics.AttendanceRate = "0.0"
	}

	feeStats, err := m.GetFeeCollectionStats(ctx)
	if err != nil {
		return nil, err
	}
	metrics.FeeCollection = feeStats.TotalCollected

	err = m.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM behavior_records WHERE follow_up_required = 1`,
	).Scan(&metrics.PendingTasks)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending tasks: %w", err)
	}

	return &metrics, nil
}
