package journal

import (
	"context"
	"log/slog"
	"time"
)

// RunPruner deletes entries older than retention every interval until ctx
// is done. A non-positive retention disables pruning.
func RunPruner(ctx context.Context, db *DB, retention, interval time.Duration, logger *slog.Logger) {
	if retention <= 0 {
		return
	}
	if interval <= 0 {
		interval = time.Hour
	}

	prune := func() {
		n, err := db.Prune(ctx, time.Now().Add(-retention))
		if err != nil {
			logger.Warn("journal prune failed", slog.String("error", err.Error()))
			return
		}
		if n > 0 {
			logger.Info("journal pruned", slog.Int64("entries", n))
		}
	}

	prune()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}
