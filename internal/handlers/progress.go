package handlers

import "garment-backend/internal/models"

// ProgressNotifier receives batch progress once a change has been committed
type ProgressNotifier interface {
	NotifyBatchProgress(update models.BatchProgressUpdate)
}

func notifyProgress(n ProgressNotifier, updates ...models.BatchProgressUpdate) {
	if n == nil {
		return
	}
	for _, u := range updates {
		n.NotifyBatchProgress(u)
	}
}
