package game

import (
	"context"
	"log"
	"time"
)

// StartExpiryWorker periodically purges WAITING matches that never found an
// opponent. It blocks until ctx is cancelled.
func StartExpiryWorker(ctx context.Context, gm *GameManager) {
	interval := gm.settings.ExpiryCheckInterval
	if interval <= 0 {
		log.Println("[EXPIRY] Expiry interval not set; worker not started")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("[EXPIRY] Starting expiry worker (poll every %v, timeout %v)", interval, gm.settings.WaitingTimeout)

	for {
		select {
		case <-ctx.Done():
			log.Printf("[EXPIRY] Worker stopped")
			return
		case <-ticker.C:
			n, err := gm.ExpireWaiting(ctx)
			if err != nil {
				log.Printf("[EXPIRY] Sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("[EXPIRY] Expired %d waiting matches", n)
			}
		}
	}
}
