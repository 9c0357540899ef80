package jobs

import (
	"log"
	"time"

	"x402-marketplace/internal/services"
)

// RateRefresher keeps the live exchange-rate cache warm
type RateRefresher struct {
	rateService *services.RateService
	interval    time.Duration
	stopChan    chan struct{}
}

func NewRateRefresher(rateService *services.RateService, interval time.Duration) *RateRefresher {
	return &RateRefresher{
		rateService: rateService,
		interval:    interval,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the refresh loop
func (rr *RateRefresher) Start() {
	log.Printf("[RateRefresher] Starting rate refresh job (interval: %v)", rr.interval)

	ticker := time.NewTicker(rr.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rr.rateService.Refresh()
		case <-rr.stopChan:
			log.Println("[RateRefresher] Stopping rate refresh job")
			return
		}
	}
}

// Stop stops the refresh loop
func (rr *RateRefresher) Stop() {
	close(rr.stopChan)
}
