package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/h2brasil/delivery-backend/internal/realtime"
	"github.com/h2brasil/delivery-backend/internal/services"
	"github.com/h2brasil/delivery-backend/internal/storage"
)

// PresenceJob converges abruptly-disconnected drivers to offline and sends
// the daily delivery summary. A driver whose app terminates without a
// logout stops refreshing its presence lease; the sweep notices and
// rewrites the visible record as offline without any driver action.
type PresenceJob struct {
	store     storage.Store
	channel   realtime.Channel
	notifier  *services.NotifierService
	isRunning bool
}

// NewPresenceJob creates a new presence job scheduler.
func NewPresenceJob(store storage.Store, channel realtime.Channel, notifier *services.NotifierService) *PresenceJob {
	return &PresenceJob{
		store:    store,
		channel:  channel,
		notifier: notifier,
	}
}

// Start begins the scheduled jobs.
func (p *PresenceJob) Start() {
	if p.isRunning {
		log.Println("Presence jobs already running")
		return
	}

	p.isRunning = true
	log.Println("Starting presence jobs...")

	go p.sweepLoop()
	go p.scheduleDailySummary()
}

// Stop halts the scheduled jobs.
func (p *PresenceJob) Stop() {
	p.isRunning = false
	log.Println("Stopping presence jobs...")
}

// sweepLoop runs the offline convergence sweep every 30 seconds.
func (p *PresenceJob) sweepLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		if !p.isRunning {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		converged, err := p.channel.SweepOffline(ctx)
		cancel()
		if err != nil {
			log.Printf("Presence sweep failed: %v", err)
			continue
		}

		for _, driver := range converged {
			log.Printf("Driver %s (%s) lost its presence lease, marked offline", driver.Name, driver.ID)

			msg := fmt.Sprintf("⚠️ Entregador %s perdeu o sinal e foi marcado como offline.", driver.Name)
			if driver.CurrentDestination != "" {
				msg += fmt.Sprintf(" Último destino: %s.", driver.CurrentDestination)
			}
			if err := p.notifier.SendOpsAlert(msg); err != nil {
				log.Printf("Failed to alert ops about %s: %v", driver.ID, err)
			}
		}
	}
}

// scheduleDailySummary sends the delivery count for the day at 18:00.
func (p *PresenceJob) scheduleDailySummary() {
	for p.isRunning {
		now := time.Now()
		nextRun := time.Date(now.Year(), now.Month(), now.Day(), 18, 0, 0, 0, now.Location())
		if !nextRun.After(now) {
			nextRun = nextRun.AddDate(0, 0, 1)
		}

		duration := nextRun.Sub(now)
		log.Printf("Next daily summary scheduled in %v", duration)
		time.Sleep(duration)

		if !p.isRunning {
			return
		}
		p.sendDailySummary()
	}
}

func (p *PresenceJob) sendDailySummary() {
	date := time.Now().Format("2006-01-02")
	count, err := p.store.CountHistoryByDate(date)
	if err != nil {
		log.Printf("Error counting deliveries for daily summary: %v", err)
		return
	}

	msg := fmt.Sprintf("📦 Resumo do dia %s: %d entregas confirmadas.", date, count)
	if err := p.notifier.SendOpsAlert(msg); err != nil {
		log.Printf("Failed to send daily summary: %v", err)
	}
}
