package worker

import (
	"context"
	"log"
	"time"

	"malvinvet/internal/service"
)

// StatsWorker периодически обновляет кэш глобальной статистики
type StatsWorker struct {
	service  service.StatsService
	interval time.Duration
	stopChan chan struct{}
	running  bool
}

func NewStatsWorker(statsService service.StatsService, interval time.Duration) *StatsWorker {
	return &StatsWorker{
		service:  statsService,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (w *StatsWorker) Start() {
	if w.running {
		return
	}

	w.running = true
	log.Printf("Stats Worker started with interval %v", w.interval)

	// Первое обновление сразу
	w.refresh()

	go w.run()
}

func (w *StatsWorker) Stop() {
	if !w.running {
		return
	}

	close(w.stopChan)
	w.running = false
	log.Println("Stats Worker stopped")
}

func (w *StatsWorker) run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.refresh()
		case <-w.stopChan:
			return
		}
	}
}

func (w *StatsWorker) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := w.service.Refresh(ctx); err != nil {
		log.Printf("Stats Worker error: %v", err)
	}
}
