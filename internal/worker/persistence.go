package worker

import (
	"log"
	"sync"
	"time"
)

// Flusher persists whatever changed since the last call
type Flusher interface {
	SaveDirtyToPG() error
}

// StartPersistenceWorker starts the worker that saves new imports to PostgreSQL
func StartPersistenceWorker(f Flusher, interval time.Duration) (stop func()) {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for {
			select {
			case <-ticker.C:
				if err := f.SaveDirtyToPG(); err != nil {
					log.Printf("Error saving imports to PostgreSQL: %v", err)
				}
			case <-done:
				return
			}
		}
	}()

	log.Println("Persistence worker started with interval:", interval)

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
			<-finished
			// last flush so nothing finished is lost on shutdown
			if err := f.SaveDirtyToPG(); err != nil {
				log.Printf("Error saving imports to PostgreSQL: %v", err)
			}
		})
	}
}
