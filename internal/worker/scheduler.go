package worker

import (
	"log"

	"thermlink/internal/config"
)

// StartAllWorkers initializes and starts all background workers and
// returns a function that stops them
func StartAllWorkers(imports Flusher) (stop func()) {
	log.Println("Starting all workers...")

	stopPersistence := StartPersistenceWorker(imports, config.PersistenceWorkerInterval)

	log.Println("All workers started")
	return stopPersistence
}
