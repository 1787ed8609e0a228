package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Retention windows for the nightly cleanup job.
const (
	otpRetention  = 24 * time.Hour
	cartRetention = 7 * 24 * time.Hour
)

var cleanupScheduler gocron.Scheduler

// StartCleanupScheduler runs the nightly purge of dead OTP rows and stale
// carts. Expiry itself is enforced in request logic; this job is storage
// hygiene only.
func StartCleanupScheduler(otps *OTPService, carts *CartService) {
	s, err := gocron.NewScheduler()
	if err != nil {
		log.Fatal(err)
	}

	cleanupScheduler = s

	_, err = s.NewJob(
		gocron.DailyJob(
			1,
			gocron.NewAtTimes(
				gocron.NewAtTime(3, 30, 0),
			),
		),
		gocron.NewTask(func() {
			now := time.Now()
			if n, err := otps.PurgeExpired(now.Add(-otpRetention)); err != nil {
				log.Printf("[Cleanup] OTP purge failed: %v", err)
			} else if n > 0 {
				log.Printf("[Cleanup] Purged %d expired OTP records", n)
			}

			if n, err := carts.PurgeStale(now.Add(-cartRetention)); err != nil {
				log.Printf("[Cleanup] Cart purge failed: %v", err)
			} else if n > 0 {
				log.Printf("[Cleanup] Purged %d stale carts", n)
			}
		}),
	)
	if err != nil {
		log.Fatal(err)
	}

	s.Start()
	log.Println("[Cleanup] Scheduler started")
}

// StopCleanupScheduler shuts the scheduler down.
func StopCleanupScheduler() {
	if cleanupScheduler != nil {
		if err := cleanupScheduler.Shutdown(); err != nil {
			log.Printf("[Cleanup] Scheduler shutdown failed: %v", err)
		}
	}
}
