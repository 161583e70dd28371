// Command sweeper runs the periodic housekeeping that must not depend on
// request traffic: voucher status sweeps and the stale-payment report.
// Schedule it from cron; each run does one pass and exits.
package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/vuchungbt/hotel-booking-sub000/internal/config"
	"github.com/vuchungbt/hotel-booking-sub000/internal/database"
	"github.com/vuchungbt/hotel-booking-sub000/internal/modules/voucher"
	"github.com/vuchungbt/hotel-booking-sub000/internal/repository"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	voucherSvc := voucher.NewService(db, log.Printf)
	expired, usedUp, err := voucherSvc.UpdateVoucherStatuses(ctx)
	if err != nil {
		log.Fatalf("voucher sweep: %v", err)
	}
	log.Printf("voucher sweep done expired=%d used_up=%d", expired, usedUp)

	bookingRepo := repository.NewBookingRepository(db)
	stale, err := bookingRepo.ListStalePayments(ctx, time.Now().Add(-cfg.StalePaymentsAfter))
	if err != nil {
		log.Fatalf("stale payments: %v", err)
	}
	for _, b := range stale {
		log.Printf("stale payment booking_id=%d reference=%s payment_status=%s created_at=%s",
			b.ID, b.BookingReference, b.PaymentStatus, b.CreatedAt.Format(time.RFC3339))
	}
	log.Printf("stale payment report done count=%d", len(stale))
}
