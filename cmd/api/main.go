package main

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/vuchungbt/hotel-booking-sub000/internal/cache"
	"github.com/vuchungbt/hotel-booking-sub000/internal/config"
	"github.com/vuchungbt/hotel-booking-sub000/internal/database"
	"github.com/vuchungbt/hotel-booking-sub000/internal/events"
	"github.com/vuchungbt/hotel-booking-sub000/internal/middleware"
	"github.com/vuchungbt/hotel-booking-sub000/internal/modules/booking"
	"github.com/vuchungbt/hotel-booking-sub000/internal/modules/payment"
	"github.com/vuchungbt/hotel-booking-sub000/internal/modules/revenue"
	"github.com/vuchungbt/hotel-booking-sub000/internal/modules/voucher"
	"github.com/vuchungbt/hotel-booking-sub000/internal/modules/wallet"
	jwtsvc "github.com/vuchungbt/hotel-booking-sub000/internal/pkg/jwt"
	"github.com/vuchungbt/hotel-booking-sub000/internal/repository"
)

const hotelCacheTTL = 5 * time.Minute

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
	if err := database.Migrate(db); err != nil {
		log.Fatalf("database migration: %v", err)
	}

	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	hotelRepo := repository.NewHotelRepository(db)
	userRepo := repository.NewUserRepository(db)

	var hotels booking.HotelDirectory = hotelRepo
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		hotels = cache.NewHotelDirectory(hotelRepo, client, hotelCacheTTL)
		log.Println("Hotel lookups cached via Redis at", cfg.RedisAddr)
	}

	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = events.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka producer: %v", err)
		}
		defer producer.Close()
		log.Println("Booking events publishing to", cfg.KafkaBrokers)
	}
	var bookingEvents booking.EventPublisher
	var paymentEvents payment.EventPublisher
	if producer != nil {
		bookingEvents = producer
		paymentEvents = producer
	}

	voucherSvc := voucher.NewService(db, log.Printf)
	walletSvc := wallet.NewService(db, userRepo, log.Printf)
	revenueSvc := revenue.NewService(bookingRepo, hotelRepo, log.Printf)
	bookingSvc := booking.NewService(bookingRepo, hotels, voucherSvc, walletSvc, bookingEvents, cfg.StalePaymentsAfter, log.Printf)
	paymentSvc := payment.NewService(cfg.VNPay, paymentRepo, bookingRepo, revenueSvc, paymentEvents, log.Printf)

	jwtService := jwtsvc.New(cfg.JWTSecret, 24*time.Hour)

	bookingHandler := booking.NewHandler(bookingSvc)
	paymentHandler := payment.NewHandler(paymentSvc)
	voucherHandler := voucher.NewHandler(voucherSvc)
	walletHandler := wallet.NewHandler(walletSvc)
	revenueHandler := revenue.NewHandler(revenueSvc)

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.ErrorLogger())
	r.Use(cors.Default())

	api := r.Group("/api/v1")

	// Signature-authenticated gateway callbacks; no bearer token involved.
	paymentHandler.RegisterGatewayRoutes(api)

	// Booking, voucher validation and payment-URL routes serve walk-in
	// guests too, so authentication is optional here. Host/admin subroutes
	// still demand a role and reject anonymous callers.
	open := api.Group("/")
	open.Use(middleware.OptionalAuth(jwtService))
	{
		bookingHandler.RegisterRoutes(open)
		paymentHandler.RegisterRoutes(open)
		voucherHandler.RegisterRoutes(open)
	}

	authed := api.Group("/")
	authed.Use(middleware.Auth(jwtService))
	{
		walletHandler.RegisterRoutes(authed)
		revenueHandler.RegisterRoutes(authed)
	}

	log.Println("Listening on", cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
