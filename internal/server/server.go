package server

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"healthcare-booking-api/internal/handler"
	"healthcare-booking-api/internal/service"
)

type Server struct {
	echo           *echo.Echo
	offerHandler   *handler.OfferHandler
	bookingHandler *handler.BookingHandler
	stripeHandler  *handler.StripeHandler
}

func NewServer(offerService service.OfferService, bookingService service.BookingService, paymentService service.PaymentService) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := logrus.WithFields(logrus.Fields{
				"method": v.Method,
				"uri":    v.URI,
				"status": v.Status,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
			} else {
				entry.Info("request")
			}
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:           e,
		offerHandler:   handler.NewOfferHandler(offerService),
		bookingHandler: handler.NewBookingHandler(bookingService),
		stripeHandler:  handler.NewStripeHandler(paymentService),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	v1 := api.Group("/v1")

	v1.GET("/offers", s.offerHandler.List)
	v1.GET("/offers/:id", s.offerHandler.Show)

	v1.POST("/bookings", s.bookingHandler.Create)

	// -------- stripe --------
	v1.POST("/create-payment-intent/:bookingId", s.stripeHandler.CreatePaymentIntent)

	// stripe webhook, unauthenticated by design
	v1.POST("/webhook/stripe", s.stripeHandler.Webhook)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
