package service

import (
	"context"
	"errors"
	"fmt"
	"tickets/http"
	"tickets/message"
	"tickets/postgres"
	"tickets/validation"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type Service struct {
	forwarder  *message.Forwarder
	msgRouter  *message.Router
	httpRouter *echo.Echo
}

func New(
	logger watermill.LoggerAdapter,
	redisClient *redis.Client,
	db *sqlx.DB,
	orders validation.OrderGetter,
	jwtSecret []byte,
) (*Service, error) {
	eventBus, err := message.NewEventBus(redisClient, logger)
	if err != nil {
		return nil, fmt.Errorf("creating event bus: %w", err)
	}

	ticketRepo := postgres.NewTicketRepo(db, logger)
	checkinRepo := postgres.NewCheckinRepo(db)

	engine := validation.NewEngine(ticketRepo)
	generator := validation.NewGenerator(orders, ticketRepo)

	msgRouter, err := message.NewRouter(message.RouterDeps{
		CheckinRepo: checkinRepo,
		Logger:      logger,
		Publisher:   eventBus,
		RedisClient: redisClient,
	})
	if err != nil {
		return nil, fmt.Errorf("creating message router: %w", err)
	}

	fwd, err := message.NewForwarder(db, redisClient, logger)
	if err != nil {
		return nil, fmt.Errorf("creating forwarder: %w", err)
	}

	httpRouter := http.NewRouter(http.RouterDeps{
		Checkins:  checkinRepo,
		Engine:    engine,
		Generator: generator,
		JWTSecret: jwtSecret,
	})

	return &Service{
		forwarder:  fwd,
		msgRouter:  msgRouter,
		httpRouter: httpRouter,
	}, nil
}

func (s Service) Run(ctx context.Context) error {
	g, runCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.msgRouter.Run(runCtx); err != nil {
			return fmt.Errorf("running messaging router: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		if err := s.forwarder.Run(runCtx); err != nil {
			return fmt.Errorf("running outbox forwarder: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		// Wait for message router
		<-s.msgRouter.Running()

		logrus.Info("Starting HTTP server...")
		err := s.httpRouter.Start(":8080")
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("starting http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-runCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		logrus.Info("Shutting down HTTP server...")
		if err := s.httpRouter.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("waiting for shutdown: %w", err)
	}
	logrus.Info("Shutdown complete.")

	return nil
}
