package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/bookshelf/library/config"
	"github.com/Astemirdum/bookshelf/library/internal/handler"
	"github.com/Astemirdum/bookshelf/library/internal/model"
	"github.com/Astemirdum/bookshelf/library/internal/repository"
	"github.com/Astemirdum/bookshelf/library/internal/server"
	"github.com/Astemirdum/bookshelf/library/internal/service"
	"github.com/Astemirdum/bookshelf/library/internal/storage"
	"github.com/Astemirdum/bookshelf/library/migrations"
	"github.com/Astemirdum/bookshelf/pkg/auth"
	"github.com/Astemirdum/bookshelf/pkg/circuit_breaker"
	"github.com/Astemirdum/bookshelf/pkg/kafka"
	"github.com/Astemirdum/bookshelf/pkg/logger"
	"github.com/Astemirdum/bookshelf/pkg/postgres"
)

func Run(cfg config.Config) {
	log := logger.NewLogger(cfg.Log, "library")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewPostgresDB(ctx, &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	defer db.Close()

	repo, err := repository.NewRepository(db, log)
	if err != nil {
		log.Fatal("repo", zap.Error(err))
	}
	issuer, err := auth.NewIssuer(cfg.JWT.Secret, cfg.JWT.TTL)
	if err != nil {
		log.Fatal("auth.NewIssuer", zap.Error(err))
	}
	opts := []service.Option{
		service.WithIssuer(issuer),
		service.WithFileStore(storage.NewLocalStore(cfg.Storage.EbookDir, log)),
	}

	var (
		producer sarama.SyncProducer
		group    sarama.ConsumerGroup
	)
	if cfg.Kafka.Enabled() {
		producer, err = kafka.NewProducer(cfg.Kafka)
		if err != nil {
			log.Fatal("kafka.NewProducer", zap.Error(err))
		}
		opts = append(opts, service.WithPublisher(
			service.NewEnqueuer(producer, circuit_breaker.New(cfg.CircuitBreaker))))

		group, err = kafka.NewConsumer(cfg.Kafka, kafka.StatsConsumerGroup)
		if err != nil {
			log.Fatal("kafka.NewConsumer", zap.Error(err))
		}
	} else {
		log.Warn("kafka is not configured, borrowing events are dropped")
	}

	svc := service.NewService(repo, log, cfg.Policy, opts...)
	if cfg.Admin.Email != "" {
		admin, err := svc.EnsureAdmin(ctx, model.UserCreateRequest{
			Email:    cfg.Admin.Email,
			Password: cfg.Admin.Password,
			Name:     cfg.Admin.Name,
		})
		if err != nil {
			log.Fatal("ensure admin", zap.Error(err))
		}
		log.Info("admin account ready", zap.Stringer("user_id", admin.ID))
	}
	h := handler.New(svc, issuer, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server start ON: ",
			zap.String("addr", net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
		return srv.Run()
	})
	if group != nil {
		g.Go(func() error {
			return handler.NewConsumer(svc, log).Run(gCtx, group)
		})
	}
	g.Go(func() error {
		<-gCtx.Done()
		log.Debug("Graceful shutdown")

		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		if err := srv.Stop(closeCtx); err != nil {
			log.DPanic("srv.Stop", zap.Error(err))
		}
		if group != nil {
			if err := group.Close(); err != nil {
				log.Error("consumer close", zap.Error(err))
			}
		}
		if producer != nil {
			if err := producer.Close(); err != nil {
				log.Error("producer close", zap.Error(err))
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("app stopped", zap.Error(err))
		return
	}
	log.Info("Graceful shutdown finished")
}
