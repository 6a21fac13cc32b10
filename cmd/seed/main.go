package main

import (
	"context"
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-contacts-api/config"
	"github.com/oksasatya/go-contacts-api/internal/application"
	"github.com/oksasatya/go-contacts-api/internal/domain/apperror"
	"github.com/oksasatya/go-contacts-api/internal/domain/entity"
	pginfra "github.com/oksasatya/go-contacts-api/internal/infrastructure/postgres"
	"github.com/oksasatya/go-contacts-api/internal/infrastructure/search"
	"github.com/oksasatya/go-contacts-api/pkg/helpers"
)

const (
	demoEmail    = "demo@example.com"
	demoUsername = "demo"
	demoPassword = "password123"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		logger.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	users := pginfra.NewUserRepository(pool)
	contacts := application.NewContactService(pginfra.NewContactRepository(pool), contactIndex(cfg, logger), logger)

	u, err := users.GetByEmail(ctx, demoEmail)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		hash, err := helpers.HashPassword(demoPassword)
		if err != nil {
			logger.Fatalf("hash password: %v", err)
		}
		u = &entity.User{Username: demoUsername, Email: demoEmail, PasswordHash: hash, IsVerified: true}
		if err := users.Create(ctx, u); err != nil {
			logger.Fatalf("seed user: %v", err)
		}
		logger.WithFields(logrus.Fields{"id": u.ID, "email": demoEmail, "password": demoPassword}).Info("seeded user")
	case err != nil:
		logger.Fatalf("lookup user: %v", err)
	default:
		logger.WithField("id", u.ID).Info("demo user already exists")
	}

	existing, err := contacts.List(ctx, u.ID)
	if err != nil {
		logger.Fatalf("list contacts: %v", err)
	}
	if len(existing) > 0 {
		logger.WithField("count", len(existing)).Info("contacts already seeded")
		return
	}

	today := time.Now()
	soon := time.Date(1990, today.Month(), today.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 3)
	later := time.Date(1985, today.Month(), today.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 2, 0)
	for _, c := range []*entity.Contact{
		{FirstName: "John", LastName: "Smith", Email: "john.smith@example.com", PhoneNumber: "+15550100", Birthday: &soon},
		{FirstName: "Jane", LastName: "Doe", Email: "jane.doe@example.com", PhoneNumber: "+15550101", Birthday: &later},
		{FirstName: "Max", LastName: "Mustermann", PhoneNumber: "+495550102", ExtraData: "met at the conference"},
	} {
		if err := contacts.Create(ctx, u.ID, c); err != nil {
			logger.Fatalf("seed contact: %v", err)
		}
	}
	logger.WithField("user_id", u.ID).Info("seeded 3 contacts")
}

// contactIndex returns the search index when one is configured so seeded
// contacts are searchable through it right away.
func contactIndex(cfg *config.Config, logger *logrus.Logger) application.ContactIndex {
	es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		logger.WithError(err).Warn("elasticsearch unavailable, seeding postgres only")
		return nil
	}
	if es == nil {
		return nil
	}
	return search.NewContactIndex(es, cfg.ESContactsIndex)
}
