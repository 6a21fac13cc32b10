// Package container assembles the application graph from already opened
// infrastructure clients. Nothing in it is global; main builds one Container
// and hands it to the router.
package container

import (
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-contacts-api/config"
	"github.com/oksasatya/go-contacts-api/internal/application"
	"github.com/oksasatya/go-contacts-api/internal/infrastructure/cache"
	pginfra "github.com/oksasatya/go-contacts-api/internal/infrastructure/postgres"
	"github.com/oksasatya/go-contacts-api/internal/infrastructure/search"
	"github.com/oksasatya/go-contacts-api/pkg/helpers"
	"github.com/oksasatya/go-contacts-api/pkg/mailer"
)

// Infra holds the external clients. GCS and ES are optional.
type Infra struct {
	DB    pginfra.DBTX
	Redis redis.Cmdable
	GCS   *storage.Client
	ES    *elasticsearch.Client
}

type Container struct {
	Config  *config.Config
	Logger  *logrus.Logger
	JWT     *helpers.JWTManager
	Cookies *helpers.Manager

	Users        *pginfra.UserRepository
	Contacts     *pginfra.ContactRepository
	UserCache    *cache.UserCache
	ContactIndex *search.ContactIndex
	Mailer       *mailer.Mailer

	Gateway        *application.Gateway
	AuthService    *application.AuthService
	UserService    *application.UserService
	ContactService *application.ContactService
}

func New(cfg *config.Config, logger *logrus.Logger, infra Infra) (*Container, error) {
	c := &Container{
		Config:    cfg,
		Logger:    logger,
		JWT:       helpers.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL, cfg.VerifyTTL, cfg.ResetTTL),
		Cookies:   helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure),
		Users:     pginfra.NewUserRepository(infra.DB),
		Contacts:  pginfra.NewContactRepository(infra.DB),
		UserCache: cache.NewUserCache(infra.Redis, cfg.UserCacheTTL),
	}

	transport, err := NewMailTransport(cfg)
	if err != nil {
		return nil, err
	}
	c.Mailer = mailer.New(transport, cfg.AppName, cfg.FrontendURL, logger)

	var avatars application.AvatarStorage
	if infra.GCS != nil && cfg.GCSBucket != "" {
		avatars = helpers.NewGCSUploader(infra.GCS, cfg.GCSBucket)
	}

	// A nil *ContactIndex must not reach the service as a non-nil interface.
	var index application.ContactIndex
	if infra.ES != nil {
		c.ContactIndex = search.NewContactIndex(infra.ES, cfg.ESContactsIndex)
		index = c.ContactIndex
	}

	c.Gateway = application.NewGateway(c.Users, c.JWT, c.UserCache, logger)
	c.AuthService = application.NewAuthService(c.Users, c.JWT, cache.NewTokenLedger(infra.Redis), c.Mailer, logger)
	c.UserService = application.NewUserService(c.Users, avatars, logger)
	c.ContactService = application.NewContactService(c.Contacts, index, logger)
	return c, nil
}

// NewMailTransport picks the transport named by MAIL_DRIVER. It returns nil
// when sending is disabled.
func NewMailTransport(cfg *config.Config) (mailer.Transport, error) {
	if !cfg.MailSendEnabled {
		return nil, nil
	}
	switch cfg.MailDriver {
	case "smtp":
		if cfg.SMTPServer == "" {
			return nil, fmt.Errorf("MAIL_DRIVER=smtp requires SMTP_SERVER")
		}
		t := mailer.NewSMTP(cfg.SMTPServer, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
		if _, _, err := t.Sender(); err != nil {
			return nil, fmt.Errorf("MAIL_DRIVER=smtp needs SMTP_FROM or an email SMTP_USERNAME: %w", err)
		}
		return t, nil
	case "mailgun":
		if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" {
			return nil, fmt.Errorf("MAIL_DRIVER=mailgun requires MAILGUN_DOMAIN and MAILGUN_API_KEY")
		}
		return mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender), nil
	default:
		return nil, fmt.Errorf("unsupported MAIL_DRIVER %q", cfg.MailDriver)
	}
}
