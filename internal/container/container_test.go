package container

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-contacts-api/config"
	"github.com/oksasatya/go-contacts-api/pkg/helpers"
	"github.com/oksasatya/go-contacts-api/pkg/mailer"
)

func testInfra(t *testing.T) Infra {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	mr := miniredis.RunT(t)
	return Infra{DB: mock, Redis: helpers.NewRedisClient(mr.Addr(), "", 0)}
}

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("MAIL_SEND_ENABLED", "false")
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestNew_OptionalBackendsDisabled(t *testing.T) {
	c, err := New(loadConfig(t), helpers.NewDiscardLogger(), testInfra(t))
	require.NoError(t, err)

	assert.Nil(t, c.ContactIndex)
	assert.Nil(t, c.ContactService.Index)
	assert.Nil(t, c.UserService.Storage)
	assert.Equal(t, c.Config.SessionTTL, c.JWT.SessionTTL)
}

func TestNew_WithElasticsearch(t *testing.T) {
	infra := testInfra(t)
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{"http://127.0.0.1:9200"}})
	require.NoError(t, err)
	infra.ES = es

	c, err := New(loadConfig(t), helpers.NewDiscardLogger(), infra)
	require.NoError(t, err)
	assert.NotNil(t, c.ContactIndex)
	assert.NotNil(t, c.ContactService.Index)
}

func TestNewMailTransport(t *testing.T) {
	cfg := &config.Config{MailSendEnabled: true, MailDriver: "smtp", SMTPServer: "smtp.example.com", SMTPPort: 465, SMTPFrom: "Contacts <no-reply@example.com>"}
	tr, err := NewMailTransport(cfg)
	require.NoError(t, err)
	assert.IsType(t, &mailer.SMTP{}, tr)

	// An open relay with no sender configured cannot build MAIL FROM.
	cfg = &config.Config{MailSendEnabled: true, MailDriver: "smtp", SMTPServer: "smtp.example.com", SMTPPort: 25}
	_, err = NewMailTransport(cfg)
	require.Error(t, err)

	cfg = &config.Config{MailSendEnabled: true, MailDriver: "smtp", SMTPServer: "smtp.example.com", SMTPUsername: "apikey"}
	_, err = NewMailTransport(cfg)
	require.Error(t, err)

	cfg = &config.Config{MailSendEnabled: true, MailDriver: "mailgun", MailgunDomain: "mg.example.com", MailgunAPIKey: "key"}
	tr, err = NewMailTransport(cfg)
	require.NoError(t, err)
	assert.IsType(t, &mailer.Mailgun{}, tr)

	_, err = NewMailTransport(&config.Config{MailSendEnabled: true, MailDriver: "smtp"})
	require.Error(t, err)

	tr, err = NewMailTransport(&config.Config{MailSendEnabled: false, MailDriver: "smtp"})
	require.NoError(t, err)
	assert.Nil(t, tr)
}
