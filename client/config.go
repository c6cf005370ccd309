package client

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kod2ulz/gostart/utils"
	"github.com/pkg/errors"

	"github.com/kod2ulz/bigfish-paymentgateway/api"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type GatewayConfig struct {
	StoreName           string `validate:"required"`
	ApiKey              string `validate:"required"`
	ApiType             string `validate:"oneof=rest soap"`
	TestMode            bool
	CharacterEncoding   string
	EncryptionPublicKey string
	InsecureSkipVerify  bool
	Timeout             time.Duration `validate:"gt=0"`
	LongTimeout         time.Duration `validate:"gtefield=Timeout"`
	HttpHost            string
	KeyBucket           string
	KeyPath             string `validate:"required_with=KeyBucket"`
	Journal             bool
	JournalRetention    time.Duration
	ListenAddr          string
}

func NewGatewayConfig(prefix ...string) *GatewayConfig {
	env := utils.Env.Helper(prefix...).OrDefault("BIGFISH_GATEWAY")
	return &GatewayConfig{
		StoreName:           env.MustGet("STORE_NAME").String(),
		ApiKey:              env.MustGet("API_KEY").String(),
		ApiType:             env.Get("API_TYPE", DriverRest).String(),
		TestMode:            env.Get("TEST_MODE", "true").Bool(),
		CharacterEncoding:   env.Get("CHARACTER_ENCODING", api.CharacterEncodingDefault).String(),
		EncryptionPublicKey: env.Get("ENCRYPTION_PUBLIC_KEY", "").String(),
		InsecureSkipVerify:  env.Get("INSECURE_SKIP_VERIFY", "false").Bool(),
		Timeout:             env.Get("TIMEOUT", "30s").Duration(),
		LongTimeout:         env.Get("LONG_TIMEOUT", "600s").Duration(),
		HttpHost:            env.Get("HTTP_HOST", "").String(),
		KeyBucket:           env.Get("KEY_BUCKET", "").String(),
		KeyPath:             env.Get("KEY_PATH", "").String(),
		Journal:             env.Get("JOURNAL", "false").Bool(),
		JournalRetention:    env.Get("JOURNAL_RETENTION", "0s").Duration(),
		ListenAddr:          env.Get("LISTEN_ADDR", ":8080").String(),
	}
}

func (c *GatewayConfig) Validate() (err error) {
	if c == nil {
		return api.ConfigError("", "gateway configuration not initialised")
	} else if err = validate.Struct(c); err != nil {
		return api.NewError(api.ConfigurationError, "", errors.WithStack(err), "invalid gateway configuration")
	}
	return
}

// DriverOptions translates the transport related settings.
func (c *GatewayConfig) DriverOptions() []DriverOption {
	return []DriverOption{
		WithDriverTestMode(c.TestMode),
		WithTimeouts(c.Timeout, c.LongTimeout),
		WithInsecureSkipVerify(c.InsecureSkipVerify),
		WithHttpHost(c.HttpHost),
	}
}
