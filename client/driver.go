package client

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/kod2ulz/bigfish-paymentgateway/api"
)

const (
	// GatewayUrlProduction is used on live payment requests.
	GatewayUrlProduction = "https://www.paymentgateway.hu"
	// GatewayUrlTest is used on test payment requests.
	GatewayUrlTest = "https://test.paymentgateway.hu"

	DriverRest = "rest"
	DriverSoap = "soap"

	DefaultTimeout     = 30 * time.Second
	DefaultLongTimeout = 600 * time.Second
	MaxRedirects       = 4

	HEADER_AUTHORIZATION = "Authorization"
	HEADER_USER_AGENT    = "User-Agent"
	HEADER_REFERER       = "Referer"
	HEADER_CONTENT_TYPE  = "Content-Type"
)

// Driver moves a payload to the gateway and returns the decoded reply.
type Driver interface {
	Name() string
	IsTestMode() bool
	SetTestMode(testMode bool)
	ApiUrl() string
	Send(ctx context.Context, creds Credentials, payload api.Payload) (api.Envelope, error)
}

type Credentials struct {
	StoreName           string
	ApiKey              string
	EncryptionPublicKey string
}

func (c Credentials) Authorization() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.StoreName+":"+c.ApiKey))
}

func (c Credentials) check(method api.Method) error {
	if c.StoreName == "" || c.ApiKey == "" {
		return api.ConfigError(method, "store name and api key are required")
	}
	return nil
}

type DriverOption func(*driverOptions)

type driverOptions struct {
	testMode    bool
	production  string
	test        string
	timeout     time.Duration
	longTimeout time.Duration
	insecure    bool
	httpHost    string
	soapUcFirst bool
	soapNs      string
	log         *logrus.Entry
}

func defaultDriverOptions() driverOptions {
	return driverOptions{
		testMode:    true,
		production:  GatewayUrlProduction,
		test:        GatewayUrlTest,
		timeout:     DefaultTimeout,
		longTimeout: DefaultLongTimeout,
		log:         logrus.NewEntry(logrus.StandardLogger()),
	}
}

func WithDriverTestMode(testMode bool) DriverOption {
	return func(o *driverOptions) {
		o.testMode = testMode
	}
}

// WithHosts replaces the production and test base urls.
func WithHosts(production, test string) DriverOption {
	return func(o *driverOptions) {
		o.production = strings.TrimSuffix(production, "/")
		o.test = strings.TrimSuffix(test, "/")
	}
}

// WithTimeouts sets the timeout of ordinary calls and of the settling calls
// (Close, Refund). Zero values keep the defaults.
func WithTimeouts(timeout, longTimeout time.Duration) DriverOption {
	return func(o *driverOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
		if longTimeout > 0 {
			o.longTimeout = longTimeout
		}
	}
}

// WithInsecureSkipVerify disables TLS certificate and host verification.
func WithInsecureSkipVerify(insecure bool) DriverOption {
	return func(o *driverOptions) {
		o.insecure = insecure
	}
}

// WithHttpHost names the host the SDK runs on. It is sent as Referer and in
// the user agent.
func WithHttpHost(host string) DriverOption {
	return func(o *driverOptions) {
		o.httpHost = host
	}
}

func WithDriverLogger(log *logrus.Entry) DriverOption {
	return func(o *driverOptions) {
		if log != nil {
			o.log = log
		}
	}
}

func (o driverOptions) timeoutFor(method api.Method) time.Duration {
	if method.Settling() {
		return o.longTimeout
	}
	return o.timeout
}

func (o driverOptions) userAgent(clientType string, method api.Method) string {
	return fmt.Sprintf("BIG FISH Payment Gateway %s Client v%s (%s - %s)", clientType, api.SdkVersion, method, o.httpHost)
}

func (o driverOptions) httpClient(name string) *resty.Client {
	client := resty.New().
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(MaxRedirects)).
		SetLogger(o.log.WithField("driver", name))
	if o.insecure {
		o.log.WithField("driver", name).Warn("TLS certificate verification disabled")
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	return client
}

type baseDriver struct {
	opts     driverOptions
	testMode atomic.Bool
}

func (d *baseDriver) init(opts []DriverOption) {
	d.opts = defaultDriverOptions()
	for i := range opts {
		opts[i](&d.opts)
	}
	d.testMode.Store(d.opts.testMode)
}

func (d *baseDriver) IsTestMode() bool {
	return d.testMode.Load()
}

func (d *baseDriver) SetTestMode(testMode bool) {
	d.testMode.Store(testMode)
}

func (d *baseDriver) ApiUrl() string {
	if d.IsTestMode() {
		return d.opts.test
	}
	return d.opts.production
}

func (d *baseDriver) request(ctx context.Context, client *resty.Client, creds Credentials, clientType string, method api.Method) *resty.Request {
	req := client.R().SetContext(ctx).
		SetHeader(HEADER_AUTHORIZATION, creds.Authorization()).
		SetHeader(HEADER_USER_AGENT, d.opts.userAgent(clientType, method))
	if d.opts.httpHost != "" {
		req.SetHeader(HEADER_REFERER, d.opts.httpHost)
	}
	return req
}

func statusError(method api.Method, res *resty.Response) *api.Error {
	err := api.NewError(api.TransportError, method, nil, "Communication error: HTTP %s", res.Status())
	err.Status = res.StatusCode()
	return err
}

// NewDriver returns the driver registered under name.
func NewDriver(name string, opts ...DriverOption) (Driver, error) {
	switch strings.ToLower(name) {
	case DriverRest:
		return NewRestDriver(opts...), nil
	case DriverSoap:
		return NewSoapDriver(opts...), nil
	default:
		return nil, api.ConfigError("", "Invalid API type (%s)", name)
	}
}
