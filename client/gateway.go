package client

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/kod2ulz/bigfish-paymentgateway/api"
)

type GatewayOption func(*Gateway)

func WithCredentials(storeName, apiKey string) GatewayOption {
	return func(g *Gateway) {
		g.creds.StoreName, g.creds.ApiKey = storeName, apiKey
	}
}

// WithConfig applies credentials, character encoding and transport settings
// from conf. The driver is chosen by conf.ApiType.
func WithConfig(conf *GatewayConfig) GatewayOption {
	return func(g *Gateway) {
		g.conf = conf
	}
}

func WithDriver(driver Driver) GatewayOption {
	return func(g *Gateway) {
		g.driver = driver
	}
}

func WithTestMode(testMode bool) GatewayOption {
	return func(g *Gateway) {
		g.pending = append(g.pending, func(g *Gateway) error {
			g.driver.SetTestMode(testMode)
			return nil
		})
	}
}

func WithEncryptionPublicKey(pemKey string) GatewayOption {
	return func(g *Gateway) {
		g.pending = append(g.pending, func(g *Gateway) error {
			return g.setEncryptionPublicKey(pemKey)
		})
	}
}

// WithEncryptionKeyStore loads the encryption public key PEM from bucket/path
// of store while the gateway initialises.
func WithEncryptionKeyStore(store KeyStore, bucket, path string) GatewayOption {
	return func(g *Gateway) {
		g.keyStore = &keyLocation{store: store, bucket: bucket, path: path}
	}
}

func WithCharacterEncoding(encoding string) GatewayOption {
	return func(g *Gateway) {
		g.encoding = encoding
	}
}

func WithLogger(log *logrus.Entry) GatewayOption {
	return func(g *Gateway) {
		if log != nil {
			g.log.Entry = log
		}
	}
}

func WithJournal(journal Journal) GatewayOption {
	return func(g *Gateway) {
		g.log.journal = journal
	}
}

func WithMetrics(reg prometheus.Registerer) GatewayOption {
	return func(g *Gateway) {
		g.pending = append(g.pending, func(g *Gateway) (err error) {
			g.metrics, err = NewMetrics(reg)
			return
		})
	}
}

type keyLocation struct {
	store  KeyStore
	bucket string
	path   string
}

// Gateway is the payment gateway client. It is safe for concurrent use;
// every call works on a snapshot of the configuration.
type Gateway struct {
	mu        sync.RWMutex
	creds     Credentials
	encrypter *RsaPublicKey
	encoding  string
	driver    Driver
	log       *gatewayLogger
	metrics   *Metrics

	conf     *GatewayConfig
	keyStore *keyLocation
	pending  []func(*Gateway) error
}

func NewGateway(ctx context.Context, log *logrus.Entry, opts ...GatewayOption) (out *Gateway, err error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	out = &Gateway{
		encoding: api.CharacterEncodingDefault,
		log:      &gatewayLogger{Entry: log},
	}
	for i := range opts {
		opts[i](out)
	}
	if err = out.init(ctx); err != nil {
		return nil, err
	}
	return
}

func (g *Gateway) init(ctx context.Context) (err error) {
	if g.conf != nil {
		if err = g.conf.Validate(); err != nil {
			return
		}
		g.creds.StoreName, g.creds.ApiKey = g.conf.StoreName, g.conf.ApiKey
		if g.conf.CharacterEncoding != "" {
			g.encoding = g.conf.CharacterEncoding
		}
		if g.driver == nil {
			opts := append(g.conf.DriverOptions(), WithDriverLogger(g.log.Entry))
			if g.driver, err = NewDriver(g.conf.ApiType, opts...); err != nil {
				return
			}
		}
		if g.conf.EncryptionPublicKey != "" {
			if err = g.setEncryptionPublicKey(g.conf.EncryptionPublicKey); err != nil {
				return
			}
		}
	}
	if g.driver == nil {
		g.driver = NewRestDriver(WithDriverLogger(g.log.Entry))
	}
	for _, apply := range g.pending {
		if err = apply(g); err != nil {
			return
		}
	}
	g.pending = nil
	if g.keyStore != nil {
		if err = g.loadEncryptionKey(ctx); err != nil {
			return
		}
	}
	g.log.WithField("driver", g.driver.Name()).WithField("testMode", g.driver.IsTestMode()).Info("initialised payment gateway client")
	return
}

func (g *Gateway) loadEncryptionKey(ctx context.Context) (err error) {
	var key *RsaPublicKey
	var pemKey string
	log := g.log.WithField("operation", "loadEncryptionKey")
	if key, pemKey, err = loadPublicKey(ctx, log, g.keyStore.store, g.keyStore.bucket, g.keyStore.path); err != nil {
		return api.NewError(api.ConfigurationError, "", err, "invalid encryption public key")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.encrypter, g.creds.EncryptionPublicKey = key, pemKey
	return
}

func (g *Gateway) setEncryptionPublicKey(pemKey string) (err error) {
	var key *RsaPublicKey
	if pemKey != "" {
		if key, err = Keys.Rsa.ParsePublicPem(pemKey); err != nil {
			return api.NewError(api.ConfigurationError, "", err, "invalid encryption public key")
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.encrypter, g.creds.EncryptionPublicKey = key, pemKey
	return
}

type snapshot struct {
	creds     Credentials
	encrypter *RsaPublicKey
	encoding  string
	driver    Driver
}

func (g *Gateway) snapshot() snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return snapshot{creds: g.creds, encrypter: g.encrypter, encoding: g.encoding, driver: g.driver}
}

func (g *Gateway) StoreName() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.creds.StoreName
}

func (g *Gateway) ApiKey() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.creds.ApiKey
}

func (g *Gateway) SetCredentials(storeName, apiKey string) *Gateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.creds.StoreName, g.creds.ApiKey = storeName, apiKey
	return g
}

func (g *Gateway) EncryptionPublicKey() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.creds.EncryptionPublicKey
}

// SetEncryptionPublicKey replaces the PEM encoded key used on Init extra
// data. An empty key removes it.
func (g *Gateway) SetEncryptionPublicKey(pemKey string) error {
	return g.setEncryptionPublicKey(pemKey)
}

func (g *Gateway) IsTestMode() bool {
	return g.Driver().IsTestMode()
}

func (g *Gateway) SetTestMode(testMode bool) *Gateway {
	g.Driver().SetTestMode(testMode)
	return g
}

func (g *Gateway) CharacterEncoding() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.encoding
}

func (g *Gateway) SetCharacterEncoding(encoding string) *Gateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.encoding = encoding
	return g
}

func (g *Gateway) Driver() Driver {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.driver
}

func (g *Gateway) SetDriver(driver Driver) *Gateway {
	if driver == nil {
		return g
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.driver = driver
	return g
}

// Request sends req through the active driver. Transport and parsing
// failures come back as *api.Error; a reply with result code ERROR is a
// normal envelope.
func (g *Gateway) Request(ctx context.Context, req api.Request) (out api.Envelope, err error) {
	var payload api.Payload
	snap := g.snapshot()
	if payload, err = g.prepare(snap, req); err != nil {
		return
	}
	call := callInfo{
		requestID: g.log.getRequestID(ctx),
		storeName: snap.creds.StoreName,
		transport: snap.driver.Name(),
		method:    payload.MethodName(),
		url:       snap.driver.ApiUrl(),
	}
	started := time.Now()
	rowID := g.log.Request(ctx, call, payload.Fields())
	out, err = snap.driver.Send(ctx, snap.creds, payload)
	g.metrics.observe(call.transport, call.method, started, out, err)
	g.log.Response(ctx, call, rowID, out, err)
	return
}

// RequestAndRedirect sends req and returns the url the customer must be
// redirected to. Performing the redirect is left to the caller.
func (g *Gateway) RequestAndRedirect(ctx context.Context, req api.RedirectRequest) (redirectUrl string, err error) {
	var res api.Envelope
	if res, err = g.Request(ctx, req); err != nil {
		return
	} else if redirectUrl = res.RedirectUrl(); redirectUrl == "" {
		return "", api.ParseError(req.Method(), res.Err(), "%s response carries no redirect url", req.Method())
	}
	return
}

// StartUrl is the page that starts the payment of an initialised
// transaction.
func (g *Gateway) StartUrl(transactionId string) string {
	query := url.Values{"TransactionId": []string{transactionId}}
	return endpointStart.Url(g.Driver().ApiUrl()) + "?" + query.Encode()
}

// prepare builds the payload of req. The store name and the encrypted Init
// extra data are set on the payload, never on req.
func (g *Gateway) prepare(snap snapshot, req api.Request) (out api.Payload, err error) {
	if req == nil {
		return out, api.ConfigError("", "request is nil")
	} else if err = snap.creds.check(req.Method()); err != nil {
		return
	} else if out, err = api.Build(req); err != nil {
		return
	}
	if schema, _ := api.SchemaOf(out.MethodName()); schema.Declares("storeName") {
		if name, _ := out.Get("storeName"); name == nil || name == "" {
			if out, err = out.With("storeName", snap.creds.StoreName); err != nil {
				return
			}
		}
	}
	if initReq, ok := req.(*api.Init); ok {
		var enc api.Encrypter
		var extra string
		if snap.encrypter != nil {
			enc = snap.encrypter
		}
		if extra, err = initReq.EncryptedExtra(enc); err != nil {
			return
		} else if extra != "" {
			if out, err = out.With("extra", extra); err != nil {
				return
			}
		}
	}
	return out.Encode(snap.encoding)
}
