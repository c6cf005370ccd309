package client_test

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	json "github.com/json-iterator/go"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kod2ulz/bigfish-paymentgateway/api"
	"github.com/kod2ulz/bigfish-paymentgateway/client"
)

type capturedRequest struct {
	path          string
	method        string
	json          map[string]any
	authorization string
	userAgent     string
	referer       string
}

type fakeRestGateway struct {
	mu       sync.Mutex
	requests []capturedRequest
	status   int
	body     string
	delay    time.Duration
}

func (f *fakeRestGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer GinkgoRecover()
	Expect(r.ParseForm()).To(Succeed())
	captured := capturedRequest{
		path:          r.URL.Path,
		method:        r.PostForm.Get("method"),
		authorization: r.Header.Get("Authorization"),
		userAgent:     r.Header.Get("User-Agent"),
		referer:       r.Header.Get("Referer"),
	}
	Expect(json.Unmarshal([]byte(r.PostForm.Get("json")), &captured.json)).To(Succeed())
	f.mu.Lock()
	f.requests = append(f.requests, captured)
	status, body, delay := f.status, f.body, f.delay
	f.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func (f *fakeRestGateway) last() capturedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	Expect(f.requests).NotTo(BeEmpty())
	return f.requests[len(f.requests)-1]
}

var _ = Describe("Rest Driver", func() {

	var (
		ctx    context.Context
		fake   *fakeRestGateway
		server *httptest.Server
		driver *client.RestDriver
		creds  client.Credentials
	)

	BeforeEach(func() {
		ctx = context.Background()
		fake = &fakeRestGateway{body: `{"resultCode":"SUCCESSFUL","transactionId":"abc123"}`}
		server = httptest.NewServer(fake)
		driver = client.NewRestDriver(
			client.WithHosts(server.URL, server.URL),
			client.WithHttpHost("shop.example"),
			client.WithDriverLogger(quietLogger()),
		)
		creds = client.Credentials{StoreName: "store1", ApiKey: "key1"}
	})

	AfterEach(func() {
		server.Close()
	})

	send := func(req api.Request) (api.Envelope, error) {
		payload, err := api.Build(req)
		Expect(err).To(BeNil())
		return driver.Send(ctx, creds, payload)
	}

	Context("Base url", func() {

		It("selects the test host in test mode", func() {
			d := client.NewRestDriver(client.WithDriverTestMode(true))
			Expect(d.IsTestMode()).To(BeTrue())
			Expect(d.ApiUrl()).To(Equal("https://test.paymentgateway.hu"))
		})

		It("selects the production host outside test mode", func() {
			d := client.NewRestDriver()
			d.SetTestMode(false)
			Expect(d.IsTestMode()).To(BeFalse())
			Expect(d.ApiUrl()).To(Equal("https://www.paymentgateway.hu"))
			Expect(d.Url()).To(Equal("https://www.paymentgateway.hu/api/rest/"))
		})
	})

	Context("Authorization", func() {

		It("is basic auth of store name and api key", func() {
			expected := "Basic " + base64.StdEncoding.EncodeToString([]byte("store1:key1"))
			Expect(creds.Authorization()).To(Equal(expected))

			_, err := send(api.NewLog("tx-42"))
			Expect(err).To(BeNil())
			Expect(fake.last().authorization).To(Equal(expected))
		})

		It("refuses to send without credentials", func() {
			payload, err := api.Build(api.NewLog("tx-42"))
			Expect(err).To(BeNil())
			_, err = driver.Send(ctx, client.Credentials{}, payload)
			Expect(api.IsKind(err, api.ConfigurationError)).To(BeTrue())
		})
	})

	Context("Dispatch", func() {

		It("posts method and upper-first json fields to the rest endpoint", func() {
			res, err := send(api.NewLog("tx-42"))
			Expect(err).To(BeNil())

			req := fake.last()
			Expect(req.path).To(Equal("/api/rest/"))
			Expect(req.method).To(Equal("Log"))
			Expect(req.json).To(Equal(map[string]any{"TransactionId": "tx-42"}))
			Expect(req.userAgent).To(Equal("BIG FISH Payment Gateway Rest Client v" + api.SdkVersion + " (Log - shop.example)"))
			Expect(req.referer).To(Equal("shop.example"))

			Expect(res["ResultCode"]).To(Equal("SUCCESSFUL"))
			Expect(res.TransactionId()).To(Equal("abc123"))
		})

		It("returns ERROR replies as envelopes", func() {
			fake.body = `{"resultCode":"ERROR","resultMessage":"Invalid transaction"}`
			res, err := send(api.NewLog("tx-42"))
			Expect(err).To(BeNil())
			Expect(res.ResultCode()).To(Equal(api.ResultError))
			Expect(res.Err()).NotTo(BeNil())
		})

		It("reports non-success statuses as transport errors", func() {
			fake.status = http.StatusServiceUnavailable
			_, err := send(api.NewLog("tx-42"))
			Expect(api.IsKind(err, api.TransportError)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("503"))
		})

		It("reports malformed replies as protocol errors", func() {
			fake.body = `not json`
			_, err := send(api.NewLog("tx-42"))
			Expect(api.IsKind(err, api.ProtocolError)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("not json"))
		})

		It("reports refused connections with the underlying message", func() {
			server.Close()
			_, err := send(api.NewLog("tx-42"))
			Expect(err).NotTo(BeNil())
			Expect(api.IsKind(err, api.TransportError)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("Communication error"))
			Expect(err.Error()).To(ContainSubstring("connection refused"))
		})
	})

	Context("Timeouts", func() {

		BeforeEach(func() {
			fake.delay = 300 * time.Millisecond
			driver = client.NewRestDriver(
				client.WithHosts(server.URL, server.URL),
				client.WithTimeouts(50*time.Millisecond, 5*time.Second),
				client.WithDriverLogger(quietLogger()),
			)
		})

		It("gives up on ordinary calls after the short timeout", func() {
			_, err := send(api.NewLog("tx-42"))
			Expect(api.IsKind(err, api.TransportError)).To(BeTrue())
		})

		It("allows settling calls the long timeout", func() {
			_, err := send(api.NewClose("tx-42", true))
			Expect(err).To(BeNil())
			Expect(fake.last().json).To(HaveKeyWithValue("Approved", true))
		})
	})

	Context("Driver registry", func() {

		It("knows rest and soap", func() {
			d, err := client.NewDriver("REST")
			Expect(err).To(BeNil())
			Expect(d.Name()).To(Equal(client.DriverRest))
			d, err = client.NewDriver("soap")
			Expect(err).To(BeNil())
			Expect(d.Name()).To(Equal(client.DriverSoap))
		})

		It("rejects unknown api types", func() {
			_, err := client.NewDriver("grpc")
			Expect(api.IsKind(err, api.ConfigurationError)).To(BeTrue())
			Expect(err.Error()).To(Equal("Invalid API type (grpc)"))
		})
	})
})
