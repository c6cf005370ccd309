package client_test

import (
	"context"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kod2ulz/bigfish-paymentgateway/api"
	"github.com/kod2ulz/bigfish-paymentgateway/client"
)

var _ = Describe("GatewayConfig", func() {

	var conf *client.GatewayConfig

	BeforeEach(func() {
		conf = &client.GatewayConfig{
			StoreName:         "sdk_test",
			ApiKey:            "86af3-80e4f-f8228-9498f-910ad",
			ApiType:           client.DriverSoap,
			TestMode:          false,
			CharacterEncoding: "ISO-8859-2",
			Timeout:           10 * time.Second,
			LongTimeout:       time.Minute,
		}
	})

	It("accepts a complete configuration", func() {
		Expect(conf.Validate()).To(Succeed())
	})

	DescribeTable("rejects invalid settings",
		func(mutate func(*client.GatewayConfig)) {
			mutate(conf)
			err := conf.Validate()
			Expect(api.IsKind(err, api.ConfigurationError)).To(BeTrue())
		},
		Entry("missing store name", func(c *client.GatewayConfig) { c.StoreName = "" }),
		Entry("missing api key", func(c *client.GatewayConfig) { c.ApiKey = "" }),
		Entry("unknown api type", func(c *client.GatewayConfig) { c.ApiType = "grpc" }),
		Entry("zero timeout", func(c *client.GatewayConfig) { c.Timeout = 0 }),
		Entry("settling timeout below timeout", func(c *client.GatewayConfig) { c.LongTimeout = time.Second }),
		Entry("key bucket without path", func(c *client.GatewayConfig) { c.KeyBucket = "keys" }),
	)

	It("rejects a nil configuration", func() {
		var empty *client.GatewayConfig
		Expect(api.IsKind(empty.Validate(), api.ConfigurationError)).To(BeTrue())
	})

	It("configures the gateway", func() {
		gateway, err := client.NewGateway(context.Background(), quietLogger(), client.WithConfig(conf))
		Expect(err).To(BeNil())
		Expect(gateway.StoreName()).To(Equal("sdk_test"))
		Expect(gateway.CharacterEncoding()).To(Equal("ISO-8859-2"))
		Expect(gateway.Driver().Name()).To(Equal(client.DriverSoap))
		Expect(gateway.IsTestMode()).To(BeFalse())
		Expect(gateway.Driver().ApiUrl()).To(Equal(client.GatewayUrlProduction))
	})

	It("does not build a gateway from an invalid configuration", func() {
		conf.ApiKey = ""
		_, err := client.NewGateway(context.Background(), quietLogger(), client.WithConfig(conf))
		Expect(api.IsKind(err, api.ConfigurationError)).To(BeTrue())
	})

	Context("from the environment", func() {

		setenv := func(vars map[string]string) {
			for k, v := range vars {
				Expect(os.Setenv(k, v)).To(Succeed())
				DeferCleanup(os.Unsetenv, k)
			}
		}

		BeforeEach(func() {
			setenv(map[string]string{
				"BIGFISH_GATEWAY_STORE_NAME": "sdk_test",
				"BIGFISH_GATEWAY_API_KEY":    "86af3-80e4f-f8228-9498f-910ad",
			})
		})

		It("reads the journal and listener settings", func() {
			setenv(map[string]string{
				"BIGFISH_GATEWAY_JOURNAL":           "true",
				"BIGFISH_GATEWAY_JOURNAL_RETENTION": "24h",
				"BIGFISH_GATEWAY_LISTEN_ADDR":       ":9999",
			})
			loaded := client.NewGatewayConfig()
			Expect(loaded.StoreName).To(Equal("sdk_test"))
			Expect(loaded.Journal).To(BeTrue())
			Expect(loaded.JournalRetention).To(Equal(24 * time.Hour))
			Expect(loaded.ListenAddr).To(Equal(":9999"))
		})

		It("falls back to the defaults", func() {
			loaded := client.NewGatewayConfig()
			Expect(loaded.ApiType).To(Equal(client.DriverRest))
			Expect(loaded.TestMode).To(BeTrue())
			Expect(loaded.Timeout).To(Equal(client.DefaultTimeout))
			Expect(loaded.LongTimeout).To(Equal(client.DefaultLongTimeout))
			Expect(loaded.JournalRetention).To(BeZero())
			Expect(loaded.ListenAddr).To(Equal(":8080"))
			Expect(loaded.Validate()).To(Succeed())
		})
	})
})
