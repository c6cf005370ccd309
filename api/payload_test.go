package api_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/text/encoding/charmap"

	"github.com/kod2ulz/bigfish-paymentgateway/api"
)

type reverser struct{}

func (reverser) Encrypt(plain []byte) ([]byte, error) {
	out := make([]byte, len(plain))
	for i := range plain {
		out[len(plain)-1-i] = plain[i]
	}
	return out, nil
}

type failingEncrypter struct{}

func (failingEncrypter) Encrypt([]byte) ([]byte, error) {
	return nil, errors.New("key too short")
}

var _ = Describe("Request Payload", func() {

	Context("Method tags", func() {

		DescribeTable("match the remote api verbatim",
			func(req api.Request, tag string) {
				Expect(string(req.Method())).To(Equal(tag))
				payload, err := api.Build(req)
				Expect(err).To(BeNil())
				Expect(string(payload.MethodName())).To(Equal(tag))
			},
			Entry("init", api.NewInit(api.ProviderOtp, "https://shop.example/back", 1000, "HUF"), "Init"),
			Entry("result", api.NewResult("tx"), "Result"),
			Entry("close", api.NewClose("tx", true), "Close"),
			Entry("refund", api.NewRefund("tx", 10), "Refund"),
			Entry("log", api.NewLog("tx"), "Log"),
			Entry("details", api.NewDetails("tx"), "Details"),
			Entry("providers", api.NewProviders(), "Providers"),
			Entry("payout", api.NewPayout(api.PayoutTypeFundsDisbursement, "tx", "order-1", 10, "HUF"), "Payout"),
			Entry("finalize", api.NewFinalize("tx", 10), "Finalize"),
			Entry("one click options", api.NewOneClickOptions(api.ProviderOtp, "user-1"), "OneClickOptions"),
			Entry("one click token cancel", api.NewOneClickTokenCancel("tx"), "OneClickTokenCancel"),
			Entry("cancel payment registration", api.NewCancelPaymentRegistration("tx"), "CancelPaymentRegistration"),
			Entry("cancel all payment registrations", api.NewCancelAllPaymentRegistrations(api.ProviderOtp, "user-1"), "CancelAllPaymentRegistrations"),
		)

		It("flags close and refund as settling", func() {
			Expect(api.MethodClose.Settling()).To(BeTrue())
			Expect(api.MethodRefund.Settling()).To(BeTrue())
			Expect(api.MethodLog.Settling()).To(BeFalse())
		})
	})

	Context("Log request", func() {

		It("carries only the transaction id", func() {
			payload, err := api.Build(api.NewLog("tx-42"))
			Expect(err).To(BeNil())
			Expect(payload.MethodName()).To(Equal(api.MethodLog))
			Expect(payload.Fields()).To(Equal(api.Fields{"transactionId": "tx-42"}))
		})

		It("renames fields only on the wire", func() {
			payload, err := api.Build(api.NewLog("tx-42"))
			Expect(err).To(BeNil())
			Expect(payload.Wire()).To(Equal(api.Fields{"TransactionId": "tx-42"}))
			Expect(payload.Fields()).To(HaveKey("transactionId"))
		})

		It("rejects an empty transaction id", func() {
			_, err := api.Build(api.NewLog(""))
			Expect(err).NotTo(BeNil())
			Expect(api.IsKind(err, api.ConfigurationError)).To(BeTrue())
		})
	})

	Context("Payload immutability", func() {

		It("hands out copies of its fields", func() {
			payload, err := api.Build(api.NewLog("tx-1"))
			Expect(err).To(BeNil())
			fields := payload.Fields()
			fields["transactionId"] = "changed"
			Expect(payload.Fields()["transactionId"]).To(Equal("tx-1"))
		})

		It("returns a new payload from With", func() {
			payload, err := api.Build(api.NewRefund("tx-1", 10))
			Expect(err).To(BeNil())
			updated, err := payload.With("amount", 20.0)
			Expect(err).To(BeNil())
			Expect(updated.Fields()["amount"]).To(Equal(20.0))
			Expect(payload.Fields()["amount"]).To(Equal(10.0))
		})

		It("refuses undeclared fields", func() {
			payload, err := api.Build(api.NewLog("tx-1"))
			Expect(err).To(BeNil())
			_, err = payload.With("amount", 20.0)
			Expect(api.IsKind(err, api.ConfigurationError)).To(BeTrue())

			_, err = api.NewPayload(api.MethodLog, api.Fields{"transactionId": "tx", "bogus": 1})
			Expect(err).To(MatchError(ContainSubstring(`field "bogus" is not declared`)))
		})

		It("refuses unknown methods", func() {
			_, err := api.NewPayload(api.Method("Nope"), api.Fields{})
			Expect(api.IsKind(err, api.ConfigurationError)).To(BeTrue())
		})
	})

	Context("Value encoding", func() {

		latin2 := func(s string) string {
			out, err := charmap.ISO8859_2.NewEncoder().String(s)
			Expect(err).To(BeNil())
			return out
		}

		It("converts strings from the configured charset into utf-8", func() {
			payload, err := api.NewPayload(api.MethodLog, api.Fields{"transactionId": latin2("árvíztűrő")})
			Expect(err).To(BeNil())
			encoded, err := payload.EncodedFields("ISO-8859-2")
			Expect(err).To(BeNil())
			Expect(encoded["transactionId"]).To(Equal("árvíztűrő"))
		})

		It("is idempotent", func() {
			payload, err := api.NewPayload(api.MethodRefund, api.Fields{
				"transactionId": latin2("tűzoltó"), "amount": 12.5,
			})
			Expect(err).To(BeNil())
			once, err := payload.Encode("ISO-8859-2")
			Expect(err).To(BeNil())
			twice, err := once.Encode("ISO-8859-2")
			Expect(err).To(BeNil())
			Expect(twice.Fields()).To(Equal(once.Fields()))
		})

		It("drops nil values and keeps other scalars", func() {
			encoded, err := api.EncodeValues(api.Fields{"a": nil, "b": true, "c": 3, "d": "x"}, "")
			Expect(err).To(BeNil())
			Expect(encoded).To(Equal(api.Fields{"b": true, "c": 3, "d": "x"}))
		})

		It("fails on an unknown character set", func() {
			_, err := api.EncodeValues(api.Fields{"a": "b"}, "klingon-1")
			Expect(err).To(MatchError(ContainSubstring("unsupported character encoding")))
		})
	})

	Context("Init request", func() {

		It("requires a provider and a response url", func() {
			_, err := api.Build(api.NewInit("", "not a url", 10, "HUF"))
			Expect(api.IsKind(err, api.ConfigurationError)).To(BeTrue())
		})

		It("leaves extra out when there is none", func() {
			req := api.NewInit(api.ProviderOtp, "https://shop.example/back", 1000, "HUF")
			Expect(req.SetExtra(nil)).To(Succeed())
			Expect(req.Fields()).NotTo(HaveKey("extra"))
		})

		It("encrypts extra data", func() {
			req := api.NewInit(api.ProviderOtp, "https://shop.example/back", 1000, "HUF")
			req.Extra = map[string]any{"a": 1}
			Expect(req.SetExtra(reverser{})).To(Succeed())
			// base64 of the reversed json `{"a":1}`
			Expect(req.Fields()["extra"]).To(Equal("fTE6ImEiew=="))
		})

		It("returns the encrypted extra data without storing it", func() {
			req := api.NewInit(api.ProviderOtp, "https://shop.example/back", 1000, "HUF")
			req.Extra = map[string]any{"a": 1}
			extra, err := req.EncryptedExtra(reverser{})
			Expect(err).To(BeNil())
			Expect(extra).To(Equal("fTE6ImEiew=="))
			Expect(req.Fields()).NotTo(HaveKey("extra"))
		})

		It("needs an encrypter for extra data", func() {
			req := api.NewInit(api.ProviderOtp, "https://shop.example/back", 1000, "HUF")
			req.Extra = map[string]any{"a": 1}
			Expect(api.IsKind(req.SetExtra(nil), api.ConfigurationError)).To(BeTrue())
			Expect(req.SetExtra(failingEncrypter{})).To(MatchError(ContainSubstring("key too short")))
		})
	})

	Context("Schema", func() {

		It("declares upper-first wire names", func() {
			schema, ok := api.SchemaOf(api.MethodPayout)
			Expect(ok).To(BeTrue())
			Expect(schema["referenceTransactionId"]).To(Equal("ReferenceTransactionId"))
		})

		It("uppercases only the first letter", func() {
			Expect(api.UcFirst("transactionId")).To(Equal("TransactionId"))
			Expect(api.UcFirst("ResultCode")).To(Equal("ResultCode"))
			Expect(api.UcFirst("")).To(Equal(""))
		})
	})
})
