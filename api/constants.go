package api

const (
	SdkName    = "Go-SDK"
	SdkVersion = "2.6.2"

	CharacterEncodingDefault = "UTF-8"
)

// Method is the request-type tag routed to a REST action or SOAP operation.
// Values must match the remote API verbatim.
type Method string

const (
	MethodInit                          Method = "Init"
	MethodStart                         Method = "Start"
	MethodResult                        Method = "Result"
	MethodClose                         Method = "Close"
	MethodRefund                        Method = "Refund"
	MethodLog                           Method = "Log"
	MethodDetails                       Method = "Details"
	MethodProviders                     Method = "Providers"
	MethodPayout                        Method = "Payout"
	MethodFinalize                      Method = "Finalize"
	MethodOneClickOptions               Method = "OneClickOptions"
	MethodOneClickTokenCancel           Method = "OneClickTokenCancel"
	MethodCancelPaymentRegistration     Method = "CancelPaymentRegistration"
	MethodCancelAllPaymentRegistrations Method = "CancelAllPaymentRegistrations"
)

func (m Method) String() string {
	return string(m)
}

// Settling reports whether the gateway may take minutes to answer m.
func (m Method) Settling() bool {
	return m == MethodClose || m == MethodRefund
}

type ResultCode string

const (
	ResultSuccess    ResultCode = "SUCCESSFUL"
	ResultError      ResultCode = "ERROR"
	ResultPending    ResultCode = "PENDING"
	ResultUserCancel ResultCode = "CANCELED"
	ResultTimeout    ResultCode = "TIMEOUT"
	ResultOpen       ResultCode = "OPEN"
)

func (c ResultCode) String() string {
	return string(c)
}

const (
	ProviderAbaqoos         = "ABAQOOS"
	ProviderBarion          = "Barion"
	ProviderBorgun          = "Borgun"
	ProviderCib             = "CIB"
	ProviderEscalion        = "Escalion"
	ProviderFhb             = "FHB"
	ProviderKhb             = "KHB"
	ProviderKhbSzep         = "KHBSZEP"
	ProviderMkbSzep         = "MKBSZEP"
	ProviderOtp             = "OTP"
	ProviderOtpTwoParty     = "OTP2"
	ProviderOtpMultipont    = "OTPMultipont"
	ProviderOtpSimple       = "OTPSimple"
	ProviderOtpSimpleWire   = "OTPSimpleWire"
	ProviderOtpay           = "OTPay"
	ProviderOtpayMasterpass = "OTPayMP"
	ProviderPaypal          = "PayPal"
	ProviderPaysafecard     = "PSC"
	ProviderPayu2           = "PayU2"
	ProviderSaferpay        = "Saferpay"
	ProviderSms             = "SMS"
	ProviderSofort          = "Sofort"
	ProviderUnicredit       = "UniCredit"
	ProviderWirecardQpay    = "QPAY"
)
