package api

import (
	"encoding/base64"

	json "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var schemas = map[Method]Schema{
	MethodInit: NewSchema("storeName", "providerName", "responseUrl", "amount", "orderId", "userId",
		"currency", "language", "autoCommit", "oneClickPayment", "oneClickReferenceId",
		"notificationUrl", "gatewayPaymentPage", "moduleName", "moduleVersion", "extra"),
	MethodResult:                        NewSchema("transactionId"),
	MethodClose:                         NewSchema("transactionId", "approved", "approvedAmount"),
	MethodRefund:                        NewSchema("transactionId", "amount"),
	MethodLog:                           NewSchema("transactionId"),
	MethodDetails:                       NewSchema("transactionId"),
	MethodProviders:                     NewSchema(),
	MethodPayout:                        NewSchema("storeName", "payoutType", "referenceTransactionId", "amount", "orderId", "userId", "currency"),
	MethodFinalize:                      NewSchema("transactionId", "amount"),
	MethodOneClickOptions:               NewSchema("storeName", "providerName", "userId"),
	MethodOneClickTokenCancel:           NewSchema("transactionId"),
	MethodCancelPaymentRegistration:     NewSchema("transactionId"),
	MethodCancelAllPaymentRegistrations: NewSchema("storeName", "providerName", "userId"),
}

// SchemaOf returns the declared field table of method.
func SchemaOf(method Method) (Schema, bool) {
	s, ok := schemas[method]
	return s, ok
}

// Encrypter encrypts the extra data of an Init request.
type Encrypter interface {
	Encrypt(plain []byte) ([]byte, error)
}

type Init struct {
	StoreName           string
	ProviderName        string  `validate:"required"`
	ResponseUrl         string  `validate:"required,url"`
	Amount              float64 `validate:"gt=0"`
	OrderId             string
	UserId              string
	Currency            string `validate:"omitempty,len=3"`
	Language            string `validate:"omitempty,len=2"`
	AutoCommit          *bool
	OneClickPayment     bool
	OneClickReferenceId string
	NotificationUrl     string `validate:"omitempty,url"`
	GatewayPaymentPage  bool
	ModuleName          string
	ModuleVersion       string
	Extra               map[string]any

	encryptedExtra string
}

func NewInit(providerName, responseUrl string, amount float64, currency string) *Init {
	return &Init{
		ProviderName:  providerName,
		ResponseUrl:   responseUrl,
		Amount:        amount,
		Currency:      currency,
		Language:      "HU",
		ModuleName:    SdkName,
		ModuleVersion: SdkVersion,
	}
}

func (r *Init) Method() Method { return MethodInit }
func (r *Init) redirect()      {}

// EncryptedExtra returns Extra encrypted with enc and base64 encoded, or ""
// when the request carries no extra data. r is left untouched.
func (r *Init) EncryptedExtra(enc Encrypter) (out string, err error) {
	var plain, cipher []byte
	if len(r.Extra) == 0 {
		return
	} else if enc == nil {
		return "", ConfigError(MethodInit, "encryption public key required to send extra data")
	} else if plain, err = json.Marshal(r.Extra); err != nil {
		return "", errors.Wrap(err, "failed to marshal extra data")
	} else if cipher, err = enc.Encrypt(plain); err != nil {
		return "", NewError(ConfigurationError, MethodInit, err, "failed to encrypt extra data")
	}
	return base64.StdEncoding.EncodeToString(cipher), nil
}

// SetExtra stores the encrypted extra data on r so that Fields carries it.
func (r *Init) SetExtra(enc Encrypter) (err error) {
	var extra string
	if extra, err = r.EncryptedExtra(enc); err != nil {
		return
	}
	r.encryptedExtra = extra
	return
}

func (r *Init) Fields() Fields {
	f := Fields{
		"storeName":          r.StoreName,
		"providerName":       r.ProviderName,
		"responseUrl":        r.ResponseUrl,
		"amount":             r.Amount,
		"orderId":            r.OrderId,
		"userId":             r.UserId,
		"currency":           r.Currency,
		"language":           r.Language,
		"oneClickPayment":    r.OneClickPayment,
		"gatewayPaymentPage": r.GatewayPaymentPage,
		"moduleName":         r.ModuleName,
		"moduleVersion":      r.ModuleVersion,
	}
	if r.AutoCommit != nil {
		f["autoCommit"] = *r.AutoCommit
	}
	if r.OneClickReferenceId != "" {
		f["oneClickReferenceId"] = r.OneClickReferenceId
	}
	if r.NotificationUrl != "" {
		f["notificationUrl"] = r.NotificationUrl
	}
	if r.encryptedExtra != "" {
		f["extra"] = r.encryptedExtra
	}
	return f
}

// transactionRequest is shared by the requests addressing a single
// transaction.
type transactionRequest struct {
	TransactionId string `validate:"required"`
}

func (r transactionRequest) Fields() Fields {
	return Fields{"transactionId": r.TransactionId}
}

type Log struct{ transactionRequest }

func NewLog(transactionId string) *Log {
	return &Log{transactionRequest{TransactionId: transactionId}}
}

func (r *Log) Method() Method { return MethodLog }

type Result struct{ transactionRequest }

func NewResult(transactionId string) *Result {
	return &Result{transactionRequest{TransactionId: transactionId}}
}

func (r *Result) Method() Method { return MethodResult }

type Details struct{ transactionRequest }

func NewDetails(transactionId string) *Details {
	return &Details{transactionRequest{TransactionId: transactionId}}
}

func (r *Details) Method() Method { return MethodDetails }

type OneClickTokenCancel struct{ transactionRequest }

func NewOneClickTokenCancel(transactionId string) *OneClickTokenCancel {
	return &OneClickTokenCancel{transactionRequest{TransactionId: transactionId}}
}

func (r *OneClickTokenCancel) Method() Method { return MethodOneClickTokenCancel }

type CancelPaymentRegistration struct{ transactionRequest }

func NewCancelPaymentRegistration(transactionId string) *CancelPaymentRegistration {
	return &CancelPaymentRegistration{transactionRequest{TransactionId: transactionId}}
}

func (r *CancelPaymentRegistration) Method() Method { return MethodCancelPaymentRegistration }

type Close struct {
	transactionRequest
	Approved       bool
	ApprovedAmount float64 `validate:"gte=0"`
}

// NewClose commits (approved) or voids an authorized transaction.
func NewClose(transactionId string, approved bool) *Close {
	return &Close{transactionRequest: transactionRequest{TransactionId: transactionId}, Approved: approved}
}

func (r *Close) Method() Method { return MethodClose }

func (r *Close) Fields() Fields {
	f := r.transactionRequest.Fields()
	f["approved"] = r.Approved
	if r.ApprovedAmount > 0 {
		f["approvedAmount"] = r.ApprovedAmount
	}
	return f
}

type Refund struct {
	transactionRequest
	Amount float64 `validate:"gt=0"`
}

func NewRefund(transactionId string, amount float64) *Refund {
	return &Refund{transactionRequest: transactionRequest{TransactionId: transactionId}, Amount: amount}
}

func (r *Refund) Method() Method { return MethodRefund }

func (r *Refund) Fields() Fields {
	f := r.transactionRequest.Fields()
	f["amount"] = r.Amount
	return f
}

type Finalize struct {
	transactionRequest
	Amount float64 `validate:"gt=0"`
}

func NewFinalize(transactionId string, amount float64) *Finalize {
	return &Finalize{transactionRequest: transactionRequest{TransactionId: transactionId}, Amount: amount}
}

func (r *Finalize) Method() Method { return MethodFinalize }

func (r *Finalize) Fields() Fields {
	f := r.transactionRequest.Fields()
	f["amount"] = r.Amount
	return f
}

type Providers struct{}

func NewProviders() *Providers {
	return &Providers{}
}

func (r *Providers) Method() Method { return MethodProviders }
func (r *Providers) Fields() Fields { return Fields{} }

const (
	PayoutTypeFundsDisbursement = "FD"
	PayoutTypeGamblingPayout    = "GP"
)

type Payout struct {
	StoreName              string
	PayoutType             string  `validate:"required"`
	ReferenceTransactionId string  `validate:"required"`
	Amount                 float64 `validate:"gt=0"`
	OrderId                string  `validate:"required"`
	UserId                 string
	Currency               string `validate:"omitempty,len=3"`
}

func NewPayout(payoutType, referenceTransactionId, orderId string, amount float64, currency string) *Payout {
	return &Payout{
		PayoutType:             payoutType,
		ReferenceTransactionId: referenceTransactionId,
		OrderId:                orderId,
		Amount:                 amount,
		Currency:               currency,
	}
}

func (r *Payout) Method() Method { return MethodPayout }

func (r *Payout) Fields() Fields {
	return Fields{
		"storeName":              r.StoreName,
		"payoutType":             r.PayoutType,
		"referenceTransactionId": r.ReferenceTransactionId,
		"amount":                 r.Amount,
		"orderId":                r.OrderId,
		"userId":                 r.UserId,
		"currency":               r.Currency,
	}
}

// userProviderRequest addresses the one-click registrations of a user at a
// provider.
type userProviderRequest struct {
	StoreName    string
	ProviderName string `validate:"required"`
	UserId       string `validate:"required"`
}

func (r *userProviderRequest) Fields() Fields {
	return Fields{
		"storeName":    r.StoreName,
		"providerName": r.ProviderName,
		"userId":       r.UserId,
	}
}

type OneClickOptions struct{ userProviderRequest }

func NewOneClickOptions(providerName, userId string) *OneClickOptions {
	return &OneClickOptions{userProviderRequest{ProviderName: providerName, UserId: userId}}
}

func (r *OneClickOptions) Method() Method { return MethodOneClickOptions }

type CancelAllPaymentRegistrations struct{ userProviderRequest }

func NewCancelAllPaymentRegistrations(providerName, userId string) *CancelAllPaymentRegistrations {
	return &CancelAllPaymentRegistrations{userProviderRequest{ProviderName: providerName, UserId: userId}}
}

func (r *CancelAllPaymentRegistrations) Method() Method { return MethodCancelAllPaymentRegistrations }
