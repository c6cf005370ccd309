package client

import (
	"context"

	"github.com/go-resty/resty/v2"
	json "github.com/json-iterator/go"

	"github.com/kod2ulz/bigfish-paymentgateway/api"
)

// RestDriver posts payloads as a json form field to {baseUrl}/api/rest/.
type RestDriver struct {
	baseDriver
	client *resty.Client
}

func NewRestDriver(opts ...DriverOption) *RestDriver {
	d := &RestDriver{}
	d.init(opts)
	d.client = d.opts.httpClient(DriverRest)
	return d
}

func (d *RestDriver) Name() string {
	return DriverRest
}

func (d *RestDriver) Url() string {
	return endpointRest.Url(d.ApiUrl())
}

func (d *RestDriver) Send(ctx context.Context, creds Credentials, payload api.Payload) (out api.Envelope, err error) {
	var body []byte
	var res *resty.Response
	method := payload.MethodName()
	if err = creds.check(method); err != nil {
		return
	} else if body, err = json.Marshal(payload.Wire()); err != nil {
		return nil, api.NewError(api.ConfigurationError, method, err, "failed to encode %s request", method)
	}

	ctx, cancel := context.WithTimeout(ctx, d.opts.timeoutFor(method))
	defer cancel()

	if res, err = d.request(ctx, d.client, creds, "Rest", method).
		SetFormData(map[string]string{
			"method": method.String(),
			"json":   string(body),
		}).
		Post(d.Url()); err != nil {
		return nil, api.CommunicationError(method, err)
	} else if !res.IsSuccess() {
		return nil, statusError(method, res)
	}
	return api.DecodeJSON(method, res.Body())
}
