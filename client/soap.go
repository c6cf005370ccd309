package client

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/kod2ulz/bigfish-paymentgateway/api"
)

const (
	Soap12Namespace   = "http://www.w3.org/2003/05/soap-envelope"
	Soap12ContentType = "application/soap+xml; charset=utf-8"
	xsiNamespace      = "http://www.w3.org/2001/XMLSchema-instance"
)

// WithSoapUcFirst sends SOAP request fields under their upper-first wire
// names instead of the declared names.
func WithSoapUcFirst(ucFirst bool) DriverOption {
	return func(o *driverOptions) {
		o.soapUcFirst = ucFirst
	}
}

// WithSoapNamespace sets the target namespace of the operation elements.
// Defaults to the soap endpoint url.
func WithSoapNamespace(ns string) DriverOption {
	return func(o *driverOptions) {
		o.soapNs = ns
	}
}

// SoapDriver calls the method-named SOAP 1.2 operation of the gateway with
// the payload as its single request parameter.
type SoapDriver struct {
	baseDriver
	client *resty.Client
}

func NewSoapDriver(opts ...DriverOption) *SoapDriver {
	d := &SoapDriver{}
	d.init(opts)
	d.client = d.opts.httpClient(DriverSoap)
	return d
}

func (d *SoapDriver) Name() string {
	return DriverSoap
}

func (d *SoapDriver) Url() string {
	return endpointSoap.Url(d.ApiUrl())
}

func (d *SoapDriver) WsdlUrl() string {
	return endpointWsdl.Url(d.ApiUrl())
}

func (d *SoapDriver) namespace() string {
	if d.opts.soapNs != "" {
		return d.opts.soapNs
	}
	return d.Url()
}

func (d *SoapDriver) Send(ctx context.Context, creds Credentials, payload api.Payload) (out api.Envelope, err error) {
	var body []byte
	var res *resty.Response
	method := payload.MethodName()
	if err = creds.check(method); err != nil {
		return
	} else if body, err = d.envelope(payload); err != nil {
		return nil, api.NewError(api.ConfigurationError, method, err, "failed to encode %s request", method)
	}

	ctx, cancel := context.WithTimeout(ctx, d.opts.timeoutFor(method))
	defer cancel()

	contentType := fmt.Sprintf(`%s; action="%s%s"`, Soap12ContentType, d.namespace(), method)
	if res, err = d.request(ctx, d.client, creds, "SOAP", method).
		SetHeader(HEADER_CONTENT_TYPE, contentType).
		SetBody(body).
		Post(d.Url()); err != nil {
		return nil, api.CommunicationError(method, err)
	}
	return d.decode(method, res)
}

func (d *SoapDriver) envelope(payload api.Payload) ([]byte, error) {
	fields := payload.Fields()
	if d.opts.soapUcFirst {
		fields = payload.Wire()
	}
	env := soapEnvelope{
		Soap: Soap12Namespace,
		Body: soapBody{Operation: soapOperation{
			XMLName: xml.Name{Local: payload.MethodName().String()},
			Xmlns:   d.namespace(),
			Request: soapFields(fields),
		}},
	}
	buf := bytes.NewBufferString(xml.Header)
	if err := xml.NewEncoder(buf).Encode(env); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *SoapDriver) decode(method api.Method, res *resty.Response) (out api.Envelope, err error) {
	var root xmlNode
	if err = xml.Unmarshal(res.Body(), &root); err != nil {
		if !res.IsSuccess() {
			return nil, statusError(method, res)
		}
		return nil, api.ParseError(method, err, "invalid %s SOAP response %q", method, api.Excerpt(res.Body()))
	}
	body := root.find("Body")
	if body == nil && !res.IsSuccess() {
		return nil, statusError(method, res)
	} else if body == nil {
		return nil, api.ParseError(method, nil, "SOAP response has no body")
	} else if fault := body.find("Fault"); fault != nil {
		e := api.NewError(api.TransportError, method, nil, "SOAP fault: %s", fault.reason())
		e.Status = res.StatusCode()
		return nil, e
	} else if !res.IsSuccess() {
		return nil, statusError(method, res)
	}
	result := body.find(method.String() + "Result")
	if result == nil {
		return nil, api.ParseError(method, nil, "SOAP response has no %sResult element", method)
	}
	return api.FromFields(result.fields()), nil
}

type soapEnvelope struct {
	XMLName xml.Name `xml:"soap12:Envelope"`
	Soap    string   `xml:"xmlns:soap12,attr"`
	Body    soapBody `xml:"soap12:Body"`
}

type soapBody struct {
	Operation soapOperation
}

type soapOperation struct {
	XMLName xml.Name
	Xmlns   string     `xml:"xmlns,attr,omitempty"`
	Request soapFields `xml:"request"`
}

type soapFields api.Fields

func (f soapFields) MarshalXML(e *xml.Encoder, start xml.StartElement) (err error) {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if err = e.EncodeToken(start); err != nil {
		return
	}
	for _, k := range keys {
		if err = e.EncodeElement(soapValue(f[k]), xml.StartElement{Name: xml.Name{Local: k}}); err != nil {
			return errors.Wrapf(err, "failed to encode field %s", k)
		}
	}
	return e.EncodeToken(start.End())
}

func soapValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	default:
		return fmt.Sprint(val)
	}
}

// xmlNode is a schema-less view of a SOAP reply.
type xmlNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Content string     `xml:",chardata"`
	Nodes   []xmlNode  `xml:",any"`
}

func (n *xmlNode) find(local string) *xmlNode {
	if n.XMLName.Local == local {
		return n
	}
	for i := range n.Nodes {
		if found := n.Nodes[i].find(local); found != nil {
			return found
		}
	}
	return nil
}

func (n *xmlNode) isNil() bool {
	for _, a := range n.Attrs {
		if a.Name.Local == "nil" && (a.Name.Space == xsiNamespace || a.Name.Space == "xsi") {
			return a.Value == "true" || a.Value == "1"
		}
	}
	return false
}

// fields maps child elements by local name. Repeated elements are collected
// into a list in document order.
func (n *xmlNode) fields() map[string]any {
	out := make(map[string]any, len(n.Nodes))
	for i := range n.Nodes {
		child := &n.Nodes[i]
		name, value := child.XMLName.Local, child.value()
		prev, seen := out[name]
		if list, ok := prev.([]any); ok {
			out[name] = append(list, value)
		} else if seen {
			out[name] = []any{prev, value}
		} else {
			out[name] = value
		}
	}
	return out
}

func (n *xmlNode) value() any {
	switch {
	case n.isNil():
		return nil
	case len(n.Nodes) == 0:
		return strings.TrimSpace(n.Content)
	default:
		return n.fields()
	}
}

// reason reads the fault text of SOAP 1.2 (Reason/Text) and SOAP 1.1
// (faultstring) faults.
func (n *xmlNode) reason() string {
	for _, local := range []string{"Text", "faultstring", "Reason"} {
		if node := n.find(local); node != nil {
			if text := strings.TrimSpace(node.Content); text != "" {
				return text
			}
		}
	}
	return "unknown fault"
}
