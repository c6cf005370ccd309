package client

import (
	"fmt"
	"net/http"
)

var (
	endpointRest  = Endpoint{http.MethodPost, "api/rest/"}
	endpointSoap  = Endpoint{http.MethodPost, "api/soap/"}
	endpointWsdl  = Endpoint{http.MethodGet, "api/soap/?wsdl"}
	endpointStart = Endpoint{http.MethodGet, "Start"}
)

type Endpoint struct {
	Method string
	Uri    string
}

func (e Endpoint) Url(host string) string {
	return fmt.Sprintf("%s/%s", host, e.Uri)
}
