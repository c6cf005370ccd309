package web

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kod2ulz/bigfish-paymentgateway/api"
	"github.com/kod2ulz/bigfish-paymentgateway/client"
)

const (
	HEADER_REQUEST_ID = "X-Request-Id"
	ContextRequestID  = "requestId"
)

// Gateway is the part of *client.Gateway the handlers use.
type Gateway interface {
	Request(ctx context.Context, req api.Request) (api.Envelope, error)
	RequestAndRedirect(ctx context.Context, req api.RedirectRequest) (string, error)
}

// RequestBuilder turns an incoming shop request into the gateway request
// that starts a payment.
type RequestBuilder func(*gin.Context) (api.RedirectRequest, error)

type errorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
	Method string `json:"method,omitempty"`
}

// requestContext carries the request id of c, taken from the X-Request-Id
// header when it holds a uuid.
func requestContext(c *gin.Context) context.Context {
	id, err := uuid.Parse(c.GetHeader(HEADER_REQUEST_ID))
	if err != nil {
		id = uuid.New()
	}
	c.Set(ContextRequestID, id)
	c.Header(HEADER_REQUEST_ID, id.String())
	return client.WithRequestID(c.Request.Context(), id)
}

func statusOf(err error) int {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return http.StatusInternalServerError
	}
	switch apiErr.Kind {
	case api.ConfigurationError:
		return http.StatusUnprocessableEntity
	case api.TransportError:
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case api.ProtocolError:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func abort(c *gin.Context, err error) {
	var apiErr *api.Error
	out := errorResponse{Error: err.Error()}
	if errors.As(err, &apiErr) {
		out.Kind, out.Method = string(apiErr.Kind), apiErr.Method.String()
	}
	c.Error(err)
	c.AbortWithStatusJSON(statusOf(err), out)
}

// Redirect sends req and answers c with a 302 to the payment page.
func Redirect(c *gin.Context, gw Gateway, req api.RedirectRequest) {
	redirectUrl, err := gw.RequestAndRedirect(requestContext(c), req)
	if err != nil {
		abort(c, err)
		return
	}
	c.Redirect(http.StatusFound, redirectUrl)
}

// InitHandler starts a payment for every request build accepts.
func InitHandler(gw Gateway, build RequestBuilder) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := build(c)
		if err != nil {
			c.Error(err)
			c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		Redirect(c, gw, req)
	}
}

// ResultHandler serves the response url the gateway sends the customer back
// to. It queries Result for the TransactionId parameter and renders the
// reply as JSON.
func ResultHandler(gw Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		transactionId := c.Query("TransactionId")
		if transactionId == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "TransactionId is required"})
			return
		}
		res, err := gw.Request(requestContext(c), api.NewResult(transactionId))
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}
