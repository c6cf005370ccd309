package client

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/kod2ulz/gostart/collections"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/kod2ulz/bigfish-paymentgateway/api"
	"github.com/kod2ulz/bigfish-paymentgateway/sql/db"
)

type contextKey string

const RequestID contextKey = "requestId"

// WithRequestID tags ctx so that log lines and journal rows of every call
// made with it carry id. Each call still gets its own journal row.
func WithRequestID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, RequestID, id)
}

// Journal persists every dispatched call. *db.SqlDB satisfies it.
type Journal interface {
	LogApiRequest(ctx context.Context, arg db.LogApiRequestParams) (db.GatewayApiCall, error)
	LogApiResponse(ctx context.Context, arg db.LogApiResponseParams) (db.GatewayApiCall, error)
}

type gatewayLogger struct {
	*logrus.Entry
	journal Journal
}

func (l *gatewayLogger) getRequestID(ctx context.Context) (out uuid.UUID) {
	var ok bool
	var err error
	if val := ctx.Value(RequestID); val != nil {
		if out, ok = val.(uuid.UUID); ok {
			return
		} else if out, err = uuid.Parse(fmt.Sprint(val)); err == nil {
			return
		}
	}
	return uuid.New()
}

type callInfo struct {
	requestID uuid.UUID
	storeName string
	transport string
	method    api.Method
	url       string
}

// Request logs the outgoing call and, with a journal, inserts its row. The
// returned row id is 0 when nothing was stored.
func (l *gatewayLogger) Request(ctx context.Context, call callInfo, body api.Fields) (rowID int64) {
	log := l.WithField("requestId", call.requestID).WithField("method", call.method)
	log.WithField("url", call.url).Debug("sending request")
	if l.journal == nil {
		return
	}
	var request pgtype.JSONB
	data := collections.MapOf[string, any]("body", body)
	if err := request.Set(data); err != nil {
		log.WithError(err).Error("failed to encode api request")
		return
	}
	row, err := l.journal.LogApiRequest(ctx, db.LogApiRequestParams{
		RequestID: call.requestID,
		StoreName: call.storeName,
		Transport: call.transport,
		Method:    call.method.String(),
		Url:       call.url,
		Request:   request,
	})
	if err != nil {
		log.WithError(err).WithField("data", data).Error("failed to save api request")
		return
	}
	return row.ID
}

// Response logs the outcome of the call and completes the journal row rowID.
func (l *gatewayLogger) Response(ctx context.Context, call callInfo, rowID int64, res api.Envelope, callErr error) {
	var apiErr *api.Error
	var params = db.LogApiResponseParams{ID: rowID}
	log := l.WithField("requestId", call.requestID).WithField("method", call.method)
	if callErr != nil {
		log.WithError(callErr).Warn("request failed")
		params.Error = pgtype.Text{String: callErr.Error(), Status: pgtype.Present}
		if errors.As(callErr, &apiErr) && apiErr.Status > 0 {
			params.ResponseCode = pgtype.Int4{Int: int32(apiErr.Status), Status: pgtype.Present}
		}
	} else {
		log.WithField("resultCode", res.ResultCode()).Debug("received response")
		params.ResultCode = pgtype.Text{String: res.ResultCode().String(), Status: pgtype.Present}
		params.ResponseCode = pgtype.Int4{Int: 200, Status: pgtype.Present}
	}
	if l.journal == nil || rowID == 0 {
		return
	}
	data := collections.MapOf[string, any]("body", res)
	if err := params.Response.Set(data); err != nil {
		log.WithError(err).Error("failed to encode api response")
	}
	if _, err := l.journal.LogApiResponse(ctx, params); db.IsSqlNoRows(err) {
		log.WithField("row", rowID).Warn("api call row no longer in journal")
	} else if err != nil {
		log.WithError(err).WithField("data", data).Error("failed to save api response")
	}
}
