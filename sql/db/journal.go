package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
)

type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type GatewayApiCall struct {
	ID           int64
	RequestID    uuid.UUID
	StoreName    string
	Transport    string
	Method       string
	Url          string
	Request      pgtype.JSONB
	Response     pgtype.JSONB
	ResponseCode pgtype.Int4
	ResultCode   pgtype.Text
	Error        pgtype.Text
	CreatedAt    time.Time
	CompletedAt  pgtype.Timestamptz
}

const apiCallColumns = `id, request_id, store_name, transport, method, url, request, response, response_code, result_code, error, created_at, completed_at`

func scanApiCall(row pgx.Row) (i GatewayApiCall, err error) {
	err = row.Scan(
		&i.ID,
		&i.RequestID,
		&i.StoreName,
		&i.Transport,
		&i.Method,
		&i.Url,
		&i.Request,
		&i.Response,
		&i.ResponseCode,
		&i.ResultCode,
		&i.Error,
		&i.CreatedAt,
		&i.CompletedAt,
	)
	return
}

const logApiRequest = `INSERT INTO gateway_api_calls (request_id, store_name, transport, method, url, request)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + apiCallColumns

type LogApiRequestParams struct {
	RequestID uuid.UUID
	StoreName string
	Transport string
	Method    string
	Url       string
	Request   pgtype.JSONB
}

func (q *Queries) LogApiRequest(ctx context.Context, arg LogApiRequestParams) (GatewayApiCall, error) {
	row := q.db.QueryRow(ctx, logApiRequest,
		arg.RequestID,
		arg.StoreName,
		arg.Transport,
		arg.Method,
		arg.Url,
		arg.Request,
	)
	return scanApiCall(row)
}

const logApiResponse = `UPDATE gateway_api_calls
SET response = $2, response_code = $3, result_code = $4, error = $5, completed_at = now()
WHERE id = $1
RETURNING ` + apiCallColumns

type LogApiResponseParams struct {
	ID           int64
	Response     pgtype.JSONB
	ResponseCode pgtype.Int4
	ResultCode   pgtype.Text
	Error        pgtype.Text
}

func (q *Queries) LogApiResponse(ctx context.Context, arg LogApiResponseParams) (GatewayApiCall, error) {
	row := q.db.QueryRow(ctx, logApiResponse,
		arg.ID,
		arg.Response,
		arg.ResponseCode,
		arg.ResultCode,
		arg.Error,
	)
	return scanApiCall(row)
}

const purgeApiCalls = `DELETE FROM gateway_api_calls WHERE created_at < $1`

// PurgeApiCalls removes journal rows created before cutoff.
func (q *Queries) PurgeApiCalls(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, purgeApiCalls, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
