package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"

	"salespipe/internal/types"
)

// Response is the structured invocation result. Success carries the batch
// counts with a 200 status; failure carries the error message with a 500
// status. The handler never returns a Go error for pipeline failures:
// the idempotent writer makes resubmission the retry mechanism, so we do
// not want the Lambda runtime's automatic retries on top.
type Response struct {
	StatusCode int          `json:"statusCode"`
	Body       ResponseBody `json:"body"`
}

// ResponseBody is the payload of a Response. The count fields are part of
// the success contract and always serialize, zero or not; only the
// message/error strings are conditional.
type ResponseBody struct {
	Message string `json:"message,omitempty"`
	File    string `json:"file,omitempty"`
	Total   int    `json:"total"`
	Valid   int    `json:"valid"`
	Invalid int    `json:"invalid"`
	Error   string `json:"error,omitempty"`
}

// Handler is the Lambda entrypoint wrapper around the Pipeline.
type Handler struct {
	Pipeline *Pipeline
}

// Handle processes one batch notification. It accepts either a direct S3
// event or an S3 event wrapped in an SQS message body (S3 -> SQS -> Lambda
// delivery). Only the first record is processed; S3 ObjectCreated
// notifications carry one object per event in this deployment.
func (h *Handler) Handle(ctx context.Context, payload json.RawMessage) (Response, error) {
	bucket, key, err := extractObject(payload)
	if err != nil {
		h.Pipeline.Log.ErrorContext(ctx, "unusable invocation payload", "error", err)
		return failure(err), nil
	}

	result, err := h.Pipeline.Process(ctx, bucket, key)
	if err != nil {
		h.Pipeline.Log.ErrorContext(ctx, "batch processing failed",
			"bucket", bucket,
			"key", key,
			"error", err,
		)
		return failure(err), nil
	}

	return Response{
		StatusCode: 200,
		Body: ResponseBody{
			Message: "OK",
			File:    result.File,
			Total:   result.Total,
			Valid:   result.Valid,
			Invalid: result.Invalid,
		},
	}, nil
}

func failure(err error) Response {
	return Response{StatusCode: 500, Body: ResponseBody{Error: err.Error()}}
}

// extractObject pulls the bucket and key out of the invocation payload,
// trying a direct S3 event first and then an SQS envelope whose message
// bodies are S3 events.
func extractObject(payload json.RawMessage) (string, string, error) {
	// An SQS envelope also decodes as an S3Event with one empty record, so
	// the direct branch additionally requires a bucket name.
	var s3Event events.S3Event
	if err := json.Unmarshal(payload, &s3Event); err == nil &&
		len(s3Event.Records) > 0 && s3Event.Records[0].S3.Bucket.Name != "" {
		return objectFromRecord(s3Event.Records[0])
	}

	var sqsEvent events.SQSEvent
	if err := json.Unmarshal(payload, &sqsEvent); err == nil && len(sqsEvent.Records) > 0 {
		var inner events.S3Event
		if err := json.Unmarshal([]byte(sqsEvent.Records[0].Body), &inner); err == nil && len(inner.Records) > 0 {
			return objectFromRecord(inner.Records[0])
		}
	}

	return "", "", types.NewAppError(types.ErrCodeBadEvent,
		"payload is neither an S3 event nor an SQS-wrapped S3 event", nil)
}

func objectFromRecord(record events.S3EventRecord) (string, string, error) {
	bucket := record.S3.Bucket.Name
	// S3 event notifications URL-encode the object key; URLDecodedKey has
	// the usable form. Older event formats leave it empty.
	key := record.S3.Object.URLDecodedKey
	if key == "" {
		key = record.S3.Object.Key
	}
	if bucket == "" || key == "" {
		return "", "", types.NewAppError(types.ErrCodeBadEvent,
			fmt.Sprintf("event record missing bucket or key (bucket=%q key=%q)", bucket, key), nil)
	}
	return bucket, key, nil
}
