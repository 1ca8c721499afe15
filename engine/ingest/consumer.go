package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/passnet/passnet/engine/domain"
	"github.com/passnet/passnet/pkg/natsutil"
)

const (
	// ImportSubject is the NATS subject for queued match imports.
	ImportSubject = "passnet.import"
	// DLQSubject is the dead letter queue subject for failed imports.
	DLQSubject = "passnet.import.dlq"
	// MaxRetries before sending a job to the DLQ.
	MaxRetries = 3
)

// ImportJob is one queued match import. Events carries the raw event array
// untouched; parsing happens on the consumer side.
type ImportJob struct {
	JobID   string          `json:"jobId"`
	MatchID string          `json:"matchId"`
	Events  json.RawMessage `json:"events"`
}

// PublishJob enqueues a match import and returns the job identifier.
func PublishJob(ctx context.Context, nc *nats.Conn, matchID string, payload []byte) (string, error) {
	job := ImportJob{
		JobID:   uuid.NewString(),
		MatchID: matchID,
		Events:  payload,
	}
	if err := natsutil.Publish(ctx, nc, ImportSubject, job); err != nil {
		return "", err
	}
	return job.JobID, nil
}

// dlqMessage is published to the DLQ when a job is given up on.
type dlqMessage struct {
	Job     ImportJob `json:"job"`
	Error   string    `json:"error"`
	Retries int       `json:"retries"`
}

// StartConsumer subscribes to the import subject and runs jobs through the
// service. Transient failures are re-published with an incremented retry
// header until MaxRetries; invalid payloads go straight to the DLQ since
// retrying cannot fix them.
func StartConsumer(nc *nats.Conn, svc *Service, log *slog.Logger) (*nats.Subscription, error) {
	if log == nil {
		log = slog.Default()
	}

	return nc.Subscribe(ImportSubject, func(msg *nats.Msg) {
		var job ImportJob
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			log.Error("import job: unmarshal failed", "error", err)
			return
		}

		retries := 0
		if msg.Header != nil {
			if v := msg.Header.Get("X-Retry-Count"); v != "" {
				fmt.Sscanf(v, "%d", &retries)
			}
		}

		ctx := natsutil.ExtractContext(msg)
		sum, err := svc.Import(ctx, job.MatchID, job.Events)
		if err == nil {
			log.Info("import job: success",
				"job_id", job.JobID,
				"match_id", job.MatchID,
				"passes", sum.PassesImported,
			)
			return
		}

		retries++
		log.Error("import job: failed",
			"job_id", job.JobID,
			"match_id", job.MatchID,
			"error", err,
			"retry", retries,
		)

		if errors.Is(err, domain.ErrInvalidInput) || retries >= MaxRetries {
			dlq := dlqMessage{Job: job, Error: err.Error(), Retries: retries}
			data, _ := json.Marshal(dlq)
			if perr := nc.Publish(DLQSubject, data); perr != nil {
				log.Error("import job: DLQ publish failed", "error", perr)
			}
			return
		}

		retryMsg := nats.NewMsg(ImportSubject)
		retryMsg.Data = msg.Data
		retryMsg.Header = nats.Header{}
		retryMsg.Header.Set("X-Retry-Count", fmt.Sprintf("%d", retries))
		if perr := nc.PublishMsg(retryMsg); perr != nil {
			log.Error("import job: retry publish failed", "error", perr)
		}
	})
}
