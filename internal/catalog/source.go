package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"grocery-price-lab/internal/logging"
)

// DefaultConcurrency bounds concurrent department requests.
const DefaultConcurrency = 4

// Batch is one catalog snapshot.
type Batch struct {
	Records  []Record // valid records in department order
	Rejected int      // malformed records dropped during decoding
}

// Source turns a Client into catalog batches for the ingestion cycle.
type Source struct {
	client      Client
	concurrency int
	logger      logrus.FieldLogger
	now         func() time.Time
}

// SourceOptions contains configuration for creating a Source.
type SourceOptions struct {
	Concurrency int                // Default: DefaultConcurrency
	Logger      logrus.FieldLogger // Default: discard
	Now         func() time.Time   // Default: time.Now
}

// NewSource creates a new catalog source.
func NewSource(client Client, opts SourceOptions) *Source {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Source{
		client:      client,
		concurrency: concurrency,
		logger:      logging.OrDiscard(opts.Logger).WithField("component", "catalog"),
		now:         now,
	}
}

// Fetch returns the current catalog snapshot. Transport failures never fail the cycle:
// an unreachable department list yields an empty batch and an unreachable department
// contributes no records. Only context cancellation is returned as an error.
func (s *Source) Fetch(ctx context.Context) (Batch, error) {
	loggedOn := s.now().UTC()

	departments, err := s.client.Departments(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return Batch{}, ctx.Err()
		}
		s.logger.WithError(err).Warn("fetch departments failed, using empty batch")
		return Batch{}, nil
	}

	raw := make([][]json.RawMessage, len(departments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, dept := range departments {
		g.Go(func() error {
			products, err := s.client.Products(gctx, dept)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.WithError(err).WithField("department_id", dept.ID).Warn("fetch department products failed")
				return nil
			}
			raw[i] = products
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Batch{}, err
	}

	var batch Batch
	for i, dept := range departments {
		for _, item := range raw[i] {
			rec, err := Decode(item, dept, loggedOn)
			if err != nil {
				batch.Rejected++
				s.logger.WithError(err).WithField("department_id", dept.ID).Debug("rejected malformed record")
				continue
			}
			batch.Records = append(batch.Records, rec)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"departments": len(departments),
		"records":     len(batch.Records),
		"rejected":    batch.Rejected,
	}).Info("catalog fetched")

	return batch, nil
}
