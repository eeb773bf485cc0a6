package verify

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

// CounterLedger records the last counter accepted for each key.
// ledger.Ledger satisfies it.
type CounterLedger interface {
	Advance(ctx context.Context, publicKey []byte, counter uint32) error
}

type options struct {
	ledger CounterLedger
	logger *zap.Logger
}

// Option configures a Service.
type Option func(o *options)

// WithLedger enables replay protection backed by l.
func WithLedger(l CounterLedger) Option {
	return func(o *options) { o.ledger = l }
}

// WithLogger sets the logger for verification outcomes.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Service handles verification logic
type Service struct {
	ledger CounterLedger
	logger *zap.Logger
}

// NewService creates a new verification service
func NewService(opts ...Option) *Service {
	o := &options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	return &Service{
		ledger: o.ledger,
		logger: o.logger,
	}
}

// Verify verifies one tap and, when a ledger is configured, records its
// counter.
func (s *Service) Verify(ctx context.Context, req *VerifyRequest) (*Result, error) {
	result, err := s.verifySignature(req)
	if err != nil {
		return nil, err
	}

	if err := s.advance(ctx, req, result); err != nil {
		return nil, err
	}
	return result, nil
}

// VerifyBatch verifies reqs using up to workers goroutines. Signatures are
// checked concurrently; ledger updates then run in input order. Items not
// started before ctx is cancelled carry ctx.Err().
func (s *Service) VerifyBatch(ctx context.Context, reqs []VerifyRequest, workers int) ([]BatchResult, error) {
	if workers < 1 {
		return nil, fmt.Errorf("workers must be positive, got %d", workers)
	}

	results := make([]BatchResult, len(reqs))
	for i := range reqs {
		results[i] = BatchResult{Index: i, ID: reqs[i].ID}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range reqs {
		if err := gctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Result, results[i].Err = s.verifySignature(&reqs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var passed int
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			continue
		}
		if err := s.advance(ctx, &reqs[i], r.Result); err != nil {
			r.Result, r.Err = nil, err
			continue
		}
		passed++
	}

	s.logger.Info("batch verified",
		zap.Int("total", len(reqs)),
		zap.Int("passed", passed),
		zap.Int("workers", workers),
	)
	return results, ctx.Err()
}

func (s *Service) verifySignature(req *VerifyRequest) (*Result, error) {
	result, err := VerifyAttestation(req.PKN, req.RND, req.RNDSig)
	if err != nil {
		// A rejected signature is an expected outcome, not a fault.
		level := zapcore.WarnLevel
		if errors.Is(err, ErrBadSignature) {
			level = zapcore.DebugLevel
		}
		s.logger.Check(level, "tap verification failed").Write(
			zap.String("id", req.ID),
			zap.Bool("badSignature", errors.Is(err, ErrBadSignature)),
			zap.Error(err),
		)
		return nil, err
	}
	return result, nil
}

func (s *Service) advance(ctx context.Context, req *VerifyRequest, result *Result) error {
	if s.ledger != nil {
		if err := s.ledger.Advance(ctx, result.PublicKey, result.Counter); err != nil {
			s.logger.Warn("tap rejected by ledger",
				zap.String("id", req.ID),
				zap.Uint32("counter", result.Counter),
				zap.Error(err),
			)
			return fmt.Errorf("failed to record counter: %w", err)
		}
	}

	s.logger.Debug("tap verified",
		zap.String("id", req.ID),
		zap.Uint32("counter", result.Counter),
		zap.String("publicKey", hex.EncodeToString(result.PublicKey)),
	)
	return nil
}
