package usecase

import (
	"context"
	"io"

	"schnorrd/internal/domain"
	"schnorrd/internal/logging"

	"github.com/sirupsen/logrus"
)

var discardLogger = logging.Discard()

func loggerOrDiscard(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return discardLogger
	}
	return l
}

// checkPolicy evaluates input when an engine is configured. A deny is returned as a
// *domain.PolicyDeniedError.
func checkPolicy(ctx context.Context, engine PolicyEngine, input domain.PolicyInput) error {
	if engine == nil {
		return nil
	}
	eval, err := engine.Evaluate(ctx, input)
	if err != nil {
		return err
	}
	if !eval.Result.Allow {
		return &domain.PolicyDeniedError{Evaluation: eval}
	}
	return nil
}

// cappedReader fails with domain.ErrMessageTooLarge once more than limit bytes have
// been read.
type cappedReader struct {
	r         io.Reader
	remaining int64
}

func capReader(r io.Reader, limit int64) io.Reader {
	if limit <= 0 {
		return r
	}
	return &cappedReader{r: r, remaining: limit}
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.remaining < 0 {
		return 0, domain.ErrMessageTooLarge
	}
	if int64(len(p)) > c.remaining+1 {
		p = p[:c.remaining+1]
	}
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	if c.remaining < 0 {
		return n, domain.ErrMessageTooLarge
	}
	return n, err
}
