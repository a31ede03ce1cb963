package sink

import (
	"context"
	"log/slog"

	"github.com/manifest-network/tracker/internal/models"
)

// Log writes notifications as structured log records. It is the default
// sink for pipe deployments.
type Log struct {
	log *slog.Logger
}

// NewLog creates a logging sink. A nil logger means slog.Default().
func NewLog(l *slog.Logger) *Log {
	if l == nil {
		l = slog.Default()
	}
	return &Log{log: l}
}

func (s *Log) TxSettled(_ context.Context, tx string, st models.Settlement) error {
	s.log.Info("tx settled", "tx", tx, "block", st.Block)
	return nil
}

func (s *Log) TxDone(_ context.Context, tx string, d models.Done) error {
	s.log.Info("tx done", "tx", tx, "block", d.Block, "successful", d.Successful)
	return nil
}

func (s *Log) Close() error {
	return nil
}
