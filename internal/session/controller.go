package session

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docchat/internal/answer"
	"docchat/internal/domain"
	"docchat/internal/logger"
	"docchat/internal/metrics"
	"docchat/internal/service"
)

// Engine is the work the controller delegates to.
type Engine interface {
	IngestText(ctx context.Context, title, text string, progress service.Progress) (*service.Ingestion, error)
	IngestDocument(ctx context.Context, title string, data []byte, progress service.Progress) (*service.Ingestion, error)
	Answer(ctx context.Context, ing *service.Ingestion, question string) (string, error)
}

// Controller is the command surface consumed by the UI. Commands block until the work
// settles and are meant to be run off the UI loop.
type Controller struct {
	id      string
	machine *Machine
	engine  Engine
	logger  *zap.Logger
}

func NewController(engine Engine, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	return &Controller{
		id:      id,
		machine: NewMachine(),
		engine:  engine,
		logger:  logger.With(zap.String("session_id", id)),
	}
}

// ID identifies the session in logs.
func (c *Controller) ID() string { return c.id }

// SubmitText indexes pasted text. Only accepted while idle.
func (c *Controller) SubmitText(ctx context.Context, title, text string) error {
	return c.ingest(ctx, title, false, func(ctx context.Context, progress service.Progress) (*service.Ingestion, error) {
		return c.engine.IngestText(ctx, title, text, progress)
	})
}

// SubmitDocument indexes a PDF. Only accepted while idle.
func (c *Controller) SubmitDocument(ctx context.Context, title string, data []byte) error {
	return c.ingest(ctx, title, true, func(ctx context.Context, progress service.Progress) (*service.Ingestion, error) {
		return c.engine.IngestDocument(ctx, title, data, progress)
	})
}

type ingestFunc func(ctx context.Context, progress service.Progress) (*service.Ingestion, error)

func (c *Controller) ingest(ctx context.Context, title string, binary bool, run ingestFunc) error {
	ctx, cancel := context.WithCancel(logger.ContextWithLogger(ctx, c.logger))
	defer cancel()

	t, err := c.machine.BeginIngestion(binary, cancel)
	if err != nil {
		return err
	}
	c.logger.Info("Ingestion started", zap.String("title", title), zap.Bool("binary", binary))

	ing, err := run(ctx, func(l domain.Lifecycle) { c.machine.Advance(t, l) })
	if err != nil {
		if !c.machine.FailIngestion(t, err) {
			c.logger.Debug("Dropped stale ingestion failure", zap.Error(err))
		}
		return err
	}

	if !c.machine.CommitIngestion(t, ing, service.Acknowledgement(ing)) {
		c.logger.Info("Dropped ingestion result after reset", zap.String("title", title))
		return nil
	}
	metrics.IndexedPassages.Set(float64(ing.Index.Len()))
	return nil
}

// Ask answers a question about the loaded document. Outside ready it does nothing and
// returns ErrNotAccepting. A failed answer leaves an apology in the transcript.
func (c *Controller) Ask(ctx context.Context, question string) error {
	ctx, cancel := context.WithCancel(logger.ContextWithLogger(ctx, c.logger))
	defer cancel()

	t, doc, err := c.machine.BeginQuery(question, cancel)
	if err != nil {
		return err
	}

	reply, err := c.engine.Answer(ctx, doc, question)
	if err != nil {
		c.logger.Warn("Query failed", zap.String("kind", domain.KindOf(err).String()), zap.Error(err))
		c.machine.FinishQuery(t, answer.Apology, err)
		return err
	}
	c.machine.FinishQuery(t, reply, nil)
	return nil
}

// Reset discards the loaded document and the transcript.
func (c *Controller) Reset() {
	c.machine.Reset()
	metrics.IndexedPassages.Set(0)
	c.logger.Info("Session reset")
}

func (c *Controller) Snapshot() Snapshot { return c.machine.Snapshot() }
