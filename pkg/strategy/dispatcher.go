package strategy

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sameehj/quadrant/pkg/gate"
	"github.com/sameehj/quadrant/pkg/mode"
	"github.com/sameehj/quadrant/pkg/oracle"
	"github.com/sameehj/quadrant/pkg/sandbox"
	"github.com/sameehj/quadrant/pkg/websearch"
)

// Dispatcher classifies a query and hands it to exactly one mode handler.
type Dispatcher struct {
	oracle     oracle.Client
	classifier *mode.Classifier
	gate       *gate.Gate
	engine     *sandbox.Engine
	search     *websearch.Chain
	logger     *zap.Logger
}

func NewDispatcher(client oracle.Client, g *gate.Gate, engine *sandbox.Engine, search *websearch.Chain, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		oracle:     client,
		classifier: mode.NewClassifier(client, logger),
		gate:       g,
		engine:     engine,
		search:     search,
		logger:     logger,
	}
}

// Dispatch runs the full pipeline: classify, then hand off to the handler
// for the chosen mode. An unrecognized mode is a bug in the classifier and
// fails loudly rather than being silently re-routed.
func (d *Dispatcher) Dispatch(ctx context.Context, query string) (*Envelope, error) {
	m, err := d.classifier.Classify(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	d.logger.Info("query classified",
		zap.String("mode", string(m)),
		zap.Int("query_len", len(query)))

	switch m {
	case mode.Respond:
		return d.handleRespond(ctx, query)
	case mode.Plan:
		return d.handlePlan(ctx, query)
	case mode.Search:
		return d.handleSearch(ctx, query)
	case mode.Act:
		return d.handleAct(ctx, query)
	default:
		return nil, fmt.Errorf("no handler registered for mode %q", m)
	}
}
