package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/kiwi-linker/internal/util"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/annotate"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/logger"
)

// ErrMalformedMessage marks deliveries that can never be processed.
var ErrMalformedMessage = errors.New("malformed message")

type QueueAnnotateMsg struct {
	ID       string             `json:"id"`
	Mentions []annotate.Mention `json:"mentions"`
}

type QueueAnnotateResultMsg struct {
	ID          string                `json:"id"`
	Annotations []annotate.Annotation `json:"annotations"`
}

type Annotator interface {
	Annotate(ctx context.Context, mentions []annotate.Mention) ([]annotate.Annotation, error)
}

// ProcessAnnotateMessage annotates the mentions in body and publishes the
// result to the results queue. Messages without an id get one assigned so
// results can still be correlated in logs.
func ProcessAnnotateMessage(
	ctx context.Context,
	annotator Annotator,
	ch Publisher,
	body []byte,
) error {
	data := new(QueueAnnotateMsg)
	if err := json.Unmarshal(body, data); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	if data.ID == "" {
		data.ID = util.NewCorrelationID()
	}

	annotations, err := annotator.Annotate(ctx, data.Mentions)
	if err != nil {
		return err
	}

	out, err := json.Marshal(QueueAnnotateResultMsg{
		ID:          data.ID,
		Annotations: annotations,
	})
	if err != nil {
		return err
	}
	if err := PublishFIFO(ch, ResultsQueue, out); err != nil {
		return fmt.Errorf("publish result %s: %w", data.ID, err)
	}

	logger.Debug("[Queue] Annotated message", "id", data.ID, "mentions", len(data.Mentions))
	return nil
}
