package gmail_tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teemow/gmail-mcp/internal/gmail"
	"github.com/teemow/gmail-mcp/internal/logging"
	"github.com/teemow/gmail-mcp/internal/tools/batch"
	"github.com/teemow/gmail-mcp/internal/tools/common"
)

func (d *Dispatcher) archiveEmail(ctx context.Context, args map[string]any) (string, error) {
	c, err := d.client(ctx)
	if err != nil {
		return "", err
	}

	ids, err := batch.ParseStringOrArray(args["email_ids"], "email_ids")
	if err != nil {
		return "", err
	}

	results := batch.ProcessBatch(ctx, ids, func(ctx context.Context, id string) (string, error) {
		return "", c.Archive(ctx, id)
	}, gmail.Reason)

	s := d.summarize(ctx, ToolArchiveEmail, results)
	return s.Format(fmt.Sprintf("Archived %d email(s).", s.Successful), "archive"), nil
}

func (d *Dispatcher) addLabel(ctx context.Context, args map[string]any) (string, error) {
	c, err := d.client(ctx)
	if err != nil {
		return "", err
	}

	ids, err := batch.ParseStringOrArray(args["email_ids"], "email_ids")
	if err != nil {
		return "", err
	}
	label, err := common.RequiredString(args, "label")
	if err != nil {
		return "", err
	}

	// An unknown label fails the whole call before any message is touched.
	labelID, err := c.ResolveLabelID(ctx, label)
	if err != nil {
		return "", err
	}

	results := batch.ProcessBatch(ctx, ids, func(ctx context.Context, id string) (string, error) {
		return "", c.AddLabel(ctx, id, labelID)
	}, gmail.Reason)

	s := d.summarize(ctx, ToolAddLabel, results)
	return s.Format(fmt.Sprintf("Labeled %d email(s) with '%s'.", s.Successful, label), "label"), nil
}

func (d *Dispatcher) summarize(ctx context.Context, tool ToolName, results []batch.Result) batch.Summary {
	s := batch.Summarize(results)
	d.metrics.RecordBatchItems(ctx, tool.String(), s.Successful, s.Failed)
	d.logger.Info("batch finished", logging.Tool(tool.String()),
		logging.Count(s.Total), slog.Int("succeeded", s.Successful), slog.Int("failed", s.Failed))
	return s
}
