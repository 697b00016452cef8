// Package engine orchestrates the receipt-processing and suggestion flows on
// top of the llm, receipt and insights packages.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/cartwheel-app/cartwheel/internal/llm"
	"github.com/cartwheel-app/cartwheel/internal/model"
	"github.com/cartwheel-app/cartwheel/internal/receipt"
)

// Processor runs the receipt-processing flow: generator extraction first,
// heuristic fallback when the generator is unconfigured or produced nothing
// usable.
type Processor struct {
	client llm.Client // nil when no generator is configured
}

// NewProcessor creates a receipt processor. A nil client means every receipt
// goes through the fallback parser.
func NewProcessor(client llm.Client) *Processor {
	return &Processor{client: client}
}

// ProcessResult is the outcome of one receipt-processing call.
type ProcessResult struct {
	Receipt model.ParsedReceipt
	Method  model.ReceiptMethod
	Elapsed time.Duration
}

// ProcessReceipt turns raw OCR text into a structured receipt. Malformed
// generator output is never an error; the flow degrades to the fallback
// parser and reports which method produced the result.
func (p *Processor) ProcessReceipt(ctx context.Context, ocrText string) (ProcessResult, error) {
	start := time.Now()

	if p.client != nil {
		parsed, ok := p.extractViaGenerator(ctx, ocrText)
		if ok {
			return ProcessResult{
				Receipt: parsed,
				Method:  model.MethodGenerator,
				Elapsed: time.Since(start),
			}, nil
		}
	}

	return ProcessResult{
		Receipt: receipt.ParseFallback(ocrText),
		Method:  model.MethodFallback,
		Elapsed: time.Since(start),
	}, nil
}

func (p *Processor) extractViaGenerator(ctx context.Context, ocrText string) (model.ParsedReceipt, bool) {
	reply, err := p.client.Generate(ctx, buildReceiptPrompt(ocrText))
	if err != nil {
		slog.Warn("Generator call failed, falling back to heuristic parser", "error", err)
		return model.ParsedReceipt{}, false
	}

	data, ok := receipt.ExtractStructured(reply)
	if !ok {
		slog.Warn("Generator reply contained no parseable structure, falling back")
		return model.ParsedReceipt{}, false
	}

	return receipt.BuildReceipt(data), true
}
