package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartwheel-app/cartwheel/internal/model"
)

// mockClient is a canned-reply generator for tests.
type mockClient struct {
	reply   string
	err     error
	prompts []string
}

func (m *mockClient) Generate(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

const sampleOCR = `CORNER MARKET
WHOLE MILK   3.99
TOTAL        3.99`

func TestProcessReceiptViaGenerator(t *testing.T) {
	client := &mockClient{reply: `{
		"storeName": "Corner Market",
		"items": [{"name": "Whole Milk", "price": 3.99}],
		"total": 3.99
	}`}
	processor := NewProcessor(client)

	result, err := processor.ProcessReceipt(context.Background(), sampleOCR)
	require.NoError(t, err)
	assert.Equal(t, model.MethodGenerator, result.Method)
	assert.Equal(t, "Corner Market", result.Receipt.StoreName)
	require.Len(t, result.Receipt.Items, 1)
	assert.Equal(t, "Whole Milk", result.Receipt.Items[0].Name)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "CORNER MARKET", "OCR text reaches the generator")
}

func TestProcessReceiptFallsBackOnGeneratorError(t *testing.T) {
	client := &mockClient{err: errors.New("upstream down")}
	processor := NewProcessor(client)

	result, err := processor.ProcessReceipt(context.Background(), sampleOCR)
	require.NoError(t, err, "generator failure is not a processing error")
	assert.Equal(t, model.MethodFallback, result.Method)
	assert.Equal(t, "CORNER MARKET", result.Receipt.StoreName)
	require.Len(t, result.Receipt.Items, 1)
}

func TestProcessReceiptFallsBackOnUnparseableReply(t *testing.T) {
	client := &mockClient{reply: "I'm sorry, I can't read this receipt."}
	processor := NewProcessor(client)

	result, err := processor.ProcessReceipt(context.Background(), sampleOCR)
	require.NoError(t, err)
	assert.Equal(t, model.MethodFallback, result.Method)
}

func TestProcessReceiptNoGenerator(t *testing.T) {
	processor := NewProcessor(nil)

	result, err := processor.ProcessReceipt(context.Background(), sampleOCR)
	require.NoError(t, err)
	assert.Equal(t, model.MethodFallback, result.Method)
	require.Len(t, result.Receipt.Items, 1)
	require.NotNil(t, result.Receipt.Total)
	assert.InDelta(t, 3.99, *result.Receipt.Total, 1e-9)
}

func TestProcessReceiptTruncatesHugeOCR(t *testing.T) {
	client := &mockClient{reply: `{"storeName": "X"}`}
	processor := NewProcessor(client)

	huge := make([]byte, 10000)
	for i := range huge {
		huge[i] = 'a'
	}

	_, err := processor.ProcessReceipt(context.Background(), string(huge))
	require.NoError(t, err)
	require.Len(t, client.prompts, 1)
	assert.Less(t, len(client.prompts[0]), 4000, "prompt stays bounded regardless of OCR size")
}
