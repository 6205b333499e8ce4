package biz

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphRun_Order(t *testing.T) {
	var order []string
	g := NewGraph().
		AddNode("retrieve", func(ctx context.Context, state *RAGState) error {
			order = append(order, "retrieve")
			state.Answer = "partial"
			return nil
		}).
		AddNode("generate", func(ctx context.Context, state *RAGState) error {
			order = append(order, "generate")
			state.Answer = "final"
			return nil
		})

	state := &RAGState{Query: "q"}
	require.NoError(t, g.Run(context.Background(), state))

	assert.Equal(t, []string{"retrieve", "generate"}, order)
	assert.Equal(t, "final", state.Answer)
}

func TestGraphRun_ErrorAborts(t *testing.T) {
	// 节点失败时立即中止，后续节点不执行，错误带节点名
	var generateRan bool
	g := NewGraph().
		AddNode("retrieve", func(ctx context.Context, state *RAGState) error {
			return fmt.Errorf("store unavailable")
		}).
		AddNode("generate", func(ctx context.Context, state *RAGState) error {
			generateRan = true
			return nil
		})

	err := g.Run(context.Background(), &RAGState{Query: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node retrieve failed")
	assert.False(t, generateRan)
}

func TestGraphRun_Empty(t *testing.T) {
	assert.NoError(t, NewGraph().Run(context.Background(), &RAGState{}))
}
