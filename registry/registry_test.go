package registry

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ncecere/recommendation-fn/provider"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubModel struct{ text string }

func (s stubModel) Generate(context.Context, *provider.CompletionRequest) (*provider.CompletionResponse, error) {
	return &provider.CompletionResponse{Text: s.text}, nil
}

func TestInMemoryRegistry_RegisterAndResolve(t *testing.T) {
	reg := NewInMemoryRegistry()

	_, err := reg.CompletionModel("recommendation:default")
	var nsm *NoSuchModelError
	require.ErrorAs(t, err, &nsm)
	assert.Equal(t, "recommendation:default", nsm.Name)
	assert.EqualError(t, err, `registry: no such completion model "recommendation:default"`)

	reg.RegisterCompletionModel("recommendation:default", stubModel{text: "a"})
	reg.RegisterCompletionModel("recommendation:light", stubModel{text: "b"})

	model, err := reg.CompletionModel("recommendation:default")
	require.NoError(t, err)
	res, err := model.Generate(context.Background(), &provider.CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "a", res.Text)
	assert.Equal(t, []string{"recommendation:default", "recommendation:light"}, reg.Names())

	reg.RegisterCompletionModel("recommendation:light", nil)
	_, err = reg.CompletionModel("recommendation:light")
	require.ErrorAs(t, err, &nsm)
	assert.Equal(t, []string{"recommendation:default"}, reg.Names())
}

func TestInMemoryRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewInMemoryRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("m%d", i%4)
			reg.RegisterCompletionModel(name, stubModel{text: name})
			_, _ = reg.CompletionModel(name)
			_ = reg.Names()
		}(i)
	}
	wg.Wait()

	assert.Len(t, reg.Names(), 4)
}
