// Package embeddings provides the text-embedding backends behind the
// knowledge collaborator. Vectors are stored in chromem-go collections
// and used to score feedback against prior accepted proposals.
package embeddings

import (
	"context"

	chromem "github.com/philippgille/chromem-go"
)

// Embedder turns texts into fixed-size vectors.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions reports the vector size this embedder produces.
	Dimensions() int

	// Name identifies the backing model.
	Name() string
}

// ToChromemFunc adapts an Embedder to the single-text function signature
// chromem-go collections expect.
func ToChromemFunc(e Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vectors, err := e.Embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(vectors) == 0 {
			return nil, nil
		}
		return vectors[0], nil
	}
}
