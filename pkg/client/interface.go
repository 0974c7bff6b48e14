package client

import "context"

// ScoreClient is the boundary to the zero-shot vision-language model.
//
// Score returns one raw similarity value per prompt for the given region
// image (base64-encoded JPEG or PNG). Values are signed and unbounded; the
// client must not clamp or re-scale them. For a fixed image, prompt set,
// model and weights, repeated calls return identical values.
type ScoreClient interface {
	Score(ctx context.Context, model, imageB64 string, prompts []string) (map[string]float64, error)
}
