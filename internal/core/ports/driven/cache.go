package driven

import (
	"context"

	"github.com/custodia-labs/overlap-core/internal/core/domain"
)

// PageCache stores extracted page text keyed by URL with a TTL.
// Last write wins; a miss returns domain.ErrNotFound.
type PageCache interface {
	Get(ctx context.Context, url string) (string, error)
	Set(ctx context.Context, url, text string) error
}

// CachedVideo is the processed transcript state kept per video
type CachedVideo struct {
	VideoID    string         `json:"video_id"`
	Title      string         `json:"title"`
	Chunks     []domain.Chunk `json:"chunks"`
	Embeddings [][]float32    `json:"embeddings"`
}

// VideoCache stores processed transcript chunks and their embeddings
// per video so repeat checks skip transcript fetch and embedding.
type VideoCache interface {
	Get(ctx context.Context, videoID string) (*CachedVideo, error)
	Set(ctx context.Context, video *CachedVideo) error
}
