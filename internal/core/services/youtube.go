package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/custodia-labs/overlap-core/internal/chunk"
	"github.com/custodia-labs/overlap-core/internal/core/domain"
	"github.com/custodia-labs/overlap-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ SourceFetcher = (*YouTubeFetcher)(nil)

// deniedTitleTerms marks entertainment formats whose transcripts are
// not comparable editorial content.
var deniedTitleTerms = []string{
	"compilation",
	"funny moments",
	"top 10",
	"top 5",
	"best of",
	"fails",
	"challenge",
	"prank",
	"reaction",
	"unboxing",
	"daily vlog",
	"vlog",
}

// YouTubeConfig tunes the transcript fetcher
type YouTubeConfig struct {
	// QueryKeywords is how many extracted keywords form the query
	QueryKeywords int

	// MaxVideos caps videos processed per check
	MaxVideos int

	// MaxDurationSeconds skips long videos
	MaxDurationSeconds float64

	// MinDurationSeconds skips clips too short to carry a transcript
	MinDurationSeconds float64

	// ChunkTargetWords is the transcript re-chunking window
	ChunkTargetWords int

	// ZeroMatchEarlyExit stops after this many matchless videos in a row
	ZeroMatchEarlyExit int
}

// DefaultYouTubeConfig returns the standard limits
func DefaultYouTubeConfig() YouTubeConfig {
	return YouTubeConfig{
		QueryKeywords:      5,
		MaxVideos:          5,
		MaxDurationSeconds: 30 * 60,
		MinDurationSeconds: 30,
		ChunkTargetWords:   50,
		ZeroMatchEarlyExit: 3,
	}
}

// YouTubeFetcher discovers captioned videos, processes their
// transcripts into timestamped chunks and matches them against the
// submission. Only the chunk texts and their embeddings are retained;
// full transcripts are never persisted.
type YouTubeFetcher struct {
	platform driven.VideoPlatform
	cache    driven.VideoCache
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	cfg      YouTubeConfig
	logger   *slog.Logger
}

// NewYouTubeFetcher creates a transcript fetcher
func NewYouTubeFetcher(
	platform driven.VideoPlatform,
	cache driven.VideoCache,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	cfg YouTubeConfig,
	logger *slog.Logger,
) *YouTubeFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &YouTubeFetcher{
		platform: platform,
		cache:    cache,
		embedder: embedder,
		index:    index,
		cfg:      cfg,
		logger:   logger.With("component", "youtube_fetcher"),
	}
}

// Name identifies the fetcher
func (f *YouTubeFetcher) Name() string {
	return "youtube"
}

// Fetch discovers and matches transcript content
func (f *YouTubeFetcher) Fetch(ctx context.Context, sub Submission) ([]domain.RawMatch, error) {
	keywords := chunk.KeywordsWithTitle(sub.NormalizedText, sub.Title, 10)
	if len(keywords) == 0 {
		return nil, nil
	}
	n := f.cfg.QueryKeywords
	if n <= 0 || n > len(keywords) {
		n = len(keywords)
	}
	query := strings.Join(keywords[:n], " ")

	videos, err := f.platform.Search(ctx, query, driven.VideoSearchOptions{
		MaxResults:         f.cfg.MaxVideos * 2,
		MaxDurationSeconds: f.cfg.MaxDurationSeconds,
		MinDurationSeconds: f.cfg.MinDurationSeconds,
		Language:           "en",
	})
	if err != nil {
		return nil, fmt.Errorf("video search: %w", err)
	}

	var matches []domain.RawMatch
	processed := 0
	matchlessStreak := 0

	for _, video := range videos {
		if ctx.Err() != nil {
			break
		}
		if processed >= f.cfg.MaxVideos {
			break
		}
		if isDeniedTitle(video.Title) {
			f.logger.Debug("skipping video by title", "video_id", video.ID, "title", video.Title)
			continue
		}

		videoMatches, err := f.matchVideo(ctx, sub, video)
		if err != nil {
			if errors.Is(err, domain.ErrNoTranscript) {
				f.logger.Debug("no transcript", "video_id", video.ID)
				continue
			}
			f.logger.Warn("video processing failed", "video_id", video.ID, "error", err)
			continue
		}
		processed++

		if len(videoMatches) == 0 {
			matchlessStreak++
			if f.cfg.ZeroMatchEarlyExit > 0 && matchlessStreak >= f.cfg.ZeroMatchEarlyExit && len(matches) == 0 {
				f.logger.Debug("early exit after matchless videos",
					"check_id", sub.CheckID, "processed", processed)
				break
			}
			continue
		}
		matchlessStreak = 0
		matches = append(matches, videoMatches...)
	}

	f.logger.Debug("youtube scan complete",
		"check_id", sub.CheckID, "query", query, "videos", processed, "matches", len(matches))
	return matches, nil
}

// matchVideo obtains the processed transcript (cache first) and
// compares it against the submission chunks.
func (f *YouTubeFetcher) matchVideo(ctx context.Context, sub Submission, video driven.VideoInfo) ([]domain.RawMatch, error) {
	cached, err := f.cache.Get(ctx, video.ID)
	if err != nil {
		cached, err = f.processTranscript(ctx, sub, video)
		if err != nil {
			return nil, err
		}
	}

	var matches []domain.RawMatch
	for i, subEmbedding := range sub.Embeddings {
		scores := domain.BatchSimilarity(subEmbedding, cached.Embeddings)
		for j, score := range scores {
			if score < sub.Threshold {
				continue
			}
			ch := cached.Chunks[j]
			matches = append(matches, domain.RawMatch{
				SourceID:      video.ID,
				SourceType:    domain.SourceTypeYouTube,
				Title:         video.Title,
				URL:           video.URL,
				Score:         score,
				SubmittedText: sub.Chunks[i].Text,
				MatchedText:   ch.Text,
				Timestamp:     ch.Timestamp,
				StartSeconds:  ch.StartSeconds,
				EndSeconds:    ch.EndSeconds,
				MergedCount:   1,
			})
		}
	}
	return matches, nil
}

// processTranscript fetches, cleans, chunks and embeds a transcript,
// then caches the result and optionally adds it to the video index.
func (f *YouTubeFetcher) processTranscript(ctx context.Context, sub Submission, video driven.VideoInfo) (*driven.CachedVideo, error) {
	segments, err := f.platform.Transcript(ctx, video.ID)
	if err != nil {
		return nil, err
	}

	chunks := ChunkTranscript(segments, f.cfg.ChunkTargetWords)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: transcript empty after cleaning", domain.ErrNoTranscript)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	embeddings, err := f.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding transcript: %w", err)
	}

	cached := &driven.CachedVideo{
		VideoID:    video.ID,
		Title:      video.Title,
		Chunks:     chunks,
		Embeddings: embeddings,
	}
	if err := f.cache.Set(ctx, cached); err != nil {
		f.logger.Debug("video cache write failed", "video_id", video.ID, "error", err)
	}

	if sub.StoreEmbeddings && f.index != nil {
		records := make([]domain.VectorRecord, len(chunks))
		for i, c := range chunks {
			records[i] = domain.VectorRecord{
				SourceID:   video.ID,
				SourceType: domain.SourceTypeYouTube,
				Title:      video.Title,
				URL:        video.URL,
				ChunkIndex: c.Index,
				Text:       c.Text,
				Timestamp:  c.Timestamp,
			}
		}
		// Replace any stale chunks from a previous processing run
		f.index.RemoveBySource(video.ID)
		if _, err := f.index.Add(embeddings, records); err != nil {
			f.logger.Warn("video index update failed", "video_id", video.ID, "error", err)
		}
	}

	return cached, nil
}

// ChunkTranscript cleans caption segments and regroups their words
// into chunks of about targetWords, each stamped with the position of
// its first word.
func ChunkTranscript(segments []driven.TranscriptSegment, targetWords int) []domain.Chunk {
	if targetWords <= 0 {
		targetWords = 50
	}

	type timedWord struct {
		word  string
		start float64
		end   float64
	}
	var words []timedWord
	for _, seg := range segments {
		cleaned := chunk.CleanTranscript(seg.Text)
		segWords := strings.Fields(chunk.Normalize(cleaned))
		if len(segWords) == 0 {
			continue
		}
		// Words inside a segment share its timing
		end := seg.StartSeconds + seg.Duration
		for _, w := range segWords {
			words = append(words, timedWord{word: w, start: seg.StartSeconds, end: end})
		}
	}
	if len(words) == 0 {
		return nil
	}

	var chunks []domain.Chunk
	for start := 0; start < len(words); start += targetWords {
		end := start + targetWords
		if end > len(words) {
			end = len(words)
		}
		parts := make([]string, 0, end-start)
		for _, tw := range words[start:end] {
			parts = append(parts, tw.word)
		}
		first := words[start]
		last := words[end-1]
		chunks = append(chunks, domain.Chunk{
			Index:        len(chunks),
			Text:         strings.Join(parts, " "),
			WordCount:    end - start,
			Timestamp:    FormatTimestamp(first.start),
			StartSeconds: first.start,
			EndSeconds:   last.end,
		})
	}
	return chunks
}

// FormatTimestamp renders seconds as M:SS (or H:MM:SS past an hour)
func FormatTimestamp(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func isDeniedTitle(title string) bool {
	lower := strings.ToLower(title)
	for _, term := range deniedTitleTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
