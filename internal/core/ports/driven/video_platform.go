package driven

import "context"

// VideoInfo describes one discovered video
type VideoInfo struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	ChannelTitle    string  `json:"channel_title"`
	URL             string  `json:"url"`
	DurationSeconds float64 `json:"duration_seconds"`
	HasCaptions     bool    `json:"has_captions"`
}

// TranscriptSegment is one caption line with its position
type TranscriptSegment struct {
	Text         string  `json:"text"`
	StartSeconds float64 `json:"start_seconds"`
	Duration     float64 `json:"duration"`
}

// VideoSearchOptions narrows video discovery
type VideoSearchOptions struct {
	MaxResults         int
	MaxDurationSeconds float64
	MinDurationSeconds float64
	Language           string
}

// VideoPlatform discovers videos and fetches their transcripts
type VideoPlatform interface {
	// Search finds captioned videos relevant to the query
	Search(ctx context.Context, query string, opts VideoSearchOptions) ([]VideoInfo, error)

	// Transcript fetches the caption track of a video, preferring
	// manually authored captions over auto-generated ones. Returns
	// domain.ErrNoTranscript when no usable track exists.
	Transcript(ctx context.Context, videoID string) ([]TranscriptSegment, error)
}
