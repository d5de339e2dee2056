// Package youtube implements video discovery through the YouTube Data
// API v3 and transcript retrieval through the timedtext endpoint.
package youtube

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/overlap-core/internal/core/domain"
	"github.com/custodia-labs/overlap-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VideoPlatform = (*Client)(nil)

// Client talks to the YouTube Data API v3
type Client struct {
	apiKey      string
	apiBaseURL  string
	captionsURL string
	client      *http.Client
}

// NewClient creates a YouTube client
func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("youtube API key is required")
	}
	return &Client{
		apiKey:      apiKey,
		apiBaseURL:  "https://www.googleapis.com/youtube/v3",
		captionsURL: "https://video.google.com/timedtext",
		client:      &http.Client{Timeout: 20 * time.Second},
	}, nil
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
	} `json:"items"`
	Error *apiError `json:"error,omitempty"`
}

type videosResponse struct {
	Items []struct {
		ID             string `json:"id"`
		ContentDetails struct {
			Duration string `json:"duration"`
			Caption  string `json:"caption"`
		} `json:"contentDetails"`
	} `json:"items"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Search finds captioned English videos relevant to the query, with
// duration bounds applied after fetching content details.
func (c *Client) Search(ctx context.Context, query string, opts driven.VideoSearchOptions) ([]driven.VideoInfo, error) {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 5
	}
	language := opts.Language
	if language == "" {
		language = "en"
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("videoCaption", "closedCaption")
	params.Set("relevanceLanguage", language)
	params.Set("order", "relevance")
	params.Set("videoDuration", durationFilter(opts.MaxDurationSeconds))
	params.Set("maxResults", strconv.Itoa(opts.MaxResults*2)) // headroom for duration filtering

	var searchResp searchResponse
	if err := c.getJSON(ctx, c.apiBaseURL+"/search?"+params.Encode(), &searchResp); err != nil {
		return nil, err
	}
	if searchResp.Error != nil {
		return nil, fmt.Errorf("youtube search API error %d: %s", searchResp.Error.Code, searchResp.Error.Message)
	}
	if len(searchResp.Items) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(searchResp.Items))
	titles := make(map[string]string)
	channels := make(map[string]string)
	for _, item := range searchResp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		ids = append(ids, item.ID.VideoID)
		titles[item.ID.VideoID] = html.UnescapeString(item.Snippet.Title)
		channels[item.ID.VideoID] = item.Snippet.ChannelTitle
	}

	durations, err := c.videoDurations(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]driven.VideoInfo, 0, opts.MaxResults)
	for _, id := range ids {
		seconds, ok := durations[id]
		if !ok {
			continue
		}
		if opts.MaxDurationSeconds > 0 && seconds > opts.MaxDurationSeconds {
			continue
		}
		if opts.MinDurationSeconds > 0 && seconds < opts.MinDurationSeconds {
			continue
		}
		results = append(results, driven.VideoInfo{
			ID:              id,
			Title:           titles[id],
			ChannelTitle:    channels[id],
			URL:             "https://www.youtube.com/watch?v=" + id,
			DurationSeconds: seconds,
			HasCaptions:     true,
		})
		if len(results) == opts.MaxResults {
			break
		}
	}
	return results, nil
}

func (c *Client) videoDurations(ctx context.Context, ids []string) (map[string]float64, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("part", "contentDetails")
	params.Set("id", strings.Join(ids, ","))

	var resp videosResponse
	if err := c.getJSON(ctx, c.apiBaseURL+"/videos?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("youtube videos API error %d: %s", resp.Error.Code, resp.Error.Message)
	}

	durations := make(map[string]float64, len(resp.Items))
	for _, item := range resp.Items {
		durations[item.ID] = ParseISO8601Duration(item.ContentDetails.Duration)
	}
	return durations, nil
}

// timedtext track list
type trackList struct {
	Tracks []struct {
		LangCode string `xml:"lang_code,attr"`
		Kind     string `xml:"kind,attr"`
		Name     string `xml:"name,attr"`
	} `xml:"track"`
}

// timedtext transcript
type transcript struct {
	Texts []struct {
		Start float64 `xml:"start,attr"`
		Dur   float64 `xml:"dur,attr"`
		Body  string  `xml:",chardata"`
	} `xml:"text"`
}

// Transcript fetches the caption track of a video, preferring manually
// authored captions over auto-generated ones.
func (c *Client) Transcript(ctx context.Context, videoID string) ([]driven.TranscriptSegment, error) {
	listParams := url.Values{}
	listParams.Set("type", "list")
	listParams.Set("v", videoID)

	body, err := c.getRaw(ctx, c.captionsURL+"?"+listParams.Encode())
	if err != nil {
		return nil, err
	}

	var tracks trackList
	if err := xml.Unmarshal(body, &tracks); err != nil || len(tracks.Tracks) == 0 {
		return nil, fmt.Errorf("%w: video %s", domain.ErrNoTranscript, videoID)
	}

	// Prefer a manual English track; auto-generated tracks have kind=asr
	var lang, kind, name string
	for _, track := range tracks.Tracks {
		if !strings.HasPrefix(track.LangCode, "en") {
			continue
		}
		if track.Kind != "asr" {
			lang, kind, name = track.LangCode, track.Kind, track.Name
			break
		}
		if lang == "" {
			lang, kind, name = track.LangCode, track.Kind, track.Name
		}
	}
	if lang == "" {
		return nil, fmt.Errorf("%w: no english track for video %s", domain.ErrNoTranscript, videoID)
	}

	params := url.Values{}
	params.Set("v", videoID)
	params.Set("lang", lang)
	if kind != "" {
		params.Set("kind", kind)
	}
	if name != "" {
		params.Set("name", name)
	}

	body, err = c.getRaw(ctx, c.captionsURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var tr transcript
	if err := xml.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("failed to parse transcript: %w", err)
	}
	if len(tr.Texts) == 0 {
		return nil, fmt.Errorf("%w: empty transcript for video %s", domain.ErrNoTranscript, videoID)
	}

	segments := make([]driven.TranscriptSegment, 0, len(tr.Texts))
	for _, text := range tr.Texts {
		segments = append(segments, driven.TranscriptSegment{
			Text:         html.UnescapeString(text.Body),
			StartSeconds: text.Start,
			Duration:     text.Dur,
		})
	}
	return segments, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	body, err := c.getRaw(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *Client) getRaw(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: youtube: %v", domain.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

var iso8601Re = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseISO8601Duration converts an ISO 8601 duration like PT4M13S to
// seconds. Unparseable input yields 0.
func ParseISO8601Duration(s string) float64 {
	m := iso8601Re.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	var seconds float64
	if m[1] != "" {
		h, _ := strconv.Atoi(m[1])
		seconds += float64(h) * 3600
	}
	if m[2] != "" {
		min, _ := strconv.Atoi(m[2])
		seconds += float64(min) * 60
	}
	if m[3] != "" {
		sec, _ := strconv.Atoi(m[3])
		seconds += float64(sec)
	}
	return seconds
}

// durationFilter maps a ceiling in seconds to the API's coarse buckets
func durationFilter(maxSeconds float64) string {
	switch {
	case maxSeconds > 0 && maxSeconds <= 240:
		return "short" // under 4 minutes
	case maxSeconds > 0 && maxSeconds <= 1200:
		return "medium" // 4 to 20 minutes
	default:
		return "any"
	}
}
