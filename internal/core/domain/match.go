package domain

// Chunk is a contiguous span of normalized article text
type Chunk struct {
	Index     int    `json:"index"`
	Text      string `json:"text"`
	WordCount int    `json:"word_count"`
	StartChar int    `json:"start_char"`
	EndChar   int    `json:"end_char"`

	// Timestamp carries the MM:SS position of the first word for
	// transcript chunks; empty otherwise.
	Timestamp    string  `json:"timestamp,omitempty"`
	StartSeconds float64 `json:"start_seconds,omitempty"`
	EndSeconds   float64 `json:"end_seconds,omitempty"`
}

// VectorRecord is the metadata stored alongside an indexed vector
type VectorRecord struct {
	SourceID   string     `json:"source_id"`
	SourceType SourceType `json:"source_type"`
	Title      string     `json:"title,omitempty"`
	URL        string     `json:"url,omitempty"`
	ChunkIndex int        `json:"chunk_index"`
	Text       string     `json:"text"`
	Timestamp  string     `json:"timestamp,omitempty"`
}

// RawMatch is one chunk-level similarity hit against a candidate source
type RawMatch struct {
	SourceID      string     `json:"source_id"`
	SourceType    SourceType `json:"source_type"`
	Title         string     `json:"title,omitempty"`
	URL           string     `json:"url,omitempty"`
	Score         float64    `json:"score"`
	SubmittedText string     `json:"submitted_text"`
	MatchedText   string     `json:"matched_text"`

	// Transcript position, youtube sources only
	Timestamp    string  `json:"timestamp,omitempty"`
	StartSeconds float64 `json:"start_seconds,omitempty"`
	EndSeconds   float64 `json:"end_seconds,omitempty"`

	// MergedCount is the number of adjacent transcript hits folded
	// into this match; 1 for unmerged matches.
	MergedCount int `json:"merged_count,omitempty"`
}

// MatchedChunk is one retained chunk pairing inside an aggregated match
type MatchedChunk struct {
	Score         float64 `json:"score"`
	SubmittedText string  `json:"submitted_text"`
	MatchedText   string  `json:"matched_text"`
	Timestamp     string  `json:"timestamp,omitempty"`
}

// AggregatedMatch is the per-source rollup reported to the caller
type AggregatedMatch struct {
	ID             string         `json:"id"`
	CheckID        string         `json:"check_id"`
	SourceID       string         `json:"source_id"`
	SourceType     SourceType     `json:"source_type"`
	Title          string         `json:"title,omitempty"`
	URL            string         `json:"url,omitempty"`
	Similarity     float64        `json:"similarity"`
	MaxScore       float64        `json:"max_score"`
	AvgScore       float64        `json:"avg_score"`
	ChunkCount     int            `json:"chunk_count"`
	RiskLevel      RiskLevel      `json:"risk_level"`
	Snippet        string         `json:"snippet,omitempty"`
	Explanation    string         `json:"explanation,omitempty"`
	Timestamp      string         `json:"timestamp,omitempty"`
	MatchedChunks  []MatchedChunk `json:"matched_chunks,omitempty"`
}
