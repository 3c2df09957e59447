// Package chunker splits oversized memory content into ordered,
// reconstructible chunks before insertion.
package chunker

import (
	"github.com/google/uuid"
)

// MaxChunkChars is the maximum content length of one stored record, in
// characters. It reflects the context limit of the upstream embedding model.
const MaxChunkChars = 8000

// Metadata keys attached to every chunk of a split memory.
const (
	MetaChunkIndex  = "chunk_index"
	MetaTotalChunks = "total_chunks"
	MetaIsChunked   = "is_chunked"
	MetaGroupID     = "group_id"
)

// Chunk is one physically storable slice of a logical memory.
type Chunk struct {
	ID       string
	Content  string
	Metadata map[string]interface{}
}

// Split divides content into ceil(len/limit) chunks of at most MaxChunkChars
// characters, in original order, non-overlapping. Concatenating the chunks'
// content in index order reconstructs the input exactly. The first chunk
// keeps the logical memory id; subsequent chunks get fresh ids. Chunk
// metadata is the original metadata plus chunk bookkeeping, including the
// group id that ties trailing chunks back to the logical memory.
func Split(id, content string, metadata map[string]interface{}) []Chunk {
	runes := []rune(content)
	if len(runes) <= MaxChunkChars {
		return []Chunk{{ID: id, Content: content, Metadata: copyMeta(metadata)}}
	}

	total := (len(runes) + MaxChunkChars - 1) / MaxChunkChars
	chunks := make([]Chunk, 0, total)
	for i := 0; i < total; i++ {
		start := i * MaxChunkChars
		end := start + MaxChunkChars
		if end > len(runes) {
			end = len(runes)
		}

		chunkID := id
		if i > 0 {
			chunkID = uuid.New().String()
		}

		meta := copyMeta(metadata)
		meta[MetaChunkIndex] = i
		meta[MetaTotalChunks] = total
		meta[MetaIsChunked] = true
		meta[MetaGroupID] = id

		chunks = append(chunks, Chunk{ID: chunkID, Content: string(runes[start:end]), Metadata: meta})
	}
	return chunks
}

// Truncate caps a query to the chunk limit.
func Truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxChunkChars {
		return s
	}
	return string(runes[:MaxChunkChars])
}

// GroupOf reports the chunk-group id a record belongs to, or "" when the
// record is not part of a chunked memory.
func GroupOf(metadata map[string]interface{}) string {
	if metadata == nil {
		return ""
	}
	g, _ := metadata[MetaGroupID].(string)
	return g
}

func copyMeta(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m)+4)
	for k, v := range m {
		out[k] = v
	}
	return out
}
