package controllers

import (
	"strings"
	"testing"
)

func TestChunkRunesSplitsOnRuneBoundaries(t *testing.T) {
	text := strings.Repeat("辣", 30)
	chunks := chunkRunes(text, streamChunkRunes)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks got %d", len(chunks))
	}
	if got := len([]rune(chunks[0])); got != streamChunkRunes {
		t.Fatalf("expected %d runes in first chunk, got %d", streamChunkRunes, got)
	}
	if got := len([]rune(chunks[1])); got != 6 {
		t.Fatalf("expected 6 runes in last chunk, got %d", got)
	}
	if strings.Join(chunks, "") != text {
		t.Fatalf("chunks do not reassemble the original text")
	}
}

func TestChunkRunesEmptyText(t *testing.T) {
	if chunks := chunkRunes("", streamChunkRunes); len(chunks) != 0 {
		t.Fatalf("expected no chunks for empty text, got %d", len(chunks))
	}
}
