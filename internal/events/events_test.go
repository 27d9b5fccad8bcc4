// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package events

import (
	"bytes"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litreview/pkg/types"
)

func TestWriteSSEFraming(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{"status", Status("Searching arXiv"), "event: status\ndata: {\"message\":\"Searching arXiv\"}\n\n"},
		{"review start", ReviewStart(), "event: review_start\ndata: {}\n\n"},
		{"chunk", ReviewChunk("## Gaps\n"), "event: review_chunk\ndata: {\"text\":\"## Gaps\\n\"}\n\n"},
		{"count", PapersCount(4), "event: papers_count\ndata: {\"count\":4}\n\n"},
		{"complete", Complete(4), "event: complete\ndata: {\"paperCount\":4}\n\n"},
		{"error", Error("no papers found"), "event: error\ndata: {\"message\":\"no papers found\"}\n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteSSE(&buf, tt.event))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPaperFoundTruncatesAuthors(t *testing.T) {
	p := types.Paper{
		Title:   "Secure Aggregation",
		Authors: []string{"A", "B", "C", "D", "E"},
		Year:    types.IntPtr(2017),
		Source:  types.SourceSemanticScholar,
	}

	e := PaperFound(p)
	data, ok := e.Data.(PaperFoundData)
	require.True(t, ok)
	assert.Equal(t, []string{"A", "B", "C"}, data.Authors)
	assert.Len(t, p.Authors, 5, "source paper is not modified")

	payload, err := e.Payload()
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Secure Aggregation","authors":["A","B","C"],"year":2017,"source":"semantic_scholar"}`, string(payload))
}

func TestPaperFoundNullYear(t *testing.T) {
	payload, err := PaperFound(types.Paper{Title: "T", Source: types.SourceArxiv}).Payload()
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"T","authors":[],"year":null,"source":"arxiv"}`, string(payload))
}

func TestEventHelpers(t *testing.T) {
	assert.True(t, Complete(1).Terminal())
	assert.True(t, Error("x").Terminal())
	assert.False(t, ReviewChunk("x").Terminal())

	assert.Equal(t, "chunk", ReviewChunk("chunk").Text())
	assert.Equal(t, "hmm", Thinking("hmm").Text())
	assert.Equal(t, "boom", Error("boom").Text())
	assert.Equal(t, "", PapersCount(1).Text())
}

func TestStreamDeliversInOrder(t *testing.T) {
	s := NewStream(0)
	go func() {
		defer s.Close()
		for i := 1; i <= 5; i++ {
			s.Emit(PapersCount(i))
		}
	}()

	var got []int
	for e := range s.Events() {
		got = append(got, e.Data.(CountData).Count)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)
}

func TestStreamDetachUnblocksProducer(t *testing.T) {
	s := NewStream(0)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer s.Close()
		for i := 0; i < 100; i++ {
			s.Emit(Status("tick"))
		}
	}()

	<-s.Events()
	s.Detach()
	s.Detach()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer stayed blocked after Detach")
	}
}

func TestRecorder(t *testing.T) {
	var a Recorder
	a.Emit(Status("one"))
	Discard.Emit(Status("dropped"))
	a.Emit(Complete(0))

	assert.Equal(t, []Type{TypeStatus, TypeComplete}, a.Types())
	assert.Len(t, a.Events(), 2)
	assert.Len(t, a.OfType(TypeComplete), 1)
	assert.Empty(t, a.OfType(TypeError))
}

func TestSSEWriterSetsHeadersAndFlushes(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewSSEWriter(rec)
	require.NoError(t, err)

	require.NoError(t, w.Write(Thinking("looking")))
	assert.Equal(t, "text/event-stream; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.True(t, rec.Flushed)
	assert.Equal(t, "event: thinking\ndata: {\"text\":\"looking\"}\n\n", rec.Body.String())
}
