package storage

import (
	"testing"
	"time"

	"github.com/poiesic/enrichit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			assert.Len(t, data, core.IDMUS.Size(tt.id))

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}

	assert.Len(t, MarshalID(42), 1, "small ids take a single varint byte")
}

func TestUnmarshalID_Invalid(t *testing.T) {
	for _, data := range [][]byte{{}, {0xFF}, {0xFF, 0xFF, 0xFF}} {
		_, err := UnmarshalID(data)
		assert.ErrorIs(t, err, ErrTruncatedData)
	}

	_, err := UnmarshalID(append(MarshalID(7), 0))
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func sampleRecord() *core.ContentRecord {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &core.ContentRecord{
		Id:          7,
		ContentHash: core.IDFromContent("body"),
		Body:        "body",
		Status:      core.RecordStatusNeedsReview,
		Result: &core.PipelineResult{
			Summaries:      core.Summaries{Short: "s", Medium: "medium", Long: "a long summary"},
			SearchMetadata: core.SearchMetadata{Title: "Badger", Description: "Storage notes", Keywords: "go, storage, kv"},
			Classification: core.Classification{Category: "Technology", ContentType: "article", Confidence: 0.875},
			Tags:           core.Tags{"go", "storage", "badger"},
			Description:    core.StructuredDescription{Description: "desc", SchemaJSON: `{"@type": "Article"}`},
			VisualPrompt:   core.VisualPrompt{Prompt: "a badger", AspectRatio: "16:9"},
			Embedding:      core.Embedding{0.1, 0.2},
			QualityScore:   64,
			ValidationReport: core.ValidationReport{
				Summaries:       core.DimensionScore{Score: 20, Max: 25, Feedback: "fine"},
				VisualPrompt:    core.DimensionScore{Score: 5, Max: 15},
				OverallFeedback: "thin",
				Issues:          []string{"title too generic"},
				Recommendations: []string{"name the engine"},
			},
			ElapsedTime:   1500 * time.Millisecond,
			EstimatedCost: 0.0425,
			CompletedAt:   now,
		},
		InsertedAt: now,
		UpdatedAt:  now.Add(time.Second),
	}
}

func TestMarshalRecord_RoundTrip(t *testing.T) {
	record := sampleRecord()

	data, err := MarshalRecord(record)
	require.NoError(t, err)
	assert.Len(t, record.Result.Embedding, 2, "input must not be modified")

	decoded, err := UnmarshalRecord(data)
	require.NoError(t, err)

	want := *record
	want.Result = record.Result.WithoutEmbedding()
	assert.Equal(t, &want, decoded)
	assert.Empty(t, decoded.Result.Embedding)
}

func TestMarshalRecord_WithoutResult(t *testing.T) {
	record := &core.ContentRecord{Id: 1, Body: "body", Status: core.RecordStatusApproved}

	data, err := MarshalRecord(record)
	require.NoError(t, err)
	decoded, err := UnmarshalRecord(data)
	require.NoError(t, err)
	assert.Nil(t, decoded.Result)
	assert.True(t, decoded.InsertedAt.IsZero())
	assert.Equal(t, record.Body, decoded.Body)

	_, err = MarshalRecord(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalRecord_EmptyReportListsStayEmpty(t *testing.T) {
	record := sampleRecord()
	record.Result.ValidationReport.Issues = nil
	record.Result.ValidationReport.Recommendations = []string{}

	data, err := MarshalRecord(record)
	require.NoError(t, err)
	decoded, err := UnmarshalRecord(data)
	require.NoError(t, err)
	assert.NotNil(t, decoded.Result.ValidationReport.Issues)
	assert.Empty(t, decoded.Result.ValidationReport.Issues)
	assert.Empty(t, decoded.Result.ValidationReport.Recommendations)
}

func TestUnmarshalRecord_Invalid(t *testing.T) {
	valid, err := MarshalRecord(sampleRecord())
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"invalid data", []byte{0xFF, 0xFF, 0xFF}},
		{"truncated record", valid[:len(valid)/2]},
		{"missing last byte", valid[:len(valid)-1]},
		{"trailing bytes", append(append([]byte{}, valid...), 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalRecord(tt.data)
			assert.ErrorIs(t, err, ErrSerializationFailed)
		})
	}
}

func TestMarshalCheckpoint_RoundTrip(t *testing.T) {
	checkpoint := &core.Checkpoint{
		Name:      "reindex",
		LastID:    300,
		Processed: 250,
		Failed:    []core.ID{3, 17, 290},
		UpdatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	data, err := MarshalCheckpoint(checkpoint)
	require.NoError(t, err)
	decoded, err := UnmarshalCheckpoint(data)
	require.NoError(t, err)
	assert.Equal(t, checkpoint, decoded)

	checkpoint.Failed = nil
	data, err = MarshalCheckpoint(checkpoint)
	require.NoError(t, err)
	decoded, err = UnmarshalCheckpoint(data)
	require.NoError(t, err)
	assert.Nil(t, decoded.Failed)

	_, err = UnmarshalCheckpoint(data[:len(data)-1])
	assert.ErrorIs(t, err, ErrSerializationFailed)
	_, err = MarshalCheckpoint(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalVector(t *testing.T) {
	v := []float32{0, 1, -1, 0.5, 3.25e-7}
	data := MarshalVector(v)
	assert.Len(t, data, len(v)*4)

	decoded, err := UnmarshalVector(data)
	require.NoError(t, err)
	assert.Equal(t, v, decoded)

	_, err = UnmarshalVector([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrTruncatedData)
}
