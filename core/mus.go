package core

import (
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the persisted types. Fields are written in declaration
// order, so reordering or adding a field changes the stored format.
var (
	IDMUS             = idMUS{}
	TimeMUS           = timeMUS{}
	PipelineResultMUS = pipelineResultMUS{}
	ContentRecordMUS  = contentRecordMUS{}
	CheckpointMUS     = checkpointMUS{}
)

var (
	stringsMUS = ord.NewSliceSer[string](ord.String)
	idsMUS     = ord.NewSliceSer[ID](IDMUS)
)

// decoder threads the read offset and the first error through a sequence
// of field reads.
type decoder struct {
	bs  []byte
	n   int
	err error
}

func read[T any](d *decoder, s mus.Serializer[T]) (v T) {
	if d.err != nil {
		return
	}
	var n int
	v, n, d.err = s.Unmarshal(d.bs[d.n:])
	d.n += n
	return
}

// idMUS writes an ID as an unsigned varint.
type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	u, n, err := varint.Uint64.Unmarshal(bs)
	return ID(u), n, err
}

func (idMUS) Size(v ID) int {
	return varint.Uint64.Size(uint64(v))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

// timeMUS writes a time as Unix seconds plus nanoseconds and reads it back
// in UTC. The zero time survives the round trip.
type timeMUS struct{}

func (timeMUS) Marshal(v time.Time, bs []byte) (n int) {
	n = varint.Int64.Marshal(v.Unix(), bs)
	n += varint.Int64.Marshal(int64(v.Nanosecond()), bs[n:])
	return
}

func (timeMUS) Unmarshal(bs []byte) (v time.Time, n int, err error) {
	d := &decoder{bs: bs}
	sec := read[int64](d, varint.Int64)
	nsec := read[int64](d, varint.Int64)
	if d.err != nil {
		return time.Time{}, d.n, d.err
	}
	return time.Unix(sec, nsec).UTC(), d.n, nil
}

func (timeMUS) Size(v time.Time) int {
	return varint.Int64.Size(v.Unix()) + varint.Int64.Size(int64(v.Nanosecond()))
}

func (s timeMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

func dimensionSize(v DimensionScore) int {
	return varint.Int.Size(v.Score) + varint.Int.Size(v.Max) + ord.String.Size(v.Feedback)
}

func marshalDimension(v DimensionScore, bs []byte) (n int) {
	n = varint.Int.Marshal(v.Score, bs)
	n += varint.Int.Marshal(v.Max, bs[n:])
	n += ord.String.Marshal(v.Feedback, bs[n:])
	return
}

func readDimension(d *decoder) DimensionScore {
	return DimensionScore{
		Score:    read[int](d, varint.Int),
		Max:      read[int](d, varint.Int),
		Feedback: read[string](d, ord.String),
	}
}

// pipelineResultMUS covers everything but the embedding, which is stored
// on its own.
type pipelineResultMUS struct{}

func (pipelineResultMUS) Marshal(v PipelineResult, bs []byte) (n int) {
	for _, s := range []string{
		v.Summaries.Short, v.Summaries.Medium, v.Summaries.Long,
		v.SearchMetadata.Title, v.SearchMetadata.Description, v.SearchMetadata.Keywords,
		v.Classification.Category, v.Classification.Subcategory,
		v.Classification.ContentType, v.Classification.Audience,
	} {
		n += ord.String.Marshal(s, bs[n:])
	}
	n += raw.Float64.Marshal(v.Classification.Confidence, bs[n:])
	n += stringsMUS.Marshal([]string(v.Tags), bs[n:])
	for _, s := range []string{
		v.Description.Description, v.Description.SchemaJSON,
		v.VisualPrompt.Prompt, v.VisualPrompt.Style,
		v.VisualPrompt.NegativePrompt, v.VisualPrompt.AspectRatio,
	} {
		n += ord.String.Marshal(s, bs[n:])
	}
	n += varint.Int.Marshal(v.QualityScore, bs[n:])
	n += ord.Bool.Marshal(v.Passed, bs[n:])
	for _, dim := range v.ValidationReport.Dimensions() {
		n += marshalDimension(dim, bs[n:])
	}
	n += ord.String.Marshal(v.ValidationReport.OverallFeedback, bs[n:])
	n += stringsMUS.Marshal(v.ValidationReport.Issues, bs[n:])
	n += stringsMUS.Marshal(v.ValidationReport.Recommendations, bs[n:])
	n += varint.Int64.Marshal(int64(v.ElapsedTime), bs[n:])
	n += raw.Float64.Marshal(v.EstimatedCost, bs[n:])
	n += TimeMUS.Marshal(v.CompletedAt, bs[n:])
	return
}

func (pipelineResultMUS) Unmarshal(bs []byte) (v PipelineResult, n int, err error) {
	d := &decoder{bs: bs}
	str := func() string { return read[string](d, ord.String) }

	v.Summaries = Summaries{Short: str(), Medium: str(), Long: str()}
	v.SearchMetadata = SearchMetadata{Title: str(), Description: str(), Keywords: str()}
	v.Classification = Classification{Category: str(), Subcategory: str(), ContentType: str(), Audience: str()}
	v.Classification.Confidence = read[float64](d, raw.Float64)
	v.Tags = Tags(read[[]string](d, stringsMUS))
	v.Description = StructuredDescription{Description: str(), SchemaJSON: str()}
	v.VisualPrompt = VisualPrompt{Prompt: str(), Style: str(), NegativePrompt: str(), AspectRatio: str()}
	v.QualityScore = read[int](d, varint.Int)
	v.Passed = read[bool](d, ord.Bool)
	v.ValidationReport = ValidationReport{
		Summaries:             readDimension(d),
		SearchMetadata:        readDimension(d),
		ClassificationTagging: readDimension(d),
		StructuredDescription: readDimension(d),
		VisualPrompt:          readDimension(d),
		OverallFeedback:       str(),
		Issues:                nonNilStrings(read[[]string](d, stringsMUS)),
		Recommendations:       nonNilStrings(read[[]string](d, stringsMUS)),
	}
	v.ElapsedTime = time.Duration(read[int64](d, varint.Int64))
	v.EstimatedCost = read[float64](d, raw.Float64)
	v.CompletedAt = read[time.Time](d, TimeMUS)
	if d.err != nil {
		return PipelineResult{}, d.n, d.err
	}
	return v, d.n, nil
}

func (pipelineResultMUS) Size(v PipelineResult) (size int) {
	for _, s := range []string{
		v.Summaries.Short, v.Summaries.Medium, v.Summaries.Long,
		v.SearchMetadata.Title, v.SearchMetadata.Description, v.SearchMetadata.Keywords,
		v.Classification.Category, v.Classification.Subcategory,
		v.Classification.ContentType, v.Classification.Audience,
		v.Description.Description, v.Description.SchemaJSON,
		v.VisualPrompt.Prompt, v.VisualPrompt.Style,
		v.VisualPrompt.NegativePrompt, v.VisualPrompt.AspectRatio,
		v.ValidationReport.OverallFeedback,
	} {
		size += ord.String.Size(s)
	}
	size += raw.Float64.Size(v.Classification.Confidence)
	size += stringsMUS.Size([]string(v.Tags))
	size += varint.Int.Size(v.QualityScore)
	size += ord.Bool.Size(v.Passed)
	for _, dim := range v.ValidationReport.Dimensions() {
		size += dimensionSize(dim)
	}
	size += stringsMUS.Size(v.ValidationReport.Issues)
	size += stringsMUS.Size(v.ValidationReport.Recommendations)
	size += varint.Int64.Size(int64(v.ElapsedTime))
	size += raw.Float64.Size(v.EstimatedCost)
	size += TimeMUS.Size(v.CompletedAt)
	return
}

func (s pipelineResultMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// contentRecordMUS writes a presence flag ahead of the optional result.
type contentRecordMUS struct{}

func (contentRecordMUS) Marshal(v ContentRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.ContentHash, bs[n:])
	n += ord.String.Marshal(v.Body, bs[n:])
	n += ord.String.Marshal(string(v.Status), bs[n:])
	n += ord.Bool.Marshal(v.Result != nil, bs[n:])
	if v.Result != nil {
		n += PipelineResultMUS.Marshal(*v.Result, bs[n:])
	}
	n += TimeMUS.Marshal(v.InsertedAt, bs[n:])
	n += TimeMUS.Marshal(v.UpdatedAt, bs[n:])
	return
}

func (contentRecordMUS) Unmarshal(bs []byte) (v ContentRecord, n int, err error) {
	d := &decoder{bs: bs}
	v.Id = read[ID](d, IDMUS)
	v.ContentHash = read[ID](d, IDMUS)
	v.Body = read[string](d, ord.String)
	v.Status = RecordStatus(read[string](d, ord.String))
	if read[bool](d, ord.Bool) {
		result := read[PipelineResult](d, PipelineResultMUS)
		v.Result = &result
	}
	v.InsertedAt = read[time.Time](d, TimeMUS)
	v.UpdatedAt = read[time.Time](d, TimeMUS)
	if d.err != nil {
		return ContentRecord{}, d.n, d.err
	}
	return v, d.n, nil
}

func (contentRecordMUS) Size(v ContentRecord) (size int) {
	size = IDMUS.Size(v.Id) + IDMUS.Size(v.ContentHash)
	size += ord.String.Size(v.Body) + ord.String.Size(string(v.Status))
	size += ord.Bool.Size(v.Result != nil)
	if v.Result != nil {
		size += PipelineResultMUS.Size(*v.Result)
	}
	return size + TimeMUS.Size(v.InsertedAt) + TimeMUS.Size(v.UpdatedAt)
}

func (s contentRecordMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

type checkpointMUS struct{}

func (checkpointMUS) Marshal(v Checkpoint, bs []byte) (n int) {
	n = ord.String.Marshal(v.Name, bs)
	n += IDMUS.Marshal(v.LastID, bs[n:])
	n += varint.Int.Marshal(v.Processed, bs[n:])
	n += idsMUS.Marshal(v.Failed, bs[n:])
	n += TimeMUS.Marshal(v.UpdatedAt, bs[n:])
	return
}

func (checkpointMUS) Unmarshal(bs []byte) (v Checkpoint, n int, err error) {
	d := &decoder{bs: bs}
	v.Name = read[string](d, ord.String)
	v.LastID = read[ID](d, IDMUS)
	v.Processed = read[int](d, varint.Int)
	v.Failed = read[[]ID](d, idsMUS)
	v.UpdatedAt = read[time.Time](d, TimeMUS)
	if d.err != nil {
		return Checkpoint{}, d.n, d.err
	}
	if len(v.Failed) == 0 {
		v.Failed = nil
	}
	return v, d.n, nil
}

func (checkpointMUS) Size(v Checkpoint) int {
	return ord.String.Size(v.Name) + IDMUS.Size(v.LastID) + varint.Int.Size(v.Processed) +
		idsMUS.Size(v.Failed) + TimeMUS.Size(v.UpdatedAt)
}

func (s checkpointMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}
