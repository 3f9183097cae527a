package analysis

import (
	"bytes"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/ahmedfahim21/fingreat-go/domain/entities"
	"github.com/ahmedfahim21/fingreat-go/domain/repositories"
)

// Decoder reassembles newline-delimited JSON records from a chunked byte
// stream. Chunk boundaries are arbitrary: a record may be split across
// chunks and a chunk may carry many records. Chunking never changes the
// decoded output.
type Decoder struct {
	residual []byte
	logger   *zap.Logger
}

// NewDecoder creates a decoder with an empty residual buffer
func NewDecoder(logger *zap.Logger) *Decoder {
	return &Decoder{logger: logger}
}

// Push appends a chunk and returns every record completed by it, in
// order. A segment that fails to parse is dropped with a warning and the
// rest of the stream is unaffected.
func (d *Decoder) Push(chunk []byte) []repositories.AnalysisEvent {
	if len(chunk) == 0 {
		return nil
	}
	d.residual = append(d.residual, chunk...)

	parts := bytes.Split(d.residual, []byte{'\n'})

	var events []repositories.AnalysisEvent
	for _, line := range parts[:len(parts)-1] {
		if ev, ok := d.decodeLine(line); ok {
			events = append(events, ev)
		}
	}

	// The final part may be an incomplete record; keep it as the new
	// residual. Split returns views into the old residual's array, so the
	// tail must be detached before that array can be reused.
	d.residual = append([]byte(nil), parts[len(parts)-1]...)
	return events
}

// Finish reports end of stream. An unterminated trailing segment is
// discarded, never emitted as a record.
func (d *Decoder) Finish() {
	if len(bytes.TrimSpace(d.residual)) > 0 {
		d.logger.Warn("discarding unterminated trailing data",
			zap.Int("bytes", len(d.residual)))
	}
	d.residual = nil
}

// frame is the wire shape of one stream record. Result presence decides
// which event the line is.
type frame struct {
	Stage       *int   `json:"stage"`
	Message     string `json:"message"`
	TotalStages int    `json:"total_stages"`
	Result      string `json:"result"`
	Explanation string `json:"explanation"`
}

func (d *Decoder) decodeLine(line []byte) (repositories.AnalysisEvent, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return repositories.AnalysisEvent{}, false
	}

	var f frame
	if err := json.Unmarshal(line, &f); err != nil {
		d.logger.Warn("dropping malformed stream record",
			zap.ByteString("line", line),
			zap.Error(err))
		return repositories.AnalysisEvent{}, false
	}

	if f.Result != "" {
		verdict := entities.Verdict(f.Result)
		switch verdict {
		case entities.VerdictUp, entities.VerdictDown, entities.VerdictNeutral:
		default:
			d.logger.Warn("dropping stream record with unknown verdict",
				zap.String("result", f.Result))
			return repositories.AnalysisEvent{}, false
		}
		return repositories.AnalysisEvent{
			Result: &entities.ResultEvent{
				Result:      verdict,
				Explanation: f.Explanation,
			},
		}, true
	}
	if f.Stage != nil {
		return repositories.AnalysisEvent{
			Stage: &entities.StageEvent{
				Stage:       *f.Stage,
				Message:     f.Message,
				TotalStages: f.TotalStages,
			},
		}, true
	}

	d.logger.Warn("dropping stream record with no stage or result",
		zap.ByteString("line", line))
	return repositories.AnalysisEvent{}, false
}
