package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mkalnins/labelctl/internal/models"
	"github.com/mkalnins/labelctl/internal/prompt"
)

// chatMessage is one turn of a training transcript.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type trainingLine struct {
	Messages []chatMessage `json:"messages"`
}

// WriteTraining regenerates the training-example JSONL wholesale from the
// full record set: one self-contained system/user/assistant transcript per
// line. The file is replaced atomically so it always reflects exactly one
// snapshot, never a partial mix.
func WriteTraining(path string, records []models.Record, labels []string, pb *prompt.Builder, maxExamples int) error {
	system := pb.System(records, maxExamples)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for _, r := range records {
		vector, err := labelVectorJSON(r, labels)
		if err != nil {
			return fmt.Errorf("record %s: %w", r.ID, err)
		}
		line := trainingLine{Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: pb.User(r.Text)},
			{Role: "assistant", Content: vector},
		}}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("encode training line %s: %w", r.ID, err)
		}
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".ft_data-*")
	if err != nil {
		return fmt.Errorf("create temp training file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write training file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close training file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename training file: %w", err)
	}
	return nil
}

// labelVectorJSON renders a record's label vector as a compact JSON object
// in schema order.
func labelVectorJSON(r models.Record, labels []string) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range labels {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return "", err
		}
		buf.Write(key)
		fmt.Fprintf(&buf, ":%d", r.Labels[name])
	}
	buf.WriteByte('}')
	return buf.String(), nil
}
