package pipeline

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/helix"
)

// payloadVersion guards cached entries across format changes. Entries
// with a different version decode as a miss and are rebuilt.
const payloadVersion = 1

// payload is the cacheable outcome of a GENERATE_FILES stage.
type payload struct {
	Version   int                    `msgpack:"version"`
	Files     []*helix.GeneratedFile `msgpack:"files"`
	Warnings  []string               `msgpack:"warnings,omitempty"`
	CreatedAt time.Time              `msgpack:"createdAt"`
}

func encodePayload(files []*helix.GeneratedFile, warnings []string) ([]byte, error) {
	return msgpack.Marshal(&payload{
		Version:   payloadVersion,
		Files:     files,
		Warnings:  warnings,
		CreatedAt: time.Now().UTC(),
	})
}

func decodePayload(blob []byte) ([]*helix.GeneratedFile, []string, error) {
	var p payload
	if err := msgpack.Unmarshal(blob, &p); err != nil {
		return nil, nil, fmt.Errorf("pipeline: decode cached payload: %w", err)
	}
	if p.Version != payloadVersion {
		return nil, nil, fmt.Errorf("pipeline: cached payload version %d, want %d", p.Version, payloadVersion)
	}
	return p.Files, p.Warnings, nil
}
