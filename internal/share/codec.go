package share

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/hexchat/chat-sync/internal/model"
)

// ErrBadPayload marks an inline payload that failed decoding, decompression
// or validation. The local store is never touched for such payloads.
var ErrBadPayload = errors.New("invalid share payload")

// maxPayloadBytes bounds the decompressed size of an inline payload.
const maxPayloadBytes = 4 << 20

// EncodePayload serializes, compresses (zlib) and base64-encodes a thread's
// shareable fields for URL transport.
func EncodePayload(p model.SharePayload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return "", fmt.Errorf("compress payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("compress payload: %w", err)
	}

	return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodePayload reverses EncodePayload. Links produced by older clients use
// the standard base64 alphabet, so both alphabets are accepted. A payload
// without a messages array is rejected.
func DecodePayload(data string) (*model.SharePayload, error) {
	compressed, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		compressed, err = base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("%w: bad base64", ErrBadPayload)
		}
	}

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: not zlib data", ErrBadPayload)
	}
	defer zr.Close()

	raw, err := io.ReadAll(io.LimitReader(zr, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: truncated stream", ErrBadPayload)
	}

	var p model.SharePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: bad JSON", ErrBadPayload)
	}
	if p.Messages == nil {
		return nil, fmt.Errorf("%w: missing messages", ErrBadPayload)
	}
	for _, m := range p.Messages {
		if !m.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", ErrBadPayload, m.Role)
		}
	}
	return &p, nil
}
