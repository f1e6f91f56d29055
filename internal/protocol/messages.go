package protocol

import (
	"encoding/base64"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Message types of the frame source protocol.
const (
	TypeNewFrame      = "new_frame"
	TypeExplainResult = "explain_result"
)

// Commands sent back to the frame source.
const (
	CmdExplain = "explain"
)

// ErrInvalidMessage marks messages rejected at the protocol boundary.
var ErrInvalidMessage = errors.New("protocol: invalid message")

// Message is one of NewFrame or ExplainResult.
type Message interface {
	Kind() string
}

// NewFrame announces a frame, either inline or by location reference.
type NewFrame struct {
	// Data is a data URL ("data:image/jpeg;base64,...") or bare base64.
	Data string
	// Path is a local path or URL of the frame.
	Path string
	// Raw holds undecoded image bytes received on binary channels.
	Raw []byte
}

func (NewFrame) Kind() string { return TypeNewFrame }

// Inline reports whether the frame carries its own image data.
func (m NewFrame) Inline() bool { return len(m.Raw) > 0 || m.Data != "" }

// ExplainResult carries a caption produced for an explain request.
type ExplainResult struct {
	Caption string
	// ID echoes the request id when the source supports it.
	ID string
	// Path echoes the explained frame reference when the source supports it.
	Path string
}

func (ExplainResult) Kind() string { return TypeExplainResult }

// envelope is the wire format of inbound messages.
type envelope struct {
	Type    string `json:"type"`
	Data    string `json:"data,omitempty"`
	Path    string `json:"path,omitempty"`
	Caption string `json:"caption,omitempty"`
	ID      string `json:"id,omitempty"`
}

// Command is the wire format of outbound commands.
type Command struct {
	Cmd  string `json:"cmd"`
	Path string `json:"path"`
	ID   string `json:"id,omitempty"`
}

// Parse validates an inbound message and returns its typed variant.
func Parse(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	switch env.Type {
	case TypeNewFrame:
		if env.Data == "" && env.Path == "" {
			return nil, fmt.Errorf("%w: %s without data or path", ErrInvalidMessage, env.Type)
		}
		return NewFrame{Data: env.Data, Path: env.Path}, nil
	case TypeExplainResult:
		return ExplainResult{Caption: env.Caption, ID: env.ID, Path: env.Path}, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrInvalidMessage)
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidMessage, env.Type)
	}
}

// Encode serializes a message for the wire. Raw frame bytes are not
// representable in JSON and must be sent on a binary channel instead.
func Encode(m Message) ([]byte, error) {
	switch v := m.(type) {
	case NewFrame:
		if len(v.Raw) > 0 {
			return nil, fmt.Errorf("%w: raw frame needs a binary channel", ErrInvalidMessage)
		}
		return json.Marshal(envelope{Type: TypeNewFrame, Data: v.Data, Path: v.Path})
	case ExplainResult:
		return json.Marshal(envelope{Type: TypeExplainResult, Caption: v.Caption, ID: v.ID, Path: v.Path})
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidMessage, m)
	}
}

// NewExplain builds an explain command for the frame at path.
func NewExplain(path, id string) Command {
	return Command{Cmd: CmdExplain, Path: path, ID: id}
}

// EncodeCommand serializes an outbound command.
func EncodeCommand(c Command) ([]byte, error) { return json.Marshal(c) }

// ParseCommand validates an outbound command on the source side.
func ParseCommand(data []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if c.Cmd != CmdExplain {
		return c, fmt.Errorf("%w: unknown command %q", ErrInvalidMessage, c.Cmd)
	}
	return c, nil
}

// Metadata is the companion descriptor of a preloaded frame.
type Metadata struct {
	Caption string `json:"caption"`
}

// ParseMetadata decodes a frame metadata document.
func ParseMetadata(data []byte) (Metadata, error) {
	var m Metadata
	err := json.Unmarshal(data, &m)
	return m, err
}

// EncodeMetadata serializes a frame metadata document.
func EncodeMetadata(m Metadata) ([]byte, error) { return json.Marshal(m) }

// DataURL builds an inline image reference.
func DataURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
