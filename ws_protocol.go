package grapher

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
)

// Binary websocket protocol. Every message is an 8 byte little endian
// envelope followed by its payload:
//
//	version(1) reserved(2) type(1) length(4) payload(length)
//
// A chart is streamed as one METADATA message, one DATA message per series in
// draw order, then STREAM_END.
const (
	ProtocolVersion byte = 1

	MessageTypeData      byte = 0x01
	MessageTypeMetadata  byte = 0x02
	MessageTypeStreamEnd byte = 0x03

	EnvelopeHeaderSize = 8
)

type EnvelopeHeader struct {
	Version  byte
	Reserved [2]byte
	Type     byte
	Length   uint32
}

// DATA payload: series index, point count, then all X values followed by
// all Y values as float64 bits.
type DataMessage struct {
	SeriesID uint32
	Length   uint32
	X        []float64
	Y        []float64
}

type StreamEndMessage struct {
	Error bool
	Msg   string
}

type WSMessage struct {
	Header  EnvelopeHeader
	Payload interface{} // DataMessage, Metadata or StreamEndMessage
}

func EncodeEnvelopeHeader(env EnvelopeHeader) []byte {
	buf := make([]byte, EnvelopeHeaderSize)
	buf[0] = env.Version
	copy(buf[1:3], env.Reserved[:])
	buf[3] = env.Type
	binary.LittleEndian.PutUint32(buf[4:], env.Length)
	return buf
}

func DecodeEnvelopeHeader(buf []byte) (EnvelopeHeader, error) {
	if len(buf) < EnvelopeHeaderSize {
		return EnvelopeHeader{}, fmt.Errorf("buffer too short: expected at least %d bytes, got %d", EnvelopeHeaderSize, len(buf))
	}

	env := EnvelopeHeader{
		Version: buf[0],
		Type:    buf[3],
		Length:  binary.LittleEndian.Uint32(buf[4:8]),
	}
	copy(env.Reserved[:], buf[1:3])

	return env, nil
}

// Builds the DATA message for series id from plotted points.
func NewDataMessage(id int, curve Curve) DataMessage {
	msg := DataMessage{
		SeriesID: uint32(id),
		Length:   uint32(len(curve.XYs)),
		X:        make([]float64, len(curve.XYs)),
		Y:        make([]float64, len(curve.XYs)),
	}

	for i, xy := range curve.XYs {
		msg.X[i] = xy.X
		msg.Y[i] = xy.Y
	}

	return msg
}

func EncodeDataMessage(msg DataMessage) ([]byte, error) {
	if len(msg.X) != len(msg.Y) {
		return nil, fmt.Errorf("X and Y arrays must have same length: X=%d, Y=%d", len(msg.X), len(msg.Y))
	}
	if uint32(len(msg.X)) != msg.Length {
		return nil, fmt.Errorf("length field (%d) doesn't match array length (%d)", msg.Length, len(msg.X))
	}

	buf := make([]byte, 8, 8+16*len(msg.X))
	binary.LittleEndian.PutUint32(buf[0:4], msg.SeriesID)
	binary.LittleEndian.PutUint32(buf[4:8], msg.Length)

	for _, values := range [][]float64{msg.X, msg.Y} {
		for _, v := range values {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
		}
	}

	return buf, nil
}

func DecodeDataMessage(buf []byte) (DataMessage, error) {
	if len(buf) < 8 {
		return DataMessage{}, fmt.Errorf("buffer too short for DATA message: expected at least 8 bytes, got %d", len(buf))
	}

	msg := DataMessage{
		SeriesID: binary.LittleEndian.Uint32(buf[0:4]),
		Length:   binary.LittleEndian.Uint32(buf[4:8]),
	}

	expectedSize := 8 + 16*uint64(msg.Length)
	if uint64(len(buf)) != expectedSize {
		return DataMessage{}, fmt.Errorf("buffer size mismatch: expected %d bytes for %d pairs, got %d", expectedSize, msg.Length, len(buf))
	}

	readFloats := func(offset int) []float64 {
		values := make([]float64, msg.Length)
		for i := range values {
			start := offset + 8*i
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[start : start+8]))
		}
		return values
	}

	msg.X = readFloats(8)
	msg.Y = readFloats(8 + 8*int(msg.Length))

	return msg, nil
}

// METADATA and STREAM_END carry a length prefixed JSON document.
func encodeJSONPayload(name string, v interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	buf := make([]byte, 4, 4+len(jsonData))
	binary.LittleEndian.PutUint32(buf, uint32(len(jsonData)))
	return append(buf, jsonData...), nil
}

func decodeJSONPayload(name string, buf []byte, v interface{}) error {
	if len(buf) < 4 {
		return fmt.Errorf("buffer too short for %s: expected at least 4 bytes, got %d", name, len(buf))
	}

	expectedSize := 4 + uint64(binary.LittleEndian.Uint32(buf[0:4]))
	if uint64(len(buf)) != expectedSize {
		return fmt.Errorf("buffer size mismatch: expected %d bytes, got %d", expectedSize, len(buf))
	}

	if err := json.Unmarshal(buf[4:], v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", name, err)
	}

	return nil
}

func EncodeMetadataMessage(metadata Metadata) ([]byte, error) {
	return encodeJSONPayload("metadata", metadata)
}

func DecodeMetadataMessage(buf []byte) (Metadata, error) {
	var metadata Metadata
	err := decodeJSONPayload("metadata", buf, &metadata)
	return metadata, err
}

func EncodeStreamEndMessage(msg StreamEndMessage) ([]byte, error) {
	return encodeJSONPayload("stream end message", msg)
}

func DecodeStreamEndMessage(buf []byte) (StreamEndMessage, error) {
	var msg StreamEndMessage
	err := decodeJSONPayload("stream end message", buf, &msg)
	return msg, err
}

// Encodes header and payload. The header length is set from the payload.
func EncodeWSMessage(msg WSMessage) ([]byte, error) {
	var payload []byte
	var err error

	switch p := msg.Payload.(type) {
	case DataMessage:
		if msg.Header.Type != MessageTypeData {
			return nil, payloadMismatch(msg)
		}
		payload, err = EncodeDataMessage(p)
	case Metadata:
		if msg.Header.Type != MessageTypeMetadata {
			return nil, payloadMismatch(msg)
		}
		payload, err = EncodeMetadataMessage(p)
	case StreamEndMessage:
		if msg.Header.Type != MessageTypeStreamEnd {
			return nil, payloadMismatch(msg)
		}
		payload, err = EncodeStreamEndMessage(p)
	default:
		return nil, payloadMismatch(msg)
	}
	if err != nil {
		return nil, err
	}

	msg.Header.Length = uint32(len(payload))
	return append(EncodeEnvelopeHeader(msg.Header), payload...), nil
}

func payloadMismatch(msg WSMessage) error {
	switch msg.Header.Type {
	case MessageTypeData, MessageTypeMetadata, MessageTypeStreamEnd:
		return fmt.Errorf("payload type mismatch for message type 0x%02x: got %T", msg.Header.Type, msg.Payload)
	default:
		return fmt.Errorf("unknown message type: 0x%02x", msg.Header.Type)
	}
}

func DecodeWSMessage(buf []byte) (WSMessage, error) {
	env, err := DecodeEnvelopeHeader(buf)
	if err != nil {
		return WSMessage{}, err
	}

	expectedSize := uint64(EnvelopeHeaderSize) + uint64(env.Length)
	if uint64(len(buf)) < expectedSize {
		return WSMessage{}, fmt.Errorf("buffer too short: expected %d bytes (header + payload), got %d", expectedSize, len(buf))
	}

	payloadBytes := buf[EnvelopeHeaderSize:expectedSize]

	var payload interface{}
	switch env.Type {
	case MessageTypeData:
		payload, err = DecodeDataMessage(payloadBytes)
	case MessageTypeMetadata:
		payload, err = DecodeMetadataMessage(payloadBytes)
	case MessageTypeStreamEnd:
		payload, err = DecodeStreamEndMessage(payloadBytes)
	default:
		return WSMessage{}, fmt.Errorf("unknown message type: 0x%02x", env.Type)
	}
	if err != nil {
		return WSMessage{}, err
	}

	return WSMessage{Header: env, Payload: payload}, nil
}

// Produces the full message sequence for a chart.
func EncodeChartStream(chart *Chart) ([][]byte, error) {
	messages := []WSMessage{{
		Header:  EnvelopeHeader{Version: ProtocolVersion, Type: MessageTypeMetadata},
		Payload: NewMetadata(chart),
	}}

	for i, curve := range chart.Curves() {
		messages = append(messages, WSMessage{
			Header:  EnvelopeHeader{Version: ProtocolVersion, Type: MessageTypeData},
			Payload: NewDataMessage(i, curve),
		})
	}

	messages = append(messages, WSMessage{
		Header:  EnvelopeHeader{Version: ProtocolVersion, Type: MessageTypeStreamEnd},
		Payload: StreamEndMessage{Msg: "chart complete"},
	})

	encoded := make([][]byte, 0, len(messages))
	for _, msg := range messages {
		buf, err := EncodeWSMessage(msg)
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, buf)
	}

	return encoded, nil
}
