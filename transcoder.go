package cbstore

import (
	"bytes"
	"compress/zlib"
	"encoding/gob"
	"encoding/json"
	"io"
	"strconv"

	"github.com/golang/snappy"
	"github.com/vmihailenco/msgpack/v5"
)

// DatatypeFlag specifies data flags for the value of a document.
type DatatypeFlag uint8

const (
	// DatatypeFlagJSON indicates the server believes the value payload to be JSON.
	DatatypeFlagJSON = DatatypeFlag(0x01)

	// DatatypeFlagCompressed indicates the value payload is compressed by the server.
	DatatypeFlagCompressed = DatatypeFlag(0x02)
)

// Transcoder translates stored bytes and flags to and from application values.
type Transcoder interface {
	// Decode interprets a stored payload according to its flags and datatype.
	// A nil result with a nil error means the payload held no value.
	Decode(data []byte, flags uint32, datatype uint8) (interface{}, error)

	// Encode serializes an application value into a payload and the flags
	// describing it.
	Encode(value interface{}) ([]byte, uint32, error)
}

// JSONMode controls how structured payloads are decoded.
type JSONMode int

const (
	// JSONModeMap decodes structured payloads into generic Go values
	// (map[string]interface{}, []interface{} and so on).
	JSONModeMap JSONMode = iota

	// JSONModeRaw returns structured payloads as json.RawMessage for the
	// caller to unmarshal into typed objects.
	JSONModeRaw
)

// TranscoderOptions configures a StoreTranscoder. The zero value decodes
// structured data into generic maps and never compresses on encode.
type TranscoderOptions struct {
	// JSONMode selects how structured payloads decode.
	JSONMode JSONMode

	// Compression selects the compression applied to legacy-format payloads
	// on encode. Decoding always honours whatever the flags describe.
	Compression CmprType

	// CompressionMinSize is the smallest payload that will be compressed.
	// Payloads under this size are stored uncompressed even when Compression
	// is set. Defaults to 32 bytes when zero.
	CompressionMinSize int
}

const defaultCompressionMinSize = 32

// NativeValue marks a value to be stored with the native object serialization
// format rather than as JSON.
type NativeValue struct {
	Value interface{}
}

// PackedValue marks a value to be stored with the legacy binary serialization
// format rather than as JSON.
type PackedValue struct {
	Value interface{}
}

type nativeEnvelope struct {
	V interface{}
}

func init() {
	// Concrete types carried inside a natively serialized envelope must be
	// registered with gob ahead of time.
	gob.Register(map[string]interface{}{})
	gob.Register([]interface{}{})
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register("")
	gob.Register(false)
}

// StoreTranscoder is the corrected transcoder installed on every bucket
// opened by this library. It implements the full legacy flags scheme,
// including formats the default driver transcoders mishandle.
type StoreTranscoder struct {
	jsonMode           JSONMode
	compression        CmprType
	compressionMinSize int
}

var _ Transcoder = (*StoreTranscoder)(nil)

// NewTranscoder creates a StoreTranscoder with the provided options.
func NewTranscoder(opts TranscoderOptions) *StoreTranscoder {
	minSize := opts.CompressionMinSize
	if minSize <= 0 {
		minSize = defaultCompressionMinSize
	}

	return &StoreTranscoder{
		jsonMode:           opts.JSONMode,
		compression:        opts.Compression,
		compressionMinSize: minSize,
	}
}

// Decode interprets a stored payload according to its flags and datatype.
//
// The client-format byte wins over the legacy fields. Only when it is unset
// or private are the legacy serialization and compression fields consulted,
// with decompression applied before deserialization.
func (t *StoreTranscoder) Decode(data []byte, flags uint32, datatype uint8) (interface{}, error) {
	if DatatypeFlag(datatype)&DatatypeFlagCompressed != 0 {
		decoded, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, err
		}
		data = decoded
	}

	format, serType, cmprType := DecodeCommonFlags(flags)

	switch format {
	case FmtLegacy, FmtPrivate:
		// Interpreted by the legacy fields below.
	case FmtJSON:
		return t.decodeJSON(data)
	case FmtRaw:
		return data, nil
	case FmtString:
		return string(data), nil
	default:
		return nil, ErrUnknownFlags
	}

	var err error
	switch cmprType {
	case CmprZlib:
		data, err = inflateZlib(data)
	case CmprFastBlock:
		data, err = snappy.Decode(nil, data)
	}
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		// Historical encoders wrote empty documents as an empty payload,
		// which is indistinguishable from an absent value at this point.
		// The store facade applies the empty-string correction.
		return nil, nil
	}

	switch serType {
	case SerString:
		return string(data), nil
	case SerInt:
		return strconv.ParseInt(string(data), 10, 64)
	case SerFloat:
		return strconv.ParseFloat(string(data), 64)
	case SerBool:
		return data[0] != '0', nil
	case SerNative:
		var envelope nativeEnvelope
		if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&envelope); err != nil {
			return nil, err
		}
		return envelope.V, nil
	case SerPacked:
		var value interface{}
		if err := msgpack.Unmarshal(data, &value); err != nil {
			return nil, err
		}
		return value, nil
	case SerJSON:
		return t.decodeJSON(data)
	}

	return nil, nil
}

// Encode serializes an application value into a payload and flags. Strings,
// integers, floats, booleans and raw bytes use the legacy representations so
// that documents remain readable by the older clients sharing the bucket;
// everything else is stored as JSON.
func (t *StoreTranscoder) Encode(value interface{}) ([]byte, uint32, error) {
	var data []byte
	var serType SerType

	switch typed := value.(type) {
	case nil:
		return nil, EncodeCommonFlags(FmtLegacy, SerString, CmprNone), nil
	case string:
		data = []byte(typed)
		serType = SerString
	case []byte:
		return typed, EncodeCommonFlags(FmtRaw, SerString, CmprNone), nil
	case json.RawMessage:
		return typed, EncodeCommonFlags(FmtJSON, SerString, CmprNone), nil
	case bool:
		if typed {
			data = []byte("1")
		} else {
			data = []byte("0")
		}
		serType = SerBool
	case int:
		data = strconv.AppendInt(nil, int64(typed), 10)
		serType = SerInt
	case int8:
		data = strconv.AppendInt(nil, int64(typed), 10)
		serType = SerInt
	case int16:
		data = strconv.AppendInt(nil, int64(typed), 10)
		serType = SerInt
	case int32:
		data = strconv.AppendInt(nil, int64(typed), 10)
		serType = SerInt
	case int64:
		data = strconv.AppendInt(nil, typed, 10)
		serType = SerInt
	case uint:
		data = strconv.AppendUint(nil, uint64(typed), 10)
		serType = SerInt
	case uint8:
		data = strconv.AppendUint(nil, uint64(typed), 10)
		serType = SerInt
	case uint16:
		data = strconv.AppendUint(nil, uint64(typed), 10)
		serType = SerInt
	case uint32:
		data = strconv.AppendUint(nil, uint64(typed), 10)
		serType = SerInt
	case uint64:
		data = strconv.AppendUint(nil, typed, 10)
		serType = SerInt
	case float32:
		data = strconv.AppendFloat(nil, float64(typed), 'g', -1, 64)
		serType = SerFloat
	case float64:
		data = strconv.AppendFloat(nil, typed, 'g', -1, 64)
		serType = SerFloat
	case NativeValue:
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(nativeEnvelope{V: typed.Value}); err != nil {
			return nil, 0, err
		}
		data = buf.Bytes()
		serType = SerNative
	case PackedValue:
		packed, err := msgpack.Marshal(typed.Value)
		if err != nil {
			return nil, 0, err
		}
		data = packed
		serType = SerPacked
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, 0, err
		}
		data = encoded
		serType = SerJSON
	}

	cmprType := CmprNone
	if t.compression != CmprNone && len(data) >= t.compressionMinSize {
		compressed, err := t.compress(data)
		if err != nil {
			return nil, 0, err
		}
		data = compressed
		cmprType = t.compression
	}

	return data, EncodeCommonFlags(FmtLegacy, serType, cmprType), nil
}

func (t *StoreTranscoder) compress(data []byte) ([]byte, error) {
	switch t.compression {
	case CmprZlib:
		return deflateZlib(data)
	case CmprFastBlock:
		return snappy.Encode(nil, data), nil
	default:
		return nil, ErrInvalidArgs
	}
}

func (t *StoreTranscoder) decodeJSON(data []byte) (interface{}, error) {
	if t.jsonMode == JSONModeRaw {
		raw := make(json.RawMessage, len(data))
		copy(raw, data)
		return raw, nil
	}

	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, err
	}
	return value, nil
}

func deflateZlib(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func inflateZlib(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}
