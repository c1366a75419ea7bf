package cbstore

// The flags attached to each stored value carry three independent sub-fields.
// The high byte holds the cross-SDK client format, the low five bits hold the
// legacy serialization type and the three bits above those hold the legacy
// compression type. The legacy fields are only meaningful when the client
// format is unset or private.
const (
	cfFmtMask  = uint32(0xFF000000)
	cfSerMask  = uint32(0x1F)
	cfCmprMask = uint32(0xE0)
)

// ClientFormat specifies the cross-SDK format of a stored value.
type ClientFormat uint32

const (
	// FmtLegacy indicates no client format is set, the legacy serialization
	// and compression fields describe the value.
	FmtLegacy = ClientFormat(0x00000000)

	// FmtPrivate indicates an SDK-private format, treated like FmtLegacy.
	FmtPrivate = ClientFormat(0x01000000)

	// FmtJSON indicates the value is stored as structured JSON data.
	FmtJSON = ClientFormat(0x02000000)

	// FmtRaw indicates the value is stored as raw bytes.
	FmtRaw = ClientFormat(0x03000000)

	// FmtString indicates the value is stored as a UTF-8 string.
	FmtString = ClientFormat(0x04000000)
)

// SerType specifies the legacy serialization scheme of a stored value.
type SerType uint32

const (
	// SerString indicates the payload is the bytes of a string.
	SerString = SerType(0x00)

	// SerInt indicates the payload is the decimal text of an integer.
	SerInt = SerType(0x01)

	// SerFloat indicates the payload is the decimal text of a float.
	SerFloat = SerType(0x02)

	// SerBool indicates the payload is a boolean, stored as "1" or "0".
	SerBool = SerType(0x03)

	// SerNative indicates the payload is a natively serialized object.
	SerNative = SerType(0x04)

	// SerPacked indicates the payload uses the legacy binary serialization
	// format.
	SerPacked = SerType(0x05)

	// SerJSON indicates the payload is structured JSON data.
	SerJSON = SerType(0x06)
)

// CmprType specifies the compression applied to a legacy-format value.
type CmprType uint32

const (
	// CmprNone indicates the payload is not compressed.
	CmprNone = CmprType(0x00)

	// CmprZlib indicates the payload is zlib-deflated.
	CmprZlib = CmprType(0x20)

	// CmprFastBlock indicates the payload uses fast block compression.
	CmprFastBlock = CmprType(0x40)
)

// EncodeCommonFlags assembles a flags value from its three sub-fields.
func EncodeCommonFlags(format ClientFormat, serType SerType, cmprType CmprType) uint32 {
	return uint32(format) | uint32(serType) | uint32(cmprType)
}

// DecodeCommonFlags splits a flags value into its three sub-fields.
func DecodeCommonFlags(flags uint32) (ClientFormat, SerType, CmprType) {
	format := ClientFormat(flags & cfFmtMask)
	serType := SerType(flags & cfSerMask)
	cmprType := CmprType(flags & cfCmprMask)

	return format, serType, cmprType
}
