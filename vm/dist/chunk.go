// Package dist implements the wire image of compiled luna functions.
// A compiled Function tree is encoded as canonical CBOR and identified by
// the SHA-256 of that encoding, so two hosts compiling the same source
// produce byte-identical chunks.
package dist

// Chunk is the atomic unit of code distribution: one encoded main
// function tree plus its content hash.
type Chunk struct {
	Hash   [32]byte `cbor:"1,keyasint"`
	Module string   `cbor:"2,keyasint"`
	UnitID string   `cbor:"3,keyasint,omitempty"` // compile unit, not part of the hash
	Data   []byte   `cbor:"4,keyasint"`           // canonical FunctionImage
}

// FunctionImage is the serialized form of a vm.Function. Parent links and
// the compile unit are not encoded; the tree shape restores the former.
type FunctionImage struct {
	Module       string          `cbor:"1,keyasint"`
	Line         int             `cbor:"2,keyasint"`
	FixedArgs    int             `cbor:"3,keyasint"`
	Vararg       bool            `cbor:"4,keyasint"`
	MaxRegisters int             `cbor:"5,keyasint"`
	Code         []uint32        `cbor:"6,keyasint"`
	Lines        []int           `cbor:"7,keyasint"`
	Constants    []ConstantImage `cbor:"8,keyasint,omitempty"`
	Upvalues     []UpvalueImage  `cbor:"9,keyasint,omitempty"`
	Locals       []LocalImage    `cbor:"10,keyasint,omitempty"`
	Children     []FunctionImage `cbor:"11,keyasint,omitempty"`
}

// ConstantImage is one constant pool entry.
type ConstantImage struct {
	Kind   uint8   `cbor:"1,keyasint"`
	Number float64 `cbor:"2,keyasint"`
	String string  `cbor:"3,keyasint,omitempty"`
}

// UpvalueImage is one upvalue record.
type UpvalueImage struct {
	Name        string `cbor:"1,keyasint"`
	ParentLocal bool   `cbor:"2,keyasint"`
	Index       int    `cbor:"3,keyasint"`
}

// LocalImage is one local-variable live range.
type LocalImage struct {
	Name     string `cbor:"1,keyasint"`
	Register int    `cbor:"2,keyasint"`
	Begin    int    `cbor:"3,keyasint"`
	End      int    `cbor:"4,keyasint"`
}
