package dist

import (
	"crypto/sha256"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/luna/vm"
)

// cborEncMode uses canonical mode so equal trees encode to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("dist: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// ---------------------------------------------------------------------------
// Function images
// ---------------------------------------------------------------------------

// ImageOf converts a function tree to its wire image.
func ImageOf(f *vm.Function) FunctionImage {
	img := FunctionImage{
		Module:       f.Module,
		Line:         f.Line,
		FixedArgs:    f.FixedArgs,
		Vararg:       f.Vararg,
		MaxRegisters: f.MaxRegisters,
		Code:         make([]uint32, len(f.Code)),
		Lines:        append([]int(nil), f.Lines...),
	}
	for i, ins := range f.Code {
		img.Code[i] = uint32(ins)
	}
	for _, c := range f.Constants {
		img.Constants = append(img.Constants, ConstantImage{Kind: uint8(c.Kind), Number: c.Number, String: c.String})
	}
	for _, u := range f.Upvalues {
		img.Upvalues = append(img.Upvalues, UpvalueImage{Name: u.Name, ParentLocal: u.ParentLocal, Index: u.Index})
	}
	for _, l := range f.Locals {
		img.Locals = append(img.Locals, LocalImage{Name: l.Name, Register: l.Register, Begin: l.Begin, End: l.End})
	}
	for _, child := range f.Children {
		img.Children = append(img.Children, ImageOf(child))
	}
	return img
}

// Function rebuilds the function tree, restoring parent links.
func (img *FunctionImage) Function() (*vm.Function, error) {
	if len(img.Lines) != len(img.Code) {
		return nil, fmt.Errorf("dist: function at %s:%d has %d instructions but %d lines",
			img.Module, img.Line, len(img.Code), len(img.Lines))
	}

	f := &vm.Function{
		Module:       img.Module,
		Line:         img.Line,
		FixedArgs:    img.FixedArgs,
		Vararg:       img.Vararg,
		MaxRegisters: img.MaxRegisters,
		Code:         make([]vm.Instruction, len(img.Code)),
		Lines:        append([]int(nil), img.Lines...),
	}
	for i, w := range img.Code {
		f.Code[i] = vm.Instruction(w)
	}
	for _, c := range img.Constants {
		kind := vm.ConstKind(c.Kind)
		if kind != vm.ConstNumber && kind != vm.ConstString {
			return nil, fmt.Errorf("dist: unknown constant kind %d", c.Kind)
		}
		f.Constants = append(f.Constants, vm.Constant{Kind: kind, Number: c.Number, String: c.String})
	}
	for _, u := range img.Upvalues {
		f.AddUpvalue(u.Name, u.ParentLocal, u.Index)
	}
	for _, l := range img.Locals {
		f.AddLocalVar(l.Name, l.Register, l.Begin, l.End)
	}
	for i := range img.Children {
		child, err := img.Children[i].Function()
		if err != nil {
			return nil, err
		}
		f.AddChild(child)
	}
	return f, nil
}

// MarshalFunction serializes a function tree to canonical CBOR bytes.
func MarshalFunction(f *vm.Function) ([]byte, error) {
	img := ImageOf(f)
	return cborEncMode.Marshal(&img)
}

// UnmarshalFunction deserializes a function tree from CBOR bytes.
func UnmarshalFunction(data []byte) (*vm.Function, error) {
	var img FunctionImage
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("dist: unmarshal function: %w", err)
	}
	return img.Function()
}

// HashFunction returns the content hash of a function tree.
func HashFunction(f *vm.Function) ([32]byte, error) {
	data, err := MarshalFunction(f)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(data), nil
}

// ---------------------------------------------------------------------------
// Chunks
// ---------------------------------------------------------------------------

// NewChunk encodes a compiled main function as a chunk.
func NewChunk(f *vm.Function) (*Chunk, error) {
	data, err := MarshalFunction(f)
	if err != nil {
		return nil, fmt.Errorf("dist: marshal function: %w", err)
	}
	return &Chunk{
		Hash:   sha256.Sum256(data),
		Module: f.Module,
		UnitID: f.UnitID,
		Data:   data,
	}, nil
}

// Function decodes the chunk after verifying its hash.
func (c *Chunk) Function() (*vm.Function, error) {
	if err := VerifyChunk(c); err != nil {
		return nil, err
	}
	f, err := UnmarshalFunction(c.Data)
	if err != nil {
		return nil, err
	}
	f.UnitID = c.UnitID
	return f, nil
}

// VerifyChunk checks that the chunk's declared hash matches its data.
func VerifyChunk(c *Chunk) error {
	if computed := sha256.Sum256(c.Data); computed != c.Hash {
		return fmt.Errorf("dist: hash mismatch: declared %x, computed %x", c.Hash, computed)
	}
	return nil
}

// MarshalChunk serializes a Chunk to CBOR bytes.
func MarshalChunk(c *Chunk) ([]byte, error) {
	return cborEncMode.Marshal(c)
}

// UnmarshalChunk deserializes a Chunk from CBOR bytes.
func UnmarshalChunk(data []byte) (*Chunk, error) {
	var c Chunk
	if err := cbor.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("dist: unmarshal chunk: %w", err)
	}
	return &c, nil
}
