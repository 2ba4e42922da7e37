// Package vm defines the compiled form of Luna programs.
//
// This package contains:
//   - Fixed-width 32-bit instructions in four operand shapes (A, AB, ABx, AsBx)
//   - Opcode metadata
//   - The Function artifact: instruction stream, constant pool, nested
//     functions, upvalue descriptors and local-variable debug ranges
//   - A disassembler for Function trees
//
// The interpreter that executes these artifacts lives outside this module.
package vm
