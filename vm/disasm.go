package vm

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of f and all nested functions.
func Disassemble(f *Function) string {
	var sb strings.Builder
	disassembleInto(&sb, f, "main")
	return sb.String()
}

// DisassembleInstruction renders the instruction at pc with its operands annotated.
func DisassembleInstruction(f *Function, pc int) string {
	i := f.Code[pc]
	text := fmt.Sprintf("%04d  %-24s", pc, i.String())

	var note string
	switch i.Opcode() {
	case OpLoadConst, OpGetGlobal, OpSetGlobal:
		if i.Bx() < len(f.Constants) {
			note = f.Constants[i.Bx()].Display()
		}
	case OpGetUpvalue, OpSetUpvalue:
		if i.B() < len(f.Upvalues) {
			note = f.Upvalues[i.B()].Name
		}
	case OpMove:
		if name := f.LocalName(i.B(), pc); name != "" {
			note = name
		}
	case OpClosure:
		note = fmt.Sprintf("function #%d", i.Bx())
	}

	if pc < len(f.Lines) {
		text += fmt.Sprintf(" ; line %d", f.Lines[pc])
	}
	if note != "" {
		text += " " + note
	}
	return text
}

func disassembleInto(sb *strings.Builder, f *Function, path string) {
	sb.WriteString(fmt.Sprintf("; === function %s <%s:%d> ===\n", path, f.Module, f.Line))
	if f.UnitID != "" {
		sb.WriteString(fmt.Sprintf("; unit %s\n", f.UnitID))
	}
	sb.WriteString(fmt.Sprintf("; params %d", f.FixedArgs))
	if f.Vararg {
		sb.WriteString("+vararg")
	}
	sb.WriteString(fmt.Sprintf(", registers %d, upvalues %d, constants %d, functions %d\n",
		f.MaxRegisters, len(f.Upvalues), len(f.Constants), len(f.Children)))

	if len(f.Constants) > 0 {
		sb.WriteString("; Constants:\n")
		for i, c := range f.Constants {
			sb.WriteString(fmt.Sprintf(";   [%3d] %s\n", i, c.Display()))
		}
	}

	if len(f.Upvalues) > 0 {
		sb.WriteString("; Upvalues:\n")
		for i, u := range f.Upvalues {
			from := "upvalue"
			if u.ParentLocal {
				from = "register"
			}
			sb.WriteString(fmt.Sprintf(";   [%3d] %s (%s %d)\n", i, u.Name, from, u.Index))
		}
	}

	if len(f.Locals) > 0 {
		sb.WriteString("; Locals:\n")
		for _, l := range f.Locals {
			sb.WriteString(fmt.Sprintf(";   %s R%d [%d, %d)\n", l.Name, l.Register, l.Begin, l.End))
		}
	}

	sb.WriteString("; Code:\n")
	for pc := range f.Code {
		sb.WriteString(DisassembleInstruction(f, pc))
		sb.WriteString("\n")
	}

	for i, child := range f.Children {
		sb.WriteString("\n")
		disassembleInto(sb, child, fmt.Sprintf("%s.%d", path, i))
	}
}
