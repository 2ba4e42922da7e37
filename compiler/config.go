package compiler

// Per-function ceilings. Register and upvalue operands are 8-bit.
const (
	MaxFunctionRegisters = 250
	MaxClosureUpvalues   = 250
)

// Config tunes the code generator.
type Config struct {
	MaxRegisters int  // live registers per function
	MaxUpvalues  int  // upvalue records per function
	DebugLocals  bool // record local-variable live ranges on each Function
}

// DefaultConfig returns the standard ceilings with debug locals enabled.
func DefaultConfig() Config {
	return Config{
		MaxRegisters: MaxFunctionRegisters,
		MaxUpvalues:  MaxClosureUpvalues,
		DebugLocals:  true,
	}
}

// normalize fills zero fields with defaults and clamps ceilings to what
// the instruction encoding can address.
func (c Config) normalize() Config {
	if c.MaxRegisters <= 0 || c.MaxRegisters > MaxFunctionRegisters {
		c.MaxRegisters = MaxFunctionRegisters
	}
	if c.MaxUpvalues <= 0 || c.MaxUpvalues > MaxClosureUpvalues {
		c.MaxUpvalues = MaxClosureUpvalues
	}
	return c
}
