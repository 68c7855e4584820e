package intelsyntax

import "github.com/xyproto/xdis/internal/x86"

// registerByName maps the Intel names internal/x86.Register.Name produces
// for the general-purpose, XMM/YMM/ZMM, segment and RIP registers back to
// their Register values, built directly from that method rather than
// duplicating its literal name tables, so the parser and printer can never
// drift apart. Control, debug, MMX and mask register names are not included.
var registerByName = buildRegisterByName()

func buildRegisterByName() map[string]x86.Register {
	m := make(map[string]x86.Register)
	add := func(r x86.Register) { m[r.Name()] = r }

	for i := uint8(0); i < 16; i++ {
		add(x86.GPR64(i))
		add(x86.GPR32(i))
		add(x86.GPR16Reg(i))
		add(x86.GPR8(i, true))
		if i < 8 {
			add(x86.GPR8(i, false))
		}
		add(x86.XMMReg(i))
		add(x86.YMMReg(i))
		add(x86.ZMMReg(i))
	}
	for i := uint8(16); i < 32; i++ {
		add(x86.XMMReg(i))
		add(x86.YMMReg(i))
		add(x86.ZMMReg(i))
	}
	for i := uint8(0); i < 6; i++ {
		add(x86.SegmentReg(i))
	}
	add(x86.RIPReg)
	return m
}
