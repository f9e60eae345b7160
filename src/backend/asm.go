package backend

import (
	"errors"

	"minicc/src/backend/x86"
	"minicc/src/ir/lir"
	"minicc/src/util"
)

// ---------------------
// ----- Functions -----
// ---------------------

// GenerateAssembler lowers Module m to assembler text for the architecture selected by opt.
func GenerateAssembler(opt util.Options, m *lir.Module) (string, error) {
	switch opt.TargetArch {
	case util.X86_32:
		return x86.GenX86(opt, m)
	case util.X86_64:
		return "", errors.New("x86-64 not supported yet")
	case util.Aarch64:
		return "", errors.New("aarch64 not supported by the native back end; use -ll")
	default:
		return "", errors.New("unsupported output architecture")
	}
}
