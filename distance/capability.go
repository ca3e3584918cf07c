package distance

import (
	"os"
	"strings"

	"golang.org/x/sys/cpu"
)

// accelerated is decided once at init: vek only ships AVX2+FMA kernels, on
// any other CPU it would run its own generic loops anyway.
var accelerated = detectAcceleration()

func detectAcceleration() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("VECFLAT_SIMD"))) {
	case "generic", "off", "0", "false":
		return false
	}
	return cpu.X86.HasAVX2 && cpu.X86.HasFMA
}

// Accelerated reports whether SIMD dot-product kernels are active.
func Accelerated() bool {
	return accelerated
}

// ISA returns a short name of the active kernel set, for logs and stats.
func ISA() string {
	if accelerated {
		return "avx2"
	}
	return "generic"
}
