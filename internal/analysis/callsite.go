package analysis

import (
	"sort"

	"github.com/fatalsec/dalivm/internal/dex"
	"github.com/fatalsec/dalivm/internal/disasm"
	"github.com/fatalsec/dalivm/internal/slicer"
)

// CallSite is one invoke instruction in the program that targets the
// analysis target method.
type CallSite struct {
	Caller   *dex.Method
	PC       int
	Mnemonic string
	ArgRegs  []int
}

// EnumerateCallSites scans every method's trace map for an invoke whose
// typed method reference matches target's (class, name, signature),
// collecting one CallSite per hit, sorted by (caller name, pc) for
// deterministic output. CallSiteCap, if positive, then keeps only the first
// that many sites of the sorted list.
func (c *Context) EnumerateCallSites(target *dex.Method) []CallSite {
	var sites []CallSite
	for _, m := range c.Program.AllMethods() {
		trace := c.Loader.TraceOf(m)
		for pc, e := range trace {
			if !isInvokeEntry(e) {
				continue
			}
			if e.MethodRef.Class != target.Class || e.MethodRef.Name != target.Name {
				continue
			}
			if e.MethodRef.Signature() != target.Signature() {
				continue
			}
			sites = append(sites, CallSite{
				Caller:   m,
				PC:       pc,
				Mnemonic: e.Mnemonic,
				ArgRegs:  slicer.InvokeArgRegs(e.Instruction),
			})
		}
	}

	sort.Slice(sites, func(i, j int) bool {
		if sites[i].Caller.FullName() != sites[j].Caller.FullName() {
			return sites[i].Caller.FullName() < sites[j].Caller.FullName()
		}
		return sites[i].PC < sites[j].PC
	})

	if c.CallSiteCap > 0 && len(sites) > c.CallSiteCap {
		sites = sites[:c.CallSiteCap]
	}
	return sites
}

func isInvokeEntry(e disasm.Entry) bool {
	op := e.Instruction.Opcode
	return (op >= 0x6e && op <= 0x72) || (op >= 0x74 && op <= 0x78)
}
