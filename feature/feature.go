// Package feature holds the mutable set of optional A64 architecture
// features the simulator honors at startup and during HLT CPU-feature
// traps. It never validates host hardware; it is purely a configuration
// surface the core consults.
package feature

// Feature names an optional A64 extension.
type Feature int

const (
	// None is the list-terminator sentinel used by the HLT CPU-feature
	// payload encoding; it is never itself "enabled".
	None Feature = iota
	FP
	FP16
	AdvSIMD
	SVE
	SVE2
	PACA
	PACB
	RCpc
	LSE
	CRC32
	DotProd
	JSCVT
	BF16
)

// names holds human-readable labels for logging.
var names = map[Feature]string{
	None:    "None",
	FP:      "FP",
	FP16:    "FP16",
	AdvSIMD: "AdvSIMD",
	SVE:     "SVE",
	SVE2:    "SVE2",
	PACA:    "PACA",
	PACB:    "PACB",
	RCpc:    "RCpc",
	LSE:     "LSE",
	CRC32:   "CRC32",
	DotProd: "DotProd",
	JSCVT:   "JSCVT",
	BF16:    "BF16",
}

// String implements fmt.Stringer.
func (f Feature) String() string {
	if s, ok := names[f]; ok {
		return s
	}
	return "Unknown"
}

// Set is a mutable collection of enabled features plus a snapshot stack for
// HLT kSave/kRestoreCPUFeatures.
type Set struct {
	enabled map[Feature]bool
	stack   []map[Feature]bool
}

// NewSet returns an empty feature set with the given features enabled.
func NewSet(initial ...Feature) *Set {
	s := &Set{enabled: make(map[Feature]bool)}
	for _, f := range initial {
		s.Enable(f)
	}
	return s
}

// Enable turns a feature on.
func (s *Set) Enable(f Feature) {
	if f == None {
		return
	}
	s.enabled[f] = true
}

// Disable turns a feature off.
func (s *Set) Disable(f Feature) {
	delete(s.enabled, f)
}

// Has reports whether a feature is currently enabled.
func (s *Set) Has(f Feature) bool {
	return s.enabled[f]
}

// SetAll replaces the enabled set wholesale (HLT kSetCPUFeatures).
func (s *Set) SetAll(fs []Feature) {
	s.enabled = make(map[Feature]bool)
	for _, f := range fs {
		s.Enable(f)
	}
}

// Save pushes a copy of the current set onto the snapshot stack (HLT
// kSaveCPUFeatures).
func (s *Set) Save() {
	cp := make(map[Feature]bool, len(s.enabled))
	for k, v := range s.enabled {
		cp[k] = v
	}
	s.stack = append(s.stack, cp)
}

// Restore pops the most recent snapshot and replaces the current set with it
// (HLT kRestoreCPUFeatures). It is a no-op if the stack is empty, matching
// the source's tolerant behavior for over-eager restores.
func (s *Set) Restore() {
	if len(s.stack) == 0 {
		return
	}
	top := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	s.enabled = top
}
