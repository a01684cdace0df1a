package models

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/zeebo/blake3"
)

// CallSite is one edge in the call graph. Caller is nil for module-level
// references (top-level code, wildcard exposure). ContextHash is a stable
// digest of the edge used for deduplication and cross-run diffing.
type CallSite struct {
	Caller      *FunctionID `json:"caller,omitempty"`
	Callee      FunctionID  `json:"callee"`
	File        string      `json:"file"`
	Line        uint32      `json:"line"`
	Confidence  Confidence  `json:"confidence"`
	ContextHash string      `json:"context_hash,omitempty"`
}

// NewCallSite builds a call site with its context hash populated.
func NewCallSite(caller *FunctionID, callee FunctionID, file string, line uint32, conf Confidence) CallSite {
	cs := CallSite{
		Caller:     caller,
		Callee:     callee,
		File:       NormalizePath(file),
		Line:       line,
		Confidence: conf,
	}
	cs.ContextHash = cs.computeContextHash()
	return cs
}

// computeContextHash digests the caller, callee, and location into a short
// stable identifier.
func (cs CallSite) computeContextHash() string {
	h := blake3.New()
	if cs.Caller != nil {
		h.WriteString(cs.Caller.String())
	}
	h.WriteString("->")
	h.WriteString(cs.Callee.String())
	h.WriteString("@")
	h.WriteString(cs.File)
	h.WriteString(":")
	h.WriteString(strconv.FormatUint(uint64(cs.Line), 10))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:8])
}

func (cs CallSite) String() string {
	caller := "<module>"
	if cs.Caller != nil {
		caller = cs.Caller.String()
	}
	return fmt.Sprintf("%s -> %s (%s)", caller, cs.Callee, cs.Confidence)
}
