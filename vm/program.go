package vm

import (
	"crypto/sha256"
	"strings"

	"github.com/krehermann/stackvm/types"
)

// Program is the decoded instruction sequence. It is not modified
// once handed to a VM.
type Program []Instruction

func (p Program) Len() int {
	return len(p)
}

// Lines returns the canonical text of every instruction.
func (p Program) Lines() []string {
	out := make([]string, len(p))
	for i, inst := range p {
		out[i] = inst.String()
	}
	return out
}

// Hash fingerprints the canonical text of the program.
func (p Program) Hash() types.Hash {
	return types.Hash(sha256.Sum256([]byte(strings.Join(p.Lines(), "\n"))))
}
