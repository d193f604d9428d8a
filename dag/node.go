package dag

import (
	"os"
	"time"

	"github.com/spf13/afero"

	"github.com/kbukum/forge/files"
)

// Node is a vertex of the build graph.
type Node interface {
	// Key identifies the node within one traversal.
	Key() string
	Inputs() files.List
	Outputs() files.List
}

// Forced is implemented by nodes that are dirty regardless of their files.
type Forced interface {
	AlwaysDirty() bool
}

// Labeled is implemented by nodes with a short, human readable name. Nodes
// without one are reported by key.
type Labeled interface {
	Label() string
}

// Label returns the node's label, or its key.
func Label(n Node) string {
	if l, ok := n.(Labeled); ok {
		return l.Label()
	}
	return n.Key()
}

// Stale reports whether node needs to be rebuilt. A node is stale when it is
// forced, has a missing input or output, or has an output older than its
// newest input. A node without outputs is stale only when forced.
func Stale(fs afero.Fs, node Node) (bool, error) {
	if f, ok := node.(Forced); ok && f.AlwaysDirty() {
		return true, nil
	}
	outputs := node.Outputs()
	if len(outputs) == 0 {
		return false, nil
	}

	var oldest time.Time
	for i, p := range outputs {
		info, err := fs.Stat(string(p))
		if os.IsNotExist(err) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		if i == 0 || info.ModTime().Before(oldest) {
			oldest = info.ModTime()
		}
	}

	for _, p := range node.Inputs() {
		info, err := fs.Stat(string(p))
		if os.IsNotExist(err) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		if info.ModTime().After(oldest) {
			return true, nil
		}
	}
	return false, nil
}
