package wire

import "github.com/twaters/radiant/internal/domain"

// Register payload framing: command names in declared order, one frame
// each, then a single empty separator frame, then data names in declared
// order. Capability names are non-empty, so the split is unambiguous; a
// payload with no separator reads as all command names.

// PackCapabilities lays out a capability declaration as register data frames.
func PackCapabilities(c domain.Capabilities) [][]byte {
	frames := make([][]byte, 0, len(c.Commands)+len(c.Data)+1)
	for _, name := range c.Commands {
		frames = append(frames, []byte(name))
	}
	frames = append(frames, []byte{})
	for _, name := range c.Data {
		frames = append(frames, []byte(name))
	}
	return frames
}

// SplitCapabilities recovers a capability declaration from register data
// frames.
func SplitCapabilities(frames [][]byte) domain.Capabilities {
	var c domain.Capabilities
	kind := domain.CapCommand
	for _, f := range frames {
		if len(f) == 0 {
			kind = domain.CapData
			continue
		}
		c.Add(kind, string(f))
	}
	return c
}
