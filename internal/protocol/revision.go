package protocol

import (
	"fmt"
	"strings"
)

// Revision selects one variant of the ZJSON wire protocol. A stream is
// decoded under exactly one revision.
type Revision uint8

const (
	// RevisionID references types by stream-assigned integer ids
	// (named/reference descriptors), encodes bytes as 0x-prefixed hex and
	// durations/times as text.
	RevisionID Revision = iota
	// RevisionNamed references types by name (typedef/typename) inside
	// {"kind":"Object"} envelopes, with base64 bytes and textual
	// durations/times.
	RevisionNamed
	// RevisionLegacy is the search-era protocol: SearchRecords envelopes,
	// references by name, base64 bytes, and durations/times as decimal
	// seconds.
	RevisionLegacy
)

func (r Revision) String() string {
	switch r {
	case RevisionID:
		return "id"
	case RevisionNamed:
		return "named"
	case RevisionLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("revision(%d)", uint8(r))
	}
}

// ParseRevision parses a revision name as used in config files and flags.
func ParseRevision(s string) (Revision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "id":
		return RevisionID, nil
	case "named", "name":
		return RevisionNamed, nil
	case "legacy", "zqd":
		return RevisionLegacy, nil
	default:
		return 0, fmt.Errorf("unknown protocol revision %q", s)
	}
}

// ByID reports whether type references are integer ids.
func (r Revision) ByID() bool {
	return r == RevisionID
}

// SecondsEncoding reports whether durations and times are decimal seconds.
func (r Revision) SecondsEncoding() bool {
	return r == RevisionLegacy
}

// HexBytes reports whether bytes values are 0x-prefixed hex rather than
// base64.
func (r Revision) HexBytes() bool {
	return r == RevisionID
}
