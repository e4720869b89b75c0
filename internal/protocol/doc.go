// Package protocol owns the ZJSON wire contract shared by the decoder packages.
//
// Ownership boundary:
// - protocol revisions and their encodings
// - the structured error taxonomy
//
// Subpackages:
// - frame: line reading and envelope classification
// - schema: structural validation of type descriptors
// - ztype: types, the stream-scoped registry, descriptor decoding
// - zvalue: native values and value decoding
// - stream: the pull-based stream decoder
package protocol
