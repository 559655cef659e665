// Package wire exposes the message envelope exchanged between council members
// and its line codec. Messages are encoded one per line as semicolon separated
// key=value pairs before being handed to the transport, and decoded back when
// received from remote members.
package wire

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go-council/council/ballot"
)

// Message types. The type names double as the wire representation.
const (
	Prepare       = "PREPARE"        // proposer -> acceptors: phase-1 request
	Promise       = "PROMISE"        // acceptor -> proposer: phase-1 response, may carry a previously accepted pair
	AcceptRequest = "ACCEPT_REQUEST" // proposer -> acceptors: phase-2 request with the value to accept
	Accepted      = "ACCEPTED"       // acceptor -> proposer, also observed by the local learner
	Decide        = "DECIDE"         // decision announcement broadcast
)

// Extra keys an acceptor piggybacks on a PROMISE when it has accepted before.
const (
	ExtraAcceptedNumber = "accNum"
	ExtraAcceptedValue  = "accVal"
)

// ErrMalformedMessage is returned by Decode when a line cannot be turned back
// into a Message.
var ErrMalformedMessage = errors.New("wire: malformed message")

// Message is the envelope carried by every exchange between members.
// Ballot and Value are optional depending on the type; Extra carries
// additional metadata such as the accepted pair on a PROMISE.
type Message struct {
	Type   string
	From   string
	Ballot *ballot.Number
	Value  string
	Extra  map[string]string
}

// KnownType reports whether t is one of the message types of the protocol.
func KnownType(t string) bool {
	switch t {
	case Prepare, Promise, AcceptRequest, Accepted, Decide:
		return true
	}
	return false
}

// Encode renders m as a single line: key=value pairs joined by semicolons.
// Reserved keys are type, from, p and value; extra entries are written with an
// "x_" prefix, in sorted key order so the same message always encodes to the
// same line.
func Encode(m Message) string {
	kv := []string{"type=" + m.Type, "from=" + m.From}
	if m.Ballot != nil {
		kv = append(kv, "p="+m.Ballot.String())
	}
	if m.Value != "" {
		kv = append(kv, "value="+m.Value)
	}
	keys := make([]string, 0, len(m.Extra))
	for k := range m.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		kv = append(kv, "x_"+k+"="+m.Extra[k])
	}
	return strings.Join(kv, ";")
}

// Decode reads a Message back from the line format produced by Encode.
// A line without a known type or a sender is rejected, as is one whose "p"
// field does not parse as a ballot number.
func Decode(line string) (Message, error) {
	fields := make(map[string]string)
	for _, part := range strings.Split(line, ";") {
		i := strings.Index(part, "=")
		if i > 0 {
			fields[part[:i]] = part[i+1:]
		}
	}

	m := Message{Type: fields["type"], From: fields["from"], Value: fields["value"]}
	if !KnownType(m.Type) {
		return Message{}, fmt.Errorf("%w: unknown type %q", ErrMalformedMessage, m.Type)
	}
	if m.From == "" {
		return Message{}, fmt.Errorf("%w: missing sender", ErrMalformedMessage)
	}
	if p, ok := fields["p"]; ok {
		n, err := ballot.Parse(p)
		if err != nil {
			return Message{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		m.Ballot = &n
	}
	for k, v := range fields {
		if strings.HasPrefix(k, "x_") {
			if m.Extra == nil {
				m.Extra = make(map[string]string)
			}
			m.Extra[strings.TrimPrefix(k, "x_")] = v
		}
	}
	return m, nil
}
