// Package wire encodes an analysis result as either JSON (for the HTTP
// server and general tooling) or a length-prefixed protobuf-wire stream
// (for compact offline storage), using the low-level protowire encoder
// directly rather than a code-generated message: a .proto schema is never
// compiled in this project, so hand-encoding with the wire primitives — the
// same idiom the pack's streaming protobuf encoders use — is the only
// reachable path to the format.
package wire

import (
	"encoding/json"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/fatalsec/dalivm/internal/analysis"
)

// MarshalJSON renders a Result as indented JSON, the format the serve
// subcommand's /analyze response and the analyze CLI's --format=json both
// produce.
func MarshalJSON(r *analysis.Result) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Protobuf field numbers for one call-site record. There is no .proto
// schema in this project; these numbers are the wire contract, documented
// here since nothing else pins them down.
const (
	fieldCaller   = 1
	fieldPC       = 2
	fieldArg      = 3
	fieldReturn   = 4
	fieldResolved = 5
)

// MarshalProtobuf encodes every call site in r as a length-prefixed
// protobuf-wire message: each record is itself a protobuf-wire submessage
// (caller name, pc, repeated formatted args, formatted return, resolved
// flag), prefixed with its own varint length so a reader can stream records
// without buffering the whole file.
func MarshalProtobuf(r *analysis.Result) []byte {
	var out []byte
	for _, cs := range r.CallSites {
		rec := encodeCallSite(cs)
		out = protowire.AppendVarint(out, uint64(len(rec)))
		out = append(out, rec...)
	}
	return out
}

func encodeCallSite(cs analysis.CallResult) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldCaller, protowire.BytesType)
	b = protowire.AppendString(b, cs.Caller)

	b = protowire.AppendTag(b, fieldPC, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(cs.CallerPC))

	for _, a := range cs.ArgsFormatted {
		b = protowire.AppendTag(b, fieldArg, protowire.BytesType)
		b = protowire.AppendString(b, a)
	}

	b = protowire.AppendTag(b, fieldReturn, protowire.BytesType)
	b = protowire.AppendString(b, cs.ReturnFormatted)

	b = protowire.AppendTag(b, fieldResolved, protowire.VarintType)
	b = protowire.AppendVarint(b, boolToUint64(cs.Resolved))

	return b
}

func boolToUint64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// UnmarshalProtobuf decodes a stream produced by MarshalProtobuf back into
// call-site records.
func UnmarshalProtobuf(data []byte) ([]analysis.CallResult, error) {
	var out []analysis.CallResult
	for len(data) > 0 {
		n, nLen := protowire.ConsumeVarint(data)
		if nLen < 0 {
			return nil, protowire.ParseError(nLen)
		}
		data = data[nLen:]
		if uint64(len(data)) < n {
			return nil, protowire.ParseError(-1)
		}
		rec := data[:n]
		data = data[n:]

		cs, err := decodeCallSite(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, nil
}

func decodeCallSite(rec []byte) (analysis.CallResult, error) {
	var cs analysis.CallResult
	for len(rec) > 0 {
		num, typ, n := protowire.ConsumeTag(rec)
		if n < 0 {
			return cs, protowire.ParseError(n)
		}
		rec = rec[n:]

		switch num {
		case fieldCaller:
			s, n := protowire.ConsumeString(rec)
			if n < 0 {
				return cs, protowire.ParseError(n)
			}
			cs.Caller = s
			rec = rec[n:]
		case fieldPC:
			v, n := protowire.ConsumeVarint(rec)
			if n < 0 {
				return cs, protowire.ParseError(n)
			}
			cs.CallerPC = int(v)
			rec = rec[n:]
		case fieldArg:
			s, n := protowire.ConsumeString(rec)
			if n < 0 {
				return cs, protowire.ParseError(n)
			}
			cs.ArgsFormatted = append(cs.ArgsFormatted, s)
			rec = rec[n:]
		case fieldReturn:
			s, n := protowire.ConsumeString(rec)
			if n < 0 {
				return cs, protowire.ParseError(n)
			}
			cs.ReturnFormatted = s
			rec = rec[n:]
		case fieldResolved:
			v, n := protowire.ConsumeVarint(rec)
			if n < 0 {
				return cs, protowire.ParseError(n)
			}
			cs.Resolved = v != 0
			rec = rec[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, rec)
			if n < 0 {
				return cs, protowire.ParseError(n)
			}
			rec = rec[n:]
		}
	}
	return cs, nil
}
