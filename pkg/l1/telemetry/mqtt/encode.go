package mqtt

import (
	"fmt"
	"time"

	structpb "github.com/golang/protobuf/ptypes/struct"

	"github.com/robotalks/miniboard/pkg/l0/comm"
	"github.com/robotalks/miniboard/pkg/l0/regs"
	"github.com/robotalks/miniboard/pkg/l0/trigger"
)

func numberValue(v float64) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: v}}
}

func stringValue(v string) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: v}}
}

func structValue(s *structpb.Struct) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StructValue{StructValue: s}}
}

// EncodeValue converts a register value into a protobuf Value.
// debug_info is expanded into its counters.
func EncodeValue(r *regs.Register, b []byte) (*structpb.Value, error) {
	if r.ID == regs.IDDebugInfo {
		info, err := trigger.DecodeDebugInfo(b)
		if err != nil {
			return nil, err
		}
		return structValue(encodeDebugInfo(info)), nil
	}
	v, err := r.Type.Decode(b)
	if err != nil {
		return nil, err
	}
	switch val := v.(type) {
	case uint8:
		return numberValue(float64(val)), nil
	case uint16:
		return numberValue(float64(val)), nil
	case int16:
		return numberValue(float64(val)), nil
	case float32:
		return numberValue(float64(val)), nil
	case string:
		return stringValue(val), nil
	}
	return nil, fmt.Errorf("register %s: unsupported value %T", r.Name, v)
}

func encodeDebugInfo(info *trigger.DebugInfo) *structpb.Struct {
	link := info.Link
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"uptime_ms":       numberValue(float64(info.Uptime / time.Millisecond)),
		"iterations":      numberValue(float64(info.Iterations)),
		"dispatched":      numberValue(float64(link.Dispatched)),
		"responses":       numberValue(float64(link.Responses)),
		"checksum_errors": numberValue(float64(link.ChecksumErrors)),
		"overflows":       numberValue(float64(link.Overflows)),
		"timeouts":        numberValue(float64(link.Timeouts)),
		"halted":          numberValue(float64(link.Halted)),
	}}
}

// Snapshot reads all readable registers from tbl.
// Registers which can't be read or decoded, like a debug_info
// never dumped, are left out.
func Snapshot(tbl *regs.Table) *structpb.Struct {
	s := &structpb.Struct{Fields: make(map[string]*structpb.Value)}
	var buf [comm.MaxPayload]byte
	for _, r := range tbl.Registers() {
		if !r.Access.CanRead() {
			continue
		}
		n, err := tbl.Read(r.ID, buf[:])
		if err != nil {
			continue
		}
		v, err := EncodeValue(r, buf[:n])
		if err != nil {
			continue
		}
		s.Fields[r.Name] = v
	}
	return s
}

// Meta describes the board: identity and the register map.
func Meta(boardID, build string, tbl *regs.Table) *structpb.Struct {
	list := &structpb.ListValue{}
	for _, r := range tbl.Registers() {
		list.Values = append(list.Values, structValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"id":     numberValue(float64(r.ID)),
			"name":   stringValue(r.Name),
			"type":   stringValue(r.Type.String()),
			"access": stringValue(r.Access.String()),
			"size":   numberValue(float64(r.Size())),
		}}))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"board":     stringValue(boardID),
		"build":     stringValue(build),
		"registers": {Kind: &structpb.Value_ListValue{ListValue: list}},
	}}
}
