package logdrive

import (
	"encoding/json"
	"fmt"
	"time"
)

type opKind string

const (
	opPut   opKind = "put"
	opDel   opKind = "del"
	opMkdir opKind = "mkdir"
	opRmdir opKind = "rmdir"
)

// op 一条文件树操作，即块的载荷
type op struct {
	Kind  opKind `json:"type"`
	Name  string `json:"name"`
	Data  []byte `json:"data,omitempty"`
	Mtime int64  `json:"mtime"`
}

func (o op) mtime() time.Time { return time.Unix(0, o.Mtime) }

func decodeOp(payload []byte) (op, error) {
	var o op
	if err := json.Unmarshal(payload, &o); err != nil {
		return op{}, fmt.Errorf("%w: %v", ErrInvalidBlock, err)
	}
	switch o.Kind {
	case opPut, opDel, opMkdir, opRmdir:
	default:
		return op{}, fmt.Errorf("%w: unknown op %q", ErrInvalidBlock, o.Kind)
	}
	if o.Name == "" || clean(o.Name) != o.Name {
		return op{}, fmt.Errorf("%w: bad path %q", ErrInvalidBlock, o.Name)
	}
	return o, nil
}

func encodeOp(o op) ([]byte, error) {
	return json.Marshal(o)
}
