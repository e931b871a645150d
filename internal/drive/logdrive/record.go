package logdrive

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dep2p/go-dat/pkg/lib/crypto"
	"github.com/dep2p/go-dat/pkg/types"
)

const (
	recordHeaderSize = 4
	maxRecordSize    = 64 << 20
)

// errTruncated 日志末尾的记录不完整
var errTruncated = errors.New("logdrive: truncated record")

// encodeRecord 长度前缀 + JSON 块
func encodeRecord(b types.Block) ([]byte, error) {
	body, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, recordHeaderSize+len(body))
	binary.BigEndian.PutUint32(buf, uint32(len(body)))
	copy(buf[recordHeaderSize:], body)
	return buf, nil
}

// readRecord 读取 off 处的记录，返回块与记录长度
func readRecord(r io.ReaderAt, off, size int64) (types.Block, int64, error) {
	if size-off < recordHeaderSize {
		return types.Block{}, 0, errTruncated
	}
	var hdr [recordHeaderSize]byte
	if err := readFull(r, hdr[:], off); err != nil {
		return types.Block{}, 0, err
	}
	n := int64(binary.BigEndian.Uint32(hdr[:]))
	if n == 0 || n > maxRecordSize {
		return types.Block{}, 0, fmt.Errorf("%w: record size %d at offset %d", ErrCorrupted, n, off)
	}
	if size-off-recordHeaderSize < n {
		return types.Block{}, 0, errTruncated
	}
	body := make([]byte, n)
	if err := readFull(r, body, off+recordHeaderSize); err != nil {
		return types.Block{}, 0, err
	}
	var b types.Block
	if err := json.Unmarshal(body, &b); err != nil {
		return types.Block{}, 0, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	return b, recordHeaderSize + n, nil
}

func readFull(r io.ReaderAt, buf []byte, off int64) error {
	n, err := r.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return errTruncated
	}
	return err
}

// verifyBlock 校验序号、链值与签名，返回新链值与解码后的操作
func verifyBlock(key types.Address, head []byte, want uint64, b types.Block) ([]byte, op, error) {
	if b.Index != want {
		return nil, op{}, fmt.Errorf("%w: index %d, want %d", ErrInvalidBlock, b.Index, want)
	}
	h := crypto.Chain(head, b.Payload)
	if !crypto.Verify(key.Bytes(), h, b.Signature) {
		return nil, op{}, fmt.Errorf("%w: bad signature at %d", ErrInvalidBlock, b.Index)
	}
	o, err := decodeOp(b.Payload)
	if err != nil {
		return nil, op{}, err
	}
	return h, o, nil
}
