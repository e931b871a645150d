package archive

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"unicode/utf8"
)

// Encoding 文件内容与字符串之间的编码
type Encoding string

const (
	// UTF8 文本
	UTF8 Encoding = "utf8"
	// Hex 十六进制
	Hex Encoding = "hex"
	// Base64 标准 base64
	Base64 Encoding = "base64"
	// Binary 原样字节
	Binary Encoding = "binary"
)

// Encode 把文件内容编码为字符串
func (e Encoding) Encode(data []byte) (string, error) {
	switch e {
	case UTF8, "":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: content is not valid utf8", ErrInvalidEncoding)
		}
		return string(data), nil
	case Hex:
		return hex.EncodeToString(data), nil
	case Base64:
		return base64.StdEncoding.EncodeToString(data), nil
	case Binary:
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidEncoding, string(e))
	}
}

// Decode 把字符串解码为文件内容
func (e Encoding) Decode(s string) ([]byte, error) {
	switch e {
	case UTF8, "", Binary:
		return []byte(s), nil
	case Hex:
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
		}
		return b, nil
	case Base64:
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidEncoding, string(e))
	}
}
