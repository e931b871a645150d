// Package keys 导出与导入驱动器私钥
//
// 导入私钥会就地改变驱动器的可写状态。已加载的句柄应在导入后重新加载，
// 使其所有者状态与网络选项一致。
package keys

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	pkgif "github.com/dep2p/go-dat/pkg/interfaces"
)

var (
	// ErrNotWritable 驱动器没有私钥
	ErrNotWritable = errors.New("keys: drive is not writable")

	// ErrAlreadyWritable 驱动器已持有私钥
	ErrAlreadyWritable = errors.New("keys: drive is already writable")

	// ErrUnsupported 驱动器不支持私钥导入导出
	ErrUnsupported = errors.New("keys: drive does not support key export")
)

// Export 返回驱动器私钥
func Export(drive pkgif.Drive) ([]byte, error) {
	kh, ok := drive.(pkgif.KeyHolder)
	if !ok {
		return nil, ErrUnsupported
	}
	sk, ok := kh.SecretKey()
	if !ok {
		return nil, ErrNotWritable
	}
	return sk, nil
}

// ExportHex 返回十六进制形式的私钥
func ExportHex(drive pkgif.Drive) (string, error) {
	sk, err := Export(drive)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sk), nil
}

// Import 为只读驱动器安装私钥
func Import(ctx context.Context, drive pkgif.Drive, sk []byte) error {
	kh, ok := drive.(pkgif.KeyHolder)
	if !ok {
		return ErrUnsupported
	}
	if drive.Writable() {
		return ErrAlreadyWritable
	}
	if err := kh.ImportSecretKey(ctx, sk); err != nil {
		return fmt.Errorf("keys: import: %w", err)
	}
	return nil
}

// ParseHex 解析十六进制私钥
func ParseHex(s string) ([]byte, error) {
	sk, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("keys: invalid secret key: %w", err)
	}
	return sk, nil
}
