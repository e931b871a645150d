package crypto

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
)

// 密钥常量
const (
	PublicKeySize = ed25519.PublicKeySize
	SecretKeySize = ed25519.PrivateKeySize
	SignatureSize = ed25519.SignatureSize
	SeedSize      = ed25519.SeedSize
)

var (
	// ErrInvalidSecretKey 私钥长度错误
	ErrInvalidSecretKey = errors.New("crypto: invalid secret key")
	// ErrKeyMismatch 私钥与公钥不匹配
	ErrKeyMismatch = errors.New("crypto: secret key does not match public key")
)

// KeyPair ed25519 密钥对
type KeyPair struct {
	Public []byte
	Secret []byte
}

// GenerateKeyPair 生成密钥对，r 为 nil 时使用 crypto/rand
func GenerateKeyPair(r io.Reader) (KeyPair, error) {
	if r == nil {
		r = rand.Reader
	}
	pub, sk, err := ed25519.GenerateKey(r)
	if err != nil {
		return KeyPair{}, fmt.Errorf("generate ed25519 key: %w", err)
	}
	return KeyPair{Public: pub, Secret: sk}, nil
}

// KeyPairFromSecret 从 64 字节私钥恢复密钥对
func KeyPairFromSecret(sk []byte) (KeyPair, error) {
	if len(sk) != SecretKeySize {
		return KeyPair{}, ErrInvalidSecretKey
	}
	secret := make([]byte, SecretKeySize)
	copy(secret, sk)
	pub := ed25519.PrivateKey(secret).Public().(ed25519.PublicKey)
	// 后 32 字节是公钥，篡改过的私钥在这里被发现
	if !bytes.Equal(pub, secret[SeedSize:]) {
		return KeyPair{}, ErrInvalidSecretKey
	}
	return KeyPair{Public: []byte(pub), Secret: secret}, nil
}

// Sign 签名
func (kp KeyPair) Sign(msg []byte) []byte {
	return ed25519.Sign(kp.Secret, msg)
}

// Verify 验签，长度错误的输入返回 false
func Verify(pub, msg, sig []byte) bool {
	if len(pub) != PublicKeySize || len(sig) != SignatureSize {
		return false
	}
	return ed25519.Verify(pub, msg, sig)
}

// MatchSecret 检查私钥是否属于公钥
func MatchSecret(pub, sk []byte) error {
	kp, err := KeyPairFromSecret(sk)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(kp.Public, pub) != 1 {
		return ErrKeyMismatch
	}
	return nil
}
