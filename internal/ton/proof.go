package ton

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

const (
	// ProofPrefix — фиксированный префикс для TON Proof по спецификации TON Connect.
	// https://docs.ton.org/develop/dapps/ton-connect/sign#checking-ton_proof-on-server-side
	ProofPrefix = "ton-proof-item-v2/"

	// ConnectPrefix — префикс перед SHA256 хешем сообщения.
	ConnectPrefix = "ton-connect"
)

// Proof — данные ton_proof, которые кошелёк подписывает при подключении.
type Proof struct {
	Timestamp int64       `json:"timestamp"`
	Domain    ProofDomain `json:"domain"`
	Payload   string      `json:"payload"`   // наш challenge
	Signature string      `json:"signature"` // base64
}

type ProofDomain struct {
	LengthBytes int    `json:"lengthBytes"`
	Value       string `json:"value"`
}

// ParseRawAddress парсит строку вида "0:abcdef..." в workchain и address hash.
// Строка должна состоять из адреса целиком, хвостовые символы — ошибка:
// raw уходит в базу как есть.
func ParseRawAddress(raw string) (workchain int32, addrHash []byte, err error) {
	wcStr, hashHex, ok := strings.Cut(raw, ":")
	if !ok {
		return 0, nil, fmt.Errorf("invalid raw address format: %s", raw)
	}
	wc, err := strconv.ParseInt(wcStr, 10, 32)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid workchain: %q", wcStr)
	}
	if len(hashHex) != 64 {
		return 0, nil, fmt.Errorf("address hash must be 64 hex chars, got %d", len(hashHex))
	}
	addrHash, err = hex.DecodeString(hashHex)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid address hash hex: %w", err)
	}
	return int32(wc), addrHash, nil
}

// ProofDigest собирает подписанное сообщение и возвращает финальный 32-байтовый дайджест.
//
// Схема (по спецификации TON Connect):
//  1. message = "ton-proof-item-v2/" ++ workchain(4 bytes BE) ++ address_hash(32 bytes)
//     ++ domain_len(4 bytes LE) ++ domain ++ timestamp(8 bytes LE) ++ payload
//  2. digest = sha256(0xffff ++ "ton-connect" ++ sha256(message))
//
// Workchain кодируется big-endian — так считает эталонная проверка tonkeeper,
// кошельки подписывают именно этот вариант.
func ProofDigest(workchain int32, addrHash []byte, proof Proof) ([]byte, error) {
	if len(addrHash) != 32 {
		return nil, fmt.Errorf("address hash must be 32 bytes, got %d", len(addrHash))
	}
	if got := len(proof.Domain.Value); got != proof.Domain.LengthBytes {
		return nil, fmt.Errorf("domain length mismatch: lengthBytes=%d, actual=%d", proof.Domain.LengthBytes, got)
	}

	message := []byte(ProofPrefix)

	wcBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(wcBytes, uint32(workchain))
	message = append(message, wcBytes...)

	message = append(message, addrHash...)

	domainLenBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(domainLenBytes, uint32(proof.Domain.LengthBytes))
	message = append(message, domainLenBytes...)
	message = append(message, []byte(proof.Domain.Value)...)

	tsBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(tsBytes, uint64(proof.Timestamp))
	message = append(message, tsBytes...)

	message = append(message, []byte(proof.Payload)...)

	msgHash := sha256.Sum256(message)

	envelope := []byte{0xff, 0xff}
	envelope = append(envelope, []byte(ConnectPrefix)...)
	envelope = append(envelope, msgHash[:]...)

	digest := sha256.Sum256(envelope)
	return digest[:], nil
}

// DecodeSignature декодирует base64 подпись из ton_proof.
func DecodeSignature(sig string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(sig)
	if err != nil {
		return nil, fmt.Errorf("invalid signature base64: %w", err)
	}
	if len(raw) != ed25519.SignatureSize {
		return nil, fmt.Errorf("invalid signature size: %d", len(raw))
	}
	return raw, nil
}

// VerifySignature проверяет Ed25519 подпись над дайджестом из ProofDigest.
func VerifySignature(pubKey, digest, sig []byte) error {
	if len(pubKey) != ed25519.PublicKeySize {
		return fmt.Errorf("invalid public key size: %d", len(pubKey))
	}
	if len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("invalid signature size: %d", len(sig))
	}
	if !ed25519.Verify(pubKey, digest, sig) {
		return fmt.Errorf("invalid signature")
	}
	return nil
}
