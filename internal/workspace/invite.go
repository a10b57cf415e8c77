// Package workspace はワークスペース管理のドメインロジックを提供する。
package workspace

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// inviteCodeAlphabet は招待コードに使用する文字集合。
// 人間が転記することを前提に、見間違えやすい文字（0/O、1/I/l、i/o）を除外している。
const inviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"

// InviteCodeLength は本番経路で使用する招待コードの長さ。
const InviteCodeLength = 6

// GenerateInviteCode はlength文字の招待コードを生成する。
// 各文字はアルファベットから独立かつ一様に選ばれる。
// 衝突耐性は実用上十分なレベルであり、暗号学的な強度は要求しない。
func GenerateInviteCode(length int) (string, error) {
	max := big.NewInt(int64(len(inviteCodeAlphabet)))
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("招待コードの生成に失敗しました: %w", err)
		}
		code[i] = inviteCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
