// file: utils/code_generator.go
package utils

import (
	"math/rand"
	"strings"
)

const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateInvitationCode 生成指定长度的随机邀请码，可并发调用
func GenerateInvitationCode(length int) string {
	var sb strings.Builder
	sb.Grow(length)
	for i := 0; i < length; i++ {
		sb.WriteByte(charset[rand.Intn(len(charset))])
	}
	return sb.String()
}
