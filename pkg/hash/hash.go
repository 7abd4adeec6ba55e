// Package hash 提供密码哈希与校验。
package hash

import "golang.org/x/crypto/bcrypt"

// MaxPasswordBytes 是 bcrypt 能处理的最大密码长度（字节）。
const MaxPasswordBytes = 72

// ErrPasswordTooLong 在密码超过 MaxPasswordBytes 时返回。
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// HashPassword 使用 bcrypt 生成密码哈希。
func HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash 校验明文密码与哈希是否匹配。
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
