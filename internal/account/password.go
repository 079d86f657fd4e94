package account

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher 抽象密码哈希算法。
type Hasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// BcryptHasher 使用 bcrypt 生成带盐哈希，Cost 为 0 时使用 bcrypt.DefaultCost。
type BcryptHasher struct {
	Cost int
}

// Hash 生成密码哈希。
func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(bytes), nil
}

// Compare 校验密码是否匹配哈希。
func (h BcryptHasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
