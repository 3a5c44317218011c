package random

import (
	"github.com/bytedance/gopkg/lang/fastrand"
)

const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func RandStr(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[fastrand.Intn(len(letters))]
	}
	return string(b)
}
