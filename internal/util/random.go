package util

import "math/rand/v2"

const DefaultRandomStringRunes = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func RandomString(length int, runes string) string {
	s := make([]byte, length)
	for i := range s {
		s[i] = runes[rand.IntN(len(runes))]
	}
	return string(s)
}
