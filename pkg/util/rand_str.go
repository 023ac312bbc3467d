// Package util contains any functions used across the application that don't match
// any other package
package util

import gonanoid "github.com/matoous/go-nanoid/v2"

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// RandStr returns a random string of n letters. It's safe to call from
// multiple goroutines.
func RandStr(n int) string {
	return gonanoid.MustGenerate(charset, n)
}

// ObjectKey returns a fresh object store key that keeps the file's extension
func ObjectKey(ext string) string {
	key := gonanoid.Must(21)
	if ext != "" {
		key += "." + ext
	}
	return key
}
