package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecureFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"spaces", "My cool movie.mov", "My_cool_movie.mov"},
		{"traversal", "../../../etc/passwd", "etc_passwd"},
		{"windows separators", `..\..\boot.ini`, "boot.ini"},
		{"umlauts", "i contain cool ümläuts.txt", "i_contain_cool_umlauts.txt"},
		{"symbols stripped", "a$b%c&d.txt", "abcd.txt"},
		{"leading dots", "...hidden", "hidden"},
		{"device name", "con.txt", "_con.txt"},
		{"plain", "a.txt", "a.txt"},
		{"nothing left", "../..", ""},
		{"non latin", "工單.pdf", "pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SecureFilename(tt.in))
		})
	}
}

func TestIsSecureFilename(t *testing.T) {
	assert.True(t, IsSecureFilename("a.txt"))
	assert.False(t, IsSecureFilename(""))
	assert.False(t, IsSecureFilename(".."))
	assert.False(t, IsSecureFilename("a b.txt"))
}
