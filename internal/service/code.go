package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	minRoomCode = 100000
	maxRoomCode = 999999
)

// CodeGenerator produces a room join code.
type CodeGenerator func() (string, error)

// RandomCode draws a 6-digit code uniformly from 100000-999999.
// Codes are not checked against existing rooms.
func RandomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(maxRoomCode-minRoomCode+1))
	if err != nil {
		return "", fmt.Errorf("generating room code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+minRoomCode), nil
}
