package services

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/blake2b"
)

// Secret keys are human-memorable (ADJECTIVE-NOUN-NNNN) so a user can write
// one down and resume an anonymous session later. Only the BLAKE2b digest is
// stored; the plaintext key is shown exactly once.

var keyAdjectives = []string{
	"SILENT", "BRAVE", "CALM", "DEEP", "SOFT", "QUIET", "GENTLE", "STILL",
	"WARM", "CLEAR", "SLOW", "KIND", "LIGHT", "STEADY", "OPEN", "MILD",
}

var keyNouns = []string{
	"RAIN", "OCEAN", "FOREST", "STORM", "WIND", "RIVER", "STONE", "CLOUD",
	"EMBER", "MEADOW", "HARBOR", "VALLEY", "AURORA", "WILLOW", "TIDE", "PINE",
}

// GenerateSecretKey returns a new random session key.
func GenerateSecretKey() (string, error) {
	adj, err := randomIndex(len(keyAdjectives))
	if err != nil {
		return "", err
	}
	noun, err := randomIndex(len(keyNouns))
	if err != nil {
		return "", err
	}
	num, err := randomIndex(10000)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%04d", keyAdjectives[adj], keyNouns[noun], num), nil
}

// KeyDigest returns the BLAKE2b-256 digest of a secret key. Sessions are
// looked up by digest so the plaintext key never touches the database.
func KeyDigest(secretKey string) []byte {
	sum := blake2b.Sum256([]byte(secretKey))
	return sum[:]
}

func randomIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("failed to read random index: %w", err)
	}
	return int(v.Int64()), nil
}
