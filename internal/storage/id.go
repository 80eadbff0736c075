package storage

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewID builds a collision-resistant id from the current timestamp and a
// random base36 suffix. Uniqueness is probabilistic, which is a weaker
// guarantee than a server-assigned id but sufficient for a single-device
// store; the remote engine never uses this, its ids are backend-assigned.
func NewID() string {
	suffix := make([]byte, 9)
	max := big.NewInt(int64(len(idAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing is effectively fatal elsewhere too;
			// degrade to a time-derived suffix rather than panic.
			suffix[i] = idAlphabet[time.Now().UnixNano()%int64(len(idAlphabet))]
			continue
		}
		suffix[i] = idAlphabet[n.Int64()]
	}
	return fmt.Sprintf("%d_%s", time.Now().UnixMilli(), suffix)
}
