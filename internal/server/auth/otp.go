package auth

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"time"
)

const (
	codeDigits = 6
	codeStep   = 30 * time.Second
)

// CodeGenerator produces 6-digit TOTP codes (HMAC-SHA512, 30 second step)
// from a server-held secret. Codes repeat within a step, so callers store
// them together with the time they were sent.
type CodeGenerator struct {
	secret []byte
	now    func() time.Time
}

func NewCodeGenerator(secret []byte) *CodeGenerator {
	return &CodeGenerator{secret: secret, now: time.Now}
}

// Generate returns the code for the current time step.
func (g *CodeGenerator) Generate() string {
	return g.GenerateAt(g.now())
}

// GenerateAt returns the code for the step containing t.
func (g *CodeGenerator) GenerateAt(t time.Time) string {
	counter := uint64(t.Unix()) / uint64(codeStep/time.Second)
	return hotp(g.secret, counter, codeDigits)
}

func hotp(secret []byte, counter uint64, digits int) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(sha512.New, secret)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (uint32(sum[offset])&0x7f)<<24 |
		uint32(sum[offset+1])<<16 |
		uint32(sum[offset+2])<<8 |
		uint32(sum[offset+3])

	mod := uint32(1)
	for i := 0; i < digits; i++ {
		mod *= 10
	}

	return fmt.Sprintf("%0*d", digits, bin%mod)
}
