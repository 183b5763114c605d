package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/registration-service/internal/domain"
)

const nonceBytes = 16

// Codec mints and parses opaque token values. The wire format is
//
//	<action>_<kindAbbrev>_<issuedAtMillis>_<randomHex>_<secondaryMillis>
//
// which is the link format the CRM emails have always carried. The value
// never embeds the subject id; the subject binding lives only in the
// stored record, so holding one link does not help enumerate others.
type Codec struct {
	now func() time.Time
}

// CodecOption customizes codec construction.
type CodecOption func(*Codec)

// WithCodecClock injects a custom clock (useful for tests).
func WithCodecClock(clock func() time.Time) CodecOption {
	return func(c *Codec) {
		if clock != nil {
			c.now = clock
		}
	}
}

// NewCodec builds a codec.
func NewCodec(opts ...CodecOption) *Codec {
	c := &Codec{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Parsed holds the self-describing segments of a token value.
type Parsed struct {
	Action   domain.TokenAction
	Kind     domain.SubjectKind
	IssuedAt time.Time
}

// Generate mints a fresh value for the given kind and action. Entropy
// comes from crypto/rand; the timestamp segments are convention, not the
// source of unpredictability.
func (c *Codec) Generate(kind domain.SubjectKind, action domain.TokenAction) (string, error) {
	buf := make([]byte, nonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token nonce: %w", err)
	}

	now := c.now()
	return strings.Join([]string{
		string(action),
		kind.Abbrev(),
		strconv.FormatInt(now.UnixMilli(), 10),
		hex.EncodeToString(buf),
		strconv.FormatInt(now.UnixMilli(), 10),
	}, "_"), nil
}

// Parse validates the structure of a token value. Malformed or tampered
// values fail with ErrMalformed, which callers must keep distinct from a
// store lookup miss.
func (c *Codec) Parse(value string) (*Parsed, error) {
	parts := strings.Split(value, "_")
	if len(parts) != 5 {
		return nil, ErrMalformed
	}

	action, ok := domain.ParseTokenAction(parts[0])
	if !ok {
		return nil, ErrMalformed
	}

	kind, ok := domain.KindFromAbbrev(parts[1])
	if !ok {
		return nil, ErrMalformed
	}

	issuedMillis, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return nil, ErrMalformed
	}

	nonce, err := hex.DecodeString(parts[3])
	if err != nil || len(nonce) != nonceBytes {
		return nil, ErrMalformed
	}

	if _, err := strconv.ParseInt(parts[4], 10, 64); err != nil {
		return nil, ErrMalformed
	}

	return &Parsed{
		Action:   action,
		Kind:     kind,
		IssuedAt: time.UnixMilli(issuedMillis),
	}, nil
}
