package coupon

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
)

const (
	// IssuePerUser is the number of coupons granted at registration.
	IssuePerUser = 5

	codeLen     = 10
	codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	minDiscount = 5
	maxDiscount = 12

	// Sized for a long-lived deployment; at 1% FPR a false positive only
	// costs one extra generation round.
	bloomCapacity = 10_000_000
	bloomFPR      = 0.01

	maxGenAttempts = 100
)

// Issuer generates batches of fresh coupons with unique codes. A bloom
// filter seeded from existing codes pre-screens candidates; the database
// unique constraint remains the backstop for false negatives.
type Issuer struct {
	mu    sync.Mutex
	seen  *bloom.BloomFilter
	randb func(b []byte) error
}

// NewIssuer creates an Issuer with an empty code filter.
func NewIssuer() *Issuer {
	return &Issuer{
		seen: bloom.NewWithEstimates(bloomCapacity, bloomFPR),
		randb: func(b []byte) error {
			_, err := rand.Read(b)
			return err
		},
	}
}

// Seed loads all existing coupon codes into the duplicate filter.
// Call once at startup before issuing.
func (i *Issuer) Seed(ctx context.Context, repo Repository) error {
	codes, err := repo.AllCodes(ctx)
	if err != nil {
		return errors.Wrap(err, "list coupon codes")
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	for _, code := range codes {
		i.seen.AddString(code)
	}
	return nil
}

// Issue produces n coupons for the given user, each with a fresh random
// 10-character alphanumeric code and a random 5-12% discount. The returned
// coupons are not yet persisted.
func (i *Issuer) Issue(userID int64, n int) ([]Coupon, error) {
	coupons := make([]Coupon, 0, n)
	for range n {
		code, err := i.nextCode()
		if err != nil {
			return nil, err
		}

		discount, err := i.randInt(minDiscount, maxDiscount)
		if err != nil {
			return nil, errors.Wrap(err, "pick discount")
		}

		coupons = append(coupons, Coupon{
			UserID:      userID,
			Code:        code,
			Discount:    discount,
			Description: fmt.Sprintf("Coupon con %d%% di sconto", discount),
			IsActive:    true,
		})
	}
	return coupons, nil
}

// nextCode generates a random code not present in the duplicate filter and
// records it.
func (i *Issuer) nextCode() (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	for range maxGenAttempts {
		code, err := i.randCode()
		if err != nil {
			return "", errors.Wrap(err, "generate code")
		}
		if i.seen.TestString(code) {
			continue
		}
		i.seen.AddString(code)
		return code, nil
	}
	return "", errors.New("exhausted coupon code attempts")
}

func (i *Issuer) randCode() (string, error) {
	buf := make([]byte, codeLen)
	if err := i.randb(buf); err != nil {
		return "", err
	}
	for n, b := range buf {
		buf[n] = codeCharset[int(b)%len(codeCharset)]
	}
	return string(buf), nil
}

// randInt returns a uniform-ish random integer in [lo, hi].
func (i *Issuer) randInt(lo, hi int) (int, error) {
	var b [1]byte
	if err := i.randb(b[:]); err != nil {
		return 0, err
	}
	return lo + int(b[0])%(hi-lo+1), nil
}
