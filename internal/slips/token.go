package slips

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrSigningDisabled = errors.New("slip signing secret not configured")
	ErrInvalidToken    = errors.New("invalid slip token")
)

// SlipClaims pins the figures printed on a slip so a scanned token can be
// checked against the stored settlement.
type SlipClaims struct {
	SettlementID     int    `json:"sid"`
	SettlementNumber string `json:"num"`
	EmployeeID       int    `json:"eid"`
	NetPayable       string `json:"net"`
	jwt.RegisteredClaims
}

type Signer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewSigner(secret, issuer string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

func (s *Signer) Enabled() bool {
	return s != nil && len(s.secret) > 0
}

// Sign issues a token for a committed settlement
func (s *Signer) Sign(settlementID int, number string, employeeID int, netPayable string) (string, error) {
	if !s.Enabled() {
		return "", ErrSigningDisabled
	}
	now := time.Now()
	claims := SlipClaims{
		SettlementID:     settlementID,
		SettlementNumber: number,
		EmployeeID:       employeeID,
		NetPayable:       netPayable,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   strconv.Itoa(settlementID),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses a token and returns its claims
func (s *Signer) Verify(tokenString string) (*SlipClaims, error) {
	if !s.Enabled() {
		return nil, ErrSigningDisabled
	}
	token, err := jwt.ParseWithClaims(tokenString, &SlipClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*SlipClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
