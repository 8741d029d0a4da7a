package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainDomain  = "symbolic/domain/v1"
	DomainProblem = "symbolic/problem/v1"
	DomainState   = "symbolic/state/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DomainHash computes the content hash of a compiled domain.
func DomainHash(spec DomainSpec) (string, error) {
	canonical, err := CanonicalJSON(spec)
	if err != nil {
		return "", fmt.Errorf("DomainHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDomain, canonical), nil
}

// ProblemHash computes the content hash of a compiled problem.
func ProblemHash(spec ProblemSpec) (string, error) {
	canonical, err := CanonicalJSON(spec)
	if err != nil {
		return "", fmt.Errorf("ProblemHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainProblem, canonical), nil
}

// StateHash computes the content hash of a state given its rendered
// propositions. Order of the input does not matter.
func StateHash(props []string) (string, error) {
	sorted := make([]string, len(props))
	copy(sorted, props)
	slices.Sort(sorted)
	canonical, err := MarshalCanonical(sorted)
	if err != nil {
		return "", fmt.Errorf("StateHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainState, canonical), nil
}

// MustStateHash is like StateHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustStateHash(props []string) string {
	h, err := StateHash(props)
	if err != nil {
		panic(err)
	}
	return h
}
