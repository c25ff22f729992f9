package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed fingerprints.
// Version suffix enables future algorithm migration.
const (
	DomainQueryText = "qshape/query/v1"
	DomainPlan      = "qshape/plan/v1"
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

// QueryFingerprint returns the plan-cache key for remote query text.
// Canonical provider trees render to identical text, so semantically
// identical queries share a fingerprint.
func QueryFingerprint(queryText string) string {
	return hashWithDomain(DomainQueryText, []byte(queryText))
}

// PlanFingerprint hashes a compiled plan report (any canonical-JSON value).
func PlanFingerprint(report any) (string, error) {
	canonical, err := MarshalCanonical(report)
	if err != nil {
		return "", fmt.Errorf("PlanFingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainPlan, canonical), nil
}
