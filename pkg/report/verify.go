// pkg/report/verify.go

package report

import (
	"os"

	"github.com/CodeMonkeyCybersecurity/wipe/pkg/attest"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/keystore"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/shared"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_err"
)

// Verification is the result of checking a stored report.
type Verification struct {
	Record      attest.Record `json:"record"`
	Digest      string        `json:"digest"`
	Fingerprint string        `json:"public_key_fingerprint"`
	JSONPath    string        `json:"json_path"`
	SigPath     string        `json:"sig_path"`
}

// VerifyReport checks that the JSON at jsonPath is in canonical form and that
// its detached signature verifies under the public key at pubPath. An empty
// sigPath means <jsonPath>.sig.
func VerifyReport(jsonPath, sigPath, pubPath string) (*Verification, error) {
	if sigPath == "" {
		sigPath = jsonPath + shared.SignatureSuffix
	}

	stored, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, wipe_err.NewFilesystemError("cannot read report", err)
	}
	if !attest.IsCanonical(stored) {
		return nil, wipe_err.NewIntegrityError("report is not canonical JSON", nil,
			"The file was re-encoded or edited after it was written")
	}
	rec, err := attest.ParseCanonical(stored)
	if err != nil {
		return nil, wipe_err.NewIntegrityError("report does not decode as an attestation", err)
	}

	sig, err := os.ReadFile(sigPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, wipe_err.NewIntegrityError("report has no signature", err,
				"The report was written unsigned; check signing_error in the run output")
		}
		return nil, wipe_err.NewFilesystemError("cannot read signature", err)
	}
	pub, err := keystore.LoadPublicKey(pubPath)
	if err != nil {
		return nil, wipe_err.NewFilesystemError("cannot load public key", err)
	}
	if err := keystore.Verify(pub, stored, sig); err != nil {
		return nil, err
	}
	fp, err := keystore.PublicKeyFingerprint(pub)
	if err != nil {
		return nil, err
	}

	return &Verification{
		Record:      rec,
		Digest:      attest.Digest(stored),
		Fingerprint: fp,
		JSONPath:    jsonPath,
		SigPath:     sigPath,
	}, nil
}
