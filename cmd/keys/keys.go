// cmd/keys/keys.go

package keys

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/CodeMonkeyCybersecurity/wipe/pkg/hashutil"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/keystore"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/shared"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_cli"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_err"
	"github.com/CodeMonkeyCybersecurity/wipe/pkg/wipe_io"
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// KeysCmd groups signing key management.
var KeysCmd = NewKeysCmd()

// NewKeysCmd builds the command group with fresh flag state.
func NewKeysCmd() *cobra.Command {
	keysCmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage the report signing key",
		Long: `The signing key is an RSA key pair stored as keys/private.pem (PKCS#8,
mode 0600) and keys/public.pem. Set WIPE_KEY_PASSPHRASE to encrypt the
private key at rest.`,
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the signing key if it does not exist",
		Args:  cobra.NoArgs,
		RunE:  wipe_cli.Wrap(runInit),
	}
	initCmd.Flags().Int("key-bits", shared.DefaultKeyBits, "RSA modulus size for a new key: 2048, 3072, 4096")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the public key fingerprint",
		Args:  cobra.NoArgs,
		RunE:  wipe_cli.Wrap(runShow),
	}

	for _, c := range []*cobra.Command{initCmd, showCmd} {
		c.Flags().String("key-dir", shared.DefaultKeyDir, "directory holding private.pem and public.pem")
		c.Flags().Bool("json", false, "print the result as JSON")
	}
	keysCmd.AddCommand(initCmd, showCmd)
	return keysCmd
}

// KeyInfo is what both subcommands print.
type KeyInfo struct {
	PrivateKeyPath string `json:"private_key_path,omitempty"`
	PublicKeyPath  string `json:"public_key_path"`
	Bits           int    `json:"bits"`
	Fingerprint    string `json:"fingerprint"`
	Created        bool   `json:"created"`
	Encrypted      bool   `json:"encrypted,omitempty"`
}

func runInit(rc *wipe_io.RuntimeContext, cmd *cobra.Command, args []string) error {
	logger := otelzap.Ctx(rc.Ctx)

	cfg, err := wipe_cli.LoadConfig(cmd)
	if err != nil {
		return err
	}
	opts := wipe_cli.KeystoreOptions(cfg, rc.Log)
	defer hashutil.SecureZero(opts.Passphrase)
	key, err := keystore.LoadOrCreate(rc.Ctx, opts)
	if err != nil {
		return err
	}
	logger.Info("Signing key ready",
		zap.String("public_key", key.PubPath),
		zap.Bool("created", key.Created),
		zap.String("fingerprint", key.Fingerprint))

	return printKey(cmd, KeyInfo{
		PrivateKeyPath: key.KeyPath,
		PublicKeyPath:  key.PubPath,
		Bits:           key.Public.N.BitLen(),
		Fingerprint:    key.Fingerprint,
		Created:        key.Created,
		Encrypted:      cfg.KeyPassphrase != "",
	})
}

func runShow(rc *wipe_io.RuntimeContext, cmd *cobra.Command, args []string) error {
	cfg, err := wipe_cli.LoadConfig(cmd)
	if err != nil {
		return err
	}
	path := cfg.PublicKeyPath()
	pub, err := keystore.LoadPublicKey(path)
	if err != nil {
		return wipe_err.KeyLoad(path, err)
	}
	fp, err := keystore.PublicKeyFingerprint(pub)
	if err != nil {
		return err
	}
	otelzap.Ctx(rc.Ctx).Debug("Public key loaded", zap.String("path", path))
	return printKey(cmd, KeyInfo{PublicKeyPath: path, Bits: pub.N.BitLen(), Fingerprint: fp})
}

func printKey(cmd *cobra.Command, info KeyInfo) error {
	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	writeKey(out, info)
	return nil
}

func writeKey(w io.Writer, info KeyInfo) {
	if info.PrivateKeyPath != "" {
		state := "existing"
		if info.Created {
			state = "created"
		}
		fmt.Fprintf(w, "private key: %s (%s)\n", info.PrivateKeyPath, state)
	}
	fmt.Fprintf(w, "public key:  %s\n", info.PublicKeyPath)
	fmt.Fprintf(w, "bits:        %d\n", info.Bits)
	fmt.Fprintf(w, "fingerprint: %s\n", info.Fingerprint)
}
