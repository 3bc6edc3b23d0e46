// keygen.go implements the "resume-ssh keygen" command that writes a
// persistent host key.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gupta-akshay/portfolio-v2-sub000/internal/identity"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a persistent ed25519 host key",
	Long: `Write a new ed25519 host key in OpenSSH format with mode 0600.
Point RESUME_SSH_HOST_KEY_PATH or --host-key at it so clients see the
same fingerprint across restarts.`,
	Args: cobra.NoArgs,
	RunE: runKeygen,
}

var (
	keyOutFlag   string
	keyForceFlag bool
)

func init() {
	keygenCmd.Flags().StringVarP(&keyOutFlag, "out", "o", "host_key", "Where to write the private key")
	keygenCmd.Flags().BoolVar(&keyForceFlag, "force", false, "Overwrite an existing key file")
}

func runKeygen(cmd *cobra.Command, args []string) error {
	id, err := identity.WriteKey(keyOutFlag, keyForceFlag)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\nFingerprint: %s\n", id.Path, id.Fingerprint())
	return nil
}
