package hash

import (
	"fmt"
	"os"

	"davd/internal/server/auth"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

var (
	digestUser  string
	digestRealm string
)

var HashCmd = &cobra.Command{
	Use:   "hash [PASSWORD...]",
	Short: "Generate credential hashes for the user table",
	Long: "Generate bcrypt hashes of the given passwords, or a digest HA1\n" +
		"when --digest-user is set. With no arguments the password is read\n" +
		"from the terminal without echo.",
	Run: func(_ *cobra.Command, args []string) {
		if len(args) == 0 {
			pw, err := promptPassword()
			if err != nil {
				fmt.Fprintln(os.Stderr, "Read password failed:", err)
				os.Exit(2)
			}
			args = []string{pw}
		}

		for _, pw := range args {
			if digestUser != "" {
				fmt.Fprintln(os.Stdout, auth.HA1(digestUser, digestRealm, pw))
				continue
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
			if err != nil {
				fmt.Fprintln(os.Stderr, "Generate fail:", pw, " err:", err)
			} else {
				fmt.Fprintln(os.Stdout, string(hash))
			}
		}
	},
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func init() {
	HashCmd.Flags().StringVarP(&digestUser, "digest-user", "u", "", "Emit a digest HA1 for this user instead of a bcrypt hash")
	HashCmd.Flags().StringVarP(&digestRealm, "digest-realm", "r", "davd", "Realm used for the digest HA1")
}
