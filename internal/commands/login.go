package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login [operator-id] [name...]",
	Short: "Sign in as an operator",
	Long: `Store the operator identity in the config file. Sessions created
afterwards belong to this identity.

Examples:
  wistep login op-17 Dana Melis
  wistep login adm-1 G. Ruiz --admin`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		provider, _, err := openAuth()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		id := args[0]
		name := strings.Join(args[1:], " ")
		admin, _ := cmd.Flags().GetBool("admin")

		if err := provider.SignIn(id, name, admin); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		role := "operator"
		if admin {
			role = "admin"
		}
		fmt.Printf("✅ Signed in as %s (%s, %s)\n", name, id, role)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	Run: func(cmd *cobra.Command, args []string) {
		provider, _, err := openAuth()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if provider.Current() == nil {
			fmt.Println("Not signed in")
			return
		}
		if err := provider.SignOut(); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Println("Signed out")
	},
}

func init() {
	loginCmd.Flags().Bool("admin", false, "Sign in with review permissions")
}
