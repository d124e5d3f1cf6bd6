package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the storage client.
// It registers the message and session command groups.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "icecp-storage",
		Short: "Storage client commands",
	}
	root.AddCommand(NewMessageCommand(baseURL))
	root.AddCommand(NewSessionCommand(baseURL))
	return root
}
