package client

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

// NewSessionCommand constructs the `session` command group and subcommands.
func NewSessionCommand(baseURL BaseURLFunc) *cobra.Command {
	sessionCmd := &cobra.Command{Use: "session", Short: "Session operations"}
	sessionCmd.AddCommand(
		newSessionOpenCommand(baseURL),
		newSessionCloseCommand(baseURL),
		newSessionGetCommand(baseURL),
		newSessionMessagesCommand(baseURL),
		newSessionChainCommand(baseURL),
	)
	return sessionCmd
}

func newSessionOpenCommand(baseURL BaseURLFunc) *cobra.Command {
	openCmd := &cobra.Command{
		Use:   "open",
		Short: "Open a session on a channel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			channel, _ := cmd.Flags().GetString("channel")
			period, _ := cmd.Flags().GetInt64("buffer-period")

			var rec map[string]any
			err := postJSON(baseURL, "/v1/sessions/open", map[string]any{
				"channel":         channel,
				"bufferPeriodSec": period,
			}, &rec)
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(rec)
		},
	}
	openCmd.Flags().StringP("channel", "c", "", "Channel name")
	openCmd.Flags().Int64("buffer-period", 0, "Buffer period in seconds (0 = server default)")
	_ = openCmd.MarkFlagRequired("channel")
	return openCmd
}

func newSessionCloseCommand(baseURL BaseURLFunc) *cobra.Command {
	closeCmd := &cobra.Command{
		Use:   "close",
		Short: "Close a session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sid, _ := cmd.Flags().GetString("id")
			if err := postJSON(baseURL, "/v1/sessions/close", map[string]any{"sessionId": sid}, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "closed")
			return nil
		},
	}
	closeCmd.Flags().String("id", "", "Session id")
	_ = closeCmd.MarkFlagRequired("id")
	return closeCmd
}

func newSessionGetCommand(baseURL BaseURLFunc) *cobra.Command {
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Fetch a session record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sid, _ := cmd.Flags().GetString("id")
			var rec map[string]any
			if err := getJSON(baseURL, "/v1/sessions/get?id="+url.QueryEscape(sid), &rec); err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(rec)
		},
	}
	getCmd.Flags().String("id", "", "Session id")
	_ = getCmd.MarkFlagRequired("id")
	return getCmd
}

func newSessionMessagesCommand(baseURL BaseURLFunc) *cobra.Command {
	messagesCmd := &cobra.Command{
		Use:   "messages",
		Short: "List a session's collected messages in position order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sid, _ := cmd.Flags().GetString("id")
			var res struct {
				Messages []messageView `json:"messages"`
			}
			if err := getJSON(baseURL, "/v1/sessions/messages?id="+url.QueryEscape(sid), &res); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for pos, m := range res.Messages {
				out := decodedMessage(m.ID, m.TimestampMs, m.Content, m.Tags)
				out["position"] = pos
				if err := enc.Encode(out); err != nil {
					return err
				}
			}
			return nil
		},
	}
	messagesCmd.Flags().String("id", "", "Session id")
	_ = messagesCmd.MarkFlagRequired("id")
	return messagesCmd
}

func newSessionChainCommand(baseURL BaseURLFunc) *cobra.Command {
	chainCmd := &cobra.Command{
		Use:   "chain",
		Short: "List a channel's sessions from newest to oldest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			channel, _ := cmd.Flags().GetString("channel")
			var res struct {
				Sessions []map[string]any `json:"sessions"`
			}
			if err := getJSON(baseURL, "/v1/channels/chain?channel="+url.QueryEscape(channel), &res); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, rec := range res.Sessions {
				if err := enc.Encode(rec); err != nil {
					return err
				}
			}
			return nil
		},
	}
	chainCmd.Flags().StringP("channel", "c", "", "Channel name")
	_ = chainCmd.MarkFlagRequired("channel")
	return chainCmd
}
