package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// messageView mirrors the server's JSON shape for a stored message.
type messageView struct {
	ID          uint64   `json:"id"`
	TimestampMs int64    `json:"timestampMs"`
	Content     []byte   `json:"content"`
	Tags        []string `json:"tags,omitempty"`
}

// NewMessageCommand constructs the `message` command group and subcommands.
func NewMessageCommand(baseURL BaseURLFunc) *cobra.Command {
	messageCmd := &cobra.Command{Use: "message", Short: "Message operations"}
	messageCmd.AddCommand(
		newMessagePersistCommand(baseURL),
		newMessageIngestCommand(baseURL),
		newMessageSearchCommand(baseURL),
		newMessageGetCommand(baseURL),
		newTagListCommand(baseURL),
	)
	return messageCmd
}

func newMessagePersistCommand(baseURL BaseURLFunc) *cobra.Command {
	persistCmd := &cobra.Command{
		Use:   "persist",
		Short: "Persist a message without routing it into a session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, _ := cmd.Flags().GetString("data")
			tags, _ := cmd.Flags().GetStringArray("tag")
			tsMs, _ := cmd.Flags().GetInt64("at-ms")

			var created messageView
			err := postJSON(baseURL, "/v1/messages", map[string]any{
				"content":     []byte(data),
				"timestampMs": tsMs,
				"tags":        tags,
			}, &created)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(decodedMessage(created.ID, created.TimestampMs, created.Content, created.Tags))
		},
	}
	persistCmd.Flags().String("data", "", "Message payload")
	persistCmd.Flags().StringArray("tag", nil, "Tag name (repeatable)")
	persistCmd.Flags().Int64("at-ms", 0, "Timestamp in ms (0 = now)")
	return persistCmd
}

func newMessageIngestCommand(baseURL BaseURLFunc) *cobra.Command {
	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Persist a message and collect it into the channel's session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			channel, _ := cmd.Flags().GetString("channel")
			data, _ := cmd.Flags().GetString("data")
			tags, _ := cmd.Flags().GetStringArray("tag")

			var res struct {
				Message   messageView `json:"message"`
				SessionID string      `json:"sessionId"`
				Position  uint64      `json:"position"`
			}
			err := postJSON(baseURL, "/v1/messages/ingest", map[string]any{
				"channel": channel,
				"content": []byte(data),
				"tags":    tags,
			}, &res)
			if err != nil {
				return err
			}
			out := decodedMessage(res.Message.ID, res.Message.TimestampMs, res.Message.Content, res.Message.Tags)
			out["session_id"] = res.SessionID
			out["position"] = res.Position
			return json.NewEncoder(cmd.OutOrStdout()).Encode(out)
		},
	}
	ingestCmd.Flags().StringP("channel", "c", "", "Channel name")
	ingestCmd.Flags().String("data", "", "Message payload")
	ingestCmd.Flags().StringArray("tag", nil, "Tag name (repeatable)")
	_ = ingestCmd.MarkFlagRequired("channel")
	return ingestCmd
}

func newMessageSearchCommand(baseURL BaseURLFunc) *cobra.Command {
	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Search messages by relative-time predicate or tag",
		RunE: func(cmd *cobra.Command, _ []string) error {
			before, _ := cmd.Flags().GetInt64("before")
			after, _ := cmd.Flags().GetInt64("after")
			older, _ := cmd.Flags().GetInt64("older-than")
			newer, _ := cmd.Flags().GetInt64("newer-than")
			tag, _ := cmd.Flags().GetString("tag")
			filter, _ := cmd.Flags().GetString("filter")
			limit, _ := cmd.Flags().GetInt("limit")

			pred := map[string]any{}
			switch {
			case cmd.Flags().Changed("before"):
				pred["kind"] = "before"
				pred["seconds"] = before
			case cmd.Flags().Changed("after"):
				pred["kind"] = "after"
				pred["seconds"] = after
			case cmd.Flags().Changed("older-than") || cmd.Flags().Changed("newer-than"):
				pred["kind"] = "between"
				pred["olderSeconds"] = older
				pred["newerSeconds"] = newer
			case tag != "":
				pred["kind"] = "tagged"
				pred["tag"] = tag
			default:
				return fmt.Errorf("one of --before, --after, --older-than/--newer-than, or --tag is required")
			}

			var res struct {
				Messages []messageView `json:"messages"`
			}
			err := postJSON(baseURL, "/v1/messages/search", map[string]any{
				"predicate": pred,
				"filter":    filter,
				"limit":     limit,
			}, &res)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, m := range res.Messages {
				if err := enc.Encode(decodedMessage(m.ID, m.TimestampMs, m.Content, m.Tags)); err != nil {
					return err
				}
			}
			return nil
		},
	}
	searchCmd.Flags().Int64("before", 0, "Messages at least N seconds old")
	searchCmd.Flags().Int64("after", 0, "Messages newer than N seconds")
	searchCmd.Flags().Int64("older-than", 0, "Window lower bound: at most N seconds old")
	searchCmd.Flags().Int64("newer-than", 0, "Window upper bound: at least N seconds old")
	searchCmd.Flags().String("tag", "", "Messages carrying the tag")
	searchCmd.Flags().String("filter", "", "CEL filter applied server-side")
	searchCmd.Flags().Int("limit", 0, "Stop after N messages (0 = server default)")
	return searchCmd
}

func newMessageGetCommand(baseURL BaseURLFunc) *cobra.Command {
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Fetch one message by id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mid, _ := cmd.Flags().GetUint64("id")
			var m messageView
			if err := getJSON(baseURL, fmt.Sprintf("/v1/messages/get?id=%d", mid), &m); err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(decodedMessage(m.ID, m.TimestampMs, m.Content, m.Tags))
		},
	}
	getCmd.Flags().Uint64("id", 0, "Message id")
	_ = getCmd.MarkFlagRequired("id")
	return getCmd
}

func newTagListCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List known tag names",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var res struct {
				Tags []string `json:"tags"`
			}
			if err := getJSON(baseURL, "/v1/tags", &res); err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(res.Tags)
		},
	}
}
