// Package client provides the `icecp-storage` command-line client.
//
// The CLI talks to the storage module's HTTP endpoint to perform common
// message and session operations from a terminal. It is primarily intended
// for developers and operators.
//
// # Address configuration
//
// The HTTP base URL is discovered by the application that embeds the
// commands via a BaseURLFunc. When using the standalone binary, it reads
// the ICECP_HTTP environment variable and defaults to
// http://127.0.0.1:8080.
//
// Usage
//
//	icecp-storage message persist --data '{"hello":"world"}' --tag greetings
//
//	icecp-storage message ingest --channel telemetry --data '{"v":1}' --tag sensors
//
//	icecp-storage message search --before 60
//	icecp-storage message search --tag sensors --filter 'json.v > 0' --limit 10
//
//	icecp-storage session open --channel telemetry --buffer-period 120
//	icecp-storage session close --id SESSION_ID
//	icecp-storage session messages --id SESSION_ID
//	icecp-storage session chain --channel telemetry
package client
