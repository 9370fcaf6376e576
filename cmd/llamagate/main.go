// llamagate is a forwarding shim for the gaia llama chat-completions endpoint.
//
// It listens on a local address, accepts OpenAI-style chat requests, pins the
// generation controls (temperature 0.7, max_tokens 1000) and relays the
// upstream JSON answer back to the caller.
//
// Usage:
//
//	# Start on 127.0.0.1:3000 with built-in defaults
//	llamagate
//
//	# Start with a configuration file
//	llamagate run --config /etc/llamagate/llamagate.yaml
//
//	# Validate configuration without binding
//	llamagate run --dry-run
//
//	# Inspect recorded exchanges
//	llamagate journal list --since 1h --output csv
//
//	# Show version information
//	llamagate version
package main

func main() {
	Execute()
}
