// Package relay implements the chat-completion forwarder.
//
// A Forwarder parses the inbound body, keeps only its messages, adds the
// configured temperature and max_tokens and POSTs the result to the
// upstream URL:
//
//	{"messages":[...],"temperature":0.7,"max_tokens":1000}
//
// The upstream JSON document is written back unmodified with status 200 and
// Content-Type application/json. Any upstream failure (connection, TLS,
// timeout, a body that is not JSON) is answered with 500 and an empty body,
// and logged once at error level. The upstream status code is not inspected
// unless Settings.PropagateStatus is set.
//
// Settings can be swapped at runtime with Update; each request uses the
// snapshot it started with.
package relay
