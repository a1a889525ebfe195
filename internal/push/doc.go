// Package push maintains the persistent WebSocket connection that carries
// server-initiated feed events. It owns connect/reconnect/heartbeat
// lifecycle, decodes inbound frames into typed payloads, and fans them out
// on the event bus. Reconnection uses exponential backoff with a fixed
// attempt budget; once spent, only an explicit Connect resumes.
package push
