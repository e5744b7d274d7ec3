// Package assistants implements the tool orchestration pass for the chat
// backend: one model completion proposes a tool call, the completion is
// parsed into a typed invocation, the invocation is validated and
// dispatched to the matching tool adapter, and the serialized result is
// returned as synthesized conversation turns for the answering stage.
package assistants
