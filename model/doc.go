// Package model defines the provider-agnostic abstractions for talking to
// chat-completion style models inside devcrew.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Normalize tool / function call representation (ToolDefinition)
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate deterministic testing (ScriptedModel)
//
// Providers (openai, anthropic, gemini sub-packages) implement Model so the
// agent and flow layers stay decoupled from vendor SDKs.
package model
